package commands

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mosaicnetworks/sourcechain/src/config"
	"github.com/mosaicnetworks/sourcechain/src/sourcechain"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

//NewRunCmd returns the command that starts a sourcechain node
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run node",
		PreRunE: loadConfig,
		RunE:    runNode,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runNode(cmd *cobra.Command, args []string) error {
	engine := sourcechain.NewEngine(&_config.Sourcechain)

	if err := engine.Init(); err != nil {
		_config.Sourcechain.Logger().Error("Cannot initialize engine:", err)
		return err
	}

	//Shut the node down cleanly on SIGINT so that the stores are closed
	sigintCh := make(chan os.Signal, 1)
	signal.Notify(sigintCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigintCh
		_config.Sourcechain.Logger().Debug("Reacting to SIGINT - Shutdown")
		engine.Node.Shutdown()
	}()

	engine.Run()

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {
	c := &_config.Sourcechain

	cmd.Flags().String("datadir", c.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("log", c.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().Bool("log-files", _config.LogFiles, "Also write info and debug logs to files in the datadir")
	cmd.Flags().String("moniker", c.Moniker, "Optional name")

	// Network
	cmd.Flags().StringP("listen", "l", c.BindAddr, "Listen IP:Port for sourcechain node")
	cmd.Flags().StringP("advertise", "a", c.AdvertiseAddr, "Advertise IP:Port for sourcechain node")
	cmd.Flags().DurationP("timeout", "t", c.TCPTimeout, "TCP Timeout")
	cmd.Flags().Int("max-pool", c.MaxPool, "Connection pool size max")

	// Validation
	cmd.Flags().Bool("inapp", c.Inapp, "Use the built-in sample validator")
	cmd.Flags().StringP("engine-connect", "c", c.EngineAddr, "IP:Port of the validation engine")
	cmd.Flags().Duration("hop-timeout", c.HopTimeout, "Timeout of each fetch while building a validation package")
	cmd.Flags().Int("hold-workers", c.HoldWorkers, "Number of goroutines validating published aspects")

	// Pending validations
	cmd.Flags().Duration("pending-interval", c.PendingInterval, "Time between two retries of pending validations")
	cmd.Flags().Int("pending-workers", c.PendingWorkers, "Max concurrent pending retries")
	cmd.Flags().Duration("pending-max-backoff", c.PendingMaxBackoff, "Max delay between two retries of the same validation")
	cmd.Flags().Float64("pending-rate", c.PendingRate, "Max pending retries started per second")

	// Service
	cmd.Flags().Bool("no-service", c.NoService, "Disable HTTP service")
	cmd.Flags().StringP("service-listen", "s", c.ServiceAddr, "Listen IP:Port for HTTP service")

	// Store
	cmd.Flags().Bool("store", c.Store, "Use badgerDB instead of in-mem DB")
	cmd.Flags().String("db", c.DatabaseDir, "Dabatabase directory")
	cmd.Flags().Int("cache-size", c.CacheSize, "Number of items in LRU caches")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// If --datadir was explicitely set, but not --db, this will update the
	// default database dir to be inside the new datadir
	_config.Sourcechain.SetDataDir(_config.Sourcechain.DataDir)

	logger := _config.Sourcechain.Logger()
	logger.Logger.Level = config.LogLevel(_config.Sourcechain.LogLevel)
	if _config.LogFiles {
		addFileHooks(logger.Logger, _config.Sourcechain.DataDir)
	}

	c := &_config.Sourcechain
	logFields := logrus.Fields{
		"DataDir":           c.DataDir,
		"BindAddr":          c.BindAddr,
		"AdvertiseAddr":     c.AdvertiseAddr,
		"ServiceAddr":       c.ServiceAddr,
		"NoService":         c.NoService,
		"MaxPool":           c.MaxPool,
		"Store":             c.Store,
		"LogLevel":          c.LogLevel,
		"Moniker":           c.Moniker,
		"TCPTimeout":        c.TCPTimeout,
		"HopTimeout":        c.HopTimeout,
		"HoldWorkers":       c.HoldWorkers,
		"PendingInterval":   c.PendingInterval,
		"PendingWorkers":    c.PendingWorkers,
		"PendingMaxBackoff": c.PendingMaxBackoff,
		"PendingRate":       c.PendingRate,
		"CacheSize":         c.CacheSize,
		"EngineAddr":        c.EngineAddr,
		"Inapp":             c.Inapp,
	}

	if c.Store {
		logFields["DatabaseDir"] = c.DatabaseDir
	}

	logger.WithFields(logFields).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/sourcechain.toml (.json, .yaml also work)
	viper.SetConfigName("sourcechain")
	viper.AddConfigPath(_config.Sourcechain.DataDir)

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		_config.Sourcechain.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Sourcechain.Logger().Debugf("No config file found in: %s", _config.Sourcechain.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file
	return viper.Unmarshal(_config)
}

// addFileHooks copies info and debug logs to files in dir.
func addFileHooks(logger *logrus.Logger, dir string) {
	pathMap := lfshook.PathMap{}

	for level, name := range map[logrus.Level]string{
		logrus.InfoLevel:  "sourcechain_info.log",
		logrus.DebugLevel: "sourcechain_debug.log",
	} {
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			logger.Infof("Failed to open %s, using default stderr", path)
			continue
		}
		f.Close()
		pathMap[level] = path
	}

	logger.Hooks.Add(lfshook.NewHook(
		pathMap,
		&logrus.TextFormatter{},
	))
}
