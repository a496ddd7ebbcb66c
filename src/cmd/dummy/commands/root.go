package commands

import (
	"io/ioutil"
	"os"
	"os/signal"
	"syscall"

	"github.com/mosaicnetworks/sourcechain/src/config"
	"github.com/mosaicnetworks/sourcechain/src/dummy"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	_config = NewDefaultCLIConfig()
	logger  *logrus.Logger
)

func init() {
	RootCmd.Flags().String("listen", _config.Listen, "Listen IP:Port of the validation engine")
	RootCmd.Flags().Bool("discard", _config.Discard, "discard output to stderr and sdout")
	RootCmd.Flags().String("log", _config.LogLevel, "debug, info, warn, error, fatal, panic")
}

//RootCmd is the root command for Dummy
var RootCmd = &cobra.Command{
	Use:     "dummy",
	Short:   "Sample validation engine for sourcechain nodes",
	PreRunE: loadConfig,
	RunE:    runDummy,
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runDummy(cmd *cobra.Command, args []string) error {
	server, err := dummy.NewDummySocketServer(_config.Listen,
		logger.WithField("component", "DUMMY"))
	if err != nil {
		return err
	}
	defer server.Close()

	logger.WithField("listen", server.Addr()).Info("Serving validation rules")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.WithFields(logrus.Fields{
		"rejected": server.Rejected(),
	}).Info("Stopping")

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

func loadConfig(cmd *cobra.Command, args []string) error {
	err := viper.BindPFlags(cmd.Flags())
	if err != nil {
		return err
	}

	conf := NewDefaultCLIConfig()
	if err := viper.Unmarshal(conf); err != nil {
		return err
	}
	_config = conf

	logger = newLogger()
	logger.Level = config.LogLevel(_config.LogLevel)

	logger.WithFields(logrus.Fields{
		"listen":  _config.Listen,
		"discard": _config.Discard,
		"log":     _config.LogLevel,
	}).Debug("RUN")

	return nil
}

func newLogger() *logrus.Logger {
	logger := logrus.New()

	pathMap := lfshook.PathMap{}

	_, err := os.OpenFile("dummy_info.log", os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		logger.Info("Failed to open dummy_info.log file, using default stderr")
	} else {
		pathMap[logrus.InfoLevel] = "dummy_info.log"
	}

	_, err = os.OpenFile("dummy_debug.log", os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		logger.Info("Failed to open dummy_debug.log file, using default stderr")
	} else {
		pathMap[logrus.DebugLevel] = "dummy_debug.log"
	}

	if err == nil && _config.Discard {
		logger.Out = ioutil.Discard
	}

	logger.Hooks.Add(lfshook.NewHook(
		pathMap,
		&logrus.TextFormatter{},
	))

	return logger
}
