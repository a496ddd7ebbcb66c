package config

import (
	"crypto/ecdsa"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/mosaicnetworks/sourcechain/src/common"
	"github.com/mosaicnetworks/sourcechain/src/proxy"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default filenames.
const (
	// DefaultKeyfile is the default name of the file containing the agent's
	// private key
	DefaultKeyfile = "priv_key"

	// DefaultBadgerFile is the default name of the folder containing the Badger
	// databases
	DefaultBadgerFile = "badger_db"

	// DefaultDNAFile is the default name of the file defining the application
	// entry types.
	DefaultDNAFile = "dna.json"
)

// Default configuration values.
const (
	DefaultLogLevel          = "debug"
	DefaultBindAddr          = "127.0.0.1:1337"
	DefaultServiceAddr       = "127.0.0.1:8000"
	DefaultTCPTimeout        = 1000 * time.Millisecond
	DefaultHopTimeout        = 10 * time.Second
	DefaultPendingInterval   = time.Second
	DefaultPendingWorkers    = 8
	DefaultPendingMaxBackoff = time.Minute
	DefaultPendingRate       = 50
	DefaultHoldWorkers       = 8
	DefaultCacheSize         = 10000
	DefaultMaxPool           = 2
	DefaultStore             = false
	DefaultInapp             = false
)

// Config contains all the configuration properties of a sourcechain node.
type Config struct {
	// DataDir is the top-level directory containing the key, the DNA, the
	// peers file and, by default, the databases.
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// BindAddr is the local address:port where this node listens to other
	// nodes.
	BindAddr string `mapstructure:"listen"`

	// AdvertiseAddr is used to change the address that we advertise to other
	// nodes.
	AdvertiseAddr string `mapstructure:"advertise"`

	// NoService disables the HTTP API service.
	NoService bool `mapstructure:"no-service"`

	// ServiceAddr is the address:port of the optional HTTP service.
	ServiceAddr string `mapstructure:"service-listen"`

	// MaxPool controls how many connections are pooled per target.
	MaxPool int `mapstructure:"max-pool"`

	// TCPTimeout is the timeout of RPC connections.
	TCPTimeout time.Duration `mapstructure:"timeout"`

	// HopTimeout bounds each network fetch while building a validation
	// package from the DHT.
	HopTimeout time.Duration `mapstructure:"hop-timeout"`

	// PendingInterval is how often the pending validations are retried.
	PendingInterval time.Duration `mapstructure:"pending-interval"`

	// PendingWorkers is the maximum number of concurrent pending retries.
	PendingWorkers int `mapstructure:"pending-workers"`

	// PendingMaxBackoff caps the delay between two retries of the same
	// pending validation.
	PendingMaxBackoff time.Duration `mapstructure:"pending-max-backoff"`

	// PendingRate is the maximum number of pending retries started per
	// second.
	PendingRate float64 `mapstructure:"pending-rate"`

	// HoldWorkers is the number of goroutines validating aspects received
	// from the network.
	HoldWorkers int `mapstructure:"hold-workers"`

	// Store activates persistant storage.
	Store bool `mapstructure:"store"`

	// DatabaseDir is the directory containing database files.
	DatabaseDir string `mapstructure:"db"`

	// CacheSize is the max number of items in in-memory caches.
	CacheSize int `mapstructure:"cache-size"`

	// Moniker defines the friendly name of this node
	Moniker string `mapstructure:"moniker"`

	// EngineAddr is the address of a validation engine served over a socket.
	EngineAddr string `mapstructure:"engine-connect"`

	// Inapp uses the built-in sample validator instead of an external engine.
	Inapp bool `mapstructure:"inapp"`

	// Proxy is the validation capability.
	Proxy proxy.AppProxy

	// Key is the private key of the agent.
	Key *ecdsa.PrivateKey

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		DataDir:           DefaultDataDir(),
		LogLevel:          DefaultLogLevel,
		BindAddr:          DefaultBindAddr,
		ServiceAddr:       DefaultServiceAddr,
		TCPTimeout:        DefaultTCPTimeout,
		HopTimeout:        DefaultHopTimeout,
		PendingInterval:   DefaultPendingInterval,
		PendingWorkers:    DefaultPendingWorkers,
		PendingMaxBackoff: DefaultPendingMaxBackoff,
		PendingRate:       DefaultPendingRate,
		HoldWorkers:       DefaultHoldWorkers,
		CacheSize:         DefaultCacheSize,
		MaxPool:           DefaultMaxPool,
		Store:             DefaultStore,
		DatabaseDir:       DefaultDatabaseDir(),
		Inapp:             DefaultInapp,
	}

	return config
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.PendingInterval = 20 * time.Millisecond
	config.PendingMaxBackoff = 100 * time.Millisecond
	config.HopTimeout = time.Second
	config.logger = common.NewTestLogger(t, level)
	return config
}

// SetDataDir sets the top-level directory, and updates the database
// directory if it is currently set to the default value. If the database
// directory is not currently the default, it means the user has explicitely set
// it to something else, so avoid changing it again here.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.DatabaseDir == DefaultDatabaseDir() {
		c.DatabaseDir = filepath.Join(dataDir, DefaultBadgerFile)
	}
}

// Keyfile returns the full path of the file containing the private key.
func (c *Config) Keyfile() string {
	return filepath.Join(c.DataDir, DefaultKeyfile)
}

// DNAFile returns the full path of the file defining the entry types.
func (c *Config) DNAFile() string {
	return filepath.Join(c.DataDir, DefaultDNAFile)
}

// CASDir returns the directory of the persistent DHT content.
func (c *Config) CASDir() string {
	return filepath.Join(c.DatabaseDir, "cas")
}

// ChainDir returns the directory of the agent's own chain. It is kept apart
// from the DHT so that private entries never leave it.
func (c *Config) ChainDir() string {
	return filepath.Join(c.DatabaseDir, "chain")
}

// HeadFile returns the file recording the address of the chain top.
func (c *Config) HeadFile() string {
	return filepath.Join(c.DatabaseDir, "HEAD")
}

// EAVDir returns the directory of the persistent DHT metadata.
func (c *Config) EAVDir() string {
	return filepath.Join(c.DatabaseDir, "eav")
}

// Logger returns a formatted logrus Entry, with prefix set to "sourcechain".
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)
	}
	return c.logger.WithField("prefix", "sourcechain")
}

// DefaultDatabaseDir returns the default path for the badger database files.
func DefaultDatabaseDir() string {
	return filepath.Join(DefaultDataDir(), DefaultBadgerFile)
}

// DefaultDataDir return the default directory name for top-level config
// based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".Sourcechain")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "Sourcechain")
		} else {
			return filepath.Join(home, ".sourcechain")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
