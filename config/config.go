package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ardanlabs/conf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultConfigPath = "config/walletcore.toml"
	ConfigFileName    = "walletcore.toml"
	ConfigExtension   = ".toml"

	EnvironmentDev  Environment = "dev"
	EnvironmentTest Environment = "test"
	EnvironmentProd Environment = "prod"
)

type (
	Environment string

	// EnvVar is a type of environment variable the wallet core is aware of
	EnvVar string
)

const (
	// ConfigPath is the path to a TOML config file, overriding DefaultConfigPath
	ConfigPath EnvVar = "WALLETCORE_CONFIG_PATH"
)

func (e EnvVar) String() string {
	return string(e)
}

type WalletCoreConfig struct {
	conf.Version
	Server   ServerConfig   `toml:"server"`
	Services ServicesConfig `toml:"services"`
}

// ServerConfig represents configurable properties for the HTTP server
type ServerConfig struct {
	Environment        Environment   `toml:"env" conf:"default:dev"`
	APIHost            string        `toml:"api_host" conf:"default:0.0.0.0:3000"`
	JagerHost          string        `toml:"jager_host" conf:"http://jaeger:14268/api/traces"`
	JagerEnabled       bool          `toml:"jager_enabled" conf:"default:false"`
	ReadTimeout        time.Duration `toml:"read_timeout" conf:"default:5s"`
	WriteTimeout       time.Duration `toml:"write_timeout" conf:"default:5s"`
	ShutdownTimeout    time.Duration `toml:"shutdown_timeout" conf:"default:5s"`
	LogLocation        string        `toml:"log_location" conf:"default:log"`
	LogLevel           string        `toml:"log_level" conf:"default:debug"`
	EnableAllowAllCORS bool          `toml:"enable_allow_all_cors" conf:"default:false"`
}

// ServicesConfig represents configurable properties for the components of the wallet core
type ServicesConfig struct {
	// at present, it is assumed that a single storage provider works for all services
	StorageProvider string `toml:"storage"`

	// when set, values are encrypted before being handed to the configured storage
	// provider, with a key derived from this password. The password is salted before usage.
	StorageEncryptionPassword string `toml:"storage_encryption_password"`

	// Embed all service-specific configs here. The order matters: from which should be instantiated first, to last
	CredentialConfig CredentialServiceConfig `toml:"credential,omitempty"`
	DisclosureConfig DisclosureServiceConfig `toml:"disclosure,omitempty"`
	DIDConfig        DIDServiceConfig        `toml:"did,omitempty"`
	OfferConfig      OfferServiceConfig      `toml:"offer,omitempty"`
}

// BaseServiceConfig represents configurable properties for a specific component of the wallet core.
// Can be wrapped and extended for any specific service config
type BaseServiceConfig struct {
	Name string `toml:"name"`
}

type CredentialServiceConfig struct {
	*BaseServiceConfig
}

func (c *CredentialServiceConfig) IsEmpty() bool {
	if c == nil {
		return true
	}
	return reflect.DeepEqual(c, &CredentialServiceConfig{})
}

type DisclosureServiceConfig struct {
	*BaseServiceConfig
}

func (d *DisclosureServiceConfig) IsEmpty() bool {
	if d == nil {
		return true
	}
	return reflect.DeepEqual(d, &DisclosureServiceConfig{})
}

type DIDServiceConfig struct {
	*BaseServiceConfig
}

func (d *DIDServiceConfig) IsEmpty() bool {
	if d == nil {
		return true
	}
	return reflect.DeepEqual(d, &DIDServiceConfig{})
}

type OfferServiceConfig struct {
	*BaseServiceConfig
}

func (o *OfferServiceConfig) IsEmpty() bool {
	if o == nil {
		return true
	}
	return reflect.DeepEqual(o, &OfferServiceConfig{})
}

// LoadConfig attempts to load a TOML config file from the given path, and coerce it into our object model.
// Before loading, defaults are applied on certain properties, which are overwritten if specified in the TOML file.
func LoadConfig(path string) (*WalletCoreConfig, error) {
	// no path, load default config
	defaultConfig := false
	if path == "" {
		logrus.Info("no config path provided, loading default config...")
		defaultConfig = true
	} else if filepath.Ext(path) != ConfigExtension {
		return nil, fmt.Errorf("path<%s> did not match the expected TOML format", path)
	}

	// create the config object
	var config WalletCoreConfig

	// parse and apply defaults
	if err := conf.Parse(os.Args[1:], ServiceName, &config); err != nil {
		switch {
		case errors.Is(err, conf.ErrHelpWanted):
			usage, err := conf.Usage(ServiceName, &config)
			if err != nil {
				return nil, errors.Wrap(err, "parsing config")
			}
			fmt.Println(usage)

			return nil, nil

		case errors.Is(err, conf.ErrVersionWanted):
			version, err := conf.VersionString(ServiceName, &config)
			if err != nil {
				return nil, errors.Wrap(err, "generating config version")
			}

			fmt.Println(version)
			return nil, nil
		}

		return nil, errors.Wrap(err, "parsing config")
	}

	if defaultConfig {
		config.Services = ServicesConfig{
			StorageProvider: "bolt",
			CredentialConfig: CredentialServiceConfig{
				BaseServiceConfig: &BaseServiceConfig{Name: "credential"},
			},
			DisclosureConfig: DisclosureServiceConfig{
				BaseServiceConfig: &BaseServiceConfig{Name: "disclosure"},
			},
			DIDConfig: DIDServiceConfig{
				BaseServiceConfig: &BaseServiceConfig{Name: "did"},
			},
			OfferConfig: OfferServiceConfig{
				BaseServiceConfig: &BaseServiceConfig{Name: "offer"},
			},
		}
	} else {
		// load from TOML file
		if _, err := toml.DecodeFile(path, &config); err != nil {
			return nil, errors.Wrapf(err, "could not load config: %s", path)
		}
	}

	return &config, nil
}
