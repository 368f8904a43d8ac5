/*
SPDX-License-Identifier: Apache-2.0
*/

// Package chaincodeconf loads the process settings of the chaincode binary
// from flags, LISTINGS_* environment variables and an optional YAML file.
package chaincodeconf

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/logging"
)

// EnvPrefix prefixes the environment variables, e.g. LISTINGS_CHAINCODE_ADDRESS.
const EnvPrefix = "LISTINGS"

// Flag names bound to configuration keys.
const (
	FlagConfigFile = "config"
	FlagID         = "chaincode-id"
	FlagAddress    = "address"
	FlagLogLevel   = "log-level"
	FlagLogFormat  = "log-format"
)

// Config holds the process settings.
type Config struct {
	Chaincode ChaincodeConfig `mapstructure:"chaincode"`
	TLS       TLSConfig       `mapstructure:"tls"`
	Log       logging.Config  `mapstructure:"log"`
}

// ChaincodeConfig names the chaincode package. A non-empty Address runs the
// chaincode as a service listening there; otherwise it dials the peer.
type ChaincodeConfig struct {
	ID      string `mapstructure:"id"`
	Address string `mapstructure:"address"`
}

// TLSConfig points at PEM files used by the chaincode server.
type TLSConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	KeyFile      string `mapstructure:"key_file"`
	CertFile     string `mapstructure:"cert_file"`
	ClientCAFile string `mapstructure:"client_ca_file"`
}

// AddFlags registers the command line flags Load understands.
func AddFlags(flags *pflag.FlagSet) {
	flags.StringP(FlagConfigFile, "c", "", "path of a YAML config file")
	flags.String(FlagID, "", "chaincode package id (chaincode.id)")
	flags.String(FlagAddress, "", "listen address when running as a service (chaincode.address)")
	flags.String(FlagLogLevel, DefaultLogLevel, "log level (log.level)")
	flags.String(FlagLogFormat, DefaultLogFormat, "log format, console or json (log.format)")
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for key, name := range map[string]string{
		"chaincode.id":      FlagID,
		"chaincode.address": FlagAddress,
		"log.level":         FlagLogLevel,
		"log.format":        FlagLogFormat,
	} {
		if flag := flags.Lookup(name); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return fmt.Errorf("could not bind flag %s: %w", name, err)
			}
		}
	}
	return nil
}

// Load resolves the settings. Flags override environment variables, which
// override the config file, which overrides the defaults.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
		if file, _ := flags.GetString(FlagConfigFile); file != "" {
			v.SetConfigFile(file)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("could not read config file %s: %w", file, err)
			}
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
