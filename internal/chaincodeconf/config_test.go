package chaincodeconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/logging"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("start", pflag.ContinueOnError)
	AddFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	config, err := Load(newFlags(t))
	require.NoError(t, err)
	require.Equal(t, DefaultLogLevel, config.Log.Level)
	require.Equal(t, DefaultLogFormat, config.Log.Format)
	require.False(t, config.AsService())
}

func TestPrecedence(t *testing.T) {
	path := writeTempFile(t, `
chaincode:
  id: listings:abc
  address: 0.0.0.0:9999
log:
  level: debug
  format: json
tls:
  enabled: true
  key_file: /tls/key.pem
  cert_file: /tls/cert.pem
`)
	t.Setenv("LISTINGS_CHAINCODE_ADDRESS", "0.0.0.0:7052")
	t.Setenv("LISTINGS_LOG_LEVEL", "warn")

	config, err := Load(newFlags(t, "--config", path, "--log-level", "error"))
	require.NoError(t, err)
	require.Equal(t, "listings:abc", config.Chaincode.ID)
	require.Equal(t, "0.0.0.0:7052", config.Chaincode.Address)
	require.Equal(t, "error", config.Log.Level)
	require.Equal(t, "json", config.Log.Format)
	require.True(t, config.TLS.Enabled)
	require.Equal(t, "/tls/cert.pem", config.TLS.CertFile)
	require.True(t, config.AsService())
}

func TestValidate(t *testing.T) {
	logs := func(c Config) Config {
		if c.Log.Level == "" {
			c.Log.Level = "info"
		}
		if c.Log.Format == "" {
			c.Log.Format = "console"
		}
		return c
	}
	cases := []struct {
		name   string
		config Config
	}{
		{"address without id", Config{Chaincode: ChaincodeConfig{Address: ":9999"}}},
		{"tls without address", Config{TLS: TLSConfig{Enabled: true, KeyFile: "k", CertFile: "c"}}},
		{"tls without key", Config{Chaincode: ChaincodeConfig{ID: "cc", Address: ":9999"}, TLS: TLSConfig{Enabled: true}}},
		{"log level", Config{Log: logging.Config{Level: "chatty"}}},
		{"log format", Config{Log: logging.Config{Format: "xml"}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			config := logs(c.config)
			require.Error(t, config.Validate())
		})
	}
	valid := logs(Config{Chaincode: ChaincodeConfig{ID: "cc", Address: ":9999"}})
	require.NoError(t, valid.Validate())

	_, err := Load(newFlags(t, "--log-format", "xml"))
	require.Error(t, err)
	_, err = Load(newFlags(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	require.Error(t, err)
}
