package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/chaincodeconf"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := VersionCMD()
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())
	require.Equal(t, "listings-chaincode version dev\n", out.String())
}

func TestTLSProperties(t *testing.T) {
	props, err := tlsProperties(chaincodeconf.TLSConfig{})
	require.NoError(t, err)
	require.True(t, props.Disabled)

	dir := t.TempDir()
	for name, content := range map[string]string{"key.pem": "KEY", "cert.pem": "CERT", "ca.pem": "CA"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	props, err = tlsProperties(chaincodeconf.TLSConfig{
		Enabled:      true,
		KeyFile:      filepath.Join(dir, "key.pem"),
		CertFile:     filepath.Join(dir, "cert.pem"),
		ClientCAFile: filepath.Join(dir, "ca.pem"),
	})
	require.NoError(t, err)
	require.False(t, props.Disabled)
	require.Equal(t, []byte("KEY"), props.Key)
	require.Equal(t, []byte("CA"), props.ClientCACerts)

	_, err = tlsProperties(chaincodeconf.TLSConfig{Enabled: true, KeyFile: filepath.Join(dir, "missing.pem")})
	require.Error(t, err)
}

func TestStartRejectsInvalidConfig(t *testing.T) {
	cmd := StartCMD()
	cmd.SetArgs([]string{"--address", "0.0.0.0:9999"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	require.Error(t, cmd.Execute())
}
