/*
SPDX-License-Identifier: Apache-2.0
*/

package chaincodeconf

import (
	"errors"
	"fmt"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/logging"
)

// Validate checks that the settings describe a startable chaincode.
func (c *Config) Validate() error {
	if c.Chaincode.Address != "" && c.Chaincode.ID == "" {
		return errors.New("chaincode.id is required when chaincode.address is set")
	}
	if c.TLS.Enabled {
		if c.Chaincode.Address == "" {
			return errors.New("tls.enabled requires chaincode.address")
		}
		if c.TLS.KeyFile == "" || c.TLS.CertFile == "" {
			return errors.New("tls.key_file and tls.cert_file are required when tls is enabled")
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		return fmt.Errorf("log.format must be %s or %s, got %q", logging.FormatConsole, logging.FormatJSON, c.Log.Format)
	}
	return nil
}

// AsService reports whether the chaincode listens for the peer.
func (c *Config) AsService() bool {
	return c.Chaincode.Address != ""
}
