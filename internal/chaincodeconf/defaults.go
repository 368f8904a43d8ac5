/*
SPDX-License-Identifier: Apache-2.0
*/

package chaincodeconf

import (
	"github.com/spf13/viper"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/logging"
)

// Default values for optional settings.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = logging.FormatConsole
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("chaincode.id", "")
	v.SetDefault("chaincode.address", "")
	v.SetDefault("tls.enabled", false)
	v.SetDefault("tls.key_file", "")
	v.SetDefault("tls.cert_file", "")
	v.SetDefault("tls.client_ca_file", "")
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
}
