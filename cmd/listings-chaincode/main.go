/*
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"os"

	"github.com/spf13/cobra"
)

// ./listings-chaincode start --chaincode-id listings:abc --address 0.0.0.0:9999
func main() {
	mainCmd := &cobra.Command{Use: "listings-chaincode", SilenceUsage: true}
	mainCmd.AddCommand(StartCMD())
	mainCmd.AddCommand(VersionCMD())

	if err := mainCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
