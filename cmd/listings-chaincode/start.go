/*
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"
	"os"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/spf13/cobra"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/chaincodeconf"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/logging"
	listings "github.com/nandlab/fabric-listings/chaincode-go/smart-contract"
)

func StartCMD() *cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the listings chaincode",
		Long:  "Start the listings chaincode, either dialing the peer or as a chaincode service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := chaincodeconf.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if errLog := logging.Setup(config.Log); errLog != nil {
				return errLog
			}
			return start(config)
		},
	}
	chaincodeconf.AddFlags(startCmd.Flags())
	return startCmd
}

func start(config *chaincodeconf.Config) error {
	log := logging.GetLogger(logging.ModuleCli)

	chaincode, err := contractapi.NewChaincode(&listings.SmartContract{})
	if err != nil {
		return fmt.Errorf("error creating listings chaincode: %w", err)
	}
	chaincode.Info.Version = Version

	if !config.AsService() {
		log.Infow("starting chaincode", "version", Version)
		if errStart := chaincode.Start(); errStart != nil {
			return fmt.Errorf("error starting listings chaincode: %w", errStart)
		}
		return nil
	}

	tlsProps, err := tlsProperties(config.TLS)
	if err != nil {
		return err
	}
	server := &shim.ChaincodeServer{
		CCID:     config.Chaincode.ID,
		Address:  config.Chaincode.Address,
		CC:       chaincode,
		TLSProps: tlsProps,
	}
	log.Infow("starting chaincode service", "version", Version, "id", config.Chaincode.ID,
		"address", config.Chaincode.Address, "tls", config.TLS.Enabled)
	if errServe := server.Start(); errServe != nil {
		return fmt.Errorf("error starting listings chaincode service: %w", errServe)
	}
	return nil
}

func tlsProperties(config chaincodeconf.TLSConfig) (shim.TLSProperties, error) {
	if !config.Enabled {
		return shim.TLSProperties{Disabled: true}, nil
	}
	key, err := os.ReadFile(config.KeyFile)
	if err != nil {
		return shim.TLSProperties{}, fmt.Errorf("could not read tls key: %w", err)
	}
	cert, err := os.ReadFile(config.CertFile)
	if err != nil {
		return shim.TLSProperties{}, fmt.Errorf("could not read tls cert: %w", err)
	}
	props := shim.TLSProperties{Key: key, Cert: cert}
	if config.ClientCAFile != "" {
		clientCA, errCA := os.ReadFile(config.ClientCAFile)
		if errCA != nil {
			return shim.TLSProperties{}, fmt.Errorf("could not read tls client CA: %w", errCA)
		}
		props.ClientCACerts = clientCA
	}
	return props, nil
}
