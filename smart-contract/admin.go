/*
SPDX-License-Identifier: Apache-2.0
*/

package listings

import (
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/allowlist"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/globalconfig"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/ledger"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/protocol"
)

/**************** MARKETPLACE AUTHORITY METHODS ****************/

// Initialize creates the marketplace configuration. The submitting client
// becomes the authority.
func (s *SmartContract) Initialize(ctx contractapi.TransactionContextInterface, marketFeeRateBps uint16, feeTreasury string, testMode bool) (string, error) {
	return run(ctx, "Initialize", func(tx *ledger.Tx, caller string) (interface{}, error) {
		config, err := globalconfig.Initialize(tx, caller, marketFeeRateBps, feeTreasury, testMode)
		if err != nil {
			return nil, err
		}
		if errIndex := allowlist.CreateIndexes(tx, config.IndexPageSize); errIndex != nil {
			return nil, errIndex
		}
		contractLog().Infow("marketplace initialized", "authority", caller, "feeRateBps", marketFeeRateBps, "testMode", testMode)
		return config, nil
	})
}

// UpdateConfig applies the fields set in the JSON encoded update
func (s *SmartContract) UpdateConfig(ctx contractapi.TransactionContextInterface, updateJSON string) (string, error) {
	var in globalconfig.UpdateInput
	if err := decodeInput("config update", updateJSON, &in); err != nil {
		return "", err
	}
	return run(ctx, "UpdateConfig", func(tx *ledger.Tx, caller string) (interface{}, error) {
		return globalconfig.Update(tx, caller, &in)
	})
}

// SetMockTimestamp pins the marketplace clock (test mode only)
func (s *SmartContract) SetMockTimestamp(ctx contractapi.TransactionContextInterface, timestamp int64) (string, error) {
	return run(ctx, "SetMockTimestamp", func(tx *ledger.Tx, caller string) (interface{}, error) {
		return globalconfig.SetMockTimestamp(tx, caller, &timestamp)
	})
}

// ClearMockTimestamp restores the ledger clock
func (s *SmartContract) ClearMockTimestamp(ctx contractapi.TransactionContextInterface) (string, error) {
	return run(ctx, "ClearMockTimestamp", func(tx *ledger.Tx, caller string) (interface{}, error) {
		return globalconfig.SetMockTimestamp(tx, caller, nil)
	})
}

func register(ctx contractapi.TransactionContextInterface, name string, kind allowlist.Kind, key, pageHint string) (string, error) {
	hint, err := parsePageHint(pageHint)
	if err != nil {
		return "", err
	}
	return run(ctx, name, func(tx *ledger.Tx, caller string) (interface{}, error) {
		config, err := globalconfig.Load(tx)
		if err != nil {
			return nil, err
		}
		return allowlist.Register(tx, config, caller, kind, key, hint)
	})
}

// RegisterCurrency allows a currency mint. pageHint is the current page of
// the currency index, or empty.
func (s *SmartContract) RegisterCurrency(ctx contractapi.TransactionContextInterface, mint string, pageHint string) (string, error) {
	return register(ctx, "RegisterCurrency", allowlist.Currency, mint, pageHint)
}

// RegisterCollection allows an asset collection. pageHint is the current page
// of the collection index, or empty.
func (s *SmartContract) RegisterCollection(ctx contractapi.TransactionContextInterface, collection string, pageHint string) (string, error) {
	return register(ctx, "RegisterCollection", allowlist.Collection, collection, pageHint)
}

// SetAllowed toggles a registered currency or collection
func (s *SmartContract) SetAllowed(ctx contractapi.TransactionContextInterface, kind string, key string, allowed bool) (string, error) {
	k, err := allowlist.ParseKind(kind)
	if err != nil {
		return "", err
	}
	return run(ctx, "SetAllowed", func(tx *ledger.Tx, caller string) (interface{}, error) {
		config, err := globalconfig.Load(tx)
		if err != nil {
			return nil, err
		}
		return allowlist.SetAllowed(tx, config, caller, k, key, allowed)
	})
}

// CreateMetadata records the metadata of an asset or a collection
func (s *SmartContract) CreateMetadata(ctx contractapi.TransactionContextInterface, metadataJSON string) (string, error) {
	var metadata ledger.AssetMetadata
	if err := decodeInput("metadata", metadataJSON, &metadata); err != nil {
		return "", err
	}
	return run(ctx, "CreateMetadata", func(tx *ledger.Tx, caller string) (interface{}, error) {
		if err := requireAuthority(tx, caller); err != nil {
			return nil, err
		}
		if metadata.Mint == "" {
			return nil, fmt.Errorf("metadata mint is required: %w", protocol.ErrInvalidNftMetadata)
		}
		if err := tx.CreateMetadata(&metadata); err != nil {
			return nil, err
		}
		return &metadata, nil
	})
}

// MintTokens issues amount units of mint to owner
func (s *SmartContract) MintTokens(ctx contractapi.TransactionContextInterface, mint string, owner string, amount uint64) (string, error) {
	return run(ctx, "MintTokens", func(tx *ledger.Tx, caller string) (interface{}, error) {
		if err := requireAuthority(tx, caller); err != nil {
			return nil, err
		}
		if amount == 0 {
			return nil, protocol.ErrInvalidAmount
		}
		return tx.MintTo(mint, owner, amount)
	})
}

func requireAuthority(tx *ledger.Tx, caller string) error {
	config, err := globalconfig.Load(tx)
	if err != nil {
		return err
	}
	return config.RequireAuthority(caller)
}

/**************** ACCOUNT METHODS ****************/

// OpenWallet creates the submitting client's wallet for mint, so it can
// receive revenue payouts
func (s *SmartContract) OpenWallet(ctx contractapi.TransactionContextInterface, mint string) (string, error) {
	return run(ctx, "OpenWallet", func(tx *ledger.Tx, caller string) (interface{}, error) {
		return tx.OpenWallet(caller, mint)
	})
}

// GetBalance returns the balance of owner's wallet for mint
func (s *SmartContract) GetBalance(ctx contractapi.TransactionContextInterface, owner string, mint string) (uint64, error) {
	tx := ledger.Begin(ctx.GetStub())
	account, found, err := tx.FindAccount(ledger.WalletAddress(owner, mint))
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return account.Amount, nil
}

// WhoAmI returns the identity the marketplace knows the submitting client by
func (s *SmartContract) WhoAmI(ctx contractapi.TransactionContextInterface) (string, error) {
	return run(ctx, "WhoAmI", func(tx *ledger.Tx, caller string) (interface{}, error) {
		identity := &Identity{ID: caller}
		mspID, err := ctx.GetClientIdentity().GetMSPID()
		if err != nil {
			return nil, fmt.Errorf("failed to read MSP id: %w", err)
		}
		identity.MSPID = mspID
		if cert, errCert := ctx.GetClientIdentity().GetX509Certificate(); errCert == nil && cert != nil {
			identity.Certificate = certDerToPem(cert.Raw)
		}
		return identity, nil
	})
}

/**************** CONFIGURATION QUERIES ****************/

// GetConfig returns the marketplace configuration
func (s *SmartContract) GetConfig(ctx contractapi.TransactionContextInterface) (string, error) {
	return run(ctx, "GetConfig", func(tx *ledger.Tx, caller string) (interface{}, error) {
		return globalconfig.Load(tx)
	})
}

// ListAllowlist returns the entries of the currency or collection registry in
// registration order
func (s *SmartContract) ListAllowlist(ctx contractapi.TransactionContextInterface, kind string) (string, error) {
	k, err := allowlist.ParseKind(kind)
	if err != nil {
		return "", err
	}
	return run(ctx, "ListAllowlist", func(tx *ledger.Tx, caller string) (interface{}, error) {
		return allowlist.All(tx, k)
	})
}
