/*
SPDX-License-Identifier: Apache-2.0
*/

// Package listing holds what the auction and raffle engines share: the
// lifecycle status and the per-transition environment.
package listing

import (
	"strconv"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/allowlist"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/globalconfig"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/ledger"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/protocol"
)

// Status is the lifecycle state of a listing. Finished and Cancelled are terminal.
type Status string

const (
	InProgress Status = "InProgress"
	Finished   Status = "Finished"
	Cancelled  Status = "Cancelled"
)

// Env is what one transition runs against.
type Env struct {
	Tx     *ledger.Tx
	Config *globalconfig.GlobalConfig
	Caller string
	Now    int64
}

// NewEnv loads the configuration and resolves the clock for caller.
func NewEnv(tx *ledger.Tx, caller string) (*Env, error) {
	config, err := globalconfig.Load(tx)
	if err != nil {
		return nil, err
	}
	now, err := config.Now(tx)
	if err != nil {
		return nil, err
	}
	return &Env{Tx: tx, Config: config, Caller: caller, Now: now}, nil
}

// SaveConfig buffers the configuration after a counter changed.
func (e *Env) SaveConfig() error {
	return globalconfig.Save(e.Tx, e.Config)
}

// ID formats a listing id as a key attribute.
func ID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// OpenWallet returns the wallet of owner for mint, creating it if needed.
func (e *Env) OpenWallet(owner, mint string) (*ledger.TokenAccount, error) {
	return e.Tx.OpenWallet(owner, mint)
}

// Balance is the balance of owner's wallet for mint, zero when it has none.
func (e *Env) Balance(owner, mint string) (uint64, error) {
	account, found, err := e.Tx.FindAccount(ledger.WalletAddress(owner, mint))
	if err != nil || !found {
		return 0, err
	}
	return account.Amount, nil
}

// CheckAssets verifies that the listed asset belongs to an allowed collection
// and that the currency is allowed.
func CheckAssets(tx *ledger.Tx, nftMint, currencyMint string) error {
	metadata, found, err := tx.FindMetadata(nftMint)
	if err != nil {
		return err
	}
	if !found || !metadata.HasCollection() {
		return protocol.ErrInvalidNftMetadata
	}
	allowed, err := allowlist.IsAllowed(tx, allowlist.Collection, metadata.Collection)
	if err != nil {
		return err
	}
	if !allowed {
		return protocol.ErrNftCollectionNotInAllowlist
	}
	allowed, err = allowlist.IsAllowed(tx, allowlist.Currency, currencyMint)
	if err != nil {
		return err
	}
	if !allowed {
		return protocol.ErrTokenNotInAllowlist
	}
	return nil
}
