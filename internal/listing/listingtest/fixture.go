/*
SPDX-License-Identifier: Apache-2.0
*/

// Package listingtest builds an initialized marketplace on a MockStub for the
// engine tests.
package listingtest

import (
	"testing"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/allowlist"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/globalconfig"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/ledger"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/ledger/ledgertest"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/listing"
)

// Identities used across the engine tests.
const (
	Authority = "x509::CN=admin"
	Treasury  = "x509::CN=treasury"
	Creator   = "x509::CN=creator"
	Partner   = "x509::CN=partner"
	Alice     = "x509::CN=alice"
	Bob       = "x509::CN=bob"
	Carol     = "x509::CN=carol"
)

// Assets registered by New.
const (
	Collection = "apes"
	Nft        = "ape-1"
	Currency   = "usdt"
	FeeRateBps = 200
	PageSize   = 2
	Funds      = 1_000_000_000_000
)

// Fixture is a test-mode marketplace with one allowed collection and currency.
type Fixture struct {
	*ledgertest.Ledger
	t testing.TB
}

// New initializes the marketplace. Creator holds nftSupply units of Nft;
// Alice, Bob and Carol each hold Funds of Currency; Creator and Partner hold
// empty Currency wallets.
func New(t testing.TB, nftSupply uint64) *Fixture {
	t.Helper()
	f := &Fixture{Ledger: ledgertest.New("listings"), t: t}
	f.MustRun(t, func(tx *ledger.Tx) error {
		config, err := globalconfig.Initialize(tx, Authority, FeeRateBps, Treasury, true)
		if err != nil {
			return err
		}
		size := uint32(PageSize)
		if config, err = globalconfig.Update(tx, Authority, &globalconfig.UpdateInput{IndexPageSize: &size}); err != nil {
			return err
		}
		if err := allowlist.CreateIndexes(tx, config.IndexPageSize); err != nil {
			return err
		}
		if err := tx.CreateMetadata(&ledger.AssetMetadata{Mint: Collection}); err != nil {
			return err
		}
		if err := tx.CreateMetadata(&ledger.AssetMetadata{Mint: Nft, Collection: Collection}); err != nil {
			return err
		}
		if _, err := allowlist.Register(tx, config, Authority, allowlist.Collection, Collection, nil); err != nil {
			return err
		}
		if _, err := allowlist.Register(tx, config, Authority, allowlist.Currency, Currency, nil); err != nil {
			return err
		}
		if _, err := tx.MintTo(Nft, Creator, nftSupply); err != nil {
			return err
		}
		for _, bidder := range []string{Alice, Bob, Carol} {
			if _, err := tx.MintTo(Currency, bidder, Funds); err != nil {
				return err
			}
		}
		for _, owner := range []string{Creator, Partner} {
			if _, err := tx.OpenWallet(owner, Currency); err != nil {
				return err
			}
		}
		return nil
	})
	return f
}

// As runs fn as one transition submitted by caller.
func (f *Fixture) As(caller string, fn func(env *listing.Env) error) error {
	return f.Run(func(tx *ledger.Tx) error {
		env, err := listing.NewEnv(tx, caller)
		if err != nil {
			return err
		}
		return fn(env)
	})
}

// Balance returns the committed balance of owner's wallet for mint.
func (f *Fixture) Balance(owner, mint string) uint64 {
	f.t.Helper()
	var amount uint64
	f.MustRun(f.t, func(tx *ledger.Tx) error {
		account, found, err := tx.FindAccount(ledger.WalletAddress(owner, mint))
		if err != nil {
			return err
		}
		if found {
			amount = account.Amount
		}
		return nil
	})
	return amount
}

// AccountExists reports whether an account is committed at address.
func (f *Fixture) AccountExists(address string) bool {
	f.t.Helper()
	var exists bool
	f.MustRun(f.t, func(tx *ledger.Tx) error {
		var err error
		_, exists, err = tx.FindAccount(address)
		return err
	})
	return exists
}

// Config returns the committed configuration.
func (f *Fixture) Config() *globalconfig.GlobalConfig {
	f.t.Helper()
	var config *globalconfig.GlobalConfig
	f.MustRun(f.t, func(tx *ledger.Tx) error {
		var err error
		config, err = globalconfig.Load(tx)
		return err
	})
	return config
}
