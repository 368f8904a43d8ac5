/*
SPDX-License-Identifier: Apache-2.0
*/

// Package eligibility checks a caller's membership in the holder groups that
// gate a listing.
package eligibility

import (
	"github.com/nandlab/fabric-listings/chaincode-go/internal/ledger"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/protocol"
)

// MaxGroups is the number of groups a listing may declare.
const MaxGroups = 2

// GroupKind tags a holder group.
type GroupKind string

const (
	// AssetHolder groups hold an asset of the collection named by the key.
	AssetHolder GroupKind = "AssetHolder"
	// CurrencyHolder groups hold a balance of the mint named by the key.
	CurrencyHolder GroupKind = "CurrencyHolder"
)

// GroupConfig is one holder group declared by a listing.
type GroupConfig struct {
	Kind GroupKind `json:"kind"`
	Key  string    `json:"key"`
}

// Input is the claim a bidder or ticket buyer submits.
//
// ProofAccounts for AssetHolder are the caller's token account address and
// the mint of its metadata; for CurrencyHolder the token account address.
type Input struct {
	Kind          GroupKind `json:"kind"`
	Message       []byte    `json:"message,omitempty"`
	ProofAccounts []string  `json:"proofAccounts"`
}

// ValidateGroups checks the groups declared when a listing is created.
func ValidateGroups(groups []GroupConfig) error {
	if len(groups) > MaxGroups {
		return protocol.ErrInvalidEligibleGroups
	}
	for _, group := range groups {
		if group.Key == "" {
			return protocol.ErrInvalidEligibleGroups
		}
		switch group.Kind {
		case AssetHolder, CurrencyHolder:
		default:
			return protocol.ErrInvalidEligibleGroups
		}
	}
	return nil
}

// Check verifies that caller belongs to one of groups. A listing without
// groups is open to everyone.
func Check(tx *ledger.Tx, groups []GroupConfig, caller string, in *Input) error {
	if len(groups) == 0 {
		return nil
	}
	if in == nil {
		return protocol.ErrIneligible
	}

	keys := make(map[string]bool)
	for _, group := range groups {
		if group.Kind == in.Kind {
			keys[group.Key] = true
		}
	}
	if len(keys) == 0 {
		return protocol.ErrNotEnoughPayloadAccounts
	}

	switch in.Kind {
	case AssetHolder:
		return checkAssetHolder(tx, keys, caller, in.ProofAccounts)
	case CurrencyHolder:
		return checkCurrencyHolder(tx, keys, caller, in.ProofAccounts)
	}
	return protocol.ErrIneligible
}

func proofAccount(tx *ledger.Tx, address, caller string) (*ledger.TokenAccount, error) {
	account, found, err := tx.FindAccount(address)
	if err != nil {
		return nil, err
	}
	if !found || account.Owner != caller {
		return nil, protocol.ErrInvalidEligibilityCheckingAccount
	}
	return account, nil
}

func checkAssetHolder(tx *ledger.Tx, collections map[string]bool, caller string, proofs []string) error {
	if len(proofs) < 2 {
		return protocol.ErrNotEnoughPayloadAccounts
	}
	account, err := proofAccount(tx, proofs[0], caller)
	if err != nil {
		return err
	}
	metadata, found, err := tx.FindMetadata(proofs[1])
	if err != nil {
		return err
	}
	if !found || metadata.Mint != account.Mint || !metadata.HasCollection() {
		return protocol.ErrInvalidEligibilityCheckingAccount
	}
	if !collections[metadata.Collection] || account.Amount == 0 {
		return protocol.ErrIneligible
	}
	return nil
}

func checkCurrencyHolder(tx *ledger.Tx, mints map[string]bool, caller string, proofs []string) error {
	if len(proofs) < 1 {
		return protocol.ErrNotEnoughPayloadAccounts
	}
	account, err := proofAccount(tx, proofs[0], caller)
	if err != nil {
		return err
	}
	if !mints[account.Mint] {
		return protocol.ErrInvalidEligibilityCheckingAccount
	}
	if account.Amount == 0 {
		return protocol.ErrIneligible
	}
	return nil
}
