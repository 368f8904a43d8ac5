/*
SPDX-License-Identifier: Apache-2.0
*/

// Package allowlist keeps the registries of currency tokens and asset
// collections that listings may use.
package allowlist

import (
	"fmt"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/globalconfig"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/ledger"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/pageindex"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/protocol"
)

const entryObjectType = "allowlist_entry"

// Kind selects one of the two registries.
type Kind string

const (
	Currency   Kind = "currency"
	Collection Kind = "collection"
)

// ParseKind validates a registry name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Currency, Collection:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown allowlist %q", s)
}

// Entry is one registered key. Entries are never deleted.
type Entry struct {
	Key     string `json:"key"`
	Allowed bool   `json:"allowed"`
}

func entryKey(tx *ledger.Tx, kind Kind, key string) (string, error) {
	return tx.Key(entryObjectType, string(kind), key)
}

func indexPath(kind Kind) []string {
	return []string{"allowlist", string(kind)}
}

func counter(config *globalconfig.GlobalConfig, kind Kind) *uint64 {
	if kind == Currency {
		return &config.TotalAllowedCurrencyTokens
	}
	return &config.TotalAllowedCollections
}

// CreateIndexes creates the empty indexes of both registries.
func CreateIndexes(tx *ledger.Tx, pageSize uint32) error {
	for _, kind := range []Kind{Currency, Collection} {
		if _, err := pageindex.Create(tx, pageSize, indexPath(kind)...); err != nil {
			return err
		}
	}
	return nil
}

// Find loads the entry for key and reports whether it exists.
func Find(tx *ledger.Tx, kind Kind, key string) (*Entry, bool, error) {
	k, err := entryKey(tx, kind, key)
	if err != nil {
		return nil, false, err
	}
	var entry Entry
	found, err := tx.Get(k, &entry)
	if err != nil {
		return nil, false, fmt.Errorf("could not get %s allowlist entry %s: %w", kind, key, err)
	}
	if !found {
		return nil, false, nil
	}
	return &entry, true, nil
}

// IsAllowed is false for keys that were never registered.
func IsAllowed(tx *ledger.Tx, kind Kind, key string) (bool, error) {
	entry, found, err := Find(tx, kind, key)
	if err != nil || !found {
		return false, err
	}
	return entry.Allowed, nil
}

// Register adds key to the registry and indexes it. config is updated and
// saved.
func Register(tx *ledger.Tx, config *globalconfig.GlobalConfig, caller string, kind Kind, key string, pageHint *uint64) (*Entry, error) {
	if errAuth := config.RequireAuthority(caller); errAuth != nil {
		return nil, errAuth
	}
	if key == "" {
		return nil, fmt.Errorf("allowlist key cannot be empty")
	}
	_, found, err := Find(tx, kind, key)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, fmt.Errorf("%s %s: %w", kind, key, protocol.ErrAlreadyRegistered)
	}

	switch kind {
	case Collection:
		metadata, found, errMeta := tx.FindMetadata(key)
		if errMeta != nil {
			return nil, errMeta
		}
		if !found || metadata.HasCollection() {
			return nil, protocol.ErrInvalidNftCollectionMetadata
		}
	case Currency:
		// fees in this currency are paid to the treasury wallet
		if _, errWallet := tx.OpenWallet(config.FeeTreasuryAddress, key); errWallet != nil {
			return nil, errWallet
		}
	}

	ix, err := pageindex.Open(tx, indexPath(kind)...)
	if err != nil {
		return nil, err
	}
	if _, _, errAppend := ix.Append(pageHint, key); errAppend != nil {
		return nil, errAppend
	}

	entry := &Entry{Key: key, Allowed: true}
	k, err := entryKey(tx, kind, key)
	if err != nil {
		return nil, err
	}
	if errPut := tx.Put(k, entry); errPut != nil {
		return nil, errPut
	}

	*counter(config, kind) = ix.Len()
	if errSave := globalconfig.Save(tx, config); errSave != nil {
		return nil, errSave
	}
	return entry, nil
}

// SetAllowed toggles a registered key.
func SetAllowed(tx *ledger.Tx, config *globalconfig.GlobalConfig, caller string, kind Kind, key string, allowed bool) (*Entry, error) {
	if errAuth := config.RequireAuthority(caller); errAuth != nil {
		return nil, errAuth
	}
	entry, found, err := Find(tx, kind, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%s %s: %w", kind, key, protocol.ErrNotRegistered)
	}
	entry.Allowed = allowed
	k, err := entryKey(tx, kind, key)
	if err != nil {
		return nil, err
	}
	if errPut := tx.Put(k, entry); errPut != nil {
		return nil, errPut
	}
	return entry, nil
}

// Iterator walks a registry in registration order.
type Iterator struct {
	tx   *ledger.Tx
	kind Kind
	keys *pageindex.Iterator
}

// Iterate returns an iterator over the entries registered so far.
func Iterate(tx *ledger.Tx, kind Kind) (*Iterator, error) {
	ix, err := pageindex.Open(tx, indexPath(kind)...)
	if err != nil {
		return nil, err
	}
	return &Iterator{tx: tx, kind: kind, keys: ix.Iterator()}, nil
}

// HasNext reports whether Next has another entry to return.
func (it *Iterator) HasNext() bool {
	return it.keys.HasNext()
}

// Next returns the next entry.
func (it *Iterator) Next() (*Entry, error) {
	_, key, err := it.keys.Next()
	if err != nil {
		return nil, err
	}
	entry, found, err := Find(it.tx, it.kind, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("indexed %s %s has no entry", it.kind, key)
	}
	return entry, nil
}

// All drains a fresh iterator.
func All(tx *ledger.Tx, kind Kind) ([]*Entry, error) {
	it, err := Iterate(tx, kind)
	if err != nil {
		return nil, err
	}
	entries := []*Entry{}
	for it.HasNext() {
		entry, err := it.Next()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
