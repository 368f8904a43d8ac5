/*
SPDX-License-Identifier: Apache-2.0
*/

// Package ledger adapts the Fabric world state to the record, escrow and
// token-account model the listing engines are written against.
package ledger

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/logging"
)

// Tx buffers the writes of one transition on top of the chaincode stub.
//
// Fabric does not expose a transaction's own pending writes to GetState, so
// every read first consults the buffer. Nothing reaches the stub before Commit.
type Tx struct {
	stub   shim.ChaincodeStubInterface
	writes map[string][]byte
	event  *pendingEvent
}

type pendingEvent struct {
	name    string
	payload []byte
}

// Begin starts a buffered transition on stub.
func Begin(stub shim.ChaincodeStubInterface) *Tx {
	return &Tx{
		stub:   stub,
		writes: make(map[string][]byte),
	}
}

// Key builds a composite world state key from a namespace path.
func (tx *Tx) Key(objectType string, attributes ...string) (string, error) {
	key, err := tx.stub.CreateCompositeKey(objectType, attributes)
	if err != nil {
		return "", fmt.Errorf("could not create key for %s: %w", objectType, err)
	}
	return key, nil
}

// GetRaw returns the current value stored at key, or nil if there is none.
func (tx *Tx) GetRaw(key string) ([]byte, error) {
	if value, buffered := tx.writes[key]; buffered {
		return value, nil
	}
	value, err := tx.stub.GetState(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read world state: %w", err)
	}
	return value, nil
}

// Get decodes the JSON record at key into v and reports whether it exists.
func (tx *Tx) Get(key string, v interface{}) (bool, error) {
	value, err := tx.GetRaw(key)
	if err != nil {
		return false, err
	}
	if value == nil {
		return false, nil
	}
	if errUnmarshal := json.Unmarshal(value, v); errUnmarshal != nil {
		return false, fmt.Errorf("could not decode record: %w", errUnmarshal)
	}
	return true, nil
}

// Exists reports whether a record is stored at key.
func (tx *Tx) Exists(key string) (bool, error) {
	value, err := tx.GetRaw(key)
	if err != nil {
		return false, err
	}
	return value != nil, nil
}

// Put encodes v as JSON and buffers it at key.
func (tx *Tx) Put(key string, v interface{}) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("could not encode record: %w", err)
	}
	tx.writes[key] = value
	return nil
}

// Delete buffers the removal of key.
func (tx *Tx) Delete(key string) {
	tx.writes[key] = nil
}

// Pending returns the number of buffered writes.
func (tx *Tx) Pending() int {
	return len(tx.writes)
}

// Commit flushes the buffered writes to the stub in key order so that every
// endorser produces the same write set.
func (tx *Tx) Commit() error {
	keys := make([]string, 0, len(tx.writes))
	for key := range tx.writes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := tx.writes[key]
		if value == nil {
			if err := tx.stub.DelState(key); err != nil {
				return fmt.Errorf("failed to delete world state: %w", err)
			}
			continue
		}
		if err := tx.stub.PutState(key, value); err != nil {
			return fmt.Errorf("failed to write world state: %w", err)
		}
	}
	logging.GetLogger(logging.ModuleLedger).Debugw("transition committed", "txID", tx.stub.GetTxID(), "writes", tx.Pending())
	tx.writes = make(map[string][]byte)

	if tx.event != nil {
		if err := tx.stub.SetEvent(tx.event.name, tx.event.payload); err != nil {
			return fmt.Errorf("failed to set event %s: %w", tx.event.name, err)
		}
		tx.event = nil
	}
	return nil
}

// TxID returns the id of the submitting transaction.
func (tx *Tx) TxID() string {
	return tx.stub.GetTxID()
}

// LedgerTime returns the transaction timestamp in unix seconds.
func (tx *Tx) LedgerTime() (int64, error) {
	ts, err := tx.stub.GetTxTimestamp()
	if err != nil {
		return 0, fmt.Errorf("failed to get transaction timestamp: %w", err)
	}
	if ts == nil {
		return 0, fmt.Errorf("transaction timestamp is not set")
	}
	return ts.GetSeconds(), nil
}

// SetEvent records the summary of the transition as the transaction event.
// Fabric keeps a single event per transaction, so a later call replaces it.
func (tx *Tx) SetEvent(name string, summary interface{}) error {
	if summary == nil {
		return fmt.Errorf("event summary cannot be nil")
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("could not encode event: %w", err)
	}
	tx.event = &pendingEvent{name: name, payload: payload}
	return nil
}
