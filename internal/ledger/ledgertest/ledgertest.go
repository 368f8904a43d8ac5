/*
SPDX-License-Identifier: Apache-2.0
*/

// Package ledgertest runs buffered transitions against a shimtest MockStub.
package ledgertest

import (
	"fmt"
	"testing"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/shimtest"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/ledger"
)

// Epoch is the ledger time of the first transaction of every Ledger.
var Epoch = time.Date(2023, time.June, 1, 12, 0, 0, 0, time.UTC)

// Ledger drives a MockStub one transaction at a time.
type Ledger struct {
	Stub *shimtest.MockStub
	Now  time.Time
	seq  int
}

// New returns a Ledger whose clock starts at Epoch.
func New(name string) *Ledger {
	return &Ledger{
		Stub: shimtest.NewMockStub(name, nil),
		Now:  Epoch,
	}
}

// Advance moves the ledger clock forward.
func (l *Ledger) Advance(d time.Duration) {
	l.Now = l.Now.Add(d)
}

// Unix returns the current ledger clock in seconds.
func (l *Ledger) Unix() int64 {
	return l.Now.Unix()
}

// Run executes fn as one transaction. The buffered writes are committed only
// when fn succeeds.
func (l *Ledger) Run(fn func(tx *ledger.Tx) error) error {
	l.seq++
	txID := fmt.Sprintf("tx%d", l.seq)
	l.Stub.MockTransactionStart(txID)
	defer l.Stub.MockTransactionEnd(txID)
	l.Stub.TxTimestamp = timestamppb.New(l.Now)

	tx := ledger.Begin(l.Stub)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// MustRun is Run failing t on error.
func (l *Ledger) MustRun(t testing.TB, fn func(tx *ledger.Tx) error) {
	t.Helper()
	if err := l.Run(fn); err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
}
