/*
SPDX-License-Identifier: Apache-2.0
*/

// Package listings exposes the auction and raffle marketplace as Fabric
// contract transactions.
package listings

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"go.uber.org/zap"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/ledger"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/listing"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/logging"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/protocol"
)

func contractLog() *zap.SugaredLogger {
	return logging.GetLogger(logging.ModuleContract)
}

// This contract runs NFT auctions and ticket raffles
type SmartContract struct {
	contractapi.Contract
}

type txFunc func(tx *ledger.Tx, caller string) (interface{}, error)

type envFunc func(env *listing.Env) (interface{}, error)

// run executes fn against a write-through overlay of the stub and commits it
// only when fn succeeds. The result is returned JSON encoded.
func run(ctx contractapi.TransactionContextInterface, name string, fn txFunc) (string, error) {
	caller, errClientID := getSubmittingClientIdentity(ctx)
	if errClientID != nil {
		contractLog().Debugw("client identity rejected", "transaction", name, "error", errClientID)
		return "", protocol.ErrInvalidCallerIdentity
	}

	tx := ledger.Begin(ctx.GetStub())
	result, err := fn(tx, caller)
	if err != nil {
		return "", reject(name, tx, err)
	}
	if errCommit := tx.Commit(); errCommit != nil {
		return "", fmt.Errorf("could not commit %s: %w", name, errCommit)
	}

	resultBin, errMarshal := json.Marshal(result)
	if errMarshal != nil {
		return "", fmt.Errorf("could not encode the result of %s: %w", name, errMarshal)
	}
	return string(resultBin), nil
}

// submit is run with the configuration and clock of the marketplace loaded.
func submit(ctx contractapi.TransactionContextInterface, name string, fn envFunc) (string, error) {
	return run(ctx, name, func(tx *ledger.Tx, caller string) (interface{}, error) {
		env, err := listing.NewEnv(tx, caller)
		if err != nil {
			return nil, err
		}
		return fn(env)
	})
}

// reject logs a failed transition and strips its context down to the named
// condition, so clients see "<Code>: <message>".
func reject(name string, tx *ledger.Tx, err error) error {
	contractLog().Debugw("transition rejected", "transaction", name, "txID", tx.TxID(),
		"code", protocol.CodeOf(err), "discarded", tx.Pending(), "error", err)
	var perr *protocol.Error
	if errors.As(err, &perr) {
		return perr
	}
	return err
}

// decodeInput parses a JSON transaction argument into v.
func decodeInput(name, input string, v interface{}) error {
	if err := json.Unmarshal([]byte(input), v); err != nil {
		return fmt.Errorf("could not decode %s: %w", name, err)
	}
	return nil
}

// parsePageHint reads an optional page id. The empty string means none.
func parsePageHint(pageHint string) (*uint64, error) {
	if pageHint == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(pageHint, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("could not parse page hint %q: %w", pageHint, err)
	}
	return &id, nil
}
