/*
SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"encoding/hex"
	"fmt"
	"math"

	"golang.org/x/crypto/sha3"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/logging"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/protocol"
)

const tokenAccountObjectType = "token_account"

// TokenAccount holds a balance of one mint for one owner.
// Escrow accounts are owned by the address of the record that controls them.
type TokenAccount struct {
	Address string `json:"address"`
	Mint    string `json:"mint"`
	Owner   string `json:"owner"`
	Amount  uint64 `json:"amount"`
	Payer   string `json:"payer"` // receives the deposit refund when the account is closed
}

// DeriveAddress maps a namespace path to a deterministic address.
func DeriveAddress(path ...string) string {
	h := sha3.New256()
	for _, part := range path {
		// length prefix keeps ("ab","c") and ("a","bc") apart
		_, _ = fmt.Fprintf(h, "%d:%s;", len(part), part)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// WalletAddress is the address of owner's account for mint.
func WalletAddress(owner, mint string) string {
	return DeriveAddress("wallet", owner, mint)
}

func (tx *Tx) tokenAccountKey(address string) (string, error) {
	return tx.Key(tokenAccountObjectType, address)
}

// FindAccount loads the token account at address and reports whether it exists.
func (tx *Tx) FindAccount(address string) (*TokenAccount, bool, error) {
	key, err := tx.tokenAccountKey(address)
	if err != nil {
		return nil, false, err
	}
	var account TokenAccount
	found, err := tx.Get(key, &account)
	if err != nil {
		return nil, false, fmt.Errorf("could not get token account %s: %w", address, err)
	}
	if !found {
		return nil, false, nil
	}
	return &account, true, nil
}

// Account loads the token account at address.
func (tx *Tx) Account(address string) (*TokenAccount, error) {
	account, found, err := tx.FindAccount(address)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("token account %s: %w", address, protocol.ErrAccountNotFound)
	}
	return account, nil
}

func (tx *Tx) putAccount(account *TokenAccount) error {
	key, err := tx.tokenAccountKey(account.Address)
	if err != nil {
		return err
	}
	return tx.Put(key, account)
}

// OpenAccount creates an empty token account at address.
func (tx *Tx) OpenAccount(address, mint, owner, payer string) (*TokenAccount, error) {
	_, found, err := tx.FindAccount(address)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, fmt.Errorf("token account %s: %w", address, protocol.ErrAccountAlreadyExists)
	}
	account := &TokenAccount{
		Address: address,
		Mint:    mint,
		Owner:   owner,
		Payer:   payer,
	}
	if errPut := tx.putAccount(account); errPut != nil {
		return nil, errPut
	}
	return account, nil
}

// OpenWallet returns owner's account for mint, creating it if needed.
func (tx *Tx) OpenWallet(owner, mint string) (*TokenAccount, error) {
	address := WalletAddress(owner, mint)
	account, found, err := tx.FindAccount(address)
	if err != nil {
		return nil, err
	}
	if found {
		return account, nil
	}
	return tx.OpenAccount(address, mint, owner, owner)
}

// Transfer moves amount tokens between two accounts of the same mint.
func (tx *Tx) Transfer(fromAddress, toAddress string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	from, err := tx.Account(fromAddress)
	if err != nil {
		return err
	}
	to, err := tx.Account(toAddress)
	if err != nil {
		return err
	}
	if from.Mint != to.Mint {
		return fmt.Errorf("transfer %s to %s: %w", fromAddress, toAddress, protocol.ErrMintMismatch)
	}
	if from.Amount < amount {
		return fmt.Errorf("transfer %d from %s: %w", amount, fromAddress, protocol.ErrInsufficientFunds)
	}
	if fromAddress == toAddress {
		return nil
	}
	if to.Amount > math.MaxUint64-amount {
		return fmt.Errorf("transfer %d to %s: %w", amount, toAddress, protocol.ErrAmountOverflow)
	}
	from.Amount -= amount
	to.Amount += amount
	if errPut := tx.putAccount(from); errPut != nil {
		return errPut
	}
	return tx.putAccount(to)
}

// CloseAccount deletes an empty token account and returns the account that
// receives its deposit refund.
func (tx *Tx) CloseAccount(address string) (string, error) {
	account, err := tx.Account(address)
	if err != nil {
		return "", err
	}
	if account.Amount != 0 {
		return "", fmt.Errorf("close %s: %w", address, protocol.ErrCloseNonZeroBalanceAccount)
	}
	key, err := tx.tokenAccountKey(address)
	if err != nil {
		return "", err
	}
	tx.Delete(key)
	logging.GetLogger(logging.ModuleLedger).Debugw("token account closed", "address", address, "refund", account.Payer)
	return account.Payer, nil
}

// MintTo issues amount new tokens of mint into owner's wallet.
func (tx *Tx) MintTo(mint, owner string, amount uint64) (*TokenAccount, error) {
	if amount == 0 {
		return nil, fmt.Errorf("mint %s: %w", mint, protocol.ErrInvalidAmount)
	}
	wallet, err := tx.OpenWallet(owner, mint)
	if err != nil {
		return nil, err
	}
	if wallet.Amount > math.MaxUint64-amount {
		return nil, fmt.Errorf("mint %d to %s: %w", amount, wallet.Address, protocol.ErrAmountOverflow)
	}
	wallet.Amount += amount
	if errPut := tx.putAccount(wallet); errPut != nil {
		return nil, errPut
	}
	return wallet, nil
}
