/*
SPDX-License-Identifier: Apache-2.0
*/

// Package revenue splits settled proceeds between the fee treasury and the
// recipients declared by a listing's creator.
package revenue

import (
	"fmt"
	"math/bits"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/ledger"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/protocol"
)

const (
	// MaxRecipients is the number of revenue shares a listing may declare.
	MaxRecipients = 6
	totalBps      = 10000
)

// Share pays ShareBps of the residual revenue to Recipient.
type Share struct {
	Recipient string `json:"recipient"`
	ShareBps  uint16 `json:"shareBps"`
}

// Payout is one transfer made by a distribution.
type Payout struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
}

// Distribution is the result of splitting Total.
type Distribution struct {
	Total     uint64   `json:"total"`
	Fee       uint64   `json:"fee"`
	Payouts   []Payout `json:"payouts"`
	Remainder uint64   `json:"remainder"`
}

// ValidateShares checks the shares declared when a listing is created.
func ValidateShares(shares []Share) error {
	if len(shares) == 0 {
		return protocol.ErrInvalidRevenueShareConfig
	}
	if len(shares) > MaxRecipients {
		return protocol.ErrInvalidRevenueRecipientNumber
	}
	sum := 0
	for _, share := range shares {
		if share.Recipient == "" {
			return protocol.ErrInvalidRevenueShareConfig
		}
		sum += int(share.ShareBps)
	}
	if sum != totalBps {
		return protocol.ErrInvalidRevenueShareConfig
	}
	return nil
}

// mulBps returns floor(amount*bps/10000) without overflowing.
func mulBps(amount uint64, bps uint16) uint64 {
	hi, lo := bits.Mul64(amount, uint64(bps))
	quo, _ := bits.Div64(hi, lo, totalBps)
	return quo
}

// Split computes the fee and the payouts of total. Every share but the last is
// rounded down. The last share takes what is left of the residual, and the part
// above its own rounded share is reported as Remainder.
func Split(total uint64, feeRateBps uint16, shares []Share) *Distribution {
	d := &Distribution{
		Total:   total,
		Fee:     mulBps(total, feeRateBps),
		Payouts: make([]Payout, 0, len(shares)),
	}
	residual := total - d.Fee
	left := residual
	for i, share := range shares {
		amount := mulBps(residual, share.ShareBps)
		if i == len(shares)-1 {
			d.Remainder = left - amount
			amount = left
		}
		d.Payouts = append(d.Payouts, Payout{Recipient: share.Recipient, Amount: amount})
		left -= amount
	}
	return d
}

// Distribute pays out the whole balance of escrow and closes the escrow. It
// returns the distribution and the account refunded for the closed escrow.
func Distribute(tx *ledger.Tx, escrow string, feeRateBps uint16, treasury string, shares []Share) (*Distribution, string, error) {
	account, err := tx.Account(escrow)
	if err != nil {
		return nil, "", err
	}
	d := Split(account.Amount, feeRateBps, shares)

	treasuryWallet := ledger.WalletAddress(treasury, account.Mint)
	if errFee := tx.Transfer(escrow, treasuryWallet, d.Fee); errFee != nil {
		return nil, "", fmt.Errorf("could not collect fee: %w", errFee)
	}
	for _, payout := range d.Payouts {
		wallet := ledger.WalletAddress(payout.Recipient, account.Mint)
		// recipients must hold a wallet for the currency even when the payout is zero
		if _, errWallet := tx.Account(wallet); errWallet != nil {
			return nil, "", errWallet
		}
		if errPay := tx.Transfer(escrow, wallet, payout.Amount); errPay != nil {
			return nil, "", fmt.Errorf("could not pay %s: %w", payout.Recipient, errPay)
		}
	}

	refund, err := tx.CloseAccount(escrow)
	if err != nil {
		return nil, "", err
	}
	return d, refund, nil
}
