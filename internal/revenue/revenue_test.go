package revenue

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/ledger"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/ledger/ledgertest"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/protocol"
)

const (
	treasury = "x509::CN=treasury"
	creator  = "x509::CN=creator"
	partner  = "x509::CN=partner"
)

func TestSplit(t *testing.T) {
	d := Split(1000, 200, []Share{{Recipient: partner, ShareBps: 1000}, {Recipient: creator, ShareBps: 9000}})
	require.Equal(t, uint64(20), d.Fee)
	require.Equal(t, []Payout{{Recipient: partner, Amount: 98}, {Recipient: creator, Amount: 882}}, d.Payouts)
	require.Equal(t, uint64(0), d.Remainder)

	d = Split(999, 300, []Share{{Recipient: partner, ShareBps: 3333}, {Recipient: creator, ShareBps: 6667}})
	// fee 29, residual 970: 323 + 646 = 969, the last share takes the odd unit
	require.Equal(t, uint64(29), d.Fee)
	require.Equal(t, uint64(323), d.Payouts[0].Amount)
	require.Equal(t, uint64(647), d.Payouts[1].Amount)
	require.Equal(t, uint64(1), d.Remainder)
}

func TestSplitPaysOutEverything(t *testing.T) {
	shares := []Share{
		{Recipient: partner, ShareBps: 1111},
		{Recipient: treasury, ShareBps: 2222},
		{Recipient: creator, ShareBps: 6667},
	}
	for _, total := range []uint64{1, 7, 999, 10001, 123457} {
		d := Split(total, 250, shares)
		require.Equal(t, mulBps(total, 250), d.Fee)
		sum := d.Fee
		for _, payout := range d.Payouts {
			sum += payout.Amount
		}
		require.Equal(t, total, sum, "total %d", total)
		require.Less(t, d.Remainder, uint64(len(shares)))
	}
}

func TestSplitLargeAmount(t *testing.T) {
	d := Split(math.MaxUint64, 10000, []Share{{Recipient: creator, ShareBps: 10000}})
	require.Equal(t, uint64(math.MaxUint64), d.Fee)
	require.Equal(t, uint64(0), d.Payouts[0].Amount)
}

func TestValidateShares(t *testing.T) {
	require.NoError(t, ValidateShares([]Share{{Recipient: creator, ShareBps: 10000}}))

	err := ValidateShares(nil)
	require.True(t, errors.Is(err, protocol.ErrInvalidRevenueShareConfig))
	err = ValidateShares([]Share{{Recipient: creator, ShareBps: 9999}})
	require.True(t, errors.Is(err, protocol.ErrInvalidRevenueShareConfig))

	seven := make([]Share, 7)
	for i := range seven {
		seven[i] = Share{Recipient: creator, ShareBps: 1000}
	}
	seven[0].ShareBps = 4000
	err = ValidateShares(seven)
	require.True(t, errors.Is(err, protocol.ErrInvalidRevenueRecipientNumber))
}

func TestDistribute(t *testing.T) {
	l := ledgertest.New("revenue")
	escrow := ledger.DeriveAddress("raffle", "0", "revenue_escrow")
	l.MustRun(t, func(tx *ledger.Tx) error {
		for _, owner := range []string{treasury, creator, partner} {
			if _, err := tx.OpenWallet(owner, "usdt"); err != nil {
				return err
			}
		}
		if _, err := tx.OpenAccount(escrow, "usdt", escrow, creator); err != nil {
			return err
		}
		buyer, err := tx.MintTo("usdt", "x509::CN=buyer", 999)
		if err != nil {
			return err
		}
		return tx.Transfer(buyer.Address, escrow, 999)
	})

	shares := []Share{{Recipient: partner, ShareBps: 3333}, {Recipient: creator, ShareBps: 6667}}
	l.MustRun(t, func(tx *ledger.Tx) error {
		d, refund, err := Distribute(tx, escrow, 300, treasury, shares)
		require.NoError(t, err)
		require.Equal(t, creator, refund)
		require.Equal(t, uint64(29), d.Fee)
		require.Equal(t, uint64(1), d.Remainder)
		return nil
	})

	l.MustRun(t, func(tx *ledger.Tx) error {
		balances := map[string]uint64{}
		for _, owner := range []string{treasury, creator, partner} {
			account, err := tx.Account(ledger.WalletAddress(owner, "usdt"))
			require.NoError(t, err)
			balances[owner] = account.Amount
		}
		require.Equal(t, map[string]uint64{treasury: 29, partner: 323, creator: 647}, balances)

		_, found, err := tx.FindAccount(escrow)
		require.NoError(t, err)
		require.False(t, found)
		return nil
	})

	// second settlement finds no escrow
	err := l.Run(func(tx *ledger.Tx) error {
		_, _, err := Distribute(tx, escrow, 300, treasury, shares)
		return err
	})
	require.True(t, errors.Is(err, protocol.ErrAccountNotFound))
}

func TestDistributeNeedsRecipientWallet(t *testing.T) {
	l := ledgertest.New("revenue")
	escrow := ledger.DeriveAddress("auction", "0", "bid", partner, "escrow")
	l.MustRun(t, func(tx *ledger.Tx) error {
		if _, err := tx.OpenWallet(treasury, "usdt"); err != nil {
			return err
		}
		_, err := tx.OpenAccount(escrow, "usdt", escrow, partner)
		return err
	})

	err := l.Run(func(tx *ledger.Tx) error {
		_, _, err := Distribute(tx, escrow, 300, treasury, []Share{{Recipient: creator, ShareBps: 10000}})
		return err
	})
	require.True(t, errors.Is(err, protocol.ErrAccountNotFound))
}
