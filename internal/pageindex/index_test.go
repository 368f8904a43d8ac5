package pageindex

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/ledger"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/ledger/ledgertest"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/protocol"
)

func pageHint(p uint64) *uint64 { return &p }

func TestAppendFillsPagesInOrder(t *testing.T) {
	l := ledgertest.New("pageindex")
	l.MustRun(t, func(tx *ledger.Tx) error {
		_, err := Create(tx, 2, "auction", "0", "bids")
		return err
	})

	expected := []struct {
		page   uint64
		offset uint32
	}{{0, 0}, {0, 1}, {1, 0}, {1, 1}, {2, 0}}
	for i, want := range expected {
		l.MustRun(t, func(tx *ledger.Tx) error {
			ix, err := Open(tx, "auction", "0", "bids")
			require.NoError(t, err)
			page, offset, err := ix.Append(pageHint(want.page), fmt.Sprintf("bidder-%d", i))
			require.NoError(t, err)
			require.Equal(t, want.page, page)
			require.Equal(t, want.offset, offset)
			return nil
		})
	}

	l.MustRun(t, func(tx *ledger.Tx) error {
		ix, err := Open(tx, "auction", "0", "bids")
		require.NoError(t, err)
		require.Equal(t, uint64(5), ix.Len())
		require.Equal(t, uint64(2), ix.CurrentPage())

		page, err := ix.Page(1)
		require.NoError(t, err)
		require.Equal(t, []string{"bidder-2", "bidder-3"}, page.Keys)

		key, err := ix.KeyAt(4)
		require.NoError(t, err)
		require.Equal(t, "bidder-4", key)
		_, err = ix.KeyAt(5)
		require.Error(t, err)

		page, err = ix.Page(9)
		require.NoError(t, err)
		require.Empty(t, page.Keys)
		return nil
	})
}

func TestAppendRejectsStalePage(t *testing.T) {
	l := ledgertest.New("pageindex")
	l.MustRun(t, func(tx *ledger.Tx) error {
		ix, err := Create(tx, 1, "raffle", "0", "ticket_positions")
		if err != nil {
			return err
		}
		_, _, err = ix.Append(nil, "a")
		return err
	})

	err := l.Run(func(tx *ledger.Tx) error {
		ix, err := Open(tx, "raffle", "0", "ticket_positions")
		require.NoError(t, err)
		_, _, err = ix.Append(pageHint(0), "b")
		return err
	})
	require.True(t, errors.Is(err, protocol.ErrInvalidIndexPage))

	l.MustRun(t, func(tx *ledger.Tx) error {
		ix, err := Open(tx, "raffle", "0", "ticket_positions")
		require.NoError(t, err)
		require.Equal(t, uint64(1), ix.Len())
		return nil
	})
}

func TestCreate(t *testing.T) {
	l := ledgertest.New("pageindex")
	err := l.Run(func(tx *ledger.Tx) error {
		_, err := Create(tx, 0, "x")
		return err
	})
	require.True(t, errors.Is(err, protocol.ErrInvalidIndexPageSize))

	l.MustRun(t, func(tx *ledger.Tx) error {
		_, err := Create(tx, 3, "x")
		return err
	})
	err = l.Run(func(tx *ledger.Tx) error {
		_, err := Create(tx, 3, "x")
		return err
	})
	require.Error(t, err)

	err = l.Run(func(tx *ledger.Tx) error {
		_, err := Open(tx, "y")
		return err
	})
	require.Error(t, err)
}

func TestIteratorSnapshotsCount(t *testing.T) {
	l := ledgertest.New("pageindex")
	l.MustRun(t, func(tx *ledger.Tx) error {
		ix, err := Create(tx, 3, "allowlist", "currency")
		if err != nil {
			return err
		}
		for i := 0; i < 7; i++ {
			if _, _, err := ix.Append(nil, fmt.Sprintf("k%d", i)); err != nil {
				return err
			}
		}

		it := ix.Iterator()
		_, _, err = ix.Append(nil, "late")
		require.NoError(t, err)

		var keys []string
		for it.HasNext() {
			position, key, err := it.Next()
			require.NoError(t, err)
			require.Equal(t, uint64(len(keys)), position)
			keys = append(keys, key)
		}
		require.Equal(t, []string{"k0", "k1", "k2", "k3", "k4", "k5", "k6"}, keys)
		_, _, err = it.Next()
		require.Error(t, err)

		// a fresh iterator sees the late key
		again := ix.Iterator()
		count := 0
		for again.HasNext() {
			_, _, err := again.Next()
			require.NoError(t, err)
			count++
		}
		require.Equal(t, 8, count)
		return nil
	})
}
