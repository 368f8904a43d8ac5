package ledger

import (
	"errors"
	"testing"

	"github.com/hyperledger/fabric-chaincode-go/shimtest"
	"github.com/stretchr/testify/require"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/protocol"
)

func newStub(t *testing.T) *shimtest.MockStub {
	t.Helper()
	stub := shimtest.NewMockStub("ledger", nil)
	stub.MockTransactionStart("tx0")
	t.Cleanup(func() { stub.MockTransactionEnd("tx0") })
	return stub
}

func TestTxReadsOwnWrites(t *testing.T) {
	stub := newStub(t)
	tx := Begin(stub)

	key, err := tx.Key("thing", "a")
	require.NoError(t, err)
	require.NoError(t, tx.Put(key, map[string]int{"n": 1}))
	require.Equal(t, 1, tx.Pending())

	var got map[string]int
	found, err := tx.Get(key, &got)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 1, got["n"])

	// nothing reaches the stub before commit
	raw, err := stub.GetState(key)
	require.NoError(t, err)
	require.Nil(t, raw)

	require.NoError(t, tx.Commit())
	require.Equal(t, 0, tx.Pending())
	raw, err = stub.GetState(key)
	require.NoError(t, err)
	require.NotNil(t, raw)

	tx = Begin(stub)
	tx.Delete(key)
	exists, err := tx.Exists(key)
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, tx.Commit())
	raw, err = stub.GetState(key)
	require.NoError(t, err)
	require.Nil(t, raw)
}

func TestDeriveAddressIsUnambiguous(t *testing.T) {
	require.Equal(t, DeriveAddress("a", "b"), DeriveAddress("a", "b"))
	require.NotEqual(t, DeriveAddress("ab", "c"), DeriveAddress("a", "bc"))
	require.NotEqual(t, WalletAddress("alice", "usdt"), WalletAddress("bob", "usdt"))
}

func TestTransfer(t *testing.T) {
	stub := newStub(t)
	tx := Begin(stub)

	alice, err := tx.MintTo("usdt", "alice", 100)
	require.NoError(t, err)
	bob, err := tx.OpenWallet("bob", "usdt")
	require.NoError(t, err)

	require.NoError(t, tx.Transfer(alice.Address, bob.Address, 40))
	got, err := tx.Account(bob.Address)
	require.NoError(t, err)
	require.Equal(t, uint64(40), got.Amount)
	got, err = tx.Account(alice.Address)
	require.NoError(t, err)
	require.Equal(t, uint64(60), got.Amount)

	err = tx.Transfer(alice.Address, bob.Address, 61)
	require.True(t, errors.Is(err, protocol.ErrInsufficientFunds))

	other, err := tx.MintTo("usdc", "bob", 5)
	require.NoError(t, err)
	err = tx.Transfer(other.Address, alice.Address, 1)
	require.True(t, errors.Is(err, protocol.ErrMintMismatch))

	err = tx.Transfer(alice.Address, WalletAddress("carol", "usdt"), 1)
	require.True(t, errors.Is(err, protocol.ErrAccountNotFound))
}

func TestCloseAccount(t *testing.T) {
	stub := newStub(t)
	tx := Begin(stub)

	escrow := DeriveAddress("auction", "0", "lot_escrow")
	_, err := tx.OpenAccount(escrow, "nft", escrow, "creator")
	require.NoError(t, err)
	_, err = tx.OpenAccount(escrow, "nft", escrow, "creator")
	require.True(t, errors.Is(err, protocol.ErrAccountAlreadyExists))

	wallet, err := tx.MintTo("nft", "creator", 1)
	require.NoError(t, err)
	require.NoError(t, tx.Transfer(wallet.Address, escrow, 1))

	_, err = tx.CloseAccount(escrow)
	require.True(t, errors.Is(err, protocol.ErrCloseNonZeroBalanceAccount))

	require.NoError(t, tx.Transfer(escrow, wallet.Address, 1))
	payer, err := tx.CloseAccount(escrow)
	require.NoError(t, err)
	require.Equal(t, "creator", payer)

	_, err = tx.CloseAccount(escrow)
	require.True(t, errors.Is(err, protocol.ErrAccountNotFound))
}

func TestMetadata(t *testing.T) {
	stub := newStub(t)
	tx := Begin(stub)

	require.NoError(t, tx.CreateMetadata(&AssetMetadata{Mint: "nft-1", Collection: "apes"}))
	err := tx.CreateMetadata(&AssetMetadata{Mint: "nft-1"})
	require.True(t, errors.Is(err, protocol.ErrMetadataAlreadyExists))

	metadata, err := tx.Metadata("nft-1")
	require.NoError(t, err)
	require.True(t, metadata.HasCollection())
	require.Equal(t, "apes", metadata.Collection)

	_, err = tx.Metadata("nft-2")
	require.True(t, errors.Is(err, protocol.ErrMetadataNotFound))
}
