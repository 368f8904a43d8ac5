package listings

import (
	"crypto/x509"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/hyperledger/fabric-chaincode-go/shimtest"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric-protos-go/peer"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/auction"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/globalconfig"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/ledger/ledgertest"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/logging"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/protocol"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/raffle"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/revenue"
)

const (
	admin    = "x509::CN=admin"
	treasury = "x509::CN=treasury"
	creator  = "x509::CN=creator"
	partner  = "x509::CN=partner"
	alice    = "x509::CN=alice"
	bob      = "x509::CN=bob"
	sixHours = 6 * time.Hour
)

type fakeIdentity struct {
	id string
}

var _ cid.ClientIdentity = (*fakeIdentity)(nil)

func (f *fakeIdentity) GetID() (string, error)    { return f.id, nil }
func (f *fakeIdentity) GetMSPID() (string, error) { return "Org1MSP", nil }
func (f *fakeIdentity) GetAttributeValue(string) (string, bool, error) {
	return "", false, nil
}
func (f *fakeIdentity) AssertAttributeValue(name, _ string) error {
	return fmt.Errorf("attribute %s not found", name)
}
func (f *fakeIdentity) GetX509Certificate() (*x509.Certificate, error) { return nil, nil }

type harness struct {
	t        *testing.T
	clock    *ledgertest.Ledger
	stub     *shimtest.MockStub
	contract *SmartContract
	seq      int
}

func newHarness(t *testing.T) *harness {
	logging.Replace(zaptest.NewLogger(t))
	clock := ledgertest.New("listings")
	return &harness{t: t, clock: clock, stub: clock.Stub, contract: &SmartContract{}}
}

// call submits fn as caller in its own transaction.
func (h *harness) call(caller string, fn func(ctx contractapi.TransactionContextInterface) (string, error)) (string, error) {
	h.seq++
	txID := fmt.Sprintf("cc-tx%d", h.seq)
	h.stub.MockTransactionStart(txID)
	defer h.stub.MockTransactionEnd(txID)
	h.stub.TxTimestamp = timestamppb.New(h.clock.Now)

	ctx := &contractapi.TransactionContext{}
	ctx.SetStub(h.stub)
	ctx.SetClientIdentity(&fakeIdentity{id: caller})
	return fn(ctx)
}

func (h *harness) mustCall(caller string, fn func(ctx contractapi.TransactionContextInterface) (string, error)) string {
	h.t.Helper()
	out, err := h.call(caller, fn)
	require.NoError(h.t, err)
	return out
}

func (h *harness) event() *peer.ChaincodeEvent {
	select {
	case e := <-h.stub.ChaincodeEventsChannel:
		return e
	default:
		return nil
	}
}

func (h *harness) balance(owner, mint string) uint64 {
	h.t.Helper()
	var amount uint64
	_, err := h.call(owner, func(ctx contractapi.TransactionContextInterface) (string, error) {
		var err error
		amount, err = h.contract.GetBalance(ctx, owner, mint)
		return "", err
	})
	require.NoError(h.t, err)
	return amount
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

// setup initializes a test-mode marketplace with one collection, one
// currency and funded bidders.
func setup(t *testing.T) *harness {
	h := newHarness(t)
	c := h.contract
	h.mustCall(admin, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.Initialize(ctx, 200, treasury, true)
	})
	for _, metadata := range []string{`{"mint":"apes"}`, `{"mint":"ape-1","collection":"apes"}`} {
		metadata := metadata
		h.mustCall(admin, func(ctx contractapi.TransactionContextInterface) (string, error) {
			return c.CreateMetadata(ctx, metadata)
		})
	}
	h.mustCall(admin, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.RegisterCollection(ctx, "apes", "")
	})
	h.mustCall(admin, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.RegisterCurrency(ctx, "usdt", "0")
	})
	h.mustCall(admin, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.MintTokens(ctx, "ape-1", creator, 2)
	})
	for _, buyer := range []string{alice, bob} {
		buyer := buyer
		h.mustCall(admin, func(ctx contractapi.TransactionContextInterface) (string, error) {
			return c.MintTokens(ctx, "usdt", buyer, 1_000_000)
		})
	}
	for _, owner := range []string{creator, partner} {
		h.mustCall(owner, func(ctx contractapi.TransactionContextInterface) (string, error) {
			return c.OpenWallet(ctx, "usdt")
		})
	}
	return h
}

func TestContractMetadata(t *testing.T) {
	_, err := contractapi.NewChaincode(&SmartContract{})
	require.NoError(t, err)
}

func TestEmptyClientIdentity(t *testing.T) {
	h := newHarness(t)
	_, err := h.call("", func(ctx contractapi.TransactionContextInterface) (string, error) {
		return h.contract.WhoAmI(ctx)
	})
	require.ErrorIs(t, err, protocol.ErrInvalidCallerIdentity)
	require.Equal(t, "InvalidCallerIdentity: the submitting client identity is invalid", err.Error())
}

func TestAdministration(t *testing.T) {
	h := setup(t)
	c := h.contract

	_, err := h.call(admin, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.Initialize(ctx, 200, treasury, true)
	})
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), "AlreadyInitialized: "), err.Error())

	_, err = h.call(alice, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.MintTokens(ctx, "usdt", alice, 1)
	})
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), "NotTheAuthority: "), err.Error())

	_, err = h.call(admin, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.UpdateConfig(ctx, `{"marketFeeRateBps":10001}`)
	})
	require.True(t, strings.HasPrefix(err.Error(), "InvalidMarketFeeRate: "), err.Error())

	out := h.mustCall(admin, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.UpdateConfig(ctx, `{"minOutbidRateBps":1000}`)
	})
	var config globalconfig.GlobalConfig
	require.NoError(t, json.Unmarshal([]byte(out), &config))
	require.Equal(t, uint16(1000), config.MinOutbidRateBps)
	require.Equal(t, uint16(200), config.MarketFeeRateBps)
	require.Equal(t, admin, config.Authority)

	out = h.mustCall(bob, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.ListAllowlist(ctx, "currency")
	})
	require.JSONEq(t, `[{"key":"usdt","allowed":true}]`, out)

	h.mustCall(admin, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.SetAllowed(ctx, "currency", "usdt", false)
	})
	out = h.mustCall(bob, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.ListAllowlist(ctx, "currency")
	})
	require.JSONEq(t, `[{"key":"usdt","allowed":false}]`, out)

	out = h.mustCall(bob, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.WhoAmI(ctx)
	})
	require.JSONEq(t, `{"id":"x509::CN=bob","mspId":"Org1MSP"}`, out)
}

func TestAuctionThroughContract(t *testing.T) {
	h := setup(t)
	c := h.contract

	createJSON := mustJSON(t, map[string]interface{}{
		"id":           0,
		"nftMint":      "ape-1",
		"currencyMint": "usdt",
		"duration":     int(sixHours.Seconds()),
		"startBid":     1000,
		"revenueShares": []map[string]interface{}{
			{"recipient": partner, "shareBps": 1000},
			{"recipient": creator, "shareBps": 9000},
		},
	})
	h.mustCall(creator, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.CreateAuction(ctx, createJSON)
	})
	for _, b := range []struct {
		bidder string
		amount uint64
	}{{alice, 1000}, {bob, 2000}} {
		b := b
		h.mustCall(b.bidder, func(ctx contractapi.TransactionContextInterface) (string, error) {
			return c.PlaceBid(ctx, fmt.Sprintf(`{"auctionId":0,"amount":%d,"maxAllowed":%d}`, b.amount, b.amount))
		})
	}

	_, err := h.call(bob, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.ClaimLotNft(ctx, 0)
	})
	require.True(t, strings.HasPrefix(err.Error(), "OngoingAuction: "), err.Error())
	require.Nil(t, h.event(), "rejected transitions set no event")

	h.clock.Advance(sixHours)
	h.mustCall(bob, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.ClaimLotNft(ctx, 0)
	})
	e := h.event()
	require.NotNil(t, e)
	require.Equal(t, EventAuctionSettled, e.EventName)
	var summary ListingSummary
	require.NoError(t, json.Unmarshal(e.Payload, &summary))
	require.Equal(t, bob, summary.Winner)
	require.Equal(t, uint64(2000), summary.HammerPrice)
	require.Equal(t, uint64(1), h.balance(bob, "ape-1"))

	h.mustCall(creator, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.ClaimAuctionRevenue(ctx, 0)
	})
	e = h.event()
	require.NotNil(t, e)
	summary = ListingSummary{}
	require.NoError(t, json.Unmarshal(e.Payload, &summary))
	require.Equal(t, uint64(40), summary.Distribution.Fee)
	require.Equal(t, uint64(40), h.balance(treasury, "usdt"))
	require.Equal(t, uint64(196), h.balance(partner, "usdt"))
	require.Equal(t, uint64(1764), h.balance(creator, "usdt"))

	out := h.mustCall(alice, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.ListBids(ctx, 0)
	})
	var bids []auction.Bid
	require.NoError(t, json.Unmarshal([]byte(out), &bids))
	require.Len(t, bids, 2)
	require.Equal(t, alice, bids[0].Bidder)
}

func TestRaffleThroughContract(t *testing.T) {
	h := setup(t)
	c := h.contract

	createJSON := mustJSON(t, &raffle.CreateInput{
		ID:             0,
		NftMint:        "ape-1",
		CurrencyMint:   "usdt",
		Duration:       uint64(sixHours.Seconds()),
		TicketPrice:    10,
		TicketSupply:   50,
		NumRaffledNfts: 2,
		RevenueShares:  []revenue.Share{{Recipient: creator, ShareBps: 10000}},
	})
	h.mustCall(creator, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.CreateRaffle(ctx, createJSON)
	})
	h.mustCall(alice, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.BuyTickets(ctx, `{"raffleId":0,"numTickets":5}`)
	})

	_, err := h.call(admin, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.MakeRaffle(ctx, 0, false)
	})
	require.True(t, strings.HasPrefix(err.Error(), "RaffleOngoing: "), err.Error())

	// the mock clock moves the raffle past its end without advancing ledger time
	end := h.clock.Unix() + int64(sixHours.Seconds())
	h.mustCall(admin, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.SetMockTimestamp(ctx, end)
	})
	h.mustCall(admin, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.MakeRaffle(ctx, 0, false)
	})
	e := h.event()
	require.NotNil(t, e)
	require.Equal(t, EventRaffleMade, e.EventName)
	var summary ListingSummary
	require.NoError(t, json.Unmarshal(e.Payload, &summary))
	require.Equal(t, []uint64{0}, summary.WinnerIDs)

	h.mustCall(alice, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.ClaimRaffleReward(ctx, 0)
	})
	h.mustCall(creator, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.ClaimRemainingRaffleRewards(ctx, 0)
	})
	h.mustCall(creator, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.ClaimRaffleRevenue(ctx, 0)
	})
	require.Equal(t, uint64(1), h.balance(alice, "ape-1"))
	require.Equal(t, uint64(1), h.balance(creator, "ape-1"))
	require.Equal(t, uint64(1), h.balance(treasury, "usdt"))
	require.Equal(t, uint64(49), h.balance(creator, "usdt"))

	out := h.mustCall(bob, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.GetTicketPosition(ctx, 0, alice)
	})
	var position raffle.TicketPosition
	require.NoError(t, json.Unmarshal([]byte(out), &position))
	require.Equal(t, uint64(5), position.TotalNumTickets)

	h.mustCall(admin, func(ctx contractapi.TransactionContextInterface) (string, error) {
		return c.ClearMockTimestamp(ctx)
	})
}
