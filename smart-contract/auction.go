/*
SPDX-License-Identifier: Apache-2.0
*/

package listings

import (
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"go.uber.org/zap"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/auction"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/ledger"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/listing"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/logging"
)

func auctionLog() *zap.SugaredLogger {
	return logging.GetLogger(logging.ModuleAuction)
}

func auctionSummary(a *auction.Auction) *ListingSummary {
	return &ListingSummary{
		Kind:        KindAuction,
		ID:          a.ID,
		Creator:     a.Creator,
		Status:      a.Status,
		Winner:      a.TopBidder,
		HammerPrice: a.TopBid,
	}
}

/**************** AUCTION CREATOR METHODS ****************/

// CreateAuction creates a new auction and escrows its asset
func (s *SmartContract) CreateAuction(ctx contractapi.TransactionContextInterface, auctionJSON string) (string, error) {
	var in auction.CreateInput
	if err := decodeInput("auction", auctionJSON, &in); err != nil {
		return "", err
	}
	return submit(ctx, "CreateAuction", func(env *listing.Env) (interface{}, error) {
		a, err := auction.Create(env, &in)
		if err != nil {
			return nil, err
		}
		auctionLog().Infow("auction created", "id", a.ID, "creator", a.Creator, "asset", a.NftMint, "expiresAt", a.ExpiresAt)
		return a, nil
	})
}

// CancelAuction returns the asset of an auction without bids to its creator
func (s *SmartContract) CancelAuction(ctx contractapi.TransactionContextInterface, auctionID uint64) (string, error) {
	return submit(ctx, "CancelAuction", func(env *listing.Env) (interface{}, error) {
		settlement, err := auction.Cancel(env, auctionID)
		if err != nil {
			return nil, err
		}
		if errEvent := setSummaryEvent(env.Tx, EventListingCancelled, auctionSummary(settlement.Auction)); errEvent != nil {
			return nil, errEvent
		}
		auctionLog().Infow("auction cancelled", "id", auctionID)
		return settlement, nil
	})
}

// ClaimAuctionRevenue pays the top bid out to the fee treasury and the revenue
// recipients once the auction ended
func (s *SmartContract) ClaimAuctionRevenue(ctx contractapi.TransactionContextInterface, auctionID uint64) (string, error) {
	return submit(ctx, "ClaimAuctionRevenue", func(env *listing.Env) (interface{}, error) {
		settlement, err := auction.ClaimRevenue(env, auctionID)
		if err != nil {
			return nil, err
		}
		summary := auctionSummary(settlement.Auction)
		summary.Distribution = settlement.Distribution
		if errEvent := setSummaryEvent(env.Tx, EventAuctionSettled, summary); errEvent != nil {
			return nil, errEvent
		}
		auctionLog().Infow("auction revenue distributed", "id", auctionID, "hammerPrice", settlement.Distribution.Total,
			"fee", settlement.Distribution.Fee, "remainder", settlement.Distribution.Remainder)
		return settlement, nil
	})
}

/**************** AUCTION BIDDER METHODS ****************/

// PlaceBid raises the submitting client's bid
func (s *SmartContract) PlaceBid(ctx contractapi.TransactionContextInterface, bidJSON string) (string, error) {
	var in auction.BidInput
	if err := decodeInput("bid", bidJSON, &in); err != nil {
		return "", err
	}
	return submit(ctx, "PlaceBid", func(env *listing.Env) (interface{}, error) {
		result, err := auction.PlaceBid(env, &in)
		if err != nil {
			return nil, err
		}
		auctionLog().Debugw("bid placed", "id", in.AuctionID, "bidder", env.Caller, "accepted", result.Accepted, "extended", result.Extended)
		return result, nil
	})
}

// CancelBid refunds the submitting client's bid unless it is the top bid
func (s *SmartContract) CancelBid(ctx contractapi.TransactionContextInterface, auctionID uint64) (string, error) {
	return submit(ctx, "CancelBid", func(env *listing.Env) (interface{}, error) {
		return auction.CancelBid(env, auctionID)
	})
}

// ClaimLotNft hands the asset to the top bidder once the auction ended
func (s *SmartContract) ClaimLotNft(ctx contractapi.TransactionContextInterface, auctionID uint64) (string, error) {
	return submit(ctx, "ClaimLotNft", func(env *listing.Env) (interface{}, error) {
		settlement, err := auction.ClaimLotNft(env, auctionID)
		if err != nil {
			return nil, err
		}
		if errEvent := setSummaryEvent(env.Tx, EventAuctionSettled, auctionSummary(settlement.Auction)); errEvent != nil {
			return nil, errEvent
		}
		auctionLog().Infow("auction lot claimed", "id", auctionID, "winner", settlement.Recipient, "hammerPrice", settlement.Auction.TopBid)
		return settlement, nil
	})
}

/**************** AUCTION QUERIES ****************/

// GetAuction returns the auction record
func (s *SmartContract) GetAuction(ctx contractapi.TransactionContextInterface, auctionID uint64) (string, error) {
	return run(ctx, "GetAuction", func(tx *ledger.Tx, caller string) (interface{}, error) {
		return auction.Get(tx, auctionID)
	})
}

// GetBid returns the standing bid of bidder
func (s *SmartContract) GetBid(ctx contractapi.TransactionContextInterface, auctionID uint64, bidder string) (string, error) {
	return run(ctx, "GetBid", func(tx *ledger.Tx, caller string) (interface{}, error) {
		return auction.GetBid(tx, auctionID, bidder)
	})
}

// ListBids returns the bids of the auction in bidding order
func (s *SmartContract) ListBids(ctx contractapi.TransactionContextInterface, auctionID uint64) (string, error) {
	return run(ctx, "ListBids", func(tx *ledger.Tx, caller string) (interface{}, error) {
		return auction.ListBids(tx, auctionID)
	})
}
