/*
SPDX-License-Identifier: Apache-2.0
*/

package auction

import (
	"fmt"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/ledger"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/listing"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/protocol"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/revenue"
)

// Settlement reports a transition that released an escrow.
type Settlement struct {
	Auction      *Auction              `json:"auction"`
	Recipient    string                `json:"recipient,omitempty"`
	Distribution *revenue.Distribution `json:"distribution,omitempty"`
	Refund       string                `json:"refund"` // receives the closed escrow's deposit
}

// releaseLot moves the escrowed asset to owner and closes the lot escrow.
func releaseLot(tx *ledger.Tx, a *Auction, owner string) (string, error) {
	escrow := LotEscrowAddress(a.ID)
	wallet, err := tx.OpenWallet(owner, a.NftMint)
	if err != nil {
		return "", err
	}
	if errTransfer := tx.Transfer(escrow, wallet.Address, 1); errTransfer != nil {
		return "", fmt.Errorf("could not release lot: %w", errTransfer)
	}
	return tx.CloseAccount(escrow)
}

// Cancel returns the asset of an auction nobody has bid on to its creator.
func Cancel(env *listing.Env, auctionID uint64) (*Settlement, error) {
	a, err := Get(env.Tx, auctionID)
	if err != nil {
		return nil, err
	}
	if env.Caller != a.Creator {
		return nil, protocol.ErrNotAuctionCreator
	}
	if a.Status == listing.Cancelled {
		return nil, protocol.ErrAuctionCancelled
	}
	if a.TotalBids != 0 {
		return nil, protocol.ErrAuctionNotCancelable
	}
	refund, err := releaseLot(env.Tx, a, a.Creator)
	if err != nil {
		return nil, err
	}
	a.Status = listing.Cancelled
	if errPut := putAuction(env.Tx, a); errPut != nil {
		return nil, errPut
	}
	return &Settlement{Auction: a, Recipient: a.Creator, Refund: refund}, nil
}

// ClaimLotNft hands the asset to the winning bidder once the auction ended.
func ClaimLotNft(env *listing.Env, auctionID uint64) (*Settlement, error) {
	a, err := Get(env.Tx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.Status == listing.Cancelled {
		return nil, protocol.ErrAuctionCancelled
	}
	if !a.IsEnded(env.Now) {
		return nil, protocol.ErrOngoingAuction
	}
	if a.TopBidder == "" || env.Caller != a.TopBidder {
		return nil, protocol.ErrIneligibleToClaimLotNft
	}
	refund, err := releaseLot(env.Tx, a, a.TopBidder)
	if err != nil {
		return nil, err
	}
	a.Status = listing.Finished
	if errPut := putAuction(env.Tx, a); errPut != nil {
		return nil, errPut
	}
	return &Settlement{Auction: a, Recipient: a.TopBidder, Refund: refund}, nil
}

// ClaimRevenue distributes the winning bid once the auction ended.
func ClaimRevenue(env *listing.Env, auctionID uint64) (*Settlement, error) {
	tx := env.Tx
	a, err := Get(tx, auctionID)
	if err != nil {
		return nil, err
	}
	if env.Caller != a.Creator {
		return nil, protocol.ErrNotAuctionCreator
	}
	if a.Status == listing.Cancelled {
		return nil, protocol.ErrAuctionCancelled
	}
	if !a.IsEnded(env.Now) {
		return nil, protocol.ErrOngoingAuction
	}
	if a.TopBidder == "" {
		return nil, protocol.ErrIneligibleToClaimRevenue
	}
	top, err := GetBid(tx, a.ID, a.TopBidder)
	if err != nil {
		return nil, err
	}

	d, refund, err := revenue.Distribute(tx, BidEscrowAddress(a.ID, a.TopBidder), env.Config.MarketFeeRateBps,
		env.Config.FeeTreasuryAddress, a.RevenueShares)
	if err != nil {
		return nil, err
	}
	top.Amount = 0
	top.LastChangedAt = env.Now
	if errPut := putBid(tx, top); errPut != nil {
		return nil, errPut
	}
	a.Status = listing.Finished
	if errPut := putAuction(tx, a); errPut != nil {
		return nil, errPut
	}
	return &Settlement{Auction: a, Distribution: d, Refund: refund}, nil
}
