/*
SPDX-License-Identifier: Apache-2.0
*/

package auction

import (
	"fmt"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/eligibility"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/ledger"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/listing"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/pageindex"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/protocol"
)

// BidInput is one bid submission. The accepted bid is the larger of Amount
// and the minimum outbid amount, capped at MaxAllowed.
type BidInput struct {
	AuctionID   uint64             `json:"auctionId"`
	Amount      uint64             `json:"amount"`
	MaxAllowed  uint64             `json:"maxAllowed"`
	PageHint    *uint64            `json:"pageHint,omitempty"`
	Eligibility *eligibility.Input `json:"eligibility,omitempty"`
}

// BidResult reports an accepted bid.
type BidResult struct {
	Auction  *Auction `json:"auction"`
	Bid      *Bid     `json:"bid"`
	Accepted uint64   `json:"accepted"`
	Extended bool     `json:"extended"`
}

func (a *Auction) checkBiddable(now int64) error {
	switch a.Status {
	case listing.Cancelled:
		return protocol.ErrAuctionCancelled
	case listing.Finished:
		return protocol.ErrBidOnEndedAuction
	}
	if a.IsEnded(now) {
		return protocol.ErrBidOnEndedAuction
	}
	return nil
}

// acceptedBid applies the outbid rule to a submission.
func (a *Auction) acceptedBid(amount, maxAllowed uint64) (uint64, error) {
	if amount == 0 || amount > maxAllowed {
		return 0, protocol.ErrInvalidBidAmount
	}
	if amount < a.StartBid {
		return 0, protocol.ErrNotMetStartBid
	}
	if a.TopBid == 0 {
		return amount, nil
	}
	minNext := a.MinNextBid()
	if maxAllowed <= a.TopBid || maxAllowed < minNext {
		return 0, protocol.ErrNotMetMinOutbidRate
	}
	if amount >= minNext {
		return amount, nil
	}
	return minNext, nil
}

// PlaceBid places or raises the caller's bid.
func PlaceBid(env *listing.Env, in *BidInput) (*BidResult, error) {
	tx := env.Tx
	a, err := Get(tx, in.AuctionID)
	if err != nil {
		return nil, err
	}
	if errState := a.checkBiddable(env.Now); errState != nil {
		return nil, errState
	}
	if env.Caller == a.Creator {
		return nil, protocol.ErrAuctionCreatorCannotMakeBid
	}
	accepted, err := a.acceptedBid(in.Amount, in.MaxAllowed)
	if err != nil {
		return nil, err
	}
	if errEligible := eligibility.Check(tx, a.EligibleGroups, env.Caller, in.Eligibility); errEligible != nil {
		return nil, errEligible
	}

	b, found, err := FindBid(tx, a.ID, env.Caller)
	if err != nil {
		return nil, err
	}
	if !found {
		b = &Bid{AuctionID: a.ID, Bidder: env.Caller}
	}
	delta := accepted - b.Amount

	wallet := ledger.WalletAddress(env.Caller, a.CurrencyMint)
	funds, err := env.Balance(env.Caller, a.CurrencyMint)
	if err != nil {
		return nil, err
	}
	if funds < delta {
		return nil, protocol.ErrInsufficientBidFunds
	}

	escrow := BidEscrowAddress(a.ID, env.Caller)
	if b.Amount == 0 {
		// first bid, or a new bid after the previous one was cancelled
		if _, errOpen := tx.OpenAccount(escrow, a.CurrencyMint, Address(a.ID), env.Caller); errOpen != nil {
			return nil, errOpen
		}
	}
	if errEscrow := tx.Transfer(wallet, escrow, delta); errEscrow != nil {
		return nil, fmt.Errorf("could not escrow bid: %w", errEscrow)
	}

	if !b.Initialized {
		ix, errIndex := pageindex.Open(tx, bidIndexPath(a.ID)...)
		if errIndex != nil {
			return nil, errIndex
		}
		if _, _, errAppend := ix.Append(in.PageHint, env.Caller); errAppend != nil {
			return nil, errAppend
		}
		b.Initialized = true
		a.TotalBids++
	}
	b.Amount = accepted
	b.LastChangedAt = env.Now
	if errPut := putBid(tx, b); errPut != nil {
		return nil, errPut
	}

	a.TopBid = accepted
	a.TopBidder = env.Caller
	extended := a.extendIfNeeded(env)
	if errPut := putAuction(tx, a); errPut != nil {
		return nil, errPut
	}
	return &BidResult{Auction: a, Bid: b, Accepted: accepted, Extended: extended}, nil
}

func (a *Auction) extendIfNeeded(env *listing.Env) bool {
	window := int64(env.Config.LastMinutesForAuctionExtend) * 60
	if env.Now < a.ExpiresAt-window {
		return false
	}
	a.ExpiresAt = env.Now + int64(env.Config.AuctionExtendMinutes)*60
	return true
}

// CancelBid refunds a bid that is not the top bid and closes its escrow.
func CancelBid(env *listing.Env, auctionID uint64) (*Bid, error) {
	tx := env.Tx
	a, err := Get(tx, auctionID)
	if err != nil {
		return nil, err
	}
	b, found, err := FindBid(tx, a.ID, env.Caller)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, protocol.ErrNotTheBidder
	}
	if a.TopBidder == env.Caller {
		return nil, protocol.ErrTopBidderCannotCancelBid
	}
	if b.Amount == 0 {
		return nil, fmt.Errorf("bid of %s on auction %d: %w", env.Caller, a.ID, protocol.ErrBidNotFound)
	}

	escrow := BidEscrowAddress(a.ID, env.Caller)
	if errRefund := tx.Transfer(escrow, ledger.WalletAddress(env.Caller, a.CurrencyMint), b.Amount); errRefund != nil {
		return nil, fmt.Errorf("could not refund bid: %w", errRefund)
	}
	if _, errClose := tx.CloseAccount(escrow); errClose != nil {
		return nil, errClose
	}

	b.Amount = 0
	b.LastChangedAt = env.Now
	if errPut := putBid(tx, b); errPut != nil {
		return nil, errPut
	}
	if a.IsEnded(env.Now) && a.Status == listing.InProgress {
		a.Status = listing.Finished
		if errPut := putAuction(tx, a); errPut != nil {
			return nil, errPut
		}
	}
	return b, nil
}
