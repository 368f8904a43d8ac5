/*
SPDX-License-Identifier: Apache-2.0
*/

// Package auction implements the ascending-price listing: creation, bidding
// with auto-extension and settlement through escrow accounts.
package auction

import (
	"fmt"
	"math"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/eligibility"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/ledger"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/listing"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/pageindex"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/protocol"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/revenue"
)

const (
	auctionObjectType = "auction"
	bidObjectType     = "auction_bid"
)

// Auction is the record of one ascending-price listing.
type Auction struct {
	ID               uint64                    `json:"id"`
	Creator          string                    `json:"creator"`
	NftMint          string                    `json:"nftMint"`
	CurrencyMint     string                    `json:"currencyMint"`
	CreatedAt        int64                     `json:"createdAt"`
	ExpiresAt        int64                     `json:"expiresAt"`
	StartBid         uint64                    `json:"startBid"`
	MinOutbidRateBps uint16                    `json:"minOutbidRateBps"`
	Status           listing.Status            `json:"status"`
	TotalBids        uint64                    `json:"totalBids"`
	TopBid           uint64                    `json:"topBid"`
	TopBidder        string                    `json:"topBidder,omitempty"`
	EligibleGroups   []eligibility.GroupConfig `json:"eligibleGroups"`
	RevenueShares    []revenue.Share           `json:"revenueShares"`
}

// Bid is the standing bid of one bidder. Amount is zero once the escrow has
// been released.
type Bid struct {
	AuctionID     uint64 `json:"auctionId"`
	Bidder        string `json:"bidder"`
	Initialized   bool   `json:"initialized"`
	Amount        uint64 `json:"amount"`
	LastChangedAt int64  `json:"lastChangedAt"`
}

// CreateInput describes a new auction.
type CreateInput struct {
	ID             uint64                    `json:"id"`
	NftMint        string                    `json:"nftMint"`
	CurrencyMint   string                    `json:"currencyMint"`
	Duration       uint64                    `json:"duration"`
	StartBid       uint64                    `json:"startBid"`
	EligibleGroups []eligibility.GroupConfig `json:"eligibleGroups"`
	RevenueShares  []revenue.Share           `json:"revenueShares"`
}

// Address is the derived address of auction id.
func Address(id uint64) string {
	return ledger.DeriveAddress("auction", listing.ID(id))
}

// LotEscrowAddress holds the listed asset until settlement.
func LotEscrowAddress(id uint64) string {
	return ledger.DeriveAddress("auction", listing.ID(id), "lot_escrow")
}

// BidEscrowAddress holds the currency backing bidder's bid.
func BidEscrowAddress(id uint64, bidder string) string {
	return ledger.DeriveAddress("auction", listing.ID(id), "bid", bidder, "escrow")
}

func bidIndexPath(id uint64) []string {
	return []string{"auction", listing.ID(id), "bid_index"}
}

func auctionKey(tx *ledger.Tx, id uint64) (string, error) {
	return tx.Key(auctionObjectType, listing.ID(id))
}

func bidKey(tx *ledger.Tx, id uint64, bidder string) (string, error) {
	return tx.Key(bidObjectType, listing.ID(id), bidder)
}

// Get loads auction id.
func Get(tx *ledger.Tx, id uint64) (*Auction, error) {
	key, err := auctionKey(tx, id)
	if err != nil {
		return nil, err
	}
	var a Auction
	found, err := tx.Get(key, &a)
	if err != nil {
		return nil, fmt.Errorf("could not get auction %d: %w", id, err)
	}
	if !found {
		return nil, fmt.Errorf("auction %d: %w", id, protocol.ErrAuctionNotFound)
	}
	return &a, nil
}

func putAuction(tx *ledger.Tx, a *Auction) error {
	key, err := auctionKey(tx, a.ID)
	if err != nil {
		return err
	}
	return tx.Put(key, a)
}

// FindBid loads bidder's bid on auction id and reports whether it exists.
func FindBid(tx *ledger.Tx, id uint64, bidder string) (*Bid, bool, error) {
	key, err := bidKey(tx, id, bidder)
	if err != nil {
		return nil, false, err
	}
	var b Bid
	found, err := tx.Get(key, &b)
	if err != nil {
		return nil, false, fmt.Errorf("could not get bid of %s on auction %d: %w", bidder, id, err)
	}
	if !found {
		return nil, false, nil
	}
	return &b, true, nil
}

// GetBid loads bidder's bid on auction id.
func GetBid(tx *ledger.Tx, id uint64, bidder string) (*Bid, error) {
	b, found, err := FindBid(tx, id, bidder)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("bid of %s on auction %d: %w", bidder, id, protocol.ErrBidNotFound)
	}
	return b, nil
}

func putBid(tx *ledger.Tx, b *Bid) error {
	key, err := bidKey(tx, b.AuctionID, b.Bidder)
	if err != nil {
		return err
	}
	return tx.Put(key, b)
}

// ListBids returns the bids of auction id in first-bid order.
func ListBids(tx *ledger.Tx, id uint64) ([]*Bid, error) {
	if _, err := Get(tx, id); err != nil {
		return nil, err
	}
	ix, err := pageindex.Open(tx, bidIndexPath(id)...)
	if err != nil {
		return nil, err
	}
	bids := []*Bid{}
	it := ix.Iterator()
	for it.HasNext() {
		_, bidder, err := it.Next()
		if err != nil {
			return nil, err
		}
		b, err := GetBid(tx, id, bidder)
		if err != nil {
			return nil, err
		}
		bids = append(bids, b)
	}
	return bids, nil
}

// IsEnded reports whether bidding has closed at now.
func (a *Auction) IsEnded(now int64) bool {
	return now >= a.ExpiresAt
}

// MinNextBid is the lowest bid that outbids the current top bid.
func (a *Auction) MinNextBid() uint64 {
	if a.TopBid == 0 {
		return 0
	}
	increment := a.TopBid / 10000 * uint64(a.MinOutbidRateBps)
	increment += a.TopBid % 10000 * uint64(a.MinOutbidRateBps) / 10000
	if increment == 0 {
		// a tiny top bid must still strictly increase
		increment = 1
	}
	if increment > math.MaxUint64-a.TopBid {
		return math.MaxUint64
	}
	return a.TopBid + increment
}

// Create validates in, escrows one unit of the asset and stores the auction.
func Create(env *listing.Env, in *CreateInput) (*Auction, error) {
	config := env.Config
	tx := env.Tx
	if !config.AuctionCreationEnabled {
		return nil, protocol.ErrAuctionCreationDisabled
	}
	if in.ID != config.TotalAuctions {
		return nil, fmt.Errorf("auction id %d, expected %d: %w", in.ID, config.TotalAuctions, protocol.ErrInvalidAuctionID)
	}
	if len(in.RevenueShares) > revenue.MaxRecipients {
		return nil, protocol.ErrInvalidRevenueRecipientNumber
	}
	if !config.AuctionDurationRange.Contains(in.Duration) {
		return nil, protocol.ErrInvalidAuctionDuration
	}
	if err := listing.CheckAssets(tx, in.NftMint, in.CurrencyMint); err != nil {
		return nil, err
	}
	if err := revenue.ValidateShares(in.RevenueShares); err != nil {
		return nil, err
	}
	if err := eligibility.ValidateGroups(in.EligibleGroups); err != nil {
		return nil, err
	}
	held, err := env.Balance(env.Caller, in.NftMint)
	if err != nil {
		return nil, err
	}
	if held == 0 {
		return nil, protocol.ErrInvalidNftMint
	}

	a := &Auction{
		ID:               in.ID,
		Creator:          env.Caller,
		NftMint:          in.NftMint,
		CurrencyMint:     in.CurrencyMint,
		CreatedAt:        env.Now,
		ExpiresAt:        env.Now + int64(in.Duration),
		StartBid:         in.StartBid,
		MinOutbidRateBps: config.MinOutbidRateBps,
		Status:           listing.InProgress,
		EligibleGroups:   in.EligibleGroups,
		RevenueShares:    in.RevenueShares,
	}
	if a.EligibleGroups == nil {
		a.EligibleGroups = []eligibility.GroupConfig{}
	}

	escrow := LotEscrowAddress(a.ID)
	if _, errOpen := tx.OpenAccount(escrow, a.NftMint, Address(a.ID), a.Creator); errOpen != nil {
		return nil, errOpen
	}
	if errDeposit := tx.Transfer(ledger.WalletAddress(a.Creator, a.NftMint), escrow, 1); errDeposit != nil {
		return nil, fmt.Errorf("could not escrow lot: %w", errDeposit)
	}
	if _, errIndex := pageindex.Create(tx, config.IndexPageSize, bidIndexPath(a.ID)...); errIndex != nil {
		return nil, errIndex
	}
	if errPut := putAuction(tx, a); errPut != nil {
		return nil, errPut
	}
	config.TotalAuctions++
	if errSave := env.SaveConfig(); errSave != nil {
		return nil, errSave
	}
	return a, nil
}
