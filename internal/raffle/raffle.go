/*
SPDX-License-Identifier: Apache-2.0
*/

// Package raffle implements the fixed-price ticket lottery: creation, ticket
// sales, the winner draw and reward settlement.
package raffle

import (
	"fmt"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/eligibility"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/ledger"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/listing"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/pageindex"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/protocol"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/revenue"
)

const (
	raffleObjectType   = "raffle"
	positionObjectType = "raffle_ticket_position"
	statsObjectType    = "raffle_ticket_stats"
)

// Raffle is the record of one ticket lottery.
type Raffle struct {
	ID                 uint64                    `json:"id"`
	Creator            string                    `json:"creator"`
	NftMint            string                    `json:"nftMint"`
	CurrencyMint       string                    `json:"currencyMint"`
	CreatedAt          int64                     `json:"createdAt"`
	ExpiresAt          int64                     `json:"expiresAt"`
	TicketPrice        uint64                    `json:"ticketPrice"`
	TicketSupply       uint64                    `json:"ticketSupply"`
	TicketsSold        uint64                    `json:"ticketsSold"`
	NumRaffledNfts     uint8                     `json:"numRaffledNfts"`
	NumTicketPositions uint64                    `json:"numTicketPositions"`
	Status             listing.Status            `json:"status"`
	EligibleGroups     []eligibility.GroupConfig `json:"eligibleGroups"`
	RevenueShares      []revenue.Share           `json:"revenueShares"`
	WinnerIDs          []uint64                  `json:"winnerIds"`
	ClaimMask          uint64                    `json:"claimMask"` // bit i set once WinnerIDs[i] claimed
	RemainingClaimed   bool                      `json:"remainingClaimed"`
}

// TicketPosition holds all tickets one buyer bought. ID is the insertion
// index of the position in the raffle's ticket position index.
type TicketPosition struct {
	RaffleID        uint64 `json:"raffleId"`
	ID              uint64 `json:"id"`
	Buyer           string `json:"buyer"`
	TotalNumTickets uint64 `json:"totalNumTickets"`
	LastPurchaseAt  int64  `json:"lastPurchaseAt"`
}

// TicketPositionStats lists the ticket count of every position in insertion
// order.
type TicketPositionStats struct {
	TicketPositions []uint64 `json:"ticketPositions"`
}

// CreateInput describes a new raffle.
type CreateInput struct {
	ID             uint64                    `json:"id"`
	NftMint        string                    `json:"nftMint"`
	CurrencyMint   string                    `json:"currencyMint"`
	Duration       uint64                    `json:"duration"`
	TicketPrice    uint64                    `json:"ticketPrice"`
	TicketSupply   uint64                    `json:"ticketSupply"`
	NumRaffledNfts uint8                     `json:"numRaffledNfts"`
	EligibleGroups []eligibility.GroupConfig `json:"eligibleGroups"`
	RevenueShares  []revenue.Share           `json:"revenueShares"`
}

// Address is the derived address of raffle id.
func Address(id uint64) string {
	return ledger.DeriveAddress("raffle", listing.ID(id))
}

// RewardsEscrowAddress holds the raffled assets.
func RewardsEscrowAddress(id uint64) string {
	return ledger.DeriveAddress("raffle", listing.ID(id), "rewards_escrow")
}

// RevenueEscrowAddress collects the ticket payments.
func RevenueEscrowAddress(id uint64) string {
	return ledger.DeriveAddress("raffle", listing.ID(id), "revenue_escrow")
}

func positionIndexPath(id uint64) []string {
	return []string{"raffle", listing.ID(id), "ticket_position_index"}
}

func raffleKey(tx *ledger.Tx, id uint64) (string, error) {
	return tx.Key(raffleObjectType, listing.ID(id))
}

func positionKey(tx *ledger.Tx, id uint64, buyer string) (string, error) {
	return tx.Key(positionObjectType, listing.ID(id), buyer)
}

func statsKey(tx *ledger.Tx, id uint64) (string, error) {
	return tx.Key(statsObjectType, listing.ID(id))
}

// Get loads raffle id.
func Get(tx *ledger.Tx, id uint64) (*Raffle, error) {
	key, err := raffleKey(tx, id)
	if err != nil {
		return nil, err
	}
	var r Raffle
	found, err := tx.Get(key, &r)
	if err != nil {
		return nil, fmt.Errorf("could not get raffle %d: %w", id, err)
	}
	if !found {
		return nil, fmt.Errorf("raffle %d: %w", id, protocol.ErrRaffleNotFound)
	}
	return &r, nil
}

func putRaffle(tx *ledger.Tx, r *Raffle) error {
	key, err := raffleKey(tx, r.ID)
	if err != nil {
		return err
	}
	return tx.Put(key, r)
}

// FindTicketPosition loads buyer's position in raffle id and reports whether
// it exists.
func FindTicketPosition(tx *ledger.Tx, id uint64, buyer string) (*TicketPosition, bool, error) {
	key, err := positionKey(tx, id, buyer)
	if err != nil {
		return nil, false, err
	}
	var p TicketPosition
	found, err := tx.Get(key, &p)
	if err != nil {
		return nil, false, fmt.Errorf("could not get ticket position of %s in raffle %d: %w", buyer, id, err)
	}
	if !found {
		return nil, false, nil
	}
	return &p, true, nil
}

// GetTicketPosition loads buyer's position in raffle id.
func GetTicketPosition(tx *ledger.Tx, id uint64, buyer string) (*TicketPosition, error) {
	p, found, err := FindTicketPosition(tx, id, buyer)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("ticket position of %s in raffle %d: %w", buyer, id, protocol.ErrTicketPositionNotFound)
	}
	return p, nil
}

func putTicketPosition(tx *ledger.Tx, p *TicketPosition) error {
	key, err := positionKey(tx, p.RaffleID, p.Buyer)
	if err != nil {
		return err
	}
	return tx.Put(key, p)
}

// GetStats loads the ticket position stats of raffle id.
func GetStats(tx *ledger.Tx, id uint64) (*TicketPositionStats, error) {
	key, err := statsKey(tx, id)
	if err != nil {
		return nil, err
	}
	var stats TicketPositionStats
	found, err := tx.Get(key, &stats)
	if err != nil {
		return nil, fmt.Errorf("could not get ticket position stats of raffle %d: %w", id, err)
	}
	if !found {
		return nil, fmt.Errorf("raffle %d: %w", id, protocol.ErrRaffleNotFound)
	}
	return &stats, nil
}

func putStats(tx *ledger.Tx, id uint64, stats *TicketPositionStats) error {
	key, err := statsKey(tx, id)
	if err != nil {
		return err
	}
	return tx.Put(key, stats)
}

// ListTicketPositions returns the positions of raffle id in insertion order.
func ListTicketPositions(tx *ledger.Tx, id uint64) ([]*TicketPosition, error) {
	if _, err := Get(tx, id); err != nil {
		return nil, err
	}
	ix, err := pageindex.Open(tx, positionIndexPath(id)...)
	if err != nil {
		return nil, err
	}
	positions := []*TicketPosition{}
	it := ix.Iterator()
	for it.HasNext() {
		_, buyer, err := it.Next()
		if err != nil {
			return nil, err
		}
		p, err := GetTicketPosition(tx, id, buyer)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, nil
}

// IsEnded reports whether ticket sales have closed at now.
func (r *Raffle) IsEnded(now int64) bool {
	return now >= r.ExpiresAt
}

// IsMade reports whether the winners have been set.
func (r *Raffle) IsMade() bool {
	return r.Status == listing.Finished
}

// RemainingRewards is the number of raffled assets no winner slot covers.
func (r *Raffle) RemainingRewards() uint64 {
	return uint64(r.NumRaffledNfts) - uint64(len(r.WinnerIDs))
}

// Create validates in, escrows the raffled assets and stores the raffle.
func Create(env *listing.Env, in *CreateInput) (*Raffle, error) {
	config := env.Config
	tx := env.Tx
	if !config.RaffleCreationEnabled {
		return nil, protocol.ErrRaffleCreationDisabled
	}
	if in.ID != config.TotalRaffles {
		return nil, fmt.Errorf("raffle id %d, expected %d: %w", in.ID, config.TotalRaffles, protocol.ErrInvalidRaffleID)
	}
	if len(in.RevenueShares) > revenue.MaxRecipients {
		return nil, protocol.ErrInvalidRevenueRecipientNumber
	}
	if !config.RaffleDurationRange.Contains(in.Duration) {
		return nil, protocol.ErrInvalidRaffleDuration
	}
	if in.NumRaffledNfts == 0 || in.NumRaffledNfts > config.MaxRaffledNfts {
		return nil, protocol.ErrInvalidNumRaffledNfts
	}
	if !config.RaffleTicketSupplyRange.Contains(in.TicketSupply) {
		return nil, protocol.ErrInvalidRaffleTicketSupply
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
	if held < uint64(in.NumRaffledNfts) {
		return nil, protocol.ErrInvalidNftMint
	}

	r := &Raffle{
		ID:             in.ID,
		Creator:        env.Caller,
		NftMint:        in.NftMint,
		CurrencyMint:   in.CurrencyMint,
		CreatedAt:      env.Now,
		ExpiresAt:      env.Now + int64(in.Duration),
		TicketPrice:    in.TicketPrice,
		TicketSupply:   in.TicketSupply,
		NumRaffledNfts: in.NumRaffledNfts,
		Status:         listing.InProgress,
		EligibleGroups: in.EligibleGroups,
		RevenueShares:  in.RevenueShares,
		WinnerIDs:      []uint64{},
	}
	if r.EligibleGroups == nil {
		r.EligibleGroups = []eligibility.GroupConfig{}
	}

	owner := Address(r.ID)
	rewards := RewardsEscrowAddress(r.ID)
	if _, errOpen := tx.OpenAccount(rewards, r.NftMint, owner, r.Creator); errOpen != nil {
		return nil, errOpen
	}
	if _, errOpen := tx.OpenAccount(RevenueEscrowAddress(r.ID), r.CurrencyMint, owner, r.Creator); errOpen != nil {
		return nil, errOpen
	}
	if errDeposit := tx.Transfer(ledger.WalletAddress(r.Creator, r.NftMint), rewards, uint64(r.NumRaffledNfts)); errDeposit != nil {
		return nil, fmt.Errorf("could not escrow rewards: %w", errDeposit)
	}
	if _, errIndex := pageindex.Create(tx, config.IndexPageSize, positionIndexPath(r.ID)...); errIndex != nil {
		return nil, errIndex
	}
	if errStats := putStats(tx, r.ID, &TicketPositionStats{TicketPositions: []uint64{}}); errStats != nil {
		return nil, errStats
	}
	if errPut := putRaffle(tx, r); errPut != nil {
		return nil, errPut
	}
	config.TotalRaffles++
	if errSave := env.SaveConfig(); errSave != nil {
		return nil, errSave
	}
	return r, nil
}
