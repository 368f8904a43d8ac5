/*
SPDX-License-Identifier: Apache-2.0
*/

package raffle

import (
	"fmt"
	"math/bits"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/eligibility"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/ledger"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/listing"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/pageindex"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/protocol"
)

// BuyInput is one ticket purchase.
type BuyInput struct {
	RaffleID    uint64             `json:"raffleId"`
	NumTickets  uint64             `json:"numTickets"`
	PageHint    *uint64            `json:"pageHint,omitempty"`
	Eligibility *eligibility.Input `json:"eligibility,omitempty"`
}

// BuyResult reports a purchase.
type BuyResult struct {
	Raffle   *Raffle         `json:"raffle"`
	Position *TicketPosition `json:"position"`
	Cost     uint64          `json:"cost"`
}

// BuyTickets charges the caller for in.NumTickets tickets.
func BuyTickets(env *listing.Env, in *BuyInput) (*BuyResult, error) {
	tx := env.Tx
	r, err := Get(tx, in.RaffleID)
	if err != nil {
		return nil, err
	}
	if r.Status == listing.Cancelled {
		return nil, protocol.ErrRaffleCancelled
	}
	if r.IsEnded(env.Now) || r.IsMade() {
		return nil, protocol.ErrRaffleEnded
	}
	if env.Caller == r.Creator {
		return nil, protocol.ErrRaffleCreatorCannotBuyTickets
	}
	if in.NumTickets == 0 || in.NumTickets > r.TicketSupply-r.TicketsSold {
		return nil, protocol.ErrInvalidRaffleTicketNumber
	}
	hi, cost := bits.Mul64(in.NumTickets, r.TicketPrice)
	if hi != 0 {
		return nil, protocol.ErrAmountOverflow
	}
	if errEligible := eligibility.Check(tx, r.EligibleGroups, env.Caller, in.Eligibility); errEligible != nil {
		return nil, errEligible
	}

	wallet, found, err := tx.FindAccount(ledger.WalletAddress(env.Caller, r.CurrencyMint))
	if err != nil {
		return nil, err
	}
	if !found || wallet.Amount < cost {
		return nil, protocol.ErrInvalidTicketBuyerTokenAccount
	}
	if errPay := tx.Transfer(wallet.Address, RevenueEscrowAddress(r.ID), cost); errPay != nil {
		return nil, fmt.Errorf("could not pay for tickets: %w", errPay)
	}

	stats, err := GetStats(tx, r.ID)
	if err != nil {
		return nil, err
	}
	p, found, err := FindTicketPosition(tx, r.ID, env.Caller)
	if err != nil {
		return nil, err
	}
	if !found {
		ix, errIndex := pageindex.Open(tx, positionIndexPath(r.ID)...)
		if errIndex != nil {
			return nil, errIndex
		}
		if _, _, errAppend := ix.Append(in.PageHint, env.Caller); errAppend != nil {
			return nil, errAppend
		}
		p = &TicketPosition{RaffleID: r.ID, ID: r.NumTicketPositions, Buyer: env.Caller}
		stats.TicketPositions = append(stats.TicketPositions, 0)
		r.NumTicketPositions++
	}
	if p.ID >= uint64(len(stats.TicketPositions)) {
		return nil, fmt.Errorf("ticket position %d of raffle %d has no stats entry", p.ID, r.ID)
	}
	stats.TicketPositions[p.ID] += in.NumTickets
	p.TotalNumTickets += in.NumTickets
	p.LastPurchaseAt = env.Now
	r.TicketsSold += in.NumTickets

	if errPut := putTicketPosition(tx, p); errPut != nil {
		return nil, errPut
	}
	if errPut := putStats(tx, r.ID, stats); errPut != nil {
		return nil, errPut
	}
	if errPut := putRaffle(tx, r); errPut != nil {
		return nil, errPut
	}
	return &BuyResult{Raffle: r, Position: p, Cost: cost}, nil
}
