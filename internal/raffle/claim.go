/*
SPDX-License-Identifier: Apache-2.0
*/

package raffle

import (
	"fmt"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/ledger"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/listing"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/protocol"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/revenue"
)

// Settlement reports a transition that moved funds out of a raffle escrow.
type Settlement struct {
	Raffle       *Raffle               `json:"raffle"`
	Recipient    string                `json:"recipient,omitempty"`
	Amount       uint64                `json:"amount,omitempty"`
	Distribution *revenue.Distribution `json:"distribution,omitempty"`
	Refund       string                `json:"refund,omitempty"` // set when an escrow was closed
}

// closeIfEmpty closes the rewards escrow once its balance reaches zero.
func closeIfEmpty(env *listing.Env, r *Raffle) (string, error) {
	escrow, err := env.Tx.Account(RewardsEscrowAddress(r.ID))
	if err != nil {
		return "", err
	}
	if escrow.Amount != 0 {
		return "", nil
	}
	return env.Tx.CloseAccount(escrow.Address)
}

// Cancel returns the raffled assets of a raffle that sold no tickets.
func Cancel(env *listing.Env, raffleID uint64) (*Settlement, error) {
	tx := env.Tx
	r, err := Get(tx, raffleID)
	if err != nil {
		return nil, err
	}
	if env.Caller != r.Creator {
		return nil, protocol.ErrNotRaffleCreator
	}
	if r.Status == listing.Cancelled {
		return nil, protocol.ErrRaffleCancelled
	}
	if r.TicketsSold != 0 || r.IsMade() {
		return nil, protocol.ErrRaffleNotCancelable
	}
	rewards, err := tx.Account(RewardsEscrowAddress(r.ID))
	if err != nil {
		return nil, err
	}
	amount := rewards.Amount
	if errTransfer := tx.Transfer(rewards.Address, r.creatorWallet(), amount); errTransfer != nil {
		return nil, fmt.Errorf("could not return rewards: %w", errTransfer)
	}
	refund, err := tx.CloseAccount(rewards.Address)
	if err != nil {
		return nil, err
	}
	if _, errClose := tx.CloseAccount(RevenueEscrowAddress(r.ID)); errClose != nil {
		return nil, errClose
	}
	r.Status = listing.Cancelled
	if errPut := putRaffle(tx, r); errPut != nil {
		return nil, errPut
	}
	return &Settlement{Raffle: r, Recipient: r.Creator, Amount: amount, Refund: refund}, nil
}

// ClaimReward hands one raffled asset to a winner.
func ClaimReward(env *listing.Env, raffleID uint64) (*Settlement, error) {
	tx := env.Tx
	r, err := Get(tx, raffleID)
	if err != nil {
		return nil, err
	}
	if !r.IsMade() {
		return nil, protocol.ErrRaffleNotMade
	}
	p, found, err := FindTicketPosition(tx, r.ID, env.Caller)
	if err != nil {
		return nil, err
	}
	slot := -1
	if found {
		for i, id := range r.WinnerIDs {
			if id == p.ID {
				slot = i
				break
			}
		}
	}
	if slot < 0 {
		return nil, protocol.ErrNotARaffleWinner
	}
	bit := uint64(1) << uint(slot)
	if r.ClaimMask&bit != 0 {
		return nil, protocol.ErrRaffleRewardClaimed
	}

	wallet, err := env.OpenWallet(env.Caller, r.NftMint)
	if err != nil {
		return nil, err
	}
	if errTransfer := tx.Transfer(RewardsEscrowAddress(r.ID), wallet.Address, 1); errTransfer != nil {
		return nil, fmt.Errorf("could not release reward: %w", errTransfer)
	}
	refund, err := closeIfEmpty(env, r)
	if err != nil {
		return nil, err
	}
	r.ClaimMask |= bit
	if errPut := putRaffle(tx, r); errPut != nil {
		return nil, errPut
	}
	return &Settlement{Raffle: r, Recipient: env.Caller, Amount: 1, Refund: refund}, nil
}

// ClaimRemaining returns the raffled assets no winner slot covers to the
// creator.
func ClaimRemaining(env *listing.Env, raffleID uint64) (*Settlement, error) {
	tx := env.Tx
	r, err := Get(tx, raffleID)
	if err != nil {
		return nil, err
	}
	if env.Caller != r.Creator {
		return nil, protocol.ErrNotRaffleCreator
	}
	if !r.IsMade() {
		return nil, protocol.ErrRaffleNotMade
	}
	amount := r.RemainingRewards()
	if amount == 0 || r.RemainingClaimed {
		return nil, protocol.ErrNoRemainingRaffleRewards
	}
	if errTransfer := tx.Transfer(RewardsEscrowAddress(r.ID), r.creatorWallet(), amount); errTransfer != nil {
		return nil, fmt.Errorf("could not return remaining rewards: %w", errTransfer)
	}
	refund, err := closeIfEmpty(env, r)
	if err != nil {
		return nil, err
	}
	r.RemainingClaimed = true
	if errPut := putRaffle(tx, r); errPut != nil {
		return nil, errPut
	}
	return &Settlement{Raffle: r, Recipient: r.Creator, Amount: amount, Refund: refund}, nil
}

// ClaimRevenue splits the ticket revenue between the treasury and the
// creator's recipients and closes the revenue escrow.
func ClaimRevenue(env *listing.Env, raffleID uint64) (*Settlement, error) {
	tx := env.Tx
	r, err := Get(tx, raffleID)
	if err != nil {
		return nil, err
	}
	if env.Caller != r.Creator {
		return nil, protocol.ErrNotRaffleCreator
	}
	if !r.IsMade() {
		return nil, protocol.ErrRaffleNotMade
	}
	dist, refund, err := revenue.Distribute(tx, RevenueEscrowAddress(r.ID), env.Config.MarketFeeRateBps, env.Config.FeeTreasuryAddress, r.RevenueShares)
	if err != nil {
		return nil, err
	}
	return &Settlement{Raffle: r, Distribution: dist, Refund: refund}, nil
}

func (r *Raffle) creatorWallet() string {
	return ledger.WalletAddress(r.Creator, r.NftMint)
}
