/*
SPDX-License-Identifier: Apache-2.0
*/

package listings

import (
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"go.uber.org/zap"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/ledger"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/listing"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/logging"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/raffle"
)

func raffleLog() *zap.SugaredLogger {
	return logging.GetLogger(logging.ModuleRaffle)
}

func raffleSummary(r *raffle.Raffle) *ListingSummary {
	return &ListingSummary{
		Kind:      KindRaffle,
		ID:        r.ID,
		Creator:   r.Creator,
		Status:    r.Status,
		WinnerIDs: r.WinnerIDs,
	}
}

/**************** RAFFLE CREATOR METHODS ****************/

// CreateRaffle creates a new raffle and escrows the raffled assets
func (s *SmartContract) CreateRaffle(ctx contractapi.TransactionContextInterface, raffleJSON string) (string, error) {
	var in raffle.CreateInput
	if err := decodeInput("raffle", raffleJSON, &in); err != nil {
		return "", err
	}
	return submit(ctx, "CreateRaffle", func(env *listing.Env) (interface{}, error) {
		r, err := raffle.Create(env, &in)
		if err != nil {
			return nil, err
		}
		raffleLog().Infow("raffle created", "id", r.ID, "creator", r.Creator, "asset", r.NftMint,
			"rewards", r.NumRaffledNfts, "supply", r.TicketSupply, "expiresAt", r.ExpiresAt)
		return r, nil
	})
}

// CancelRaffle returns the assets of a raffle without ticket sales
func (s *SmartContract) CancelRaffle(ctx contractapi.TransactionContextInterface, raffleID uint64) (string, error) {
	return submit(ctx, "CancelRaffle", func(env *listing.Env) (interface{}, error) {
		settlement, err := raffle.Cancel(env, raffleID)
		if err != nil {
			return nil, err
		}
		if errEvent := setSummaryEvent(env.Tx, EventListingCancelled, raffleSummary(settlement.Raffle)); errEvent != nil {
			return nil, errEvent
		}
		raffleLog().Infow("raffle cancelled", "id", raffleID)
		return settlement, nil
	})
}

// ClaimRemainingRaffleRewards returns the assets no winner covers to the creator
func (s *SmartContract) ClaimRemainingRaffleRewards(ctx contractapi.TransactionContextInterface, raffleID uint64) (string, error) {
	return submit(ctx, "ClaimRemainingRaffleRewards", func(env *listing.Env) (interface{}, error) {
		return raffle.ClaimRemaining(env, raffleID)
	})
}

// ClaimRaffleRevenue pays the ticket revenue out to the fee treasury and the
// revenue recipients once the winners are drawn
func (s *SmartContract) ClaimRaffleRevenue(ctx contractapi.TransactionContextInterface, raffleID uint64) (string, error) {
	return submit(ctx, "ClaimRaffleRevenue", func(env *listing.Env) (interface{}, error) {
		settlement, err := raffle.ClaimRevenue(env, raffleID)
		if err != nil {
			return nil, err
		}
		raffleLog().Infow("raffle revenue distributed", "id", raffleID, "total", settlement.Distribution.Total,
			"fee", settlement.Distribution.Fee, "remainder", settlement.Distribution.Remainder)
		return settlement, nil
	})
}

/**************** RAFFLE AUTHORITY METHODS ****************/

// MakeRaffle draws the winners of an ended raffle. rerun replaces an
// unclaimed draw in test mode.
func (s *SmartContract) MakeRaffle(ctx contractapi.TransactionContextInterface, raffleID uint64, rerun bool) (string, error) {
	return submit(ctx, "MakeRaffle", func(env *listing.Env) (interface{}, error) {
		r, err := raffle.MakeRaffle(env, raffleID, rerun)
		if err != nil {
			return nil, err
		}
		if errEvent := setSummaryEvent(env.Tx, EventRaffleMade, raffleSummary(r)); errEvent != nil {
			return nil, errEvent
		}
		raffleLog().Infow("raffle winners drawn", "id", r.ID, "winners", r.WinnerIDs, "rerun", rerun)
		return r, nil
	})
}

// SetRaffleWinners fixes the winning ticket positions (test mode only)
func (s *SmartContract) SetRaffleWinners(ctx contractapi.TransactionContextInterface, raffleID uint64, winnerIDsJSON string) (string, error) {
	var winnerIDs []uint64
	if err := decodeInput("winner ids", winnerIDsJSON, &winnerIDs); err != nil {
		return "", err
	}
	return submit(ctx, "SetRaffleWinners", func(env *listing.Env) (interface{}, error) {
		r, err := raffle.SetWinners(env, raffleID, winnerIDs)
		if err != nil {
			return nil, err
		}
		if errEvent := setSummaryEvent(env.Tx, EventRaffleMade, raffleSummary(r)); errEvent != nil {
			return nil, errEvent
		}
		return r, nil
	})
}

/**************** RAFFLE PARTICIPANT METHODS ****************/

// BuyTickets buys raffle tickets for the submitting client
func (s *SmartContract) BuyTickets(ctx contractapi.TransactionContextInterface, purchaseJSON string) (string, error) {
	var in raffle.BuyInput
	if err := decodeInput("ticket purchase", purchaseJSON, &in); err != nil {
		return "", err
	}
	return submit(ctx, "BuyTickets", func(env *listing.Env) (interface{}, error) {
		result, err := raffle.BuyTickets(env, &in)
		if err != nil {
			return nil, err
		}
		raffleLog().Debugw("tickets bought", "id", in.RaffleID, "buyer", env.Caller, "tickets", in.NumTickets, "cost", result.Cost)
		return result, nil
	})
}

// ClaimRaffleReward hands one raffled asset to a winner
func (s *SmartContract) ClaimRaffleReward(ctx contractapi.TransactionContextInterface, raffleID uint64) (string, error) {
	return submit(ctx, "ClaimRaffleReward", func(env *listing.Env) (interface{}, error) {
		settlement, err := raffle.ClaimReward(env, raffleID)
		if err != nil {
			return nil, err
		}
		raffleLog().Infow("raffle reward claimed", "id", raffleID, "winner", env.Caller, "claimMask", settlement.Raffle.ClaimMask)
		return settlement, nil
	})
}

/**************** RAFFLE QUERIES ****************/

// GetRaffle returns the raffle record
func (s *SmartContract) GetRaffle(ctx contractapi.TransactionContextInterface, raffleID uint64) (string, error) {
	return run(ctx, "GetRaffle", func(tx *ledger.Tx, caller string) (interface{}, error) {
		return raffle.Get(tx, raffleID)
	})
}

// GetTicketPosition returns the tickets buyer holds in the raffle
func (s *SmartContract) GetTicketPosition(ctx contractapi.TransactionContextInterface, raffleID uint64, buyer string) (string, error) {
	return run(ctx, "GetTicketPosition", func(tx *ledger.Tx, caller string) (interface{}, error) {
		return raffle.GetTicketPosition(tx, raffleID, buyer)
	})
}

// ListTicketPositions returns the ticket positions in purchase order
func (s *SmartContract) ListTicketPositions(ctx contractapi.TransactionContextInterface, raffleID uint64) (string, error) {
	return run(ctx, "ListTicketPositions", func(tx *ledger.Tx, caller string) (interface{}, error) {
		return raffle.ListTicketPositions(tx, raffleID)
	})
}
