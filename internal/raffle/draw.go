/*
SPDX-License-Identifier: Apache-2.0
*/

package raffle

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strconv"

	"golang.org/x/crypto/sha3"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/listing"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/protocol"
)

// drawStream is a deterministic random stream. Every endorser derives the
// same stream for the same transaction.
type drawStream struct {
	shake sha3.ShakeHash
}

func newDrawStream(parts ...string) *drawStream {
	shake := sha3.NewShake256()
	for _, part := range parts {
		_, _ = fmt.Fprintf(shake, "%d:%s;", len(part), part)
	}
	return &drawStream{shake: shake}
}

func (s *drawStream) uint64() uint64 {
	var buf [8]byte
	_, _ = s.shake.Read(buf[:])
	return binary.BigEndian.Uint64(buf[:])
}

// intn returns a uniform value in [0, n). n must be positive.
func (s *drawStream) intn(n uint64) uint64 {
	limit := math.MaxUint64 - math.MaxUint64%n
	for {
		if v := s.uint64(); v < limit {
			return v % n
		}
	}
}

// drawWinners picks k distinct positions, each draw weighted by the tickets a
// remaining position holds. The result is sorted.
func drawWinners(s *drawStream, tickets []uint64, k int) []uint64 {
	var remaining uint64
	for _, n := range tickets {
		remaining += n
	}
	chosen := make([]bool, len(tickets))
	winners := make([]uint64, 0, k)
	for len(winners) < k && remaining > 0 {
		ticket := s.intn(remaining)
		var cumulative uint64
		for i, n := range tickets {
			if chosen[i] {
				continue
			}
			cumulative += n
			if cumulative > ticket {
				chosen[i] = true
				remaining -= n
				winners = append(winners, uint64(i))
				break
			}
		}
	}
	sort.Slice(winners, func(i, j int) bool { return winners[i] < winners[j] })
	return winners
}

// MakeRaffle draws the winners of an ended raffle. In test mode rerun replaces
// a previous draw as long as nothing was claimed from it.
func MakeRaffle(env *listing.Env, raffleID uint64, rerun bool) (*Raffle, error) {
	if err := env.Config.RequireAuthority(env.Caller); err != nil {
		return nil, err
	}
	r, err := Get(env.Tx, raffleID)
	if err != nil {
		return nil, err
	}
	if r.Status == listing.Cancelled {
		return nil, protocol.ErrRaffleCancelled
	}
	if !r.IsEnded(env.Now) {
		return nil, protocol.ErrRaffleOngoing
	}
	if rerun && !env.Config.TestMode {
		return nil, protocol.ErrNotTestEnvironment
	}
	if r.IsMade() && !rerun {
		return nil, protocol.ErrRaffleAlreadyMade
	}
	if r.TicketsSold == 0 {
		return nil, protocol.ErrNoTicketsSold
	}
	if r.IsMade() && (r.ClaimMask != 0 || r.RemainingClaimed) {
		return nil, protocol.ErrRaffleRewardClaimed
	}

	stats, err := GetStats(env.Tx, r.ID)
	if err != nil {
		return nil, err
	}
	k := int(r.NumRaffledNfts)
	if len(stats.TicketPositions) < k {
		k = len(stats.TicketPositions)
	}
	stream := newDrawStream("raffle-draw", env.Tx.TxID(), listing.ID(r.ID), strconv.FormatInt(env.Now, 10))
	r.WinnerIDs = drawWinners(stream, stats.TicketPositions, k)
	r.Status = listing.Finished
	if errPut := putRaffle(env.Tx, r); errPut != nil {
		return nil, errPut
	}
	return r, nil
}

// SetWinners fixes the winner positions of an ended raffle. Test mode only.
func SetWinners(env *listing.Env, raffleID uint64, winnerIDs []uint64) (*Raffle, error) {
	if err := env.Config.RequireAuthority(env.Caller); err != nil {
		return nil, err
	}
	if !env.Config.TestMode {
		return nil, protocol.ErrNotTestEnvironment
	}
	r, err := Get(env.Tx, raffleID)
	if err != nil {
		return nil, err
	}
	if r.Status == listing.Cancelled {
		return nil, protocol.ErrRaffleCancelled
	}
	if !r.IsEnded(env.Now) {
		return nil, protocol.ErrRaffleOngoing
	}
	if r.IsMade() && (r.ClaimMask != 0 || r.RemainingClaimed) {
		return nil, protocol.ErrRaffleRewardClaimed
	}
	if len(winnerIDs) == 0 || len(winnerIDs) > int(r.NumRaffledNfts) {
		return nil, protocol.ErrInvalidRaffleWinnerNumber
	}
	winners := make([]uint64, 0, len(winnerIDs))
	seen := make(map[uint64]bool, len(winnerIDs))
	for _, id := range winnerIDs {
		if id >= r.NumTicketPositions || seen[id] {
			return nil, protocol.ErrInvalidRaffleWinnerNumber
		}
		seen[id] = true
		winners = append(winners, id)
	}
	sort.Slice(winners, func(i, j int) bool { return winners[i] < winners[j] })
	r.WinnerIDs = winners
	r.Status = listing.Finished
	if errPut := putRaffle(env.Tx, r); errPut != nil {
		return nil, errPut
	}
	return r, nil
}
