/*
SPDX-License-Identifier: Apache-2.0
*/

package listings

import (
	"github.com/nandlab/fabric-listings/chaincode-go/internal/listing"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/revenue"
)

// Event names set by settlement transactions.
const (
	EventAuctionSettled   = "AuctionSettled"
	EventRaffleMade       = "RaffleMade"
	EventListingCancelled = "ListingCancelled"
)

// ListingKind tells auctions and raffles apart in a summary.
type ListingKind string

const (
	KindAuction ListingKind = "auction"
	KindRaffle  ListingKind = "raffle"
)

// Listing status information, which will be presented to the users in an event
type ListingSummary struct {
	Kind         ListingKind           `json:"kind"`
	ID           uint64                `json:"id"`
	Creator      string                `json:"creator"`
	Status       listing.Status        `json:"status"`
	Winner       string                `json:"winner,omitempty"`      // the auction's top bidder
	HammerPrice  uint64                `json:"hammerPrice,omitempty"` // the auction's top bid
	WinnerIDs    []uint64              `json:"winnerIds,omitempty"`   // the raffle's winning ticket positions
	Distribution *revenue.Distribution `json:"distribution,omitempty"`
}

// Identity describes the submitting client.
type Identity struct {
	ID          string `json:"id"`
	MSPID       string `json:"mspId"`
	Certificate string `json:"certificate,omitempty"` // PEM
}
