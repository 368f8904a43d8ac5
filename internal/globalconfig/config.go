/*
SPDX-License-Identifier: Apache-2.0
*/

// Package globalconfig keeps the singleton record holding the protocol-wide
// tunables and the listing counters.
package globalconfig

import (
	"fmt"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/ledger"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/protocol"
)

const globalConfigObjectType = "global_config"

// Defaults applied by Initialize.
const (
	DefaultMinOutbidRateBps      = 500
	DefaultLastMinutesForExtend  = 10
	DefaultAuctionExtendMinutes  = 10
	DefaultMinAuctionDuration    = 6 * 60 * 60
	DefaultMaxAuctionDuration    = 7 * 24 * 60 * 60
	DefaultMinRaffleTicketSupply = 30
	DefaultMaxRaffleTicketSupply = 3000
	DefaultMaxRaffledNfts        = 15
	DefaultMinRaffleDuration     = 6 * 60 * 60
	DefaultMaxRaffleDuration     = 7 * 24 * 60 * 60
	DefaultIndexPageSize         = 100
	MaxBps                       = 10000
	// MaxRaffledNftsLimit bounds MaxRaffledNfts by the width of a raffle's claim mask.
	MaxRaffledNftsLimit = 64
)

// Range is an inclusive [Min, Max] bound with Min < Max.
type Range struct {
	Min uint64 `json:"min"`
	Max uint64 `json:"max"`
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v uint64) bool {
	return v >= r.Min && v <= r.Max
}

func (r Range) valid() bool {
	return r.Min > 0 && r.Min < r.Max
}

// GlobalConfig is the singleton configuration record.
type GlobalConfig struct {
	Authority                   string `json:"authority"`
	MarketFeeRateBps            uint16 `json:"marketFeeRateBps"`
	FeeTreasuryAddress          string `json:"feeTreasuryAddress"`
	MinOutbidRateBps            uint16 `json:"minOutbidRateBps"`
	LastMinutesForAuctionExtend uint8  `json:"lastMinutesForAuctionExtend"`
	AuctionExtendMinutes        uint8  `json:"auctionExtendMinutes"`
	AuctionDurationRange        Range  `json:"auctionDurationRange"`
	RaffleTicketSupplyRange     Range  `json:"raffleTicketSupplyRange"`
	RaffleDurationRange         Range  `json:"raffleDurationRange"`
	MaxRaffledNfts              uint8  `json:"maxRaffledNfts"`
	AuctionCreationEnabled      bool   `json:"auctionCreationEnabled"`
	RaffleCreationEnabled       bool   `json:"raffleCreationEnabled"`
	TotalAuctions               uint64 `json:"totalAuctions"`
	TotalRaffles                uint64 `json:"totalRaffles"`
	TotalAllowedCurrencyTokens  uint64 `json:"totalAllowedCurrencyTokens"`
	TotalAllowedCollections     uint64 `json:"totalAllowedCollections"`
	IndexPageSize               uint32 `json:"indexPageSize"`
	TestMode                    bool   `json:"testMode"`
	MockTimestamp               *int64 `json:"mockTimestamp,omitempty"`
}

// UpdateInput carries the fields of an update. Nil fields are left untouched.
type UpdateInput struct {
	MarketFeeRateBps            *uint16 `json:"marketFeeRateBps,omitempty"`
	FeeTreasuryAddress          *string `json:"feeTreasuryAddress,omitempty"`
	MinOutbidRateBps            *uint16 `json:"minOutbidRateBps,omitempty"`
	LastMinutesForAuctionExtend *uint8  `json:"lastMinutesForAuctionExtend,omitempty"`
	AuctionExtendMinutes        *uint8  `json:"auctionExtendMinutes,omitempty"`
	MinAuctionDuration          *uint64 `json:"minAuctionDuration,omitempty"`
	MaxAuctionDuration          *uint64 `json:"maxAuctionDuration,omitempty"`
	MinRaffleTicketSupply       *uint64 `json:"minRaffleTicketSupply,omitempty"`
	MaxRaffleTicketSupply       *uint64 `json:"maxRaffleTicketSupply,omitempty"`
	MaxRaffledNfts              *uint8  `json:"maxRaffledNfts,omitempty"`
	MinRaffleDuration           *uint64 `json:"minRaffleDuration,omitempty"`
	MaxRaffleDuration           *uint64 `json:"maxRaffleDuration,omitempty"`
	AuctionCreationEnabled      *bool   `json:"auctionCreationEnabled,omitempty"`
	RaffleCreationEnabled       *bool   `json:"raffleCreationEnabled,omitempty"`
	IndexPageSize               *uint32 `json:"indexPageSize,omitempty"` // honored in test mode only
}

func configKey(tx *ledger.Tx) (string, error) {
	return tx.Key(globalConfigObjectType)
}

// Load reads the configuration record.
func Load(tx *ledger.Tx) (*GlobalConfig, error) {
	key, err := configKey(tx)
	if err != nil {
		return nil, err
	}
	var config GlobalConfig
	found, err := tx.Get(key, &config)
	if err != nil {
		return nil, fmt.Errorf("could not get global config: %w", err)
	}
	if !found {
		return nil, protocol.ErrNotInitialized
	}
	return &config, nil
}

// Save buffers the configuration record.
func Save(tx *ledger.Tx, config *GlobalConfig) error {
	key, err := configKey(tx)
	if err != nil {
		return err
	}
	return tx.Put(key, config)
}

// Initialize creates the configuration record with the defaults. The caller
// becomes the immutable authority.
func Initialize(tx *ledger.Tx, authority string, marketFeeRateBps uint16, feeTreasury string, testMode bool) (*GlobalConfig, error) {
	key, err := configKey(tx)
	if err != nil {
		return nil, err
	}
	exists, err := tx.Exists(key)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, protocol.ErrAlreadyInitialized
	}

	config := &GlobalConfig{
		Authority:                   authority,
		MarketFeeRateBps:            marketFeeRateBps,
		FeeTreasuryAddress:          feeTreasury,
		MinOutbidRateBps:            DefaultMinOutbidRateBps,
		LastMinutesForAuctionExtend: DefaultLastMinutesForExtend,
		AuctionExtendMinutes:        DefaultAuctionExtendMinutes,
		AuctionDurationRange:        Range{Min: DefaultMinAuctionDuration, Max: DefaultMaxAuctionDuration},
		RaffleTicketSupplyRange:     Range{Min: DefaultMinRaffleTicketSupply, Max: DefaultMaxRaffleTicketSupply},
		RaffleDurationRange:         Range{Min: DefaultMinRaffleDuration, Max: DefaultMaxRaffleDuration},
		MaxRaffledNfts:              DefaultMaxRaffledNfts,
		AuctionCreationEnabled:      true,
		RaffleCreationEnabled:       true,
		IndexPageSize:               DefaultIndexPageSize,
		TestMode:                    testMode,
	}
	if errValidate := config.Validate(); errValidate != nil {
		return nil, errValidate
	}
	if errSave := Save(tx, config); errSave != nil {
		return nil, errSave
	}
	return config, nil
}

// Validate checks every field against its invariant.
func (c *GlobalConfig) Validate() error {
	if c.MarketFeeRateBps == 0 || c.MarketFeeRateBps > MaxBps {
		return protocol.ErrInvalidMarketFeeRate
	}
	if c.FeeTreasuryAddress == "" {
		return protocol.ErrInvalidFeeTreasuryAddress
	}
	if c.MinOutbidRateBps == 0 || c.MinOutbidRateBps > MaxBps {
		return protocol.ErrInvalidMinOutbidRate
	}
	if c.LastMinutesForAuctionExtend == 0 || c.AuctionExtendMinutes == 0 {
		return protocol.ErrInvalidAuctionExtensionSettings
	}
	if !c.AuctionDurationRange.valid() {
		return protocol.ErrInvalidAuctionDurationRangeSettings
	}
	if !c.RaffleTicketSupplyRange.valid() {
		return protocol.ErrInvalidRaffleTicketSupplyRangeSettings
	}
	if !c.RaffleDurationRange.valid() {
		return protocol.ErrInvalidRaffleDurationRangeSettings
	}
	if c.MaxRaffledNfts == 0 || c.MaxRaffledNfts > MaxRaffledNftsLimit {
		return protocol.ErrInvalidNumRaffledNfts
	}
	if c.IndexPageSize == 0 {
		return protocol.ErrInvalidIndexPageSize
	}
	return nil
}

// Apply returns a copy of c with the non-nil fields of in applied.
func (c *GlobalConfig) Apply(in *UpdateInput) *GlobalConfig {
	next := *c
	if c.MockTimestamp != nil {
		ts := *c.MockTimestamp
		next.MockTimestamp = &ts
	}
	if in.MarketFeeRateBps != nil {
		next.MarketFeeRateBps = *in.MarketFeeRateBps
	}
	if in.FeeTreasuryAddress != nil {
		next.FeeTreasuryAddress = *in.FeeTreasuryAddress
	}
	if in.MinOutbidRateBps != nil {
		next.MinOutbidRateBps = *in.MinOutbidRateBps
	}
	if in.LastMinutesForAuctionExtend != nil {
		next.LastMinutesForAuctionExtend = *in.LastMinutesForAuctionExtend
	}
	if in.AuctionExtendMinutes != nil {
		next.AuctionExtendMinutes = *in.AuctionExtendMinutes
	}
	if in.MinAuctionDuration != nil {
		next.AuctionDurationRange.Min = *in.MinAuctionDuration
	}
	if in.MaxAuctionDuration != nil {
		next.AuctionDurationRange.Max = *in.MaxAuctionDuration
	}
	if in.MinRaffleTicketSupply != nil {
		next.RaffleTicketSupplyRange.Min = *in.MinRaffleTicketSupply
	}
	if in.MaxRaffleTicketSupply != nil {
		next.RaffleTicketSupplyRange.Max = *in.MaxRaffleTicketSupply
	}
	if in.MaxRaffledNfts != nil {
		next.MaxRaffledNfts = *in.MaxRaffledNfts
	}
	if in.MinRaffleDuration != nil {
		next.RaffleDurationRange.Min = *in.MinRaffleDuration
	}
	if in.MaxRaffleDuration != nil {
		next.RaffleDurationRange.Max = *in.MaxRaffleDuration
	}
	if in.AuctionCreationEnabled != nil {
		next.AuctionCreationEnabled = *in.AuctionCreationEnabled
	}
	if in.RaffleCreationEnabled != nil {
		next.RaffleCreationEnabled = *in.RaffleCreationEnabled
	}
	if in.IndexPageSize != nil && c.TestMode {
		next.IndexPageSize = *in.IndexPageSize
	}
	return &next
}

// RequireAuthority fails unless caller is the configured authority.
func (c *GlobalConfig) RequireAuthority(caller string) error {
	if caller != c.Authority {
		return protocol.ErrNotTheAuthority
	}
	return nil
}

// Update applies in atomically. Nothing is written when any field is invalid.
func Update(tx *ledger.Tx, caller string, in *UpdateInput) (*GlobalConfig, error) {
	config, err := Load(tx)
	if err != nil {
		return nil, err
	}
	if errAuth := config.RequireAuthority(caller); errAuth != nil {
		return nil, errAuth
	}
	next := config.Apply(in)
	if errValidate := next.Validate(); errValidate != nil {
		return nil, errValidate
	}
	if errSave := Save(tx, next); errSave != nil {
		return nil, errSave
	}
	return next, nil
}

// SetMockTimestamp overrides the clock seen by time-gated transitions. A nil
// timestamp restores ledger time.
func SetMockTimestamp(tx *ledger.Tx, caller string, ts *int64) (*GlobalConfig, error) {
	config, err := Load(tx)
	if err != nil {
		return nil, err
	}
	if !config.TestMode {
		return nil, protocol.ErrNotTestEnvironment
	}
	if errAuth := config.RequireAuthority(caller); errAuth != nil {
		return nil, errAuth
	}
	config.MockTimestamp = ts
	if errSave := Save(tx, config); errSave != nil {
		return nil, errSave
	}
	return config, nil
}

// Now returns the mock timestamp in test mode when one is set, otherwise the
// ledger time of tx.
func (c *GlobalConfig) Now(tx *ledger.Tx) (int64, error) {
	if c.TestMode && c.MockTimestamp != nil {
		return *c.MockTimestamp, nil
	}
	return tx.LedgerTime()
}
