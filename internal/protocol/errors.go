/*
SPDX-License-Identifier: Apache-2.0
*/

package protocol

import (
	"errors"
	"fmt"
)

// Error is a named protocol condition returned by a rejected transition.
type Error struct {
	Code string
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func newError(code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// CodeOf returns the condition name carried by err, or "" for infrastructure errors.
func CodeOf(err error) string {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Code
	}
	return ""
}

// configuration and input validation
var (
	ErrAlreadyInitialized                     = newError("AlreadyInitialized", "the program is already initialized")
	ErrNotInitialized                         = newError("NotInitialized", "the program is not initialized")
	ErrInvalidMarketFeeRate                   = newError("InvalidMarketFeeRate", "the market fee rate bps setting is invalid")
	ErrInvalidMinOutbidRate                   = newError("InvalidMinOutbidRate", "the min outbid rate bps settings is invalid")
	ErrInvalidAuctionExtensionSettings        = newError("InvalidAuctionExtensionSettings", "the auction extension settings are invalid")
	ErrInvalidAuctionDurationRangeSettings    = newError("InvalidAuctionDurationRangeSettings", "the auction duration range settings are invalid")
	ErrInvalidRaffleTicketSupplyRangeSettings = newError("InvalidRaffleTicketSupplyRangeSettings", "the raffle ticket supply range settings are invalid")
	ErrInvalidRaffleDurationRangeSettings     = newError("InvalidRaffleDurationRangeSettings", "the raffle duration range settings are invalid")
	ErrInvalidIndexPageSize                   = newError("InvalidIndexPageSize", "the index page size setting is invalid")
	ErrInvalidFeeTreasuryAddress              = newError("InvalidFeeTreasuryAddress", "the specified fee treasury address is invalid")
	ErrInvalidIndexPage                       = newError("InvalidIndexPage", "the index page does not match the current page")
	ErrAlreadyRegistered                      = newError("AlreadyRegistered", "the key is already in the allowlist")
	ErrNotRegistered                          = newError("NotRegistered", "the key is not in the allowlist")
	ErrInvalidNftCollectionMetadata           = newError("InvalidNftCollectionMetadata", "the specified nft collection metadata is invalid")
	ErrInvalidAuctionDuration                 = newError("InvalidAuctionDuration", "invalid auction duration")
	ErrInvalidAuctionID                       = newError("InvalidAuctionId", "invalid auction id")
	ErrInvalidRaffleID                        = newError("InvalidRaffleId", "invalid raffle id")
	ErrInvalidRevenueShareConfig              = newError("InvalidRevenueShareConfig", "invalid revenue share config")
	ErrInvalidRevenueRecipientNumber          = newError("InvalidRevenueRecipientNumber", "invalid revenue recipient number")
	ErrInvalidEligibleGroups                  = newError("InvalidEligibleGroups", "invalid eligible groups config")
	ErrInvalidNftMetadata                     = newError("InvalidNftMetadata", "invalid nft metadata")
	ErrInvalidNftMint                         = newError("InvalidNftMint", "the specified nft mint account is invalid")
	ErrNftCollectionNotInAllowlist            = newError("NftCollectionNotInAllowlist", "the nft collection is not in the allowlist")
	ErrTokenNotInAllowlist                    = newError("TokenNotInAllowlist", "the token is not in the allowlist")
	ErrInvalidBidAmount                       = newError("InvalidBidAmount", "the bid amount is invalid")
	ErrNotMetStartBid                         = newError("NotMetStartBid", "start bid not met")
	ErrNotMetMinOutbidRate                    = newError("NotMetMinOutbidRate", "minimum outbid rate not met")
	ErrInsufficientBidFunds                   = newError("InsufficientBidFunds", "insufficient funds for the bid")
	ErrInvalidRaffleDuration                  = newError("InvalidRaffleDuration", "invalid raffle duration")
	ErrInvalidRaffleTicketSupply              = newError("InvalidRaffleTicketSupply", "invalid raffle ticket supply")
	ErrInvalidNumRaffledNfts                  = newError("InvalidNumRaffledNfts", "invalid number of raffled NFTs")
	ErrInvalidRaffleTicketNumber              = newError("InvalidRaffleTicketNumber", "invalid raffle ticket number to buy")
	ErrInvalidTicketBuyerTokenAccount         = newError("InvalidTicketBuyerTokenAccount", "invalid ticket buyer token account")
	ErrInvalidRaffleWinnerNumber              = newError("InvalidRaffleWinnerNumber", "the raffle winner number is invalid")
)

// eligibility
var (
	ErrIneligible                        = newError("Ineligible", "the signer is not eligible for the operations")
	ErrInvalidEligibilityCheckingAccount = newError("InvalidEligibilityCheckingAccount", "invalid eligibility checking accounts")
	ErrNotEnoughPayloadAccounts          = newError("NotEnoughPayloadAccounts", "not enough payload accounts")
)

// authorization and ownership
var (
	ErrNotTheAuthority               = newError("NotTheAuthority", "the signer is not the authority")
	ErrNotAuctionCreator             = newError("NotAuctionCreator", "not the auction creator")
	ErrNotRaffleCreator              = newError("NotRaffleCreator", "not the raffle creator")
	ErrAuctionCreatorCannotMakeBid   = newError("AuctionCreatorCannotMakeBid", "the auction creator cannot make bid")
	ErrRaffleCreatorCannotBuyTickets = newError("RaffleCreatorCannotBuyTickets", "the raffle creator cannot buy tickets")
	ErrTopBidderCannotCancelBid      = newError("TopBidderCannotCancelBid", "the top bidder cannot cancel bid")
	ErrNotTheBidder                  = newError("NotTheBidder", "the signer is not the bidder")
	ErrIneligibleToClaimLotNft       = newError("IneligibleToClaimLotNft", "the current signer is ineligible to claim the lot nft")
	ErrIneligibleToClaimRevenue      = newError("IneligibleToClaimRevenue", "the current signer is ineligible to claim revenue")
	ErrNotARaffleWinner              = newError("NotARaffleWinner", "not a raffle winner")
	ErrNotTestEnvironment            = newError("NotTestEnvironment", "the program is not running in an test environment")
	ErrInvalidCallerIdentity         = newError("InvalidCallerIdentity", "the submitting client identity is invalid")
)

// state machine preconditions
var (
	ErrAuctionNotFound          = newError("AuctionNotFound", "the auction does not exist")
	ErrRaffleNotFound           = newError("RaffleNotFound", "the raffle does not exist")
	ErrBidNotFound              = newError("BidNotFound", "the bid does not exist")
	ErrTicketPositionNotFound   = newError("TicketPositionNotFound", "the ticket position does not exist")
	ErrAuctionCreationDisabled  = newError("AuctionCreationDisabled", "auction creation is disabled")
	ErrRaffleCreationDisabled   = newError("RaffleCreationDisabled", "raffle creation is disabled")
	ErrBidOnEndedAuction        = newError("BidOnEndedAuction", "bid on an ended auction")
	ErrOngoingAuction           = newError("OngoingAuction", "the auction is still ongoing")
	ErrAuctionCancelled         = newError("AuctionCancelled", "the auction has been cancelled")
	ErrAuctionNotCancelable     = newError("AuctionNotCancelable", "the auction is not cancelable")
	ErrRaffleEnded              = newError("RaffleEnded", "the raffle is ended")
	ErrRaffleOngoing            = newError("RaffleOngoing", "the raffle is still ongoing")
	ErrRaffleCancelled          = newError("RaffleCancelled", "the raffle has been cancelled")
	ErrRaffleNotCancelable      = newError("RaffleNotCancelable", "the raffle is not cancelable")
	ErrRaffleAlreadyMade        = newError("RaffleAlreadyMade", "the raffle is already made")
	ErrRaffleNotMade            = newError("RaffleNotMade", "the raffle is not made")
	ErrRaffleRewardClaimed      = newError("RaffleRewardClaimed", "the raffle reward has been claimed")
	ErrNoRemainingRaffleRewards = newError("NoRemainingRaffleRewards", "there are no remaining raffle rewards left")
	ErrNoTicketsSold            = newError("NoTicketsSold", "no raffle tickets have been sold")
)

// substrate (token ledger)
var (
	ErrAccountNotFound            = newError("AccountNotFound", "the token account does not exist")
	ErrAccountAlreadyExists       = newError("AccountAlreadyExists", "the token account already exists")
	ErrMintMismatch               = newError("MintMismatch", "the token account mints do not match")
	ErrInsufficientFunds          = newError("InsufficientFunds", "insufficient funds in the token account")
	ErrCloseNonZeroBalanceAccount = newError("CloseNonZeroBalanceAccount", "closing a token account with non-zero balance")
	ErrMetadataNotFound           = newError("MetadataNotFound", "the asset metadata does not exist")
	ErrMetadataAlreadyExists      = newError("MetadataAlreadyExists", "the asset metadata already exists")
	ErrAmountOverflow             = newError("AmountOverflow", "the token amount overflows")
	ErrInvalidAmount              = newError("InvalidAmount", "the token amount is invalid")
)
