package protocol

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("could not place bid: %w", ErrInvalidBidAmount)
	require.Equal(t, "InvalidBidAmount", CodeOf(wrapped))
	require.True(t, errors.Is(wrapped, ErrInvalidBidAmount))
	require.Equal(t, "InvalidBidAmount: the bid amount is invalid", ErrInvalidBidAmount.Error())

	require.Equal(t, "", CodeOf(errors.New("state database unavailable")))
	require.Equal(t, "", CodeOf(nil))
}
