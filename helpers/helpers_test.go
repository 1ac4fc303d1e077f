package helpers

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShortenAddr(t *testing.T) {
	assert.Equal(t, "0x55D1…7F1c", ShortenAddr("0x55D1CB16c8301012783af7C0565C3C881c3C7F1c"))
	assert.Equal(t, "0x1", ShortenAddr("0x1"))
}

func TestFormatETH(t *testing.T) {
	assert.Equal(t, "0 ETH", FormatETH(nil))
	assert.Equal(t, "0.001000 ETH", FormatETH(big.NewInt(1_000_000_000_000_000)))
}

func TestFormatMemoTime(t *testing.T) {
	assert.Equal(t, "unknown time", FormatMemoTime(time.Time{}))
	ts := time.Date(2024, 3, 9, 14, 5, 0, 0, time.Local)
	assert.Equal(t, "Mar 9, 2024 14:05", FormatMemoTime(ts))
}

func TestIsValidEthAddress(t *testing.T) {
	assert.True(t, IsValidEthAddress("0x55D1CB16c8301012783af7C0565C3C881c3C7F1c"))
	assert.False(t, IsValidEthAddress("0x55D1"))
}

func TestMinMax(t *testing.T) {
	assert.Equal(t, 2, Min(2, 3))
	assert.Equal(t, 3, Max(2, 3))
}

func TestLoadedAt(t *testing.T) {
	assert.Equal(t, "loading…", LoadedAt(time.Now(), true))
	assert.Equal(t, "never", LoadedAt(time.Time{}, false))
	assert.Equal(t, "14:05:09", LoadedAt(time.Date(2024, 3, 9, 14, 5, 9, 0, time.Local), false))
}
