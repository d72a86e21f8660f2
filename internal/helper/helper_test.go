package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormInterval(t *testing.T) {
	assert.Equal(t, "1h", NormInterval(" 60M "))
	assert.Equal(t, "1m", NormInterval("candle1m"))
	assert.Equal(t, "15m", NormInterval("15m"))
}

func TestSplitPair(t *testing.T) {
	base, quote, ok := SplitPair("XRP_USDT")
	assert.True(t, ok)
	assert.Equal(t, "XRP", base)
	assert.Equal(t, "USDT", quote)

	_, _, ok = SplitPair("XRPUSDT")
	assert.False(t, ok)
	_, _, ok = SplitPair("XRP_")
	assert.False(t, ok)
}
