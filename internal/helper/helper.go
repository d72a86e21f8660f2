package helper

import "strings"

var intervalAliases = map[string]string{
	"60m":  "1h",
	"240m": "4h",
	"480m": "8h",
	"24h":  "1d",
	"1w":   "7d",
}

// NormInterval maps the candle interval spellings found in configs to the
// names the Gate candlestick endpoint accepts.
func NormInterval(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	s = strings.TrimPrefix(s, "candle")
	if alias, ok := intervalAliases[s]; ok {
		return alias
	}
	return s
}

// SplitPair returns the base and quote of a BASE_QUOTE pair.
func SplitPair(symbol string) (base, quote string, ok bool) {
	i := strings.IndexByte(symbol, '_')
	if i <= 0 || i >= len(symbol)-1 {
		return "", "", false
	}
	return symbol[:i], symbol[i+1:], true
}
