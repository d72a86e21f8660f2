package models

import (
	"strconv"
	"strings"
)

// FeedSignal is one record of the external signal feed.
type FeedSignal struct {
	Time   SignalID `json:"time"`
	Symbol string   `json:"symbol"`
	Side   string   `json:"side"`
}

// SignalID is the feed timestamp used as the dedup key. Publishers write it
// either as a string or as a number, both decode to the same textual id.
type SignalID string

func (id *SignalID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*id = ""
		return nil
	}
	if unq, err := strconv.Unquote(raw); err == nil {
		*id = SignalID(unq)
		return nil
	}
	*id = SignalID(raw)
	return nil
}
