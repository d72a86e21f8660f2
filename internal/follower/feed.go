package follower

import (
	"bytes"
	"os"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"spot_bot/internal/models"
)

// ErrNoFeed is returned when the signal file does not exist.
var ErrNoFeed = errors.New("signal feed not found")

// ReadFeed loads the signal file. Publishers write either a single record or
// a list of records.
func ReadFeed(path string) ([]models.FeedSignal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoFeed
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return parseFeed(data)
}

func parseFeed(data []byte) ([]models.FeedSignal, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == '[' {
		var list []models.FeedSignal
		if err := sonic.Unmarshal(data, &list); err != nil {
			return nil, errors.Wrap(err, "decode signal list")
		}
		return list, nil
	}
	var one models.FeedSignal
	if err := sonic.Unmarshal(data, &one); err != nil {
		return nil, errors.Wrap(err, "decode signal")
	}
	return []models.FeedSignal{one}, nil
}
