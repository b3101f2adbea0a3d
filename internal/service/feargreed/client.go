package feargreed

import (
	"context"
	"errors"
	"fmt"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/service/upstream"
	"MarketPulse/pkg/util"
)

const (
	DefaultBaseURL = "https://api.alternative.me"
	indexPath      = "/fng/"
)

var errNoData = errors.New("fear/greed: empty data")

// Client reads the alternative.me Fear & Greed index.
type Client struct {
	base *upstream.Base
}

func New(baseURL string, opts ...upstream.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{base: upstream.New("feargreed", baseURL, opts...)}
}

type point struct {
	Value               string `json:"value"`
	ValueClassification string `json:"value_classification"`
	Timestamp           string `json:"timestamp"`
}

type response struct {
	Data     []point `json:"data"`
	Metadata struct {
		Error *string `json:"error"`
	} `json:"metadata"`
}

// FearGreed returns the latest index value.
func (c *Client) FearGreed(ctx context.Context) (models.SentimentIndex, error) {
	var resp response
	q := map[string][]string{"limit": {"1"}}
	if err := c.base.GetJSONWithRetry(ctx, indexPath, q, &resp); err != nil {
		return models.SentimentIndex{}, err
	}
	if resp.Metadata.Error != nil && *resp.Metadata.Error != "" {
		return models.SentimentIndex{}, fmt.Errorf("fear/greed: %s", *resp.Metadata.Error)
	}
	if len(resp.Data) == 0 {
		return models.SentimentIndex{}, errNoData
	}

	p := resp.Data[0]
	v, err := util.ParseIntInRange(p.Value, 0, 100)
	if err != nil {
		return models.SentimentIndex{}, fmt.Errorf("fear/greed value: %w", err)
	}
	ts, _ := util.ParseTime(p.Timestamp)
	return models.SentimentIndex{
		Value:          v,
		Classification: p.ValueClassification,
		Timestamp:      ts,
	}, nil
}

var _ drepo.SentimentSource = (*Client)(nil)
