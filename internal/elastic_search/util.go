package elastic_search

import (
	"context"
	"github.com/olivere/elastic/v7"
	"go.uber.org/zap"
	"net/http"
	"time"
)

const saveAttempts int = 3

// Retry runs fn again while elastic answers 429, up to saveAttempts times.
func Retry(ctx context.Context, delay time.Duration, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !elastic.IsStatusCode(err, http.StatusTooManyRequests) || attempt >= saveAttempts {
			return err
		}

		zap.L().With(zap.Int("attempt", attempt)).Warn("ElasticSearch: 429 (Too Many Requests)")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
