package binance

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/quote-feed/pkg/config"
)

func testClient() *Client {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(&config.BinanceConfig{APIURL: "http://localhost", Timeout: time.Second}, log)
}

func TestRateLimitSpacesConsecutiveCalls(t *testing.T) {
	t.Parallel()

	c := testClient()
	c.rateLimit = 40 * time.Millisecond

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, c.enforceRateLimit(context.Background()))
	}
	// First call is free; the next two each wait a full slot.
	require.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestRateLimitHonorsContext(t *testing.T) {
	t.Parallel()

	c := testClient()
	c.rateLimit = time.Minute

	require.NoError(t, c.enforceRateLimit(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := c.enforceRateLimit(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), time.Second)
}

func TestRateLimitDoesNotBlockOtherCallers(t *testing.T) {
	t.Parallel()

	c := testClient()
	c.rateLimit = 200 * time.Millisecond

	require.NoError(t, c.enforceRateLimit(context.Background()))

	// A caller sitting in its wait must not hold the mutex; a second
	// caller reserves its own slot immediately and only then sleeps.
	sleeping := make(chan struct{})
	go func() {
		close(sleeping)
		_ = c.enforceRateLimit(context.Background())
	}()
	<-sleeping

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := c.enforceRateLimit(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 150*time.Millisecond, "reservation must happen without waiting for the sleeper")
}
