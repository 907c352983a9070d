package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/quote-feed/pkg/config"
	"github.com/quote-feed/pkg/models"
)

// NATSClient publishes quote updates over JetStream and exposes
// subscriptions for downstream consumers.
type NATSClient struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *logrus.Entry
	cfg    *config.NATSConfig

	subs   map[string]*nats.Subscription
	subsMu sync.RWMutex
}

// NewNATSClient connects to NATS and ensures the quote streams exist.
func NewNATSClient(cfg *config.NATSConfig, logger *logrus.Logger) (*NATSClient, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnect),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	nc := &NATSClient{
		conn:   conn,
		js:     js,
		logger: logger.WithField("component", "nats"),
		cfg:    cfg,
		subs:   make(map[string]*nats.Subscription),
	}

	if err := nc.initializeStreams(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to initialize streams: %w", err)
	}

	return nc, nil
}

// Close unsubscribes everything and closes the connection.
func (nc *NATSClient) Close() error {
	nc.subsMu.Lock()
	for _, sub := range nc.subs {
		sub.Unsubscribe()
	}
	nc.subs = make(map[string]*nats.Subscription)
	nc.subsMu.Unlock()

	nc.conn.Close()
	return nil
}

// IsConnected reports whether the connection is currently up.
func (nc *NATSClient) IsConnected() bool {
	return nc.conn.IsConnected()
}

// initializeStreams creates JetStream streams
func (nc *NATSClient) initializeStreams() error {
	// Quote stream for normalized market quotes
	_, err := nc.js.AddStream(&nats.StreamConfig{
		Name:     "QUOTES",
		Subjects: []string{"quotes.>"},
		Storage:  nats.MemoryStorage,
		MaxAge:   24 * time.Hour,
		MaxMsgs:  1000000,
		Replicas: 1,
	})
	if err != nil && err != nats.ErrStreamNameAlreadyInUse {
		return fmt.Errorf("failed to create QUOTES stream: %w", err)
	}

	// System stream for health and monitoring
	_, err = nc.js.AddStream(&nats.StreamConfig{
		Name:     "SYSTEM",
		Subjects: []string{"system.>"},
		Storage:  nats.MemoryStorage,
		MaxAge:   1 * time.Hour,
		MaxMsgs:  10000,
		Replicas: 1,
	})
	if err != nil && err != nats.ErrStreamNameAlreadyInUse {
		return fmt.Errorf("failed to create SYSTEM stream: %w", err)
	}

	return nil
}

// subjectToken makes an asset symbol safe for use as a subject token.
// Dots are NATS separators and symbols like RELIANCE.NS or GC=F would
// otherwise split or break the subject.
func subjectToken(asset string) string {
	replacer := strings.NewReplacer(".", "_", "=", "_", "/", "_")
	return replacer.Replace(asset)
}

// quoteSubject builds the publish subject for a quote,
// quotes.<class>.<asset>.
func quoteSubject(quote *models.Quote) string {
	return fmt.Sprintf("quotes.%s.%s", strings.ToLower(string(quote.Class)), subjectToken(quote.Asset))
}

// quoteSubjects builds the subscription filters for the given classes.
// No classes means the full quote firehose.
func quoteSubjects(classes ...models.AssetClass) []string {
	if len(classes) == 0 {
		return []string{"quotes.>"}
	}
	subjects := make([]string, 0, len(classes))
	for _, class := range classes {
		subjects = append(subjects, fmt.Sprintf("quotes.%s.>", strings.ToLower(string(class))))
	}
	return subjects
}

// PublishQuote publishes a quote to quotes.<class>.<asset>.
func (nc *NATSClient) PublishQuote(ctx context.Context, quote *models.Quote) error {
	subject := quoteSubject(quote)

	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}

	// Use PublishAsync for non-blocking publish with timeout
	future, err := nc.js.PublishAsync(subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish quote: %w", err)
	}

	select {
	case <-future.Ok():
		return nil
	case err := <-future.Err():
		return fmt.Errorf("failed to publish quote: %w", err)
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(nc.cfg.PublishWait):
		return fmt.Errorf("publish timeout for subject %s", subject)
	}
}

// SubscribeQuotes subscribes to quote updates. With no classes given
// it receives every quote; otherwise only the named classes.
func (nc *NATSClient) SubscribeQuotes(handler func(*models.Quote), classes ...models.AssetClass) error {
	for _, subject := range quoteSubjects(classes...) {
		sub, err := nc.conn.Subscribe(subject, func(msg *nats.Msg) {
			var quote models.Quote
			if err := json.Unmarshal(msg.Data, &quote); err != nil {
				nc.logger.WithError(err).Error("Failed to unmarshal quote")
				return
			}
			handler(&quote)
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}

		nc.subsMu.Lock()
		nc.subs[subject] = sub
		nc.subsMu.Unlock()
	}

	return nil
}

// PublishHealthStatus publishes a component health report.
func (nc *NATSClient) PublishHealthStatus(status map[string]interface{}) error {
	subject := "system.health"

	payload := map[string]interface{}{
		"components": status,
		"timestamp":  time.Now().Unix(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal health status: %w", err)
	}
	_, err = nc.js.Publish(subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish health status: %w", err)
	}
	return nil
}

// Drain drains the connection (graceful shutdown)
func (nc *NATSClient) Drain() error {
	return nc.conn.Drain()
}
