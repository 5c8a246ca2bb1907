package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/webtop-sh/webtop/internal/infrastructure/config"
	"github.com/webtop-sh/webtop/internal/infrastructure/logging"
	"github.com/webtop-sh/webtop/internal/infrastructure/resilience"
)

// Dialer establishes websocket connections to the chat relay. A health
// probe runs first when configured, and a circuit breaker keeps chat
// transitions from blocking on a relay that is known dead.
type Dialer struct {
	relayURL  string
	healthURL string
	probe     *retryablehttp.Client
	breaker   *resilience.Breaker
	log       *logging.Logger
}

// NewDialer creates a relay dialer from configuration.
func NewDialer(cfg config.RelayConfig, log *logging.Logger) *Dialer {
	probe := retryablehttp.NewClient()
	probe.RetryMax = 2
	probe.RetryWaitMin = 100 * time.Millisecond
	probe.RetryWaitMax = time.Second
	probe.Logger = nil

	return &Dialer{
		relayURL:  cfg.URL,
		healthURL: cfg.HealthURL,
		probe:     probe,
		breaker: resilience.New("chat-relay", resilience.Settings{
			FailureThreshold: 3,
			Cooldown:         15 * time.Second,
			OnStateChange: func(name string, from, to resilience.State) {
				log.Warn("relay breaker state change",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
		log: log,
	}
}

// Dial opens one persistent relay connection. A failed health probe is
// logged and the dial proceeds anyway; the probe exists to surface
// relay trouble early, not to gate connectivity.
func (d *Dialer) Dial(ctx context.Context) (*websocket.Conn, error) {
	if d.healthURL != "" {
		req, err := retryablehttp.NewRequestWithContext(ctx, "GET", d.healthURL, nil)
		if err == nil {
			resp, probeErr := d.probe.Do(req)
			if probeErr != nil {
				d.log.Warn("relay health probe failed", zap.Error(probeErr))
			} else {
				resp.Body.Close()
			}
		}
	}

	var conn *websocket.Conn
	err := d.breaker.Execute(func() error {
		c, _, dialErr := websocket.DefaultDialer.DialContext(ctx, d.relayURL, nil)
		if dialErr != nil {
			return dialErr
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to dial relay %s: %w", d.relayURL, err)
	}
	return conn, nil
}
