package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	pkglog "github.com/Louis-hue-lang/OrientaVision/pkg/log"
)

// Client talks to the mailer side-service. Deliveries run in the
// background: both Send methods return immediately and failures are only
// logged, so mail problems never fail the request that triggered them.
type Client struct {
	baseURL string
	client  *http.Client
	logger  pkglog.Logger
}

func New(baseURL string, timeout time.Duration, logger pkglog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) SendInvite(_ context.Context, email, code string) {
	c.dispatch("/api/v1/send-invite", map[string]string{"email": email, "code": code})
}

func (c *Client) SendReset(_ context.Context, email, token string) {
	c.dispatch("/api/v1/send-reset", map[string]string{"email": email, "token": token})
}

func (c *Client) dispatch(path string, payload map[string]string) {
	if c.baseURL == "" {
		c.logger.Debug().Str("path", path).Msg("mailer not configured, skipping delivery")
		return
	}
	go func() {
		// detached from the request context on purpose: the triggering
		// response must not wait for delivery
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := c.post(ctx, path, payload); err != nil {
			c.logger.Error().Err(err).Str("path", path).Msg("mail delivery failed")
		}
	}()
}

func (c *Client) post(ctx context.Context, path string, payload map[string]string) error {
	op := func() error {
		body, err := json.Marshal(payload)
		if err != nil {
			return backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", c.baseURL, path), bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		res, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.StatusCode >= 400 {
			return fmt.Errorf("mailer error: %d", res.StatusCode)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxElapsedTime = 20 * time.Second
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}
