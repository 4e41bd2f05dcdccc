// Package webhook delivers signed JSON payloads to configured endpoints.
//
// A delivery is one POST. Callers decide whether a failure matters: the offer
// dispatcher requires at least one delivery to succeed, response and aftercare
// notifications only log, and the relay retries transient failures.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"beroepsbelg/pkg/client"
	"beroepsbelg/pkg/logger"

	"github.com/google/uuid"
)

const (
	HeaderSignature = "X-Signature-256"
	HeaderTimestamp = "X-Webhook-Timestamp"
	HeaderDelivery  = "X-Delivery-ID"
	HeaderEventType = "X-Event-Type"

	signaturePrefix = "sha256="
)

// ErrDisabled is returned when no endpoint is configured for a notification.
var ErrDisabled = errors.New("webhook endpoint not configured")

// StatusError reports a non-2xx response from the endpoint.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook %s responded %d: %s", e.URL, e.StatusCode, e.Body)
}

// Temporary reports whether the endpoint might accept the same payload later.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusRequestTimeout
}

type Sender struct {
	http   *client.HttpClient
	secret string
	log    *logger.Logger
}

func NewSender(timeout time.Duration, secret string, log *logger.Logger) *Sender {
	return &Sender{
		http:   client.NewHttpClient("", timeout),
		secret: secret,
		log:    log,
	}
}

// Send POSTs payload as JSON to url. Extra headers are added to the request.
func (s *Sender) Send(ctx context.Context, url string, payload any, headers map[string]string) error {
	if strings.TrimSpace(url) == "" {
		return ErrDisabled
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	h := map[string]string{
		HeaderDelivery:  uuid.NewString(),
		HeaderTimestamp: strconv.FormatInt(time.Now().Unix(), 10),
	}
	for k, v := range headers {
		h[k] = v
	}
	if s.secret != "" {
		h[HeaderSignature] = Sign(s.secret, body)
	}

	start := time.Now()
	resp, err := s.http.POSTRaw(ctx, url, body, h)
	if err != nil {
		return fmt.Errorf("webhook %s: %w", url, err)
	}
	if !resp.IsSuccess() {
		return &StatusError{URL: url, StatusCode: resp.StatusCode, Body: truncate(string(resp.Body), 200)}
	}

	s.log.Debug("Webhook delivered",
		"url", url,
		"delivery_id", h[HeaderDelivery],
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	return nil
}

// Sign returns the signature header value for body: "sha256=" followed by the hex HMAC.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature header against body. The "sha256=" prefix is optional.
func Verify(secret string, body []byte, header string) bool {
	if header == "" {
		return false
	}
	received := strings.TrimPrefix(header, signaturePrefix)
	expected := strings.TrimPrefix(Sign(secret, body), signaturePrefix)
	return hmac.Equal([]byte(expected), []byte(received))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
