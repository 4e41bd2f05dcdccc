package middleware

import (
	"bytes"
	"io"
	"net/http"

	apperrors "beroepsbelg/pkg/errors"
	"beroepsbelg/pkg/logger"
	"beroepsbelg/pkg/webhook"
)

// SignatureVerification accepts only requests whose body carries a valid
// HMAC-SHA256 signature in the X-Signature-256 header. Automation platforms
// posting guide responses sign with the shared inbound secret.
func SignatureVerification(secret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			signature := r.Header.Get(webhook.HeaderSignature)
			if signature == "" {
				logAndReject(w, log, r, "Missing "+webhook.HeaderSignature+" header")
				return
			}

			body, err := readAndRestoreBody(r)
			if err != nil {
				logAndReject(w, log, r, "Failed to read request body")
				return
			}

			if !webhook.Verify(secret, body, signature) {
				logAndReject(w, log, r, "Invalid signature")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func readAndRestoreBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

func logAndReject(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason string) {
	log.Warn("Signature verification failed",
		"request_id", RequestID(r.Context()),
		"reason", reason,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)
	reject(w, apperrors.Unauthorized("Invalid request signature"))
}
