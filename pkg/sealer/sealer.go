// Package sealer issues opaque tokens for guide response links.
//
// A token is the AES-GCM sealed form of "booking:guide:expiry", so links in
// offer emails can be acted on without a session and cannot be forged or edited.
package sealer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

type Sealer struct {
	aead cipher.AEAD
	now  func() time.Time
}

// GuideResponse is the content of a response token.
type GuideResponse struct {
	BookingID int64
	GuideID   int64
	ExpiresAt time.Time
}

// New builds a sealer from a base64 encoded 32 byte key.
func New(encodedKey string) (*Sealer, error) {
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Sealer{aead: aesgcm, now: time.Now}, nil
}

func (s *Sealer) Seal(bookingID, guideID int64, ttl time.Duration) (string, error) {
	expires := s.now().Add(ttl).Unix()
	plaintext := []byte(fmt.Sprintf("%d:%d:%d", bookingID, guideID, expires))

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ct := s.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(ct), nil
}

func (s *Sealer) Open(token string) (GuideResponse, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return GuideResponse{}, ErrInvalidToken
	}

	nonceSize := s.aead.NonceSize()
	if len(data) <= nonceSize {
		return GuideResponse{}, ErrInvalidToken
	}

	pt, err := s.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return GuideResponse{}, ErrInvalidToken
	}

	parts := strings.Split(string(pt), ":")
	if len(parts) != 3 {
		return GuideResponse{}, ErrInvalidToken
	}

	var nums [3]int64
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return GuideResponse{}, ErrInvalidToken
		}
		nums[i] = n
	}

	resp := GuideResponse{
		BookingID: nums[0],
		GuideID:   nums[1],
		ExpiresAt: time.Unix(nums[2], 0).UTC(),
	}
	if !s.now().Before(resp.ExpiresAt) {
		return resp, ErrExpiredToken
	}
	return resp, nil
}
