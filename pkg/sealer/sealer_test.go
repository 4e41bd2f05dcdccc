package sealer

import (
	"crypto/rand"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSealer(t *testing.T) *Sealer {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	s, err := New(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	return s
}

func TestSealOpen(t *testing.T) {
	s := newTestSealer(t)

	token, err := s.Seal(551, 12, time.Hour)
	require.NoError(t, err)

	got, err := s.Open(token)
	require.NoError(t, err)
	assert.Equal(t, int64(551), got.BookingID)
	assert.Equal(t, int64(12), got.GuideID)
}

func TestSeal_TokensDiffer(t *testing.T) {
	s := newTestSealer(t)

	a, err := s.Seal(1, 2, time.Hour)
	require.NoError(t, err)
	b, err := s.Seal(1, 2, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpen_Expired(t *testing.T) {
	s := newTestSealer(t)
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	token, err := s.Seal(551, 12, time.Minute)
	require.NoError(t, err)

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	got, err := s.Open(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Equal(t, int64(551), got.BookingID)
}

func TestOpen_Invalid(t *testing.T) {
	s := newTestSealer(t)
	other := newTestSealer(t)

	token, err := other.Seal(1, 2, time.Hour)
	require.NoError(t, err)

	tests := map[string]string{
		"other key":  token,
		"not base64": "%%%",
		"too short":  "AAAA",
		"tampered":   token[:len(token)-2] + "AA",
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := s.Open(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNew_BadKey(t *testing.T) {
	_, err := New("not base64!")
	assert.Error(t, err)

	_, err = New(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)
}
