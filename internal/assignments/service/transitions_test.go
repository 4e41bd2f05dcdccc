package service

import (
	"encoding/json"
	"testing"
	"time"

	assignmentserrors "beroepsbelg/internal/assignments/errors"
	"beroepsbelg/pkg/model"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC)

func int64Ptr(v int64) *int64 { return &v }

// decodeBooking builds a booking the way it is read from storage, including
// legacy selectedGuides shapes.
func decodeBooking(t *testing.T, raw string) *model.Booking {
	t.Helper()
	var b model.Booking
	require.NoError(t, json.Unmarshal([]byte(raw), &b))
	b.SyncGuideFields()
	return &b
}

func TestLocate_HeterogeneousSelectedGuides(t *testing.T) {
	b := decodeBooking(t, `{"id":1,"status":"pending_guide_confirmation","selectedGuides":[3,"7",{"id":12},{"id":"15","status":"offered"}]}`)

	for _, id := range []int64{3, 7, 12, 15} {
		i, err := locate(b, id)
		require.NoError(t, err, "guide %d", id)
		assert.Equal(t, id, b.SelectedGuides[i].ID)
	}

	_, err := locate(b, 4)
	assert.ErrorIs(t, err, assignmentserrors.ErrGuideNotOnBooking)
}

func TestAccept_Booking551Guide12(t *testing.T) {
	b := decodeBooking(t, `{"id":551,"guide_id":12,"selectedGuides":[{"id":12}]}`)

	require.NoError(t, accept(b, 12, now))

	want := []model.SelectedGuide{{ID: 12, Status: model.GuideAccepted, RespondedAt: &now}}
	if diff := cmp.Diff(want, b.SelectedGuides); diff != "" {
		t.Errorf("selectedGuides mismatch (-want +got):\n%s", diff)
	}
	require.NotNil(t, b.GuideID)
	assert.Equal(t, int64(12), *b.GuideID)
	assert.Equal(t, model.BookingConfirmed, b.Status)
	assert.Equal(t, []int64{12}, b.GuideIDs)
}

func TestAccept_AmongSeveralOffers(t *testing.T) {
	b := decodeBooking(t, `{"id":552,"status":"pending_guide_confirmation","selectedGuides":[{"id":12,"status":"offered"},{"id":"14","status":"offered"}]}`)
	require.Nil(t, b.GuideID)

	require.NoError(t, accept(b, 12, now))

	assert.Equal(t, int64(12), *b.GuideID)
	assert.Equal(t, model.GuideOffered, b.SelectedGuides[1].Status)
	assert.Equal(t, []int64{12, 14}, b.GuideIDs)
}

func TestAccept_AtMostOneAccepted(t *testing.T) {
	raw := `{"id":2,"status":"confirmed","selectedGuides":[{"id":3,"status":"accepted"},{"id":7,"status":"offered"}]}`
	b := decodeBooking(t, raw)

	err := accept(b, 7, now)
	assert.ErrorIs(t, err, assignmentserrors.ErrAnotherGuideAccepted)
	if diff := cmp.Diff(decodeBooking(t, raw), b); diff != "" {
		t.Errorf("booking changed (-want +got):\n%s", diff)
	}

	// accepting again as the same guide is harmless
	require.NoError(t, accept(b, 3, now))
	assert.Equal(t, int64(3), *b.GuideID)
}

func TestDecline(t *testing.T) {
	t.Run("offered guide", func(t *testing.T) {
		b := decodeBooking(t, `{"id":3,"status":"pending_guide_confirmation","selectedGuides":[{"id":3,"status":"offered"},{"id":7,"status":"offered"}]}`)

		require.NoError(t, decline(b, 7, now))
		assert.Equal(t, model.GuideDeclined, b.SelectedGuides[1].Status)
		assert.Equal(t, []int64{3}, b.GuideIDs)
		assert.Nil(t, b.GuideID)
		assert.Equal(t, model.BookingPendingGuideConfirmation, b.Status)
	})

	t.Run("single offered guide held the booking", func(t *testing.T) {
		b := decodeBooking(t, `{"id":4,"status":"pending_guide_confirmation","selectedGuides":[{"id":9,"status":"offered"}]}`)
		require.Equal(t, int64(9), *b.GuideID)

		require.NoError(t, decline(b, 9, now))
		assert.Nil(t, b.GuideID)
		assert.Empty(t, b.GuideIDs)
	})

	t.Run("accepted guide backs out", func(t *testing.T) {
		b := decodeBooking(t, `{"id":5,"status":"confirmed","selectedGuides":[{"id":3,"status":"accepted"}]}`)

		require.NoError(t, decline(b, 3, now))
		assert.Nil(t, b.GuideID)
		assert.Equal(t, model.BookingPendingGuideConfirmation, b.Status)
	})
}

func TestCancel(t *testing.T) {
	t.Run("current guide", func(t *testing.T) {
		b := decodeBooking(t, `{"id":6,"status":"confirmed","selectedGuides":[{"id":3,"status":"accepted"},{"id":7,"status":"declined"}]}`)

		require.NoError(t, cancel(b, 3, now))
		assert.Nil(t, b.GuideID)
		assert.Equal(t, model.GuideDeclined, b.SelectedGuides[0].Status)
		assert.Equal(t, model.BookingPendingGuideConfirmation, b.Status)
		assert.Empty(t, b.GuideIDs)
	})

	t.Run("non-current guide leaves booking untouched", func(t *testing.T) {
		raw := `{"id":7,"status":"confirmed","selectedGuides":[{"id":3,"status":"accepted"},{"id":7,"status":"offered"}]}`
		b := decodeBooking(t, raw)
		before := decodeBooking(t, raw)

		err := cancel(b, 7, now)
		assert.ErrorIs(t, err, assignmentserrors.ErrNotAssigned)
		if diff := cmp.Diff(before, b); diff != "" {
			t.Errorf("booking changed (-want +got):\n%s", diff)
		}
	})
}

func TestOffer(t *testing.T) {
	t.Run("two guides", func(t *testing.T) {
		b := decodeBooking(t, `{"id":8,"status":"quote_pending","selectedGuides":[]}`)

		require.NoError(t, offer(b, 3, now))
		require.NoError(t, offer(b, 7, now))

		require.Len(t, b.SelectedGuides, 2)
		for _, sg := range b.SelectedGuides {
			assert.Equal(t, model.GuideOffered, sg.Status)
			assert.Equal(t, now, *sg.OfferedAt)
		}
		assert.Equal(t, []int64{3, 7}, b.GuideIDs)
		assert.Nil(t, b.GuideID)
		assert.Equal(t, model.BookingPendingGuideConfirmation, b.Status)
	})

	t.Run("single guide booking sets guide_id", func(t *testing.T) {
		b := decodeBooking(t, `{"id":9,"status":"quote_pending","selectedGuides":[]}`)

		require.NoError(t, offer(b, 12, now))
		require.NotNil(t, b.GuideID)
		assert.Equal(t, int64(12), *b.GuideID)
	})

	t.Run("re-offer stamps a new time", func(t *testing.T) {
		b := decodeBooking(t, `{"id":10,"status":"pending_guide_confirmation","selectedGuides":[{"id":3,"status":"declined","offeredAt":"2025-06-01T10:00:00Z","respondedAt":"2025-06-02T10:00:00Z"}]}`)

		require.NoError(t, offer(b, 3, now))
		assert.Equal(t, model.GuideOffered, b.SelectedGuides[0].Status)
		assert.Equal(t, now, *b.SelectedGuides[0].OfferedAt)
		assert.Nil(t, b.SelectedGuides[0].RespondedAt)
	})

	t.Run("confirmed booking keeps its status", func(t *testing.T) {
		b := decodeBooking(t, `{"id":11,"status":"confirmed","selectedGuides":[{"id":3,"status":"accepted"}]}`)

		require.NoError(t, offer(b, 7, now))
		assert.Equal(t, model.BookingConfirmed, b.Status)
		assert.Equal(t, int64(3), *b.GuideID)
	})

	t.Run("accepted guide", func(t *testing.T) {
		b := decodeBooking(t, `{"id":12,"status":"confirmed","selectedGuides":[{"id":3,"status":"accepted"}]}`)
		assert.ErrorIs(t, offer(b, 3, now), assignmentserrors.ErrGuideAlreadyAccepted)
	})
}

func TestClosedBookingsRejectEverything(t *testing.T) {
	for _, status := range []string{"completed", "cancelled"} {
		for _, action := range []Action{ActionAccept, ActionDecline, ActionCancel} {
			b := decodeBooking(t, `{"id":13,"status":"`+status+`","guide_id":3,"selectedGuides":[{"id":3,"status":"accepted"}]}`)
			err := apply(b, action, 3, now)
			assert.ErrorIs(t, err, assignmentserrors.ErrBookingClosed, "%s on %s", action, status)
		}
		b := decodeBooking(t, `{"id":13,"status":"`+status+`","selectedGuides":[]}`)
		assert.ErrorIs(t, offer(b, 3, now), assignmentserrors.ErrBookingClosed)
	}
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("accept")
	require.NoError(t, err)
	assert.Equal(t, model.EventGuideAccepted, a.EventType())

	_, err = ParseAction("maybe")
	assert.ErrorIs(t, err, assignmentserrors.ErrUnknownAction)
}
