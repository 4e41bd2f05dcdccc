package mongo

import (
	"testing"

	"beroepsbelg/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func decodeStored(t *testing.T, doc bson.M) (bson.Raw, storedBooking) {
	t.Helper()
	data, err := bson.Marshal(doc)
	require.NoError(t, err)

	var out storedBooking
	require.NoError(t, bson.Unmarshal(data, &out))
	return bson.Raw(data), out
}

func statuses(guides []model.SelectedGuide) map[int64]model.GuideOfferStatus {
	out := make(map[int64]model.GuideOfferStatus, len(guides))
	for _, sg := range guides {
		out[sg.ID] = sg.Status
	}
	return out
}

func TestNormalizeGuides_MixedLegacyShapes(t *testing.T) {
	raw, doc := decodeStored(t, bson.M{
		"_id":    int64(551),
		"status": "pending_guide_confirmation",
		"selectedGuides": bson.A{
			int32(3),
			"7",
			bson.M{"id": 12.0},
			bson.M{"id": "15", "status": "offered"},
			bson.M{"id": int64(16), "status": "cancelled"},
		},
		"version": int64(4),
	})

	fields := normalizeGuides(doc)

	assert.Equal(t, map[int64]model.GuideOfferStatus{
		3:  model.GuideAvailable,
		7:  model.GuideAvailable,
		12: model.GuideAvailable,
		15: model.GuideOffered,
		16: model.GuideDeclined,
	}, statuses(fields.SelectedGuides))
	assert.Equal(t, []int64{15}, fields.GuideIDs)
	assert.Nil(t, fields.GuideID)
	assert.True(t, needsRewrite(raw, doc, fields))
}

func TestNormalizeGuides_LegacyGuideID(t *testing.T) {
	tests := []struct {
		name   string
		status string
		guides bson.A
		want   model.GuideOfferStatus
	}{
		{name: "confirmed booking", status: "confirmed", guides: bson.A{bson.M{"id": int64(12)}}, want: model.GuideAccepted},
		{name: "pending booking", status: "pending_guide_confirmation", guides: bson.A{bson.M{"id": int64(12)}}, want: model.GuideOffered},
		{name: "guide missing from list", status: "completed", guides: bson.A{}, want: model.GuideAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, doc := decodeStored(t, bson.M{
				"_id":            int64(551),
				"status":         tt.status,
				"guide_id":       int32(12),
				"selectedGuides": tt.guides,
			})

			fields := normalizeGuides(doc)
			assert.Equal(t, tt.want, statuses(fields.SelectedGuides)[12])
			require.NotNil(t, fields.GuideID)
			assert.Equal(t, int64(12), *fields.GuideID)
		})
	}
}

func TestNormalizeGuides_KeepsExistingAcceptance(t *testing.T) {
	_, doc := decodeStored(t, bson.M{
		"_id":      int64(9),
		"status":   "confirmed",
		"guide_id": int64(7),
		"selectedGuides": bson.A{
			bson.M{"id": int64(3), "status": "accepted"},
			bson.M{"id": int64(7)},
		},
	})

	fields := normalizeGuides(doc)
	assert.Equal(t, model.GuideAccepted, statuses(fields.SelectedGuides)[3])
	assert.Equal(t, model.GuideOffered, statuses(fields.SelectedGuides)[7])
	assert.Equal(t, int64(3), *fields.GuideID)
}

func TestNeedsRewrite_NormalizedDocument(t *testing.T) {
	raw, doc := decodeStored(t, bson.M{
		"_id":    int64(1),
		"status": "confirmed",
		"selectedGuides": bson.A{
			bson.M{"id": int64(3), "status": "accepted"},
			bson.M{"id": int64(7), "status": "declined"},
		},
		"guide_ids": bson.A{int64(3)},
		"guide_id":  int64(3),
		"version":   int64(2),
	})

	assert.False(t, needsRewrite(raw, doc, normalizeGuides(doc)))
}

func TestNeedsRewrite_MissingVersion(t *testing.T) {
	raw, doc := decodeStored(t, bson.M{
		"_id":            int64(1),
		"status":         "quote_pending",
		"selectedGuides": bson.A{},
		"guide_ids":      bson.A{},
		"guide_id":       nil,
	})

	assert.True(t, needsRewrite(raw, doc, normalizeGuides(doc)))
}

func TestLegacyShape(t *testing.T) {
	tests := []struct {
		name   string
		guides any
		want   bool
	}{
		{name: "normalized", guides: bson.A{bson.M{"id": int64(3), "status": "offered"}}, want: false},
		{name: "bare number", guides: bson.A{int64(3)}, want: true},
		{name: "string id", guides: bson.A{bson.M{"id": "3"}}, want: true},
		{name: "legacy status", guides: bson.A{bson.M{"id": int64(3), "status": "Cancelled"}}, want: true},
		{name: "not an array", guides: "3,7", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := bson.Marshal(bson.M{"selectedGuides": tt.guides})
			require.NoError(t, err)
			assert.Equal(t, tt.want, legacyShape(bson.Raw(data)))
		})
	}
}
