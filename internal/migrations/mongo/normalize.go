package mongo

import (
	"context"
	"fmt"
	"slices"

	"beroepsbelg/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const normalizeBatchSize = 500

// storedBooking holds the guide fields of a booking document as they are stored.
type storedBooking struct {
	ID             int64                 `bson:"_id"`
	Status         model.BookingStatus   `bson:"status"`
	GuideID        bson.RawValue         `bson:"guide_id"`
	GuideIDs       bson.RawValue         `bson:"guide_ids"`
	SelectedGuides []model.SelectedGuide `bson:"selectedGuides"`
	Version        int64                 `bson:"version"`
}

// guideFields is the normalized form written back.
type guideFields struct {
	SelectedGuides []model.SelectedGuide
	GuideIDs       []int64
	GuideID        *int64
}

// NormalizeBookings rewrites bookings whose guide fields use a legacy shape or
// disagree with selectedGuides. It returns the number of updated documents.
func NormalizeBookings(ctx context.Context, coll *mongo.Collection) (int, error) {
	cursor, err := coll.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{
		"status":         1,
		"guide_id":       1,
		"guide_ids":      1,
		"selectedGuides": 1,
		"version":        1,
	}))
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var (
		batch   []mongo.WriteModel
		updated int
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		res, err := coll.BulkWrite(ctx, batch, options.BulkWrite().SetOrdered(false))
		if err != nil {
			return err
		}
		updated += int(res.ModifiedCount)
		batch = batch[:0]
		return nil
	}

	for cursor.Next(ctx) {
		var doc storedBooking
		if err := cursor.Decode(&doc); err != nil {
			return updated, fmt.Errorf("decode booking %v: %w", cursor.Current.Lookup("_id"), err)
		}

		fields := normalizeGuides(doc)
		if !needsRewrite(cursor.Current, doc, fields) {
			continue
		}

		set := bson.M{
			"selectedGuides": fields.SelectedGuides,
			"guide_ids":      fields.GuideIDs,
			"guide_id":       fields.GuideID,
		}
		if doc.Version < 1 {
			set["version"] = int64(1)
		}
		batch = append(batch, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": doc.ID}).
			SetUpdate(bson.M{"$set": set}))

		if len(batch) >= normalizeBatchSize {
			if err := flush(); err != nil {
				return updated, err
			}
		}
	}
	if err := cursor.Err(); err != nil {
		return updated, err
	}
	return updated, flush()
}

// normalizeGuides derives the guide fields of a stored booking the same way
// the repository does on read.
func normalizeGuides(doc storedBooking) guideFields {
	b := model.Booking{
		Status:         doc.Status,
		SelectedGuides: slices.Clone(doc.SelectedGuides),
	}
	if legacyID, ok := rawGuideID(doc.GuideID); ok {
		b.GuideID = &legacyID
	}

	b.Normalize()
	return guideFields{
		SelectedGuides: b.SelectedGuides,
		GuideIDs:       b.GuideIDs,
		GuideID:        b.GuideID,
	}
}

func needsRewrite(raw bson.Raw, doc storedBooking, fields guideFields) bool {
	if doc.Version < 1 || legacyShape(raw) {
		return true
	}
	if !slices.EqualFunc(doc.SelectedGuides, fields.SelectedGuides, func(a, b model.SelectedGuide) bool {
		return a.ID == b.ID && a.Status == b.Status
	}) {
		return true
	}

	stored, ok := rawGuideID(doc.GuideID)
	if ok != (fields.GuideID != nil) || (ok && stored != *fields.GuideID) {
		return true
	}

	arr, ok := doc.GuideIDs.ArrayOK()
	if !ok {
		return true
	}
	values, err := arr.Values()
	if err != nil {
		return true
	}
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		if v.Type != bson.TypeInt64 {
			return true
		}
		ids = append(ids, v.Int64())
	}
	return !slices.Equal(ids, fields.GuideIDs)
}

// legacyShape reports whether selectedGuides holds bare ids, string ids or
// status values outside the current set.
func legacyShape(raw bson.Raw) bool {
	v, err := raw.LookupErr("selectedGuides")
	if err != nil {
		return true
	}
	arr, ok := v.ArrayOK()
	if !ok {
		return true
	}
	values, err := arr.Values()
	if err != nil {
		return true
	}
	for _, el := range values {
		doc, ok := el.DocumentOK()
		if !ok {
			return true
		}
		id, err := doc.LookupErr("id")
		if err != nil || id.Type != bson.TypeInt64 {
			return true
		}
		if st, err := doc.LookupErr("status"); err == nil {
			s, ok := st.StringValueOK()
			if !ok || string(model.ParseGuideOfferStatus(s)) != s {
				return true
			}
		}
	}
	return false
}

func rawGuideID(v bson.RawValue) (int64, bool) {
	var (
		id  int64
		err error
	)
	switch v.Type {
	case bson.TypeInt32:
		id, err = model.CoerceGuideID(v.Int32())
	case bson.TypeInt64:
		id, err = model.CoerceGuideID(v.Int64())
	case bson.TypeDouble:
		id, err = model.CoerceGuideID(v.Double())
	case bson.TypeString:
		id, err = model.CoerceGuideID(v.StringValue())
	default:
		return 0, false
	}
	return id, err == nil
}
