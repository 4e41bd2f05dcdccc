package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

type GuideOfferStatus string

const (
	GuideAvailable GuideOfferStatus = ""
	GuideOffered   GuideOfferStatus = "offered"
	GuideAccepted  GuideOfferStatus = "accepted"
	GuideDeclined  GuideOfferStatus = "declined"
)

var ErrInvalidGuideID = errors.New("invalid guide id")

// ParseGuideOfferStatus maps stored status strings onto the known statuses.
// Legacy "cancelled" entries count as declined; anything unknown is treated as available.
func ParseGuideOfferStatus(s string) GuideOfferStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "offered":
		return GuideOffered
	case "accepted":
		return GuideAccepted
	case "declined", "cancelled", "canceled":
		return GuideDeclined
	default:
		return GuideAvailable
	}
}

// SelectedGuide is one guide considered for a booking.
//
// Older documents store entries as bare numbers, numeric strings, {id} or
// {id, status} objects. Decoding accepts all of them; encoding always writes
// the full object.
type SelectedGuide struct {
	ID          int64            `json:"id" bson:"id"`
	Status      GuideOfferStatus `json:"status,omitempty" bson:"status,omitempty"`
	OfferedAt   *time.Time       `json:"offeredAt,omitempty" bson:"offeredAt,omitempty"`
	RespondedAt *time.Time       `json:"respondedAt,omitempty" bson:"respondedAt,omitempty"`
}

// CoerceGuideID converts a decoded id of any supported shape into an int64.
func CoerceGuideID(v any) (int64, error) {
	var id int64
	switch n := v.(type) {
	case int:
		id = int64(n)
	case int32:
		id = int64(n)
	case int64:
		id = n
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, fmt.Errorf("%w: %v", ErrInvalidGuideID, n)
		}
		id = int64(n)
	case json.Number:
		return CoerceGuideID(n.String())
	case string:
		s := strings.TrimSpace(n)
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil {
				return 0, fmt.Errorf("%w: %q", ErrInvalidGuideID, n)
			}
			return CoerceGuideID(f)
		}
		id = parsed
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidGuideID, v)
	}
	if id <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidGuideID, id)
	}
	return id, nil
}

type selectedGuideJSON struct {
	ID          json.RawMessage `json:"id"`
	Status      string          `json:"status"`
	OfferedAt   *time.Time      `json:"offeredAt"`
	RespondedAt *time.Time      `json:"respondedAt"`
}

func (sg *SelectedGuide) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var raw selectedGuideJSON
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if len(raw.ID) == 0 {
			return fmt.Errorf("%w: missing id", ErrInvalidGuideID)
		}
		id, err := decodeJSONID(raw.ID)
		if err != nil {
			return err
		}
		*sg = SelectedGuide{
			ID:          id,
			Status:      ParseGuideOfferStatus(raw.Status),
			OfferedAt:   raw.OfferedAt,
			RespondedAt: raw.RespondedAt,
		}
		return nil
	}

	id, err := decodeJSONID(data)
	if err != nil {
		return err
	}
	*sg = SelectedGuide{ID: id}
	return nil
}

func decodeJSONID(data []byte) (int64, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidGuideID, err)
	}
	return CoerceGuideID(v)
}

func (sg *SelectedGuide) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	if t != bson.TypeEmbeddedDocument {
		id, err := bsonID(rv)
		if err != nil {
			return err
		}
		*sg = SelectedGuide{ID: id}
		return nil
	}

	doc := bson.Raw(data)
	idVal, err := doc.LookupErr("id")
	if err != nil {
		return fmt.Errorf("%w: missing id", ErrInvalidGuideID)
	}
	id, err := bsonID(idVal)
	if err != nil {
		return err
	}

	out := SelectedGuide{ID: id}
	if v, err := doc.LookupErr("status"); err == nil {
		if s, ok := v.StringValueOK(); ok {
			out.Status = ParseGuideOfferStatus(s)
		}
	}
	out.OfferedAt = bsonTime(doc, "offeredAt")
	out.RespondedAt = bsonTime(doc, "respondedAt")
	*sg = out
	return nil
}

func bsonID(v bson.RawValue) (int64, error) {
	switch v.Type {
	case bson.TypeInt32:
		return CoerceGuideID(v.Int32())
	case bson.TypeInt64:
		return CoerceGuideID(v.Int64())
	case bson.TypeDouble:
		return CoerceGuideID(v.Double())
	case bson.TypeString:
		return CoerceGuideID(v.StringValue())
	default:
		return 0, fmt.Errorf("%w: bson type %s", ErrInvalidGuideID, v.Type)
	}
}

func bsonTime(doc bson.Raw, key string) *time.Time {
	v, err := doc.LookupErr(key)
	if err != nil {
		return nil
	}
	switch v.Type {
	case bson.TypeDateTime:
		t := time.UnixMilli(v.DateTime()).UTC()
		return &t
	case bson.TypeString:
		t, err := time.Parse(time.RFC3339, v.StringValue())
		if err != nil {
			return nil
		}
		t = t.UTC()
		return &t
	default:
		return nil
	}
}

// FlexibleID is a request-side id that accepts both JSON numbers and numeric strings.
type FlexibleID int64

func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	id, err := decodeJSONID(data)
	if err != nil {
		return err
	}
	*f = FlexibleID(id)
	return nil
}
