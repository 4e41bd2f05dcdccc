package validators

import "go.mongodb.org/mongo-driver/bson"

var selectedGuideSchema = bson.M{
	"bsonType": "object",
	"required": []string{"id"},
	"properties": bson.M{
		"id": bson.M{
			"bsonType": []string{"int", "long"},
			"minimum":  1,
		},
		"status": bson.M{
			"bsonType": "string",
			"enum":     []string{"offered", "accepted", "declined"},
		},
		"offeredAt": bson.M{
			"bsonType": "date",
		},
		"respondedAt": bson.M{
			"bsonType": "date",
		},
	},
}

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"tour_id",
			"status",
			"tour_datetime",
			"selectedGuides",
			"version",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": []string{"int", "long"},
			},

			"tour_id": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"guide_id": bson.M{
				"bsonType": []string{"int", "long", "null"},
			},

			"guide_ids": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": []string{"int", "long"},
				},
			},

			"selectedGuides": bson.M{
				"bsonType": "array",
				"maxItems": 50,
				"items":    selectedGuideSchema,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"quote_pending",
					"pending_guide_confirmation",
					"confirmed",
					"completed",
					"cancelled",
				},
			},

			"tour_datetime": bson.M{
				"bsonType": "date",
			},

			"tour_end": bson.M{
				"bsonType": "date",
			},

			"invitees": bson.M{
				"bsonType": "array",
				"maxItems": 50,
			},

			"picturesUploaded": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"version": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
