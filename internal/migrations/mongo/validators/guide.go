package validators

import "go.mongodb.org/mongo-driver/bson"

var GuideValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"name", "email", "created_at"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": []string{"int", "long"},
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"email": bson.M{
				"bsonType": "string",
				"pattern":  "^[^@\\s]+@[^@\\s]+$",
			},

			"phone": bson.M{
				"bsonType": "string",
				"pattern":  "^\\+[1-9]\\d{7,14}$",
			},

			"languages": bson.M{
				"bsonType": "array",
				"maxItems": 10,
				"items": bson.M{
					"bsonType": "string",
					"enum":     []string{"nl", "fr", "en", "de", "es", "it"},
				},
			},

			"cancelled_tours": bson.M{"bsonType": []string{"int", "long"}, "minimum": 0},
			"photos_uploaded": bson.M{"bsonType": []string{"int", "long"}, "minimum": 0},
			"tours_completed": bson.M{"bsonType": []string{"int", "long"}, "minimum": 0},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
