package validators

import "go.mongodb.org/mongo-driver/bson"

var ProfileValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"is_admin"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},
			"is_admin": bson.M{
				"bsonType": "bool",
			},
			"guide_id": bson.M{
				"bsonType": []string{"int", "long", "null"},
			},
		},
	},
}
