package validators

import "go.mongodb.org/mongo-driver/bson"

var EventValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"host_id",
			"title",
			"starts_at",
			"price",
			"currency",
			"max_participants",
			"current_participants",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"host_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 128,
			},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 200,
			},

			"starts_at": bson.M{
				"bsonType": "date",
			},

			"price": bson.M{
				"bsonType": "number",
				"minimum":  0,
			},

			"currency": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 3,
			},

			"max_participants": bson.M{
				"bsonType": "number",
				"minimum":  1,
			},

			"current_participants": bson.M{
				"bsonType": "number",
				"minimum":  0,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"draft",
					"open",
					"full",
					"cancelled",
					"completed",
				},
			},

			"participants": bson.M{
				"bsonType": "array",
				"items":    bson.M{"bsonType": "string"},
			},

			"waiting_list": bson.M{
				"bsonType": "array",
				"items":    bson.M{"bsonType": "string"},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
