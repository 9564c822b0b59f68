package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"additionalProperties": true,

		"properties": bson.M{
			"joined_events": bson.M{
				"bsonType": "array",
				"items":    bson.M{"bsonType": "string"},
			},

			"rating_average": bson.M{
				"bsonType": "number",
				"minimum":  0,
				"maximum":  5,
			},

			"rating_count": bson.M{
				"bsonType": "number",
				"minimum":  0,
			},
		},
	},
}

var EventLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"owner", "expires_at"},
		"properties": bson.M{
			"owner":      bson.M{"bsonType": "string"},
			"expires_at": bson.M{"bsonType": "date"},
		},
	},
}
