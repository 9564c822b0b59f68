package validators

import "go.mongodb.org/mongo-driver/bson"

var PaymentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"event_id",
			"user_id",
			"payment_intent_id",
			"amount",
			"currency",
			"status",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"payment_intent_id": bson.M{
				"bsonType":  "string",
				"minLength": 3,
			},

			"amount": bson.M{
				"bsonType": "number",
				"minimum":  0,
			},

			"refund_amount": bson.M{
				"bsonType": "number",
				"minimum":  0,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"succeeded",
					"failed",
					"refunded",
					"partially_refunded",
				},
			},
		},
	},
}
