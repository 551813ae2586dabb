package validators

import "go.mongodb.org/mongo-driver/bson"

var TransactionValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"patron_id",
			"amount",
			"type",
			"method",
			"actor",
			"timestamp",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"patron_id": bson.M{
				"bsonType": "string",
			},

			"amount": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"type": bson.M{
				"enum": []string{
					"PAYMENT",
					"FINE_ASSESSMENT",
					"REPLACEMENT_ASSESSMENT",
					"DAMAGE_ASSESSMENT",
					"MANUAL_ADJUSTMENT",
					"WAIVE",
				},
			},

			"method": bson.M{
				"enum": []string{"CASH", "SYSTEM"},
			},

			"actor": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 128,
			},

			"item_id": bson.M{
				"bsonType": "string",
			},

			"note": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"timestamp": bson.M{
				"bsonType": "date",
			},
		},
	},
}
