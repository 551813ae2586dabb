package validators

import "go.mongodb.org/mongo-driver/bson"

var LoanValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"item_id",
			"patron_id",
			"material_type",
			"issued_at",
			"due_date",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"item_id": bson.M{
				"bsonType": "string",
			},

			"patron_id": bson.M{
				"bsonType": "string",
			},

			"material_type": bson.M{
				"enum": []string{"REGULAR", "REFERENCE", "PERIODICAL", "MEDIA"},
			},

			"issued_at": bson.M{
				"bsonType": "date",
			},

			"due_date": bson.M{
				"bsonType": "date",
			},

			"returned_at": bson.M{
				"bsonType": "date",
			},

			"renewal_count": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},
		},
	},
}
