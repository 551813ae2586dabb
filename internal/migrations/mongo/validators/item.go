package validators

import "go.mongodb.org/mongo-driver/bson"

var ItemValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"barcode",
			"material_type",
			"value",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"barcode": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"title": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"ddc_code": bson.M{
				"bsonType":  "string",
				"maxLength": 32,
			},

			"shelf_location": bson.M{
				"bsonType":  "string",
				"maxLength": 64,
			},

			"material_type": bson.M{
				"enum": []string{"REGULAR", "REFERENCE", "PERIODICAL", "MEDIA"},
			},

			"value": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"status": bson.M{
				"enum": []string{"AVAILABLE", "LOANED", "HELD", "LOST", "PROCESSING"},
			},

			"hold_expires_at": bson.M{
				"bsonType": "date",
			},

			"hold_queue": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"patron_id", "requested_at"},
					"properties": bson.M{
						"patron_id": bson.M{
							"bsonType": "string",
						},
						"requested_at": bson.M{
							"bsonType": "date",
						},
					},
				},
			},

			"loan_count": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
