package validators

import "go.mongodb.org/mongo-driver/bson"

var PatronValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"full_name",
			"group",
			"balance",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"full_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 255,
			},

			"group": bson.M{
				"enum": []string{"STUDENT", "TEACHER", "LIBRARIAN", "ADMINISTRATOR"},
			},

			"class_name": bson.M{
				"bsonType":  "string",
				"maxLength": 64,
			},

			"email": bson.M{
				"bsonType":  "string",
				"maxLength": 255,
			},

			"phone": bson.M{
				"bsonType":  "string",
				"maxLength": 20,
			},

			"balance": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
