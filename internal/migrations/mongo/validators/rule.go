package validators

import "go.mongodb.org/mongo-driver/bson"

var RuleValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"patron_group",
			"material_type",
			"loan_days",
			"max_items",
			"fine_per_day",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"patron_group": bson.M{
				"enum": []string{"STUDENT", "TEACHER", "LIBRARIAN", "ADMINISTRATOR"},
			},

			"material_type": bson.M{
				"enum": []string{"REGULAR", "REFERENCE", "PERIODICAL", "MEDIA"},
			},

			"loan_days": bson.M{
				"bsonType": "int",
				"minimum":  0,
				"maximum":  365,
			},

			"max_items": bson.M{
				"bsonType": "int",
				"minimum":  0,
				"maximum":  200,
			},

			"fine_per_day": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},
		},
	},
}

var EntityLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"owner",
			"expires_at",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"owner": bson.M{
				"bsonType": "string",
			},

			"expires_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
