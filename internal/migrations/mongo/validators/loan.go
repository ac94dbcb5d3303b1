package validators

import "go.mongodb.org/mongo-driver/bson"

var LoanValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"book_id",
			"user_id",
			"borrow_date",
			"due_date",
			"status",
			"renewal_count",
			"fine",
			"updated_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{"bsonType": "objectId"},

			"book_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"user_id": bson.M{"bsonType": "string", "minLength": 1},

			"borrow_date": bson.M{"bsonType": "date"},
			"due_date":    bson.M{"bsonType": "date"},
			"return_date": bson.M{"bsonType": "date"},

			"status": bson.M{
				"enum": []string{"borrowed", "returned"},
			},

			// admin overrides may exceed the member renewal cap, so only the floor is enforced
			"renewal_count": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"fine": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},
			"fine_paid":  bson.M{"bsonType": "bool"},
			"created_by": bson.M{"bsonType": "string"},
			"updated_at": bson.M{"bsonType": "date"},
		},
	},
}

var LoanLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"_id", "owner", "expires_at", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "string"},
			"owner":      bson.M{"bsonType": "string"},
			"expires_at": bson.M{"bsonType": "date"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
