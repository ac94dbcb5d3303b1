package validators

import "go.mongodb.org/mongo-driver/bson"

var NotificationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"user_id", "kind", "message", "dedup_key", "read", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":     bson.M{"bsonType": "objectId"},
			"user_id": bson.M{"bsonType": "string", "minLength": 1},
			"loan_id": bson.M{"bsonType": "string"},
			"kind": bson.M{
				"enum": []string{"loan_borrowed", "loan_renewed", "loan_returned", "due_soon", "overdue"},
			},
			"message":    bson.M{"bsonType": "string"},
			"dedup_key":  bson.M{"bsonType": "string", "minLength": 1},
			"read":       bson.M{"bsonType": "bool"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
