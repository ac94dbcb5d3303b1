package validators

import "go.mongodb.org/mongo-driver/bson"

var PaymentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"order_id", "kind", "amount", "status", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":      bson.M{"bsonType": "objectId"},
			"order_id": bson.M{"bsonType": "string", "minLength": 1, "maxLength": 50},
			"kind":     bson.M{"enum": []string{"fine", "donation"}},
			"user_id":  bson.M{"bsonType": "string"},
			"loan_id":  bson.M{"bsonType": "string"},
			"amount": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},
			"status":         bson.M{"enum": []string{"paid", "pending", "failed"}},
			"gateway_status": bson.M{"bsonType": "string"},
			"fraud_status":   bson.M{"bsonType": "string"},
			"created_at":     bson.M{"bsonType": "date"},
			"updated_at":     bson.M{"bsonType": "date"},
		},
	},
}
