package validators

import "go.mongodb.org/mongo-driver/bson"

var MemberValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"user_id",
			"name",
			"email",
			"phone",
			"ktp_number",
			"ktp_image_url",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":     bson.M{"bsonType": "objectId"},
			"user_id": bson.M{"bsonType": "string", "minLength": 1},
			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},
			"email": bson.M{"bsonType": "string"},
			"phone": bson.M{"bsonType": "string"},
			"ktp_number": bson.M{
				"bsonType": "string",
				"pattern":  "^[0-9]{16}$",
			},
			"ktp_image_url": bson.M{"bsonType": "string"},
			"status": bson.M{
				"enum": []string{"pending", "verified", "rejected"},
			},
			"rejection_reason": bson.M{"bsonType": "string", "maxLength": 300},
			"reviewed_by":      bson.M{"bsonType": "string"},
			"reviewed_at":      bson.M{"bsonType": "date"},
			"created_at":       bson.M{"bsonType": "date"},
		},
	},
}
