package validators

import "go.mongodb.org/mongo-driver/bson"

var BookValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"title", "author", "stock", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":    bson.M{"bsonType": "objectId"},
			"title":  bson.M{"bsonType": "string", "minLength": 1, "maxLength": 200},
			"author": bson.M{"bsonType": "string", "minLength": 1, "maxLength": 120},
			"isbn":   bson.M{"bsonType": "string"},
			"category": bson.M{
				"bsonType":  "string",
				"maxLength": 60,
			},
			"cover_url": bson.M{"bsonType": "string"},
			// stock never goes negative; borrow decrements are guarded in the filter
			"stock": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
