package model

import "time"

type Book struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	Title     string    `json:"title" bson:"title" validate:"required,min=1,max=200"`
	Author    string    `json:"author" bson:"author" validate:"required,min=1,max=120"`
	ISBN      string    `json:"isbn,omitempty" bson:"isbn,omitempty" validate:"omitempty,isbn"`
	Category  string    `json:"category,omitempty" bson:"category,omitempty" validate:"omitempty,max=60"`
	CoverURL  string    `json:"cover_url,omitempty" bson:"cover_url,omitempty" validate:"omitempty,url"`
	Stock     int       `json:"stock" bson:"stock" validate:"min=0,max=10000"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type StockAdjustment struct {
	Delta int `json:"delta" validate:"required,min=-10000,max=10000"`
}
