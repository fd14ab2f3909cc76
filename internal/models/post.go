package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents an environmental report stored in MongoDB.
// Posts are immutable once created; engagement lives in the
// reaction tables, not on the post document.
type Post struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AuthorID  string             `json:"author_id" bson:"author_id"` // ID of the user who created the post, as a string
	Title     string             `json:"title" bson:"title"`
	Caption   string             `json:"caption" bson:"caption"`
	Location  string             `json:"location" bson:"location"` // Free-text address as confirmed by the author
	Latitude  float64            `json:"latitude" bson:"latitude"`
	Longitude float64            `json:"longitude" bson:"longitude"`
	Scale     string             `json:"scale" bson:"scale"` // small, medium or large
	ImageURL  string             `json:"image_url,omitempty" bson:"image_url,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Title     string  `json:"title" validate:"required,min=1,max=120"`
	Caption   string  `json:"caption" validate:"required,min=1,max=2000"`
	Location  string  `json:"location" validate:"required,min=1,max=200"`
	Latitude  float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
	Scale     string  `json:"scale" validate:"required,oneof=small medium large"`
	ImageURL  string  `json:"image_url,omitempty" validate:"omitempty,url"`
}
