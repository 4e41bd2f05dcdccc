package model

import "time"

type Guide struct {
	ID             int64     `json:"id" bson:"_id"`
	Name           string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email          string    `json:"email" bson:"email" validate:"required,email"`
	Phone          string    `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
	Languages      []string  `json:"languages" bson:"languages" validate:"omitempty,max=10,dive,oneof=nl fr en de es it"`
	CancelledTours int       `json:"cancelled_tours" bson:"cancelled_tours"`
	PhotosUploaded int       `json:"photos_uploaded" bson:"photos_uploaded"`
	ToursCompleted int       `json:"tours_completed" bson:"tours_completed"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}

type GuideUpdate struct {
	Name      string    `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Email     string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone     string    `json:"phone,omitempty" validate:"omitempty,e164"`
	Languages *[]string `json:"languages,omitempty" validate:"omitempty,max=10,dive,oneof=nl fr en de es it"`
}
