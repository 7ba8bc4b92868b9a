package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Doctor holds the structure for the doctors collection in mongo
type Doctor struct {
	ID primitive.ObjectID `json:"_id" bson:"_id,omitempty"`

	Name           string  `json:"name" bson:"name"`
	Email          string  `json:"email" bson:"email"`
	Password       string  `json:"password,omitempty" bson:"password"`
	Phone          string  `json:"phone" bson:"phone"`
	Specialization string  `json:"specialization" bson:"specialization"`
	Department     string  `json:"department" bson:"department"`
	Qualification  string  `json:"qualification" bson:"qualification"`
	Experience     int     `json:"experience" bson:"experience"`
	ConsultationFee float64 `json:"consultationFee" bson:"consultationFee"`

	Available bool   `json:"available" bson:"available"`
	Timings   string `json:"timings" bson:"timings"`

	ImageURL string `json:"imageUrl" bson:"imageUrl"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
