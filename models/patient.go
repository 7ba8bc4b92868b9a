package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Patient holds the structure for the patients collection in mongo.
// DateOfBirth keeps the portal's underscore delimited DD_MM_YYYY format.
type Patient struct {
	ID primitive.ObjectID `json:"_id" bson:"_id,omitempty"`

	Name        string `json:"name" bson:"name"`
	Email       string `json:"email" bson:"email"`
	Password    string `json:"password,omitempty" bson:"password"`
	Phone       string `json:"phone" bson:"phone"`
	Gender      string `json:"gender" bson:"gender"`
	DateOfBirth string `json:"dateOfBirth" bson:"dateOfBirth"`
	Age         int    `json:"age,omitempty" bson:"age,omitempty"`
	BloodGroup  string `json:"bloodGroup" bson:"bloodGroup"`
	Address     string `json:"address" bson:"address"`

	EmergencyContact *EmergencyContact `json:"emergencyContact,omitempty" bson:"emergencyContact,omitempty"`

	MedicalHistory []string `json:"medicalHistory" bson:"medicalHistory"`
	Allergies      []string `json:"allergies" bson:"allergies"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
