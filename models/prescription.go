package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Prescription holds the structure for the prescriptions collection in mongo.
// Patient and doctor names are snapshots taken when the prescription is
// written.
type Prescription struct {
	ID primitive.ObjectID `json:"_id" bson:"_id,omitempty"`

	PatientID   string `json:"patientId" bson:"patientId"`
	PatientName string `json:"patientName" bson:"patientName"`
	DoctorID    string `json:"doctorId" bson:"doctorId"`
	DoctorName  string `json:"doctorName" bson:"doctorName"`

	Diagnosis string               `json:"diagnosis" bson:"diagnosis"`
	Medicines []PrescribedMedicine `json:"medicines" bson:"medicines"`
	Notes     string               `json:"notes" bson:"notes"`

	PrescribedAt time.Time `json:"prescribedAt" bson:"prescribedAt"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// PrescribedMedicine is one medicine line on a prescription
type PrescribedMedicine struct {
	Name         string `json:"name" bson:"name"`
	Dosage       string `json:"dosage" bson:"dosage"`
	Frequency    string `json:"frequency" bson:"frequency"`
	Duration     string `json:"duration" bson:"duration"`
	Instructions string `json:"instructions" bson:"instructions"`
}
