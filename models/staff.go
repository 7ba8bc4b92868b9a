package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Staff holds the structure for the staff collection in mongo
type Staff struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	EmployeeID string             `json:"employeeId" bson:"employeeId"`

	Name       string `json:"name" bson:"name"`
	Email      string `json:"email" bson:"email"`
	Phone      string `json:"phone" bson:"phone"`
	Role       string `json:"role" bson:"role"` // Nurse, Technician, Receptionist, Pharmacist, Other
	Department string `json:"department" bson:"department"`
	Shift      string `json:"shift" bson:"shift"` // Morning, Evening, Night

	Salary      float64    `json:"salary" bson:"salary"`
	JoiningDate *time.Time `json:"joiningDate,omitempty" bson:"joiningDate,omitempty"`

	ImageURL string `json:"imageUrl" bson:"imageUrl"`
	Active   bool   `json:"active" bson:"active"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// EmployeeID formats an employee code from a sequence value, e.g. EMP0042
func EmployeeID(seq int64) string {
	return fmt.Sprintf("EMP%04d", seq)
}
