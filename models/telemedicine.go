package models

import (
	"math/rand"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Telemedicine session status values
const (
	SessionStatusScheduled = "Scheduled"
	SessionStatusOngoing   = "Ongoing"
	SessionStatusCompleted = "Completed"
	SessionStatusCancelled = "Cancelled"
)

// TelemedicineSession holds the structure for the telemedicine_sessions
// collection in mongo. The video call itself runs client side; the server
// only tracks scheduling state and the room code handed to both parties.
type TelemedicineSession struct {
	ID primitive.ObjectID `json:"_id" bson:"_id,omitempty"`

	PatientID   string `json:"patientId" bson:"patientId"`
	PatientName string `json:"patientName" bson:"patientName"`
	DoctorID    string `json:"doctorId" bson:"doctorId"`
	DoctorName  string `json:"doctorName" bson:"doctorName"`

	ScheduledAt time.Time `json:"scheduledAt" bson:"scheduledAt"`
	Duration    int       `json:"duration" bson:"duration"` // minutes

	RoomCode string `json:"roomCode" bson:"roomCode"`
	Reason   string `json:"reason" bson:"reason"`
	Notes    string `json:"notes" bson:"notes"`

	Status string `json:"status" bson:"status"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// roomCodeAlphabet leaves out look-alike characters (0/O, 1/I/L)
const roomCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// NewRoomCode generates a short join code shared with both parties of a
// session, e.g. XK7Q-M2RD
func NewRoomCode() string {
	code := make([]byte, 9)
	for i := range code {
		if i == 4 {
			code[i] = '-'
			continue
		}
		code[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
	}
	return string(code)
}
