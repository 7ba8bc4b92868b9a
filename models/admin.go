package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Admin holds the structure for the admins collection in mongo
type Admin struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Email    string             `json:"email" bson:"email"`
	Password string             `json:"-" bson:"password"`
	Roles    []string           `json:"roles" bson:"roles"`
	Active   bool               `json:"active" bson:"active"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// AdminPasswordReset holds a hashed one time reset token for an admin
type AdminPasswordReset struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	AdminID   primitive.ObjectID `json:"adminId" bson:"adminId"`
	TokenHash string             `json:"-" bson:"tokenHash"`
	ExpiresAt time.Time          `json:"expiresAt" bson:"expiresAt"`
	UsedAt    *time.Time         `json:"usedAt,omitempty" bson:"usedAt,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// SchedulerLock is a distributed lock document used to keep cron jobs from
// running on more than one instance at a time
type SchedulerLock struct {
	ID         string    `json:"_id" bson:"_id"` // job name
	InstanceID string    `json:"instanceId" bson:"instanceId"`
	ExpiresAt  time.Time `json:"expiresAt" bson:"expiresAt"`
	AcquiredAt time.Time `json:"acquiredAt" bson:"acquiredAt"`
}
