package databases

// go generate: mockery --name SchedulerLockDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/avalonhealth/hospital-api/models"
)

const schedulerLockName = "scheduler_locks"

// SchedulerLockDatabase is a Mongo backed distributed lock so cron jobs run
// on exactly one instance. A lock is free when no document exists for the job
// or the existing one has expired.
type SchedulerLockDatabase interface {
	TryAcquireLock(ctx context.Context, jobName, instanceID string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, jobName, instanceID string) error
}

type schedulerLockDatabase struct {
	db DatabaseHelper
}

// NewSchedulerLockDatabase initializes a new instance of scheduler lock database with the provided db connection
func NewSchedulerLockDatabase(db DatabaseHelper) SchedulerLockDatabase {
	return &schedulerLockDatabase{
		db: db,
	}
}

func (s *schedulerLockDatabase) TryAcquireLock(ctx context.Context, jobName, instanceID string, ttl time.Duration) (bool, error) {
	now := time.Now()

	var existing models.SchedulerLock
	err := s.db.Collection(schedulerLockName).FindOne(ctx, bson.M{"_id": jobName}).Decode(&existing)
	if err == nil && existing.ExpiresAt.After(now) && existing.InstanceID != instanceID {
		return false, nil
	}

	lock := models.SchedulerLock{
		ID:         jobName,
		InstanceID: instanceID,
		ExpiresAt:  now.Add(ttl),
		AcquiredAt: now,
	}
	err = s.db.Collection(schedulerLockName).ReplaceOne(ctx, bson.M{"_id": jobName}, lock, replaceUpsert())
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *schedulerLockDatabase) ReleaseLock(ctx context.Context, jobName, instanceID string) error {
	return s.db.Collection(schedulerLockName).DeleteOne(ctx, bson.M{"_id": jobName, "instanceId": instanceID})
}
