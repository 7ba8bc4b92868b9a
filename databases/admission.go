package databases

// go generate: mockery --name AdmissionDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/avalonhealth/hospital-api/models"
)

const admissionName = "admissions"

// AdmissionDatabase contains the methods to use with the admission database.
// InsertOne and Save run the derived-field recomputation (total charges,
// expected discharge date) before every write, so stored documents never
// carry stale charges.
type AdmissionDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.Admission, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.Admission, error)
	InsertOne(context.Context, *models.Admission) (InsertOneResultHelper, error)
	Save(context.Context, *models.Admission) error
	DeleteOne(context.Context, interface{}, ...*options.DeleteOptions) error
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)
}

type admissionDatabase struct {
	db DatabaseHelper
}

// NewAdmissionDatabase initializes a new instance of admission database with the provided db connection
func NewAdmissionDatabase(db DatabaseHelper) AdmissionDatabase {
	return &admissionDatabase{
		db: db,
	}
}

func (a *admissionDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Admission, error) {
	admission := &models.Admission{}
	err := a.db.Collection(admissionName).FindOne(ctx, filter, opts...).Decode(&admission)
	if err != nil {
		return nil, err
	}
	return admission, nil
}

func (a *admissionDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Admission, error) {
	var admissions []models.Admission
	cur := a.db.Collection(admissionName).Find(ctx, filter, opts...)
	err := cur.Decode(&admissions)
	if err != nil {
		return nil, err
	}
	return admissions, nil
}

func (a *admissionDatabase) InsertOne(ctx context.Context, admission *models.Admission) (InsertOneResultHelper, error) {
	now := time.Now()
	if admission.ID.IsZero() {
		admission.ID = primitive.NewObjectID()
	}
	if admission.AdmissionID == "" {
		admission.AdmissionID = models.NewAdmissionID(now)
	}
	if admission.AdmissionDate.IsZero() {
		admission.AdmissionDate = now
	}
	if admission.Status == "" {
		admission.Status = models.AdmissionStatusAdmitted
	}
	admission.CreatedAt = now
	admission.ApplyDerivedFields(now)
	res := a.db.Collection(admissionName).InsertOne(ctx, admission)
	return res, nil
}

// Save replaces the whole admission document after recomputing derived
// fields. This is a plain read-modify-write: concurrent saves against the
// same admission race last-write-wins, matching the rest of the store.
func (a *admissionDatabase) Save(ctx context.Context, admission *models.Admission) error {
	admission.ApplyDerivedFields(time.Now())
	return a.db.Collection(admissionName).ReplaceOne(ctx, bson.M{"_id": admission.ID}, admission)
}

func (a *admissionDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return a.db.Collection(admissionName).DeleteOne(ctx, filter, opts...)
}

func (a *admissionDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return a.db.Collection(admissionName).CountDocuments(ctx, filter, opts...)
}
