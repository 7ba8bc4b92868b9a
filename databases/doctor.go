package databases

// go generate: mockery --name DoctorDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/avalonhealth/hospital-api/models"
)

const doctorName = "doctors"

// DoctorDatabase contains the methods to use with the doctor database
type DoctorDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.Doctor, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.Doctor, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(context.Context, interface{}, interface{}, ...*options.UpdateOptions) error
	DeleteOne(context.Context, interface{}, ...*options.DeleteOptions) error
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)
}

type doctorDatabase struct {
	db DatabaseHelper
}

// NewDoctorDatabase initializes a new instance of doctor database with the provided db connection
func NewDoctorDatabase(db DatabaseHelper) DoctorDatabase {
	return &doctorDatabase{
		db: db,
	}
}

func (d *doctorDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Doctor, error) {
	doctor := &models.Doctor{}
	err := d.db.Collection(doctorName).FindOne(ctx, filter, opts...).Decode(&doctor)
	if err != nil {
		return nil, err
	}
	return doctor, nil
}

func (d *doctorDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Doctor, error) {
	var doctors []models.Doctor
	cur := d.db.Collection(doctorName).Find(ctx, filter, opts...)
	err := cur.Decode(&doctors)
	if err != nil {
		return nil, err
	}
	return doctors, nil
}

func (d *doctorDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res := d.db.Collection(doctorName).InsertOne(ctx, document, opts...)
	return res, nil
}

func (d *doctorDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	return d.db.Collection(doctorName).UpdateOne(ctx, filter, update, opts...)
}

func (d *doctorDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return d.db.Collection(doctorName).DeleteOne(ctx, filter, opts...)
}

func (d *doctorDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return d.db.Collection(doctorName).CountDocuments(ctx, filter, opts...)
}
