package databases

// go generate: mockery --name StaffDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/avalonhealth/hospital-api/models"
)

const staffName = "staff"

// StaffDatabase contains the methods to use with the staff database
type StaffDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.Staff, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.Staff, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(context.Context, interface{}, interface{}, ...*options.UpdateOptions) error
	DeleteOne(context.Context, interface{}, ...*options.DeleteOptions) error
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)
}

type staffDatabase struct {
	db DatabaseHelper
}

// NewStaffDatabase initializes a new instance of staff database with the provided db connection
func NewStaffDatabase(db DatabaseHelper) StaffDatabase {
	return &staffDatabase{
		db: db,
	}
}

func (s *staffDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Staff, error) {
	staff := &models.Staff{}
	err := s.db.Collection(staffName).FindOne(ctx, filter, opts...).Decode(&staff)
	if err != nil {
		return nil, err
	}
	return staff, nil
}

func (s *staffDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Staff, error) {
	var staff []models.Staff
	cur := s.db.Collection(staffName).Find(ctx, filter, opts...)
	err := cur.Decode(&staff)
	if err != nil {
		return nil, err
	}
	return staff, nil
}

func (s *staffDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res := s.db.Collection(staffName).InsertOne(ctx, document, opts...)
	return res, nil
}

func (s *staffDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	return s.db.Collection(staffName).UpdateOne(ctx, filter, update, opts...)
}

func (s *staffDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return s.db.Collection(staffName).DeleteOne(ctx, filter, opts...)
}

func (s *staffDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return s.db.Collection(staffName).CountDocuments(ctx, filter, opts...)
}
