package databases

// go generate: mockery --name TelemedicineDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/avalonhealth/hospital-api/models"
)

const telemedicineName = "telemedicine_sessions"

// TelemedicineDatabase contains the methods to use with the telemedicine session database
type TelemedicineDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.TelemedicineSession, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.TelemedicineSession, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(context.Context, interface{}, interface{}, ...*options.UpdateOptions) error
	DeleteOne(context.Context, interface{}, ...*options.DeleteOptions) error
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)
}

type telemedicineDatabase struct {
	db DatabaseHelper
}

// NewTelemedicineDatabase initializes a new instance of telemedicine database with the provided db connection
func NewTelemedicineDatabase(db DatabaseHelper) TelemedicineDatabase {
	return &telemedicineDatabase{
		db: db,
	}
}

func (t *telemedicineDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.TelemedicineSession, error) {
	session := &models.TelemedicineSession{}
	err := t.db.Collection(telemedicineName).FindOne(ctx, filter, opts...).Decode(&session)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (t *telemedicineDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.TelemedicineSession, error) {
	var sessions []models.TelemedicineSession
	cur := t.db.Collection(telemedicineName).Find(ctx, filter, opts...)
	err := cur.Decode(&sessions)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (t *telemedicineDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res := t.db.Collection(telemedicineName).InsertOne(ctx, document, opts...)
	return res, nil
}

func (t *telemedicineDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	return t.db.Collection(telemedicineName).UpdateOne(ctx, filter, update, opts...)
}

func (t *telemedicineDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return t.db.Collection(telemedicineName).DeleteOne(ctx, filter, opts...)
}

func (t *telemedicineDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return t.db.Collection(telemedicineName).CountDocuments(ctx, filter, opts...)
}
