package databases

// go generate: mockery --name BillDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/avalonhealth/hospital-api/models"
)

const billName = "bills"

// BillDatabase contains the methods to use with the bill database. InsertOne
// and Save rederive the bill totals from the service lines on every write;
// client supplied totals never survive a save.
type BillDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.Bill, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.Bill, error)
	InsertOne(context.Context, *models.Bill) (InsertOneResultHelper, error)
	Save(context.Context, *models.Bill) error
	DeleteOne(context.Context, interface{}, ...*options.DeleteOptions) error
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)
	Aggregate(context.Context, interface{}, ...*options.AggregateOptions) (CursorHelper, error)
}

type billDatabase struct {
	db DatabaseHelper
}

// NewBillDatabase initializes a new instance of bill database with the provided db connection
func NewBillDatabase(db DatabaseHelper) BillDatabase {
	return &billDatabase{
		db: db,
	}
}

func (b *billDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Bill, error) {
	bill := &models.Bill{}
	err := b.db.Collection(billName).FindOne(ctx, filter, opts...).Decode(&bill)
	if err != nil {
		return nil, err
	}
	return bill, nil
}

func (b *billDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Bill, error) {
	var bills []models.Bill
	cur := b.db.Collection(billName).Find(ctx, filter, opts...)
	err := cur.Decode(&bills)
	if err != nil {
		return nil, err
	}
	return bills, nil
}

func (b *billDatabase) InsertOne(ctx context.Context, bill *models.Bill) (InsertOneResultHelper, error) {
	now := time.Now()
	if bill.ID.IsZero() {
		bill.ID = primitive.NewObjectID()
	}
	if bill.BillingDate.IsZero() {
		bill.BillingDate = now
	}
	if bill.DueDate.IsZero() {
		bill.DueDate = bill.BillingDate.AddDate(0, 0, 30)
	}
	if bill.PaymentStatus == "" {
		bill.PaymentStatus = models.PaymentStatusPending
	}
	bill.CreatedAt = now
	bill.UpdatedAt = now
	bill.RecalculateTotals()
	res := b.db.Collection(billName).InsertOne(ctx, bill)
	return res, nil
}

// Save replaces the whole bill document after rederiving totals. Payment
// status is left as-is here; the ledger path derives it before calling Save.
func (b *billDatabase) Save(ctx context.Context, bill *models.Bill) error {
	bill.RecalculateTotals()
	bill.UpdatedAt = time.Now()
	return b.db.Collection(billName).ReplaceOne(ctx, bson.M{"_id": bill.ID}, bill)
}

func (b *billDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return b.db.Collection(billName).DeleteOne(ctx, filter, opts...)
}

func (b *billDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return b.db.Collection(billName).CountDocuments(ctx, filter, opts...)
}

func (b *billDatabase) Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (CursorHelper, error) {
	return b.db.Collection(billName).Aggregate(ctx, pipeline, opts...)
}
