package databases

// go generate: mockery --name InventoryDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/avalonhealth/hospital-api/models"
)

const inventoryName = "inventory"

// InventoryDatabase contains the methods to use with the inventory database.
// InsertOne and Save rederive the stock status on every write. Alerts are NOT
// touched on save; only an explicit RebuildAlerts call on the model refreshes
// them, so an item saved outside the check path keeps its stale alert list.
type InventoryDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.InventoryItem, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.InventoryItem, error)
	InsertOne(context.Context, *models.InventoryItem) (InsertOneResultHelper, error)
	Save(context.Context, *models.InventoryItem) error
	DeleteOne(context.Context, interface{}, ...*options.DeleteOptions) error
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)
}

type inventoryDatabase struct {
	db DatabaseHelper
}

// NewInventoryDatabase initializes a new instance of inventory database with the provided db connection
func NewInventoryDatabase(db DatabaseHelper) InventoryDatabase {
	return &inventoryDatabase{
		db: db,
	}
}

func (i *inventoryDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.InventoryItem, error) {
	item := &models.InventoryItem{}
	err := i.db.Collection(inventoryName).FindOne(ctx, filter, opts...).Decode(&item)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (i *inventoryDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	cur := i.db.Collection(inventoryName).Find(ctx, filter, opts...)
	err := cur.Decode(&items)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (i *inventoryDatabase) InsertOne(ctx context.Context, item *models.InventoryItem) (InsertOneResultHelper, error) {
	now := time.Now()
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	item.DeriveStatus(now)
	res := i.db.Collection(inventoryName).InsertOne(ctx, item)
	return res, nil
}

// Save replaces the whole item document after rederiving status.
func (i *inventoryDatabase) Save(ctx context.Context, item *models.InventoryItem) error {
	now := time.Now()
	item.UpdatedAt = now
	item.DeriveStatus(now)
	return i.db.Collection(inventoryName).ReplaceOne(ctx, bson.M{"_id": item.ID}, item)
}

func (i *inventoryDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return i.db.Collection(inventoryName).DeleteOne(ctx, filter, opts...)
}

func (i *inventoryDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return i.db.Collection(inventoryName).CountDocuments(ctx, filter, opts...)
}
