package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Inventory status values, derived on every save. Priority order when more
// than one applies: Expired > Out of Stock > Low Stock > In Stock.
const (
	InventoryStatusInStock    = "In Stock"
	InventoryStatusLowStock   = "Low Stock"
	InventoryStatusOutOfStock = "Out of Stock"
	InventoryStatusExpired    = "Expired"
)

// Inventory alert types
const (
	AlertTypeLowStock   = "Low Stock"
	AlertTypeOutOfStock = "Out of Stock"
	AlertTypeExpiring   = "Expiring Soon"
	AlertTypeExpired    = "Expired"
)

// ExpiryWarningWindow is how far ahead of the expiry date an item starts
// raising an Expiring Soon alert.
const ExpiryWarningWindow = 30 * 24 * time.Hour

// InventoryItem holds the structure for the inventory collection in mongo
type InventoryItem struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	ItemCode string             `json:"itemCode" bson:"itemCode"`

	Name         string `json:"name" bson:"name"`
	Category     string `json:"category" bson:"category"` // Medicine, Equipment, Consumable, Supplies
	Manufacturer string `json:"manufacturer" bson:"manufacturer"`
	BatchNumber  string `json:"batchNumber" bson:"batchNumber"`

	ExpiryDate *time.Time `json:"expiryDate,omitempty" bson:"expiryDate,omitempty"`

	UnitPrice     float64 `json:"unitPrice" bson:"unitPrice"`
	Quantity      int     `json:"quantity" bson:"quantity"`
	ReorderLevel  int     `json:"reorderLevel" bson:"reorderLevel"`
	MaxStockLevel int     `json:"maxStockLevel" bson:"maxStockLevel"`
	Unit          string  `json:"unit" bson:"unit"`

	Supplier *Supplier        `json:"supplier,omitempty" bson:"supplier,omitempty"`
	Location *StorageLocation `json:"location,omitempty" bson:"location,omitempty"`

	UsageLog   []UsageEntry   `json:"usageLog" bson:"usageLog"`
	RestockLog []RestockEntry `json:"restockLog" bson:"restockLog"`

	Status string           `json:"status" bson:"status"`
	Alerts []InventoryAlert `json:"alerts" bson:"alerts"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Supplier is the supplier sub-record on an inventory item
type Supplier struct {
	Name    string `json:"name" bson:"name"`
	Contact string `json:"contact" bson:"contact"`
	Email   string `json:"email" bson:"email"`
}

// StorageLocation is the storage location sub-record on an inventory item
type StorageLocation struct {
	Building string `json:"building" bson:"building"`
	Room     string `json:"room" bson:"room"`
	Shelf    string `json:"shelf" bson:"shelf"`
}

// UsageEntry is one append-only usage log entry
type UsageEntry struct {
	ID         string    `json:"_id" bson:"_id"`
	Quantity   int       `json:"quantity" bson:"quantity"`
	Department string    `json:"department" bson:"department"`
	Purpose    string    `json:"purpose" bson:"purpose"`
	UsedBy     string    `json:"usedBy" bson:"usedBy"`
	UsedAt     time.Time `json:"usedAt" bson:"usedAt"`
}

// RestockEntry is one append-only restock log entry
type RestockEntry struct {
	ID          string    `json:"_id" bson:"_id"`
	Quantity    int       `json:"quantity" bson:"quantity"`
	UnitPrice   float64   `json:"unitPrice" bson:"unitPrice"`
	Supplier    string    `json:"supplier" bson:"supplier"`
	BatchNumber string    `json:"batchNumber" bson:"batchNumber"`
	RestockedAt time.Time `json:"restockedAt" bson:"restockedAt"`
}

// InventoryAlert is a derived notice. Alerts carry no history: the list is
// rebuilt wholesale on each explicit check and only reflects the last check.
type InventoryAlert struct {
	Type     string    `json:"type" bson:"type"`
	Message  string    `json:"message" bson:"message"`
	RaisedAt time.Time `json:"raisedAt" bson:"raisedAt"`
}

// categoryPrefixes maps an item category to its item code prefix
var categoryPrefixes = map[string]string{
	"medicine":   "MED",
	"equipment":  "EQP",
	"consumable": "CON",
	"supplies":   "SUP",
}

// ItemCode formats an item code from the category prefix and a sequence
// value, e.g. MED0042. Unknown categories fall back to ITM.
func ItemCode(category string, seq int64) string {
	prefix, ok := categoryPrefixes[strings.ToLower(category)]
	if !ok {
		prefix = "ITM"
	}
	return fmt.Sprintf("%s%04d", prefix, seq)
}

// DeriveStatus recomputes the stored status from quantity, reorder level and
// expiry date. Run on every save.
func (i *InventoryItem) DeriveStatus(now time.Time) {
	switch {
	case i.ExpiryDate != nil && i.ExpiryDate.Before(now):
		i.Status = InventoryStatusExpired
	case i.Quantity <= 0:
		i.Status = InventoryStatusOutOfStock
	case i.Quantity <= i.ReorderLevel:
		i.Status = InventoryStatusLowStock
	default:
		i.Status = InventoryStatusInStock
	}
}

// RebuildAlerts clears the alert list and repopulates it from the current
// quantity and expiry date. Returns the freshly raised alerts.
func (i *InventoryItem) RebuildAlerts(now time.Time) []InventoryAlert {
	i.Alerts = nil

	switch {
	case i.Quantity <= 0:
		i.Alerts = append(i.Alerts, InventoryAlert{
			Type:     AlertTypeOutOfStock,
			Message:  fmt.Sprintf("%s (%s) is out of stock", i.Name, i.ItemCode),
			RaisedAt: now,
		})
	case i.Quantity <= i.ReorderLevel:
		i.Alerts = append(i.Alerts, InventoryAlert{
			Type:     AlertTypeLowStock,
			Message:  fmt.Sprintf("%s (%s) is below reorder level: %d left", i.Name, i.ItemCode, i.Quantity),
			RaisedAt: now,
		})
	}

	if i.ExpiryDate != nil {
		switch {
		case i.ExpiryDate.Before(now):
			i.Alerts = append(i.Alerts, InventoryAlert{
				Type:     AlertTypeExpired,
				Message:  fmt.Sprintf("%s (%s) expired on %s", i.Name, i.ItemCode, i.ExpiryDate.Format("2006-01-02")),
				RaisedAt: now,
			})
		case i.ExpiryDate.Before(now.Add(ExpiryWarningWindow)):
			i.Alerts = append(i.Alerts, InventoryAlert{
				Type:     AlertTypeExpiring,
				Message:  fmt.Sprintf("%s (%s) expires on %s", i.Name, i.ItemCode, i.ExpiryDate.Format("2006-01-02")),
				RaisedAt: now,
			})
		}
	}

	return i.Alerts
}
