package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/avalonhealth/hospital-api/api"
	"github.com/avalonhealth/hospital-api/config"
	"github.com/avalonhealth/hospital-api/databases"
	"github.com/avalonhealth/hospital-api/models"
)

// Inventory exported for testing purposes
type Inventory struct {
	DB  databases.InventoryDatabase
	CDB databases.CounterDatabase
}

// inventoryFilter matches an item by either the storage id or the item code
func inventoryFilter(id string) interface{} {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"$or": []bson.M{{"_id": oid}, {"itemCode": id}}}
	}
	return bson.M{"itemCode": id}
}

// CreateInventoryItemHandler adds a new item. The item code is assigned from
// a per-category sequence; the stock status is derived on insert.
func (h Inventory) CreateInventoryItemHandler(w http.ResponseWriter, r *http.Request) {
	var item models.InventoryItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	seq, err := h.CDB.NextSequence(ctx, "inventory-"+item.Category)
	if err != nil {
		config.ErrorStatus("failed to generate item code", http.StatusInternalServerError, w, err)
		return
	}
	item.ItemCode = models.ItemCode(item.Category, seq)

	if _, err := h.DB.InsertOne(ctx, &item); err != nil {
		config.ErrorStatus("failed to create inventory item", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(item)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// InventoryHandler lists items with optional category and status filters
func (h Inventory) InventoryHandler(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if category := r.URL.Query().Get("category"); category != "" {
		filter["category"] = category
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}
	if search := r.URL.Query().Get("search"); search != "" {
		filter["name"] = bson.M{"$regex": search, "$options": "i"}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := h.DB.Find(ctx, filter, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		config.ErrorStatus("failed to get inventory items", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.InventoryItem{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// InventoryItemByIDHandler returns one item by storage id or item code
func (h Inventory) InventoryItemByIDHandler(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["item_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := h.DB.FindOne(ctx, inventoryFilter(itemID))
	if err != nil {
		config.ErrorStatus("failed to get inventory item by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateInventoryItemHandler merges the request body into the stored item.
// The item code is immutable; status is rederived on save.
func (h Inventory) UpdateInventoryItemHandler(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["item_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	item, err := h.DB.FindOne(ctx, inventoryFilter(itemID))
	if err != nil {
		config.ErrorStatus("failed to get inventory item by ID", http.StatusNotFound, w, err)
		return
	}

	keepID, keepCode, keepCreated := item.ID, item.ItemCode, item.CreatedAt
	if err := json.NewDecoder(r.Body).Decode(item); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	item.ID, item.ItemCode, item.CreatedAt = keepID, keepCode, keepCreated

	if err := h.DB.Save(ctx, item); err != nil {
		config.ErrorStatus("failed to update inventory item", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(item)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteInventoryItemHandler removes an item outright
func (h Inventory) DeleteInventoryItemHandler(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["item_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := h.DB.DeleteOne(ctx, inventoryFilter(itemID)); err != nil {
		config.ErrorStatus("failed to delete inventory item", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(`{"deleted": "%s"}`, itemID)))
}

// usageRequest is the body for recording stock usage
type usageRequest struct {
	Quantity   int    `json:"quantity"`
	Department string `json:"department"`
	Purpose    string `json:"purpose"`
	UsedBy     string `json:"usedBy"`
}

// RecordUsageHandler deducts stock and appends a usage log entry. A request
// for more than the available quantity is rejected without mutating the item.
func (h Inventory) RecordUsageHandler(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["item_id"]

	var req usageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Quantity <= 0 {
		config.ErrorStatus("usage quantity must be positive", http.StatusBadRequest, w,
			fmt.Errorf("quantity %d", req.Quantity))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	item, err := h.DB.FindOne(ctx, inventoryFilter(itemID))
	if err != nil {
		config.ErrorStatus("failed to get inventory item by ID", http.StatusNotFound, w, err)
		return
	}

	if req.Quantity > item.Quantity {
		config.ErrorStatus("insufficient stock", http.StatusBadRequest, w,
			fmt.Errorf("requested %d, available %d", req.Quantity, item.Quantity))
		return
	}

	now := time.Now()
	item.Quantity -= req.Quantity
	item.UsageLog = append(item.UsageLog, models.UsageEntry{
		ID:         uuid.New().String(),
		Quantity:   req.Quantity,
		Department: req.Department,
		Purpose:    req.Purpose,
		UsedBy:     req.UsedBy,
		UsedAt:     now,
	})
	item.RebuildAlerts(now)

	if err := h.DB.Save(ctx, item); err != nil {
		config.ErrorStatus("failed to record usage", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(item)
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// restockRequest is the body for restocking an item
type restockRequest struct {
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Supplier    string  `json:"supplier"`
	BatchNumber string  `json:"batchNumber"`
	ExpiryDate  string  `json:"expiryDate"`
}

// RestockHandler adds stock and appends a restock log entry. A new batch
// number or expiry date replaces the stored one.
func (h Inventory) RestockHandler(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["item_id"]

	var req restockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Quantity <= 0 {
		config.ErrorStatus("restock quantity must be positive", http.StatusBadRequest, w,
			fmt.Errorf("quantity %d", req.Quantity))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	item, err := h.DB.FindOne(ctx, inventoryFilter(itemID))
	if err != nil {
		config.ErrorStatus("failed to get inventory item by ID", http.StatusNotFound, w, err)
		return
	}

	now := time.Now()
	item.Quantity += req.Quantity
	if req.UnitPrice > 0 {
		item.UnitPrice = req.UnitPrice
	}
	if req.BatchNumber != "" {
		item.BatchNumber = req.BatchNumber
	}
	if req.ExpiryDate != "" {
		if t, err := time.Parse("2006-01-02", req.ExpiryDate); err == nil {
			item.ExpiryDate = &t
		}
	}
	item.RestockLog = append(item.RestockLog, models.RestockEntry{
		ID:          uuid.New().String(),
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		Supplier:    req.Supplier,
		BatchNumber: req.BatchNumber,
		RestockedAt: now,
	})
	item.RebuildAlerts(now)

	if err := h.DB.Save(ctx, item); err != nil {
		config.ErrorStatus("failed to restock item", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(item)
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// LowStockHandler lists items at or below their reorder level
func (h Inventory) LowStockHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := bson.M{"$expr": bson.M{"$lte": bson.A{"$quantity", "$reorderLevel"}}}
	dbResp, err := h.DB.Find(ctx, filter, options.Find().SetSort(bson.M{"quantity": 1}))
	if err != nil {
		config.ErrorStatus("failed to get low stock items", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.InventoryItem{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ExpiringHandler lists items expired or expiring inside the warning window
func (h Inventory) ExpiringHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	cutoff := time.Now().Add(models.ExpiryWarningWindow)
	filter := bson.M{"expiryDate": bson.M{"$lte": cutoff}}
	dbResp, err := h.DB.Find(ctx, filter, options.Find().SetSort(bson.M{"expiryDate": 1}))
	if err != nil {
		config.ErrorStatus("failed to get expiring items", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.InventoryItem{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CheckAlertsHandler rebuilds the alert list on every item and returns all
// alerts raised in this pass. The stored lists only reflect this check.
func (h Inventory) CheckAlertsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	items, err := h.DB.Find(ctx, bson.M{})
	if err != nil {
		config.ErrorStatus("failed to get inventory items", http.StatusNotFound, w, err)
		return
	}

	now := time.Now()
	raised := []models.InventoryAlert{}
	for i := range items {
		item := &items[i]
		alerts := item.RebuildAlerts(now)
		if err := h.DB.Save(ctx, item); err != nil {
			config.ErrorStatus("failed to save alerts", http.StatusInternalServerError, w, err)
			return
		}
		raised = append(raised, alerts...)
	}

	b, err := json.Marshal(raised)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
