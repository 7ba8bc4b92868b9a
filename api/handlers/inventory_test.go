package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/avalonhealth/hospital-api/api/handlers"
	"github.com/avalonhealth/hospital-api/databases"
	"github.com/avalonhealth/hospital-api/databases/mocks"
	"github.com/avalonhealth/hospital-api/models"
)

func TestInventory_InventoryItemByIDHandlerNotFound(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/admin/inventory/MED0001", nil)
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"item_id": "MED0001"})

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(errors.New("mocked-error"))
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.(*MockDatabaseHelper).On("Collection", "inventory").Return(conn)

	u := handlers.Inventory{DB: databases.NewInventoryDatabase(db)}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.InventoryItemByIDHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)

	expected := models.ErrorMessageResponse{Response: models.MessageError{Message: "failed to get inventory item by ID", Error: "mocked-error"}}
	b, _ := json.Marshal(expected)
	assert.Equal(t, string(b), rr.Body.String())
}

func TestInventory_RecordUsageHandlerInsufficientStock(t *testing.T) {
	body := bytes.NewBufferString(`{"quantity": 50, "department": "ICU"}`)
	req, err := http.NewRequest("POST", "/api/admin/inventory/MED0001/usage", body)
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"item_id": "MED0001"})

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.InventoryItem)
		(*arg).ItemCode = "MED0001"
		(*arg).Quantity = 10
	})
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.(*MockDatabaseHelper).On("Collection", "inventory").Return(conn)

	u := handlers.Inventory{DB: databases.NewInventoryDatabase(db)}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.RecordUsageHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	expected := models.ErrorMessageResponse{Response: models.MessageError{Message: "insufficient stock", Error: "requested 50, available 10"}}
	b, _ := json.Marshal(expected)
	assert.Equal(t, string(b), rr.Body.String())

	// a rejected request must not write anything back
	conn.(*mocks.CollectionHelper).AssertNotCalled(t, "ReplaceOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestInventory_RecordUsageHandlerDeductsStock(t *testing.T) {
	body := bytes.NewBufferString(`{"quantity": 4, "department": "ICU", "usedBy": "staff-1"}`)
	req, err := http.NewRequest("POST", "/api/admin/inventory/MED0001/usage", body)
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"item_id": "MED0001"})

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.InventoryItem)
		(*arg).ItemCode = "MED0001"
		(*arg).Quantity = 10
		(*arg).ReorderLevel = 8
	})
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	conn.(*mocks.CollectionHelper).On("ReplaceOne", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	db.(*MockDatabaseHelper).On("Collection", "inventory").Return(conn)

	u := handlers.Inventory{DB: databases.NewInventoryDatabase(db)}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.RecordUsageHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got models.InventoryItem
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 6, got.Quantity)
	if assert.Len(t, got.UsageLog, 1) {
		assert.Equal(t, 4, got.UsageLog[0].Quantity)
		assert.Equal(t, "ICU", got.UsageLog[0].Department)
		assert.NotEmpty(t, got.UsageLog[0].ID)
	}

	// dropping below the reorder level must rebuild the alert list, not
	// wait for the nightly sweep
	assert.Equal(t, models.InventoryStatusLowStock, got.Status)
	if assert.Len(t, got.Alerts, 1) {
		assert.Equal(t, models.AlertTypeLowStock, got.Alerts[0].Type)
	}
}

func TestInventory_RestockHandlerClearsLowStockAlert(t *testing.T) {
	body := bytes.NewBufferString(`{"quantity": 20, "supplier": "MedSupply Co"}`)
	req, err := http.NewRequest("POST", "/api/admin/inventory/MED0001/restock", body)
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"item_id": "MED0001"})

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.InventoryItem)
		(*arg).ItemCode = "MED0001"
		(*arg).Quantity = 2
		(*arg).ReorderLevel = 8
		(*arg).Status = models.InventoryStatusLowStock
		(*arg).Alerts = []models.InventoryAlert{{Type: models.AlertTypeLowStock}}
	})
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	conn.(*mocks.CollectionHelper).On("ReplaceOne", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	db.(*MockDatabaseHelper).On("Collection", "inventory").Return(conn)

	u := handlers.Inventory{DB: databases.NewInventoryDatabase(db)}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.RestockHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got models.InventoryItem
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 22, got.Quantity)
	assert.Empty(t, got.Alerts)
	if assert.Len(t, got.RestockLog, 1) {
		assert.Equal(t, 20, got.RestockLog[0].Quantity)
	}
}

func TestInventory_RestockHandlerRejectsNonPositive(t *testing.T) {
	body := bytes.NewBufferString(`{"quantity": 0}`)
	req, err := http.NewRequest("POST", "/api/admin/inventory/MED0001/restock", body)
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"item_id": "MED0001"})

	u := handlers.Inventory{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.RestockHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	expected := models.ErrorMessageResponse{Response: models.MessageError{Message: "restock quantity must be positive", Error: "quantity 0"}}
	b, _ := json.Marshal(expected)
	assert.Equal(t, string(b), rr.Body.String())
}

func TestInventory_InventoryHandlerEmpty(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/admin/inventory", nil)
	if err != nil {
		t.Fatal(err)
	}

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var cursorHelper databases.CursorHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	cursorHelper = &mocks.CursorHelper{}

	cursorHelper.(*mocks.CursorHelper).On("Decode", mock.Anything).Return(nil)
	conn.(*mocks.CollectionHelper).On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cursorHelper)
	db.(*MockDatabaseHelper).On("Collection", "inventory").Return(conn)

	u := handlers.Inventory{DB: databases.NewInventoryDatabase(db)}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.InventoryHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", rr.Body.String())
}
