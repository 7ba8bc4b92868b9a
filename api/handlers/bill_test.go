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

func TestBill_BillByIDHandlerNotFound(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/admin/bills/BILL2024010001", nil)
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"bill_id": "BILL2024010001"})

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(errors.New("mocked-error"))
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.(*MockDatabaseHelper).On("Collection", "bills").Return(conn)

	u := handlers.Bill{DB: databases.NewBillDatabase(db)}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.BillByIDHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)

	expected := models.ErrorMessageResponse{Response: models.MessageError{Message: "failed to get bill by ID", Error: "mocked-error"}}
	b, _ := json.Marshal(expected)
	assert.Equal(t, string(b), rr.Body.String())
}

func TestBill_CreateBillHandlerMissingPatient(t *testing.T) {
	body := bytes.NewBufferString(`{"billType": "OPD"}`)
	req, err := http.NewRequest("POST", "/api/admin/bills", body)
	if err != nil {
		t.Fatal(err)
	}

	u := handlers.Bill{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.CreateBillHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	expected := models.ErrorMessageResponse{Response: models.MessageError{Message: "patientId is required", Error: "patientId missing"}}
	b, _ := json.Marshal(expected)
	assert.Equal(t, string(b), rr.Body.String())
}

func TestBill_ProcessPaymentHandlerLedgerAppend(t *testing.T) {
	body := bytes.NewBufferString(`{"amount": 400, "method": "Cash"}`)
	req, err := http.NewRequest("POST", "/api/admin/bills/BILL2024010001/payments", body)
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"bill_id": "BILL2024010001"})

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Bill)
		(*arg).BillNumber = "BILL2024010001"
		(*arg).Services = []models.BillService{{Name: "Consultation", Quantity: 1, UnitPrice: 1000}}
		(*arg).TotalAmount = 1000
		(*arg).PaymentStatus = models.PaymentStatusPending
	})
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	conn.(*mocks.CollectionHelper).On("ReplaceOne", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	db.(*MockDatabaseHelper).On("Collection", "bills").Return(conn)

	u := handlers.Bill{DB: databases.NewBillDatabase(db)}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.ProcessPaymentHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got models.Bill
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, models.PaymentStatusPartial, got.PaymentStatus)
	if assert.Len(t, got.Payments, 1) {
		assert.Equal(t, float64(400), got.Payments[0].Amount)
		assert.Equal(t, "Cash", got.Payments[0].Method)
		assert.NotEmpty(t, got.Payments[0].PaymentID)
	}
}

func TestBill_ProcessPaymentHandlerDirectStatus(t *testing.T) {
	body := bytes.NewBufferString(`{"paymentStatus": "Paid", "method": "Insurance"}`)
	req, err := http.NewRequest("POST", "/api/admin/bills/BILL2024010001/payments", body)
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"bill_id": "BILL2024010001"})

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Bill)
		(*arg).BillNumber = "BILL2024010001"
		(*arg).TotalAmount = 1000
		(*arg).PaymentStatus = models.PaymentStatusPending
	})
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	conn.(*mocks.CollectionHelper).On("ReplaceOne", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	db.(*MockDatabaseHelper).On("Collection", "bills").Return(conn)

	u := handlers.Bill{DB: databases.NewBillDatabase(db)}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.ProcessPaymentHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got models.Bill
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, models.PaymentStatusPaid, got.PaymentStatus)
	assert.NotNil(t, got.PaidDate)
	assert.Empty(t, got.Payments, "direct status set must not touch the ledger")
}

func TestBill_ProcessPaymentHandlerMalformed(t *testing.T) {
	body := bytes.NewBufferString(`{"amount": 400}`)
	req, err := http.NewRequest("POST", "/api/admin/bills/BILL2024010001/payments", body)
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"bill_id": "BILL2024010001"})

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(nil)
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.(*MockDatabaseHelper).On("Collection", "bills").Return(conn)

	u := handlers.Bill{DB: databases.NewBillDatabase(db)}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.ProcessPaymentHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	expected := models.ErrorMessageResponse{Response: models.MessageError{Message: "payment requires amount and method, or a payment status", Error: "malformed payment request"}}
	b, _ := json.Marshal(expected)
	assert.Equal(t, string(b), rr.Body.String())
}
