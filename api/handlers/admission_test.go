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

type MockDatabaseHelper struct {
	mock.Mock
}

// Client provides a mock function.
func (_m *MockDatabaseHelper) Client() databases.ClientHelper {
	ret := _m.Called()

	var r0 databases.ClientHelper
	if rf, ok := ret.Get(0).(func() databases.ClientHelper); ok {
		r0 = rf()
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(databases.ClientHelper)
		}
	}

	return r0
}

// Collection provides a mock function.
func (_m *MockDatabaseHelper) Collection(name string) databases.CollectionHelper {
	ret := _m.Called(name)

	var r0 databases.CollectionHelper
	if rf, ok := ret.Get(0).(func(string) databases.CollectionHelper); ok {
		r0 = rf(name)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(databases.CollectionHelper)
		}
	}

	return r0
}

func TestAdmission_AdmissionByIDHandlerNotFound(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/admin/admissions/ADM2024010001", nil)
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"admission_id": "ADM2024010001"})

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(errors.New("mocked-error"))
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.(*MockDatabaseHelper).On("Collection", "admissions").Return(conn)

	u := handlers.Admission{DB: databases.NewAdmissionDatabase(db)}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.AdmissionByIDHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)

	expected := models.ErrorMessageResponse{Response: models.MessageError{Message: "failed to get admission by ID", Error: "mocked-error"}}
	b, _ := json.Marshal(expected)
	assert.Equal(t, string(b), rr.Body.String())
}

func TestAdmission_AdmissionByIDHandlerSuccess(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/admin/admissions/ADM2024010001", nil)
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"admission_id": "ADM2024010001"})

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Admission)
		(*arg).AdmissionID = "ADM2024010001"
		(*arg).PatientNameAtAdmission = "Jordan Reyes"
		(*arg).Status = models.AdmissionStatusAdmitted
	})
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.(*MockDatabaseHelper).On("Collection", "admissions").Return(conn)

	u := handlers.Admission{DB: databases.NewAdmissionDatabase(db)}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.AdmissionByIDHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got models.Admission
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "ADM2024010001", got.AdmissionID)
	assert.Equal(t, "Jordan Reyes", got.PatientNameAtAdmission)
}

func TestAdmission_AdmissionHandlerEmpty(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/admin/admissions", nil)
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
	db.(*MockDatabaseHelper).On("Collection", "admissions").Return(conn)

	u := handlers.Admission{DB: databases.NewAdmissionDatabase(db)}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.AdmissionHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", rr.Body.String())
}

func TestAdmission_CreateAdmissionHandlerMissingDoctor(t *testing.T) {
	body := bytes.NewBufferString(`{"patientName": "Jordan Reyes"}`)
	req, err := http.NewRequest("POST", "/api/admin/admissions", body)
	if err != nil {
		t.Fatal(err)
	}

	u := handlers.Admission{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.CreateAdmissionHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	expected := models.ErrorMessageResponse{Response: models.MessageError{Message: "an admitting or attending doctor is required", Error: "doctorId missing"}}
	b, _ := json.Marshal(expected)
	assert.Equal(t, string(b), rr.Body.String())
}

func TestAdmission_CreateAdmissionHandlerRoomOccupied(t *testing.T) {
	body := bytes.NewBufferString(`{"doctorId": "5fc51f36c72ff10004dca381", "roomNumber": "5"}`)
	req, err := http.NewRequest("POST", "/api/admin/admissions", body)
	if err != nil {
		t.Fatal(err)
	}

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}

	conn.(*mocks.CollectionHelper).On("CountDocuments", mock.Anything, mock.Anything).Return(int64(1), nil)
	db.(*MockDatabaseHelper).On("Collection", "admissions").Return(conn)

	u := handlers.Admission{DB: databases.NewAdmissionDatabase(db)}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.CreateAdmissionHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)

	expected := models.ErrorMessageResponse{Response: models.MessageError{Message: "room is already occupied", Error: "room 5 has an open admission"}}
	b, _ := json.Marshal(expected)
	assert.Equal(t, string(b), rr.Body.String())
}

func TestAdmission_UpdateAdmissionStatusHandlerInvalidTransition(t *testing.T) {
	body := bytes.NewBufferString(`{"status": "Admitted"}`)
	req, err := http.NewRequest("PUT", "/api/admin/admissions/ADM2024010001/status", body)
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"admission_id": "ADM2024010001"})

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Admission)
		(*arg).AdmissionID = "ADM2024010001"
		(*arg).Status = models.AdmissionStatusUnderTreatment
	})
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.(*MockDatabaseHelper).On("Collection", "admissions").Return(conn)

	u := handlers.Admission{DB: databases.NewAdmissionDatabase(db)}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.UpdateAdmissionStatusHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	expected := models.ErrorMessageResponse{Response: models.MessageError{Message: "invalid status transition", Error: "cannot move from Under Treatment to Admitted"}}
	b, _ := json.Marshal(expected)
	assert.Equal(t, string(b), rr.Body.String())
}

func TestAdmission_UpdateAdmissionStatusHandlerDischarge(t *testing.T) {
	body := bytes.NewBufferString(`{"status": "Discharged"}`)
	req, err := http.NewRequest("PUT", "/api/admin/admissions/ADM2024010001/status", body)
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"admission_id": "ADM2024010001"})

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Admission)
		(*arg).AdmissionID = "ADM2024010001"
		(*arg).Status = models.AdmissionStatusReadyForDischarge
		(*arg).DailyCharges = 2000
	})
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	conn.(*mocks.CollectionHelper).On("ReplaceOne", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	db.(*MockDatabaseHelper).On("Collection", "admissions").Return(conn)

	u := handlers.Admission{DB: databases.NewAdmissionDatabase(db)}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.UpdateAdmissionStatusHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got models.Admission
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, models.AdmissionStatusDischarged, got.Status)
	assert.NotNil(t, got.ActualDischargeDate)
}
