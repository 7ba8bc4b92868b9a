package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/avalonhealth/hospital-api/api"
	"github.com/avalonhealth/hospital-api/config"
	"github.com/avalonhealth/hospital-api/databases"
	"github.com/avalonhealth/hospital-api/models"
)

// Patient exported for testing purposes
type Patient struct {
	DB  databases.PatientDatabase
	ADB databases.AdmissionDatabase
	BDB databases.BillDatabase
	RDB databases.PrescriptionDatabase
}

// RegisterPatientHandler creates a patient portal account. Emails are unique;
// the password is stored as a bcrypt hash and never returned.
func (h Patient) RegisterPatientHandler(w http.ResponseWriter, r *http.Request) {
	var patient models.Patient
	if err := json.NewDecoder(r.Body).Decode(&patient); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if patient.Email == "" || patient.Password == "" {
		config.ErrorStatus("email and password are required", http.StatusBadRequest, w,
			errors.New("missing credentials"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if count, err := h.DB.CountDocuments(ctx, bson.M{"email": patient.Email}); err == nil && count > 0 {
		config.ErrorStatus("email already registered", http.StatusConflict, w,
			fmt.Errorf("email %s in use", patient.Email))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(patient.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}
	patient.Password = string(hash)

	if patient.DateOfBirth != "" {
		if age, err := models.AgeFromDateOfBirth(patient.DateOfBirth, time.Now()); err == nil {
			patient.Age = age
		} else {
			zap.S().Warnw("could not derive age from date of birth",
				"dateOfBirth", patient.DateOfBirth)
		}
	}

	patient.ID = primitive.NewObjectID()
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = patient.CreatedAt

	if _, err := h.DB.InsertOne(ctx, patient); err != nil {
		config.ErrorStatus("failed to register patient", http.StatusInternalServerError, w, err)
		return
	}

	patient.Password = ""
	b, err := json.Marshal(patient)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// PatientHandler lists patients with optional name search, paginated
func (h Patient) PatientHandler(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if search := r.URL.Query().Get("search"); search != "" {
		filter["name"] = bson.M{"$regex": search, "$options": "i"}
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := h.DB.FindPaginated(ctx, filter, limit, page)
	if err != nil {
		config.ErrorStatus("failed to get patients", http.StatusNotFound, w, err)
		return
	}
	for i := range dbResp {
		dbResp[i].Password = ""
	}
	if len(dbResp) == 0 {
		dbResp = []models.Patient{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// PatientByIDHandler returns one patient by ID, password stripped
func (h Patient) PatientByIDHandler(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["patient_id"]

	oid, err := primitive.ObjectIDFromHex(patientID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := h.DB.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		config.ErrorStatus("failed to get patient by ID", http.StatusNotFound, w, err)
		return
	}
	dbResp.Password = ""

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdatePatientHandler sets the supplied profile fields on a patient. The
// password field cannot be changed through this route.
func (h Patient) UpdatePatientHandler(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["patient_id"]

	oid, err := primitive.ObjectIDFromHex(patientID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var fields bson.M
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	delete(fields, "_id")
	delete(fields, "password")
	delete(fields, "email")
	fields["updatedAt"] = time.Now()

	if dob, ok := fields["dateOfBirth"].(string); ok {
		if age, err := models.AgeFromDateOfBirth(dob, time.Now()); err == nil {
			fields["age"] = age
		}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := h.DB.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": fields}); err != nil {
		config.ErrorStatus("failed to update patient", http.StatusInternalServerError, w, err)
		return
	}

	dbResp, err := h.DB.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		config.ErrorStatus("failed to get patient by ID", http.StatusNotFound, w, err)
		return
	}
	dbResp.Password = ""

	b, _ := json.Marshal(dbResp)
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeletePatientHandler removes a patient account
func (h Patient) DeletePatientHandler(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["patient_id"]

	oid, err := primitive.ObjectIDFromHex(patientID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := h.DB.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		config.ErrorStatus("failed to delete patient", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(`{"deleted": "%s"}`, patientID)))
}

// PatientPortalHandler aggregates a patient's admissions, bills and
// prescriptions into one portal payload
func (h Patient) PatientPortalHandler(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["patient_id"]

	oid, err := primitive.ObjectIDFromHex(patientID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	patient, err := h.DB.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		config.ErrorStatus("failed to get patient by ID", http.StatusNotFound, w, err)
		return
	}
	patient.Password = ""

	admissions, err := h.ADB.Find(ctx, bson.M{"patientId": patientID})
	if err != nil {
		config.ErrorStatus("failed to get admissions", http.StatusInternalServerError, w, err)
		return
	}
	bills, err := h.BDB.Find(ctx, bson.M{"patientId": patientID})
	if err != nil {
		config.ErrorStatus("failed to get bills", http.StatusInternalServerError, w, err)
		return
	}
	prescriptions, err := h.RDB.Find(ctx, bson.M{"patientId": patientID})
	if err != nil {
		config.ErrorStatus("failed to get prescriptions", http.StatusInternalServerError, w, err)
		return
	}

	resp := struct {
		Patient       *models.Patient       `json:"patient"`
		Admissions    []models.Admission    `json:"admissions"`
		Bills         []models.Bill         `json:"bills"`
		Prescriptions []models.Prescription `json:"prescriptions"`
	}{patient, admissions, bills, prescriptions}

	b, err := json.Marshal(resp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
