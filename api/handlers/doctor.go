package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/avalonhealth/hospital-api/api"
	"github.com/avalonhealth/hospital-api/config"
	"github.com/avalonhealth/hospital-api/databases"
	"github.com/avalonhealth/hospital-api/models"
)

// Doctor exported for testing purposes
type Doctor struct {
	DB        databases.DoctorDatabase
	JWTSecret string
}

// CreateDoctorHandler registers a doctor with a bcrypt hashed password
func (h Doctor) CreateDoctorHandler(w http.ResponseWriter, r *http.Request) {
	var doctor models.Doctor
	if err := json.NewDecoder(r.Body).Decode(&doctor); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if doctor.Email == "" || doctor.Password == "" {
		config.ErrorStatus("email and password are required", http.StatusBadRequest, w,
			errors.New("missing credentials"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if count, err := h.DB.CountDocuments(ctx, bson.M{"email": doctor.Email}); err == nil && count > 0 {
		config.ErrorStatus("email already registered", http.StatusConflict, w,
			fmt.Errorf("email %s in use", doctor.Email))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(doctor.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}
	doctor.Password = string(hash)
	doctor.ID = primitive.NewObjectID()
	doctor.CreatedAt = time.Now()
	doctor.UpdatedAt = doctor.CreatedAt

	if _, err := h.DB.InsertOne(ctx, doctor); err != nil {
		config.ErrorStatus("failed to create doctor", http.StatusInternalServerError, w, err)
		return
	}

	doctor.Password = ""
	b, err := json.Marshal(doctor)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// DoctorLoginHandler checks credentials and returns a doctor scoped token
func (h Doctor) DoctorLoginHandler(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	doctor, err := h.DB.FindOne(ctx, bson.M{"email": creds.Email})
	if err != nil {
		config.ErrorStatus("invalid email or password", http.StatusUnauthorized, w, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(doctor.Password), []byte(creds.Password)); err != nil {
		config.ErrorStatus("invalid email or password", http.StatusUnauthorized, w, err)
		return
	}

	token, err := api.IssueJWT(h.JWTSecret, doctor.ID.Hex(), doctor.Email, "doctor", []string{"doctor"})
	if err != nil {
		config.ErrorStatus("failed to sign token", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(`{"token": "%s"}`, token)))
}

// DoctorHandler lists doctors with optional department and availability filters
func (h Doctor) DoctorHandler(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if department := r.URL.Query().Get("department"); department != "" {
		filter["department"] = department
	}
	if specialization := r.URL.Query().Get("specialization"); specialization != "" {
		filter["specialization"] = specialization
	}
	if r.URL.Query().Get("available") == "true" {
		filter["available"] = true
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := h.DB.Find(ctx, filter, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		config.ErrorStatus("failed to get doctors", http.StatusNotFound, w, err)
		return
	}
	for i := range dbResp {
		dbResp[i].Password = ""
	}
	if len(dbResp) == 0 {
		dbResp = []models.Doctor{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DoctorByIDHandler returns one doctor by ID, password stripped
func (h Doctor) DoctorByIDHandler(w http.ResponseWriter, r *http.Request) {
	doctorID := mux.Vars(r)["doctor_id"]

	oid, err := primitive.ObjectIDFromHex(doctorID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := h.DB.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		config.ErrorStatus("failed to get doctor by ID", http.StatusNotFound, w, err)
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

// UpdateDoctorHandler sets the supplied profile fields on a doctor
func (h Doctor) UpdateDoctorHandler(w http.ResponseWriter, r *http.Request) {
	doctorID := mux.Vars(r)["doctor_id"]

	oid, err := primitive.ObjectIDFromHex(doctorID)
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
	fields["updatedAt"] = time.Now()

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := h.DB.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": fields}); err != nil {
		config.ErrorStatus("failed to update doctor", http.StatusInternalServerError, w, err)
		return
	}

	dbResp, err := h.DB.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		config.ErrorStatus("failed to get doctor by ID", http.StatusNotFound, w, err)
		return
	}
	dbResp.Password = ""

	b, _ := json.Marshal(dbResp)
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteDoctorHandler removes a doctor
func (h Doctor) DeleteDoctorHandler(w http.ResponseWriter, r *http.Request) {
	doctorID := mux.Vars(r)["doctor_id"]

	oid, err := primitive.ObjectIDFromHex(doctorID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := h.DB.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		config.ErrorStatus("failed to delete doctor", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(`{"deleted": "%s"}`, doctorID)))
}
