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

	"github.com/avalonhealth/hospital-api/api"
	"github.com/avalonhealth/hospital-api/config"
	"github.com/avalonhealth/hospital-api/databases"
	"github.com/avalonhealth/hospital-api/models"
)

// Prescription exported for testing purposes
type Prescription struct {
	DB  databases.PrescriptionDatabase
	PDB databases.PatientDatabase
	DDB databases.DoctorDatabase
}

// CreatePrescriptionHandler writes a prescription, snapshotting the patient
// and doctor names at prescription time
func (h Prescription) CreatePrescriptionHandler(w http.ResponseWriter, r *http.Request) {
	var prescription models.Prescription
	if err := json.NewDecoder(r.Body).Decode(&prescription); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if len(prescription.Medicines) == 0 {
		config.ErrorStatus("prescription needs at least one medicine", http.StatusBadRequest, w,
			errors.New("empty medicine list"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if prescription.PatientID != "" && prescription.PatientName == "" {
		oid, err := primitive.ObjectIDFromHex(prescription.PatientID)
		if err != nil {
			config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
			return
		}
		patient, err := h.PDB.FindOne(ctx, bson.M{"_id": oid})
		if err != nil {
			config.ErrorStatus("failed to get patient by ID", http.StatusNotFound, w, err)
			return
		}
		prescription.PatientName = patient.Name
	}
	if prescription.DoctorID != "" && prescription.DoctorName == "" {
		oid, err := primitive.ObjectIDFromHex(prescription.DoctorID)
		if err != nil {
			config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
			return
		}
		doctor, err := h.DDB.FindOne(ctx, bson.M{"_id": oid})
		if err != nil {
			config.ErrorStatus("failed to get doctor by ID", http.StatusNotFound, w, err)
			return
		}
		prescription.DoctorName = doctor.Name
	}

	now := time.Now()
	prescription.ID = primitive.NewObjectID()
	if prescription.PrescribedAt.IsZero() {
		prescription.PrescribedAt = now
	}
	prescription.CreatedAt = now
	prescription.UpdatedAt = now

	if _, err := h.DB.InsertOne(ctx, prescription); err != nil {
		config.ErrorStatus("failed to create prescription", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(prescription)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// PrescriptionHandler lists prescriptions newest first, optionally scoped to
// a patient or doctor
func (h Prescription) PrescriptionHandler(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if patientID := r.URL.Query().Get("patient_id"); patientID != "" {
		filter["patientId"] = patientID
	}
	if doctorID := r.URL.Query().Get("doctor_id"); doctorID != "" {
		filter["doctorId"] = doctorID
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := h.DB.Find(ctx, filter, options.Find().SetSort(bson.M{"prescribedAt": -1}))
	if err != nil {
		config.ErrorStatus("failed to get prescriptions", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Prescription{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// PrescriptionByIDHandler returns one prescription by ID
func (h Prescription) PrescriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
	prescriptionID := mux.Vars(r)["prescription_id"]

	oid, err := primitive.ObjectIDFromHex(prescriptionID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := h.DB.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		config.ErrorStatus("failed to get prescription by ID", http.StatusNotFound, w, err)
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

// UpdatePrescriptionHandler sets the supplied fields on a prescription. The
// snapshotted names are not touched.
func (h Prescription) UpdatePrescriptionHandler(w http.ResponseWriter, r *http.Request) {
	prescriptionID := mux.Vars(r)["prescription_id"]

	oid, err := primitive.ObjectIDFromHex(prescriptionID)
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
	delete(fields, "patientName")
	delete(fields, "doctorName")
	fields["updatedAt"] = time.Now()

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := h.DB.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": fields}); err != nil {
		config.ErrorStatus("failed to update prescription", http.StatusInternalServerError, w, err)
		return
	}

	dbResp, err := h.DB.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		config.ErrorStatus("failed to get prescription by ID", http.StatusNotFound, w, err)
		return
	}

	b, _ := json.Marshal(dbResp)
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeletePrescriptionHandler removes a prescription
func (h Prescription) DeletePrescriptionHandler(w http.ResponseWriter, r *http.Request) {
	prescriptionID := mux.Vars(r)["prescription_id"]

	oid, err := primitive.ObjectIDFromHex(prescriptionID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := h.DB.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		config.ErrorStatus("failed to delete prescription", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(`{"deleted": "%s"}`, prescriptionID)))
}
