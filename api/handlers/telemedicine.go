package handlers

import (
	"encoding/json"
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

// Telemedicine exported for testing purposes
type Telemedicine struct {
	DB  databases.TelemedicineDatabase
	PDB databases.PatientDatabase
	DDB databases.DoctorDatabase
}

// sessionStatuses is the set of accepted telemedicine session states
var sessionStatuses = map[string]bool{
	models.SessionStatusScheduled: true,
	models.SessionStatusOngoing:   true,
	models.SessionStatusCompleted: true,
	models.SessionStatusCancelled: true,
}

// CreateSessionHandler schedules a telemedicine session and hands back the
// generated room code
func (h Telemedicine) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	var session models.TelemedicineSession
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if session.PatientID != "" && session.PatientName == "" {
		if oid, err := primitive.ObjectIDFromHex(session.PatientID); err == nil {
			patient, err := h.PDB.FindOne(ctx, bson.M{"_id": oid})
			if err != nil {
				config.ErrorStatus("failed to get patient by ID", http.StatusNotFound, w, err)
				return
			}
			session.PatientName = patient.Name
		}
	}
	if session.DoctorID != "" && session.DoctorName == "" {
		if oid, err := primitive.ObjectIDFromHex(session.DoctorID); err == nil {
			doctor, err := h.DDB.FindOne(ctx, bson.M{"_id": oid})
			if err != nil {
				config.ErrorStatus("failed to get doctor by ID", http.StatusNotFound, w, err)
				return
			}
			session.DoctorName = doctor.Name
		}
	}

	now := time.Now()
	session.ID = primitive.NewObjectID()
	session.RoomCode = models.NewRoomCode()
	session.Status = models.SessionStatusScheduled
	if session.Duration <= 0 {
		session.Duration = 30
	}
	session.CreatedAt = now
	session.UpdatedAt = now

	if _, err := h.DB.InsertOne(ctx, session); err != nil {
		config.ErrorStatus("failed to create session", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(session)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// SessionHandler lists sessions by upcoming start time, with optional status,
// patient and doctor filters
func (h Telemedicine) SessionHandler(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}
	if patientID := r.URL.Query().Get("patient_id"); patientID != "" {
		filter["patientId"] = patientID
	}
	if doctorID := r.URL.Query().Get("doctor_id"); doctorID != "" {
		filter["doctorId"] = doctorID
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := h.DB.Find(ctx, filter, options.Find().SetSort(bson.M{"scheduledAt": 1}))
	if err != nil {
		config.ErrorStatus("failed to get sessions", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.TelemedicineSession{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// SessionByIDHandler returns one session by ID
func (h Telemedicine) SessionByIDHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]

	oid, err := primitive.ObjectIDFromHex(sessionID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := h.DB.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		config.ErrorStatus("failed to get session by ID", http.StatusNotFound, w, err)
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

// UpdateSessionStatusHandler moves a session through its lifecycle
func (h Telemedicine) UpdateSessionStatusHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]

	oid, err := primitive.ObjectIDFromHex(sessionID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if !sessionStatuses[req.Status] {
		config.ErrorStatus("unknown session status", http.StatusBadRequest, w,
			fmt.Errorf("status %q", req.Status))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	fields := bson.M{"status": req.Status, "updatedAt": time.Now()}
	if req.Notes != "" {
		fields["notes"] = req.Notes
	}
	if err := h.DB.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": fields}); err != nil {
		config.ErrorStatus("failed to update session", http.StatusInternalServerError, w, err)
		return
	}

	dbResp, err := h.DB.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		config.ErrorStatus("failed to get session by ID", http.StatusNotFound, w, err)
		return
	}

	b, _ := json.Marshal(dbResp)
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteSessionHandler removes a session
func (h Telemedicine) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]

	oid, err := primitive.ObjectIDFromHex(sessionID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := h.DB.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		config.ErrorStatus("failed to delete session", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(`{"deleted": "%s"}`, sessionID)))
}
