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

// Staff exported for testing purposes
type Staff struct {
	DB  databases.StaffDatabase
	CDB databases.CounterDatabase
}

// staffFilter matches a staff member by storage id or employee code
func staffFilter(id string) interface{} {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"$or": []bson.M{{"_id": oid}, {"employeeId": id}}}
	}
	return bson.M{"employeeId": id}
}

// CreateStaffHandler adds a staff member with a sequential employee code
func (h Staff) CreateStaffHandler(w http.ResponseWriter, r *http.Request) {
	var staff models.Staff
	if err := json.NewDecoder(r.Body).Decode(&staff); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	seq, err := h.CDB.NextSequence(ctx, "staff")
	if err != nil {
		config.ErrorStatus("failed to generate employee ID", http.StatusInternalServerError, w, err)
		return
	}
	staff.EmployeeID = models.EmployeeID(seq)
	staff.ID = primitive.NewObjectID()
	staff.Active = true
	staff.CreatedAt = time.Now()
	staff.UpdatedAt = staff.CreatedAt

	if _, err := h.DB.InsertOne(ctx, staff); err != nil {
		config.ErrorStatus("failed to create staff member", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(staff)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// StaffHandler lists staff with optional role, department and shift filters
func (h Staff) StaffHandler(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if role := r.URL.Query().Get("role"); role != "" {
		filter["role"] = role
	}
	if department := r.URL.Query().Get("department"); department != "" {
		filter["department"] = department
	}
	if shift := r.URL.Query().Get("shift"); shift != "" {
		filter["shift"] = shift
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := h.DB.Find(ctx, filter, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		config.ErrorStatus("failed to get staff", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Staff{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// StaffByIDHandler returns one staff member by storage id or employee code
func (h Staff) StaffByIDHandler(w http.ResponseWriter, r *http.Request) {
	staffID := mux.Vars(r)["staff_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := h.DB.FindOne(ctx, staffFilter(staffID))
	if err != nil {
		config.ErrorStatus("failed to get staff member by ID", http.StatusNotFound, w, err)
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

// UpdateStaffHandler sets the supplied fields on a staff member. The employee
// code is immutable.
func (h Staff) UpdateStaffHandler(w http.ResponseWriter, r *http.Request) {
	staffID := mux.Vars(r)["staff_id"]

	var fields bson.M
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	delete(fields, "_id")
	delete(fields, "employeeId")
	fields["updatedAt"] = time.Now()

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := h.DB.UpdateOne(ctx, staffFilter(staffID), bson.M{"$set": fields}); err != nil {
		config.ErrorStatus("failed to update staff member", http.StatusInternalServerError, w, err)
		return
	}

	dbResp, err := h.DB.FindOne(ctx, staffFilter(staffID))
	if err != nil {
		config.ErrorStatus("failed to get staff member by ID", http.StatusNotFound, w, err)
		return
	}

	b, _ := json.Marshal(dbResp)
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteStaffHandler removes a staff member
func (h Staff) DeleteStaffHandler(w http.ResponseWriter, r *http.Request) {
	staffID := mux.Vars(r)["staff_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := h.DB.DeleteOne(ctx, staffFilter(staffID)); err != nil {
		config.ErrorStatus("failed to delete staff member", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(`{"deleted": "%s"}`, staffID)))
}
