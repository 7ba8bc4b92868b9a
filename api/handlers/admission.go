package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/avalonhealth/hospital-api/api"
	"github.com/avalonhealth/hospital-api/config"
	"github.com/avalonhealth/hospital-api/databases"
	"github.com/avalonhealth/hospital-api/models"
)

// Admission exported for testing purposes
type Admission struct {
	DB  databases.AdmissionDatabase
	PDB databases.PatientDatabase
	DDB databases.DoctorDatabase
}

// admissionFilter matches an admission by either the storage id or the human
// readable admission code
func admissionFilter(id string) interface{} {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"$or": []bson.M{{"_id": oid}, {"admissionId": id}}}
	}
	return bson.M{"admissionId": id}
}

// CreateAdmissionHandler admits a patient. The admitting doctor must exist;
// the patient reference is optional to allow walk-ins with manually supplied
// details.
func (a Admission) CreateAdmissionHandler(w http.ResponseWriter, r *http.Request) {
	var admission models.Admission
	if err := json.NewDecoder(r.Body).Decode(&admission); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if admission.DoctorID == "" && len(admission.AttendingPhysicians) == 0 {
		config.ErrorStatus("an admitting or attending doctor is required", http.StatusBadRequest, w, errors.New("doctorId missing"))
		return
	}
	if admission.DoctorID == "" {
		admission.DoctorID = admission.AttendingPhysicians[0].DoctorID
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if admission.RoomNumber != "" {
		occupied, err := a.DB.CountDocuments(ctx, bson.M{
			"roomNumber": admission.RoomNumber,
			"status":     bson.M{"$ne": models.AdmissionStatusDischarged},
		})
		if err != nil {
			config.ErrorStatus("failed to check room availability", http.StatusInternalServerError, w, err)
			return
		}
		if occupied > 0 {
			config.ErrorStatus("room is already occupied", http.StatusConflict, w,
				fmt.Errorf("room %s has an open admission", admission.RoomNumber))
			return
		}
	}

	doctorOID, err := primitive.ObjectIDFromHex(admission.DoctorID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}
	doctor, err := a.DDB.FindOne(ctx, bson.M{"_id": doctorOID})
	if err != nil {
		config.ErrorStatus("failed to get doctor by ID", http.StatusNotFound, w, err)
		return
	}
	if admission.DoctorNameAtAdmission == "" {
		admission.DoctorNameAtAdmission = doctor.Name
	}
	if admission.Department == "" {
		admission.Department = doctor.Department
	}

	if admission.PatientID != "" {
		patientOID, err := primitive.ObjectIDFromHex(admission.PatientID)
		if err != nil {
			config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
			return
		}
		patient, err := a.PDB.FindOne(ctx, bson.M{"_id": patientOID})
		if err != nil {
			config.ErrorStatus("failed to get patient by ID", http.StatusNotFound, w, err)
			return
		}
		if admission.PatientNameAtAdmission == "" {
			admission.PatientNameAtAdmission = patient.Name
		}
		if admission.PatientGender == "" {
			admission.PatientGender = patient.Gender
		}
		if admission.PatientContact == "" {
			admission.PatientContact = patient.Phone
		}
		if admission.PatientAge == 0 && patient.DateOfBirth != "" {
			age, ageErr := models.AgeFromDateOfBirth(patient.DateOfBirth, time.Now())
			if ageErr != nil {
				zap.S().Warnw("could not derive patient age",
					"patientId", admission.PatientID,
					"error", ageErr)
			} else {
				admission.PatientAge = age
			}
		}
	}

	if _, err := a.DB.InsertOne(ctx, &admission); err != nil {
		config.ErrorStatus("failed to create admission", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(admission)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// AdmissionHandler returns admissions newest first, with optional status,
// department and admission date range filters
func (a Admission) AdmissionHandler(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}
	if department := r.URL.Query().Get("department"); department != "" {
		filter["department"] = department
	}
	dateRange := bson.M{}
	if from := r.URL.Query().Get("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			dateRange["$gte"] = t
		}
	}
	if to := r.URL.Query().Get("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			dateRange["$lte"] = t.AddDate(0, 0, 1)
		}
	}
	if len(dateRange) > 0 {
		filter["admissionDate"] = dateRange
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sort := options.Find().SetSort(bson.M{"admissionDate": -1})
	dbResp, err := a.DB.Find(ctx, filter, sort)
	if err != nil {
		config.ErrorStatus("failed to get admissions", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Admission{}
	}

	a.fillSnapshotFallbacks(ctx, dbResp)

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// fillSnapshotFallbacks pulls missing denormalized patient/doctor names from
// the referenced records. Snapshots taken at admission time stay untouched.
func (a Admission) fillSnapshotFallbacks(ctx context.Context, admissions []models.Admission) {
	for i := range admissions {
		adm := &admissions[i]
		if adm.PatientNameAtAdmission == "" && adm.PatientID != "" {
			if oid, err := primitive.ObjectIDFromHex(adm.PatientID); err == nil {
				if patient, err := a.PDB.FindOne(ctx, bson.M{"_id": oid}); err == nil {
					adm.PatientNameAtAdmission = patient.Name
				}
			}
		}
		if adm.DoctorNameAtAdmission == "" && adm.DoctorID != "" {
			if oid, err := primitive.ObjectIDFromHex(adm.DoctorID); err == nil {
				if doctor, err := a.DDB.FindOne(ctx, bson.M{"_id": oid}); err == nil {
					adm.DoctorNameAtAdmission = doctor.Name
				}
			}
		}
	}
}

// AdmissionByIDHandler returns one admission by storage id or admission code
func (a Admission) AdmissionByIDHandler(w http.ResponseWriter, r *http.Request) {
	admissionID := mux.Vars(r)["admission_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := a.DB.FindOne(ctx, admissionFilter(admissionID))
	if err != nil {
		config.ErrorStatus("failed to get admission by ID", http.StatusNotFound, w, err)
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

// UpdateAdmissionHandler merges the request body into the stored admission.
// The admission code is immutable; derived fields are recomputed on save.
func (a Admission) UpdateAdmissionHandler(w http.ResponseWriter, r *http.Request) {
	admissionID := mux.Vars(r)["admission_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	admission, err := a.DB.FindOne(ctx, admissionFilter(admissionID))
	if err != nil {
		config.ErrorStatus("failed to get admission by ID", http.StatusNotFound, w, err)
		return
	}

	keepID, keepCode, keepCreated := admission.ID, admission.AdmissionID, admission.CreatedAt
	if err := json.NewDecoder(r.Body).Decode(admission); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	admission.ID, admission.AdmissionID, admission.CreatedAt = keepID, keepCode, keepCreated

	if err := a.DB.Save(ctx, admission); err != nil {
		config.ErrorStatus("failed to update admission", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(admission)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateAdmissionStatusHandler moves the admission status forward through the
// treatment flow or sideways to Transferred/Deceased
func (a Admission) UpdateAdmissionStatusHandler(w http.ResponseWriter, r *http.Request) {
	admissionID := mux.Vars(r)["admission_id"]

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	admission, err := a.DB.FindOne(ctx, admissionFilter(admissionID))
	if err != nil {
		config.ErrorStatus("failed to get admission by ID", http.StatusNotFound, w, err)
		return
	}

	if !admission.CanTransitionTo(body.Status) {
		config.ErrorStatus("invalid status transition", http.StatusBadRequest, w,
			fmt.Errorf("cannot move from %s to %s", admission.Status, body.Status))
		return
	}

	admission.Status = body.Status
	if body.Status == models.AdmissionStatusDischarged && admission.ActualDischargeDate == nil {
		now := time.Now()
		admission.ActualDischargeDate = &now
	}

	if err := a.DB.Save(ctx, admission); err != nil {
		config.ErrorStatus("failed to update admission status", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(admission)
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// clinicalRecordKinds routes the append endpoint to the right embedded log
var clinicalRecordKinds = map[string]bool{
	"vitals":      true,
	"medications": true,
	"procedures":  true,
	"lab-tests":   true,
	"notes":       true,
}

// AddClinicalRecordHandler appends one entry to the embedded clinical log
// named in the path. Appends are read-modify-write with no locking: two
// concurrent appends against the same admission can lose one entry.
func (a Admission) AddClinicalRecordHandler(w http.ResponseWriter, r *http.Request) {
	admissionID := mux.Vars(r)["admission_id"]
	kind := mux.Vars(r)["record_kind"]

	if !clinicalRecordKinds[kind] {
		config.ErrorStatus("unknown clinical record kind", http.StatusBadRequest, w, fmt.Errorf("kind %q", kind))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	admission, err := a.DB.FindOne(ctx, admissionFilter(admissionID))
	if err != nil {
		config.ErrorStatus("failed to get admission by ID", http.StatusNotFound, w, err)
		return
	}

	now := time.Now()
	entryID := uuid.New().String()
	dec := json.NewDecoder(r.Body)

	switch kind {
	case "vitals":
		var rec models.VitalRecord
		if err := dec.Decode(&rec); err != nil {
			config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
			return
		}
		rec.ID, rec.RecordedAt = entryID, now
		admission.Vitals = append(admission.Vitals, rec)
	case "medications":
		var rec models.MedicationRecord
		if err := dec.Decode(&rec); err != nil {
			config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
			return
		}
		rec.ID = entryID
		if rec.StartDate.IsZero() {
			rec.StartDate = now
		}
		admission.Medications = append(admission.Medications, rec)
	case "procedures":
		var rec models.ProcedureRecord
		if err := dec.Decode(&rec); err != nil {
			config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
			return
		}
		rec.ID, rec.PerformedAt = entryID, now
		admission.Procedures = append(admission.Procedures, rec)
	case "lab-tests":
		var rec models.LabTestRecord
		if err := dec.Decode(&rec); err != nil {
			config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
			return
		}
		rec.ID, rec.TestedAt = entryID, now
		admission.LabTests = append(admission.LabTests, rec)
	case "notes":
		var rec models.AdmissionNote
		if err := dec.Decode(&rec); err != nil {
			config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
			return
		}
		rec.ID, rec.CreatedAt = entryID, now
		admission.Notes = append(admission.Notes, rec)
	}

	if err := a.DB.Save(ctx, admission); err != nil {
		config.ErrorStatus("failed to append clinical record", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(admission)
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DischargeAdmissionHandler closes the stay. The final bill is a separate
// billing call; a failure between the two leaves a discharged admission with
// no bill, which billing reconciles manually.
func (a Admission) DischargeAdmissionHandler(w http.ResponseWriter, r *http.Request) {
	admissionID := mux.Vars(r)["admission_id"]

	var details models.DischargeDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	admission, err := a.DB.FindOne(ctx, admissionFilter(admissionID))
	if err != nil {
		config.ErrorStatus("failed to get admission by ID", http.StatusNotFound, w, err)
		return
	}

	if !admission.CanTransitionTo(models.AdmissionStatusDischarged) {
		config.ErrorStatus("admission cannot be discharged", http.StatusBadRequest, w,
			fmt.Errorf("current status %s", admission.Status))
		return
	}

	now := time.Now()
	admission.Status = models.AdmissionStatusDischarged
	admission.ActualDischargeDate = &now
	admission.DischargeDetails = &details

	if err := a.DB.Save(ctx, admission); err != nil {
		config.ErrorStatus("failed to discharge admission", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(admission)
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// AdmissionsByPatientIDHandler returns all admissions for a patient, newest first
func (a Admission) AdmissionsByPatientIDHandler(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["patient_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sort := options.Find().SetSort(bson.M{"admissionDate": -1})
	dbResp, err := a.DB.Find(ctx, bson.M{"patientId": patientID}, sort)
	if err != nil {
		config.ErrorStatus("failed to get admissions by patient ID", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Admission{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// admissionWithRole is the doctor view annotation wrapper
type admissionWithRole struct {
	models.Admission
	DoctorRole string `json:"doctorRole"`
}

// AdmissionsByDoctorIDHandler returns admissions where the doctor is either
// the admitting physician or listed as an attending physician, annotated with
// the doctor's role on the case
func (a Admission) AdmissionsByDoctorIDHandler(w http.ResponseWriter, r *http.Request) {
	doctorID := mux.Vars(r)["doctor_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sort := options.Find().SetSort(bson.M{"admissionDate": -1})
	dbResp, err := a.DB.Find(ctx, bson.M{"$or": []bson.M{
		{"doctorId": doctorID},
		{"attendingPhysicians.doctorId": doctorID},
	}}, sort)
	if err != nil {
		config.ErrorStatus("failed to get admissions by doctor ID", http.StatusNotFound, w, err)
		return
	}

	annotated := make([]admissionWithRole, 0, len(dbResp))
	for _, adm := range dbResp {
		role := "Admitting Physician"
		if adm.DoctorID != doctorID {
			for _, ap := range adm.AttendingPhysicians {
				if ap.DoctorID == doctorID {
					role = ap.Role
					break
				}
			}
		}
		annotated = append(annotated, admissionWithRole{Admission: adm, DoctorRole: role})
	}

	b, err := json.Marshal(annotated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// AvailableRoomsHandler lists the synthetic 100 room inventory minus the
// rooms held by currently open admissions. Rooms are not a persisted entity.
func (a Admission) AvailableRoomsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	open, err := a.DB.Find(ctx, bson.M{"status": bson.M{"$ne": models.AdmissionStatusDischarged}})
	if err != nil {
		config.ErrorStatus("failed to get open admissions", http.StatusInternalServerError, w, err)
		return
	}

	occupied := make(map[string]bool, len(open))
	for _, adm := range open {
		if adm.RoomNumber != "" {
			occupied[adm.RoomNumber] = true
		}
	}

	available := []models.Room{}
	for _, room := range models.SyntheticRooms() {
		if !occupied[room.RoomNumber] {
			available = append(available, room)
		}
	}

	b, err := json.Marshal(available)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteAdmissionHandler removes an admission record outright
func (a Admission) DeleteAdmissionHandler(w http.ResponseWriter, r *http.Request) {
	admissionID := mux.Vars(r)["admission_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := a.DB.DeleteOne(ctx, admissionFilter(admissionID)); err != nil {
		config.ErrorStatus("failed to delete admission", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(`{"deleted": "%s"}`, admissionID)))
}
