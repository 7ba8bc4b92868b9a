package models

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Admission status values. Status only moves forward through the treatment
// flow, or sideways to Transferred/Deceased.
const (
	AdmissionStatusAdmitted          = "Admitted"
	AdmissionStatusUnderTreatment    = "Under Treatment"
	AdmissionStatusReadyForDischarge = "Ready for Discharge"
	AdmissionStatusDischarged        = "Discharged"
	AdmissionStatusTransferred       = "Transferred"
	AdmissionStatusDeceased          = "Deceased"
)

// admissionStatusRank orders the forward-only treatment flow. The terminal
// sideways states are not ranked.
var admissionStatusRank = map[string]int{
	AdmissionStatusAdmitted:          0,
	AdmissionStatusUnderTreatment:    1,
	AdmissionStatusReadyForDischarge: 2,
	AdmissionStatusDischarged:        3,
}

// Admission holds the structure for the admissions collection in mongo.
// Patient and doctor name fields are snapshots taken at admission time and do
// not track later edits to the referenced records.
type Admission struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	AdmissionID string             `json:"admissionId" bson:"admissionId"`

	PatientID              string `json:"patientId,omitempty" bson:"patientId,omitempty"`
	PatientNameAtAdmission string `json:"patientName" bson:"patientName"`
	PatientAge             int    `json:"patientAge" bson:"patientAge"`
	PatientGender          string `json:"patientGender" bson:"patientGender"`
	PatientContact         string `json:"patientContact" bson:"patientContact"`

	AdmissionType string `json:"admissionType" bson:"admissionType"` // Emergency, Planned, Transfer

	DoctorID              string `json:"doctorId" bson:"doctorId"`
	DoctorNameAtAdmission string `json:"doctorName" bson:"doctorName"`
	Department            string `json:"department" bson:"department"`

	RoomNumber   string  `json:"roomNumber" bson:"roomNumber"`
	RoomType     string  `json:"roomType" bson:"roomType"`
	BedNumber    string  `json:"bedNumber" bson:"bedNumber"`
	DailyCharges float64 `json:"dailyCharges" bson:"dailyCharges"`

	AdmissionDate         time.Time  `json:"admissionDate" bson:"admissionDate"`
	ExpectedStayDuration  int        `json:"expectedStayDuration,omitempty" bson:"expectedStayDuration,omitempty"`
	ExpectedDischargeDate *time.Time `json:"expectedDischargeDate,omitempty" bson:"expectedDischargeDate,omitempty"`
	ActualDischargeDate   *time.Time `json:"actualDischargeDate,omitempty" bson:"actualDischargeDate,omitempty"`

	Reason    string `json:"reason" bson:"reason"`
	Diagnosis string `json:"diagnosis" bson:"diagnosis"`

	AttendingPhysicians []AttendingPhysician `json:"attendingPhysicians" bson:"attendingPhysicians"`

	Vitals      []VitalRecord      `json:"vitals" bson:"vitals"`
	Medications []MedicationRecord `json:"medications" bson:"medications"`
	Procedures  []ProcedureRecord  `json:"procedures" bson:"procedures"`
	LabTests    []LabTestRecord    `json:"labTests" bson:"labTests"`
	Notes       []AdmissionNote    `json:"notes" bson:"notes"`

	DischargeDetails *DischargeDetails `json:"dischargeDetails,omitempty" bson:"dischargeDetails,omitempty"`
	EmergencyContact *EmergencyContact `json:"emergencyContact,omitempty" bson:"emergencyContact,omitempty"`
	Insurance        *InsuranceDetails `json:"insurance,omitempty" bson:"insurance,omitempty"`

	Status       string  `json:"status" bson:"status"`
	TotalCharges float64 `json:"totalCharges" bson:"totalCharges"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// AttendingPhysician is one entry in the attending physician list
type AttendingPhysician struct {
	DoctorID     string    `json:"doctorId" bson:"doctorId"`
	DoctorName   string    `json:"doctorName" bson:"doctorName"`
	Role         string    `json:"role" bson:"role"`
	AssignedDate time.Time `json:"assignedDate" bson:"assignedDate"`
}

// VitalRecord is one append-only vitals log entry
type VitalRecord struct {
	ID            string    `json:"_id" bson:"_id"`
	BloodPressure string    `json:"bloodPressure" bson:"bloodPressure"`
	HeartRate     string    `json:"heartRate" bson:"heartRate"`
	Temperature   string    `json:"temperature" bson:"temperature"`
	OxygenLevel   string    `json:"oxygenLevel" bson:"oxygenLevel"`
	RecordedBy    string    `json:"recordedBy" bson:"recordedBy"`
	RecordedAt    time.Time `json:"recordedAt" bson:"recordedAt"`
}

// MedicationRecord is one append-only medication log entry
type MedicationRecord struct {
	ID           string    `json:"_id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Dosage       string    `json:"dosage" bson:"dosage"`
	Frequency    string    `json:"frequency" bson:"frequency"`
	PrescribedBy string    `json:"prescribedBy" bson:"prescribedBy"`
	StartDate    time.Time `json:"startDate" bson:"startDate"`
}

// ProcedureRecord is one append-only procedure log entry
type ProcedureRecord struct {
	ID          string    `json:"_id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	PerformedBy string    `json:"performedBy" bson:"performedBy"`
	PerformedAt time.Time `json:"performedAt" bson:"performedAt"`
}

// LabTestRecord is one append-only lab test log entry
type LabTestRecord struct {
	ID          string    `json:"_id" bson:"_id"`
	TestName    string    `json:"testName" bson:"testName"`
	Result      string    `json:"result" bson:"result"`
	NormalRange string    `json:"normalRange" bson:"normalRange"`
	OrderedBy   string    `json:"orderedBy" bson:"orderedBy"`
	TestedAt    time.Time `json:"testedAt" bson:"testedAt"`
}

// AdmissionNote is one append-only clinical note
type AdmissionNote struct {
	ID        string    `json:"_id" bson:"_id"`
	Note      string    `json:"note" bson:"note"`
	AddedBy   string    `json:"addedBy" bson:"addedBy"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// DischargeDetails is the discharge sub-record populated at discharge time
type DischargeDetails struct {
	DischargeType    string  `json:"dischargeType" bson:"dischargeType"`
	DischargeSummary string  `json:"dischargeSummary" bson:"dischargeSummary"`
	FollowUpDate     string  `json:"followUpDate" bson:"followUpDate"`
	FollowUpNotes    string  `json:"followUpNotes" bson:"followUpNotes"`
	FinalDiagnosis   string  `json:"finalDiagnosis" bson:"finalDiagnosis"`
	FinalBillAmount  float64 `json:"finalBillAmount" bson:"finalBillAmount"`
}

// EmergencyContact is the emergency contact sub-record
type EmergencyContact struct {
	Name     string `json:"name" bson:"name"`
	Relation string `json:"relation" bson:"relation"`
	Contact  string `json:"contact" bson:"contact"`
}

// InsuranceDetails is the insurance sub-record
type InsuranceDetails struct {
	Provider       string  `json:"provider" bson:"provider"`
	PolicyNumber   string  `json:"policyNumber" bson:"policyNumber"`
	CoverageAmount float64 `json:"coverageAmount" bson:"coverageAmount"`
}

// NewAdmissionID generates a human readable admission code in the form
// ADM<year><month><4 random digits>, e.g. ADM2024013847
func NewAdmissionID(now time.Time) string {
	return fmt.Sprintf("ADM%04d%02d%04d", now.Year(), int(now.Month()), rand.Intn(10000))
}

// ComputeTotalCharges returns the room charges accrued at the given instant.
// Open stays bill through "now"; discharged stays bill through the actual
// discharge date, so the figure stabilizes once the stay closes. Partial days
// round up to a full day.
func (a *Admission) ComputeTotalCharges(now time.Time) float64 {
	instant := now
	if a.ActualDischargeDate != nil {
		instant = *a.ActualDischargeDate
	}
	elapsed := instant.Sub(a.AdmissionDate)
	if elapsed <= 0 {
		return 0
	}
	days := math.Ceil(elapsed.Hours() / 24)
	return days * a.DailyCharges
}

// ApplyDerivedFields recomputes the stored derived values. Run on every save.
func (a *Admission) ApplyDerivedFields(now time.Time) {
	if a.ExpectedStayDuration > 0 && a.ExpectedDischargeDate == nil {
		expected := a.AdmissionDate.AddDate(0, 0, a.ExpectedStayDuration)
		a.ExpectedDischargeDate = &expected
	}
	a.TotalCharges = a.ComputeTotalCharges(now)
	a.UpdatedAt = now
}

// CanTransitionTo reports whether the admission status may move to next.
// The treatment flow only moves forward; Transferred and Deceased are
// reachable from any non-terminal state.
func (a *Admission) CanTransitionTo(next string) bool {
	if a.Status == AdmissionStatusDischarged || a.Status == AdmissionStatusDeceased {
		return false
	}
	if next == AdmissionStatusTransferred || next == AdmissionStatusDeceased {
		return true
	}
	curRank, ok := admissionStatusRank[a.Status]
	if !ok {
		// a sideways state can still discharge
		return next == AdmissionStatusDischarged
	}
	nextRank, ok := admissionStatusRank[next]
	if !ok {
		return false
	}
	return nextRank > curRank
}

// AgeFromDateOfBirth computes a whole-year age from the portal's underscore
// delimited date format DD_MM_YYYY.
func AgeFromDateOfBirth(dob string, now time.Time) (int, error) {
	t, err := time.Parse("02_01_2006", dob)
	if err != nil {
		return 0, fmt.Errorf("invalid date of birth %q: %w", dob, err)
	}
	age := now.Year() - t.Year()
	if now.Month() < t.Month() || (now.Month() == t.Month() && now.Day() < t.Day()) {
		age--
	}
	if age < 0 {
		age = 0
	}
	return age, nil
}

// Room is one entry in the synthetic room inventory. Rooms are not persisted;
// the fixed 100 room numbering scheme is cross referenced against open
// admissions to derive occupancy.
type Room struct {
	RoomNumber  string  `json:"roomNumber"`
	RoomType    string  `json:"roomType"`
	DailyCharge float64 `json:"dailyCharge"`
	Occupied    bool    `json:"occupied"`
}

// SyntheticRooms returns the fixed 100 room inventory: rooms 1-20 ICU,
// 21-40 Private, 41-80 Semi-Private, 81-100 General.
func SyntheticRooms() []Room {
	rooms := make([]Room, 0, 100)
	for i := 1; i <= 100; i++ {
		var roomType string
		var charge float64
		switch {
		case i <= 20:
			roomType = "ICU"
			charge = 5000
		case i <= 40:
			roomType = "Private"
			charge = 3000
		case i <= 80:
			roomType = "Semi-Private"
			charge = 2000
		default:
			roomType = "General"
			charge = 1000
		}
		rooms = append(rooms, Room{
			RoomNumber:  fmt.Sprintf("%d", i),
			RoomType:    roomType,
			DailyCharge: charge,
		})
	}
	return rooms
}
