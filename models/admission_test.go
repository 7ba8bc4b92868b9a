package models_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/avalonhealth/hospital-api/models"
)

func TestComputeTotalCharges(t *testing.T) {
	admitted := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		admission models.Admission
		now       time.Time
		want      float64
	}{
		{
			name: "partial day rounds up to one full day",
			admission: models.Admission{
				AdmissionDate: admitted,
				DailyCharges:  2000,
			},
			now:  admitted.Add(6 * time.Hour),
			want: 2000,
		},
		{
			name: "exactly 48 hours bills two days",
			admission: models.Admission{
				AdmissionDate: admitted,
				DailyCharges:  2000,
			},
			now:  admitted.Add(48 * time.Hour),
			want: 4000,
		},
		{
			name: "49 hours rounds up to three days",
			admission: models.Admission{
				AdmissionDate: admitted,
				DailyCharges:  2000,
			},
			now:  admitted.Add(49 * time.Hour),
			want: 6000,
		},
		{
			name: "zero elapsed time bills nothing",
			admission: models.Admission{
				AdmissionDate: admitted,
				DailyCharges:  5000,
			},
			now:  admitted,
			want: 0,
		},
		{
			name: "admission date in the future bills nothing",
			admission: models.Admission{
				AdmissionDate: admitted,
				DailyCharges:  5000,
			},
			now:  admitted.Add(-2 * time.Hour),
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.admission.ComputeTotalCharges(tt.now))
		})
	}
}

func TestComputeTotalChargesFrozenAfterDischarge(t *testing.T) {
	admitted := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	discharged := admitted.Add(3 * 24 * time.Hour)

	a := models.Admission{
		AdmissionDate:       admitted,
		ActualDischargeDate: &discharged,
		DailyCharges:        3000,
	}

	atDischarge := a.ComputeTotalCharges(discharged)
	weekLater := a.ComputeTotalCharges(discharged.Add(7 * 24 * time.Hour))

	assert.Equal(t, float64(9000), atDischarge)
	assert.Equal(t, atDischarge, weekLater, "charges must not grow after discharge")
}

func TestApplyDerivedFields(t *testing.T) {
	admitted := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	now := admitted.Add(30 * time.Hour)

	a := models.Admission{
		AdmissionDate:        admitted,
		DailyCharges:         1000,
		ExpectedStayDuration: 5,
	}
	a.ApplyDerivedFields(now)

	assert.Equal(t, float64(2000), a.TotalCharges)
	assert.Equal(t, now, a.UpdatedAt)
	if assert.NotNil(t, a.ExpectedDischargeDate) {
		assert.Equal(t, admitted.AddDate(0, 0, 5), *a.ExpectedDischargeDate)
	}
}

func TestApplyDerivedFieldsKeepsExplicitExpectedDischarge(t *testing.T) {
	admitted := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	explicit := admitted.AddDate(0, 0, 2)

	a := models.Admission{
		AdmissionDate:         admitted,
		ExpectedStayDuration:  5,
		ExpectedDischargeDate: &explicit,
	}
	a.ApplyDerivedFields(admitted.Add(time.Hour))

	assert.Equal(t, explicit, *a.ExpectedDischargeDate)
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{models.AdmissionStatusAdmitted, models.AdmissionStatusUnderTreatment, true},
		{models.AdmissionStatusAdmitted, models.AdmissionStatusDischarged, true},
		{models.AdmissionStatusUnderTreatment, models.AdmissionStatusAdmitted, false},
		{models.AdmissionStatusReadyForDischarge, models.AdmissionStatusUnderTreatment, false},
		{models.AdmissionStatusUnderTreatment, models.AdmissionStatusTransferred, true},
		{models.AdmissionStatusUnderTreatment, models.AdmissionStatusDeceased, true},
		{models.AdmissionStatusDischarged, models.AdmissionStatusUnderTreatment, false},
		{models.AdmissionStatusDischarged, models.AdmissionStatusTransferred, false},
		{models.AdmissionStatusDeceased, models.AdmissionStatusDischarged, false},
		{models.AdmissionStatusTransferred, models.AdmissionStatusDischarged, true},
		{models.AdmissionStatusTransferred, models.AdmissionStatusUnderTreatment, false},
		{models.AdmissionStatusAdmitted, "Unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			a := models.Admission{Status: tt.from}
			assert.Equal(t, tt.want, a.CanTransitionTo(tt.to))
		})
	}
}

func TestAgeFromDateOfBirth(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	age, err := models.AgeFromDateOfBirth("20_06_1990", now)
	assert.NoError(t, err)
	assert.Equal(t, 33, age, "birthday not yet reached this year")

	age, err = models.AgeFromDateOfBirth("10_06_1990", now)
	assert.NoError(t, err)
	assert.Equal(t, 34, age)

	_, err = models.AgeFromDateOfBirth("1990-06-10", now)
	assert.Error(t, err)

	_, err = models.AgeFromDateOfBirth("", now)
	assert.Error(t, err)
}

func TestNewAdmissionIDFormat(t *testing.T) {
	now := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	id := models.NewAdmissionID(now)

	assert.Len(t, id, 13)
	assert.True(t, strings.HasPrefix(id, "ADM202401"), "got %s", id)
}

func TestSyntheticRooms(t *testing.T) {
	rooms := models.SyntheticRooms()
	assert.Len(t, rooms, 100)

	byType := map[string]int{}
	for _, room := range rooms {
		byType[room.RoomType]++
	}
	assert.Equal(t, 20, byType["ICU"])
	assert.Equal(t, 20, byType["Private"])
	assert.Equal(t, 40, byType["Semi-Private"])
	assert.Equal(t, 20, byType["General"])

	assert.Equal(t, "1", rooms[0].RoomNumber)
	assert.Equal(t, float64(5000), rooms[0].DailyCharge)
	assert.Equal(t, "100", rooms[99].RoomNumber)
	assert.Equal(t, float64(1000), rooms[99].DailyCharge)
}
