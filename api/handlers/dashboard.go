package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/avalonhealth/hospital-api/api"
	"github.com/avalonhealth/hospital-api/config"
	"github.com/avalonhealth/hospital-api/databases"
	"github.com/avalonhealth/hospital-api/models"
)

// Dashboard aggregates counters across every collection for the reporting
// view. Exported for testing purposes.
type Dashboard struct {
	PDB databases.PatientDatabase
	DDB databases.DoctorDatabase
	ADB databases.AdmissionDatabase
	BDB databases.BillDatabase
	IDB databases.InventoryDatabase
	SDB databases.StaffDatabase
	TDB databases.TelemedicineDatabase
}

// DashboardHandler recomputes the full stats payload per request. An optional
// from/to range scopes the billing figures; counters are always global.
func (h Dashboard) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	var stats models.DashboardStats

	var err error
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	dateRange := bson.M{}
	switch r.URL.Query().Get("period") {
	case "today":
		dateRange["$gte"] = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case "week":
		dateRange["$gte"] = now.AddDate(0, 0, -7)
	case "month":
		dateRange["$gte"] = monthStart
	case "quarter":
		qMonth := now.Month() - (now.Month()-1)%3
		dateRange["$gte"] = time.Date(now.Year(), qMonth, 1, 0, 0, 0, 0, time.UTC)
	case "year":
		dateRange["$gte"] = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	}
	// an explicit custom range overrides the named period
	if t, err := time.Parse("2006-01-02", r.URL.Query().Get("from")); err == nil {
		dateRange["$gte"] = t
	}
	if t, err := time.Parse("2006-01-02", r.URL.Query().Get("to")); err == nil {
		dateRange["$lte"] = t.AddDate(0, 0, 1)
	}
	if p := r.URL.Query().Get("period"); p != "" {
		stats.Range = p
	} else if len(dateRange) > 0 {
		stats.Range = r.URL.Query().Get("from") + ".." + r.URL.Query().Get("to")
	}

	if stats.Patients.Total, err = h.PDB.CountDocuments(ctx, bson.M{}); err != nil {
		config.ErrorStatus("failed to count patients", http.StatusInternalServerError, w, err)
		return
	}
	stats.Patients.NewThisMonth, _ = h.PDB.CountDocuments(ctx, bson.M{"createdAt": bson.M{"$gte": monthStart}})

	if stats.Doctors.Total, err = h.DDB.CountDocuments(ctx, bson.M{}); err != nil {
		config.ErrorStatus("failed to count doctors", http.StatusInternalServerError, w, err)
		return
	}
	stats.Doctors.Available, _ = h.DDB.CountDocuments(ctx, bson.M{"available": true})

	if stats.Admissions.Total, err = h.ADB.CountDocuments(ctx, bson.M{}); err != nil {
		config.ErrorStatus("failed to count admissions", http.StatusInternalServerError, w, err)
		return
	}
	stats.Admissions.Current, _ = h.ADB.CountDocuments(ctx, bson.M{
		"status": bson.M{"$nin": []string{models.AdmissionStatusDischarged, models.AdmissionStatusDeceased}},
	})
	stats.Admissions.Discharged, _ = h.ADB.CountDocuments(ctx, bson.M{"status": models.AdmissionStatusDischarged})

	paidFilter := bson.M{"paymentStatus": models.PaymentStatusPaid}
	pendingFilter := bson.M{"paymentStatus": bson.M{"$in": []string{models.PaymentStatusPending, models.PaymentStatusPartial}}}
	if len(dateRange) > 0 {
		paidFilter["billingDate"] = dateRange
		pendingFilter["billingDate"] = dateRange
	}
	paid, err := h.BDB.Find(ctx, paidFilter)
	if err != nil {
		config.ErrorStatus("failed to get paid bills", http.StatusInternalServerError, w, err)
		return
	}
	for _, bill := range paid {
		stats.Billing.Revenue += bill.TotalAmount
	}
	pending, err := h.BDB.Find(ctx, pendingFilter)
	if err != nil {
		config.ErrorStatus("failed to get pending bills", http.StatusInternalServerError, w, err)
		return
	}
	stats.Billing.PendingBills = int64(len(pending))
	for _, bill := range pending {
		stats.Billing.PendingAmount += bill.TotalAmount - bill.SuccessfulPaymentTotal()
	}

	if stats.Inventory.Total, err = h.IDB.CountDocuments(ctx, bson.M{}); err != nil {
		config.ErrorStatus("failed to count inventory", http.StatusInternalServerError, w, err)
		return
	}
	stats.Inventory.LowStock, _ = h.IDB.CountDocuments(ctx, bson.M{
		"status": bson.M{"$in": []string{models.InventoryStatusLowStock, models.InventoryStatusOutOfStock}},
	})
	stats.Inventory.Expired, _ = h.IDB.CountDocuments(ctx, bson.M{"status": models.InventoryStatusExpired})

	if stats.Staff.Total, err = h.SDB.CountDocuments(ctx, bson.M{}); err != nil {
		config.ErrorStatus("failed to count staff", http.StatusInternalServerError, w, err)
		return
	}
	stats.Staff.Active, _ = h.SDB.CountDocuments(ctx, bson.M{"active": true})

	stats.Sessions.Scheduled, _ = h.TDB.CountDocuments(ctx, bson.M{"status": models.SessionStatusScheduled})
	stats.Sessions.Completed, _ = h.TDB.CountDocuments(ctx, bson.M{"status": models.SessionStatusCompleted})

	zap.S().Debugw("dashboard stats computed",
		"patients", stats.Patients.Total,
		"currentAdmissions", stats.Admissions.Current)

	b, err := json.Marshal(stats)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
