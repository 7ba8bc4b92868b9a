package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/avalonhealth/hospital-api/api"
	"github.com/avalonhealth/hospital-api/config"
	"github.com/avalonhealth/hospital-api/databases"
	"github.com/avalonhealth/hospital-api/models"
)

// Bill exported for testing purposes
type Bill struct {
	DB      databases.BillDatabase
	PDB     databases.PatientDatabase
	DDB     databases.DoctorDatabase
	CDB     databases.CounterDatabase
	BaseURL string
}

// billFilter matches a bill by either the storage id or the bill number
func billFilter(id string) interface{} {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"$or": []bson.M{{"_id": oid}, {"billNumber": id}}}
	}
	return bson.M{"billNumber": id}
}

// createBillRequest accepts service lines either in the service schema or as
// generic items (quantity x unitPrice) that get mapped into it
type createBillRequest struct {
	models.Bill
	Items []struct {
		Name      string  `json:"name"`
		Category  string  `json:"category"`
		Quantity  int     `json:"quantity"`
		UnitPrice float64 `json:"unitPrice"`
		Discount  float64 `json:"discount"`
		Tax       float64 `json:"tax"`
	} `json:"items"`
}

// CreateBillHandler creates a bill for an existing patient. Totals are
// derived from the service lines on save; client supplied totals are ignored.
func (h Bill) CreateBillHandler(w http.ResponseWriter, r *http.Request) {
	var req createBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	bill := req.Bill

	if bill.PatientID == "" {
		config.ErrorStatus("patientId is required", http.StatusBadRequest, w, errors.New("patientId missing"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	patientOID, err := primitive.ObjectIDFromHex(bill.PatientID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}
	patient, err := h.PDB.FindOne(ctx, bson.M{"_id": patientOID})
	if err != nil {
		config.ErrorStatus("failed to get patient by ID", http.StatusNotFound, w, err)
		return
	}
	bill.PatientNameAtBilling = patient.Name
	bill.PatientContact = patient.Phone

	if bill.DoctorID != "" && bill.DoctorName == "" {
		if doctorOID, err := primitive.ObjectIDFromHex(bill.DoctorID); err == nil {
			if doctor, err := h.DDB.FindOne(ctx, bson.M{"_id": doctorOID}); err == nil {
				bill.DoctorName = doctor.Name
			}
		}
	}

	// map generic items into the service schema
	for _, item := range req.Items {
		bill.Services = append(bill.Services, models.BillService{
			Name:       item.Name,
			Category:   item.Category,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: float64(item.Quantity) * item.UnitPrice,
			Discount:   item.Discount,
			Tax:        item.Tax,
		})
	}

	now := time.Now()
	seq, err := h.CDB.NextSequence(ctx, fmt.Sprintf("bill-%04d%02d", now.Year(), int(now.Month())))
	if err != nil {
		config.ErrorStatus("failed to generate bill number", http.StatusInternalServerError, w, err)
		return
	}
	bill.BillNumber = models.BillNumber(now, seq)

	if _, err := h.DB.InsertOne(ctx, &bill); err != nil {
		config.ErrorStatus("failed to create bill", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(bill)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// BillHandler returns bills newest first with optional status and patient filters
func (h Bill) BillHandler(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if status := r.URL.Query().Get("payment_status"); status != "" {
		filter["paymentStatus"] = status
	}
	if patientID := r.URL.Query().Get("patient_id"); patientID != "" {
		filter["patientId"] = patientID
	}
	if billType := r.URL.Query().Get("bill_type"); billType != "" {
		filter["billType"] = billType
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sort := options.Find().SetSort(bson.M{"billingDate": -1})
	dbResp, err := h.DB.Find(ctx, filter, sort)
	if err != nil {
		config.ErrorStatus("failed to get bills", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Bill{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// BillByIDHandler returns one bill by storage id or bill number
func (h Bill) BillByIDHandler(w http.ResponseWriter, r *http.Request) {
	billID := mux.Vars(r)["bill_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := h.DB.FindOne(ctx, billFilter(billID))
	if err != nil {
		config.ErrorStatus("failed to get bill by ID", http.StatusNotFound, w, err)
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

// UpdateBillHandler merges the request body into the stored bill. The bill
// number is immutable; totals are rederived on save.
func (h Bill) UpdateBillHandler(w http.ResponseWriter, r *http.Request) {
	billID := mux.Vars(r)["bill_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	bill, err := h.DB.FindOne(ctx, billFilter(billID))
	if err != nil {
		config.ErrorStatus("failed to get bill by ID", http.StatusNotFound, w, err)
		return
	}

	keepID, keepNumber, keepCreated := bill.ID, bill.BillNumber, bill.CreatedAt
	if err := json.NewDecoder(r.Body).Decode(bill); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	bill.ID, bill.BillNumber, bill.CreatedAt = keepID, keepNumber, keepCreated

	if err := h.DB.Save(ctx, bill); err != nil {
		config.ErrorStatus("failed to update bill", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(bill)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteBillHandler removes a bill outright
func (h Bill) DeleteBillHandler(w http.ResponseWriter, r *http.Request) {
	billID := mux.Vars(r)["bill_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := h.DB.DeleteOne(ctx, billFilter(billID)); err != nil {
		config.ErrorStatus("failed to delete bill", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(`{"deleted": "%s"}`, billID)))
}

// paymentRequest covers both payment paths: a ledger append (amount+method)
// or a bare direct status set. The two paths are intentionally independent; a
// direct status stands until the next ledger append rederives it.
type paymentRequest struct {
	Amount        float64 `json:"amount"`
	Method        string  `json:"method"`
	TransactionID string  `json:"transactionId"`
	PaymentStatus string  `json:"paymentStatus"`
}

// ProcessPaymentHandler records a payment against a bill
func (h Bill) ProcessPaymentHandler(w http.ResponseWriter, r *http.Request) {
	billID := mux.Vars(r)["bill_id"]

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	bill, err := h.DB.FindOne(ctx, billFilter(billID))
	if err != nil {
		config.ErrorStatus("failed to get bill by ID", http.StatusNotFound, w, err)
		return
	}

	now := time.Now()
	switch {
	case req.Amount > 0 && req.Method != "":
		bill.Payments = append(bill.Payments, models.Payment{
			PaymentID:     uuid.New().String(),
			Amount:        req.Amount,
			Method:        req.Method,
			TransactionID: req.TransactionID,
			PaidAt:        now,
			Status:        "Success",
		})
		bill.DerivePaymentStatus()
	case req.PaymentStatus != "":
		bill.PaymentStatus = req.PaymentStatus
		bill.PaymentMethod = req.Method
		if req.PaymentStatus == models.PaymentStatusPaid {
			bill.PaidDate = &now
		}
	default:
		config.ErrorStatus("payment requires amount and method, or a payment status", http.StatusBadRequest, w,
			errors.New("malformed payment request"))
		return
	}

	if err := h.DB.Save(ctx, bill); err != nil {
		config.ErrorStatus("failed to record payment", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(bill)
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateCheckoutSessionHandler opens a stripe checkout session for the
// outstanding balance on a bill
func (h Bill) CreateCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	billID := mux.Vars(r)["bill_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	bill, err := h.DB.FindOne(ctx, billFilter(billID))
	if err != nil {
		config.ErrorStatus("failed to get bill by ID", http.StatusNotFound, w, err)
		return
	}

	outstanding := bill.TotalAmount - bill.SuccessfulPaymentTotal()
	if outstanding <= 0 {
		config.ErrorStatus("bill has no outstanding balance", http.StatusBadRequest, w,
			fmt.Errorf("bill %s already settled", bill.BillNumber))
		return
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String("usd"),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Hospital bill %s", bill.BillNumber)),
					},
					UnitAmount: stripe.Int64(int64(outstanding * 100)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(h.BaseURL + "/api/user/bills/success"),
		CancelURL:         stripe.String(h.BaseURL + "/api/user/bills/cancel"),
		ClientReferenceID: stripe.String(bill.BillNumber),
	}

	s, err := session.New(params)
	if err != nil {
		config.ErrorStatus("failed to create checkout session", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("created checkout session",
		"billNumber", bill.BillNumber,
		"amount", outstanding)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(`{"sessionId": "%s", "url": "%s"}`, s.ID, s.URL)))
}

// FinancialReportHandler builds the billing report for a date range.
// report_type=revenue buckets Paid bills by month and bill type;
// report_type=pending lists Pending/Partial bills with the outstanding total.
func (h Bill) FinancialReportHandler(w http.ResponseWriter, r *http.Request) {
	reportType := r.URL.Query().Get("report_type")
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dateRange := bson.M{}
	if t, err := time.Parse("2006-01-02", from); err == nil {
		dateRange["$gte"] = t
	}
	if t, err := time.Parse("2006-01-02", to); err == nil {
		dateRange["$lte"] = t.AddDate(0, 0, 1)
	}

	report := models.FinancialReport{ReportType: reportType, From: from, To: to}

	switch reportType {
	case "revenue":
		match := bson.M{"paymentStatus": models.PaymentStatusPaid}
		if len(dateRange) > 0 {
			match["billingDate"] = dateRange
		}
		pipeline := []bson.M{
			{"$match": match},
			{"$group": bson.M{
				"_id": bson.M{
					"month": bson.M{"$dateToString": bson.M{"format": "%Y-%m", "date": "$billingDate"}},
					"type":  "$billType",
				},
				"revenue": bson.M{"$sum": "$totalAmount"},
				"count":   bson.M{"$sum": 1},
			}},
			{"$sort": bson.M{"_id.month": 1}},
		}
		cursor, err := h.DB.Aggregate(ctx, pipeline)
		if err != nil {
			config.ErrorStatus("failed to aggregate revenue", http.StatusInternalServerError, w, err)
			return
		}
		var rows []struct {
			ID struct {
				Month string `bson:"month"`
				Type  string `bson:"type"`
			} `bson:"_id"`
			Revenue float64 `bson:"revenue"`
			Count   int64   `bson:"count"`
		}
		if err := cursor.Decode(&rows); err != nil {
			config.ErrorStatus("failed to decode revenue rows", http.StatusInternalServerError, w, err)
			return
		}
		for _, row := range rows {
			report.Revenue = append(report.Revenue, models.MonthlyRevenue{
				Month:   row.ID.Month,
				Type:    row.ID.Type,
				Revenue: row.Revenue,
				Count:   row.Count,
			})
		}
	case "pending":
		filter := bson.M{"paymentStatus": bson.M{"$in": []string{models.PaymentStatusPending, models.PaymentStatusPartial}}}
		if len(dateRange) > 0 {
			filter["billingDate"] = dateRange
		}
		bills, err := h.DB.Find(ctx, filter)
		if err != nil {
			config.ErrorStatus("failed to get pending bills", http.StatusNotFound, w, err)
			return
		}
		report.PendingBills = bills
		for _, bill := range bills {
			report.PendingTotal += bill.TotalAmount - bill.SuccessfulPaymentTotal()
		}
	default:
		config.ErrorStatus("unknown report type", http.StatusBadRequest, w, fmt.Errorf("report_type %q", reportType))
		return
	}

	b, err := json.Marshal(report)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
