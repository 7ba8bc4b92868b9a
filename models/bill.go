package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bill payment status values derived from the payment ledger
const (
	PaymentStatusPending = "Pending"
	PaymentStatusPartial = "Partial"
	PaymentStatusPaid    = "Paid"
	PaymentStatusOverdue = "Overdue"
)

// Bill type values
const (
	BillTypeOPD     = "OPD"
	BillTypeIPD     = "IPD"
	BillTypeService = "Service"
)

// Bill holds the structure for the bills collection in mongo. Patient name
// and contact are snapshots taken at billing time.
type Bill struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	BillNumber string             `json:"billNumber" bson:"billNumber"`

	PatientID            string `json:"patientId" bson:"patientId"`
	PatientNameAtBilling string `json:"patientName" bson:"patientName"`
	PatientContact       string `json:"patientContact" bson:"patientContact"`

	BillType string `json:"billType" bson:"billType"`

	AppointmentID string `json:"appointmentId,omitempty" bson:"appointmentId,omitempty"`
	AdmissionID   string `json:"admissionId,omitempty" bson:"admissionId,omitempty"`
	DoctorID      string `json:"doctorId,omitempty" bson:"doctorId,omitempty"`
	DoctorName    string `json:"doctorName,omitempty" bson:"doctorName,omitempty"`

	Services []BillService `json:"services" bson:"services"`

	Subtotal      float64 `json:"subtotal" bson:"subtotal"`
	TotalDiscount float64 `json:"totalDiscount" bson:"totalDiscount"`
	TotalTax      float64 `json:"totalTax" bson:"totalTax"`
	TotalAmount   float64 `json:"totalAmount" bson:"totalAmount"`

	PaymentStatus string     `json:"paymentStatus" bson:"paymentStatus"`
	PaymentMethod string     `json:"paymentMethod,omitempty" bson:"paymentMethod,omitempty"`
	PaidDate      *time.Time `json:"paidDate,omitempty" bson:"paidDate,omitempty"`

	Payments []Payment `json:"payments" bson:"payments"`

	InsuranceClaim *InsuranceClaim `json:"insuranceClaim,omitempty" bson:"insuranceClaim,omitempty"`

	BillingDate time.Time `json:"billingDate" bson:"billingDate"`
	DueDate     time.Time `json:"dueDate" bson:"dueDate"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// BillService is one service line item on a bill
type BillService struct {
	Name       string  `json:"name" bson:"name"`
	Category   string  `json:"category" bson:"category"`
	Quantity   int     `json:"quantity" bson:"quantity"`
	UnitPrice  float64 `json:"unitPrice" bson:"unitPrice"`
	TotalPrice float64 `json:"totalPrice" bson:"totalPrice"`
	Discount   float64 `json:"discount" bson:"discount"`
	Tax        float64 `json:"tax" bson:"tax"`
}

// Payment is one entry in the bill payment ledger
type Payment struct {
	PaymentID     string    `json:"paymentId" bson:"paymentId"`
	Amount        float64   `json:"amount" bson:"amount"`
	Method        string    `json:"method" bson:"method"`
	TransactionID string    `json:"transactionId" bson:"transactionId"`
	PaidAt        time.Time `json:"paidAt" bson:"paidAt"`
	Status        string    `json:"status" bson:"status"` // Success, Failed, Refunded
}

// InsuranceClaim is the insurance claim sub-record on a bill
type InsuranceClaim struct {
	Provider     string  `json:"provider" bson:"provider"`
	PolicyNumber string  `json:"policyNumber" bson:"policyNumber"`
	ClaimAmount  float64 `json:"claimAmount" bson:"claimAmount"`
	ClaimStatus  string  `json:"claimStatus" bson:"claimStatus"`
}

// BillNumber formats a bill number from a monthly sequence value, in the form
// BILL<year><month><4 digit sequence>, e.g. BILL2024010042
func BillNumber(now time.Time, seq int64) string {
	return fmt.Sprintf("BILL%04d%02d%04d", now.Year(), int(now.Month()), seq)
}

// RecalculateTotals rederives line totals and the bill totals from the
// service lines. Client supplied totals are always overwritten; an empty
// service list collapses every total to zero.
func (b *Bill) RecalculateTotals() {
	var subtotal, discount, tax float64
	for i := range b.Services {
		s := &b.Services[i]
		if s.TotalPrice == 0 && s.Quantity > 0 {
			s.TotalPrice = float64(s.Quantity) * s.UnitPrice
		}
		subtotal += s.TotalPrice
		discount += s.Discount
		tax += s.Tax
	}
	b.Subtotal = subtotal
	b.TotalDiscount = discount
	b.TotalTax = tax
	b.TotalAmount = subtotal - discount + tax
}

// SuccessfulPaymentTotal sums the ledger entries recorded as Success.
func (b *Bill) SuccessfulPaymentTotal() float64 {
	var total float64
	for _, p := range b.Payments {
		if p.Status == "Success" {
			total += p.Amount
		}
	}
	return total
}

// DerivePaymentStatus recomputes paymentStatus from the payment ledger. Only
// the ledger path calls this; a directly set status stands until the next
// ledger append.
func (b *Bill) DerivePaymentStatus() {
	paid := b.SuccessfulPaymentTotal()
	switch {
	case paid >= b.TotalAmount:
		// a zero-total bill with no payments counts as settled
		b.PaymentStatus = PaymentStatusPaid
	case paid > 0:
		b.PaymentStatus = PaymentStatusPartial
	default:
		b.PaymentStatus = PaymentStatusPending
	}
}
