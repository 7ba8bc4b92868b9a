package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/avalonhealth/hospital-api/models"
)

func TestRecalculateTotals(t *testing.T) {
	b := models.Bill{
		Services: []models.BillService{
			{Name: "Consultation", Quantity: 1, UnitPrice: 500, Tax: 50},
			{Name: "X-Ray", Quantity: 2, UnitPrice: 300, Discount: 100},
		},
		// client supplied totals get overwritten
		Subtotal:    999999,
		TotalAmount: 999999,
	}
	b.RecalculateTotals()

	assert.Equal(t, float64(500), b.Services[0].TotalPrice)
	assert.Equal(t, float64(600), b.Services[1].TotalPrice)
	assert.Equal(t, float64(1100), b.Subtotal)
	assert.Equal(t, float64(100), b.TotalDiscount)
	assert.Equal(t, float64(50), b.TotalTax)
	assert.Equal(t, float64(1050), b.TotalAmount)
}

func TestRecalculateTotalsKeepsExplicitLineTotal(t *testing.T) {
	b := models.Bill{
		Services: []models.BillService{
			{Name: "Package", Quantity: 3, UnitPrice: 100, TotalPrice: 250},
		},
	}
	b.RecalculateTotals()

	assert.Equal(t, float64(250), b.Services[0].TotalPrice)
	assert.Equal(t, float64(250), b.TotalAmount)
}

func TestRecalculateTotalsEmptyServices(t *testing.T) {
	b := models.Bill{Subtotal: 500, TotalAmount: 500, TotalTax: 50}
	b.RecalculateTotals()

	assert.Zero(t, b.Subtotal)
	assert.Zero(t, b.TotalDiscount)
	assert.Zero(t, b.TotalTax)
	assert.Zero(t, b.TotalAmount)
}

func TestDerivePaymentStatus(t *testing.T) {
	tests := []struct {
		name     string
		total    float64
		payments []models.Payment
		want     string
	}{
		{
			name:  "no payments stays pending",
			total: 1000,
			want:  models.PaymentStatusPending,
		},
		{
			name:  "partial payment",
			total: 1000,
			payments: []models.Payment{
				{Amount: 400, Status: "Success"},
			},
			want: models.PaymentStatusPartial,
		},
		{
			name:  "full payment across entries",
			total: 1000,
			payments: []models.Payment{
				{Amount: 400, Status: "Success"},
				{Amount: 600, Status: "Success"},
			},
			want: models.PaymentStatusPaid,
		},
		{
			name:  "overpayment is still paid",
			total: 1000,
			payments: []models.Payment{
				{Amount: 1500, Status: "Success"},
			},
			want: models.PaymentStatusPaid,
		},
		{
			name:  "failed payments do not count",
			total: 1000,
			payments: []models.Payment{
				{Amount: 1000, Status: "Failed"},
			},
			want: models.PaymentStatusPending,
		},
		{
			name:  "zero total with a successful payment is paid",
			total: 0,
			payments: []models.Payment{
				{Amount: 100, Status: "Success"},
			},
			want: models.PaymentStatusPaid,
		},
		{
			name:  "zero total with no payments is settled",
			total: 0,
			want:  models.PaymentStatusPaid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := models.Bill{TotalAmount: tt.total, Payments: tt.payments}
			b.DerivePaymentStatus()
			assert.Equal(t, tt.want, b.PaymentStatus)
		})
	}
}

func TestSuccessfulPaymentTotal(t *testing.T) {
	b := models.Bill{
		Payments: []models.Payment{
			{Amount: 300, Status: "Success"},
			{Amount: 200, Status: "Failed"},
			{Amount: 100, Status: "Refunded"},
			{Amount: 50, Status: "Success"},
		},
	}
	assert.Equal(t, float64(350), b.SuccessfulPaymentTotal())
}

func TestBillNumberFormat(t *testing.T) {
	now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "BILL2024010042", models.BillNumber(now, 42))
	assert.Equal(t, "BILL2024010001", models.BillNumber(now, 1))
}
