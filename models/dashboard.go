package models

// DashboardStats is the cross collection summary for the reporting dashboard.
// Everything here is recomputed per request; nothing is cached.
type DashboardStats struct {
	Range string `json:"range"`

	Patients struct {
		Total        int64 `json:"total"`
		NewThisMonth int64 `json:"newThisMonth"`
	} `json:"patients"`

	Doctors struct {
		Total     int64 `json:"total"`
		Available int64 `json:"available"`
	} `json:"doctors"`

	Admissions struct {
		Current    int64 `json:"current"`
		Discharged int64 `json:"discharged"`
		Total      int64 `json:"total"`
	} `json:"admissions"`

	Billing struct {
		Revenue       float64 `json:"revenue"`
		PendingAmount float64 `json:"pendingAmount"`
		PendingBills  int64   `json:"pendingBills"`
	} `json:"billing"`

	Inventory struct {
		Total    int64 `json:"total"`
		LowStock int64 `json:"lowStock"`
		Expired  int64 `json:"expired"`
	} `json:"inventory"`

	Staff struct {
		Total  int64 `json:"total"`
		Active int64 `json:"active"`
	} `json:"staff"`

	Sessions struct {
		Scheduled int64 `json:"scheduled"`
		Completed int64 `json:"completed"`
	} `json:"sessions"`
}

// MonthlyRevenue is one month bucket in the financial report
type MonthlyRevenue struct {
	Month   string  `json:"month"` // YYYY-MM
	Type    string  `json:"type"`
	Revenue float64 `json:"revenue"`
	Count   int64   `json:"count"`
}

// FinancialReport is the billing service report payload
type FinancialReport struct {
	ReportType   string           `json:"reportType"` // revenue, pending
	From         string           `json:"from"`
	To           string           `json:"to"`
	Revenue      []MonthlyRevenue `json:"revenue,omitempty"`
	PendingBills []Bill           `json:"pendingBills,omitempty"`
	PendingTotal float64          `json:"pendingTotal,omitempty"`
}
