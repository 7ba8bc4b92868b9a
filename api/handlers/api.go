package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"github.com/avalonhealth/hospital-api/api"
	"github.com/avalonhealth/hospital-api/config"
	"github.com/avalonhealth/hospital-api/databases"
	"github.com/avalonhealth/hospital-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router   *mux.Router
	DB       databases.CollectionHelper
	Config   config.Config
	dbHelper databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for the patient portal middleware
	m := api.MiddlewareDB{DB: databases.NewPatientDatabase(a.dbHelper), JWTSecret: a.Config.JWTSecret}
	m.SetupGoGuardian()

	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware)

	counters := databases.NewCounterDatabase(a.dbHelper)
	patients := databases.NewPatientDatabase(a.dbHelper)
	doctors := databases.NewDoctorDatabase(a.dbHelper)
	admissions := databases.NewAdmissionDatabase(a.dbHelper)
	bills := databases.NewBillDatabase(a.dbHelper)
	prescriptions := databases.NewPrescriptionDatabase(a.dbHelper)

	p := Patient{DB: patients, ADB: admissions, BDB: bills, RDB: prescriptions}
	d := Doctor{DB: doctors, JWTSecret: a.Config.JWTSecret}
	adm := Admission{DB: admissions, PDB: patients, DDB: doctors}
	bill := Bill{DB: bills, PDB: patients, DDB: doctors, CDB: counters, BaseURL: a.Config.BaseURL}
	inv := Inventory{DB: databases.NewInventoryDatabase(a.dbHelper), CDB: counters}
	st := Staff{DB: databases.NewStaffDatabase(a.dbHelper), CDB: counters}
	presc := Prescription{DB: prescriptions, PDB: patients, DDB: doctors}
	tele := Telemedicine{DB: databases.NewTelemedicineDatabase(a.dbHelper), PDB: patients, DDB: doctors}
	dash := Dashboard{
		PDB: patients,
		DDB: doctors,
		ADB: admissions,
		BDB: bills,
		IDB: databases.NewInventoryDatabase(a.dbHelper),
		SDB: databases.NewStaffDatabase(a.dbHelper),
		TDB: databases.NewTelemedicineDatabase(a.dbHelper),
	}
	adminH := Admin{
		ADB:       databases.NewAdminDatabase(a.dbHelper),
		RDB:       databases.NewAdminResetDatabase(a.dbHelper),
		JWTSecret: a.Config.JWTSecret,
		BaseURL:   a.Config.BaseURL,
	}
	cloudinaryHandler := CloudinaryHandler{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	// websocket notifications for the dashboard
	r.HandleFunc("/ws/notifications", HandleNotificationsWebSocket)

	// open auth routes
	r.HandleFunc("/api/admin/login", adminH.AdminLoginHandler).Methods("POST")
	r.HandleFunc("/api/admin/forgot-password", adminH.AdminForgotPasswordHandler).Methods("POST")
	r.HandleFunc("/api/admin/reset-password", adminH.AdminResetPasswordHandler).Methods("POST")
	r.HandleFunc("/api/doctor/login", d.DoctorLoginHandler).Methods("POST")
	r.HandleFunc("/api/user/register", p.RegisterPatientHandler).Methods("POST")

	// patient portal routes behind go-guardian basic/bearer auth
	userCreate := r.PathPrefix("/api/user").Subrouter()
	userCreate.Use(api.TimeoutMiddleware(30 * time.Second))
	userCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	userCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")
	userCreate.Handle("/patients/{patient_id}", api.Middleware(http.HandlerFunc(p.PatientByIDHandler))).Methods("GET")
	userCreate.Handle("/patients/{patient_id}", api.Middleware(http.HandlerFunc(p.UpdatePatientHandler))).Methods("PATCH")
	userCreate.Handle("/patients/{patient_id}/portal", api.Middleware(http.HandlerFunc(p.PatientPortalHandler))).Methods("GET")
	userCreate.Handle("/patients/{patient_id}/admissions", api.Middleware(http.HandlerFunc(adm.AdmissionsByPatientIDHandler))).Methods("GET")
	userCreate.Handle("/bills/{bill_id}", api.Middleware(http.HandlerFunc(bill.BillByIDHandler))).Methods("GET")
	userCreate.Handle("/bills/{bill_id}/checkout", api.Middleware(http.HandlerFunc(bill.CreateCheckoutSessionHandler))).Methods("POST")
	userCreate.Handle("/sessions/{session_id}", api.Middleware(http.HandlerFunc(tele.SessionByIDHandler))).Methods("GET")

	// doctor routes behind doctor scoped tokens
	doctorCreate := r.PathPrefix("/api/doctor").Subrouter()
	doctorCreate.Use(api.TimeoutMiddleware(30 * time.Second))
	doctorCreate.Use(api.JWTMiddleware(a.Config.JWTSecret, "doctor"))
	doctorCreate.HandleFunc("/patients", p.PatientHandler).Methods("GET")
	doctorCreate.HandleFunc("/patients/{patient_id}", p.PatientByIDHandler).Methods("GET")
	doctorCreate.HandleFunc("/admissions", adm.CreateAdmissionHandler).Methods("POST")
	doctorCreate.HandleFunc("/admissions", adm.AdmissionHandler).Methods("GET")
	doctorCreate.HandleFunc("/admissions/{admission_id}", adm.AdmissionByIDHandler).Methods("GET")
	doctorCreate.HandleFunc("/admissions/{admission_id}/discharge", adm.DischargeAdmissionHandler).Methods("POST")
	doctorCreate.HandleFunc("/admissions/{admission_id}/records/{record_kind}", adm.AddClinicalRecordHandler).Methods("POST")
	doctorCreate.HandleFunc("/admissions/{admission_id}/status", adm.UpdateAdmissionStatusHandler).Methods("PUT")
	doctorCreate.HandleFunc("/doctors/{doctor_id}/admissions", adm.AdmissionsByDoctorIDHandler).Methods("GET")
	doctorCreate.HandleFunc("/prescriptions", presc.CreatePrescriptionHandler).Methods("POST")
	doctorCreate.HandleFunc("/prescriptions", presc.PrescriptionHandler).Methods("GET")
	doctorCreate.HandleFunc("/prescriptions/{prescription_id}", presc.PrescriptionByIDHandler).Methods("GET")
	doctorCreate.HandleFunc("/prescriptions/{prescription_id}", presc.UpdatePrescriptionHandler).Methods("PATCH")
	doctorCreate.HandleFunc("/sessions", tele.SessionHandler).Methods("GET")
	doctorCreate.HandleFunc("/sessions/{session_id}/status", tele.UpdateSessionStatusHandler).Methods("PUT")

	// admin routes behind admin scoped tokens
	adminCreate := r.PathPrefix("/api/admin").Subrouter()
	adminCreate.Use(api.TimeoutMiddleware(30 * time.Second))
	adminCreate.Use(api.JWTMiddleware(a.Config.JWTSecret, "admin"))
	adminCreate.HandleFunc("/patients", p.PatientHandler).Methods("GET")
	adminCreate.HandleFunc("/patients/{patient_id}", p.PatientByIDHandler).Methods("GET")
	adminCreate.HandleFunc("/patients/{patient_id}", p.UpdatePatientHandler).Methods("PATCH")
	adminCreate.HandleFunc("/patients/{patient_id}", p.DeletePatientHandler).Methods("DELETE")

	adminCreate.HandleFunc("/doctors", d.CreateDoctorHandler).Methods("POST")
	adminCreate.HandleFunc("/doctors", d.DoctorHandler).Methods("GET")
	adminCreate.HandleFunc("/doctors/{doctor_id}", d.DoctorByIDHandler).Methods("GET")
	adminCreate.HandleFunc("/doctors/{doctor_id}", d.UpdateDoctorHandler).Methods("PATCH")
	adminCreate.HandleFunc("/doctors/{doctor_id}", d.DeleteDoctorHandler).Methods("DELETE")

	adminCreate.HandleFunc("/admissions", adm.CreateAdmissionHandler).Methods("POST")
	adminCreate.HandleFunc("/admissions", adm.AdmissionHandler).Methods("GET")
	adminCreate.HandleFunc("/admissions/available-rooms", adm.AvailableRoomsHandler).Methods("GET")
	adminCreate.HandleFunc("/admissions/{admission_id}", adm.AdmissionByIDHandler).Methods("GET")
	adminCreate.HandleFunc("/admissions/{admission_id}", adm.UpdateAdmissionHandler).Methods("PATCH")
	adminCreate.HandleFunc("/admissions/{admission_id}", adm.DeleteAdmissionHandler).Methods("DELETE")
	adminCreate.HandleFunc("/admissions/{admission_id}/status", adm.UpdateAdmissionStatusHandler).Methods("PUT")
	adminCreate.HandleFunc("/admissions/{admission_id}/discharge", adm.DischargeAdmissionHandler).Methods("POST")
	adminCreate.HandleFunc("/admissions/{admission_id}/records/{record_kind}", adm.AddClinicalRecordHandler).Methods("POST")
	adminCreate.HandleFunc("/patients/{patient_id}/admissions", adm.AdmissionsByPatientIDHandler).Methods("GET")
	adminCreate.HandleFunc("/doctors/{doctor_id}/admissions", adm.AdmissionsByDoctorIDHandler).Methods("GET")

	adminCreate.HandleFunc("/bills", bill.CreateBillHandler).Methods("POST")
	adminCreate.HandleFunc("/bills", bill.BillHandler).Methods("GET")
	adminCreate.HandleFunc("/bills/reports", bill.FinancialReportHandler).Methods("GET")
	adminCreate.HandleFunc("/bills/{bill_id}", bill.BillByIDHandler).Methods("GET")
	adminCreate.HandleFunc("/bills/{bill_id}", bill.UpdateBillHandler).Methods("PATCH")
	adminCreate.HandleFunc("/bills/{bill_id}", bill.DeleteBillHandler).Methods("DELETE")
	adminCreate.HandleFunc("/bills/{bill_id}/payments", bill.ProcessPaymentHandler).Methods("POST")

	adminCreate.HandleFunc("/inventory", inv.CreateInventoryItemHandler).Methods("POST")
	adminCreate.HandleFunc("/inventory", inv.InventoryHandler).Methods("GET")
	adminCreate.HandleFunc("/inventory/low-stock", inv.LowStockHandler).Methods("GET")
	adminCreate.HandleFunc("/inventory/expiring", inv.ExpiringHandler).Methods("GET")
	adminCreate.HandleFunc("/inventory/check-alerts", inv.CheckAlertsHandler).Methods("POST")
	adminCreate.HandleFunc("/inventory/{item_id}", inv.InventoryItemByIDHandler).Methods("GET")
	adminCreate.HandleFunc("/inventory/{item_id}", inv.UpdateInventoryItemHandler).Methods("PATCH")
	adminCreate.HandleFunc("/inventory/{item_id}", inv.DeleteInventoryItemHandler).Methods("DELETE")
	adminCreate.HandleFunc("/inventory/{item_id}/usage", inv.RecordUsageHandler).Methods("POST")
	adminCreate.HandleFunc("/inventory/{item_id}/restock", inv.RestockHandler).Methods("POST")

	adminCreate.HandleFunc("/staff", st.CreateStaffHandler).Methods("POST")
	adminCreate.HandleFunc("/staff", st.StaffHandler).Methods("GET")
	adminCreate.HandleFunc("/staff/{staff_id}", st.StaffByIDHandler).Methods("GET")
	adminCreate.HandleFunc("/staff/{staff_id}", st.UpdateStaffHandler).Methods("PATCH")
	adminCreate.HandleFunc("/staff/{staff_id}", st.DeleteStaffHandler).Methods("DELETE")

	adminCreate.HandleFunc("/prescriptions", presc.PrescriptionHandler).Methods("GET")
	adminCreate.HandleFunc("/prescriptions/{prescription_id}", presc.PrescriptionByIDHandler).Methods("GET")
	adminCreate.HandleFunc("/prescriptions/{prescription_id}", presc.DeletePrescriptionHandler).Methods("DELETE")

	adminCreate.HandleFunc("/sessions", tele.CreateSessionHandler).Methods("POST")
	adminCreate.HandleFunc("/sessions", tele.SessionHandler).Methods("GET")
	adminCreate.HandleFunc("/sessions/{session_id}", tele.SessionByIDHandler).Methods("GET")
	adminCreate.HandleFunc("/sessions/{session_id}", tele.DeleteSessionHandler).Methods("DELETE")
	adminCreate.HandleFunc("/sessions/{session_id}/status", tele.UpdateSessionStatusHandler).Methods("PUT")

	adminCreate.HandleFunc("/dashboard", dash.DashboardHandler).Methods("GET")
	adminCreate.HandleFunc("/metrics", MetricsHandler).Methods("GET")

	adminCreate.HandleFunc("/generate-signature", cloudinaryHandler.GenerateSignature).Methods("POST")
	adminCreate.HandleFunc("/upload-image", cloudinaryHandler.UploadImageHandler).Methods("POST")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("hospital-api has connected to the database")

	// initialize stripe
	stripeKey := os.Getenv("STRIPE_SECRET_KEY")
	if stripeKey == "" {
		return fmt.Errorf("stripe secret key is not set")
	}
	stripe.Key = stripeKey

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

// DBHelper exposes the connected database helper so main can wire the
// background scheduler against the same connection
func (a *App) DBHelper() databases.DatabaseHelper {
	return a.dbHelper
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
