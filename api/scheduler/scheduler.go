package scheduler

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/avalonhealth/hospital-api/api/handlers"
	"github.com/avalonhealth/hospital-api/databases"
	"github.com/avalonhealth/hospital-api/models"
	templates "github.com/avalonhealth/hospital-api/templates/html"
)

// Scheduler handles the overnight maintenance jobs: the inventory alert
// sweep and the overdue bill sweep. Jobs coordinate through a mongo lock so
// only one instance runs them.
type Scheduler struct {
	cron       *cron.Cron
	IDB        databases.InventoryDatabase
	BDB        databases.BillDatabase
	LockDB     databases.SchedulerLockDatabase
	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(
	iDB databases.InventoryDatabase,
	bDB databases.BillDatabase,
	lockDB databases.SchedulerLockDatabase,
) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO") // Heroku sets this to "web.1", "web.2", etc.
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		IDB:        iDB,
		BDB:        bDB,
		LockDB:     lockDB,
		instanceID: instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Rebuild inventory alerts daily at 2 AM UTC
	_, err := s.cron.AddFunc("0 2 * * *", s.sweepInventoryAlerts)
	if err != nil {
		zap.S().Errorw("failed to register inventory sweep job", "error", err)
	}

	// Flag overdue bills daily at 3 AM UTC
	_, err = s.cron.AddFunc("0 3 * * *", s.sweepOverdueBills)
	if err != nil {
		zap.S().Errorw("failed to register overdue bill job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("maintenance scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("maintenance scheduler stopped")
}

// sweepInventoryAlerts rebuilds the alert list on every inventory item,
// pushes the raised alerts to connected dashboards and emails the ops
// mailbox a digest when anything needs attention
func (s *Scheduler) sweepInventoryAlerts() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, "inventory_alert_job", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for inventory sweep", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("inventory sweep already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "inventory_alert_job", s.instanceID)

	zap.S().Infow("running inventory alert sweep", "instance", s.instanceID)

	items, err := s.IDB.Find(ctx, bson.M{})
	if err != nil {
		zap.S().Errorw("failed to load inventory for sweep", "error", err)
		return
	}

	now := time.Now()
	var raised []models.InventoryAlert
	for i := range items {
		item := &items[i]
		alerts := item.RebuildAlerts(now)
		if err := s.IDB.Save(ctx, item); err != nil {
			zap.S().Errorw("failed to save item during sweep", "error", err, "itemCode", item.ItemCode)
			continue
		}
		raised = append(raised, alerts...)
	}

	if len(raised) > 0 {
		handlers.BroadcastEvent("inventory_alerts", raised)
		s.sendAlertDigest(raised)
	}

	zap.S().Infow("inventory alert sweep complete",
		"itemsChecked", len(items),
		"alertsRaised", len(raised),
	)
}

// sweepOverdueBills marks unpaid bills past their due date as Overdue
func (s *Scheduler) sweepOverdueBills() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, "overdue_bill_job", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for overdue bill sweep", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("overdue bill sweep already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "overdue_bill_job", s.instanceID)

	zap.S().Infow("running overdue bill sweep", "instance", s.instanceID)

	now := time.Now()
	filter := bson.M{
		"paymentStatus": bson.M{"$in": []string{models.PaymentStatusPending, models.PaymentStatusPartial}},
		"dueDate":       bson.M{"$lt": now},
	}
	bills, err := s.BDB.Find(ctx, filter)
	if err != nil {
		zap.S().Errorw("failed to load bills for sweep", "error", err)
		return
	}

	flagged := 0
	for i := range bills {
		bill := &bills[i]
		bill.PaymentStatus = models.PaymentStatusOverdue
		if err := s.BDB.Save(ctx, bill); err != nil {
			zap.S().Errorw("failed to flag overdue bill", "error", err, "billNumber", bill.BillNumber)
			continue
		}
		flagged++
	}

	if flagged > 0 {
		handlers.BroadcastEvent("bills_overdue", map[string]interface{}{"count": flagged})
	}

	zap.S().Infow("overdue bill sweep complete", "billsFlagged", flagged)
}

// sendAlertDigest emails the raised alerts to the ops mailbox
func (s *Scheduler) sendAlertDigest(alerts []models.InventoryAlert) {
	toEmail := os.Getenv("OPS_ALERT_EMAIL")
	if toEmail == "" {
		zap.S().Debug("no ops alert email configured, skipping digest")
		return
	}

	lines := make([]string, len(alerts))
	for i, alert := range alerts {
		lines[i] = fmt.Sprintf("[%s] %s", alert.Type, alert.Message)
	}

	from := mail.NewEmail("Avalon Health", "no-reply@avalonhealth.example.com")
	to := mail.NewEmail("", toEmail)
	subject := fmt.Sprintf("Inventory Alert Digest: %d alerts", len(alerts))
	plain := "Overnight inventory alerts:\n" + strings.Join(lines, "\n")
	html := templates.RenderLowStockDigest(lines)
	message := mail.NewSingleEmail(from, subject, to, plain, html)

	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		zap.S().Errorw("failed to send alert digest", "error", err)
		return
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
}
