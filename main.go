package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/avalonhealth/hospital-api/api/handlers"
	"github.com/avalonhealth/hospital-api/api/scheduler"
	"github.com/avalonhealth/hospital-api/config"
	"github.com/avalonhealth/hospital-api/databases"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil { //initialize database and router
		log.Fatal(err)
	}

	sched := scheduler.NewScheduler(
		databases.NewInventoryDatabase(a.DBHelper()),
		databases.NewBillDatabase(a.DBHelper()),
		databases.NewSchedulerLockDatabase(a.DBHelper()),
	)
	sched.Start()
	defer sched.Stop()

	port := os.Getenv("PORT")
	baseURL := os.Getenv("BASE_URL")
	zap.S().Infow("hospital-api is up and running",
		"port", port,
		"url", baseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", port), a.Router))
}
