package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"conference-api/config"
	"conference-api/services"

	"github.com/joho/godotenv"
)

// Standalone email dispatch worker. Run this binary with
// EMAIL_DISPATCH_DISABLED=1 on the API server to move scheduled-email
// delivery out of the API process; the conditional status updates keep the
// two coordinated without any further locking.
func main() {
	once := flag.Bool("once", false, "run a single dispatch tick and exit")
	interval := flag.Duration("interval", 30*time.Second, "polling interval")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	config.InitDB()

	job := services.NewEmailDispatchJob(nil)

	if *once {
		summary, err := job.RunOnce(context.Background())
		if err != nil {
			log.Fatalf("Dispatch tick failed: %v", err)
		}
		log.Printf("Dispatch tick complete: sent=%v failed=%v", summary.Sent, summary.Failed)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Email dispatch worker running (interval %s)", *interval)
	job.Run(ctx, *interval)
	log.Println("Email dispatch worker stopped")
}
