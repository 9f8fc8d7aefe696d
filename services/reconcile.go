package services

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"clickmill/database"
	"clickmill/ledger"
	"clickmill/models"
	"clickmill/progression"
)

// ReconcileService runs the reconciliation monitor on a fixed cadence over
// every user holding power instances. Ad-hoc runs triggered over HTTP share
// the same monitor; overlap is safe because repairs are idempotent.
type ReconcileService struct {
	monitor  *progression.Monitor
	interval time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	stopped  chan struct{}
}

var reconcileService *ReconcileService

// InitReconcileService initializes the singleton reconciliation service.
func InitReconcileService(store ledger.Ledger) error {
	monitor, err := progression.NewMonitor(store, getEnvInt("RECONCILE_CACHE_SIZE", 4096))
	if err != nil {
		return err
	}

	interval := time.Duration(getEnvInt("RECONCILE_INTERVAL_SECONDS", 15)) * time.Second
	reconcileService = &ReconcileService{
		monitor:  monitor,
		interval: interval,
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	return nil
}

// GetReconcileService returns the initialized service.
func GetReconcileService() *ReconcileService {
	return reconcileService
}

// Monitor exposes the shared monitor for ad-hoc reconciliation requests.
func (s *ReconcileService) Monitor() *progression.Monitor {
	return s.monitor
}

// Start launches the periodic reconciliation loop.
func (s *ReconcileService) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		log.Printf("🔁 Reconciliation running every %s", s.interval)
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.runOnce()
			}
		}
	}()
}

// Stop shuts the loop down and waits for the in-flight pass to finish.
func (s *ReconcileService) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.stopped
}

// runOnce reconciles every user that holds at least one power instance.
// Failures are logged and retried on the next tick, never propagated.
func (s *ReconcileService) runOnce() {
	db := database.GetDB()

	var userIDs []uint
	if err := db.Model(&models.UserPower{}).Distinct("user_id").Pluck("user_id", &userIDs).Error; err != nil {
		log.Printf("reconcile pass skipped, user listing failed: %v", err)
		return
	}

	repairs := 0
	for _, userID := range userIDs {
		_, changed, err := s.monitor.Reconcile(userID)
		if err != nil {
			log.Printf("reconcile failed for user %d: %v", userID, err)
			continue
		}
		if changed {
			repairs++
		}
	}
	if repairs > 0 {
		log.Printf("🔁 Reconciliation repaired %d user view(s)", repairs)
	}
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
