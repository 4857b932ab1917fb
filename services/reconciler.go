package services

import (
	"context"
	"time"

	"github.com/dinewell/tableside/models"
	"github.com/dinewell/tableside/utils"
	"gorm.io/gorm"
)

// Reconciler sweeps contributions stuck in processing and re-queries the
// provider for their real status, so a lost webhook or a ProviderTimeout
// never strands a contribution indefinitely.
type Reconciler struct {
	db       *gorm.DB
	provider PaymentProvider
	splits   *SplitService
	Interval time.Duration
	StaleAge time.Duration
	stop     chan struct{}
}

func NewReconciler(db *gorm.DB, provider PaymentProvider, splits *SplitService) *Reconciler {
	return &Reconciler{
		db:       db,
		provider: provider,
		splits:   splits,
		Interval: 5 * time.Minute,
		StaleAge: 10 * time.Minute,
		stop:     make(chan struct{}),
	}
}

// Start launches the sweep loop.
func (r *Reconciler) Start() {
	go r.run()
	utils.InfoLogger.Println("payment reconciler started")
}

// Stop ends the sweep loop.
func (r *Reconciler) Stop() {
	close(r.stop)
}

func (r *Reconciler) run() {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Sweep()
		case <-r.stop:
			return
		}
	}
}

// Sweep finds stale processing contributions and applies the provider's
// current status to each. Failures are logged and retried next tick.
func (r *Reconciler) Sweep() {
	cutoff := time.Now().Add(-r.StaleAge)

	var stale []models.SplitContribution
	err := r.db.
		Where("status = ? AND updated_at < ? AND provider_ref IS NOT NULL",
			models.ContributionProcessing, cutoff).
		Find(&stale).Error
	if err != nil {
		utils.ErrorLogger.Printf("reconciler: query failed: %v", err)
		return
	}

	for _, c := range stale {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		res, err := r.provider.Status(ctx, *c.ProviderRef)
		cancel()
		if err != nil {
			utils.ErrorLogger.Printf("reconciler: status query for contribution %d failed: %v", c.ID, err)
			continue
		}

		if err := r.splits.ConfirmContribution(*c.ProviderRef, res.Status); err != nil {
			utils.ErrorLogger.Printf("reconciler: applying status for contribution %d failed: %v", c.ID, err)
			continue
		}
		utils.InfoLogger.Printf("reconciler: contribution %d reconciled to provider status %s", c.ID, res.Status)
	}
}
