package jobs

import (
	"context"
	"fmt"
	"time"

	"fleetrent-backend/internal/config"
	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/metrics"
	"fleetrent-backend/internal/repository"
	"fleetrent-backend/internal/service"

	"github.com/google/uuid"
)

// Store is the part of the repository the reports read. Jobs never write
// domain rows.
type Store interface {
	Tenants() repository.TenantRepository
	Users() repository.UserRepository
	Contracts() repository.ContractRepository
	Maintenance() repository.MaintenanceRepository
}

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	store    Store
	notifier service.Notifier
	config   *config.Config
	now      func() time.Time
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(store Store, notifier service.Notifier, cfg *config.Config) *JobRunner {
	return &JobRunner{
		store:    store,
		notifier: notifier,
		config:   cfg,
		now:      time.Now,
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery and records the
// outcome
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) {
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
		metrics.ObserveJob(jobName, err)
	}()

	logger.Info("Starting job", "job", jobName)
	err = jobFunc(context.Background())
	if err != nil {
		logger.Error("Job failed", "job", jobName, "error", err)
		return
	}
	logger.Info("Job completed", "job", jobName)
}

// RunAllReports runs every report once (for manual execution)
func (jr *JobRunner) RunAllReports() {
	jr.OverdueContractsReport()
	jr.StaleMaintenanceReport()
}

// mailTenantAdmins sends a report to every active admin of the tenant. A
// failed send is logged and the remaining admins are still tried.
func (jr *JobRunner) mailTenantAdmins(ctx context.Context, tenantID uuid.UUID, subject, body string) (int, error) {
	admins, err := jr.store.Users().ListByRole(ctx, tenantID, domain.UserRoleAdmin)
	if err != nil {
		return 0, fmt.Errorf("list admins of tenant %s: %w", tenantID, err)
	}

	sent := 0
	for _, admin := range admins {
		if !admin.IsActive || admin.Email == "" {
			continue
		}
		if err := jr.notifier.SendReport(ctx, admin.Email, subject, body); err != nil {
			logger.Warn("Failed to send report", "tenant_id", tenantID, "user_id", admin.ID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}

func (jr *JobRunner) tenantName(ctx context.Context, tenantID uuid.UUID) string {
	tenant, err := jr.store.Tenants().GetByID(ctx, tenantID)
	if err != nil {
		logger.Warn("Failed to load tenant", "tenant_id", tenantID, "error", err)
		return tenantID.String()
	}
	return tenant.Name
}
