package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/metrics"
	"fleetrent-backend/internal/utils"

	"github.com/google/uuid"
)

const (
	jobOverdueContracts = "OverdueContractsReport"
	jobStaleMaintenance = "StaleMaintenanceReport"
)

// OverdueContractsReport mails each tenant's admins the active contracts whose
// planned end date has passed. Contract status is left untouched.
func (jr *JobRunner) OverdueContractsReport() {
	jr.runWithRecovery(jobOverdueContracts, func(ctx context.Context) error {
		now := jr.now()
		contracts, err := jr.store.Contracts().ListOverdue(ctx, now)
		if err != nil {
			return fmt.Errorf("list overdue contracts: %w", err)
		}
		metrics.SetReportItems("overdue_contracts", len(contracts))
		logger.Info("Found overdue contracts", "count", len(contracts))

		for tenantID, items := range groupByTenant(contracts, func(c domain.RentalContract) uuid.UUID { return c.TenantID }) {
			var b strings.Builder
			fmt.Fprintf(&b, "%d active contract(s) are past their planned return date.\n\n", len(items))
			for _, c := range items {
				fmt.Fprintf(&b, "- contract %s, vehicle %s: due %s, %d day(s) overdue\n",
					c.ID, c.VehicleID, c.EndDate.UTC().Format("2006-01-02 15:04"), utils.DaysOverdue(c.EndDate, now))
			}

			subject := fmt.Sprintf("[%s] Overdue contracts", jr.tenantName(ctx, tenantID))
			sent, err := jr.mailTenantAdmins(ctx, tenantID, subject, b.String())
			if err != nil {
				logger.Error("Failed to send overdue report", "tenant_id", tenantID, "error", err)
				continue
			}
			logger.Debug("Sent overdue report", "tenant_id", tenantID, "contracts", len(items), "recipients", sent)
		}
		return nil
	})
}

// StaleMaintenanceReport mails each tenant's admins the maintenance records
// still unfinished after the configured number of days.
func (jr *JobRunner) StaleMaintenanceReport() {
	jr.runWithRecovery(jobStaleMaintenance, func(ctx context.Context) error {
		now := jr.now()
		staleDays := jr.config.Contracts.MaintenanceStaleDays
		cutoff := now.Add(-time.Duration(staleDays) * 24 * time.Hour)

		records, err := jr.store.Maintenance().ListStale(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("list stale maintenance: %w", err)
		}
		metrics.SetReportItems("stale_maintenance", len(records))
		logger.Info("Found stale maintenance records", "count", len(records), "older_than_days", staleDays)

		for tenantID, items := range groupByTenant(records, func(r domain.MaintenanceRecord) uuid.UUID { return r.TenantID }) {
			var b strings.Builder
			fmt.Fprintf(&b, "%d maintenance record(s) have been open for more than %d days.\n\n", len(items), staleDays)
			for _, r := range items {
				fmt.Fprintf(&b, "- %s on vehicle %s (%s, %s): started %s\n",
					r.ID, r.VehicleID, r.Type, r.Status, r.StartDate.UTC().Format("2006-01-02"))
			}

			subject := fmt.Sprintf("[%s] Stale maintenance", jr.tenantName(ctx, tenantID))
			if _, err := jr.mailTenantAdmins(ctx, tenantID, subject, b.String()); err != nil {
				logger.Error("Failed to send maintenance report", "tenant_id", tenantID, "error", err)
			}
		}
		return nil
	})
}

func groupByTenant[T any](items []T, tenant func(T) uuid.UUID) map[uuid.UUID][]T {
	groups := make(map[uuid.UUID][]T)
	for _, item := range items {
		id := tenant(item)
		groups[id] = append(groups[id], item)
	}
	return groups
}
