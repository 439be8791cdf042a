package utils

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const hoursPerDay = 24

// RentalDuration is the billable length of a rental
type RentalDuration struct {
	TotalHours int64 `json:"total_hours"`
	BilledDays int64 `json:"billed_days"`
}

// RentalCostBreakdown provides detailed cost breakdown
type RentalCostBreakdown struct {
	BilledDays     int64           `json:"billed_days"`
	BaseAmount     decimal.Decimal `json:"base_amount"`
	OptionsAmount  decimal.Decimal `json:"options_amount"`
	DamagesAmount  decimal.Decimal `json:"damages_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// ComputeRentalDays returns false when end is not after start.
// Any started hour counts as a full hour, and any started 24 hour window
// counts as a full billed day.
func ComputeRentalDays(start, end time.Time) (RentalDuration, bool) {
	if !end.After(start) {
		return RentalDuration{}, false
	}

	elapsed := end.Sub(start)
	totalHours := int64(elapsed / time.Hour)
	if elapsed%time.Hour != 0 {
		totalHours++
	}

	billedDays := totalHours / hoursPerDay
	if totalHours%hoursPerDay != 0 {
		billedDays++
	}

	return RentalDuration{TotalHours: totalHours, BilledDays: billedDays}, true
}

// ComputeContractAmount calculates rate x days + options + damages - discount,
// rounded to cents and floored at zero
func ComputeContractAmount(dailyRate decimal.Decimal, billedDays int64, options, damages, discount decimal.Decimal) RentalCostBreakdown {
	base := dailyRate.Mul(decimal.NewFromInt(billedDays))
	total := base.Add(options).Add(damages).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return RentalCostBreakdown{
		BilledDays:     billedDays,
		BaseAmount:     base.Round(2),
		OptionsAmount:  options,
		DamagesAmount:  damages,
		DiscountAmount: discount,
		TotalAmount:    total.Round(2),
	}
}

// InvoiceNumber formats INV-YYYYMMDD-xxxxxxxx from the issue date and the
// first eight hex digits of the invoice id
func InvoiceNumber(issuedAt time.Time, invoiceID uuid.UUID) string {
	hex := strings.ReplaceAll(invoiceID.String(), "-", "")
	return fmt.Sprintf("INV-%s-%s", issuedAt.UTC().Format("20060102"), strings.ToUpper(hex[:8]))
}

// DaysOverdue returns the number of started days since the planned end date,
// or 0 when the contract is not late.
func DaysOverdue(plannedEnd, now time.Time) int64 {
	if !now.After(plannedEnd) {
		return 0
	}
	return int64(math.Ceil(now.Sub(plannedEnd).Hours() / hoursPerDay))
}
