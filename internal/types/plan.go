package types

import (
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/samber/lo"
)

// PlanType is the stable catalog key of a plan, e.g. 1_month
type PlanType string

const (
	PlanTypeOneMonth    PlanType = "1_month"
	PlanTypeThreeMonths PlanType = "3_month"
	PlanTypeOneYear     PlanType = "1_year"
)

func (p PlanType) String() string {
	return string(p)
}

// EntitlementDuration is the promotional duration vocabulary of the entitlement provider
type EntitlementDuration string

const (
	DurationDaily      EntitlementDuration = "daily"
	DurationThreeDay   EntitlementDuration = "three_day"
	DurationWeekly     EntitlementDuration = "weekly"
	DurationMonthly    EntitlementDuration = "monthly"
	DurationTwoMonth   EntitlementDuration = "two_month"
	DurationThreeMonth EntitlementDuration = "three_month"
	DurationSixMonth   EntitlementDuration = "six_month"
	DurationYearly     EntitlementDuration = "yearly"
	DurationLifetime   EntitlementDuration = "lifetime"
)

func (d EntitlementDuration) String() string {
	return string(d)
}

func (d EntitlementDuration) Validate() error {
	allowed := []EntitlementDuration{
		DurationDaily,
		DurationThreeDay,
		DurationWeekly,
		DurationMonthly,
		DurationTwoMonth,
		DurationThreeMonth,
		DurationSixMonth,
		DurationYearly,
		DurationLifetime,
	}
	if !lo.Contains(allowed, d) {
		return ierr.NewError("invalid entitlement duration").
			WithHintf("Duration %q is not supported", d).
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
