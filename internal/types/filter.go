package types

import (
	"github.com/samber/lo"
)

const (
	OrderDesc = "desc"
	OrderAsc  = "asc"
)

// QueryFilter represents a generic query filter with optional fields
type QueryFilter struct {
	Limit  *int    `json:"limit,omitempty" form:"limit" validate:"omitempty,min=1,max=1000"`
	Offset *int    `json:"offset,omitempty" form:"offset" validate:"omitempty,min=0"`
	Order  *string `json:"order,omitempty" form:"order" validate:"omitempty,oneof=asc desc"`
}

// NewNoLimitQueryFilter returns a filter with no pagination limits
func NewNoLimitQueryFilter() *QueryFilter {
	return &QueryFilter{
		Offset: lo.ToPtr(0),
		Order:  lo.ToPtr(OrderDesc),
	}
}

// IsUnlimited returns true if this is an unlimited query
func (f QueryFilter) IsUnlimited() bool {
	return f.Limit == nil
}

// GetLimit returns the limit value, zero means unlimited
func (f QueryFilter) GetLimit() int {
	if f.Limit == nil {
		return 0
	}
	return *f.Limit
}

func (f QueryFilter) GetOffset() int {
	if f.Offset == nil {
		return 0
	}
	return *f.Offset
}

func (f QueryFilter) GetOrder() string {
	if f.Order == nil {
		return OrderDesc
	}
	return *f.Order
}

// LeadFilter narrows admin lead listings
type LeadFilter struct {
	*QueryFilter
	QuizID *string `json:"quiz_id,omitempty" form:"quiz_id"`
	Paid   *bool   `json:"paid,omitempty" form:"paid"`
}

// NewLeadFilter returns an unlimited, newest-first filter
func NewLeadFilter() *LeadFilter {
	return &LeadFilter{QueryFilter: NewNoLimitQueryFilter()}
}
