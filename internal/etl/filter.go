package etl

import "github.com/BartekS5/order-etl/pkg/models"

// DefaultAcceptedStatuses is the allow-set used when none is configured.
var DefaultAcceptedStatuses = []string{"confirmed"}

// StatusFilter accepts orders whose status is in a fixed allow-set.
// Matching is exact and case-sensitive.
type StatusFilter struct {
	allowed map[string]struct{}
}

func NewStatusFilter(statuses ...string) *StatusFilter {
	allowed := make(map[string]struct{}, len(statuses))
	for _, s := range statuses {
		allowed[s] = struct{}{}
	}
	return &StatusFilter{allowed: allowed}
}

func (f *StatusFilter) Accept(order models.Order) bool {
	_, ok := f.allowed[order.Status]
	return ok
}
