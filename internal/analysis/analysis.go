// Package analysis computes admin statistics over complaints.
package analysis

import (
	"complaintdesk/backend/internal/models"
	"time"
)

// Summary aggregates complaints by status and turnaround.
type Summary struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Assigned int `json:"assigned"`
	Resolved int `json:"resolved"`
	// MeanTimeToAssign is averaged over complaints that have been assigned.
	MeanTimeToAssign time.Duration `json:"mean_time_to_assign"`
	// MeanTimeToResolve is measured from creation, over resolved complaints.
	MeanTimeToResolve time.Duration `json:"mean_time_to_resolve"`
}

// Summarize builds a Summary. Records with an unknown status only count toward Total.
func Summarize(complaints []models.Complaint) Summary {
	var (
		sum                  Summary
		toAssign, toResolve  time.Duration
		nAssigned, nResolved int
	)
	for _, c := range complaints {
		sum.Total++
		switch c.Status {
		case models.StatusPending:
			sum.Pending++
		case models.StatusAssigned:
			sum.Assigned++
		case models.StatusResolved:
			sum.Resolved++
		}
		if c.AssignedAt != nil {
			toAssign += c.AssignedAt.Sub(c.CreatedAt)
			nAssigned++
		}
		if c.ResolvedAt != nil {
			toResolve += c.ResolvedAt.Sub(c.CreatedAt)
			nResolved++
		}
	}
	if nAssigned > 0 {
		sum.MeanTimeToAssign = toAssign / time.Duration(nAssigned)
	}
	if nResolved > 0 {
		sum.MeanTimeToResolve = toResolve / time.Duration(nResolved)
	}
	return sum
}
