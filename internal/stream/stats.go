package stream

import "github.com/gyaneshwarpardhi/retailtwin/internal/event"

// RollingStats are counters maintained incrementally as events arrive.
type RollingStats struct {
	Total           int `json:"total"`
	Sales           int `json:"sales"`
	InventoryAlerts int `json:"inventory_alerts"`
	SystemIssues    int `json:"system_issues"`
	HourlyCustomers int `json:"hourly_customers"`
}

func (s *RollingStats) apply(ev *event.Event) {
	s.Total++
	switch ev.Category {
	case event.Sales:
		s.Sales++
	case event.Inventory:
		if ev.Severity == event.SeverityWarning {
			s.InventoryAlerts++
		}
	case event.System:
		if ev.Severity == event.SeverityError {
			s.SystemIssues++
		}
	case event.Customer:
		s.HourlyCustomers++
	}
}

// SeverityCounts groups a set of events the way the status bar shows them.
type SeverityCounts struct {
	Normal   int `json:"normal"`   // success and info
	Alerts   int `json:"alerts"`   // warning
	Critical int `json:"critical"` // error
}

// Summarize counts events by severity group.
func Summarize(events []*event.Event) SeverityCounts {
	var c SeverityCounts
	for _, ev := range events {
		switch ev.Severity {
		case event.SeverityWarning:
			c.Alerts++
		case event.SeverityError:
			c.Critical++
		default:
			c.Normal++
		}
	}
	return c
}
