// Package projection derives render-ready buckets from the normalized graph.
// All functions are pure with respect to the store: they read a snapshot and
// never mutate it, so they can be re-run whenever the graph or the visible
// range changes.
package projection

import (
	"time"

	"fieldops/internal/api/models"
	"fieldops/internal/schedule/normalize"
	"fieldops/internal/schedule/timeutil"
)

// Filter narrows a projection. Zero value matches everything. Predicates
// combine with AND semantics: employee membership, status equality, and the
// unassigned predicate must all hold.
type Filter struct {
	// EmployeeIDs restricts assignment-level views to the given employees.
	// Nil means all employees.
	EmployeeIDs map[uint]bool
	// Status restricts to jobs with this exact status. Empty means all.
	Status models.JobStatus
}

func (f Filter) matchJob(n *normalize.JobNode) bool {
	return f.Status == "" || n.Job.Status == f.Status
}

func (f Filter) matchAssignment(a *normalize.AssignmentNode) bool {
	return f.EmployeeIDs == nil || f.EmployeeIDs[a.EmployeeID]
}

// Item is one scheduled block ready to render.
type Item struct {
	Job        models.Job
	Assignment normalize.AssignmentNode
}

// Day returns all assignments whose start falls on the given date, in feed
// order. Callers needing chronological order sort by Start explicitly.
func Day(g *normalize.Graph, date time.Time, f Filter) []Item {
	var items []Item
	g.Walk(func(n *normalize.JobNode) {
		if !f.matchJob(n) {
			return
		}
		for i := range n.Assignments {
			a := &n.Assignments[i]
			if timeutil.SameDay(a.Start, date) && f.matchAssignment(a) {
				items = append(items, Item{Job: n.Job, Assignment: *a})
			}
		}
	})
	return items
}

// Week buckets assignments into the 7 days of the Monday-start week
// containing weekStart, keyed by each day's midnight. Every bucket is
// present, empty or not; every in-range assignment lands in exactly one.
func Week(g *normalize.Graph, weekStart time.Time, f Filter) map[time.Time][]Item {
	start := timeutil.StartOfWeek(weekStart)
	buckets := make(map[time.Time][]Item, 7)
	for i := 0; i < 7; i++ {
		buckets[start.AddDate(0, 0, i)] = nil
	}

	g.Walk(func(n *normalize.JobNode) {
		if !f.matchJob(n) {
			return
		}
		for i := range n.Assignments {
			a := &n.Assignments[i]
			if !f.matchAssignment(a) {
				continue
			}
			idx := timeutil.DayIndex(start, a.Start)
			if idx < 0 {
				continue
			}
			day := start.AddDate(0, 0, idx)
			buckets[day] = append(buckets[day], Item{Job: n.Job, Assignment: *a})
		}
	})
	return buckets
}

// MonthItem is one job placed on a month grid by its primary assignment.
type MonthItem struct {
	Job     models.Job
	Primary normalize.AssignmentNode
}

// Month buckets jobs by day-of-month. A job is included only when its
// primary assignment (earliest start) falls inside the displayed month; a
// job spanning a month boundary is bucketed by its primary assignment's day.
func Month(g *normalize.Graph, year int, month time.Month, f Filter) map[int][]MonthItem {
	buckets := make(map[int][]MonthItem)
	g.Walk(func(n *normalize.JobNode) {
		if !f.matchJob(n) {
			return
		}
		primary := n.Primary()
		if primary == nil || !f.matchAssignment(primary) {
			return
		}
		if primary.Start.Year() != year || primary.Start.Month() != month {
			return
		}
		day := primary.Start.Day()
		buckets[day] = append(buckets[day], MonthItem{Job: n.Job, Primary: *primary})
	})
	return buckets
}

// Unassigned returns jobs with no assignments, honoring the status filter,
// in feed order. This is the sidebar list next to the calendar views.
func Unassigned(g *normalize.Graph, f Filter) []models.Job {
	var jobs []models.Job
	g.Walk(func(n *normalize.JobNode) {
		if n.Unassigned() && f.matchJob(n) {
			jobs = append(jobs, n.Job)
		}
	})
	return jobs
}
