// Package normalize converts raw job, assignment and employee records into
// the in-memory graph the scheduling views render from:
// Job -> Assignment[] -> Employee. It performs no I/O.
package normalize

import (
	"github.com/rs/zerolog"

	"fieldops/internal/api/models"
)

// AssignmentNode is an assignment with its employee reference resolved.
type AssignmentNode struct {
	models.Assignment
	Employee *models.Employee
}

// JobNode is a job with its assignments in feed order. Callers needing
// chronological order must sort by Start explicitly.
type JobNode struct {
	Job         models.Job
	Assignments []AssignmentNode
}

// Primary returns the assignment with the earliest start, used to bucket the
// job into month and week views. Nil when the job is unassigned.
func (n *JobNode) Primary() *AssignmentNode {
	var primary *AssignmentNode
	for i := range n.Assignments {
		a := &n.Assignments[i]
		if primary == nil || a.Start.Before(primary.Start) {
			primary = a
		}
	}
	return primary
}

// Unassigned reports whether the job has no assignments.
func (n *JobNode) Unassigned() bool {
	return len(n.Assignments) == 0
}

// Graph is the normalized scheduling graph. Order preserves the job order
// delivered by the feed.
type Graph struct {
	Jobs  map[uint]*JobNode
	Order []uint
}

// Job returns the node for jobID, or nil.
func (g *Graph) Job(jobID uint) *JobNode {
	if g == nil {
		return nil
	}
	return g.Jobs[jobID]
}

// Walk visits every job node in feed order.
func (g *Graph) Walk(fn func(*JobNode)) {
	if g == nil {
		return
	}
	for _, id := range g.Order {
		if node, ok := g.Jobs[id]; ok {
			fn(node)
		}
	}
}

// BuildGraph assembles the normalized graph. Assignments referencing an
// unknown job or employee are excluded from the graph rather than crashing a
// view; each exclusion is logged as a soft inconsistency.
func BuildGraph(jobs []models.Job, assignmentsByJob map[uint][]models.Assignment, employees map[uint]models.Employee, logger zerolog.Logger) *Graph {
	graph := &Graph{
		Jobs:  make(map[uint]*JobNode, len(jobs)),
		Order: make([]uint, 0, len(jobs)),
	}

	for _, job := range jobs {
		job.Assignments = nil
		graph.Jobs[job.ID] = &JobNode{Job: job}
		graph.Order = append(graph.Order, job.ID)
	}

	for jobID, assignments := range assignmentsByJob {
		node, ok := graph.Jobs[jobID]
		if !ok {
			logger.Warn().
				Uint("jobId", jobID).
				Int("assignments", len(assignments)).
				Msg("Assignments reference unknown job, excluded from graph")
			continue
		}

		for _, a := range assignments {
			emp, ok := employees[a.EmployeeID]
			if !ok {
				logger.Warn().
					Uint("jobId", jobID).
					Uint("assignmentId", a.ID).
					Uint("employeeId", a.EmployeeID).
					Msg("Assignment references unknown employee, excluded from graph")
				continue
			}
			node.Assignments = append(node.Assignments, AssignmentNode{
				Assignment: a,
				Employee:   &emp,
			})
		}
	}

	return graph
}
