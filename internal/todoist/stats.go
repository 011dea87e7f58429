package todoist

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

const unknownProject = "Unknown"

// DueAnalysis buckets tasks by due date relative to today.
type DueAnalysis struct {
	Overdue   int `json:"overdue"`
	Today     int `json:"today"`
	Upcoming  int `json:"upcoming"`
	NoDueDate int `json:"no_due_date"`
}

// ProjectRef is the short project form included in Stats.
type ProjectRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Stats summarises the active task list.
type Stats struct {
	TotalTasks           int            `json:"total_tasks"`
	PriorityDistribution map[string]int `json:"priority_distribution"`
	ProjectDistribution  map[string]int `json:"project_distribution"`
	LabelDistribution    map[string]int `json:"label_distribution"`
	DueDateAnalysis      DueAnalysis    `json:"due_date_analysis"`
	Projects             []ProjectRef   `json:"projects"`
}

// AnalyzeStats fetches tasks and projects and computes Stats against the
// local date.
func (c *Client) AnalyzeStats(ctx context.Context) (*Stats, error) {
	var (
		tasks    []Task
		projects []Project
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = c.GetTasks(gctx, TaskFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		projects, err = c.GetProjects(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	stats := ComputeStats(tasks, projects, c.now())
	return &stats, nil
}

// PriorityLabel maps the API priority (4 is most urgent) to the label shown
// in the Todoist apps (p1 is most urgent).
func PriorityLabel(apiPriority int) string {
	if apiPriority < 1 || apiPriority > 4 {
		return "p4"
	}
	return fmt.Sprintf("p%d", 5-apiPriority)
}

// ComputeStats is the pure part of AnalyzeStats.
func ComputeStats(tasks []Task, projects []Project, now time.Time) Stats {
	names := make(map[string]string, len(projects))
	refs := make([]ProjectRef, 0, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
		refs = append(refs, ProjectRef{ID: p.ID, Name: p.Name, Color: p.Color})
	}

	s := Stats{
		TotalTasks:           len(tasks),
		PriorityDistribution: map[string]int{},
		ProjectDistribution:  map[string]int{},
		LabelDistribution:    map[string]int{},
		Projects:             refs,
	}

	today := now.Format(time.DateOnly)
	for _, t := range tasks {
		s.PriorityDistribution[PriorityLabel(t.Priority)]++

		name, ok := names[t.ProjectID]
		if !ok {
			name = unknownProject
		}
		s.ProjectDistribution[name]++

		for _, l := range t.Labels {
			s.LabelDistribution[l]++
		}

		if t.Due == nil || t.Due.Date == "" {
			continue
		}
		// due.date is YYYY-MM-DD, so string order is date order.
		due := t.Due.Date
		if len(due) > len(time.DateOnly) {
			due = due[:len(time.DateOnly)]
		}
		switch {
		case due < today:
			s.DueDateAnalysis.Overdue++
		case due == today:
			s.DueDateAnalysis.Today++
		default:
			s.DueDateAnalysis.Upcoming++
		}
	}
	d := s.DueDateAnalysis
	s.DueDateAnalysis.NoDueDate = s.TotalTasks - d.Overdue - d.Today - d.Upcoming
	return s
}
