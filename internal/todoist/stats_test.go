package todoist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPriorityLabel(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{4, "p1"},
		{3, "p2"},
		{2, "p3"},
		{1, "p4"},
		{0, "p4"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PriorityLabel(tt.in))
	}
}

func TestComputeStats(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.Local)
	projects := []Project{
		{ID: "p1", Name: "Inbox", Color: "grey"},
		{ID: "p2", Name: "Work", Color: "blue"},
	}
	tasks := []Task{
		{ID: "1", ProjectID: "p1", Priority: 4, Labels: []string{"urgent"}, Due: &Due{Date: "2024-03-09"}},
		{ID: "2", ProjectID: "p1", Priority: 1, Due: &Due{Date: "2024-03-10"}},
		{ID: "3", ProjectID: "p2", Priority: 1, Labels: []string{"urgent", "call"}, Due: &Due{Date: "2024-03-11T09:00:00"}},
		{ID: "4", ProjectID: "gone", Priority: 2},
	}

	s := ComputeStats(tasks, projects, now)

	assert.Equal(t, 4, s.TotalTasks)
	assert.Equal(t, map[string]int{"p1": 1, "p4": 2, "p3": 1}, s.PriorityDistribution)
	assert.Equal(t, map[string]int{"Inbox": 2, "Work": 1, "Unknown": 1}, s.ProjectDistribution)
	assert.Equal(t, map[string]int{"urgent": 2, "call": 1}, s.LabelDistribution)
	assert.Equal(t, DueAnalysis{Overdue: 1, Today: 1, Upcoming: 1, NoDueDate: 1}, s.DueDateAnalysis)
	assert.Len(t, s.Projects, 2)
}

func TestComputeStatsEmpty(t *testing.T) {
	s := ComputeStats(nil, nil, time.Now())
	assert.Zero(t, s.TotalTasks)
	assert.Empty(t, s.PriorityDistribution)
	assert.Equal(t, DueAnalysis{}, s.DueDateAnalysis)
	assert.NotNil(t, s.Projects)
}
