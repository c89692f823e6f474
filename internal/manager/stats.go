package manager

import (
	"fmt"
	"math"
)

type Statistics struct {
	Total       int `json:"total"`
	Completed   int `json:"completed"`
	Incomplete  int `json:"incomplete"`
	Overdue     int `json:"overdue"`
	DueToday    int `json:"due_today"`
	DueSoon     int `json:"due_soon"`
	WithDueDate int `json:"with_due_date"`
	RootTasks   int `json:"root_tasks"`
	ChildTasks  int `json:"child_tasks"`
}

func (m *Manager) Statistics() Statistics {
	return Statistics{
		Total:       len(m.tasks),
		Completed:   len(m.Completed()),
		Incomplete:  len(m.Incomplete()),
		Overdue:     len(m.Overdue()),
		DueToday:    len(m.DueToday()),
		DueSoon:     len(m.DueSoon(0)),
		WithDueDate: len(m.WithDueDate()),
		RootTasks:   len(m.Roots()),
		ChildTasks:  len(m.ChildTasks()),
	}
}

// CompletionRate is the completed percentage, rounded to one decimal.
func (m *Manager) CompletionRate() float64 {
	total := len(m.tasks)
	if total == 0 {
		return 0
	}
	return round1(float64(len(m.Completed())) / float64(total) * 100)
}

// OnTimeRate is the percentage of dated tasks that are completed or not
// overdue, rounded to one decimal.
func (m *Manager) OnTimeRate() float64 {
	dated := m.WithDueDate()
	if len(dated) == 0 {
		return 0
	}
	today := m.today()
	onTime := 0
	for _, t := range dated {
		if t.Completed() || !t.OverdueOn(today) {
			onTime++
		}
	}
	return round1(float64(onTime) / float64(len(dated)) * 100)
}

type DepthStatistics struct {
	Max     int     `json:"max"`
	Average float64 `json:"average"`
}

func (m *Manager) DepthStatistics() DepthStatistics {
	if len(m.tasks) == 0 {
		return DepthStatistics{}
	}
	var ds DepthStatistics
	sum := 0
	for _, t := range m.tasks {
		d := t.Depth()
		sum += d
		if d > ds.Max {
			ds.Max = d
		}
	}
	ds.Average = round1(float64(sum) / float64(len(m.tasks)))
	return ds
}

// ChildCountByParent maps each parent task id to its number of children.
func (m *Manager) ChildCountByParent() map[int64]int {
	out := make(map[int64]int)
	for _, t := range m.ParentTasks() {
		out[t.ID()] = len(t.Children())
	}
	return out
}

type Summary struct {
	Overview       string
	CompletionRate string
	Overdue        int
	DueToday       int
	DueSoon        int
	RootTasks      int
	ChildTasks     int
	MaxDepth       int
}

func (m *Manager) Summary() Summary {
	s := m.Statistics()
	return Summary{
		Overview:       fmt.Sprintf("%d/%d tasks completed", s.Completed, s.Total),
		CompletionRate: fmt.Sprintf("%.1f%%", m.CompletionRate()),
		Overdue:        s.Overdue,
		DueToday:       s.DueToday,
		DueSoon:        s.DueSoon,
		RootTasks:      s.RootTasks,
		ChildTasks:     s.ChildTasks,
		MaxDepth:       m.DepthStatistics().Max,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
