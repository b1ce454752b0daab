package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	cases := map[string]Filter{
		"":            DefaultFilter,
		"Today":       FilterToday,
		"today":       FilterToday,
		" THIS WEEK ": FilterThisWeek,
		"this month":  FilterThisMonth,
		"This Month":  FilterThisMonth,
	}
	for in, want := range cases {
		got, err := ParseFilter(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
}

func TestParseFilterSuggestsClosest(t *testing.T) {
	_, err := ParseFilter("Tody")
	require.EqualError(t, err, `unknown filter "Tody", did you mean "Today"?`)

	_, err = ParseFilter("this mnth")
	require.ErrorContains(t, err, `did you mean "This Month"?`)
}

func TestFilterNextWraps(t *testing.T) {
	require.Equal(t, FilterThisWeek, FilterToday.Next())
	require.Equal(t, FilterThisMonth, FilterThisWeek.Next())
	require.Equal(t, FilterToday, FilterThisMonth.Next())
	require.Equal(t, DefaultFilter, Filter("bogus").Next())
}

func TestFilterValid(t *testing.T) {
	for _, f := range Filters {
		require.True(t, f.Valid())
	}
	require.False(t, Filter("today").Valid())
	require.False(t, Filter("").Valid())
}

func TestFilterSince(t *testing.T) {
	loc := time.FixedZone("test", 2*60*60)
	now := time.Date(2026, time.October, 16, 15, 30, 0, 0, loc)

	require.Equal(t, time.Date(2026, time.October, 16, 0, 0, 0, 0, loc), FilterToday.Since(now))
	require.Equal(t, time.Date(2026, time.October, 10, 0, 0, 0, 0, loc), FilterThisWeek.Since(now))
	require.Equal(t, time.Date(2026, time.September, 17, 0, 0, 0, 0, loc), FilterThisMonth.Since(now))
}

func TestTaskCompletedAndOverdue(t *testing.T) {
	now := time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	task := Task{
		State:     StateTodo,
		Checklist: []ChecklistItem{{Done: true}, {Done: false}, {Done: true}},
	}
	require.Equal(t, 2, task.Completed())
	require.False(t, task.IsOverdue(now))

	task.DueDate = &tomorrow
	require.False(t, task.IsOverdue(now))

	task.DueDate = &yesterday
	require.True(t, task.IsOverdue(now))

	task.State = StateDone
	require.False(t, task.IsOverdue(now))
}

func TestStateLabels(t *testing.T) {
	require.Equal(t, "backlog", StateBacklog.Label())
	require.Equal(t, "to do", StateTodo.Label())
	require.Equal(t, "in progress", StateInProgress.Label())
	require.Equal(t, "done", StateDone.Label())
	require.Equal(t, "archived", TaskState("archived").Label())
}

func TestNewAnalyticsHasEveryMetric(t *testing.T) {
	a := NewAnalytics()
	require.Len(t, a, len(AnalyticsKeys))
	for _, k := range AnalyticsKeys {
		v, ok := a[k]
		require.True(t, ok, k)
		require.Zero(t, v)
	}
	for _, s := range States {
		require.Contains(t, AnalyticsKeys, StateMetric(s))
	}
	require.Empty(t, StateMetric("archived"))
}
