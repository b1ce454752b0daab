package models

// Analytics maps a metric name to its value. A fresh map replaces the
// previous one on every fetch.
type Analytics map[string]int

// Metric keys reported by GET /api/tasks/analytics.
const (
	MetricBacklog    = "backlog"
	MetricTodo       = "todo"
	MetricInProgress = "inProgress"
	MetricDone       = "done"
	MetricLow        = "low"
	MetricModerate   = "moderate"
	MetricHigh       = "high"
	MetricDueDate    = "dueDate"
	MetricOverdue    = "overdue"
)

// AnalyticsKeys is the display order of the metrics.
var AnalyticsKeys = []string{
	MetricBacklog, MetricTodo, MetricInProgress, MetricDone,
	MetricLow, MetricModerate, MetricHigh, MetricDueDate, MetricOverdue,
}

// NewAnalytics returns an Analytics with every known metric set to zero.
func NewAnalytics() Analytics {
	a := make(Analytics, len(AnalyticsKeys))
	for _, k := range AnalyticsKeys {
		a[k] = 0
	}
	return a
}

// StateCount - count of tasks in a board state
type StateCount struct {
	State TaskState `json:"state" bson:"_id"`
	Count int       `json:"count" bson:"count"`
}

// PriorityCount - count of tasks with a given priority
type PriorityCount struct {
	Priority Priority `json:"priority" bson:"_id"`
	Count    int      `json:"count" bson:"count"`
}

// StateMetric maps a task state to its analytics key.
func StateMetric(s TaskState) string {
	switch s {
	case StateBacklog:
		return MetricBacklog
	case StateTodo:
		return MetricTodo
	case StateInProgress:
		return MetricInProgress
	case StateDone:
		return MetricDone
	}
	return ""
}
