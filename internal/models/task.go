package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Priority string

const (
	PriorityHigh     Priority = "high"
	PriorityModerate Priority = "moderate"
	PriorityLow      Priority = "low"
)

// TaskState is the board column a task sits in.
type TaskState string

const (
	StateBacklog    TaskState = "backlog"
	StateTodo       TaskState = "todo"
	StateInProgress TaskState = "in-progress"
	StateDone       TaskState = "done"
)

// States lists the board columns in display order.
var States = []TaskState{StateBacklog, StateTodo, StateInProgress, StateDone}

// Label is the column heading shown on the board.
func (s TaskState) Label() string {
	switch s {
	case StateBacklog:
		return "backlog"
	case StateTodo:
		return "to do"
	case StateInProgress:
		return "in progress"
	case StateDone:
		return "done"
	}
	return string(s)
}

type ChecklistItem struct {
	ID   string `json:"id" bson:"id"`
	Text string `json:"text" bson:"text"`
	Done bool   `json:"done" bson:"done"`
}

type Task struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title     string             `json:"title" bson:"title"`
	Priority  Priority           `json:"priority" bson:"priority"`
	State     TaskState          `json:"state" bson:"state"`
	Checklist []ChecklistItem    `json:"checklist" bson:"checklist"`
	DueDate   *time.Time         `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	Assignee  string             `json:"assignee,omitempty" bson:"assignee,omitempty"`
	CreatedBy string             `json:"createdBy" bson:"createdBy"`
	Overdue   bool               `json:"overdue" bson:"overdue"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Completed returns the number of checked checklist items.
func (t *Task) Completed() int {
	n := 0
	for _, item := range t.Checklist {
		if item.Done {
			n++
		}
	}
	return n
}

// IsOverdue reports whether the task is past due and not done at now.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.State != StateDone && t.DueDate.Before(now)
}

// ChecklistItemRequest - an item in a create/update payload. An empty ID
// creates a new item.
type ChecklistItemRequest struct {
	ID   string `json:"id"`
	Text string `json:"text" binding:"required"`
	Done bool   `json:"done"`
}

// TaskRequest is the payload for creating or replacing a task
type TaskRequest struct {
	Title     string                 `json:"title" binding:"required"`
	Priority  Priority               `json:"priority" binding:"required,oneof=high moderate low"`
	Checklist []ChecklistItemRequest `json:"checklist" binding:"required,min=1,dive"`
	DueDate   *time.Time             `json:"dueDate"`
	Assignee  string                 `json:"assignee" binding:"omitempty,email"`
}

// MoveTaskRequest moves a task to another board column
type MoveTaskRequest struct {
	State TaskState `json:"state" binding:"required,oneof=backlog todo in-progress done"`
}

// ChecklistToggleRequest sets the done flag of a single checklist item
type ChecklistToggleRequest struct {
	Done *bool `json:"done" binding:"required"`
}
