package repository

import (
	"context"

	"taskboard/internal/database"
	"taskboard/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type AnalyticsRepository struct {
	taskCollection *mongo.Collection
}

func NewAnalyticsRepository(db *database.MongoDB) *AnalyticsRepository {
	return &AnalyticsRepository{
		taskCollection: db.Tasks(),
	}
}

// GetTasksByState aggregates task count by board state
func (r *AnalyticsRepository) GetTasksByState(ctx context.Context, userID, email string) ([]models.StateCount, error) {
	pipeline := []bson.M{
		{"$match": visibleTo(userID, email)},
		{"$group": bson.M{
			"_id":   "$state",
			"count": bson.M{"$sum": 1},
		}},
	}

	cursor, err := r.taskCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.StateCount
	if err = cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// GetTasksByPriority aggregates open (not done) task count by priority
func (r *AnalyticsRepository) GetTasksByPriority(ctx context.Context, userID, email string) ([]models.PriorityCount, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"$and": []bson.M{
			visibleTo(userID, email),
			{"state": bson.M{"$ne": models.StateDone}},
		}}},
		{"$group": bson.M{
			"_id":   "$priority",
			"count": bson.M{"$sum": 1},
		}},
	}

	cursor, err := r.taskCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.PriorityCount
	if err = cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// GetDueAndOverdue counts open tasks with a due date, and those flagged overdue
func (r *AnalyticsRepository) GetDueAndOverdue(ctx context.Context, userID, email string) (due int, overdue int, err error) {
	dueFilter := bson.M{"$and": []bson.M{
		visibleTo(userID, email),
		{"dueDate": bson.M{"$ne": nil}},
		{"state": bson.M{"$ne": models.StateDone}},
	}}
	dueCount, err := r.taskCollection.CountDocuments(ctx, dueFilter)
	if err != nil {
		return 0, 0, err
	}

	overdueFilter := bson.M{"$and": []bson.M{
		visibleTo(userID, email),
		{"overdue": true},
		{"state": bson.M{"$ne": models.StateDone}},
	}}
	overdueCount, err := r.taskCollection.CountDocuments(ctx, overdueFilter)
	if err != nil {
		return 0, 0, err
	}

	return int(dueCount), int(overdueCount), nil
}

// GetAnalytics combines the aggregations into the metric map served to clients
func (r *AnalyticsRepository) GetAnalytics(ctx context.Context, userID, email string) (models.Analytics, error) {
	byState, err := r.GetTasksByState(ctx, userID, email)
	if err != nil {
		return nil, err
	}
	byPriority, err := r.GetTasksByPriority(ctx, userID, email)
	if err != nil {
		return nil, err
	}
	due, overdue, err := r.GetDueAndOverdue(ctx, userID, email)
	if err != nil {
		return nil, err
	}
	return BuildAnalytics(byState, byPriority, due, overdue), nil
}

// BuildAnalytics folds aggregation rows into a complete metric map. Unknown
// states or priorities are ignored.
func BuildAnalytics(byState []models.StateCount, byPriority []models.PriorityCount, due, overdue int) models.Analytics {
	a := models.NewAnalytics()
	for _, s := range byState {
		if key := models.StateMetric(s.State); key != "" {
			a[key] = s.Count
		}
	}
	for _, p := range byPriority {
		switch p.Priority {
		case models.PriorityLow, models.PriorityModerate, models.PriorityHigh:
			a[string(p.Priority)] = p.Count
		}
	}
	a[models.MetricDueDate] = due
	a[models.MetricOverdue] = overdue
	return a
}
