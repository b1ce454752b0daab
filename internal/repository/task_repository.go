package repository

import (
	"context"
	"time"

	"taskboard/internal/database"
	"taskboard/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TaskRepository handles task persistence
type TaskRepository struct {
	collection *mongo.Collection
}

// NewTaskRepository creates a new repository
func NewTaskRepository(db *database.MongoDB) *TaskRepository {
	r := &TaskRepository{
		collection: db.Tasks(),
	}

	// Ensure indexes
	ctx := context.Background()
	idxView := r.collection.Indexes()
	_, _ = idxView.CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdBy", Value: 1}, {Key: "createdAt", Value: 1}},
		Options: options.Index().SetName("idx_created_by_created_at"),
	})
	_, _ = idxView.CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "assignee", Value: 1}, {Key: "createdAt", Value: 1}},
		Options: options.Index().SetName("idx_assignee_created_at"),
	})
	_, _ = idxView.CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "dueDate", Value: 1}, {Key: "state", Value: 1}},
		Options: options.Index().SetName("idx_due_state"),
	})

	return r
}

// visibleTo matches tasks created by or assigned to the user
func visibleTo(userID, email string) bson.M {
	return bson.M{"$or": []bson.M{
		{"createdBy": userID},
		{"assignee": email},
	}}
}

// Create inserts a task, filling ID and timestamps
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	if task.State == "" {
		task.State = models.StateTodo
	}
	_, err := r.collection.InsertOne(ctx, task)
	return err
}

// FindByID returns a single task
func (r *TaskRepository) FindByID(ctx context.Context, taskID string) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}
	var task models.Task
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListForUser returns the user's tasks created on or after since, oldest first
func (r *TaskRepository) ListForUser(ctx context.Context, userID, email string, since time.Time) ([]models.Task, error) {
	filter := bson.M{"$and": []bson.M{
		visibleTo(userID, email),
		{"createdAt": bson.M{"$gte": since}},
	}}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tasks := []models.Task{}
	if err = cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Replace overwrites the editable fields of a task
func (r *TaskRepository) Replace(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"title":     task.Title,
		"priority":  task.Priority,
		"state":     task.State,
		"checklist": task.Checklist,
		"dueDate":   task.DueDate,
		"assignee":  task.Assignee,
		"overdue":   task.Overdue,
		"updatedAt": task.UpdatedAt,
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": task.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetChecklistItem updates one checklist item and returns the updated task
func (r *TaskRepository) SetChecklistItem(ctx context.Context, taskID, itemID string, done bool) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}
	filter := bson.M{"_id": oid, "checklist.id": itemID}
	update := bson.M{"$set": bson.M{
		"checklist.$.done": done,
		"updatedAt":        time.Now(),
	}}
	after := options.After
	opts := options.FindOneAndUpdateOptions{ReturnDocument: &after}

	var updated models.Task
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, &opts).Decode(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a task
func (r *TaskRepository) Delete(ctx context.Context, taskID string) error {
	oid, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return mongo.ErrNoDocuments
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// MarkOverdue flags every open task whose due date is before now and
// returns how many tasks changed.
func (r *TaskRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{
		"dueDate": bson.M{"$lt": now},
		"state":   bson.M{"$ne": models.StateDone},
		"overdue": bson.M{"$ne": true},
	}
	update := bson.M{"$set": bson.M{"overdue": true, "updatedAt": now}}
	res, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
