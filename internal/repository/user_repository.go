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

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *database.MongoDB) *UserRepository {
	r := &UserRepository{
		collection: db.Users(),
	}

	// Ensure indexes
	_, _ = r.collection.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("idx_email").SetUnique(true),
	})

	return r
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.People == nil {
		user.People = []string{}
	}

	_, err := r.collection.InsertOne(ctx, user)
	return err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}

	var user models.User
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"googleId": googleID}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile sets the display name and, when passwordHash is non-empty, the password.
func (r *UserRepository) UpdateProfile(ctx context.Context, userID, name, passwordHash string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return err
	}

	set := bson.M{"updatedAt": time.Now()}
	if name != "" {
		set["name"] = name
	}
	if passwordHash != "" {
		set["password"] = passwordHash
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	return err
}

func (r *UserRepository) UpdateRefreshToken(ctx context.Context, userID, refreshToken string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return err
	}

	update := bson.M{
		"$set": bson.M{
			"refreshToken": refreshToken,
			"updatedAt":    time.Now(),
		},
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	return err
}

// LinkGoogle attaches a Google account to an existing email user.
func (r *UserRepository) LinkGoogle(ctx context.Context, userID, googleID, picture string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return err
	}

	set := bson.M{
		"googleId":  googleID,
		"updatedAt": time.Now(),
	}
	if picture != "" {
		set["picture"] = picture
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	return err
}

// AddPerson appends email to the user's people unless it is already there.
// It reports whether the list changed and returns the resulting list.
func (r *UserRepository) AddPerson(ctx context.Context, userID, email string) (bool, []string, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, nil, err
	}

	filter := bson.M{"_id": oid, "people": bson.M{"$ne": email}}
	update := bson.M{
		"$push": bson.M{"people": email},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	after := options.After
	opts := options.FindOneAndUpdateOptions{ReturnDocument: &after}

	var user models.User
	err = r.collection.FindOneAndUpdate(ctx, filter, update, &opts).Decode(&user)
	if err == nil {
		return true, user.People, nil
	}
	if err != mongo.ErrNoDocuments {
		return false, nil, err
	}

	// Either the user does not exist or the email is already present
	people, err := r.ListPeople(ctx, userID)
	if err != nil {
		return false, nil, err
	}
	return false, people, nil
}

func (r *UserRepository) ListPeople(ctx context.Context, userID string) ([]string, error) {
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.People == nil {
		return []string{}, nil
	}
	return user.People, nil
}

// ListDirectory returns name and email of every user except excludeID.
func (r *UserRepository) ListDirectory(ctx context.Context, excludeID string) ([]models.User, error) {
	filter := bson.M{}
	if oid, err := primitive.ObjectIDFromHex(excludeID); err == nil {
		filter["_id"] = bson.M{"$ne": oid}
	}
	findOptions := options.Find().
		SetProjection(bson.M{"email": 1, "name": 1}).
		SetSort(bson.D{{Key: "email", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
