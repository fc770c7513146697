package mongostore

import (
	"context"

	"github.com/google/uuid"
	"github.com/opsdesk/shift-backend/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.findUser(ctx, bson.D{{Key: "_id", Value: id}})
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.findUser(ctx, bson.D{{Key: "username", Value: username}})
}

func (s *Store) findUser(ctx context.Context, filter bson.D) (*domain.User, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	user := &domain.User{}
	if err := s.users.FindOne(ctx, filter).Decode(user); err != nil {
		return nil, mapError(err)
	}
	return user, nil
}

func (s *Store) GetAllUsers(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	cursor, err := s.users.Find(ctx, bson.D{}, options.Find().SetSort(oldestFirst))
	if err != nil {
		return nil, err
	}

	users := make([]*domain.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = now()
	user.Version = 1

	if _, err := s.users.InsertOne(ctx, user); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	filter := bson.D{{Key: "_id", Value: user.ID}, {Key: "version", Value: user.Version}}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "username", Value: user.Username},
			{Key: "passwordHash", Value: user.PasswordHash},
			{Key: "name", Value: user.Name},
			{Key: "email", Value: user.Email},
			{Key: "role", Value: user.Role},
		}},
		{Key: "$inc", Value: bson.D{{Key: "version", Value: int32(1)}}},
	}

	result, err := s.users.UpdateOne(ctx, filter, update)
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return staleOrMissing(ctx, s.users, user.ID)
	}

	user.Version++
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	result, err := s.users.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (s *Store) CheckEmailIfExists(ctx context.Context, email string) (bool, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	n, err := s.users.CountDocuments(ctx, bson.D{{Key: "email", Value: email}}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
