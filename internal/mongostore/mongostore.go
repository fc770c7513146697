// Package mongostore persists shifts and users in MongoDB.
package mongostore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/opsdesk/shift-backend/internal/config"
	"github.com/opsdesk/shift-backend/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	shiftsCollection = "shifts"
	usersCollection  = "users"

	indexShiftOnDay = "uniq_employeeId_startDate"
	indexUsername   = "uniq_username"
	indexEmail      = "uniq_email"
)

var shiftIndexes = []mongo.IndexModel{
	{
		Keys: bson.D{{Key: "employeeId", Value: 1}, {Key: "startDate", Value: 1}},
		Options: options.Index().SetName(indexShiftOnDay).
			SetUnique(true),
	},
}

var userIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetName(indexUsername).SetUnique(true),
	},
	{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName(indexEmail).SetUnique(true),
	},
}

type Store struct {
	cfg     *config.Config
	client  *mongo.Client
	shifts  *mongo.Collection
	users   *mongo.Collection
	session mongo.Session // set on stores handed out by WithTx
}

func New(cfg *config.Config, client *mongo.Client) *Store {
	db := client.Database(cfg.Database.Name)
	return &Store{
		cfg:    cfg,
		client: client,
		shifts: db.Collection(shiftsCollection),
		users:  db.Collection(usersCollection),
	}
}

// EnsureIndexes creates the unique indexes every write relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	if _, err := s.shifts.Indexes().CreateMany(ctx, shiftIndexes); err != nil {
		return err
	}
	if _, err := s.users.Indexes().CreateMany(ctx, userIndexes); err != nil {
		return err
	}
	return nil
}

// opContext bounds one operation and, inside a transaction, attaches the
// session so the operation joins it.
func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.session != nil {
		ctx = mongo.NewSessionContext(ctx, s.session)
	}
	return context.WithTimeout(ctx, time.Duration(s.cfg.Database.QueryTimeout)*time.Second)
}

// now matches the millisecond precision BSON keeps.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func mapError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrRecordNotFound
	}

	if mongo.IsDuplicateKeyError(err) {
		msg := err.Error()
		switch {
		case strings.Contains(msg, indexUsername):
			return &domain.DuplicateError{Field: "username"}
		case strings.Contains(msg, indexEmail):
			return &domain.DuplicateError{Field: "email"}
		default:
			return &domain.DuplicateError{Field: "employeeId,startDate"}
		}
	}

	return err
}

// staleOrMissing explains an optimistic update that matched no document.
func staleOrMissing(ctx context.Context, coll *mongo.Collection, id string) error {
	n, err := coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrVersionConflict
	}
	return domain.ErrRecordNotFound
}
