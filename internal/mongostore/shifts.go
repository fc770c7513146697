package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/shift-backend/internal/domain"
	"github.com/opsdesk/shift-backend/internal/scheduler"
	"github.com/opsdesk/shift-backend/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ scheduler.ShiftStore = (*Store)(nil)

var oldestFirst = bson.D{{Key: "createdAt", Value: 1}}

func shiftFilter(filter domain.ShiftFilter) bson.D {
	d := bson.D{}

	id := bson.D{}
	if filter.ID != "" {
		id = append(id, bson.E{Key: "$eq", Value: filter.ID})
	}
	if filter.ExcludeID != "" {
		id = append(id, bson.E{Key: "$ne", Value: filter.ExcludeID})
	}
	if len(id) > 0 {
		d = append(d, bson.E{Key: "_id", Value: id})
	}

	if len(filter.EmployeeIDs) > 0 {
		d = append(d, bson.E{Key: "employeeId", Value: bson.D{{Key: "$in", Value: filter.EmployeeIDs}}})
	}
	if !filter.Date.IsZero() {
		d = append(d, bson.E{Key: "startDate", Value: utils.TruncateDay(filter.Date)})
	}

	return d
}

// normalize drops the local zone the driver may attach to decoded dates.
func normalize(shift *domain.Shift) {
	shift.StartDate = utils.TruncateDay(shift.StartDate)
	shift.EndDate = utils.TruncateDay(shift.EndDate)
}

func (s *Store) FindShift(ctx context.Context, filter domain.ShiftFilter) (*domain.Shift, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	shift := &domain.Shift{}
	opts := options.FindOne().SetSort(oldestFirst)
	if err := s.shifts.FindOne(ctx, shiftFilter(filter), opts).Decode(shift); err != nil {
		return nil, mapError(err)
	}

	normalize(shift)
	return shift, nil
}

func (s *Store) InsertShift(ctx context.Context, shift *domain.Shift) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if shift.ID == "" {
		shift.ID = uuid.NewString()
	}
	shift.StartDate = utils.TruncateDay(shift.StartDate)
	shift.EndDate = utils.TruncateDay(shift.EndDate)
	shift.CreatedAt = now()
	shift.Version = 1

	if _, err := s.shifts.InsertOne(ctx, shift); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *Store) UpdateShift(ctx context.Context, shift *domain.Shift) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	filter := bson.D{{Key: "_id", Value: shift.ID}, {Key: "version", Value: shift.Version}}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "employeeId", Value: shift.EmployeeID},
			{Key: "startDate", Value: utils.TruncateDay(shift.StartDate)},
			{Key: "endDate", Value: utils.TruncateDay(shift.EndDate)},
			{Key: "shiftType", Value: shift.ShiftType},
			{Key: "shiftStart", Value: shift.ShiftStart},
			{Key: "shiftEnd", Value: shift.ShiftEnd},
			{Key: "notes", Value: shift.Notes},
		}},
		{Key: "$inc", Value: bson.D{{Key: "version", Value: int32(1)}}},
	}

	result, err := s.shifts.UpdateOne(ctx, filter, update)
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return staleOrMissing(ctx, s.shifts, shift.ID)
	}

	shift.Version++
	return nil
}

func (s *Store) DeleteShift(ctx context.Context, filter domain.ShiftFilter) (bool, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	opts := options.FindOneAndDelete().SetSort(oldestFirst)
	err := s.shifts.FindOneAndDelete(ctx, shiftFilter(filter), opts).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return false, nil
	default:
		return false, err
	}
}

func (s *Store) GetShiftByID(ctx context.Context, id string) (*domain.Shift, error) {
	return s.FindShift(ctx, domain.ShiftFilter{ID: id})
}

func (s *Store) DeleteShiftByID(ctx context.Context, id string) (*domain.Shift, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	shift := &domain.Shift{}
	if err := s.shifts.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: id}}).Decode(shift); err != nil {
		return nil, mapError(err)
	}

	normalize(shift)
	return shift, nil
}

type shiftDetailDoc struct {
	domain.Shift `bson:",inline"`
	Employee     *domain.EmployeeSummary `bson:"employee,omitempty"`
}

func detailPipeline(match bson.D) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "startDate", Value: 1}, {Key: "createdAt", Value: 1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "employeeId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "employee"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$employee"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$project", Value: bson.D{{Key: "employee.passwordHash", Value: 0}}}},
	}
}

func (s *Store) shiftDetails(ctx context.Context, match bson.D) ([]*domain.ShiftDetail, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	cursor, err := s.shifts.Aggregate(ctx, detailPipeline(match))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	details := []*domain.ShiftDetail{}
	for cursor.Next(ctx) {
		var doc shiftDetailDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		normalize(&doc.Shift)
		details = append(details, &domain.ShiftDetail{Shift: doc.Shift, Employee: doc.Employee})
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return details, nil
}

func (s *Store) GetAllShiftDetails(ctx context.Context) ([]*domain.ShiftDetail, error) {
	return s.shiftDetails(ctx, bson.D{})
}

func (s *Store) GetShiftDetailByID(ctx context.Context, id string) (*domain.ShiftDetail, error) {
	details, err := s.shiftDetails(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, domain.ErrRecordNotFound
	}
	return details[0], nil
}

// WithTx runs fn inside a multi-document transaction. The server must be a
// replica set. The driver may call fn more than once on transient errors.
func (s *Store) WithTx(ctx context.Context, fn func(tx scheduler.ShiftStore) error) error {
	if s.session != nil {
		return fn(s)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	bound := *s
	bound.session = session

	_, err = session.WithTransaction(ctx, func(mongo.SessionContext) (any, error) {
		return nil, fn(&bound)
	})
	return err
}
