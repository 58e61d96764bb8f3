package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/DeependraDeveloper/AMS-BACKEND/internal"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/attendance"
	"github.com/DeependraDeveloper/AMS-BACKEND/pkg/database"
)

const AttendanceCollection = "attendences"

type attendanceDoc struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	User      bson.ObjectID `bson:"user"`
	Day       string        `bson:"day"`
	InTime    string        `bson:"inTime"`
	OutTime   string        `bson:"outTime"`
	Duration  string        `bson:"duration"`
	Status    string        `bson:"status"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

func (d *attendanceDoc) toDomain() *attendance.Record {
	return &attendance.Record{
		ID:        d.ID.Hex(),
		UserID:    d.User.Hex(),
		Day:       d.Day,
		InTime:    d.InTime,
		OutTime:   d.OutTime,
		Duration:  d.Duration,
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type Repository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewRepository(ctx context.Context, db *database.MongoDB, timeout time.Duration) (*Repository, error) {
	coll := db.Collection(AttendanceCollection)

	if _, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "day", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
	}); err != nil {
		return nil, fmt.Errorf("create attendance indexes: %w", err)
	}

	return &Repository{coll: coll, timeout: timeout}, nil
}

// InsertIfAbsent upserts on (user, day) with $setOnInsert so an existing
// record is never touched.
func (r *Repository) InsertIfAbsent(ctx context.Context, rec *attendance.Record) (bool, error) {
	uid, err := bson.ObjectIDFromHex(rec.UserID)
	if err != nil {
		return false, fmt.Errorf("invalid user id %q: %w", rec.UserID, err)
	}

	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"user": uid, "day": rec.Day},
		bson.M{"$setOnInsert": bson.M{
			"inTime":    rec.InTime,
			"outTime":   rec.OutTime,
			"duration":  rec.Duration,
			"status":    rec.Status,
			"createdAt": rec.CreatedAt,
			"updatedAt": rec.UpdatedAt,
		}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		// Two concurrent upserts on the same key: one of them loses here.
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("upsert attendance: %w", err)
	}
	if res.UpsertedCount == 0 {
		return false, nil
	}
	if oid, ok := res.UpsertedID.(bson.ObjectID); ok {
		rec.ID = oid.Hex()
	}
	return true, nil
}

func (r *Repository) findOne(ctx context.Context, filter bson.M) (*attendance.Record, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc attendanceDoc
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, attendance.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *Repository) GetByUserDay(ctx context.Context, userID, day string) (*attendance.Record, error) {
	uid, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, attendance.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"user": uid, "day": day})
}

func (r *Repository) GetByID(ctx context.Context, id string) (*attendance.Record, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, attendance.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// CompleteClockOut only matches the day's record while its outTime is empty.
func (r *Repository) CompleteClockOut(ctx context.Context, userID, day, outTime, duration string) (*attendance.Record, error) {
	uid, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, attendance.ErrNotFound
	}

	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc attendanceDoc
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"user": uid, "day": day, "outTime": ""},
		bson.M{"$set": bson.M{"outTime": outTime, "duration": duration, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, attendance.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("clock out: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *Repository) Find(ctx context.Context, q attendance.Query) ([]*attendance.Record, error) {
	uids := make([]bson.ObjectID, 0, len(q.UserIDs))
	for _, id := range q.UserIDs {
		if oid, err := bson.ObjectIDFromHex(id); err == nil {
			uids = append(uids, oid)
		}
	}
	if len(uids) == 0 {
		return []*attendance.Record{}, nil
	}

	filter := bson.M{"user": bson.M{"$in": uids}}
	created := bson.M{}
	if !q.From.IsZero() {
		created["$gte"] = q.From
	}
	if !q.To.IsZero() {
		created["$lte"] = q.To
	}
	if !q.Before.IsZero() {
		created["$lt"] = q.Before
	}
	if !q.At.IsZero() {
		filter["createdAt"] = q.At
	} else if len(created) > 0 {
		filter["createdAt"] = created
	}

	order := -1
	if q.Oldest {
		order = 1
	}

	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: order}}))
	if err != nil {
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	var docs []*attendanceDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode attendance: %w", err)
	}
	out := make([]*attendance.Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *Repository) Update(ctx context.Context, id string, patch attendance.Patch) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return attendance.ErrNotFound
	}

	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	set := bson.M{"updatedAt": time.Now()}
	if patch.InTime != nil {
		set["inTime"] = *patch.InTime
	}
	if patch.OutTime != nil {
		set["outTime"] = *patch.OutTime
	}
	if patch.Duration != nil {
		set["duration"] = *patch.Duration
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update attendance: %w", err)
	}
	if res.MatchedCount == 0 {
		return attendance.ErrNotFound
	}
	return nil
}
