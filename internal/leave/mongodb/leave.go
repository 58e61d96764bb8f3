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
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/leave"
	"github.com/DeependraDeveloper/AMS-BACKEND/pkg/database"
)

const LeavesCollection = "leaves"

type leaveDoc struct {
	ID              bson.ObjectID  `bson:"_id,omitempty"`
	LeaveType       string         `bson:"leaveType"`
	LeaveReason     string         `bson:"leaveReason"`
	LeaveFrom       time.Time      `bson:"leaveFrom"`
	LeaveTo         time.Time      `bson:"leaveTo"`
	LeaveAppliedBy  bson.ObjectID  `bson:"leaveAppliedBy"`
	LeaveStatus     string         `bson:"leaveStatus"`
	LeaveApprovedBy *bson.ObjectID `bson:"leaveApprovedBy,omitempty"`
	LeaveApprovedOn *time.Time     `bson:"leaveApprovedOn,omitempty"`
	CreatedAt       time.Time      `bson:"createdAt"`
	UpdatedAt       time.Time      `bson:"updatedAt"`
}

func (d *leaveDoc) toDomain() *leave.Leave {
	l := &leave.Leave{
		ID:         d.ID.Hex(),
		Type:       d.LeaveType,
		Reason:     d.LeaveReason,
		From:       d.LeaveFrom,
		To:         d.LeaveTo,
		AppliedBy:  d.LeaveAppliedBy.Hex(),
		Status:     d.LeaveStatus,
		ApprovedOn: d.LeaveApprovedOn,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
	if d.LeaveApprovedBy != nil {
		l.ApprovedBy = d.LeaveApprovedBy.Hex()
	}
	return l
}

type Repository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewRepository(ctx context.Context, db *database.MongoDB, timeout time.Duration) (*Repository, error) {
	coll := db.Collection(LeavesCollection)

	if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "leaveAppliedBy", Value: 1}, {Key: "createdAt", Value: -1}},
	}); err != nil {
		return nil, fmt.Errorf("create leaves indexes: %w", err)
	}

	return &Repository{coll: coll, timeout: timeout}, nil
}

func (r *Repository) Create(ctx context.Context, l *leave.Leave) error {
	applicant, err := bson.ObjectIDFromHex(l.AppliedBy)
	if err != nil {
		return fmt.Errorf("invalid applicant id %q: %w", l.AppliedBy, err)
	}

	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	now := time.Now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = l.CreatedAt
	}
	doc := &leaveDoc{
		LeaveType:      l.Type,
		LeaveReason:    l.Reason,
		LeaveFrom:      l.From,
		LeaveTo:        l.To,
		LeaveAppliedBy: applicant,
		LeaveStatus:    l.Status,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert leave: %w", err)
	}
	l.ID = res.InsertedID.(bson.ObjectID).Hex()
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*leave.Leave, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, leave.ErrNotFound
	}

	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc leaveDoc
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, leave.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find leave: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *Repository) ListByApplicants(ctx context.Context, ids []string) ([]*leave.Leave, error) {
	oids := make([]bson.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := bson.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []*leave.Leave{}, nil
	}

	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx,
		bson.M{"leaveAppliedBy": bson.M{"$in": oids}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find leaves: %w", err)
	}
	var docs []*leaveDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode leaves: %w", err)
	}
	out := make([]*leave.Leave, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// ApplyDecision matches on the observed status so a concurrent decision that
// landed first makes this one miss.
func (r *Repository) ApplyDecision(ctx context.Context, id string, d leave.Decision) (*leave.Leave, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, leave.ErrNotFound
	}
	decider, err := bson.ObjectIDFromHex(d.DecidedBy)
	if err != nil {
		return nil, fmt.Errorf("invalid decider id %q: %w", d.DecidedBy, err)
	}

	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	set := bson.M{
		"leaveStatus":     d.To,
		"leaveApprovedBy": decider,
		"leaveApprovedOn": d.DecidedAt,
		"updatedAt":       time.Now(),
	}

	var doc leaveDoc
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "leaveStatus": d.From},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, leave.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("decide leave: %w", err)
	}
	return doc.toDomain(), nil
}
