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
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/user"
	"github.com/DeependraDeveloper/AMS-BACKEND/pkg/database"
)

const (
	UsersCollection    = "users"
	CountersCollection = "counters"
	rollNoCounter      = "rollno"
)

type userDoc struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Name         string        `bson:"name"`
	Role         string        `bson:"role"`
	Email        string        `bson:"email"`
	Password     string        `bson:"password"`
	Phone        int64         `bson:"phone"`
	Address      string        `bson:"address,omitempty"`
	Department   string        `bson:"department,omitempty"`
	Designation  string        `bson:"designation,omitempty"`
	Organization string        `bson:"organization,omitempty"`
	ProfilePic   string        `bson:"profilePic,omitempty"`
	RollNo       int64         `bson:"rollno"`
	CreatedAt    time.Time     `bson:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt"`
}

func (d *userDoc) toDomain() *user.User {
	return &user.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Role:         d.Role,
		Email:        d.Email,
		PasswordHash: d.Password,
		Phone:        d.Phone,
		Address:      d.Address,
		Department:   d.Department,
		Designation:  d.Designation,
		Organization: d.Organization,
		ProfilePic:   d.ProfilePic,
		RollNo:       d.RollNo,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type counterDoc struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

type Repository struct {
	users    *mongo.Collection
	counters *mongo.Collection
	timeout  time.Duration
}

func NewRepository(ctx context.Context, db *database.MongoDB, timeout time.Duration) (*Repository, error) {
	users := db.Collection(UsersCollection)

	if _, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "rollno", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "organization", Value: 1}, {Key: "role", Value: 1}}},
		{
			// One admin per organization.
			Keys: bson.D{{Key: "organization", Value: 1}},
			Options: options.Index().
				SetName("organization_admin").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"role": user.RoleAdmin}),
		},
	}); err != nil {
		return nil, fmt.Errorf("create users indexes: %w", err)
	}

	return &Repository{
		users:    users,
		counters: db.Collection(CountersCollection),
		timeout:  timeout,
	}, nil
}

func (r *Repository) Create(ctx context.Context, u *user.User) error {
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	now := time.Now()
	doc := &userDoc{
		Name:         u.Name,
		Role:         u.Role,
		Email:        u.Email,
		Password:     u.PasswordHash,
		Phone:        u.Phone,
		Address:      u.Address,
		Department:   u.Department,
		Designation:  u.Designation,
		Organization: u.Organization,
		ProfilePic:   u.ProfilePic,
		RollNo:       u.RollNo,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	res, err := r.users.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.DuplicateFromMessage(err.Error())
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = res.InsertedID.(bson.ObjectID).Hex()
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

func (r *Repository) findOne(ctx context.Context, filter bson.M) (*user.User, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc userDoc
	err := r.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*user.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, user.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *Repository) GetByPhone(ctx context.Context, phone int64) (*user.User, error) {
	return r.findOne(ctx, bson.M{"phone": phone})
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *Repository) GetByOrganization(ctx context.Context, organization string) (*user.User, error) {
	return r.findOne(ctx, bson.M{"organization": organization})
}

func (r *Repository) GetByIDs(ctx context.Context, ids []string) ([]*user.User, error) {
	oids := make([]bson.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := bson.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []*user.User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}})
}

func (r *Repository) ListByOrganization(ctx context.Context, organization, role string) ([]*user.User, error) {
	filter := bson.M{"organization": organization}
	if role != "" {
		filter["role"] = role
	}
	return r.find(ctx, filter)
}

func (r *Repository) find(ctx context.Context, filter bson.M) ([]*user.User, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.users.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "rollno", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	var docs []*userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	out := make([]*user.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *Repository) Update(ctx context.Context, id string, patch user.Patch) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return user.ErrNotFound
	}

	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	set := bson.M{"updatedAt": time.Now()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.Phone != nil {
		set["phone"] = *patch.Phone
	}
	if patch.Address != nil {
		set["address"] = *patch.Address
	}
	if patch.Department != nil {
		set["department"] = *patch.Department
	}
	if patch.Designation != nil {
		set["designation"] = *patch.Designation
	}
	if patch.Organization != nil {
		set["organization"] = *patch.Organization
	}

	res, err := r.users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.DuplicateFromMessage(err.Error())
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *Repository) UpdatePassword(ctx context.Context, phone int64, passwordHash string) (*user.User, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc userDoc
	err := r.users.FindOneAndUpdate(ctx,
		bson.M{"phone": phone},
		bson.M{"$set": bson.M{"password": passwordHash, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update password: %w", err)
	}
	return doc.toDomain(), nil
}

// NextRollNo increments the roll number counter. The counter is first raised
// to the highest roll number already stored so directories created before the
// counter existed continue from their maximum.
func (r *Repository) NextRollNo(ctx context.Context) (int64, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	var top userDoc
	err := r.users.FindOne(ctx, bson.M{},
		options.FindOne().SetSort(bson.D{{Key: "rollno", Value: -1}}).SetProjection(bson.M{"rollno": 1}),
	).Decode(&top)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("find max rollno: %w", err)
	}

	if _, err := r.counters.UpdateOne(ctx,
		bson.M{"_id": rollNoCounter},
		bson.M{"$max": bson.M{"seq": top.RollNo}},
		options.UpdateOne().SetUpsert(true),
	); err != nil {
		return 0, fmt.Errorf("seed rollno counter: %w", err)
	}

	var c counterDoc
	err = r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": rollNoCounter},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return 0, fmt.Errorf("increment rollno counter: %w", err)
	}
	return c.Seq, nil
}
