package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DeependraDeveloper/AMS-BACKEND/internal"
	userDatamodel "github.com/DeependraDeveloper/AMS-BACKEND/internal/core/datamodel/user"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/user"
)

const rollNoCounter = "rollno"

// UserRepository implements user.Repository using GORM
type UserRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewUserRepository(db *gorm.DB, timeout time.Duration) *UserRepository {
	return &UserRepository{db: db, timeout: timeout}
}

// IsUniqueViolation reports whether err comes from a unique constraint, for
// both Postgres and SQLite drivers.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	m := user.ToDataModel(u)
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if IsUniqueViolation(err) {
			return user.DuplicateFromMessage(err.Error())
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = m.ID
	u.CreatedAt = m.CreatedAt
	u.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *UserRepository) first(ctx context.Context, query string, args ...interface{}) (*user.User, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	var m userDatamodel.User
	err := r.db.WithContext(ctx).Where(query, args...).Order("roll_no ASC").First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user.FromDataModel(&m), nil
}

// validIDs drops ids that are not UUIDs; Postgres rejects them outright.
func validIDs(ids ...string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	if len(validIDs(id)) == 0 {
		return nil, user.ErrNotFound
	}
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone int64) (*user.User, error) {
	return r.first(ctx, "phone = ?", phone)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) GetByOrganization(ctx context.Context, organization string) (*user.User, error) {
	return r.first(ctx, "organization = ?", organization)
}

func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) ([]*user.User, error) {
	ids = validIDs(ids...)
	if len(ids) == 0 {
		return []*user.User{}, nil
	}
	return r.find(ctx, r.db.Where("id IN ?", ids))
}

func (r *UserRepository) ListByOrganization(ctx context.Context, organization, role string) ([]*user.User, error) {
	q := r.db.Where("organization = ?", organization)
	if role != "" {
		q = q.Where("role = ?", role)
	}
	return r.find(ctx, q)
}

func (r *UserRepository) find(ctx context.Context, q *gorm.DB) ([]*user.User, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	var models []*userDatamodel.User
	if err := q.WithContext(ctx).Order("roll_no ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	out := make([]*user.User, 0, len(models))
	for _, m := range models {
		out = append(out, user.FromDataModel(m))
	}
	return out, nil
}

func (r *UserRepository) Update(ctx context.Context, id string, patch user.Patch) error {
	if len(validIDs(id)) == 0 {
		return user.ErrNotFound
	}
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	updates := map[string]interface{}{"updated_at": time.Now()}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Email != nil {
		updates["email"] = *patch.Email
	}
	if patch.Phone != nil {
		updates["phone"] = *patch.Phone
	}
	if patch.Address != nil {
		updates["address"] = *patch.Address
	}
	if patch.Department != nil {
		updates["department"] = *patch.Department
	}
	if patch.Designation != nil {
		updates["designation"] = *patch.Designation
	}
	if patch.Organization != nil {
		updates["organization"] = *patch.Organization
	}

	res := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if IsUniqueViolation(res.Error) {
			return user.DuplicateFromMessage(res.Error.Error())
		}
		return fmt.Errorf("update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, phone int64, passwordHash string) (*user.User, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	res := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("phone = ?", phone).
		Updates(map[string]interface{}{
			"password_hash": passwordHash,
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, user.ErrNotFound
	}
	return r.GetByPhone(ctx, phone)
}

// NextRollNo bumps the counters row inside one transaction. The row is seeded
// from the current maximum roll number the first time it is used.
func (r *UserRepository) NextRollNo(ctx context.Context) (int64, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	var next int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var max int64
		if err := tx.Model(&userDatamodel.User{}).Select("COALESCE(MAX(roll_no), 0)").Scan(&max).Error; err != nil {
			return fmt.Errorf("find max roll_no: %w", err)
		}

		seed := userDatamodel.Counter{Name: rollNoCounter, Seq: max}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return fmt.Errorf("seed counter: %w", err)
		}

		if err := tx.Model(&userDatamodel.Counter{}).
			Where("name = ?", rollNoCounter).
			UpdateColumn("seq", gorm.Expr("seq + ?", 1)).Error; err != nil {
			return fmt.Errorf("increment counter: %w", err)
		}

		var c userDatamodel.Counter
		if err := tx.Where("name = ?", rollNoCounter).First(&c).Error; err != nil {
			return fmt.Errorf("read counter: %w", err)
		}
		next = c.Seq
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}
