package user

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	errors "github.com/DeependraDeveloper/AMS-BACKEND/internal"
)

// Repository is the user directory store. Lookups return ErrNotFound when
// nothing matches; writes return a *DuplicateError on unique key clashes.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*User, error)
	GetByPhone(ctx context.Context, phone int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByOrganization(ctx context.Context, organization string) (*User, error)
	ListByOrganization(ctx context.Context, organization, role string) ([]*User, error)
	Update(ctx context.Context, id string, patch Patch) error
	UpdatePassword(ctx context.Context, phone int64, passwordHash string) (*User, error)
	// NextRollNo atomically reserves the next roll number.
	NextRollNo(ctx context.Context) (int64, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
}

type Service struct {
	repo   Repository
	hasher PasswordHasher
	logger *slog.Logger
}

func NewService(repo Repository, hasher PasswordHasher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		hasher: hasher,
		logger: logger,
	}
}

// Register creates the first user of an organization.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	phone, err := dto.Phone.Int64()
	if err != nil {
		return nil, err
	}
	email := strings.TrimSpace(dto.Email)
	organization := strings.TrimSpace(dto.Organization)

	if err := s.ensureUnique(ctx, phone, email); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByOrganization(ctx, organization); err == nil {
		return nil, errors.ErrOrganizationTaken
	} else if !stderrors.Is(err, ErrNotFound) {
		return nil, errors.NewInternalError("failed to check organization", err)
	}

	role := dto.Role
	if role == "" {
		role = RoleAdmin
	}

	u := &User{
		Name:         strings.TrimSpace(dto.Name),
		Role:         role,
		Email:        email,
		Phone:        phone,
		Address:      strings.TrimSpace(dto.Address),
		Department:   dto.Department,
		Designation:  dto.Designation,
		Organization: organization,
		ProfilePic:   DefaultAdminPicture,
	}
	if err := s.create(ctx, u, dto.Password); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		"user_id", u.ID,
		"organization", u.Organization,
		"roll_no", u.RollNo)

	return u, nil
}

// AddUser creates an employee in the organization of the anchor user.
func (s *Service) AddUser(ctx context.Context, dto AddUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	phone, err := dto.Phone.Int64()
	if err != nil {
		return nil, err
	}
	email := strings.TrimSpace(dto.Email)

	if err := s.ensureUnique(ctx, phone, email); err != nil {
		return nil, err
	}

	anchor, err := s.Get(ctx, dto.AnchorID)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:         strings.TrimSpace(dto.Name),
		Role:         RoleEmployee,
		Email:        email,
		Phone:        phone,
		Address:      strings.TrimSpace(dto.Address),
		Department:   dto.Department,
		Designation:  dto.Designation,
		Organization: anchor.Organization,
		ProfilePic:   DefaultEmployeePicture,
	}
	if err := s.create(ctx, u, dto.Password); err != nil {
		return nil, err
	}

	s.logger.Info("employee added",
		"user_id", u.ID,
		"anchor_id", anchor.ID,
		"organization", u.Organization,
		"roll_no", u.RollNo)

	return u, nil
}

func (s *Service) ensureUnique(ctx context.Context, phone int64, email string) error {
	if _, err := s.repo.GetByPhone(ctx, phone); err == nil {
		return errors.ErrPhoneTaken
	} else if !stderrors.Is(err, ErrNotFound) {
		return errors.NewInternalError("failed to check phone", err)
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return errors.ErrEmailTaken
	} else if !stderrors.Is(err, ErrNotFound) {
		return errors.NewInternalError("failed to check email", err)
	}
	return nil
}

func (s *Service) create(ctx context.Context, u *User, password string) error {
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return errors.NewInternalError("failed to hash password", err)
	}
	u.PasswordHash = hash

	rollNo, err := s.repo.NextRollNo(ctx)
	if err != nil {
		return errors.NewInternalError("failed to assign roll number", err)
	}
	u.RollNo = rollNo

	if err := s.repo.Create(ctx, u); err != nil {
		s.logger.Error("failed to create user", "error", err, "phone", u.Phone)
		return conflictOrInternal(err, "failed to create user")
	}
	return nil
}

// Update writes the present fields of dto onto the stored user.
func (s *Service) Update(ctx context.Context, dto UpdateUserDTO) error {
	patch, verr := dto.Patch()
	if verr != nil {
		return verr
	}

	if err := s.repo.Update(ctx, dto.ID, patch); err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return errors.ErrUserNotFound
		}
		s.logger.Error("failed to update user", "error", err, "user_id", dto.ID)
		return conflictOrInternal(err, "failed to update user")
	}

	s.logger.Info("user updated", "user_id", dto.ID)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.ErrUserNotFound
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.NewInternalError("failed to get user", err)
	}
	return u, nil
}

func (s *Service) GetByPhone(ctx context.Context, phone int64) (*User, error) {
	u, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.NewInternalError("failed to get user", err)
	}
	return u, nil
}

// SetPassword replaces the password hash of the user owning phone.
func (s *Service) SetPassword(ctx context.Context, phone int64, password string) (*User, error) {
	if len(password) > MaxPasswordLength {
		return nil, ErrPasswordTooLong
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, errors.NewInternalError("failed to hash password", err)
	}
	u, err := s.repo.UpdatePassword(ctx, phone, hash)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.NewInternalError("failed to update password", err)
	}
	s.logger.Info("password reset", "user_id", u.ID)
	return u, nil
}

// ListEmployees returns the employees of an organization.
func (s *Service) ListEmployees(ctx context.Context, organization string) ([]*User, error) {
	users, err := s.repo.ListByOrganization(ctx, organization, RoleEmployee)
	if err != nil {
		return nil, errors.NewInternalError("failed to list users", err)
	}
	if users == nil {
		users = []*User{}
	}
	return users, nil
}

// ListOrganization returns every user sharing organization, whatever the role.
func (s *Service) ListOrganization(ctx context.Context, organization string) ([]*User, error) {
	users, err := s.repo.ListByOrganization(ctx, organization, "")
	if err != nil {
		return nil, errors.NewInternalError("failed to list users", err)
	}
	return users, nil
}

// Lookup resolves ids to users keyed by id. Unknown ids are absent from the map.
func (s *Service) Lookup(ctx context.Context, ids []string) (map[string]*User, error) {
	out := make(map[string]*User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	users, err := s.repo.GetByIDs(ctx, dedupe(ids))
	if err != nil {
		return nil, errors.NewInternalError("failed to load users", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func conflictOrInternal(err error, msg string) error {
	var dup *DuplicateError
	if stderrors.As(err, &dup) {
		switch dup.Field {
		case "phone":
			return errors.ErrPhoneTaken
		case "email":
			return errors.ErrEmailTaken
		case "organization":
			return errors.ErrOrganizationTaken
		}
		return errors.NewConflictError(fmt.Sprintf("%s: duplicate %s", msg, dup.Field), errors.ErrCodeValidationFailed)
	}
	return errors.NewInternalError(msg, err)
}
