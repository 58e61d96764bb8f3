package user

import (
	"context"
	stderrors "errors"
	"strings"

	errors "github.com/DeependraDeveloper/AMS-BACKEND/internal"
)

// Getter loads one user by id.
type Getter interface {
	Get(ctx context.Context, id string) (*User, error)
}

// Access binds the bearer principal on the request context to the user ids
// and organizations a request names.
type Access struct {
	users Getter
}

func NewAccess(users Getter) *Access {
	return &Access{users: users}
}

// Caller loads the authenticated user. A token whose user no longer exists is
// treated as invalid.
func (a *Access) Caller(ctx context.Context) (*User, error) {
	p, ok := errors.PrincipalFromContext(ctx)
	if !ok || p.UserID == "" {
		return nil, errors.ErrInvalidToken
	}
	u, err := a.users.Get(ctx, p.UserID)
	if err != nil {
		if stderrors.Is(err, errors.ErrUserNotFound) {
			return nil, errors.ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

// Subject admits the caller acting on itself, or an approver acting on a
// member of its own organization. A blank subject is left to request
// validation.
func (a *Access) Subject(ctx context.Context, subjectID string) error {
	caller, err := a.Caller(ctx)
	if err != nil {
		return err
	}
	return a.CallerSubject(ctx, caller, subjectID)
}

// CallerSubject is Subject for an already loaded caller.
func (a *Access) CallerSubject(ctx context.Context, caller *User, subjectID string) error {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" || subjectID == caller.ID {
		return nil
	}
	if !caller.IsApprover() {
		return errors.ErrInsufficientRole
	}
	subject, err := a.users.Get(ctx, subjectID)
	if err != nil {
		return err
	}
	if subject.Organization != caller.Organization {
		return errors.ErrInsufficientRole
	}
	return nil
}

// Self admits only the caller itself.
func (a *Access) Self(ctx context.Context, id string) error {
	caller, err := a.Caller(ctx)
	if err != nil {
		return err
	}
	if id = strings.TrimSpace(id); id != "" && id != caller.ID {
		return errors.ErrInsufficientRole
	}
	return nil
}

// Organization admits members of organization.
func (a *Access) Organization(ctx context.Context, organization string) error {
	caller, err := a.Caller(ctx)
	if err != nil {
		return err
	}
	if caller.Organization != strings.TrimSpace(organization) {
		return errors.ErrInsufficientRole
	}
	return nil
}
