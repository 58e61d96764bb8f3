package leave

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"time"

	errors "github.com/DeependraDeveloper/AMS-BACKEND/internal"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/core/events"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/core/timeclock"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/user"
)

const (
	MsgSubmitted = "Leave request submitted successfully!"
	MsgApproved  = "Leave approved successfully!"
	MsgRejected  = "Leave rejected successfully!"
	MsgUnchanged = "Leave status updated successfully!"
)

// maxDecideAttempts bounds how often Decide re-reads a leave whose status was
// changed underneath it.
const maxDecideAttempts = 3

var ErrLeaveToBeforeFrom = errors.NewValidationFieldError("leaveTo", "Leave To cannot be earlier than Leave From", errors.ErrCodeInvalidDate)

type Repository interface {
	Create(ctx context.Context, l *Leave) error
	GetByID(ctx context.Context, id string) (*Leave, error)
	// ListByApplicants returns the leaves applied for by any of ids, newest
	// first.
	ListByApplicants(ctx context.Context, ids []string) ([]*Leave, error)
	// ApplyDecision writes d when the stored status still equals d.From and
	// returns ErrNotFound otherwise.
	ApplyDecision(ctx context.Context, id string, d Decision) (*Leave, error)
}

type UserDirectory interface {
	Get(ctx context.Context, id string) (*user.User, error)
	ListOrganization(ctx context.Context, organization string) ([]*user.User, error)
	Lookup(ctx context.Context, ids []string) (map[string]*user.User, error)
}

type Service struct {
	repo      Repository
	users     UserDirectory
	clock     *timeclock.Clock
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, users UserDirectory, clock *timeclock.Clock, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = timeclock.NewClock(time.Local)
	}
	return &Service{
		repo:      repo,
		users:     users,
		clock:     clock,
		publisher: publisher,
		logger:    logger,
	}
}

// Submit files a Pending leave request for an existing user.
func (s *Service) Submit(ctx context.Context, dto SubmitDTO) (*Leave, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	from, err := s.clock.ParseDate(dto.LeaveFrom)
	if err != nil {
		return nil, err
	}
	to, err := s.clock.ParseDate(dto.LeaveTo)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, ErrLeaveToBeforeFrom
	}

	applicant, err := s.users.Get(ctx, dto.UserID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	l := &Leave{
		Type:      strings.TrimSpace(dto.LeaveType),
		Reason:    strings.TrimSpace(dto.LeaveReason),
		From:      from,
		To:        to,
		AppliedBy: applicant.ID,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, l); err != nil {
		s.logger.Error("failed to create leave", "error", err, "user_id", applicant.ID)
		return nil, errors.NewInternalError("failed to submit leave", err)
	}

	s.logger.Info("leave submitted",
		"leave_id", l.ID,
		"user_id", applicant.ID,
		"leave_type", l.Type)
	s.publish(ctx, events.NewLeaveSubmittedEvent(l.ID, applicant.ID, l.Status))

	return l, nil
}

// ListForViewer returns the leaves visible to viewerID: every request of the
// viewer's organization for approvers, the viewer's own requests otherwise.
func (s *Service) ListForViewer(ctx context.Context, viewerID string) ([]*View, error) {
	viewer, err := s.users.Get(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	ids := []string{viewer.ID}
	if viewer.IsApprover() {
		members, err := s.users.ListOrganization(ctx, viewer.Organization)
		if err != nil {
			return nil, err
		}
		ids = make([]string, 0, len(members))
		for _, m := range members {
			ids = append(ids, m.ID)
		}
	}

	leaves, err := s.repo.ListByApplicants(ctx, ids)
	if err != nil {
		return nil, errors.NewInternalError("failed to list leaves", err)
	}
	return s.populate(ctx, leaves)
}

// Decide moves a leave one step along its decision cycle and stamps the
// decider. It returns the message describing the new status.
func (s *Service) Decide(ctx context.Context, dto DecideDTO) (string, error) {
	if err := dto.Validate(); err != nil {
		return "", err
	}
	decider, err := s.users.Get(ctx, dto.UserID)
	if err != nil {
		return "", err
	}
	if !decider.IsApprover() {
		return "", errors.ErrInsufficientRole
	}

	for attempt := 1; ; attempt++ {
		current, err := s.repo.GetByID(ctx, dto.LeaveID)
		if err != nil {
			if stderrors.Is(err, ErrNotFound) {
				return "", errors.ErrLeaveNotFound
			}
			return "", errors.NewInternalError("failed to load leave", err)
		}
		if attempt == 1 {
			if err := s.sameOrganization(ctx, decider, current.AppliedBy); err != nil {
				return "", err
			}
		}

		next, ok := NextStatus(current.Status)
		if !ok {
			s.logger.Warn("leave has unknown status", "leave_id", current.ID, "status", current.Status)
			return MsgUnchanged, nil
		}

		decided, err := s.repo.ApplyDecision(ctx, current.ID, Decision{
			From:      current.Status,
			To:        next,
			DecidedBy: decider.ID,
			DecidedAt: s.clock.Now(),
		})
		if stderrors.Is(err, ErrNotFound) {
			if attempt < maxDecideAttempts {
				s.logger.Debug("leave changed during decision, retrying", "leave_id", current.ID, "attempt", attempt)
				continue
			}
			return "", errors.NewConflictError("Leave was updated concurrently. Please try again!", errors.ErrCodeValidationFailed)
		}
		if err != nil {
			return "", errors.NewInternalError("failed to decide leave", err)
		}

		s.logger.Info("leave decided",
			"leave_id", decided.ID,
			"decided_by", decider.ID,
			"from", current.Status,
			"to", decided.Status)
		s.publish(ctx, events.NewLeaveDecidedEvent(decided.ID, decider.ID, decided.Status))

		if decided.Status == StatusRejected {
			return MsgRejected, nil
		}
		return MsgApproved, nil
	}
}

// sameOrganization admits deciders of the applicant's organization. Leaves of
// users that no longer exist belong to nobody's organization.
func (s *Service) sameOrganization(ctx context.Context, decider *user.User, applicantID string) error {
	applicant, err := s.users.Get(ctx, applicantID)
	if err != nil {
		if stderrors.Is(err, errors.ErrUserNotFound) {
			return errors.ErrInsufficientRole
		}
		return err
	}
	if applicant.Organization != decider.Organization {
		return errors.ErrInsufficientRole
	}
	return nil
}

func (s *Service) populate(ctx context.Context, leaves []*Leave) ([]*View, error) {
	ids := make([]string, 0, len(leaves))
	for _, l := range leaves {
		ids = append(ids, l.AppliedBy)
	}
	users, err := s.users.Lookup(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := make([]*View, 0, len(leaves))
	for _, l := range leaves {
		views = append(views, NewView(l, users[l.AppliedBy]))
	}
	return views, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
