package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"kabaleid/internal/application"
	"kabaleid/internal/audit"
	"kabaleid/internal/digitalid"
	"kabaleid/internal/kabale"
	"kabaleid/internal/platform/metrics"
	"kabaleid/internal/rbac"
	"kabaleid/pkg/domain"
	dErrors "kabaleid/pkg/domain-errors"
	"kabaleid/pkg/platform/sentinel"
	"kabaleid/pkg/requestcontext"
)

// Store persists applications. FindByIDForUpdate locks the row for the
// duration of an enclosing transaction so the review flow's state re-check
// serializes against concurrent reviews.
type Store interface {
	Create(ctx context.Context, app application.Application) error
	Update(ctx context.Context, app application.Application) error
	FindByID(ctx context.Context, id domain.ApplicationID) (application.Application, error)
	FindByIDForUpdate(ctx context.Context, id domain.ApplicationID) (application.Application, error)
	ListByCitizen(ctx context.Context, citizenID domain.CitizenID) ([]application.Application, error)
	ListByKabale(ctx context.Context, kabaleID domain.KabaleID) ([]application.Application, error)
	ListAll(ctx context.Context) ([]application.Application, error)
}

// DigitalIDStore is the slice of the digital ID store the lifecycle needs.
type DigitalIDStore interface {
	Create(ctx context.Context, d digitalid.DigitalID) error
	FindActiveByCitizen(ctx context.Context, citizenID domain.CitizenID) (digitalid.DigitalID, error)
}

// KabaleStore validates that a chosen kabale exists.
type KabaleStore interface {
	FindByID(ctx context.Context, id domain.KabaleID) (kabale.Kabale, error)
}

// DesignStore supplies the expiry duration at issuance time.
type DesignStore interface {
	Get(ctx context.Context) (digitalid.DesignConfig, error)
}

// Service implements the application lifecycle and the approval transaction.
type Service struct {
	store      Store
	digitalIDs DigitalIDStore
	kabales    KabaleStore
	design     DesignStore
	logs       audit.Store
	publisher  audit.Publisher
	tx         Tx
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

func NewService(
	store Store,
	digitalIDs DigitalIDStore,
	kabales KabaleStore,
	design DesignStore,
	logs audit.Store,
	publisher audit.Publisher,
	tx Tx,
	m *metrics.Metrics,
) *Service {
	if publisher == nil {
		publisher = audit.NopPublisher{}
	}
	return &Service{
		store:      store,
		digitalIDs: digitalIDs,
		kabales:    kabales,
		design:     design,
		logs:       logs,
		publisher:  publisher,
		tx:         tx,
		metrics:    m,
		tracer:     otel.Tracer("kabaleid/application"),
	}
}

// ensureNoActiveID enforces the one-active-digital-ID rule.
func (s *Service) ensureNoActiveID(ctx context.Context, citizenID domain.CitizenID) error {
	_, err := s.digitalIDs.FindActiveByCitizen(ctx, citizenID)
	if err == nil {
		return dErrors.New(dErrors.CodeConflict, "citizen already has an active digital id")
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	return err
}

// Create opens a DRAFT application bound to the chosen kabale. A citizen with
// an ACTIVE digital ID cannot apply again until it is revoked or expires.
func (s *Service) Create(ctx context.Context, scope rbac.Scope, kabaleID domain.KabaleID) (application.Application, error) {
	citizenID, err := rbac.RequireCitizen(scope)
	if err != nil {
		return application.Application{}, err
	}

	if _, err := s.kabales.FindByID(ctx, kabaleID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return application.Application{}, dErrors.New(dErrors.CodeNotFound, "kabale not found")
		}
		return application.Application{}, err
	}

	if err := s.ensureNoActiveID(ctx, citizenID); err != nil {
		return application.Application{}, err
	}

	now := requestcontext.Now(ctx)
	app := application.Application{
		ID:        domain.NewApplicationID(),
		CitizenID: citizenID,
		KabaleID:  kabaleID,
		Status:    application.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, app); err != nil {
		return application.Application{}, err
	}
	return app, nil
}

// findOwned loads an application and verifies the acting citizen owns it.
func (s *Service) findOwned(ctx context.Context, scope rbac.Scope, id domain.ApplicationID) (application.Application, error) {
	citizenID, err := rbac.RequireCitizen(scope)
	if err != nil {
		return application.Application{}, err
	}
	app, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return application.Application{}, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return application.Application{}, err
	}
	if app.CitizenID != citizenID {
		return application.Application{}, dErrors.New(dErrors.CodeForbidden, "application belongs to another citizen")
	}
	return app, nil
}

// Edit changes the kabale of a DRAFT application. Any other state is frozen.
func (s *Service) Edit(ctx context.Context, scope rbac.Scope, id domain.ApplicationID, kabaleID domain.KabaleID) (application.Application, error) {
	app, err := s.findOwned(ctx, scope, id)
	if err != nil {
		return application.Application{}, err
	}
	if app.Status != application.StatusDraft {
		return application.Application{}, dErrors.Newf(dErrors.CodeInvalidState, "cannot edit application in state %s", app.Status)
	}

	if _, err := s.kabales.FindByID(ctx, kabaleID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return application.Application{}, dErrors.New(dErrors.CodeNotFound, "kabale not found")
		}
		return application.Application{}, err
	}

	app.KabaleID = kabaleID
	app.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, app); err != nil {
		return application.Application{}, err
	}
	return app, nil
}

// Submit moves DRAFT to SUBMITTED and stamps submittedAt. The one-active-ID
// precondition is re-validated here: it may have become true between create
// and submit.
func (s *Service) Submit(ctx context.Context, scope rbac.Scope, id domain.ApplicationID) (application.Application, error) {
	app, err := s.findOwned(ctx, scope, id)
	if err != nil {
		return application.Application{}, err
	}
	if app.Status != application.StatusDraft {
		return application.Application{}, dErrors.Newf(dErrors.CodeInvalidState, "cannot submit application in state %s", app.Status)
	}
	if err := s.ensureNoActiveID(ctx, app.CitizenID); err != nil {
		return application.Application{}, err
	}

	now := requestcontext.Now(ctx)
	app.Status = application.StatusSubmitted
	app.SubmittedAt = &now
	app.UpdatedAt = now
	if err := s.store.Update(ctx, app); err != nil {
		return application.Application{}, err
	}
	if s.metrics != nil {
		s.metrics.ApplicationsSubmitted.Inc()
	}
	return app, nil
}

// ReviewRequest is a reviewer's decision on one application.
type ReviewRequest struct {
	ApplicationID domain.ApplicationID
	Action        application.ReviewAction
	Notes         string
}

// ReviewResult reports the application's final state and, on approval, the
// issued digital ID.
type ReviewResult struct {
	Application application.Application
	DigitalID   *digitalid.DigitalID
}

// Review approves or rejects an awaiting-review application. Both outcomes
// run inside the transaction boundary; approval additionally re-checks the
// active-ID rule and issues the digital ID, all-or-nothing.
func (s *Service) Review(ctx context.Context, principal rbac.Principal, req ReviewRequest) (ReviewResult, error) {
	ctx, span := s.tracer.Start(ctx, "application.Review",
		trace.WithAttributes(
			attribute.String("application.id", req.ApplicationID.String()),
			attribute.String("review.action", string(req.Action)),
		))
	defer span.End()

	if !req.Action.Valid() {
		return ReviewResult{}, dErrors.Validation("invalid review", map[string]string{
			"action": "action must be APPROVE or REJECT",
		})
	}

	app, err := s.store.FindByID(ctx, req.ApplicationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return ReviewResult{}, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return ReviewResult{}, err
	}

	if err := rbac.RequireKabaleAccess(principal.Scope, app.KabaleID); err != nil {
		return ReviewResult{}, err
	}
	if !app.Status.AwaitingReview() {
		return ReviewResult{}, dErrors.Newf(dErrors.CodeInvalidState, "cannot review application in state %s", app.Status)
	}

	now := requestcontext.Now(ctx)
	log := audit.VerificationLog{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		VerifiedBy:    principal.UserID,
		Notes:         req.Notes,
		VerifiedAt:    now,
	}

	var issued *digitalid.DigitalID
	err = s.tx.RunInTx(ctx, app.CitizenID, func(ctx context.Context) error {
		// Re-read under the transaction lock: a concurrent review may have
		// reached a terminal state between the pre-check and this point.
		current, err := s.store.FindByIDForUpdate(ctx, req.ApplicationID)
		if err != nil {
			return err
		}
		if !current.Status.AwaitingReview() {
			return dErrors.Newf(dErrors.CodeInvalidState, "cannot review application in state %s", current.Status)
		}
		app = current

		switch req.Action {
		case application.ActionReject:
			log.Result = audit.ResultRejected
			if err := s.logs.Append(ctx, log); err != nil {
				return err
			}
			app.Status = application.StatusRejected
			app.UpdatedAt = now
			return s.store.Update(ctx, app)

		case application.ActionApprove:
			// Re-check inside the transaction boundary: two concurrent
			// approvals for the same citizen must not both issue.
			if err := s.ensureNoActiveID(ctx, app.CitizenID); err != nil {
				return err
			}

			log.Result = audit.ResultApproved
			if err := s.logs.Append(ctx, log); err != nil {
				return err
			}
			app.Status = application.StatusApproved
			app.UpdatedAt = now
			if err := s.store.Update(ctx, app); err != nil {
				return err
			}

			cfg, err := s.design.Get(ctx)
			if err != nil {
				return err
			}
			d := digitalid.DigitalID{
				ID:            domain.NewDigitalIDID(),
				ApplicationID: app.ID,
				CitizenID:     app.CitizenID,
				KabaleID:      app.KabaleID,
				Status:        digitalid.StatusActive,
				IssuedAt:      now,
				ExpiresAt:     digitalid.ComputeExpiry(now, cfg.ExpiryYears()),
			}
			if err := s.digitalIDs.Create(ctx, d); err != nil {
				return err
			}
			issued = &d
			return nil
		}
		return dErrors.Newf(dErrors.CodeValidation, "unknown review action %q", req.Action)
	})
	if err != nil {
		return ReviewResult{}, err
	}

	if s.metrics != nil {
		switch req.Action {
		case application.ActionApprove:
			s.metrics.ApplicationsApproved.Inc()
			s.metrics.DigitalIDsIssued.Inc()
		case application.ActionReject:
			s.metrics.ApplicationsRejected.Inc()
		}
	}
	s.publisher.Publish(ctx, log)

	return ReviewResult{Application: app, DigitalID: issued}, nil
}

// Get loads one application, scope-checked: citizens see their own, kabale
// admins their kabale's, system admins any.
func (s *Service) Get(ctx context.Context, scope rbac.Scope, id domain.ApplicationID) (application.Application, error) {
	app, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return application.Application{}, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return application.Application{}, err
	}

	switch sc := scope.(type) {
	case rbac.SystemAdmin:
		return app, nil
	case rbac.KabaleAdmin:
		if err := rbac.RequireKabaleAccess(scope, app.KabaleID); err != nil {
			return application.Application{}, err
		}
		return app, nil
	case rbac.Citizen:
		if app.CitizenID != sc.CitizenID {
			return application.Application{}, dErrors.New(dErrors.CodeForbidden, "application belongs to another citizen")
		}
		return app, nil
	}
	return application.Application{}, dErrors.New(dErrors.CodeForbidden, "unresolved scope")
}

// List returns the applications visible to the caller's scope.
func (s *Service) List(ctx context.Context, scope rbac.Scope) ([]application.Application, error) {
	switch sc := scope.(type) {
	case rbac.SystemAdmin:
		return s.store.ListAll(ctx)
	case rbac.KabaleAdmin:
		return s.store.ListByKabale(ctx, sc.KabaleID)
	case rbac.Citizen:
		return s.store.ListByCitizen(ctx, sc.CitizenID)
	}
	return nil, dErrors.New(dErrors.CodeForbidden, "unresolved scope")
}
