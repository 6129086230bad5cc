package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/randya04/POSitive/internal/domain"
	"github.com/randya04/POSitive/internal/events"
	"github.com/randya04/POSitive/internal/identity"
	"github.com/randya04/POSitive/internal/repository"
	apperrors "github.com/randya04/POSitive/pkg/util/errorutil"
)

const duplicateEmailMessage = "a user with this email already exists"

// DirectoryService implements the staff directory operations: invite,
// list, update, toggle activation, delete, plus catalog reads.
type DirectoryService struct {
	profiles   repository.ProfileRepository
	catalog    repository.CatalogRepository
	provider   identity.Provider
	limiter    InviteLimiter
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// DirectoryDependencies encapsulates requirements for the service.
type DirectoryDependencies struct {
	ProfileRepo repository.ProfileRepository
	CatalogRepo repository.CatalogRepository
	Provider    identity.Provider
	Limiter     InviteLimiter
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewDirectoryService builds the service.
func NewDirectoryService(deps DirectoryDependencies) *DirectoryService {
	limiter := deps.Limiter
	if limiter == nil {
		limiter = noopLimiter{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{
		profiles:   deps.ProfileRepo,
		catalog:    deps.CatalogRepo,
		provider:   deps.Provider,
		limiter:    limiter,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// InviteInput carries the fields for a new staff invitation.
type InviteInput struct {
	FullName     string
	Email        string
	Role         domain.Role
	Phone        string
	IsActive     bool
	RestaurantID *string
	BranchID     *string
}

// Invite provisions an identity account and a profile row for a new
// staff member. The uniqueness precheck and the write are not one
// atomic unit; a concurrent loser surfaces the store's conflict.
func (s *DirectoryService) Invite(ctx context.Context, in InviteInput) (*domain.ProfileView, error) {
	if err := s.validateInvite(ctx, in); err != nil {
		return nil, err
	}

	if _, err := s.profiles.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperrors.NewConflict(duplicateEmailMessage, nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	if err := s.limiter.Allow(ctx, in.Email); err != nil {
		return nil, err
	}

	meta := identity.Metadata{
		FullName: in.FullName,
		Role:     in.Role,
		Phone:    in.Phone,
		IsActive: in.IsActive,
	}
	account, err := s.provider.InviteByEmail(ctx, in.Email, meta)
	if err != nil {
		return nil, mapProviderError(err)
	}

	// The invite response may omit the account id.
	if account == nil || account.ID == "" {
		account, err = s.provider.LookupByEmail(ctx, in.Email)
		if err != nil {
			return nil, apperrors.NewUpstreamError("could not resolve invited account id", err)
		}
	}

	profile := &domain.Profile{
		ID:       account.ID,
		FullName: in.FullName,
		Email:    in.Email,
		Role:     in.Role,
		Phone:    in.Phone,
		IsActive: in.IsActive,
	}
	if in.Role.Scoped() {
		profile.RestaurantID = in.RestaurantID
		profile.BranchID = in.BranchID
	}

	if err := s.profiles.Provision(ctx, profile); err != nil {
		// Best effort: do not leave an account that can authenticate
		// without a directory record.
		if delErr := s.provider.DeleteAccount(ctx, account.ID); delErr != nil && !errors.Is(delErr, identity.ErrNotFound) {
			s.logger.Warn("orphaned account left after failed provision",
				zap.String("account_id", account.ID), zap.Error(delErr))
		}
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewConflict(duplicateEmailMessage, nil)
		}
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventUserInvited, profile.ID, events.UserInvitedPayload{
		Email:        profile.Email,
		Role:         profile.Role,
		RestaurantID: profile.RestaurantID,
		BranchID:     profile.BranchID,
	})

	view, err := s.composeView(ctx, *profile)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *DirectoryService) validateInvite(ctx context.Context, in InviteInput) error {
	missing := map[string]any{}
	if in.FullName == "" {
		missing["full_name"] = "required"
	}
	if in.Email == "" {
		missing["email"] = "required"
	}
	if in.Role == "" {
		missing["role"] = "required"
	}
	if in.Phone == "" {
		missing["phone"] = "required"
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("full_name, email, role, phone, is_active are required", missing)
	}

	if !in.Role.Scoped() {
		return nil
	}
	if in.RestaurantID == nil || in.BranchID == nil {
		return apperrors.NewValidationError("restaurant_id and branch_id are required for scoped roles", nil)
	}
	ok, err := s.catalog.BranchInRestaurant(ctx, *in.BranchID, *in.RestaurantID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !ok {
		return apperrors.NewValidationError("branch does not belong to the given restaurant", nil)
	}
	return nil
}

// ListUsers returns every profile with restaurant/branch names resolved.
func (s *DirectoryService) ListUsers(ctx context.Context, filter repository.ProfileFilter) ([]domain.ProfileView, error) {
	profiles, err := s.profiles.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	restaurantNames, branchNames, err := s.resolveNames(ctx, profiles)
	if err != nil {
		return nil, err
	}

	views := make([]domain.ProfileView, 0, len(profiles))
	for _, p := range profiles {
		views = append(views, domain.NewProfileView(p,
			lookupName(restaurantNames, p.RestaurantID),
			lookupName(branchNames, p.BranchID)))
	}
	return views, nil
}

// Update applies a sparse patch to a profile. Absent fields are left
// untouched; explicit nulls clear nullable fields.
func (s *DirectoryService) Update(ctx context.Context, id string, patch domain.ProfileUpdate) (*domain.ProfileView, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("id is required", nil)
	}

	current, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}

	next := patch.Apply(*current)
	if err := s.validateScope(ctx, next); err != nil {
		return nil, err
	}
	if !next.Role.Scoped() && (next.RestaurantID != nil || next.BranchID != nil) {
		if patch.RestaurantID.IsSet() || patch.BranchID.IsSet() {
			return nil, apperrors.NewValidationError("super_admin cannot carry a restaurant or branch scope", nil)
		}
		// A role change to super_admin sheds the scope the row carried,
		// membership row included, in the same transaction.
		patch.RestaurantID = domain.Some[*string](nil)
		patch.BranchID = domain.Some[*string](nil)
	}

	updated, err := s.profiles.UpdatePartial(ctx, id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewConflict(duplicateEmailMessage, nil)
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventUserUpdated, updated.ID, events.UserUpdatedPayload{
		Email: updated.Email,
		Role:  updated.Role,
	})

	view, err := s.composeView(ctx, *updated)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *DirectoryService) validateScope(ctx context.Context, p domain.Profile) error {
	if !p.Role.Scoped() || p.RestaurantID == nil || p.BranchID == nil {
		return nil
	}
	ok, err := s.catalog.BranchInRestaurant(ctx, *p.BranchID, *p.RestaurantID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !ok {
		return apperrors.NewValidationError("branch does not belong to the given restaurant", nil)
	}
	return nil
}

// SetActive flips the activation flag. Idempotent: repeating the same
// value is a no-op success.
func (s *DirectoryService) SetActive(ctx context.Context, id string, active bool) error {
	if id == "" {
		return apperrors.NewValidationError("id is required", nil)
	}
	if err := s.profiles.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}

	s.publish(ctx, events.EventUserActivationChanged, id, events.UserActivationChangedPayload{IsActive: active})
	return nil
}

// Delete removes the profile and the backing identity account. The
// account goes first so a failed delete never leaves a credential that
// can still authenticate.
func (s *DirectoryService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.NewValidationError("id is required", nil)
	}

	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}

	if err := s.provider.DeleteAccount(ctx, id); err != nil && !errors.Is(err, identity.ErrNotFound) {
		return mapProviderError(err)
	}

	if err := s.profiles.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}

	s.publish(ctx, events.EventUserDeleted, id, events.UserDeletedPayload{Email: profile.Email})
	return nil
}

// ListRestaurants returns the restaurant catalog sorted by name.
func (s *DirectoryService) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	restaurants, err := s.catalog.ListRestaurants(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return restaurants, nil
}

// ListBranches returns a restaurant's branches sorted by name.
func (s *DirectoryService) ListBranches(ctx context.Context, restaurantID string) ([]domain.Branch, error) {
	if restaurantID == "" {
		return nil, apperrors.NewValidationError("restaurant_id is required", nil)
	}
	branches, err := s.catalog.ListBranches(ctx, restaurantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return branches, nil
}

func (s *DirectoryService) composeView(ctx context.Context, p domain.Profile) (domain.ProfileView, error) {
	restaurantNames, branchNames, err := s.resolveNames(ctx, []domain.Profile{p})
	if err != nil {
		return domain.ProfileView{}, err
	}
	return domain.NewProfileView(p,
		lookupName(restaurantNames, p.RestaurantID),
		lookupName(branchNames, p.BranchID)), nil
}

func (s *DirectoryService) resolveNames(ctx context.Context, profiles []domain.Profile) (map[string]string, map[string]string, error) {
	restaurantIDs := collectIDs(profiles, func(p domain.Profile) *string { return p.RestaurantID })
	branchIDs := collectIDs(profiles, func(p domain.Profile) *string { return p.BranchID })

	restaurantNames, err := s.catalog.RestaurantNames(ctx, restaurantIDs)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	branchNames, err := s.catalog.BranchNames(ctx, branchIDs)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return restaurantNames, branchNames, nil
}

func (s *DirectoryService) publish(ctx context.Context, eventType events.EventType, userID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}

func collectIDs(profiles []domain.Profile, pick func(domain.Profile) *string) []string {
	seen := map[string]struct{}{}
	ids := []string{}
	for _, p := range profiles {
		id := pick(p)
		if id == nil || *id == "" {
			continue
		}
		if _, ok := seen[*id]; ok {
			continue
		}
		seen[*id] = struct{}{}
		ids = append(ids, *id)
	}
	return ids
}

func lookupName(names map[string]string, id *string) *string {
	if id == nil {
		return nil
	}
	if name, ok := names[*id]; ok {
		return &name
	}
	return nil
}

func mapProviderError(err error) error {
	if errors.Is(err, identity.ErrRateLimited) {
		return apperrors.NewRateLimited("invitation emails are being sent too quickly, try again in a minute", nil)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeout("identity provider call timed out")
	}
	return apperrors.NewUpstreamError("identity provider request failed", err)
}
