package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cemlevent54/FileMate/internal/events"
	"github.com/cemlevent54/FileMate/internal/models"
	"github.com/cemlevent54/FileMate/internal/repository"
	"github.com/cemlevent54/FileMate/internal/security"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

type AdminService struct {
	users  UserStore
	creds  credentials
	events events.Publisher
	log    zerolog.Logger
}

func NewAdminService(users UserStore, hasher security.PasswordHasher, publisher events.Publisher, policy Policy, log zerolog.Logger) *AdminService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &AdminService{
		users:  users,
		creds:  newCredentials(hasher, policy),
		events: publisher,
		log:    log.With().Str("component", "admin").Logger(),
	}
}

type UserPage struct {
	Items   []models.User
	Total   int64
	Page    int
	PerPage int
}

type AdminUpdateInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
	Role      *string
}

func (s *AdminService) List(ctx context.Context, page, perPage int) (UserPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	items, total, err := s.users.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return UserPage{}, err
	}
	return UserPage{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

func (s *AdminService) Get(ctx context.Context, id uint) (models.User, error) {
	return findUser(ctx, s.users, id)
}

func (s *AdminService) Update(ctx context.Context, actorID, id uint, in AdminUpdateInput) (models.User, error) {
	if _, err := findUser(ctx, s.users, id); err != nil {
		return models.User{}, err
	}

	update, err := profileUpdate(ctx, s.users, id, in.FirstName, in.LastName, in.Email)
	if err != nil {
		return models.User{}, err
	}

	if in.Role != nil {
		name, ok := models.ParseUserRole(*in.Role)
		if !ok {
			return models.User{}, fmt.Errorf("%w: %q", ErrInvalidRole, *in.Role)
		}
		if id == actorID && name != models.UserRoleAdmin {
			return models.User{}, ErrSelfModification
		}
		role, err := s.users.FindRoleByName(ctx, name)
		if err != nil {
			if errors.Is(err, repository.ErrRoleNotFound) {
				return models.User{}, ErrRoleConfiguration
			}
			return models.User{}, err
		}
		update.RoleID = &role.ID
	}

	var hash string
	if in.Password != nil && *in.Password != "" {
		if hash, err = s.creds.hash(*in.Password); err != nil {
			return models.User{}, err
		}
	}

	// The profile write can still lose an email race, so it goes first and
	// the password is only stored once it succeeded.
	if err := s.users.UpdateProfile(ctx, id, update); err != nil {
		return models.User{}, mapStoreErr(err)
	}
	if hash != "" {
		if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
			return models.User{}, mapStoreErr(err)
		}
	}

	user, err := findUser(ctx, s.users, id)
	if err != nil {
		return models.User{}, err
	}
	s.audit(ctx, events.UserUpdated, actorID, user)
	return user, nil
}

func (s *AdminService) Delete(ctx context.Context, actorID, id uint) error {
	if id == actorID {
		return ErrSelfModification
	}
	user, err := findUser(ctx, s.users, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return mapStoreErr(err)
	}
	s.audit(ctx, events.AccountDeleted, actorID, user)
	return nil
}

func (s *AdminService) Activate(ctx context.Context, actorID, id uint) (models.User, error) {
	return s.setActive(ctx, actorID, id, true)
}

func (s *AdminService) Block(ctx context.Context, actorID, id uint) (models.User, error) {
	if id == actorID {
		return models.User{}, ErrSelfModification
	}
	return s.setActive(ctx, actorID, id, false)
}

func (s *AdminService) setActive(ctx context.Context, actorID, id uint, active bool) (models.User, error) {
	if err := s.users.UpdateProfile(ctx, id, repository.ProfileUpdate{IsActive: &active}); err != nil {
		return models.User{}, mapStoreErr(err)
	}
	user, err := findUser(ctx, s.users, id)
	if err != nil {
		return models.User{}, err
	}

	eventType := events.UserBlocked
	if active {
		eventType = events.UserActivated
	}
	s.audit(ctx, eventType, actorID, user)
	return user, nil
}

func (s *AdminService) audit(ctx context.Context, eventType string, actorID uint, user models.User) {
	s.log.Info().
		Str("action", eventType).
		Uint("actor_id", actorID).
		Uint("user_id", user.ID).
		Msg("admin action")
	publishEvent(ctx, s.events, s.log, events.Event{Type: eventType, UserID: user.ID, Email: user.Email, ActorID: actorID})
}
