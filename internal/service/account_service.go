package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/rs/zerolog"

	"github.com/cemlevent54/FileMate/internal/events"
	"github.com/cemlevent54/FileMate/internal/models"
	"github.com/cemlevent54/FileMate/internal/repository"
	"github.com/cemlevent54/FileMate/internal/security"
)

// AccountService covers what a signed-in user can do to their own record.
type AccountService struct {
	users  UserStore
	creds  credentials
	events events.Publisher
	log    zerolog.Logger
}

func NewAccountService(users UserStore, hasher security.PasswordHasher, publisher events.Publisher, policy Policy, log zerolog.Logger) *AccountService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &AccountService{
		users:  users,
		creds:  newCredentials(hasher, policy),
		events: publisher,
		log:    log.With().Str("component", "account").Logger(),
	}
}

// ProfileInput fields left nil are not changed.
type ProfileInput struct {
	FirstName *string
	LastName  *string
	Email     *string
}

func (s *AccountService) Profile(ctx context.Context, userID uint) (models.User, error) {
	return findUser(ctx, s.users, userID)
}

func (s *AccountService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	user, err := findUser(ctx, s.users, userID)
	if err != nil {
		return err
	}
	if !s.creds.verify(oldPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := s.creds.hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return mapStoreErr(err)
	}

	publishEvent(ctx, s.events, s.log, events.Event{Type: events.PasswordChanged, UserID: userID, Email: user.Email})
	return nil
}

func (s *AccountService) UpdateInfo(ctx context.Context, userID uint, in ProfileInput) (models.User, error) {
	update, err := profileUpdate(ctx, s.users, userID, in.FirstName, in.LastName, in.Email)
	if err != nil {
		return models.User{}, err
	}
	if err := s.users.UpdateProfile(ctx, userID, update); err != nil {
		return models.User{}, mapStoreErr(err)
	}

	user, err := findUser(ctx, s.users, userID)
	if err != nil {
		return models.User{}, err
	}
	publishEvent(ctx, s.events, s.log, events.Event{Type: events.UserUpdated, UserID: userID, Email: user.Email, ActorID: userID})
	return user, nil
}

// DeleteAccount removes the user row. Outstanding tokens stop verifying
// because verification reloads the user.
func (s *AccountService) DeleteAccount(ctx context.Context, userID uint) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return mapStoreErr(err)
	}
	publishEvent(ctx, s.events, s.log, events.Event{Type: events.AccountDeleted, UserID: userID, ActorID: userID})
	s.log.Info().Uint("user_id", userID).Msg("account deleted")
	return nil
}

// profileUpdate validates the optional name and email fields and enforces
// email uniqueness against every other user.
func profileUpdate(ctx context.Context, users UserStore, userID uint, firstName, lastName, email *string) (repository.ProfileUpdate, error) {
	var update repository.ProfileUpdate

	if firstName != nil {
		v := strings.TrimSpace(*firstName)
		if err := validation.Validate(v, validation.Length(0, 100)); err != nil {
			return update, invalidInput(fmt.Errorf("firstName: %w", err))
		}
		update.FirstName = &v
	}
	if lastName != nil {
		v := strings.TrimSpace(*lastName)
		if err := validation.Validate(v, validation.Length(0, 100)); err != nil {
			return update, invalidInput(fmt.Errorf("lastName: %w", err))
		}
		update.LastName = &v
	}
	if email != nil {
		v := normalizeEmail(*email)
		if err := validation.Validate(v, validation.Required, validation.Length(3, 255), is.Email); err != nil {
			return update, invalidInput(fmt.Errorf("email: %w", err))
		}

		existing, err := users.FindByEmail(ctx, v)
		switch {
		case err == nil && existing.ID != userID:
			return update, ErrDuplicateEmail
		case err != nil && !errors.Is(err, repository.ErrUserNotFound):
			return update, fmt.Errorf("lookup email: %w", err)
		}
		update.Email = &v
	}
	return update, nil
}

func findUser(ctx context.Context, users UserStore, id uint) (models.User, error) {
	user, err := users.FindByID(ctx, id)
	if err != nil {
		return models.User{}, mapStoreErr(err)
	}
	return user, nil
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrEmailTaken):
		return ErrDuplicateEmail
	default:
		return err
	}
}
