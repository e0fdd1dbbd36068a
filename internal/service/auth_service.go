package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/rs/zerolog"

	"github.com/cemlevent54/FileMate/internal/events"
	"github.com/cemlevent54/FileMate/internal/metrics"
	"github.com/cemlevent54/FileMate/internal/models"
	"github.com/cemlevent54/FileMate/internal/repository"
	"github.com/cemlevent54/FileMate/internal/security"
)

// UserStore is the credential store the services persist users through.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id uint) (models.User, error)
	FindRoleByName(ctx context.Context, name models.UserRole) (models.Role, error)
	UpdatePassword(ctx context.Context, id uint, hash string) error
	UpdateProfile(ctx context.Context, id uint, update repository.ProfileUpdate) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, limit, offset int) ([]models.User, int64, error)
}

// Revocations is the registry of tokens rejected before their expiry.
type Revocations interface {
	Revoke(ctx context.Context, token string) error
	IsRevoked(ctx context.Context, token string) (bool, error)
	Len() int
}

type AuthDeps struct {
	Users       UserStore
	Hasher      security.PasswordHasher
	Tokens      *security.TokenCodec
	Revocations Revocations
	Events      events.Publisher
	Metrics     *metrics.Metrics
	Log         zerolog.Logger
}

// AuthService is the session authority: the only caller of the token codec
// and the only reader and writer of the revocation registry.
type AuthService struct {
	users       UserStore
	creds       credentials
	tokens      *security.TokenCodec
	revocations Revocations
	events      events.Publisher
	metrics     *metrics.Metrics
	policy      Policy
	log         zerolog.Logger
	dummyHash   string
}

func NewAuthService(deps AuthDeps, policy Policy) *AuthService {
	publisher := deps.Events
	if publisher == nil {
		publisher = events.Noop{}
	}

	s := &AuthService{
		users:       deps.Users,
		creds:       newCredentials(deps.Hasher, policy),
		tokens:      deps.Tokens,
		revocations: deps.Revocations,
		events:      publisher,
		metrics:     deps.Metrics,
		policy:      policy,
		log:         deps.Log.With().Str("component", "auth").Logger(),
	}

	// Unknown emails still pay for one verification.
	if digest, err := deps.Hasher.Hash("filemate-timing-placeholder"); err == nil {
		s.dummyHash = digest
	}
	return s
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// Session is the result of a successful register or login.
type Session struct {
	User             models.User
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type Refreshed struct {
	AccessToken     string
	AccessExpiresAt time.Time
	// Set only when refresh rotation is enabled.
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type ResetTicket struct {
	Token     string
	ExpiresAt time.Time
}

// Identity is what the authorization gate attaches to a request.
type Identity struct {
	UserID uint
	Email  string
	RoleID uint
	Role   models.UserRole
	User   models.User
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.UserRoleAdmin
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (_ Session, err error) {
	defer func() { s.metrics.ObserveAuth("register", outcome(err)) }()

	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, validation.Length(3, 255), is.Email),
		validation.Field(&in.Name, validation.Length(0, 100)),
	); err != nil {
		return Session{}, invalidInput(err)
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return Session{}, ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return Session{}, fmt.Errorf("lookup email: %w", err)
	}

	if err := s.creds.checkStrength(in.Password); err != nil {
		return Session{}, err
	}

	role, err := s.users.FindRoleByName(ctx, models.UserRoleUser)
	if err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			s.log.Error().
				Bool("alert", true).
				Str("role", string(models.UserRoleUser)).
				Msg("default role missing; seed data not applied")
			return Session{}, ErrRoleConfiguration
		}
		return Session{}, fmt.Errorf("lookup role: %w", err)
	}

	hash, err := s.creds.hash(in.Password)
	if err != nil {
		return Session{}, err
	}

	user := models.User{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.Name,
		IsActive:     true,
		RoleID:       role.ID,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return Session{}, ErrDuplicateEmail
		}
		return Session{}, err
	}
	user.Role = role

	session, err := s.openSession(user)
	if err != nil {
		return Session{}, err
	}

	s.publish(ctx, events.Event{Type: events.UserRegistered, UserID: user.ID, Email: user.Email})
	s.log.Info().Uint("user_id", user.ID).Msg("user registered")
	return session, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (_ Session, err error) {
	defer func() { s.metrics.ObserveAuth("login", outcome(err)) }()

	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.creds.verify(password, s.dummyHash)
			return Session{}, ErrUserNotFound
		}
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}

	if !user.IsActive {
		return Session{}, ErrAccountInactive
	}

	if !s.creds.verify(password, user.PasswordHash) {
		s.log.Warn().Uint("user_id", user.ID).Msg("login with wrong password")
		return Session{}, ErrInvalidCredentials
	}

	session, err := s.openSession(user)
	if err != nil {
		return Session{}, err
	}

	s.publish(ctx, events.Event{Type: events.UserLoggedIn, UserID: user.ID, Email: user.Email})
	return session, nil
}

// VerifyAccessToken resolves a bearer token to the current state of its user.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (Identity, error) {
	claims, err := s.tokens.VerifyAccess(token)
	if err != nil {
		return Identity{}, invalidSession(err)
	}

	if err := s.ensureNotRevoked(ctx, token); err != nil {
		return Identity{}, err
	}

	user, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return Identity{}, err
	}
	return identityOf(user), nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (_ Refreshed, err error) {
	defer func() { s.metrics.ObserveAuth("refresh", outcome(err)) }()

	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return Refreshed{}, invalidSession(err)
	}
	if err := s.ensureNotRevoked(ctx, refreshToken); err != nil {
		return Refreshed{}, err
	}

	user, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return Refreshed{}, err
	}

	access, err := s.tokens.IssueAccess(user.ID, user.Email)
	if err != nil {
		return Refreshed{}, err
	}
	s.metrics.ObserveToken(string(security.TokenTypeAccess))

	out := Refreshed{AccessToken: access.Token, AccessExpiresAt: access.ExpiresAt}
	if !s.policy.RotateRefreshTokens {
		return out, nil
	}

	if err := s.revoke(ctx, refreshToken); err != nil {
		return Refreshed{}, err
	}
	next, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return Refreshed{}, err
	}
	s.metrics.ObserveToken(string(security.TokenTypeRefresh))
	out.RefreshToken = next.Token
	out.RefreshExpiresAt = next.ExpiresAt
	return out, nil
}

// Logout revokes any token this service signed, access or refresh, expired
// or not. Both classes share one registry keyed by the raw token.
func (s *AuthService) Logout(ctx context.Context, token string) (err error) {
	defer func() { s.metrics.ObserveAuth("logout", outcome(err)) }()

	claims, err := security.Peek(token)
	if err != nil {
		return err
	}
	if err := s.revoke(ctx, token); err != nil {
		return err
	}

	s.log.Debug().
		Uint("user_id", claims.UserID).
		Str("token_type", string(claims.Type)).
		Msg("token revoked")
	s.publish(ctx, events.Event{Type: events.UserLoggedOut, UserID: claims.UserID})
	return nil
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) (_ ResetTicket, err error) {
	defer func() { s.metrics.ObserveAuth("forgot_password", outcome(err)) }()

	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ResetTicket{}, ErrUserNotFound
		}
		return ResetTicket{}, fmt.Errorf("lookup user: %w", err)
	}

	reset, err := s.tokens.IssueReset(user.ID, user.Email)
	if err != nil {
		return ResetTicket{}, err
	}
	s.metrics.ObserveToken(string(security.TokenTypeReset))

	s.publish(ctx, events.Event{Type: events.PasswordResetRequested, UserID: user.ID, Email: user.Email})
	return ResetTicket{Token: reset.Token, ExpiresAt: reset.ExpiresAt}, nil
}

// ResetPassword consumes a reset token. Each token works once.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (err error) {
	defer func() { s.metrics.ObserveAuth("reset_password", outcome(err)) }()

	claims, err := s.tokens.VerifyReset(token)
	if err != nil {
		return invalidSession(err)
	}
	if err := s.ensureNotRevoked(ctx, token); err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return invalidSession(ErrUserNotFound)
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if !strings.EqualFold(user.Email, claims.Email) {
		return invalidSession(errors.New("email changed since reset was requested"))
	}

	hash, err := s.creds.hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	if err := s.revoke(ctx, token); err != nil {
		return err
	}

	s.publish(ctx, events.Event{Type: events.PasswordReset, UserID: user.ID, Email: user.Email})
	return nil
}

func (s *AuthService) openSession(user models.User) (Session, error) {
	access, err := s.tokens.IssueAccess(user.ID, user.Email)
	if err != nil {
		return Session{}, err
	}
	refresh, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return Session{}, err
	}
	s.metrics.ObserveToken(string(security.TokenTypeAccess))
	s.metrics.ObserveToken(string(security.TokenTypeRefresh))

	return Session{
		User:             user,
		AccessToken:      access.Token,
		RefreshToken:     refresh.Token,
		AccessExpiresAt:  access.ExpiresAt,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, nil
}

func (s *AuthService) ensureNotRevoked(ctx context.Context, token string) error {
	revoked, err := s.revocations.IsRevoked(ctx, token)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRevocationFailure, err)
	}
	if revoked {
		return invalidSession(ErrRevokedToken)
	}
	return nil
}

func (s *AuthService) revoke(ctx context.Context, token string) error {
	if err := s.revocations.Revoke(ctx, token); err != nil {
		if errors.Is(err, security.ErrInvalidToken) {
			return err
		}
		s.log.Error().Err(err).Msg("revocation store write failed")
		return fmt.Errorf("%w: %w", ErrRevocationFailure, err)
	}
	s.metrics.ObserveRevocations(s.revocations.Len())
	return nil
}

func (s *AuthService) activeUser(ctx context.Context, id uint) (models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, invalidSession(ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsActive {
		return models.User{}, invalidSession(ErrAccountInactive)
	}
	return user, nil
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.events, s.log, event)
}

func publishEvent(ctx context.Context, publisher events.Publisher, log zerolog.Logger, event events.Event) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := publisher.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Str("event", event.Type).Uint("user_id", event.UserID).Msg("publish event failed")
	}
}

func identityOf(user models.User) Identity {
	return Identity{
		UserID: user.ID,
		Email:  user.Email,
		RoleID: user.RoleID,
		Role:   user.UserRole(),
		User:   user,
	}
}
