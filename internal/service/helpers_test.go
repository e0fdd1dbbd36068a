package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cemlevent54/FileMate/internal/clock"
	"github.com/cemlevent54/FileMate/internal/events"
	"github.com/cemlevent54/FileMate/internal/metrics"
	"github.com/cemlevent54/FileMate/internal/repository"
	"github.com/cemlevent54/FileMate/internal/revocation"
	"github.com/cemlevent54/FileMate/internal/security"
	"github.com/cemlevent54/FileMate/internal/testutil"
)

var epoch = time.Date(2025, 5, 21, 12, 0, 0, 0, time.UTC)

type fixture struct {
	auth     *AuthService
	accounts *AccountService
	admin    *AdminService
	users    *repository.UserRepository
	tokens   *security.TokenCodec
	registry *revocation.Registry
	clock    *clock.Fake
	events   *events.Recorder
	metrics  *metrics.Metrics
}

type fixtureOpts struct {
	withoutRoles bool
	rotate       bool
	store        revocation.Store
}

func newFixture(t *testing.T, opts ...fixtureOpts) *fixture {
	t.Helper()

	var o fixtureOpts
	if len(opts) > 0 {
		o = opts[0]
	}

	clk := clock.NewFake(epoch)
	codec, err := security.NewTokenCodec(security.TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
		ResetTTL:      time.Hour,
		Issuer:        "filemate",
	}, clk)
	require.NoError(t, err)

	store := o.store
	if store == nil {
		store = revocation.NewMemoryStore()
	}
	registry := revocation.NewRegistry(store, codec, clk)

	users := repository.NewUserRepository(testutil.NewDB(t, o.withoutRoles))
	hasher := security.NewPasswordHasher("bcrypt", bcrypt.MinCost)
	recorder := &events.Recorder{}
	m := metrics.New(prometheus.NewRegistry())
	policy := Policy{MinPasswordLength: 6, RotateRefreshTokens: o.rotate}

	return &fixture{
		auth: NewAuthService(AuthDeps{
			Users:       users,
			Hasher:      hasher,
			Tokens:      codec,
			Revocations: registry,
			Events:      recorder,
			Metrics:     m,
			Log:         zerolog.Nop(),
		}, policy),
		accounts: NewAccountService(users, hasher, recorder, policy, zerolog.Nop()),
		admin:    NewAdminService(users, hasher, recorder, policy, zerolog.Nop()),
		users:    users,
		tokens:   codec,
		registry: registry,
		clock:    clk,
		events:   recorder,
		metrics:  m,
	}
}

func (f *fixture) register(t *testing.T, email, password, name string) Session {
	t.Helper()
	s, err := f.auth.Register(context.Background(), RegisterInput{Email: email, Password: password, Name: name})
	require.NoError(t, err)
	return s
}

type failingStore struct{}

var errStoreDown = errors.New("store down")

func (failingStore) Put(context.Context, string, time.Time) error { return errStoreDown }
func (failingStore) Contains(context.Context, string) (bool, error) { return false, errStoreDown }
func (failingStore) Sweep(context.Context, time.Time) (int, error) { return 0, errStoreDown }

func ptr[T any](v T) *T { return &v }
