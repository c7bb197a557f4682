package account

import (
	"context"
	"strings"
	"testing"
	"time"

	"inkwell/internal/auth"
	"inkwell/internal/logging"
	"inkwell/internal/model"
	"inkwell/internal/progress"
	"inkwell/internal/store"
	"inkwell/internal/writing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *progress.FixedClock) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := &progress.FixedClock{T: time.Date(2026, 10, 17, 8, 30, 0, 0, time.UTC)}
	return &Service{
		Store:    store.NewMemoryStore(),
		Clock:    clock,
		Log:      logging.Nop(),
		JWT:      auth.NewJWT("test-secret", time.Minute),
		Sessions: auth.NewSessions(client, time.Hour),
	}, clock
}

func register(t *testing.T, s *Service) (*model.User, Tokens) {
	t.Helper()
	u, tok, err := s.Register(context.Background(), RegisterInput{
		Username: " Ada ",
		Email:    "Ada@Example.com",
		FullName: "Ada Lovelace",
		Password: "analytical",
	})
	require.NoError(t, err)
	return u, tok
}

func TestRegister_SeedsLedgerAndDefaults(t *testing.T) {
	s, clock := newService(t)
	u, tok := register(t, s)

	assert.Equal(t, "ada", u.Username)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, model.DefaultDailyWordGoal, u.DailyWordGoal)
	assert.NotEqual(t, "analytical", u.PasswordHash)
	require.Len(t, u.WordCountHistory, 1)
	assert.Equal(t, progress.Today(clock), u.WordCountHistory[0].Date)
	assert.Zero(t, u.WordCountHistory[0].Words)

	id, err := s.JWT.Verify(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
	assert.NotEmpty(t, tok.RefreshToken)

	assert.Equal(t, model.DefaultPreferences(), u.Preferences.Data())
	assert.Equal(t, model.FreeSubscription(), u.Subscription.Data())
	assert.Equal(t, 1, u.Plan().ProjectLimit)
}

func TestRegister_Validation(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	register(t, s)

	cases := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"missing fields", RegisterInput{Username: "bob"}, writing.ErrValidation},
		{"short password", RegisterInput{Username: "bob", Email: "bob@x.io", FullName: "Bob", Password: "short"}, writing.ErrValidation},
		{"bad email", RegisterInput{Username: "bob", Email: "bob", FullName: "Bob", Password: "longenough"}, writing.ErrValidation},
		{"duplicate username", RegisterInput{Username: "ADA", Email: "other@x.io", FullName: "A", Password: "longenough"}, writing.ErrConflict},
		{"duplicate email", RegisterInput{Username: "other", Email: "ada@example.com", FullName: "A", Password: "longenough"}, writing.ErrConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := s.Register(ctx, tc.in)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLogin(t *testing.T) {
	s, clock := newService(t)
	ctx := context.Background()
	reg, _ := register(t, s)

	_, _, err := s.Login(ctx, "ada", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = s.Login(ctx, "nobody", "analytical")
	require.ErrorIs(t, err, writing.ErrNotFound)

	clock.Advance(24 * time.Hour)
	u, tok, err := s.Login(ctx, "ADA@example.com", "analytical")
	require.NoError(t, err)
	assert.Equal(t, reg.ID, u.ID)
	require.NotNil(t, u.LastLogin)
	assert.Equal(t, clock.Now(), *u.LastLogin)
	require.Len(t, u.WordCountHistory, 2, "new day gets its own entry")
	assert.NotEmpty(t, tok.AccessToken)

	u, _, err = s.Login(ctx, "ada", "analytical")
	require.NoError(t, err)
	assert.Len(t, u.WordCountHistory, 2)
}

func TestRefreshAndLogout(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	u, tok := register(t, s)

	next, err := s.Refresh(ctx, tok.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tok.RefreshToken, next.RefreshToken)
	id, err := s.JWT.Verify(next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	_, err = s.Refresh(ctx, tok.RefreshToken)
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = s.Refresh(ctx, "")
	require.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, s.Logout(ctx, u.ID, next.RefreshToken))
	_, err = s.Refresh(ctx, next.RefreshToken)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.NoError(t, s.Logout(ctx, u.ID, next.RefreshToken))
}

func TestLogout_KeepsOtherUsersSessions(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	ada, adaTok := register(t, s)
	bob, _, err := s.Register(ctx, RegisterInput{Username: "bob", Email: "bob@example.com", FullName: "Bob", Password: "difference"})
	require.NoError(t, err)

	require.ErrorIs(t, s.Logout(ctx, bob.ID, adaTok.RefreshToken), ErrUnauthorized)
	owner, err := s.Sessions.Lookup(ctx, adaTok.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, ada.ID, owner)

	require.NoError(t, s.Logout(ctx, ada.ID, adaTok.RefreshToken))
	_, err = s.Sessions.Lookup(ctx, adaTok.RefreshToken)
	require.ErrorIs(t, err, auth.ErrSessionNotFound)
}

func TestMe_EnsuresTodayOnce(t *testing.T) {
	s, clock := newService(t)
	ctx := context.Background()
	reg, _ := register(t, s)

	u, err := s.Me(ctx, reg.ID)
	require.NoError(t, err)
	assert.Len(t, u.WordCountHistory, 1)

	clock.Advance(48 * time.Hour)
	u, err = s.Me(ctx, reg.ID)
	require.NoError(t, err)
	assert.Len(t, u.WordCountHistory, 2)
	u, err = s.Me(ctx, reg.ID)
	require.NoError(t, err)
	assert.Len(t, u.WordCountHistory, 2)

	_, err = s.Me(ctx, "missing")
	require.ErrorIs(t, err, writing.ErrNotFound)
}

func TestProfileAndNotifications(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	reg, _ := register(t, s)

	u, err := s.UpdateProfile(ctx, reg.ID, ProfilePatch{FullName: ptr("  Augusta Ada King ")})
	require.NoError(t, err)
	assert.Equal(t, "Augusta Ada King", u.FullName)
	_, err = s.UpdateProfile(ctx, reg.ID, ProfilePatch{FullName: ptr(" ")})
	require.ErrorIs(t, err, writing.ErrValidation)

	u, err = s.UpdateProfile(ctx, reg.ID, ProfilePatch{
		Bio:    ptr(" Writes about engines. "),
		Avatar: ptr("https://cdn.example.com/ada.png"),
		Preferences: &PreferencesPatch{
			Theme:         ptr(model.ThemeLight),
			WeeklyReports: ptr(true),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Writes about engines.", u.Bio)
	assert.Equal(t, "https://cdn.example.com/ada.png", u.Avatar)
	assert.Equal(t, "Augusta Ada King", u.FullName)
	prefs := u.Preferences.Data()
	assert.Equal(t, model.ThemeLight, prefs.Theme)
	assert.True(t, prefs.WeeklyReports)
	assert.Equal(t, "Inter", prefs.EditorFont)
	assert.True(t, prefs.KeyboardShortcuts)

	_, err = s.UpdateProfile(ctx, reg.ID, ProfilePatch{Preferences: &PreferencesPatch{Theme: ptr(model.Theme("sepia"))}})
	require.ErrorIs(t, err, writing.ErrValidation)
	_, err = s.UpdateProfile(ctx, reg.ID, ProfilePatch{Preferences: &PreferencesPatch{EditorFont: ptr("  ")}})
	require.ErrorIs(t, err, writing.ErrValidation)
	_, err = s.UpdateProfile(ctx, reg.ID, ProfilePatch{Bio: ptr(strings.Repeat("x", maxBioLen+1))})
	require.ErrorIs(t, err, writing.ErrValidation)
	u, err = s.Me(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ThemeLight, u.Preferences.Data().Theme)

	_, err = s.Store.MutateUser(ctx, reg.ID, func(u *model.User) error {
		u.Notifications = append(u.Notifications,
			model.Notification{ID: "n1", Type: model.NotifySystem, Message: "hi"},
			model.Notification{ID: "n2", Type: model.NotifyPromotion, Message: "sale"},
		)
		return nil
	})
	require.NoError(t, err)

	u, err = s.MarkNotificationRead(ctx, reg.ID, "n1")
	require.NoError(t, err)
	assert.True(t, u.Notifications[0].Read)
	assert.False(t, u.Notifications[1].Read)

	_, err = s.MarkNotificationRead(ctx, reg.ID, "nope")
	require.ErrorIs(t, err, writing.ErrNotFound)

	u, err = s.MarkAllNotificationsRead(ctx, reg.ID)
	require.NoError(t, err)
	for _, n := range u.Notifications {
		assert.True(t, n.Read)
	}
}

func ptr[T any](v T) *T { return &v }
