// Package account handles registration, sign-in and the signed-in user's
// own record: profile, ledger bootstrap and notifications.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"inkwell/internal/auth"
	"inkwell/internal/logging"
	"inkwell/internal/model"
	"inkwell/internal/progress"
	"inkwell/internal/store"
	"inkwell/internal/writing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
)

const minPasswordLen = 8

type Service struct {
	Store    store.Store
	Clock    progress.Clock
	Log      logging.Logger
	JWT      *auth.JWT
	Sessions *auth.Sessions
}

type Tokens struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type RegisterInput struct {
	Username string
	Email    string
	FullName string
	Password string
}

type ProfilePatch struct {
	FullName    *string
	Bio         *string
	Avatar      *string
	Preferences *PreferencesPatch
}

// PreferencesPatch changes only the preferences that are set.
type PreferencesPatch struct {
	Theme              *model.Theme
	EditorFont         *string
	KeyboardShortcuts  *bool
	NotificationEmails *bool
	WeeklyReports      *bool
}

const (
	maxBioLen        = 500
	maxAvatarLen     = 2048
	maxEditorFontLen = 64
)

func (p *PreferencesPatch) apply(prefs *model.Preferences) {
	if p.Theme != nil {
		prefs.Theme = *p.Theme
	}
	if p.EditorFont != nil {
		prefs.EditorFont = strings.TrimSpace(*p.EditorFont)
	}
	if p.KeyboardShortcuts != nil {
		prefs.KeyboardShortcuts = *p.KeyboardShortcuts
	}
	if p.NotificationEmails != nil {
		prefs.NotificationEmails = *p.NotificationEmails
	}
	if p.WeeklyReports != nil {
		prefs.WeeklyReports = *p.WeeklyReports
	}
}

func (p ProfilePatch) validate() error {
	if p.FullName != nil && strings.TrimSpace(*p.FullName) == "" {
		return invalid("fullName cannot be empty")
	}
	if p.Bio != nil && utf8.RuneCountInString(strings.TrimSpace(*p.Bio)) > maxBioLen {
		return invalid("bio exceeds %d characters", maxBioLen)
	}
	if p.Avatar != nil && len(strings.TrimSpace(*p.Avatar)) > maxAvatarLen {
		return invalid("avatar exceeds %d characters", maxAvatarLen)
	}
	if prefs := p.Preferences; prefs != nil {
		if prefs.Theme != nil && !prefs.Theme.Valid() {
			return invalid("theme must be %q or %q", model.ThemeDark, model.ThemeLight)
		}
		if prefs.EditorFont != nil {
			font := strings.TrimSpace(*prefs.EditorFont)
			if font == "" || utf8.RuneCountInString(font) > maxEditorFontLen {
				return invalid("editorFont must be 1 to %d characters", maxEditorFontLen)
			}
		}
	}
	return nil
}

var errNoChange = errors.New("no change")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", writing.ErrValidation, fmt.Sprintf(format, args...))
}

func notFound(kind, id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s %s: %w", writing.ErrNotFound, kind, id, err)
	}
	return fmt.Errorf("load %s %s: %w", kind, id, err)
}

func (s *Service) issue(ctx context.Context, userID string) (Tokens, error) {
	access, exp, err := s.JWT.Sign(userID)
	if err != nil {
		return Tokens{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.Sessions.Issue(ctx, userID)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp}, nil
}

// touch refreshes the per-day bookkeeping every sign-in path shares.
func (s *Service) touch(u *model.User) {
	progress.EnsureTodayEntry(u, s.Clock)
	u.WritingStreak = progress.Streak(u.WordCountHistory, s.Clock)
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, Tokens, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))
	fullName := strings.TrimSpace(in.FullName)
	if username == "" || email == "" || fullName == "" || in.Password == "" {
		return nil, Tokens{}, invalid("username, email, fullName and password are required")
	}
	if !strings.Contains(email, "@") {
		return nil, Tokens{}, invalid("invalid email %q", email)
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLen {
		return nil, Tokens{}, invalid("password must be at least %d characters", minPasswordLen)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, Tokens{}, fmt.Errorf("hash password: %w", err)
	}
	now := s.Clock.Now()
	u := &model.User{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         email,
		FullName:      fullName,
		PasswordHash:  hash,
		DailyWordGoal: model.DefaultDailyWordGoal,
		LastActive:    now,
		LastLogin:     &now,
		Preferences:   datatypes.NewJSONType(model.DefaultPreferences()),
		Subscription:  datatypes.NewJSONType(model.FreeSubscription()),
	}
	progress.EnsureTodayEntry(u, s.Clock)

	if err := s.Store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, Tokens{}, fmt.Errorf("%w: username or email already registered", writing.ErrConflict)
		}
		return nil, Tokens{}, fmt.Errorf("%w: user: %w", writing.ErrPrimaryWrite, err)
	}
	s.Log.Info(ctx, "user registered", "user_id", u.ID)

	tokens, err := s.issue(ctx, u.ID)
	if err != nil {
		return nil, Tokens{}, err
	}
	return u, tokens, nil
}

// Login accepts a username or an email.
func (s *Service) Login(ctx context.Context, login, password string) (*model.User, Tokens, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, Tokens{}, invalid("login and password are required")
	}
	u, err := s.Store.FindUser(ctx, store.UserQuery{Login: login})
	if err != nil {
		return nil, Tokens{}, notFound("user", login, err)
	}
	if !auth.ComparePassword(u.PasswordHash, password) {
		return nil, Tokens{}, ErrInvalidCredentials
	}

	u, err = s.Store.MutateUser(ctx, u.ID, func(u *model.User) error {
		now := s.Clock.Now()
		u.LastLogin = &now
		u.LastActive = now
		s.touch(u)
		return nil
	})
	if err != nil {
		return nil, Tokens{}, notFound("user", login, err)
	}

	tokens, err := s.issue(ctx, u.ID)
	if err != nil {
		return nil, Tokens{}, err
	}
	return u, tokens, nil
}

// Refresh trades a refresh token for a new token pair. The old refresh
// token stops working.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	if refreshToken == "" {
		return Tokens{}, ErrUnauthorized
	}
	userID, next, err := s.Sessions.Rotate(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) {
			return Tokens{}, ErrUnauthorized
		}
		return Tokens{}, err
	}
	access, exp, err := s.JWT.Sign(userID)
	if err != nil {
		return Tokens{}, fmt.Errorf("sign access token: %w", err)
	}
	return Tokens{AccessToken: access, RefreshToken: next, ExpiresAt: exp}, nil
}

// Logout revokes refreshToken when it belongs to userID. A token that is
// already gone is not an error; someone else's token is ErrUnauthorized.
func (s *Service) Logout(ctx context.Context, userID, refreshToken string) error {
	if refreshToken != "" {
		owner, err := s.Sessions.Lookup(ctx, refreshToken)
		switch {
		case errors.Is(err, auth.ErrSessionNotFound):
		case err != nil:
			return err
		case owner != userID:
			return ErrUnauthorized
		default:
			if err := s.Sessions.Revoke(ctx, refreshToken); err != nil {
				return err
			}
		}
	}
	_, err := s.Store.MutateUser(ctx, userID, func(u *model.User) error {
		u.LastActive = s.Clock.Now()
		return nil
	})
	if err != nil {
		s.Log.Warn(ctx, "logout: stamp last active", "user_id", userID, "err", err)
	}
	return nil
}

// Me returns the user, creating today's ledger entry on the first visit of
// the day.
func (s *Service) Me(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.Store.MutateUser(ctx, userID, func(u *model.User) error {
		if _, created := progress.EnsureTodayEntry(u, s.Clock); !created {
			return errNoChange
		}
		u.WritingStreak = progress.Streak(u.WordCountHistory, s.Clock)
		return nil
	})
	if errors.Is(err, errNoChange) {
		u, err = s.Store.GetUser(ctx, userID)
	}
	if err != nil {
		return nil, notFound("user", userID, err)
	}
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (*model.User, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}
	u, err := s.Store.MutateUser(ctx, userID, func(u *model.User) error {
		if patch.FullName != nil {
			u.FullName = strings.TrimSpace(*patch.FullName)
		}
		if patch.Bio != nil {
			u.Bio = strings.TrimSpace(*patch.Bio)
		}
		if patch.Avatar != nil {
			u.Avatar = strings.TrimSpace(*patch.Avatar)
		}
		if patch.Preferences != nil {
			prefs := u.Preferences.Data()
			if prefs == (model.Preferences{}) {
				prefs = model.DefaultPreferences()
			}
			patch.Preferences.apply(&prefs)
			u.Preferences = datatypes.NewJSONType(prefs)
		}
		return nil
	})
	if err != nil {
		return nil, notFound("user", userID, err)
	}
	return u, nil
}

func (s *Service) MarkNotificationRead(ctx context.Context, userID, notificationID string) (*model.User, error) {
	u, err := s.Store.MutateUser(ctx, userID, func(u *model.User) error {
		for i := range u.Notifications {
			if u.Notifications[i].ID == notificationID {
				u.Notifications[i].Read = true
				return nil
			}
		}
		return fmt.Errorf("%w: notification %s", writing.ErrNotFound, notificationID)
	})
	if errors.Is(err, writing.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, notFound("user", userID, err)
	}
	return u, nil
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.Store.MutateUser(ctx, userID, func(u *model.User) error {
		for i := range u.Notifications {
			u.Notifications[i].Read = true
		}
		return nil
	})
	if err != nil {
		return nil, notFound("user", userID, err)
	}
	return u, nil
}
