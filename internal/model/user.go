package model

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

// DefaultDailyWordGoal is applied to new accounts.
const DefaultDailyWordGoal = 500

type User struct {
	ID           string `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	FullName     string `gorm:"not null;default:''" json:"fullName"`
	PasswordHash string `gorm:"not null" json:"-"`
	Bio          string `gorm:"not null;default:''" json:"bio"`
	Avatar       string `gorm:"not null;default:''" json:"avatar"`

	Preferences  datatypes.JSONType[Preferences]  `gorm:"type:jsonb;not null;default:'{}'" json:"preferences"`
	Subscription datatypes.JSONType[Subscription] `gorm:"type:jsonb;not null;default:'{}'" json:"subscription"`

	DailyWordGoal     int `gorm:"not null;default:500" json:"dailyWordGoal"`
	TotalWordsWritten int `gorm:"not null;default:0" json:"totalWordsWritten"`
	WritingStreak     int `gorm:"not null;default:0" json:"writingStreak"`

	LastActive time.Time  `json:"lastActive"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`

	WordCountHistory datatypes.JSONSlice[LedgerEntry]  `gorm:"type:jsonb" json:"wordCountHistory"`
	Achievements     datatypes.JSONSlice[Achievement]  `gorm:"type:jsonb" json:"achievements"`
	Notifications    datatypes.JSONSlice[Notification] `gorm:"type:jsonb" json:"notifications"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

func (t Theme) Valid() bool { return t == ThemeDark || t == ThemeLight }

type Preferences struct {
	Theme              Theme  `json:"theme"`
	EditorFont         string `json:"editorFont"`
	KeyboardShortcuts  bool   `json:"keyboardShortcuts"`
	NotificationEmails bool   `json:"notificationEmails"`
	WeeklyReports      bool   `json:"weeklyReports"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Theme:              ThemeDark,
		EditorFont:         "Inter",
		KeyboardShortcuts:  true,
		NotificationEmails: true,
	}
}

type Plan string

const (
	PlanFree    Plan = "free"
	PlanPro     Plan = "pro"
	PlanPremium Plan = "premium"
)

// Unlimited is a limit that is never reached.
const Unlimited = -1

// Subscription carries plan limits. DocumentLimit is informational; only
// ProjectLimit is enforced.
type Subscription struct {
	Type          Plan `json:"type"`
	ProjectLimit  int  `json:"projectLimit"`
	DocumentLimit int  `json:"documentLimit"`
}

func FreeSubscription() Subscription {
	return Subscription{Type: PlanFree, ProjectLimit: 1, DocumentLimit: 5}
}

// AllowsProject reports whether an owner holding n projects may create one more.
func (s Subscription) AllowsProject(n int64) bool {
	return s.ProjectLimit == Unlimited || n < int64(s.ProjectLimit)
}

// Plan returns the user's subscription. Rows written before subscriptions
// existed hold the zero value and get the free plan.
func (u *User) Plan() Subscription {
	s := u.Subscription.Data()
	if s.Type == "" {
		return FreeSubscription()
	}
	return s
}

// LedgerEntry is one calendar day of writing. Date is midnight of that day
// in the configured location.
type LedgerEntry struct {
	Date         time.Time `json:"date"`
	Words        int       `json:"words"`
	GoalAchieved bool      `json:"goalAchieved"`
}

type Achievement struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	UnlockedAt  time.Time `json:"unlockedAt"`
}

type NotificationType string

const (
	NotifySystem        NotificationType = "system"
	NotifyCollaboration NotificationType = "collaboration"
	NotifyAchievement   NotificationType = "achievement"
	NotifyBilling       NotificationType = "billing"
	NotifyPromotion     NotificationType = "promotion"
)

type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Read      bool             `json:"read"`
}

// Clone returns a copy that shares no slices with u.
func (u User) Clone() User {
	u.WordCountHistory = slices.Clone(u.WordCountHistory)
	u.Achievements = slices.Clone(u.Achievements)
	u.Notifications = slices.Clone(u.Notifications)
	if u.LastLogin != nil {
		t := *u.LastLogin
		u.LastLogin = &t
	}
	return u
}
