// Package achievement unlocks named writing milestones.
package achievement

import (
	"fmt"
	"slices"
	"time"

	"inkwell/internal/model"

	"github.com/google/uuid"
)

// Stats carries counts that live outside the user record. They must be read
// after the triggering mutation has been committed.
type Stats struct {
	ProjectCount  int64
	DocumentCount int64
	// TodayGoalAchieved is today's ledger verdict, if any.
	TodayGoalAchieved bool
}

type Definition struct {
	ID          string
	Name        string
	Description string
	// Icon is an opaque name resolved by the client.
	Icon  string
	Check func(u *model.User, s Stats) bool
}

func wordsAtLeast(n int) func(*model.User, Stats) bool {
	return func(u *model.User, _ Stats) bool { return u.TotalWordsWritten >= n }
}

// Table is evaluated in order; unlock order follows it.
var Table = []Definition{
	{
		ID:          "first_project",
		Name:        "First Project Created",
		Description: "You've taken the first step!",
		Icon:        "RocketLaunchIcon",
		Check:       func(_ *model.User, s Stats) bool { return s.ProjectCount >= 1 },
	},
	{
		ID:          "first_document",
		Name:        "First Document",
		Description: "A blank page, conquered.",
		Icon:        "DocumentTextIcon",
		Check:       func(_ *model.User, s Stats) bool { return s.DocumentCount >= 1 },
	},
	{
		ID:          "1000_words",
		Name:        "1,000 Words",
		Description: "Your first thousand words.",
		Icon:        "PencilIcon",
		Check:       wordsAtLeast(1000),
	},
	{
		ID:          "10k_words",
		Name:        "10,000 Words Milestone",
		Description: "A significant writing milestone achieved.",
		Icon:        "ScaleIcon",
		Check:       wordsAtLeast(10_000),
	},
	{
		ID:          "50k_words",
		Name:        "Novel Length",
		Description: "50,000 words written.",
		Icon:        "BookOpenIcon",
		Check:       wordsAtLeast(50_000),
	},
	{
		ID:          "goal_crusher",
		Name:        "Goal Crusher",
		Description: "Hit your daily word goal.",
		Icon:        "TrophyIcon",
		Check: func(u *model.User, s Stats) bool {
			return u.DailyWordGoal > 0 && s.TodayGoalAchieved
		},
	},
	{
		ID:          "streak_7",
		Name:        "Week-Long Streak",
		Description: "Met your goal seven days running.",
		Icon:        "FireIcon",
		Check:       func(u *model.User, _ Stats) bool { return u.WritingStreak >= 7 },
	},
}

// Lookup finds a definition by id.
func Lookup(id string) (Definition, bool) {
	i := slices.IndexFunc(Table, func(d Definition) bool { return d.ID == id })
	if i < 0 {
		return Definition{}, false
	}
	return Table[i], true
}

func has(u *model.User, id string) bool {
	return slices.ContainsFunc(u.Achievements, func(a model.Achievement) bool { return a.ID == id })
}

// Evaluate appends every newly satisfied achievement to u, with a matching
// notification, and returns the ones it added. Already-held ids are skipped,
// so repeated calls with the same state are no-ops.
func Evaluate(u *model.User, s Stats, now time.Time) []model.Achievement {
	var unlocked []model.Achievement
	for _, def := range Table {
		if has(u, def.ID) || !def.Check(u, s) {
			continue
		}
		a := model.Achievement{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			Icon:        def.Icon,
			UnlockedAt:  now,
		}
		u.Achievements = append(u.Achievements, a)
		u.Notifications = append(u.Notifications, model.Notification{
			ID:        uuid.NewString(),
			Type:      model.NotifyAchievement,
			Message:   fmt.Sprintf("Achievement unlocked: %s", def.Name),
			Timestamp: now,
		})
		unlocked = append(unlocked, a)
	}
	return unlocked
}

// Status is a definition as seen by one user.
type Status struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlockedAt,omitempty"`
}

func statusOf(u *model.User, def Definition) Status {
	st := Status{ID: def.ID, Name: def.Name, Description: def.Description, Icon: def.Icon}
	i := slices.IndexFunc(u.Achievements, func(a model.Achievement) bool { return a.ID == def.ID })
	if i >= 0 {
		t := u.Achievements[i].UnlockedAt
		st.Unlocked = true
		st.UnlockedAt = &t
	}
	return st
}

// Catalog lists every definition in table order with u's progress.
func Catalog(u *model.User) []Status {
	out := make([]Status, 0, len(Table))
	for _, def := range Table {
		out = append(out, statusOf(u, def))
	}
	return out
}

// StatusOf reports u's progress on one achievement. ok is false for an
// unknown id.
func StatusOf(u *model.User, id string) (st Status, ok bool) {
	def, ok := Lookup(id)
	if !ok {
		return Status{}, false
	}
	return statusOf(u, def), true
}
