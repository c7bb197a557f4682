package writing

import (
	"context"

	"inkwell/internal/model"
	"inkwell/internal/progress"
)

type GoalUpdate struct {
	DailyWordGoal *int
	// WordsToday overwrites today's ledger entry; the lifetime total is not
	// adjusted.
	WordsToday *int
}

// SetDailyGoalAndWords changes the user's goal and/or today's word count,
// then re-checks achievements.
func (c *Coordinator) SetDailyGoalAndWords(ctx context.Context, userID string, in GoalUpdate) (*model.User, error) {
	if err := checkID("user", userID); err != nil {
		return nil, err
	}
	if in.DailyWordGoal == nil && in.WordsToday == nil {
		return nil, invalid("dailyWordGoal or wordsToday is required")
	}
	if in.DailyWordGoal != nil && *in.DailyWordGoal < 0 {
		return nil, invalid("daily word goal cannot be negative")
	}
	if in.WordsToday != nil && *in.WordsToday < 0 {
		return nil, invalid("words today cannot be negative")
	}

	_, err := c.Store.MutateUser(ctx, userID, func(u *model.User) error {
		if in.DailyWordGoal != nil {
			progress.SetDailyGoal(u, *in.DailyWordGoal, c.Clock)
		}
		if in.WordsToday != nil {
			progress.SetWordsToday(u, *in.WordsToday, c.Clock)
		} else {
			progress.EnsureTodayEntry(u, c.Clock)
		}
		return nil
	})
	if err != nil {
		return nil, mutateErr("user", userID, err)
	}

	c.evaluate(ctx, userID)

	u, err := c.Store.GetUser(ctx, userID)
	if err != nil {
		return nil, lookupErr("user", userID, err)
	}
	return u, nil
}
