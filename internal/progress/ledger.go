// Package progress maintains a user's per-day word-count ledger.
//
// All functions operate on a *model.User in memory; persisting the result is
// the caller's job. Re-running EnsureTodayEntry or ApplyWordDelta(0) is always
// safe.
package progress

import (
	"slices"
	"time"

	"inkwell/internal/model"
)

func find(u *model.User, day time.Time, loc *time.Location) int {
	return slices.IndexFunc(u.WordCountHistory, func(e model.LedgerEntry) bool {
		return SameDay(e.Date, day, loc)
	})
}

// EnsureTodayEntry returns the index of today's entry, appending an empty one
// if none exists. created reports whether an entry was appended.
func EnsureTodayEntry(u *model.User, c Clock) (idx int, created bool) {
	today := Today(c)
	if i := find(u, today, c.Location()); i >= 0 {
		return i, false
	}
	u.WordCountHistory = append(u.WordCountHistory, model.LedgerEntry{
		Date:         today,
		Words:        0,
		GoalAchieved: false,
	})
	return len(u.WordCountHistory) - 1, true
}

// ApplyWordDelta moves today's words and the lifetime total by delta, each
// floored at 0. Excess negative delta is absorbed silently.
func ApplyWordDelta(u *model.User, delta int, c Clock) {
	i, _ := EnsureTodayEntry(u, c)
	e := &u.WordCountHistory[i]
	e.Words = max(0, e.Words+delta)
	e.GoalAchieved = e.Words >= u.DailyWordGoal
	u.TotalWordsWritten = max(0, u.TotalWordsWritten+delta)
	u.WritingStreak = Streak(u.WordCountHistory, c)
}

// SetWordsToday overwrites today's count. The lifetime total is untouched.
func SetWordsToday(u *model.User, words int, c Clock) {
	i, _ := EnsureTodayEntry(u, c)
	e := &u.WordCountHistory[i]
	e.Words = max(0, words)
	e.GoalAchieved = e.Words >= u.DailyWordGoal
	u.WritingStreak = Streak(u.WordCountHistory, c)
}

// SetDailyGoal changes the goal and re-evaluates today's entry against it.
// Past days keep the verdict they had.
func SetDailyGoal(u *model.User, goal int, c Clock) {
	u.DailyWordGoal = max(0, goal)
	if i := find(u, Today(c), c.Location()); i >= 0 {
		e := &u.WordCountHistory[i]
		e.GoalAchieved = e.Words >= u.DailyWordGoal
	}
	u.WritingStreak = Streak(u.WordCountHistory, c)
}

// TodayEntry returns today's entry if present.
func TodayEntry(u *model.User, c Clock) (model.LedgerEntry, bool) {
	if i := find(u, Today(c), c.Location()); i >= 0 {
		return u.WordCountHistory[i], true
	}
	return model.LedgerEntry{}, false
}

// Streak counts consecutive goal-achieved days ending today. If today's goal
// is not met yet the run may end yesterday instead.
func Streak(history []model.LedgerEntry, c Clock) int {
	loc := c.Location()
	achieved := make(map[string]bool, len(history))
	for _, e := range history {
		if e.GoalAchieved {
			achieved[dayKey(e.Date, loc)] = true
		}
	}

	day := Today(c)
	if !achieved[dayKey(day, loc)] {
		day = day.AddDate(0, 0, -1)
	}
	n := 0
	for achieved[dayKey(day, loc)] {
		n++
		day = day.AddDate(0, 0, -1)
	}
	return n
}

func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(time.DateOnly)
}
