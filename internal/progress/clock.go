package progress

import "time"

// Clock supplies the current time and the location whose midnight starts a
// new ledger day.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type systemClock struct {
	loc *time.Location
}

// SystemClock reads the wall clock; loc defaults to time.Local.
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return systemClock{loc: loc}
}

func (c systemClock) Now() time.Time           { return time.Now().In(c.loc) }
func (c systemClock) Location() *time.Location { return c.loc }

// FixedClock always reports the same instant. Set moves it.
type FixedClock struct {
	T   time.Time
	Loc *time.Location
}

func (c *FixedClock) Now() time.Time { return c.T.In(c.Location()) }

func (c *FixedClock) Location() *time.Location {
	if c.Loc == nil {
		return time.UTC
	}
	return c.Loc
}

func (c *FixedClock) Set(t time.Time)          { c.T = t }
func (c *FixedClock) Advance(d time.Duration) { c.T = c.T.Add(d) }

// Day truncates t to midnight in loc.
func Day(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Today is Day(c.Now(), c.Location()).
func Today(c Clock) time.Time {
	return Day(c.Now(), c.Location())
}

// SameDay compares calendar days in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
