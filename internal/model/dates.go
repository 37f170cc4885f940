package model

import "time"

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func DatePtr(t time.Time) *time.Time {
	d := DateOnly(t)
	return &d
}

// AddMonthsClamped adds n calendar months. When the target month is shorter
// than the source day, the result is the last day of the target month.
func AddMonthsClamped(t time.Time, n int) time.Time {
	t = DateOnly(t)
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// AddYearsClamped adds n calendar years; Feb 29 maps to Feb 28 in non-leap years.
func AddYearsClamped(t time.Time, n int) time.Time {
	return AddMonthsClamped(t, 12*n)
}

// AgeAt returns the age in whole years on the given date. ok is false when
// the birth date is unknown.
func AgeAt(birth *time.Time, at time.Time) (age int, ok bool) {
	if birth == nil || birth.IsZero() {
		return 0, false
	}
	b := DateOnly(*birth)
	at = DateOnly(at)
	age = at.Year() - b.Year()
	if at.Month() < b.Month() || (at.Month() == b.Month() && at.Day() < b.Day()) {
		age--
	}
	return age, true
}

// IsUnder60 treats an unknown birth date as under 60.
func IsUnder60(birth *time.Time, at time.Time) bool {
	age, ok := AgeAt(birth, at)
	return !ok || age < 60
}

// Period is a closed date range; a nil End is open-ended.
type Period struct {
	Start time.Time
	End   *time.Time
}

func (p Period) Contains(t time.Time) bool {
	t = DateOnly(t)
	if t.Before(DateOnly(p.Start)) {
		return false
	}
	return p.End == nil || !t.After(DateOnly(*p.End))
}

// Intersect returns the overlap of p and o, or false when they are disjoint.
func (p Period) Intersect(o Period) (Period, bool) {
	start := DateOnly(p.Start)
	if s := DateOnly(o.Start); s.After(start) {
		start = s
	}
	end := EarlierEnd(p.End, o.End)
	if end != nil && end.Before(start) {
		return Period{}, false
	}
	return Period{Start: start, End: end}, true
}

// EarlierEnd picks the earlier of two optional end dates, nil meaning open.
func EarlierEnd(a, b *time.Time) *time.Time {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return DatePtr(*b)
	case b == nil:
		return DatePtr(*a)
	case b.Before(*a):
		return DatePtr(*b)
	default:
		return DatePtr(*a)
	}
}

// LaterEnd picks the later of two optional end dates, nil meaning open.
func LaterEnd(a, b *time.Time) *time.Time {
	if a == nil || b == nil {
		return nil
	}
	if b.After(*a) {
		return DatePtr(*b)
	}
	return DatePtr(*a)
}

// ExceedsMonths reports whether the inclusive range start..end lasts longer
// than n calendar months. An open end always exceeds.
func ExceedsMonths(start time.Time, end *time.Time, n int) bool {
	if end == nil {
		return true
	}
	dayAfter := DateOnly(*end).AddDate(0, 0, 1)
	return dayAfter.After(AddMonthsClamped(start, n))
}

func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// FormatJPDate renders a date the way printed documents show it.
func FormatJPDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "―"
	}
	return t.Format("2006年01月02日")
}
