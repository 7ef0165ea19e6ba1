// Package streak implements the consecutive-login-day counter.
package streak

import "time"

const dateLayout = "2006-01-02"

// Day returns t's calendar date in its own location as midnight UTC, the form
// stored in users.last_login_date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Next returns the streak after a login on today, and whether anything changed.
//
// A login on the same calendar day as lastLogin is a no-op. A login exactly one
// day after lastLogin extends the streak. Anything else, including a first
// login, starts over at 1.
func Next(count int, lastLogin *time.Time, today time.Time) (int, bool) {
	day := Day(today)

	if lastLogin != nil {
		last := Day(*lastLogin)
		switch {
		case last.Format(dateLayout) == day.Format(dateLayout):
			return count, false
		case last.AddDate(0, 0, 1).Format(dateLayout) == day.Format(dateLayout):
			return count + 1, true
		}
	}

	return 1, true
}
