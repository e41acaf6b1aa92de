package book

import (
	"time"

	"github.com/valoron/valoron/internal/domain/shared"
)

// ReadingSession records one sitting: when, how long and how many pages.
type ReadingSession struct {
	date      time.Time
	duration  time.Duration
	pagesRead int
}

// NewReadingSession validates and builds a session.
func NewReadingSession(date time.Time, duration time.Duration, pagesRead int) (ReadingSession, error) {
	if duration < 0 {
		return ReadingSession{}, shared.InvalidArgument("book", "NewReadingSession", "duration cannot be negative")
	}
	if pagesRead <= 0 {
		return ReadingSession{}, shared.InvalidArgument("book", "NewReadingSession", "pages read must be greater than 0")
	}
	return ReadingSession{date: date, duration: duration, pagesRead: pagesRead}, nil
}

// Date returns when the session took place.
func (s ReadingSession) Date() time.Time { return s.date }

// Duration returns the time spent reading.
func (s ReadingSession) Duration() time.Duration { return s.duration }

// PagesRead returns the pages covered in the session.
func (s ReadingSession) PagesRead() int { return s.pagesRead }

// Equal compares two sessions component-wise.
func (s ReadingSession) Equal(o ReadingSession) bool {
	return s.date.Equal(o.date) && s.duration == o.duration && s.pagesRead == o.pagesRead
}
