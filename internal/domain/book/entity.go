// Package book models a reading resource: page progress, status and the
// history of reading sessions.
package book

import (
	"strings"
	"time"

	"github.com/valoron/valoron/internal/domain/shared"
)

// Status is the reading state of a book.
type Status string

const (
	StatusToRead    Status = "to_read"
	StatusReading   Status = "reading"
	StatusFinished  Status = "finished"
	StatusAbandoned Status = "abandoned"
)

// IsValid checks if the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusToRead, StatusReading, StatusFinished, StatusAbandoned:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusFinished || s == StatusAbandoned
}

// Book is a reading resource owned by one user.
//
// Invariants: 0 <= currentPage <= totalPages, and status is Finished iff
// currentPage == totalPages.
type Book struct {
	shared.AggregateRoot

	userID      shared.ID
	title       string
	author      string
	totalPages  int
	currentPage int
	status      Status
	sessions    []ReadingSession
	createdAt   time.Time
}

// NewBookParams contains parameters for creating a new Book.
type NewBookParams struct {
	ID         shared.ID
	UserID     shared.ID
	Title      string
	Author     string
	TotalPages int
	CreatedAt  time.Time
}

// NewBook creates an unread book and records CreatedEvent.
func NewBook(params NewBookParams) (*Book, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, shared.InvalidArgument("book", "Create", "title cannot be empty")
	}
	author := strings.TrimSpace(params.Author)
	if author == "" {
		return nil, shared.InvalidArgument("book", "Create", "author cannot be empty")
	}
	if params.TotalPages <= 0 {
		return nil, shared.InvalidArgument("book", "Create", "total pages must be greater than 0")
	}

	b := &Book{
		AggregateRoot: shared.NewAggregateRoot(params.ID),
		userID:        params.UserID,
		title:         title,
		author:        author,
		totalPages:    params.TotalPages,
		status:        StatusToRead,
		createdAt:     params.CreatedAt,
	}
	b.Record(NewCreatedEvent(b))
	return b, nil
}

// RestoreParams carries persisted state back into a Book.
type RestoreParams struct {
	ID          shared.ID
	UserID      shared.ID
	Title       string
	Author      string
	TotalPages  int
	CurrentPage int
	Status      Status
	Sessions    []ReadingSession
	CreatedAt   time.Time
}

// Restore rebuilds a book from storage without recording events.
func Restore(p RestoreParams) *Book {
	sessions := make([]ReadingSession, len(p.Sessions))
	copy(sessions, p.Sessions)
	return &Book{
		AggregateRoot: shared.NewAggregateRoot(p.ID),
		userID:        p.UserID,
		title:         p.Title,
		author:        p.Author,
		totalPages:    p.TotalPages,
		currentPage:   p.CurrentPage,
		status:        p.Status,
		sessions:      sessions,
		createdAt:     p.CreatedAt,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Getters
// ═══════════════════════════════════════════════════════════════════════════

// UserID returns the owner.
func (b *Book) UserID() shared.ID { return b.userID }

// Title returns the title.
func (b *Book) Title() string { return b.title }

// Author returns the author.
func (b *Book) Author() string { return b.author }

// TotalPages returns the page count.
func (b *Book) TotalPages() int { return b.totalPages }

// CurrentPage returns the last page read.
func (b *Book) CurrentPage() int { return b.currentPage }

// Status returns the reading state.
func (b *Book) Status() Status { return b.status }

// CreatedAt returns when the book was added.
func (b *Book) CreatedAt() time.Time { return b.createdAt }

// IsOwnedBy reports whether u owns the book.
func (b *Book) IsOwnedBy(u shared.ID) bool { return b.userID == u }

// Sessions returns the reading history in the order it was recorded.
func (b *Book) Sessions() []ReadingSession {
	out := make([]ReadingSession, len(b.sessions))
	copy(out, b.sessions)
	return out
}

// Equals compares identity. Transient books are never equal.
func (b *Book) Equals(other *Book) bool {
	if b == nil || other == nil {
		return false
	}
	return b.SameIdentity(other.Entity)
}

// AverageReadingSpeed returns pages per hour over all timed sessions, or nil
// when there is no timing data.
func (b *Book) AverageReadingSpeed() *float64 {
	var pages int
	var spent time.Duration
	for _, s := range b.sessions {
		pages += s.pagesRead
		spent += s.duration
	}
	hours := spent.Hours()
	if len(b.sessions) == 0 || hours <= 0 {
		return nil
	}
	speed := float64(pages) / hours
	if speed <= 0 {
		return nil
	}
	return &speed
}

// EstimatedTimeRemaining projects the time left at the average speed, or nil
// when the speed is unknown.
func (b *Book) EstimatedTimeRemaining() *time.Duration {
	speed := b.AverageReadingSpeed()
	if speed == nil {
		return nil
	}
	left := float64(b.totalPages-b.currentPage) / *speed
	d := time.Duration(left * float64(time.Hour))
	return &d
}

// ═══════════════════════════════════════════════════════════════════════════
// Behaviour
// ═══════════════════════════════════════════════════════════════════════════

// ReadOption adds optional detail to AddPagesRead.
type ReadOption func(*readOptions)

type readOptions struct {
	withSession bool
	date        time.Time
	duration    time.Duration
}

// WithSession records a ReadingSession for the pages. A zero date means now.
func WithSession(date time.Time, duration time.Duration) ReadOption {
	return func(o *readOptions) {
		o.withSession = true
		o.date = date
		o.duration = duration
	}
}

// StartReading moves a ToRead book to Reading.
func (b *Book) StartReading(now time.Time) error {
	if b.status.IsTerminal() {
		return shared.InvalidOperation("book", "StartReading", "book is already %s", b.status)
	}
	if b.status == StatusReading {
		return nil
	}
	b.status = StatusReading
	b.Record(NewStartedEvent(b, now))
	return nil
}

// AddPagesRead advances the current page. Reaching the last page finishes
// the book.
func (b *Book) AddPagesRead(pages int, now time.Time, opts ...ReadOption) error {
	if pages <= 0 {
		return shared.InvalidArgument("book", "AddPagesRead", "pages read must be greater than 0")
	}
	if b.status.IsTerminal() {
		return shared.InvalidOperation("book", "AddPagesRead", "book is already %s", b.status)
	}

	var o readOptions
	for _, opt := range opts {
		opt(&o)
	}
	var session ReadingSession
	if o.withSession {
		date := o.date
		if date.IsZero() {
			date = now
		}
		s, err := NewReadingSession(date, o.duration, pages)
		if err != nil {
			return err
		}
		session = s
	}

	if b.status == StatusToRead {
		if err := b.StartReading(now); err != nil {
			return err
		}
	}

	b.currentPage += pages
	if o.withSession {
		b.sessions = append(b.sessions, session)
	}
	if b.currentPage >= b.totalPages {
		b.finish(now)
	}
	return nil
}

// Finish marks the book as read to the last page.
func (b *Book) Finish(now time.Time) error {
	if b.status.IsTerminal() {
		return shared.InvalidOperation("book", "Finish", "book is already %s", b.status)
	}
	b.finish(now)
	return nil
}

func (b *Book) finish(now time.Time) {
	b.currentPage = b.totalPages
	b.status = StatusFinished
	b.Record(NewFinishedEvent(b, now))
}

// Abandon stops reading a book that is not finished.
func (b *Book) Abandon(now time.Time) error {
	if b.status.IsTerminal() {
		return shared.InvalidOperation("book", "Abandon", "book is already %s", b.status)
	}
	b.status = StatusAbandoned
	b.Record(NewAbandonedEvent(b, now))
	return nil
}
