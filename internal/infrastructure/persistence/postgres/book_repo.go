package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/valoron/valoron/internal/domain/book"
	"github.com/valoron/valoron/internal/domain/shared"
)

// BookRepository implements book.Repository for PostgreSQL.
// A book and its reading sessions are written in one transaction.
type BookRepository struct {
	conn *Connection
}

// NewBookRepository creates a new BookRepository.
func NewBookRepository(conn *Connection) *BookRepository {
	return &BookRepository{conn: conn}
}

const bookColumns = `id, user_id, title, author, total_pages, current_page, status, created_at`

// Load returns the book or (nil, nil) when it does not exist.
func (r *BookRepository) Load(ctx context.Context, id shared.ID) (*book.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	p, err := scanBook(r.conn.QueryRow(ctx, query, id))
	if IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sessions, err := r.loadSessions(ctx, []shared.ID{p.ID})
	if err != nil {
		return nil, err
	}
	p.Sessions = sessions[p.ID]

	return book.Restore(*p), nil
}

// ListByUser returns the user's books, newest first.
func (r *BookRepository) ListByUser(ctx context.Context, userID shared.ID) ([]*book.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	var params []*book.RestoreParams
	for rows.Next() {
		p, err := scanBook(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		params = append(params, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(params) == 0 {
		return nil, nil
	}

	ids := make([]shared.ID, len(params))
	for i, p := range params {
		ids[i] = p.ID
	}
	sessions, err := r.loadSessions(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*book.Book, len(params))
	for i, p := range params {
		p.Sessions = sessions[p.ID]
		out[i] = book.Restore(*p)
	}

	return out, nil
}

// Save upserts the book and replaces its reading sessions.
func (r *BookRepository) Save(ctx context.Context, b *book.Book) error {
	upsert := `
		INSERT INTO books (
			id, user_id, title, author, total_pages, current_page, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT(id) DO UPDATE SET
			title = EXCLUDED.title,
			author = EXCLUDED.author,
			current_page = EXCLUDED.current_page,
			status = EXCLUDED.status,
			updated_at = NOW()
	`

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, upsert,
			b.ID(),
			b.UserID(),
			b.Title(),
			b.Author(),
			b.TotalPages(),
			b.CurrentPage(),
			string(b.Status()),
			b.CreatedAt(),
		)
		if err != nil {
			return fmt.Errorf("failed to save book: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM reading_sessions WHERE book_id = $1`, b.ID()); err != nil {
			return fmt.Errorf("failed to clear reading sessions: %w", err)
		}

		sessions := b.Sessions()
		if len(sessions) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for i, s := range sessions {
			batch.Queue(`
				INSERT INTO reading_sessions (book_id, seq, session_date, duration_ms, pages_read)
				VALUES ($1, $2, $3, $4, $5)
			`, sessionArgs(b.ID(), i, s)...)
		}

		br := tx.SendBatch(ctx, batch)
		for range sessions {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("failed to save reading session: %w", err)
			}
		}
		return br.Close()
	})
}

func (r *BookRepository) loadSessions(ctx context.Context, bookIDs []shared.ID) (map[shared.ID][]book.ReadingSession, error) {
	ids := make([]string, len(bookIDs))
	for i, id := range bookIDs {
		ids[i] = id.String()
	}

	rows, err := r.conn.Query(ctx, `
		SELECT book_id, session_date, duration_ms, pages_read
		FROM reading_sessions
		WHERE book_id = ANY($1::uuid[])
		ORDER BY book_id, seq
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query reading sessions: %w", err)
	}
	defer rows.Close()

	out := make(map[shared.ID][]book.ReadingSession)
	for rows.Next() {
		var (
			bookID  shared.ID
			date    time.Time
			millis  int64
			pages   int
		)
		if err := rows.Scan(&bookID, &date, &millis, &pages); err != nil {
			return nil, fmt.Errorf("failed to scan reading session: %w", err)
		}

		s, err := sessionFromRow(date, millis, pages)
		if err != nil {
			return nil, err
		}
		out[bookID] = append(out[bookID], s)
	}

	return out, rows.Err()
}

// Session durations are stored in milliseconds.
func sessionArgs(bookID shared.ID, seq int, s book.ReadingSession) []any {
	return []any{bookID, seq, s.Date(), s.Duration().Milliseconds(), s.PagesRead()}
}

func sessionFromRow(date time.Time, millis int64, pages int) (book.ReadingSession, error) {
	return book.NewReadingSession(date.UTC(), time.Duration(millis)*time.Millisecond, pages)
}

func scanBook(row pgx.Row) (*book.RestoreParams, error) {
	var (
		p      book.RestoreParams
		status string
	)

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Title,
		&p.Author,
		&p.TotalPages,
		&p.CurrentPage,
		&status,
		&p.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan book: %w", err)
	}

	p.Status = book.Status(status)
	if !p.Status.IsValid() {
		return nil, fmt.Errorf("book %s has unknown status %q", p.ID, status)
	}
	p.CreatedAt = p.CreatedAt.UTC()

	return &p, nil
}
