package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/valoron/valoron/internal/domain/activity"
	"github.com/valoron/valoron/internal/domain/shared"
)

// ActivityRepository implements activity.Repository for PostgreSQL.
type ActivityRepository struct {
	conn *Connection
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(conn *Connection) *ActivityRepository {
	return &ActivityRepository{conn: conn}
}

const activityColumns = `
	id, user_id, title, category_code, difficulty, unit, target, current,
	resource_id, created_at, completed_at
`

// Load returns the activity or (nil, nil) when it does not exist.
func (r *ActivityRepository) Load(ctx context.Context, id shared.ID) (*activity.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id = $1`

	a, err := scanActivity(r.conn.QueryRow(ctx, query, id))
	if IsNoRows(err) {
		return nil, nil
	}
	return a, err
}

// FindByResource returns the activity linked to resourceID, or (nil, nil).
func (r *ActivityRepository) FindByResource(ctx context.Context, resourceID shared.ID) (*activity.Activity, error) {
	if resourceID == shared.NilID {
		return nil, nil
	}
	query := `SELECT ` + activityColumns + ` FROM activities WHERE resource_id = $1`

	a, err := scanActivity(r.conn.QueryRow(ctx, query, resourceID))
	if IsNoRows(err) {
		return nil, nil
	}
	return a, err
}

// ListByUser returns the user's activities, newest first.
func (r *ActivityRepository) ListByUser(ctx context.Context, userID shared.ID) ([]*activity.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var out []*activity.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}

	return out, rows.Err()
}

// Save upserts the activity.
func (r *ActivityRepository) Save(ctx context.Context, a *activity.Activity) error {
	query := `
		INSERT INTO activities (
			id, user_id, title, category_code, difficulty, unit, target, current,
			resource_id, created_at, completed_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT(id) DO UPDATE SET
			title = EXCLUDED.title,
			difficulty = EXCLUDED.difficulty,
			target = EXCLUDED.target,
			current = EXCLUDED.current,
			completed_at = EXCLUDED.completed_at,
			updated_at = NOW()
	`

	var resourceID *shared.ID
	if a.HasResource() {
		id := a.ResourceID()
		resourceID = &id
	}

	m := a.Measurement()
	_, err := r.conn.Exec(ctx, query,
		a.ID(),
		a.UserID(),
		a.Title(),
		a.Category().Code(),
		a.Difficulty().Value(),
		string(m.Unit()),
		m.Target(),
		m.Current(),
		resourceID,
		a.CreatedAt(),
		a.CompletedAt(),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("activity", "Save", shared.ErrConflict, "resource already linked to another activity", err)
		}
		return fmt.Errorf("failed to save activity: %w", err)
	}

	return nil
}

func scanActivity(row pgx.Row) (*activity.Activity, error) {
	var (
		p            activity.RestoreParams
		categoryCode string
		difficulty   int
		unit         string
		target       float64
		current      float64
		resourceID   *shared.ID
		completedAt  *time.Time
	)

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Title,
		&categoryCode,
		&difficulty,
		&unit,
		&target,
		&current,
		&resourceID,
		&p.CreatedAt,
		&completedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan activity: %w", err)
	}

	if p.Category, err = activity.CategoryFromCode(categoryCode); err != nil {
		return nil, err
	}
	if p.Difficulty, err = activity.NewDifficulty(difficulty); err != nil {
		return nil, err
	}
	u, err := activity.ParseUnit(unit)
	if err != nil {
		return nil, err
	}
	if p.Measurement, err = activity.NewMeasurement(u, target, current); err != nil {
		return nil, err
	}
	if resourceID != nil {
		p.ResourceID = *resourceID
	}
	if completedAt != nil {
		t := completedAt.UTC()
		p.CompletedAt = &t
	}
	p.CreatedAt = p.CreatedAt.UTC()

	return activity.Restore(p), nil
}
