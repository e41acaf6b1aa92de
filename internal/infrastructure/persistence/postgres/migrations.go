package postgres

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_activities",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_books",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_players",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE ACTIVITIES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS activities (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL,
    title TEXT NOT NULL,
    category_code VARCHAR(8) NOT NULL,
    difficulty SMALLINT NOT NULL,
    unit VARCHAR(16) NOT NULL,
    target DOUBLE PRECISION NOT NULL,
    current DOUBLE PRECISION NOT NULL DEFAULT 0,
    resource_id UUID,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL,
    completed_at TIMESTAMP WITH TIME ZONE,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_difficulty CHECK (difficulty BETWEEN 1 AND 10),
    CONSTRAINT valid_unit CHECK (unit IN ('none', 'minutes', 'pages', 'count', 'kilometers')),
    CONSTRAINT valid_target CHECK (target > 0),
    CONSTRAINT valid_current CHECK (current >= 0)
);

CREATE INDEX IF NOT EXISTS idx_activities_user_created ON activities(user_id, created_at DESC);
CREATE UNIQUE INDEX IF NOT EXISTS idx_activities_resource ON activities(resource_id) WHERE resource_id IS NOT NULL;
`

const migration001Down = `
DROP TABLE IF EXISTS activities;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE BOOKS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS books (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL,
    title TEXT NOT NULL,
    author TEXT NOT NULL,
    total_pages INTEGER NOT NULL,
    current_page INTEGER NOT NULL DEFAULT 0,
    status VARCHAR(16) NOT NULL DEFAULT 'to_read',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_total_pages CHECK (total_pages > 0),
    CONSTRAINT valid_current_page CHECK (current_page >= 0 AND current_page <= total_pages),
    CONSTRAINT valid_book_status CHECK (status IN ('to_read', 'reading', 'finished', 'abandoned'))
);

CREATE INDEX IF NOT EXISTS idx_books_user_created ON books(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS reading_sessions (
    book_id UUID NOT NULL REFERENCES books(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    session_date TIMESTAMP WITH TIME ZONE NOT NULL,
    duration_ms BIGINT NOT NULL DEFAULT 0,
    pages_read INTEGER NOT NULL,

    PRIMARY KEY (book_id, seq),
    CONSTRAINT valid_pages_read CHECK (pages_read > 0)
);
`

const migration002Down = `
DROP TABLE IF EXISTS reading_sessions;
DROP TABLE IF EXISTS books;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE PLAYERS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS players (
    id UUID PRIMARY KEY,
    xp INTEGER NOT NULL DEFAULT 0,
    level INTEGER NOT NULL DEFAULT 1,
    stats JSONB NOT NULL DEFAULT '{"strength": 1, "intellect": 1, "stamina": 1}'::jsonb,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_xp CHECK (xp >= 0),
    CONSTRAINT valid_level CHECK (level >= 1)
);
`

const migration003Down = `
DROP TABLE IF EXISTS players;
`
