package repository

// schema is applied in full on every open; all statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS submissions (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	public_id         TEXT    NOT NULL UNIQUE,
	submitter_id      TEXT    NOT NULL,
	submitter_name    TEXT    NOT NULL DEFAULT '',
	artist            TEXT    NOT NULL,
	song              TEXT    NOT NULL,
	content_ref       TEXT    NOT NULL DEFAULT '',
	tier              TEXT    NOT NULL,
	submitted_at      INTEGER NOT NULL,
	played_at         INTEGER,
	note              TEXT    NOT NULL DEFAULT '',
	engagement_handle TEXT    NOT NULL DEFAULT '',
	watch_score       REAL    NOT NULL DEFAULT 0,
	interaction_score REAL    NOT NULL DEFAULT 0,
	total_score       REAL    GENERATED ALWAYS AS (watch_score + interaction_score) STORED
);

CREATE INDEX IF NOT EXISTS idx_submissions_tier      ON submissions(tier);
CREATE INDEX IF NOT EXISTS idx_submissions_submitter ON submissions(submitter_id, tier);
CREATE INDEX IF NOT EXISTS idx_submissions_handle    ON submissions(engagement_handle);

CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT    PRIMARY KEY,
	host_handle TEXT    NOT NULL DEFAULT '',
	started_at  INTEGER NOT NULL,
	ended_at    INTEGER
);

CREATE TABLE IF NOT EXISTS identities (
	handle              TEXT    PRIMARY KEY,
	linked_submitter_id TEXT,
	lifetime_points     INTEGER NOT NULL DEFAULT 0,
	lifetime_coins      INTEGER NOT NULL DEFAULT 0,
	likes               INTEGER NOT NULL DEFAULT 0,
	comments            INTEGER NOT NULL DEFAULT 0,
	shares              INTEGER NOT NULL DEFAULT 0,
	follows             INTEGER NOT NULL DEFAULT 0,
	first_seen_at       INTEGER NOT NULL,
	last_seen_at        INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_identities_submitter
	ON identities(linked_submitter_id) WHERE linked_submitter_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS view_pointers (
	surface_key  TEXT    PRIMARY KEY,
	tier         TEXT    NOT NULL,
	channel_ref  TEXT    NOT NULL DEFAULT '',
	message_ref  TEXT    NOT NULL DEFAULT '',
	current_page INTEGER NOT NULL DEFAULT 0,
	has_controls INTEGER NOT NULL DEFAULT 0,
	updated_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`
