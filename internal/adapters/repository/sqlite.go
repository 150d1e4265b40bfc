package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/abakedjoetato/luxqueue/internal/domain/model"
	"github.com/abakedjoetato/luxqueue/pkg/logger"
)

const (
	defaultBusyTimeout = 5 * time.Second

	// publicIDAttempts bounds the collision-retry loop; with six digits the
	// space is 900k ids, so hitting this means the queue is absurdly full.
	publicIDAttempts = 10
)

// SQLiteStore is the durable Store implementation. All write transactions
// open with an immediate lock (see the DSN), so mutations that read before
// writing, TakeNext above all, serialize against each other instead of both
// acting on stale reads.
type SQLiteStore struct {
	path        string
	busyTimeout time.Duration
	notify      ChangeNotifier
	log         logger.Logger

	db *sql.DB
}

// New opens (creating if needed) the database and applies the schema.
func New(opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{
		path:        ":memory:",
		busyTimeout: defaultBusyTimeout,
		notify:      func(...model.Tier) {},
		log:         logger.Get().Named("store"),
	}

	// Apply all options.
	for _, opt := range opts {
		opt(s)
	}

	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=%d&_foreign_keys=on",
		s.path, s.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if s.path == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	for _, stmt := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	s.db = db
	return s, nil
}

// Close releases the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// withTx runs fn inside one immediate-lock transaction, rolling back on any
// error.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.log.Error(ctx, "rollback failed", logger.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// --- Submissions ---

const submissionColumns = `id, public_id, submitter_id, submitter_name, artist, song, content_ref,
	tier, submitted_at, played_at, note, engagement_handle, watch_score, interaction_score, total_score`

// rowScanner lets scan helpers accept *sql.Row and *sql.Rows alike.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (model.Submission, error) {
	var (
		sub         model.Submission
		tier        string
		submittedAt int64
		playedAt    sql.NullInt64
	)
	err := row.Scan(
		&sub.ID, &sub.PublicID, &sub.SubmitterID, &sub.SubmitterName, &sub.Artist, &sub.Song, &sub.ContentRef,
		&tier, &submittedAt, &playedAt, &sub.Note, &sub.EngagementHandle,
		&sub.WatchScore, &sub.InteractionScore, &sub.TotalScore,
	)
	if err != nil {
		return model.Submission{}, err
	}
	sub.Tier = model.Tier(tier)
	sub.SubmittedAt = fromMillis(submittedAt)
	sub.PlayedAt = fromNullMillis(playedAt)
	return sub, nil
}

func collectSubmissions(rows *sql.Rows) ([]model.Submission, error) {
	defer func() { _ = rows.Close() }()
	out := []model.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return out, nil
}

// orderClause returns the ORDER BY expression for a tier's defined ordering.
func orderClause(tier model.Tier) string {
	switch tier {
	case model.TierStandard:
		return "total_score DESC, submitted_at ASC, id ASC"
	case model.TierArchived:
		return "played_at DESC, id DESC"
	default:
		return "submitted_at ASC, id ASC"
	}
}

// randomPublicID draws a uniform six-digit id in [100000, 999999].
func randomPublicID() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("draw public id: %w", err)
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
		se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func (s *SQLiteStore) CreateSubmission(ctx context.Context, in model.NewSubmission) (model.Submission, error) {
	now := time.Now().UTC()
	var created model.Submission
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var held int
		row := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM submissions WHERE submitter_id = ? AND tier = ?`,
			in.SubmitterID, string(model.TierStandard))
		if err := row.Scan(&held); err != nil {
			return fmt.Errorf("count active submissions: %w", err)
		}
		if held > 0 {
			return ErrDuplicateActiveSubmission
		}
		for attempt := 0; attempt < publicIDAttempts; attempt++ {
			publicID, err := randomPublicID()
			if err != nil {
				return err
			}
			res, err := tx.ExecContext(ctx, `INSERT INTO submissions
				(public_id, submitter_id, submitter_name, artist, song, content_ref, tier, submitted_at, note, engagement_handle)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				publicID, in.SubmitterID, in.SubmitterName, in.Artist, in.Song, in.ContentRef,
				string(model.TierStandard), toMillis(now), in.Note, in.EngagementHandle)
			if err != nil {
				if isUniqueViolation(err) {
					continue
				}
				return fmt.Errorf("insert submission: %w", err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("last insert id: %w", err)
			}
			created = model.Submission{
				ID:               id,
				PublicID:         publicID,
				SubmitterID:      in.SubmitterID,
				SubmitterName:    in.SubmitterName,
				Artist:           in.Artist,
				Song:             in.Song,
				ContentRef:       in.ContentRef,
				Tier:             model.TierStandard,
				SubmittedAt:      now,
				Note:             in.Note,
				EngagementHandle: in.EngagementHandle,
			}
			return nil
		}
		return fmt.Errorf("exhausted %d public id draws", publicIDAttempts)
	})
	if err != nil {
		return model.Submission{}, err
	}
	s.notify(model.TierStandard)
	return created, nil
}

func (s *SQLiteStore) MoveSubmission(ctx context.Context, publicID string, target model.Tier) (model.Tier, error) {
	now := time.Now().UTC()
	var (
		prior model.Tier
		moved bool
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var cur string
		row := tx.QueryRowContext(ctx, `SELECT tier FROM submissions WHERE public_id = ?`, publicID)
		if err := row.Scan(&cur); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("load tier: %w", err)
		}
		prior = model.Tier(cur)
		if prior == target {
			// Idempotent short-circuit: no timestamp reset, no signal.
			return nil
		}
		if target == model.TierArchived {
			if _, err := tx.ExecContext(ctx,
				`UPDATE submissions SET tier = ?, submitted_at = ?, played_at = ? WHERE public_id = ?`,
				string(target), toMillis(now), toMillis(now), publicID); err != nil {
				return fmt.Errorf("archive submission: %w", err)
			}
		} else {
			if _, err := tx.ExecContext(ctx,
				`UPDATE submissions SET tier = ?, submitted_at = ? WHERE public_id = ?`,
				string(target), toMillis(now), publicID); err != nil {
				return fmt.Errorf("move submission: %w", err)
			}
		}
		moved = true
		return nil
	})
	if err != nil {
		return "", err
	}
	if moved {
		s.notify(prior, target)
	}
	return prior, nil
}

func (s *SQLiteStore) RemoveSubmission(ctx context.Context, publicID string) (model.Tier, error) {
	var prior model.Tier
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var cur string
		row := tx.QueryRowContext(ctx, `SELECT tier FROM submissions WHERE public_id = ?`, publicID)
		if err := row.Scan(&cur); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("load tier: %w", err)
		}
		prior = model.Tier(cur)
		if _, err := tx.ExecContext(ctx, `DELETE FROM submissions WHERE public_id = ?`, publicID); err != nil {
			return fmt.Errorf("delete submission: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	s.notify(prior)
	return prior, nil
}

func (s *SQLiteStore) ClearTier(ctx context.Context, tier model.Tier) (int, error) {
	var count int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM submissions WHERE tier = ?`, string(tier))
		if err != nil {
			return fmt.Errorf("clear tier: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		count = int(n)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.notify(tier)
	}
	return count, nil
}

func (s *SQLiteStore) Submission(ctx context.Context, publicID string) (model.Submission, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE public_id = ?`, publicID)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Submission{}, ErrNotFound
	}
	if err != nil {
		return model.Submission{}, fmt.Errorf("load submission: %w", err)
	}
	return sub, nil
}

func (s *SQLiteStore) Submissions(ctx context.Context, tier model.Tier) ([]model.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE tier = ? ORDER BY `+orderClause(tier),
		string(tier))
	if err != nil {
		return nil, fmt.Errorf("query tier %s: %w", tier, err)
	}
	return collectSubmissions(rows)
}

func (s *SQLiteStore) SubmissionsPage(ctx context.Context, tier model.Tier, page, size int) (model.Page, error) {
	if page < 0 || size < 1 {
		return model.Page{}, ErrInvalidPage
	}
	var total int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions WHERE tier = ?`, string(tier))
	if err := row.Scan(&total); err != nil {
		return model.Page{}, fmt.Errorf("count tier %s: %w", tier, err)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE tier = ? ORDER BY `+orderClause(tier)+` LIMIT ? OFFSET ?`,
		string(tier), size, page*size)
	if err != nil {
		return model.Page{}, fmt.Errorf("query tier %s page %d: %w", tier, page, err)
	}
	items, err := collectSubmissions(rows)
	if err != nil {
		return model.Page{}, err
	}
	return model.Page{Items: items, Tier: tier, Page: page, Size: size, Total: total}, nil
}

func (s *SQLiteStore) SubmissionsForSubmitter(ctx context.Context, submitterID string) ([]model.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions
		WHERE submitter_id = ? AND tier != ? ORDER BY submitted_at ASC, id ASC`,
		submitterID, string(model.TierArchived))
	if err != nil {
		return nil, fmt.Errorf("query submitter %s: %w", submitterID, err)
	}
	return collectSubmissions(rows)
}

func (s *SQLiteStore) CountForSubmitterInTier(ctx context.Context, submitterID string, tier model.Tier) (int, error) {
	var n int
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM submissions WHERE submitter_id = ? AND tier = ?`,
		submitterID, string(tier))
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count submitter %s in %s: %w", submitterID, tier, err)
	}
	return n, nil
}

func (s *SQLiteStore) TierCounts(ctx context.Context) (map[model.Tier]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tier, COUNT(*) FROM submissions GROUP BY tier`)
	if err != nil {
		return nil, fmt.Errorf("count tiers: %w", err)
	}
	defer func() { _ = rows.Close() }()
	counts := make(map[model.Tier]int, len(model.Tiers()))
	for _, t := range model.Tiers() {
		counts[t] = 0
	}
	for rows.Next() {
		var (
			tier string
			n    int
		)
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, fmt.Errorf("scan tier count: %w", err)
		}
		counts[model.Tier(tier)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tier counts: %w", err)
	}
	return counts, nil
}

func (s *SQLiteStore) TakeNext(ctx context.Context, order []model.Tier) (model.Submission, error) {
	now := time.Now().UTC()
	var taken model.Submission
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, tier := range order {
			row := tx.QueryRowContext(ctx,
				`SELECT `+submissionColumns+` FROM submissions WHERE tier = ? ORDER BY `+orderClause(tier)+` LIMIT 1`,
				string(tier))
			sub, err := scanSubmission(row)
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			if err != nil {
				return fmt.Errorf("select head of %s: %w", tier, err)
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE submissions SET tier = ?, submitted_at = ?, played_at = ? WHERE id = ?`,
				string(model.TierArchived), toMillis(now), toMillis(now), sub.ID); err != nil {
				return fmt.Errorf("archive %s: %w", sub.PublicID, err)
			}
			// The caller sees the tier the submission was taken from.
			taken = sub
			taken.PlayedAt = &now
			return nil
		}
		return ErrEmpty
	})
	if err != nil {
		return model.Submission{}, err
	}
	s.notify(taken.Tier, model.TierArchived)
	return taken, nil
}

func (s *SQLiteStore) MostRecentForSubmitterInTiers(ctx context.Context, submitterID string, tiers []model.Tier) (model.Submission, error) {
	if len(tiers) == 0 {
		return model.Submission{}, ErrNotFound
	}
	marks, args := tierPlaceholders(tiers)
	qargs := append([]any{submitterID}, args...)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions
		WHERE submitter_id = ? AND tier IN (`+marks+`) ORDER BY submitted_at DESC, id DESC LIMIT 1`,
		qargs...)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Submission{}, ErrNotFound
	}
	if err != nil {
		return model.Submission{}, fmt.Errorf("load most recent submission: %w", err)
	}
	return sub, nil
}

func (s *SQLiteStore) AddInteractionPoints(ctx context.Context, handle string, points int) (int, error) {
	if handle == "" || points == 0 {
		return 0, nil
	}
	marks, args := tierPlaceholders(scoreableTiers())
	qargs := append([]any{points, handle}, args...)
	res, err := s.db.ExecContext(ctx,
		`UPDATE submissions SET interaction_score = interaction_score + ?
		WHERE engagement_handle = ? AND tier IN (`+marks+`)`,
		qargs...)
	if err != nil {
		return 0, fmt.Errorf("add interaction points: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

func (s *SQLiteStore) RecomputeWatchScores(ctx context.Context, scores map[string]float64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE submissions SET watch_score = 0 WHERE tier = ?`,
			string(model.TierStandard)); err != nil {
			return fmt.Errorf("zero watch scores: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx,
			`UPDATE submissions SET watch_score = ? WHERE tier = ? AND engagement_handle = ?`)
		if err != nil {
			return fmt.Errorf("prepare watch update: %w", err)
		}
		defer func() { _ = stmt.Close() }()
		for handle, score := range scores {
			if handle == "" {
				continue
			}
			if _, err := stmt.ExecContext(ctx, score, string(model.TierStandard), handle); err != nil {
				return fmt.Errorf("set watch score for %s: %w", handle, err)
			}
		}
		return nil
	})
}

func scoreableTiers() []model.Tier {
	var out []model.Tier
	for _, t := range model.Tiers() {
		if t.Scoreable() {
			out = append(out, t)
		}
	}
	return out
}

func tierPlaceholders(tiers []model.Tier) (string, []any) {
	marks := make([]string, len(tiers))
	args := make([]any, len(tiers))
	for i, t := range tiers {
		marks[i] = "?"
		args[i] = string(t)
	}
	return strings.Join(marks, ", "), args
}

// --- Sessions ---

func scanSession(row rowScanner) (model.Session, error) {
	var (
		sess    model.Session
		started int64
		ended   sql.NullInt64
	)
	if err := row.Scan(&sess.ID, &sess.HostHandle, &started, &ended); err != nil {
		return model.Session{}, err
	}
	sess.StartedAt = fromMillis(started)
	sess.EndedAt = fromNullMillis(ended)
	return sess, nil
}

func (s *SQLiteStore) BeginSession(ctx context.Context, sess model.Session) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, host_handle, started_at) VALUES (?, ?, ?)`,
		sess.ID, sess.HostHandle, toMillis(sess.StartedAt)); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) EndSession(ctx context.Context, sessionID string, endedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL`,
		toMillis(endedAt), sessionID)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) CurrentSession(ctx context.Context) (model.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, host_handle, started_at, ended_at FROM sessions
		WHERE ended_at IS NULL ORDER BY started_at DESC LIMIT 1`)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, ErrNotFound
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("load current session: %w", err)
	}
	return sess, nil
}

func (s *SQLiteStore) EndDanglingSessions(ctx context.Context, endedAt time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ? WHERE ended_at IS NULL`, toMillis(endedAt))
	if err != nil {
		return 0, fmt.Errorf("end dangling sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// --- Identities ---

const identityColumns = `handle, linked_submitter_id, lifetime_points, lifetime_coins,
	likes, comments, shares, follows, first_seen_at, last_seen_at`

func scanIdentity(row rowScanner) (model.Identity, error) {
	var (
		ident  model.Identity
		linked sql.NullString
		first  int64
		last   int64
	)
	if err := row.Scan(&ident.Handle, &linked, &ident.LifetimePoints, &ident.LifetimeCoins,
		&ident.Likes, &ident.Comments, &ident.Shares, &ident.Follows, &first, &last); err != nil {
		return model.Identity{}, err
	}
	ident.LinkedSubmitterID = linked.String
	ident.FirstSeenAt = fromMillis(first)
	ident.LastSeenAt = fromMillis(last)
	return ident, nil
}

func (s *SQLiteStore) ObserveHandle(ctx context.Context, handle string, seenAt time.Time) error {
	if handle == "" {
		return nil
	}
	ms := toMillis(seenAt)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO identities (handle, first_seen_at, last_seen_at) VALUES (?, ?, ?)
		ON CONFLICT(handle) DO UPDATE SET last_seen_at = excluded.last_seen_at`,
		handle, ms, ms); err != nil {
		return fmt.Errorf("observe handle: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AccumulateIdentity(ctx context.Context, handle string, delta model.IdentityDelta, seenAt time.Time) error {
	if handle == "" {
		return nil
	}
	ms := toMillis(seenAt)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO identities
		(handle, lifetime_points, lifetime_coins, likes, comments, shares, follows, first_seen_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(handle) DO UPDATE SET
			lifetime_points = lifetime_points + excluded.lifetime_points,
			lifetime_coins  = lifetime_coins  + excluded.lifetime_coins,
			likes           = likes           + excluded.likes,
			comments        = comments        + excluded.comments,
			shares          = shares          + excluded.shares,
			follows         = follows         + excluded.follows,
			last_seen_at    = excluded.last_seen_at`,
		handle, delta.Points, delta.Coins, delta.Likes, delta.Comments, delta.Shares, delta.Follows, ms, ms); err != nil {
		return fmt.Errorf("accumulate identity %s: %w", handle, err)
	}
	return nil
}

func (s *SQLiteStore) LinkIdentity(ctx context.Context, submitterID, handle string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var linked sql.NullString
		row := tx.QueryRowContext(ctx, `SELECT linked_submitter_id FROM identities WHERE handle = ?`, handle)
		if err := row.Scan(&linked); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrHandleNotObserved
			}
			return fmt.Errorf("load identity: %w", err)
		}
		if linked.Valid {
			if linked.String == submitterID {
				return nil
			}
			return ErrAlreadyLinked
		}
		// One handle per submitter: release any previous binding first.
		if _, err := tx.ExecContext(ctx,
			`UPDATE identities SET linked_submitter_id = NULL WHERE linked_submitter_id = ?`,
			submitterID); err != nil {
			return fmt.Errorf("release previous link: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE identities SET linked_submitter_id = ? WHERE handle = ?`,
			submitterID, handle); err != nil {
			return fmt.Errorf("link identity: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) UnlinkIdentity(ctx context.Context, submitterID, handle string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE identities SET linked_submitter_id = NULL WHERE handle = ? AND linked_submitter_id = ?`,
		handle, submitterID)
	if err != nil {
		return fmt.Errorf("unlink identity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Identity(ctx context.Context, handle string) (model.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE handle = ?`, handle)
	ident, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Identity{}, ErrNotFound
	}
	if err != nil {
		return model.Identity{}, fmt.Errorf("load identity: %w", err)
	}
	return ident, nil
}

func (s *SQLiteStore) IdentityForSubmitter(ctx context.Context, submitterID string) (model.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE linked_submitter_id = ?`, submitterID)
	ident, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Identity{}, ErrNotFound
	}
	if err != nil {
		return model.Identity{}, fmt.Errorf("load identity for submitter: %w", err)
	}
	return ident, nil
}

// --- View pointers ---

const pointerColumns = `surface_key, tier, channel_ref, message_ref, current_page, has_controls, updated_at`

func scanPointer(row rowScanner) (model.ViewPointer, error) {
	var (
		p        model.ViewPointer
		tier     string
		controls int64
		updated  int64
	)
	if err := row.Scan(&p.SurfaceKey, &tier, &p.ChannelRef, &p.MessageRef,
		&p.CurrentPage, &controls, &updated); err != nil {
		return model.ViewPointer{}, err
	}
	p.Tier = model.Tier(tier)
	p.HasControls = controls != 0
	p.UpdatedAt = fromMillis(updated)
	return p, nil
}

func (s *SQLiteStore) UpsertViewPointer(ctx context.Context, p model.ViewPointer) error {
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO view_pointers
		(surface_key, tier, channel_ref, message_ref, current_page, has_controls, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(surface_key) DO UPDATE SET
			tier         = excluded.tier,
			channel_ref  = excluded.channel_ref,
			message_ref  = excluded.message_ref,
			current_page = excluded.current_page,
			has_controls = excluded.has_controls,
			updated_at   = excluded.updated_at`,
		p.SurfaceKey, string(p.Tier), p.ChannelRef, p.MessageRef,
		p.CurrentPage, boolToInt(p.HasControls), toMillis(updated)); err != nil {
		return fmt.Errorf("upsert view pointer: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ViewPointers(ctx context.Context) ([]model.ViewPointer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pointerColumns+` FROM view_pointers ORDER BY surface_key ASC`)
	if err != nil {
		return nil, fmt.Errorf("query view pointers: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := []model.ViewPointer{}
	for rows.Next() {
		p, err := scanPointer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan view pointer: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate view pointers: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) SetViewPointerPage(ctx context.Context, surfaceKey string, page int) error {
	return s.pointerExec(ctx,
		`UPDATE view_pointers SET current_page = ?, updated_at = ? WHERE surface_key = ?`,
		page, nowMillis(), surfaceKey)
}

func (s *SQLiteStore) SetViewPointerRef(ctx context.Context, surfaceKey, channelRef, messageRef string) error {
	return s.pointerExec(ctx,
		`UPDATE view_pointers SET channel_ref = ?, message_ref = ?, updated_at = ? WHERE surface_key = ?`,
		channelRef, messageRef, nowMillis(), surfaceKey)
}

func (s *SQLiteStore) ClearViewPointerRef(ctx context.Context, surfaceKey string) error {
	// The channel ref survives so re-registration can land in the same place.
	return s.pointerExec(ctx,
		`UPDATE view_pointers SET message_ref = '', updated_at = ? WHERE surface_key = ?`,
		nowMillis(), surfaceKey)
}

func (s *SQLiteStore) DeleteViewPointer(ctx context.Context, surfaceKey string) error {
	return s.pointerExec(ctx, `DELETE FROM view_pointers WHERE surface_key = ?`, surfaceKey)
}

func (s *SQLiteStore) pointerExec(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("view pointer write: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Settings ---

func (s *SQLiteStore) Setting(ctx context.Context, key string) (string, error) {
	var val string
	row := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key)
	if err := row.Scan(&val); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("load setting %s: %w", key, err)
	}
	return val, nil
}

func (s *SQLiteStore) PutSetting(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value); err != nil {
		return fmt.Errorf("put setting %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Settings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}
	return out, nil
}

// --- Column helpers ---

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func nowMillis() int64 { return time.Now().UTC().UnixMilli() }

func fromNullMillis(ns sql.NullInt64) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := time.UnixMilli(ns.Int64).UTC()
	return &t
}

func boolToInt(v bool) int64 {
	if v {
		return 1
	}
	return 0
}
