// Copyright (c) 2026 FourT. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package midi (Postgres) implements the storage layer for the MIDI catalog.

# Schema Table Mapping
  - community.midifile: Catalog items with denormalized counters.
  - community.mididownload: Charge-once download records, UNIQUE(userid, midiid).
  - community.midirating: Star scores, UNIQUE(userid, midiid).
  - community.midicomment: Append-only comments.

# Consistency

ChargeDownload is the only write path that money flows through. It reuses
the ledger's transactional credit/debit helpers so the catalog counters and
the points economy commit or roll back together.
*/
package midi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fourt/community/internal/community/points"
	"github.com/fourt/community/internal/platform/apperr"
	"github.com/fourt/community/internal/platform/dberr"
	"github.com/fourt/community/pkg/uuid"
)

// # Repository Implementation

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Postgres implementation of the catalog store.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const itemColumns = `
	id, uploaderid, title, artist, description, tags, tier, status,
	filepath, filesize, durationseconds, downloadcount, avgrating,
	ratingcount, createdat, updatedat`

func scanItem(row pgx.Row) (*Item, error) {
	item := &Item{}
	err := row.Scan(
		&item.ID,
		&item.UploaderID,
		&item.Title,
		&item.Artist,
		&item.Description,
		&item.Tags,
		&item.Tier,
		&item.Status,
		&item.FilePath,
		&item.FileSize,
		&item.DurationSeconds,
		&item.DownloadCount,
		&item.AvgRating,
		&item.RatingCount,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}

/*
Create persists a new catalog item.

Parameters:
  - context: context.Context
  - item: *Item

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) Create(context context.Context, item *Item) error {
	const query = `
		INSERT INTO community.midifile (
			id, uploaderid, title, artist, description, tags, tier, status,
			filepath, filesize, durationseconds, downloadcount, avgrating,
			ratingcount, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, 0, 0, $12, $13)`

	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		item.ID,
		item.UploaderID,
		item.Title,
		item.Artist,
		item.Description,
		item.Tags,
		item.Tier,
		item.Status,
		item.FilePath,
		item.FileSize,
		item.DurationSeconds,
		item.CreatedAt,
		item.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "Midi file")
	}

	return nil
}

/*
FindByID returns the item with the given ID regardless of status.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Item: Hydrated entity
  - error: apperr.NotFound or retrieval failures
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Item, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM community.midifile
		WHERE id = $1 AND deletedat IS NULL`, itemColumns)

	item, err := scanItem(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Midi file")
		}
		return nil, fmt.Errorf("postgres_midi_repo_find_by_id_failed: %w", err)
	}

	return item, nil
}

/*
List returns a page of catalog items matching the filter.

Description: Search is a case-insensitive substring match on title, artist,
tags, and uploader username. The total is computed with a window function to
avoid a second round-trip.

Parameters:
  - context: context.Context
  - filter: Filter
  - limit: int
  - offset: int

Returns:
  - []Item: Page of items
  - int: Total match count
  - error: Query failures
*/
func (repository *PostgresRepository) List(context context.Context, filter Filter, limit, offset int) ([]Item, int, error) {
	where := "deletedat IS NULL"
	arguments := []any{}

	appendCondition := func(condition string, value any) {
		arguments = append(arguments, value)
		where += " AND " + fmt.Sprintf(condition, len(arguments))
	}

	if filter.Status != "" {
		appendCondition("status = $%d", filter.Status)
	}
	if filter.Tier != "" {
		appendCondition("tier = $%d", filter.Tier)
	}
	if filter.UploaderID != "" {
		appendCondition("uploaderid = $%d", filter.UploaderID)
	}
	if filter.Search != "" {
		position := len(arguments) + 1
		where += fmt.Sprintf(` AND (title ILIKE '%%' || $%d || '%%'
			OR artist ILIKE '%%' || $%d || '%%'
			OR array_to_string(tags, ' ') ILIKE '%%' || $%d || '%%'
			OR uploaderid IN (SELECT id FROM users.account WHERE username ILIKE '%%' || $%d || '%%'))`,
			position, position, position, position)
		arguments = append(arguments, filter.Search)
	}

	orderBy := "createdat DESC"
	switch filter.Sort {
	case SortPopular:
		orderBy = "downloadcount DESC, createdat DESC"
	case SortRating:
		orderBy = "avgrating DESC, ratingcount DESC, createdat DESC"
	}

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total
		FROM community.midifile
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		itemColumns, where, orderBy, len(arguments)+1, len(arguments)+2)
	arguments = append(arguments, limit, offset)

	rows, err := repository.pool.Query(context, query, arguments...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_midi_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var items []Item
	var total int
	for rows.Next() {
		item := Item{}
		if err := rows.Scan(
			&item.ID, &item.UploaderID, &item.Title, &item.Artist, &item.Description,
			&item.Tags, &item.Tier, &item.Status, &item.FilePath, &item.FileSize,
			&item.DurationSeconds, &item.DownloadCount, &item.AvgRating,
			&item.RatingCount, &item.CreatedAt, &item.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("postgres_midi_repo_list_scan_failed: %w", err)
		}
		items = append(items, item)
	}

	return items, total, nil
}

/*
CountUploadsToday counts a user's submissions since UTC midnight.

Parameters:
  - context: context.Context
  - uploaderID: string

Returns:
  - int: Submission count
  - error: Query failures
*/
func (repository *PostgresRepository) CountUploadsToday(context context.Context, uploaderID string) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM community.midifile
		WHERE uploaderid = $1
		  AND createdat >= date_trunc('day', NOW() AT TIME ZONE 'UTC')`

	var count int
	if err := repository.pool.QueryRow(context, query, uploaderID).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres_midi_repo_count_uploads_failed: %w", err)
	}

	return count, nil
}

/*
SetStatus records the moderation verdict for an item.

Parameters:
  - context: context.Context
  - id: string
  - status: Status

Returns:
  - *Item: The updated entity
  - error: apperr.NotFound or update failures
*/
func (repository *PostgresRepository) SetStatus(context context.Context, id string, status Status) (*Item, error) {
	query := fmt.Sprintf(`
		UPDATE community.midifile
		SET status = $2, updatedat = NOW()
		WHERE id = $1 AND deletedat IS NULL
		RETURNING %s`, itemColumns)

	item, err := scanItem(repository.pool.QueryRow(context, query, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Midi file")
		}
		return nil, fmt.Errorf("postgres_midi_repo_set_status_failed: %w", err)
	}

	return item, nil
}

/*
ChargeDownload executes the paid-download exchange in one transaction.

Parameters:
  - context: context.Context
  - userID: string (the buyer)
  - item: *Item
  - cost: int

Returns:
  - *ChargeResult: What was charged and the resulting balance
  - error: apperr.PaymentRequired when funds are insufficient
*/
func (repository *PostgresRepository) ChargeDownload(context context.Context, userID string, item *Item, cost int) (*ChargeResult, error) {
	tx, err := repository.pool.Begin(context)
	if err != nil {
		return nil, fmt.Errorf("postgres_midi_repo_charge_begin_failed: %w", err)
	}
	defer tx.Rollback(context)

	// ── 1. Charge-Once Guard ──────────────────────────────────────────────
	// The unique (userid, midiid) record decides whether this is a first
	// download or a free repeat.
	const recordQuery = `
		INSERT INTO community.mididownload (id, midiid, userid, costpoints, createdat)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (userid, midiid) DO NOTHING`

	tag, err := tx.Exec(context, recordQuery, uuid.New(), item.ID, userID, cost)
	if err != nil {
		return nil, fmt.Errorf("postgres_midi_repo_charge_record_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Already owned: no charge, no counter change.
		balance, err := currentBalance(context, tx, userID)
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(context); err != nil {
			return nil, fmt.Errorf("postgres_midi_repo_charge_commit_failed: %w", err)
		}
		return &ChargeResult{Charged: 0, Balance: balance, AlreadyOwned: true}, nil
	}

	// ── 2. Money Movement ─────────────────────────────────────────────────
	balance := 0
	if cost > 0 {
		balance, err = points.DebitTx(context, tx, userID, cost, points.ReasonDownloadMidi, &item.ID)
		if err != nil {
			return nil, err
		}

		// The uploader receives the full cost as earned points.
		if _, err := points.CreditTx(context, tx, item.UploaderID, cost, points.ReasonDownloadReceived, &item.ID); err != nil {
			return nil, err
		}
	} else {
		balance, err = currentBalance(context, tx, userID)
		if err != nil {
			return nil, err
		}
	}

	// ── 3. Counter & Milestones ───────────────────────────────────────────
	const counterQuery = `
		UPDATE community.midifile
		SET downloadcount = downloadcount + 1, updatedat = NOW()
		WHERE id = $1
		RETURNING downloadcount`

	var downloadCount int
	if err := tx.QueryRow(context, counterQuery, item.ID).Scan(&downloadCount); err != nil {
		return nil, fmt.Errorf("postgres_midi_repo_charge_counter_failed: %w", err)
	}

	switch downloadCount {
	case Milestone50:
		if _, err := points.CreditTx(context, tx, item.UploaderID, points.Milestone50Reward, points.ReasonMilestone50, &item.ID); err != nil {
			return nil, err
		}
	case Milestone100:
		if _, err := points.CreditTx(context, tx, item.UploaderID, points.Milestone100Reward, points.ReasonMilestone100, &item.ID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(context); err != nil {
		return nil, fmt.Errorf("postgres_midi_repo_charge_commit_failed: %w", err)
	}

	return &ChargeResult{Charged: cost, Balance: balance, AlreadyOwned: false}, nil
}

// currentBalance reads the buyer's spendable balance inside the transaction.
func currentBalance(context context.Context, tx pgx.Tx, userID string) (int, error) {
	const query = `SELECT points FROM users.account WHERE id = $1 AND deletedat IS NULL`

	var balance int
	if err := tx.QueryRow(context, query, userID).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperr.NotFound("Account")
		}
		return 0, fmt.Errorf("postgres_midi_repo_balance_failed: %w", err)
	}
	return balance, nil
}

/*
ListDownloads returns the items a user has download records for.

Parameters:
  - context: context.Context
  - userID: string
  - limit: int
  - offset: int

Returns:
  - []Item: Page of downloaded items, most recent download first
  - int: Total download count
  - error: Query failures
*/
func (repository *PostgresRepository) ListDownloads(context context.Context, userID string, limit, offset int) ([]Item, int, error) {
	const query = `
		SELECT f.id, f.uploaderid, f.title, f.artist, f.description, f.tags,
		       f.tier, f.status, f.filepath, f.filesize, f.durationseconds,
		       f.downloadcount, f.avgrating, f.ratingcount, f.createdat,
		       f.updatedat, COUNT(*) OVER() AS total
		FROM community.midifile f
		JOIN community.mididownload d ON d.midiid = f.id
		WHERE d.userid = $1 AND f.deletedat IS NULL
		ORDER BY d.createdat DESC
		LIMIT $2 OFFSET $3`

	rows, err := repository.pool.Query(context, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_midi_repo_list_downloads_failed: %w", err)
	}
	defer rows.Close()

	var items []Item
	var total int
	for rows.Next() {
		item := Item{}
		if err := rows.Scan(
			&item.ID, &item.UploaderID, &item.Title, &item.Artist, &item.Description,
			&item.Tags, &item.Tier, &item.Status, &item.FilePath, &item.FileSize,
			&item.DurationSeconds, &item.DownloadCount, &item.AvgRating,
			&item.RatingCount, &item.CreatedAt, &item.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("postgres_midi_repo_list_downloads_scan_failed: %w", err)
		}
		items = append(items, item)
	}

	return items, total, nil
}

/*
UpsertRating stores or replaces a user's star score and refreshes the item's
aggregates in the same transaction.

Parameters:
  - context: context.Context
  - rating: *Rating

Returns:
  - bool: true when this was the user's first rating of the item
  - error: Persistence failures
*/
func (repository *PostgresRepository) UpsertRating(context context.Context, rating *Rating) (bool, error) {
	tx, err := repository.pool.Begin(context)
	if err != nil {
		return false, fmt.Errorf("postgres_midi_repo_rating_begin_failed: %w", err)
	}
	defer tx.Rollback(context)

	// xmax = 0 only on freshly inserted rows, which distinguishes a first
	// rating from an update without a prior SELECT.
	const upsertQuery = `
		INSERT INTO community.midirating (id, midiid, userid, score, createdat, updatedat)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (userid, midiid) DO UPDATE SET
			score = EXCLUDED.score,
			updatedat = NOW()
		RETURNING id, createdat, updatedat, (xmax = 0) AS inserted`

	var inserted bool
	err = tx.QueryRow(context, upsertQuery, uuid.New(), rating.MidiID, rating.UserID, rating.Score).
		Scan(&rating.ID, &rating.CreatedAt, &rating.UpdatedAt, &inserted)
	if err != nil {
		return false, fmt.Errorf("postgres_midi_repo_rating_upsert_failed: %w", err)
	}

	const aggregateQuery = `
		UPDATE community.midifile
		SET avgrating = sub.avg, ratingcount = sub.count, updatedat = NOW()
		FROM (
			SELECT COALESCE(AVG(score), 0) AS avg, COUNT(*) AS count
			FROM community.midirating
			WHERE midiid = $1
		) sub
		WHERE id = $1`

	if _, err := tx.Exec(context, aggregateQuery, rating.MidiID); err != nil {
		return false, fmt.Errorf("postgres_midi_repo_rating_aggregate_failed: %w", err)
	}

	if err := tx.Commit(context); err != nil {
		return false, fmt.Errorf("postgres_midi_repo_rating_commit_failed: %w", err)
	}

	return inserted, nil
}

/*
FindRating returns a user's existing rating for an item.

Parameters:
  - context: context.Context
  - userID: string
  - midiID: string

Returns:
  - *Rating: Hydrated entity
  - error: apperr.NotFound or retrieval failures
*/
func (repository *PostgresRepository) FindRating(context context.Context, userID, midiID string) (*Rating, error) {
	const query = `
		SELECT id, midiid, userid, score, createdat, updatedat
		FROM community.midirating
		WHERE userid = $1 AND midiid = $2`

	rating := &Rating{}
	err := repository.pool.QueryRow(context, query, userID, midiID).Scan(
		&rating.ID, &rating.MidiID, &rating.UserID, &rating.Score,
		&rating.CreatedAt, &rating.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Rating")
		}
		return nil, fmt.Errorf("postgres_midi_repo_find_rating_failed: %w", err)
	}

	return rating, nil
}

/*
CountHighRatings counts the ratings at or above a score threshold.

Parameters:
  - context: context.Context
  - midiID: string
  - minScore: int

Returns:
  - int: Rating count
  - error: Query failures
*/
func (repository *PostgresRepository) CountHighRatings(context context.Context, midiID string, minScore int) (int, error) {
	const query = `SELECT COUNT(*) FROM community.midirating WHERE midiid = $1 AND score >= $2`

	var count int
	if err := repository.pool.QueryRow(context, query, midiID, minScore).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres_midi_repo_count_high_ratings_failed: %w", err)
	}

	return count, nil
}

/*
CreateComment appends a comment to an item.

Parameters:
  - context: context.Context
  - comment: *Comment

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) CreateComment(context context.Context, comment *Comment) error {
	const query = `
		INSERT INTO community.midicomment (id, midiid, userid, content, createdat)
		VALUES ($1, $2, $3, $4, $5)`

	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, query,
		comment.ID, comment.MidiID, comment.UserID, comment.Content, comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres_midi_repo_create_comment_failed: %w", err)
	}

	return nil
}

/*
ListComments returns a page of an item's comments, newest first.

Parameters:
  - context: context.Context
  - midiID: string
  - limit: int
  - offset: int

Returns:
  - []Comment: Page of comments with author usernames
  - int: Total comment count
  - error: Query failures
*/
func (repository *PostgresRepository) ListComments(context context.Context, midiID string, limit, offset int) ([]Comment, int, error) {
	const query = `
		SELECT c.id, c.midiid, c.userid, a.username, c.content, c.createdat,
		       COUNT(*) OVER() AS total
		FROM community.midicomment c
		JOIN users.account a ON a.id = c.userid
		WHERE c.midiid = $1 AND c.deletedat IS NULL
		ORDER BY c.createdat DESC
		LIMIT $2 OFFSET $3`

	rows, err := repository.pool.Query(context, query, midiID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_midi_repo_list_comments_failed: %w", err)
	}
	defer rows.Close()

	var comments []Comment
	var total int
	for rows.Next() {
		comment := Comment{}
		if err := rows.Scan(
			&comment.ID, &comment.MidiID, &comment.UserID, &comment.Username,
			&comment.Content, &comment.CreatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("postgres_midi_repo_list_comments_scan_failed: %w", err)
		}
		comments = append(comments, comment)
	}

	return comments, total, nil
}
