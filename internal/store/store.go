package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"codeberg.org/snonux/lanote/internal/card"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFound is returned when no card matches.
var ErrNotFound = errors.New("card not found")

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const cardsTable = "cards"

var cardColumns = []string{
	"id", "term", "definition", "language", "category", "created_at",
	"study_status", "review_count", "last_reviewed", "details",
}

// Store is a SQLite card store.
type Store struct {
	db     *sql.DB
	sb     squirrel.StatementBuilderType
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and applies migrations.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps an in-memory database alive and serialises writers
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, sb: squirrel.StatementBuilder, logger: logger}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("goose new provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// insertBatchSize keeps one INSERT below SQLite's 999 bound parameters.
var insertBatchSize = 999 / len(cardColumns)

// Create inserts cards in one transaction.
func (s *Store) Create(ctx context.Context, cards ...card.VocabCard) error {
	if len(cards) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for start := 0; start < len(cards); start += insertBatchSize {
		end := min(start+insertBatchSize, len(cards))
		if err := s.insertCards(ctx, tx, cards[start:end]); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cards: %w", err)
	}

	s.logger.Debug("cards created", "count", len(cards))
	return nil
}

func (s *Store) insertCards(ctx context.Context, tx *sql.Tx, cards []card.VocabCard) error {
	insert := s.sb.Insert(cardsTable).Columns(cardColumns...)
	for _, c := range cards {
		details, err := json.Marshal(c.Details)
		if err != nil {
			return fmt.Errorf("failed to encode details of %q: %w", c.Term, err)
		}
		insert = insert.Values(
			c.ID, c.Term, c.Definition, string(c.Language), c.Category, c.CreatedAt.UTC(),
			string(c.Study.Status), c.Study.ReviewCount, nullTime(c.Study.LastReviewed), string(details),
		)
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert cards: %w", err)
	}
	return nil
}

// Get returns the card with id.
func (s *Store) Get(ctx context.Context, id string) (card.VocabCard, error) {
	return s.getOne(ctx, squirrel.Eq{"id": id})
}

// FindByTerm returns the card with exactly term in lang.
func (s *Store) FindByTerm(ctx context.Context, lang card.Language, term string) (card.VocabCard, error) {
	return s.getOne(ctx, squirrel.Eq{"language": string(lang), "term": term})
}

func (s *Store) getOne(ctx context.Context, where squirrel.Sqlizer) (card.VocabCard, error) {
	query, args, err := s.sb.Select(cardColumns...).From(cardsTable).Where(where).
		OrderBy("created_at").Limit(1).ToSql()
	if err != nil {
		return card.VocabCard{}, fmt.Errorf("build select: %w", err)
	}
	c, err := scanCard(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return card.VocabCard{}, ErrNotFound
	}
	return c, err
}

// ListFilter narrows List. Zero fields match everything.
type ListFilter struct {
	Language card.Language
	Category string
}

// List returns matching cards, newest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]card.VocabCard, error) {
	q := s.sb.Select(cardColumns...).From(cardsTable).OrderBy("created_at DESC", "term")
	if f.Language != "" {
		q = q.Where(squirrel.Eq{"language": string(f.Language)})
	}
	if f.Category != "" {
		q = q.Where(squirrel.Eq{"category": f.Category})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []card.VocabCard
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return cards, nil
}

// Terms returns every term stored for lang.
func (s *Store) Terms(ctx context.Context, lang card.Language) ([]string, error) {
	query, args, err := s.sb.Select("term").From(cardsTable).
		Where(squirrel.Eq{"language": string(lang)}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	defer rows.Close()

	var terms []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan term: %w", err)
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

// LoadDetails returns the stored details of a card.
func (s *Store) LoadDetails(ctx context.Context, id string) (card.Details, error) {
	return loadDetails(ctx, s.db, s.sb, id)
}

// UpdateDetails merges patch into the stored details in one transaction.
// Fields of patch that were not fetched leave the stored ones untouched.
func (s *Store) UpdateDetails(ctx context.Context, id string, patch card.Details) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := loadDetails(ctx, tx, s.sb, id)
	if err != nil {
		return err
	}

	data, err := json.Marshal(current.Merge(patch))
	if err != nil {
		return fmt.Errorf("failed to encode details: %w", err)
	}

	query, args, err := s.sb.Update(cardsTable).Set("details", string(data)).
		Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update details: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit details: %w", err)
	}

	s.logger.Debug("details updated", "card", id, "bytes", len(data))
	return nil
}

// UpdateStudy stores the study state of c.
func (s *Store) UpdateStudy(ctx context.Context, c card.VocabCard) error {
	query, args, err := s.sb.Update(cardsTable).
		Set("study_status", string(c.Study.Status)).
		Set("review_count", c.Study.ReviewCount).
		Set("last_reviewed", nullTime(c.Study.LastReviewed)).
		Where(squirrel.Eq{"id": c.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	return s.execOne(ctx, query, args)
}

// MarkError moves a card into the Errors category for later practice.
func (s *Store) MarkError(ctx context.Context, id string) error {
	query, args, err := s.sb.Update(cardsTable).
		Set("category", card.ErrorsCategory).
		Set("study_status", string(card.StatusLearning)).
		Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	return s.execOne(ctx, query, args)
}

// Delete removes a card.
func (s *Store) Delete(ctx context.Context, id string) error {
	query, args, err := s.sb.Delete(cardsTable).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	return s.execOne(ctx, query, args)
}

func (s *Store) execOne(ctx context.Context, query string, args []any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// LastSynced returns when source last produced new cards.
func (s *Store) LastSynced(ctx context.Context, source string) (time.Time, bool, error) {
	query, args, err := s.sb.Select("last_synced").From("sync_state").
		Where(squirrel.Eq{"source": source}).ToSql()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("build select: %w", err)
	}
	var t time.Time
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read sync state: %w", err)
	}
	return t, true, nil
}

// SetLastSynced records a successful sync of source.
func (s *Store) SetLastSynced(ctx context.Context, source string, t time.Time) error {
	query, args, err := s.sb.Insert("sync_state").Columns("source", "last_synced").
		Values(source, t.UTC()).
		Suffix("ON CONFLICT(source) DO UPDATE SET last_synced = excluded.last_synced").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("write sync state: %w", err)
	}
	return nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadDetails(ctx context.Context, q queryRower, sb squirrel.StatementBuilderType, id string) (card.Details, error) {
	query, args, err := sb.Select("details").From(cardsTable).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return card.Details{}, fmt.Errorf("build select: %w", err)
	}

	var raw string
	if err := q.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return card.Details{}, ErrNotFound
		}
		return card.Details{}, fmt.Errorf("load details: %w", err)
	}

	var d card.Details
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return card.Details{}, fmt.Errorf("failed to decode details: %w", err)
	}
	return d, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCard(row scanner) (card.VocabCard, error) {
	var (
		c        card.VocabCard
		lang     string
		status   string
		reviewed sql.NullTime
		details  string
	)
	err := row.Scan(&c.ID, &c.Term, &c.Definition, &lang, &c.Category, &c.CreatedAt,
		&status, &c.Study.ReviewCount, &reviewed, &details)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return card.VocabCard{}, err
		}
		return card.VocabCard{}, fmt.Errorf("scan card: %w", err)
	}

	c.Language = card.Language(lang)
	c.Study.Status = card.StudyStatus(status)
	if reviewed.Valid {
		c.Study.LastReviewed = reviewed.Time
	}
	if err := json.Unmarshal([]byte(details), &c.Details); err != nil {
		return card.VocabCard{}, fmt.Errorf("failed to decode details of %s: %w", c.ID, err)
	}
	return c, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
