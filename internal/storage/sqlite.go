package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// isUniqueViolation reports a UNIQUE constraint failure from either driver
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Document operations

const documentColumns = `
	id, run_id, content_hash, config_hash, source, sentence_count, chunk_count,
	truncated_count, created_at, completed_at
`

// scanner is implemented by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row scanner) (*Document, error) {
	var doc Document
	var hash []byte
	var source sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&doc.ID, &doc.RunID, &hash, &doc.ConfigHash, &source, &doc.SentenceCount, &doc.ChunkCount,
		&doc.TruncatedCount, &doc.CreatedAt, &completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	copy(doc.ContentHash[:], hash)
	doc.Source = source.String
	if completedAt.Valid {
		doc.CompletedAt = completedAt.Time
	}
	return &doc, nil
}

// createDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) createDocumentWithQuerier(ctx context.Context, q querier, doc *Document) error {
	query := `
		INSERT INTO documents (run_id, content_hash, config_hash, source, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query, doc.RunID, doc.ContentHash[:], doc.ConfigHash, doc.Source, now)
	if isUniqueViolation(err) {
		return fmt.Errorf("document %s: %w", doc.RunID, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	doc.ID = id
	doc.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateDocument(ctx context.Context, doc *Document) error {
	return s.createDocumentWithQuerier(ctx, s.querier(), doc)
}

func (s *SQLiteStorage) getDocumentWithQuerier(ctx context.Context, q querier, documentID int64) (*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ?`
	return scanDocument(q.QueryRowContext(ctx, query, documentID))
}

func (s *SQLiteStorage) GetDocument(ctx context.Context, documentID int64) (*Document, error) {
	return s.getDocumentWithQuerier(ctx, s.querier(), documentID)
}

func (s *SQLiteStorage) getDocumentByRunIDWithQuerier(ctx context.Context, q querier, runID string) (*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE run_id = ?`
	return scanDocument(q.QueryRowContext(ctx, query, runID))
}

func (s *SQLiteStorage) GetDocumentByRunID(ctx context.Context, runID string) (*Document, error) {
	return s.getDocumentByRunIDWithQuerier(ctx, s.querier(), runID)
}

// getDocumentByHashWithQuerier returns the latest completed run of a text
// made under the given settings
func (s *SQLiteStorage) getDocumentByHashWithQuerier(ctx context.Context, q querier, contentHash [32]byte, configHash string) (*Document, error) {
	query := `SELECT ` + documentColumns + `
		FROM documents
		WHERE content_hash = ? AND config_hash = ? AND completed_at IS NOT NULL
		ORDER BY id DESC
		LIMIT 1
	`
	return scanDocument(q.QueryRowContext(ctx, query, contentHash[:], configHash))
}

func (s *SQLiteStorage) GetDocumentByHash(ctx context.Context, contentHash [32]byte, configHash string) (*Document, error) {
	return s.getDocumentByHashWithQuerier(ctx, s.querier(), contentHash, configHash)
}

// completeDocumentWithQuerier stores the final hash and counts of a run.
// Streamed runs only know their content hash once the input ends.
func (s *SQLiteStorage) completeDocumentWithQuerier(ctx context.Context, q querier, doc *Document) error {
	query := `
		UPDATE documents
		SET content_hash = ?, sentence_count = ?, chunk_count = ?, truncated_count = ?,
		    completed_at = ?
		WHERE id = ?
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		doc.ContentHash[:], doc.SentenceCount, doc.ChunkCount, doc.TruncatedCount, now, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to complete document: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	doc.CompletedAt = now
	return nil
}

func (s *SQLiteStorage) CompleteDocument(ctx context.Context, doc *Document) error {
	return s.completeDocumentWithQuerier(ctx, s.querier(), doc)
}

// Sentence operations

func (s *SQLiteStorage) insertSentenceWithQuerier(ctx context.Context, q querier, sentence *Sentence) error {
	query := `
		INSERT INTO sentences (document_id, seq, text, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id, created_at
	`
	err := q.QueryRowContext(ctx, query,
		sentence.DocumentID, sentence.Seq, sentence.Text, time.Now(),
	).Scan(&sentence.ID, &sentence.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("sentence %d of document %d: %w", sentence.Seq, sentence.DocumentID, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to insert sentence: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) InsertSentence(ctx context.Context, sentence *Sentence) error {
	return s.insertSentenceWithQuerier(ctx, s.querier(), sentence)
}

func (s *SQLiteStorage) listSentencesWithQuerier(ctx context.Context, q querier, documentID int64) ([]*Sentence, error) {
	query := `
		SELECT id, document_id, seq, text, created_at
		FROM sentences
		WHERE document_id = ?
		ORDER BY seq
	`
	rows, err := q.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	sentences := make([]*Sentence, 0)
	for rows.Next() {
		var sentence Sentence
		if err := rows.Scan(&sentence.ID, &sentence.DocumentID, &sentence.Seq, &sentence.Text, &sentence.CreatedAt); err != nil {
			return nil, err
		}
		sentences = append(sentences, &sentence)
	}
	return sentences, rows.Err()
}

func (s *SQLiteStorage) ListSentences(ctx context.Context, documentID int64) ([]*Sentence, error) {
	return s.listSentencesWithQuerier(ctx, s.querier(), documentID)
}

// Chunk operations

func (s *SQLiteStorage) insertChunkWithQuerier(ctx context.Context, q querier, chunk *Chunk) error {
	query := `
		INSERT INTO chunks (
			sentence_id, seq, text, phonemes, content_hash, phoneme_len,
			truncated, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at
	`
	err := q.QueryRowContext(ctx, query,
		chunk.SentenceID, chunk.Seq, chunk.Text, chunk.Phonemes, chunk.ContentHash[:],
		chunk.PhonemeLen, chunk.Truncated, time.Now(),
	).Scan(&chunk.ID, &chunk.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("chunk %d of sentence %d: %w", chunk.Seq, chunk.SentenceID, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) InsertChunk(ctx context.Context, chunk *Chunk) error {
	return s.insertChunkWithQuerier(ctx, s.querier(), chunk)
}

func scanChunks(rows *sql.Rows) ([]*Chunk, error) {
	defer func() { _ = rows.Close() }()

	chunks := make([]*Chunk, 0)
	for rows.Next() {
		var chunk Chunk
		var hash []byte
		err := rows.Scan(
			&chunk.ID, &chunk.SentenceID, &chunk.Seq, &chunk.Text, &chunk.Phonemes,
			&hash, &chunk.PhonemeLen, &chunk.Truncated, &chunk.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		copy(chunk.ContentHash[:], hash)
		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStorage) listChunksWithQuerier(ctx context.Context, q querier, sentenceID int64) ([]*Chunk, error) {
	query := `
		SELECT id, sentence_id, seq, text, phonemes, content_hash, phoneme_len,
		       truncated, created_at
		FROM chunks
		WHERE sentence_id = ?
		ORDER BY seq
	`
	rows, err := q.QueryContext(ctx, query, sentenceID)
	if err != nil {
		return nil, err
	}
	return scanChunks(rows)
}

func (s *SQLiteStorage) ListChunks(ctx context.Context, sentenceID int64) ([]*Chunk, error) {
	return s.listChunksWithQuerier(ctx, s.querier(), sentenceID)
}

func (s *SQLiteStorage) listChunksByDocumentWithQuerier(ctx context.Context, q querier, documentID int64) ([]*Chunk, error) {
	query := `
		SELECT c.id, c.sentence_id, c.seq, c.text, c.phonemes, c.content_hash,
		       c.phoneme_len, c.truncated, c.created_at
		FROM chunks c
		JOIN sentences s ON c.sentence_id = s.id
		WHERE s.document_id = ?
		ORDER BY s.seq, c.seq
	`
	rows, err := q.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	return scanChunks(rows)
}

func (s *SQLiteStorage) ListChunksByDocument(ctx context.Context, documentID int64) ([]*Chunk, error) {
	return s.listChunksByDocumentWithQuerier(ctx, s.querier(), documentID)
}

// Status operations

func (s *SQLiteStorage) GetStatus(ctx context.Context) (*Status, error) {
	status := &Status{BuildMode: BuildMode}

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM documents", &status.DocumentsCount},
		{"SELECT COUNT(*) FROM sentences", &status.SentencesCount},
		{"SELECT COUNT(*) FROM chunks", &status.ChunksCount},
		{"SELECT COUNT(*) FROM chunks WHERE truncated = 1", &status.TruncatedCount},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, err
		}
	}

	doc, err := s.getLatestCompleted(ctx)
	switch {
	case err == nil:
		status.LastCompletedAt = doc.CompletedAt
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	version, err := SchemaVersion(ctx, s.db)
	if err != nil {
		return nil, err
	}
	status.SchemaVersion = version.Original()

	// Calculate database size
	var pageCount, pageSize int
	err = s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	if err == nil {
		_ = s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.DatabaseSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	status.Health = HealthStatus{
		DatabaseAccessible: true,
		SchemaCurrent:      status.SchemaVersion == CurrentSchemaVersion,
	}

	return status, nil
}

// getLatestCompleted returns the most recently completed document
func (s *SQLiteStorage) getLatestCompleted(ctx context.Context) (*Document, error) {
	query := `SELECT ` + documentColumns + `
		FROM documents
		WHERE completed_at IS NOT NULL
		ORDER BY completed_at DESC, id DESC
		LIMIT 1
	`
	return scanDocument(s.db.QueryRowContext(ctx, query))
}

// Transaction implementations

func (t *sqliteTx) CreateDocument(ctx context.Context, doc *Document) error {
	return t.storage.createDocumentWithQuerier(ctx, t.querier(), doc)
}

func (t *sqliteTx) GetDocument(ctx context.Context, documentID int64) (*Document, error) {
	return t.storage.getDocumentWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) GetDocumentByRunID(ctx context.Context, runID string) (*Document, error) {
	return t.storage.getDocumentByRunIDWithQuerier(ctx, t.querier(), runID)
}

func (t *sqliteTx) GetDocumentByHash(ctx context.Context, contentHash [32]byte, configHash string) (*Document, error) {
	return t.storage.getDocumentByHashWithQuerier(ctx, t.querier(), contentHash, configHash)
}

func (t *sqliteTx) CompleteDocument(ctx context.Context, doc *Document) error {
	return t.storage.completeDocumentWithQuerier(ctx, t.querier(), doc)
}

func (t *sqliteTx) InsertSentence(ctx context.Context, sentence *Sentence) error {
	return t.storage.insertSentenceWithQuerier(ctx, t.querier(), sentence)
}

func (t *sqliteTx) ListSentences(ctx context.Context, documentID int64) ([]*Sentence, error) {
	return t.storage.listSentencesWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) InsertChunk(ctx context.Context, chunk *Chunk) error {
	return t.storage.insertChunkWithQuerier(ctx, t.querier(), chunk)
}

func (t *sqliteTx) ListChunks(ctx context.Context, sentenceID int64) ([]*Chunk, error) {
	return t.storage.listChunksWithQuerier(ctx, t.querier(), sentenceID)
}

func (t *sqliteTx) ListChunksByDocument(ctx context.Context, documentID int64) ([]*Chunk, error) {
	return t.storage.listChunksByDocumentWithQuerier(ctx, t.querier(), documentID)
}

// GetStatus is not available inside a transaction: the single pooled
// connection is held by the transaction itself
func (t *sqliteTx) GetStatus(ctx context.Context) (*Status, error) {
	return nil, errors.New("status not available inside a transaction")
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}
