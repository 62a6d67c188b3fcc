// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/mattn/go-sqlite3"

	"github.com/raglet-dev/raglet/internal/store"
	ragerr "github.com/raglet-dev/raglet/pkg/errors"
)

func init() {
	sqlite_vec.Auto()
}

// Compile-time interface check.
var _ store.Index = (*Index)(nil)

// tieMargin is how many extra neighbors are fetched beyond k so that
// similarity ties straddling the k-boundary can be re-sorted by
// insertion order before truncation.
const tieMargin = 16

// Index implements store.Index backed by SQLite with sqlite-vec.
// Chunk rows carry a monotonic insertion sequence; the vec0 virtual
// table shares that sequence as its rowid and is configured for cosine
// distance.
type Index struct {
	db         *sql.DB
	dimensions int
}

// Open creates or reopens the index database under dir. A missing or
// empty directory is not an error; the index initializes empty. WAL
// mode keeps concurrent readers on a consistent snapshot while a write
// transaction is in flight.
func Open(dir string, dimensions int) (*Index, error) {
	if dimensions < 1 {
		return nil, ragerr.Errorf(ragerr.CodeRequestInvalidArgument, "index dimensions must be >= 1, got %d", dimensions)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "creating index directory %s", dir)
	}

	dbPath := filepath.Join(dir, "index.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "opening sqlite db")
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "pinging sqlite db")
	}

	if err := migrate(db, dimensions); err != nil {
		_ = db.Close()
		return nil, ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "migrating index tables")
	}

	return &Index{db: db, dimensions: dimensions}, nil
}

func migrate(db *sql.DB, dimensions int) error {
	const chunkDDL = `
CREATE TABLE IF NOT EXISTS chunks (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT NOT NULL UNIQUE,
	document_id  TEXT NOT NULL,
	ordinal      INTEGER NOT NULL,
	text         TEXT NOT NULL,
	start_offset INTEGER NOT NULL,
	end_offset   INTEGER NOT NULL,
	metadata     TEXT NOT NULL DEFAULT '{}'
)`
	if _, err := db.Exec(chunkDDL); err != nil {
		return fmt.Errorf("creating chunks table: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS chunks_document ON chunks(document_id)`); err != nil {
		return fmt.Errorf("creating chunks document index: %w", err)
	}

	vecDDL := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vectors USING vec0(chunk_seq INTEGER PRIMARY KEY, embedding float[%d] distance_metric=cosine)`,
		dimensions,
	)
	if _, err := db.Exec(vecDDL); err != nil {
		return fmt.Errorf("creating vectors virtual table: %w", err)
	}

	return nil
}

// Add appends the batch in a single transaction: either all entries
// become visible or none do. Duplicate chunk ids fail the whole batch.
func (ix *Index) Add(ctx context.Context, entries []store.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	for _, e := range entries {
		if len(e.Vector) != ix.dimensions {
			return ragerr.New(ragerr.CodeIndexDimensionMismatch,
				"vector dimensionality does not match index",
				ragerr.FieldChunkID(e.Chunk.ID),
				ragerr.Field("got", len(e.Vector)),
				ragerr.Field("want", ix.dimensions),
			)
		}
	}

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "beginning add transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertEntries(ctx, tx, entries); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "committing add")
	}
	return nil
}

// ReplaceDocument deletes the document's chunks and inserts the new
// entries in one transaction. Readers on the WAL snapshot see either
// the prior version or the new one; a failure rolls back to the prior
// version.
func (ix *Index) ReplaceDocument(ctx context.Context, documentID string, entries []store.Entry) error {
	for _, e := range entries {
		if len(e.Vector) != ix.dimensions {
			return ragerr.New(ragerr.CodeIndexDimensionMismatch,
				"vector dimensionality does not match index",
				ragerr.FieldChunkID(e.Chunk.ID),
				ragerr.Field("got", len(e.Vector)),
				ragerr.Field("want", ix.dimensions),
			)
		}
	}

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "beginning replace transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteDocumentTx(ctx, tx, documentID); err != nil {
		return err
	}
	if err := insertEntries(ctx, tx, entries); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "committing document replace")
	}
	return nil
}

func insertEntries(ctx context.Context, tx *sql.Tx, entries []store.Entry) error {
	const chunkQ = `INSERT INTO chunks(id, document_id, ordinal, text, start_offset, end_offset, metadata)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	for _, e := range entries {
		metaJSON := []byte("{}")
		if len(e.Chunk.Metadata) > 0 {
			var err error
			metaJSON, err = json.Marshal(e.Chunk.Metadata)
			if err != nil {
				return ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "marshalling chunk metadata %s", e.Chunk.ID)
			}
		}

		res, err := tx.ExecContext(ctx, chunkQ,
			e.Chunk.ID, e.Chunk.DocumentID, e.Chunk.Ordinal, e.Chunk.Text,
			e.Chunk.Start, e.Chunk.End, string(metaJSON),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ragerr.New(ragerr.CodeIndexDuplicateID, "chunk id already indexed", ragerr.FieldChunkID(e.Chunk.ID))
			}
			return ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "inserting chunk %s", e.Chunk.ID)
		}

		seq, err := res.LastInsertId()
		if err != nil {
			return ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "reading chunk seq %s", e.Chunk.ID)
		}

		blob, err := sqlite_vec.SerializeFloat32(e.Vector)
		if err != nil {
			return ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "serializing embedding %s", e.Chunk.ID)
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO vectors(chunk_seq, embedding) VALUES (?, ?)`, seq, blob); err != nil {
			return ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "inserting vector %s", e.Chunk.ID)
		}
	}
	return nil
}

// Query returns the k nearest chunks under cosine similarity,
// descending. Ties are broken by insertion order: tieMargin extra
// neighbors are fetched and re-sorted on (similarity desc, seq asc)
// before truncating to k. The guarantee is bounded: a tie group larger
// than tieMargin straddling the k-boundary may still omit an earlier
// entry in favor of a later one. Widen tieMargin (or fetch
// iteratively) if exact tie handling is ever needed; real embedding
// vectors make ties that wide vanishingly rare.
func (ix *Index) Query(ctx context.Context, vector []float32, k int) ([]store.ScoredChunk, error) {
	if k < 1 {
		return nil, ragerr.Errorf(ragerr.CodeRequestInvalidArgument, "k must be >= 1, got %d", k)
	}

	count, err := ix.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	if len(vector) != ix.dimensions {
		return nil, ragerr.New(ragerr.CodeIndexDimensionMismatch,
			"query vector dimensionality does not match index",
			ragerr.Field("got", len(vector)),
			ragerr.Field("want", ix.dimensions),
		)
	}

	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "serializing query vector")
	}

	const q = `SELECT c.id, c.document_id, c.ordinal, c.text, c.start_offset, c.end_offset, c.metadata, c.seq, v.distance
FROM vectors v
JOIN chunks c ON c.seq = v.chunk_seq
WHERE v.embedding MATCH ? AND k = ?
ORDER BY v.distance`

	rows, err := ix.db.QueryContext(ctx, q, blob, k+tieMargin)
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "searching vectors")
	}
	defer func() { _ = rows.Close() }()

	type scored struct {
		sc  store.ScoredChunk
		seq int64
	}
	var results []scored
	for rows.Next() {
		var (
			c        store.Chunk
			metaStr  string
			seq      int64
			distance float64
		)
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Ordinal, &c.Text, &c.Start, &c.End, &metaStr, &seq, &distance); err != nil {
			return nil, ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "scanning search result")
		}
		if metaStr != "" && metaStr != "{}" {
			if err := json.Unmarshal([]byte(metaStr), &c.Metadata); err != nil {
				return nil, ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "unmarshalling chunk metadata %s", c.ID)
			}
		}
		results = append(results, scored{
			sc:  store.ScoredChunk{Chunk: c, Similarity: 1 - distance},
			seq: seq,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "iterating search results")
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].sc.Similarity != results[j].sc.Similarity {
			return results[i].sc.Similarity > results[j].sc.Similarity
		}
		return results[i].seq < results[j].seq
	})

	if k > len(results) {
		k = len(results)
	}
	out := make([]store.ScoredChunk, k)
	for i := range out {
		out[i] = results[i].sc
	}
	return out, nil
}

// DeleteDocument removes all chunks and vectors of one document.
func (ix *Index) DeleteDocument(ctx context.Context, documentID string) error {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "beginning delete transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteDocumentTx(ctx, tx, documentID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "committing document delete")
	}
	return nil
}

func deleteDocumentTx(ctx context.Context, tx *sql.Tx, documentID string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM vectors WHERE chunk_seq IN (SELECT seq FROM chunks WHERE document_id = ?)`,
		documentID,
	); err != nil {
		return ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "deleting vectors for document %s", documentID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentID); err != nil {
		return ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "deleting chunks for document %s", documentID)
	}
	return nil
}

// DeleteAll clears every entry, used for full re-ingestion resets.
func (ix *Index) DeleteAll(ctx context.Context) error {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "beginning clear transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vectors`); err != nil {
		return ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "clearing vectors")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "clearing chunks")
	}

	if err := tx.Commit(); err != nil {
		return ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "committing clear")
	}
	return nil
}

func (ix *Index) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := ix.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "counting chunks")
	}
	return n, nil
}

func (ix *Index) Stats(ctx context.Context) (store.Stats, error) {
	var s store.Stats
	const q = `SELECT COUNT(*), COUNT(DISTINCT document_id) FROM chunks`
	if err := ix.db.QueryRowContext(ctx, q).Scan(&s.ChunkCount, &s.DocumentCount); err != nil {
		return store.Stats{}, ragerr.Wrapf(err, ragerr.CodeIndexDatabaseFailure, "reading index stats")
	}
	return s, nil
}

func (ix *Index) Dimensions() int { return ix.dimensions }

// Close closes the underlying database connection.
func (ix *Index) Close() error {
	return ix.db.Close()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
