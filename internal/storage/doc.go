// Package storage provides a SQLite journal of segmentation and chunking runs.
//
// Every pipeline run can be recorded as a document with its sentences and the
// bounded chunks cut from each sentence. Re-running the same text under the
// same settings can then be answered from the journal by content hash and
// configuration fingerprint.
//
// # Database Schema
//
// Tables:
//   - documents: one row per run (run id, SHA-256 of the input, settings
//     fingerprint, counts)
//   - sentences: segmented sentences in stream order
//   - chunks: phoneme chunks per sentence, with length and truncation flag
//   - schema_version: applied migrations
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("speechsplit.db")
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	doc := &storage.Document{RunID: runID, ContentHash: sha256.Sum256(text)}
//	if err := db.CreateDocument(ctx, doc); err != nil {
//	    return err
//	}
//
// # Transactions
//
// A sentence and its chunks are written atomically:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	sentence := &storage.Sentence{DocumentID: doc.ID, Seq: 0, Text: text}
//	if err := tx.InsertSentence(ctx, sentence); err != nil {
//	    return err
//	}
//	for _, c := range chunks {
//	    if err := tx.InsertChunk(ctx, storage.FromTypesChunk(c, sentence.ID)); err != nil {
//	        return err
//	    }
//	}
//	return tx.Commit()
//
// # Build Modes
//
// The default build uses modernc.org/sqlite, a pure Go driver. Building with
// the sqlite_cgo tag switches to github.com/mattn/go-sqlite3:
//
//	CGO_ENABLED=1 go build -tags sqlite_cgo ./...
//
// # Migrations
//
// Migrations are versioned with semantic versions and applied in order on
// open. SchemaVersion reports the highest applied version.
package storage
