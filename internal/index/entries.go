package index

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/1rns/obsidian-math-booster/internal/model"
	"github.com/1rns/obsidian-math-booster/internal/paths"
)

// UpsertDocument replaces the entry set for a document atomically. The
// document row is created on first upsert and keeps its integer ID for
// the rest of its life; only declarations and headings are rewritten.
func (d *Database) UpsertDocument(relPath string, decls []model.Declaration, outline []model.Heading, fileMtime int64) error {
	relPath = paths.NormalizeRel(relPath)

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ts := now()
	mtime := fileMtime
	if mtime == 0 {
		mtime = ts
	}

	docID, err := upsertDocumentRow(tx, relPath, mtime, ts)
	if err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM declarations WHERE doc_id = ?", docID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM headings WHERE doc_id = ?", docID); err != nil {
		return err
	}

	if err := insertDeclarations(tx, docID, decls); err != nil {
		return err
	}
	if err := insertHeadings(tx, docID, outline); err != nil {
		return err
	}

	return tx.Commit()
}

func upsertDocumentRow(tx *sql.Tx, relPath string, mtime, indexedAt int64) (int64, error) {
	res, err := tx.Exec(`
		INSERT INTO documents (path, file_mtime, indexed_at)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET file_mtime = excluded.file_mtime, indexed_at = excluded.indexed_at
	`, relPath, mtime, indexedAt)
	if err != nil {
		return 0, err
	}

	// LastInsertId is unreliable on conflict-update; read back the ID.
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		var path string
		if err := tx.QueryRow("SELECT path FROM documents WHERE id = ?", id).Scan(&path); err == nil && path == relPath {
			return id, nil
		}
	}

	var docID int64
	if err := tx.QueryRow("SELECT id FROM documents WHERE path = ?", relPath).Scan(&docID); err != nil {
		return 0, err
	}
	return docID, nil
}

func insertDeclarations(tx *sql.Tx, docID int64, decls []model.Declaration) error {
	stmt, err := tx.Prepare(`
		INSERT INTO declarations
			(doc_id, position, kind, sub_kind, label, explicit, title, number, manual_tag,
			 line_start, line_end, offset_start, offset_end)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for pos, decl := range decls {
		explicit := 0
		if decl.Label != "" {
			explicit = 1
		}
		if _, err := stmt.Exec(
			docID,
			pos,
			string(decl.Kind),
			decl.SubKind,
			decl.LocalID,
			explicit,
			decl.Title,
			decl.Number,
			decl.ManualTag,
			decl.LineStart,
			decl.LineEnd,
			decl.StartOffset,
			decl.EndOffset,
		); err != nil {
			return err
		}
	}
	return nil
}

func insertHeadings(tx *sql.Tx, docID int64, outline []model.Heading) error {
	stmt, err := tx.Prepare(`
		INSERT INTO headings (doc_id, position, level, text, line)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for pos, h := range outline {
		if _, err := stmt.Exec(docID, pos, h.Level, h.Text, h.Line); err != nil {
			return err
		}
	}
	return nil
}

// RemoveDocument removes a document and all its entries.
func (d *Database) RemoveDocument(relPath string) error {
	relPath = paths.NormalizeRel(relPath)

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var docID int64
	err = tx.QueryRow("SELECT id FROM documents WHERE path = ?", relPath).Scan(&docID)
	if err == sql.ErrNoRows {
		return nil // already gone
	}
	if err != nil {
		return err
	}

	// ON DELETE CASCADE requires foreign_keys pragma; delete explicitly.
	if _, err := tx.Exec("DELETE FROM declarations WHERE doc_id = ?", docID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM headings WHERE doc_id = ?", docID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM documents WHERE id = ?", docID); err != nil {
		return err
	}

	return tx.Commit()
}

// RenameDocument rewrites the path of a document. Declarations and their
// numbers are untouched: they key on the document's stable integer ID.
func (d *Database) RenameDocument(oldPath, newPath string) error {
	oldPath = paths.NormalizeRel(oldPath)
	newPath = paths.NormalizeRel(newPath)

	res, err := d.db.Exec("UPDATE documents SET path = ? WHERE path = ?", newPath, oldPath)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

const entryColumns = `
	d.path, dec.label, dec.explicit, dec.kind, dec.sub_kind, dec.title, dec.number,
	dec.line_start, dec.line_end, dec.offset_start, dec.offset_end
`

// Lookup finds an entry by its fully-qualified label
// ("notes/analysis#thm:main"). A miss returns ErrEntryNotFound, never an
// exception: a broken reference is a normal, displayable state.
func (d *Database) Lookup(qualifiedLabel string) (model.Entry, error) {
	docID, localID := model.SplitQualifiedLabel(qualifiedLabel)
	if localID == "" {
		return model.Entry{}, ErrEntryNotFound
	}

	row := d.db.QueryRow(`
		SELECT `+entryColumns+`
		FROM declarations dec JOIN documents d ON d.id = dec.doc_id
		WHERE d.path = ? AND dec.label = ?
	`, paths.DocumentIDToFile(docID), localID)

	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return model.Entry{}, ErrEntryNotFound
	}
	return e, err
}

// EntriesForDocument returns a document's entries in declaration order.
func (d *Database) EntriesForDocument(relPath string) ([]model.Entry, error) {
	rows, err := d.db.Query(`
		SELECT `+entryColumns+`
		FROM declarations dec JOIN documents d ON d.id = dec.doc_id
		WHERE d.path = ?
		ORDER BY dec.position
	`, paths.NormalizeRel(relPath))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// AllEntries returns every entry in the index, ordered by document path
// then declaration order.
func (d *Database) AllEntries() ([]model.Entry, error) {
	rows, err := d.db.Query(`
		SELECT ` + entryColumns + `
		FROM declarations dec JOIN documents d ON d.id = dec.doc_id
		ORDER BY d.path, dec.position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (model.Entry, error) {
	var e model.Entry
	var explicit int
	var kind string
	err := row.Scan(
		&e.FilePath, &e.LocalID, &explicit, &kind, &e.SubKind, &e.Title, &e.Number,
		&e.LineStart, &e.LineEnd, &e.StartOffset, &e.EndOffset,
	)
	if err != nil {
		return model.Entry{}, err
	}
	e.DocumentID = model.DocumentID(e.FilePath)
	e.Explicit = explicit != 0
	e.Kind = model.Kind(kind)
	return e, nil
}

func scanEntries(rows *sql.Rows) ([]model.Entry, error) {
	var entries []model.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DocumentDeclarations loads a document's stored declarations and
// outline. The pipeline uses this to re-number after a settings change
// without re-scanning the file.
func (d *Database) DocumentDeclarations(relPath string) ([]model.Declaration, []model.Heading, error) {
	relPath = paths.NormalizeRel(relPath)

	var docID int64
	err := d.db.QueryRow("SELECT id FROM documents WHERE path = ?", relPath).Scan(&docID)
	if err == sql.ErrNoRows {
		return nil, nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := d.db.Query(`
		SELECT kind, sub_kind, label, explicit, title, number, manual_tag,
		       line_start, line_end, offset_start, offset_end
		FROM declarations WHERE doc_id = ? ORDER BY position
	`, docID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var decls []model.Declaration
	for rows.Next() {
		var decl model.Declaration
		var kind string
		var explicit int
		if err := rows.Scan(
			&kind, &decl.SubKind, &decl.LocalID, &explicit, &decl.Title, &decl.Number,
			&decl.ManualTag, &decl.LineStart, &decl.LineEnd, &decl.StartOffset, &decl.EndOffset,
		); err != nil {
			return nil, nil, err
		}
		decl.Kind = model.Kind(kind)
		if explicit != 0 {
			decl.Label = decl.LocalID
		}
		if decl.ManualTag == "" && decl.Number == "" {
			decl.NoNumber = true
		}
		decls = append(decls, decl)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	hrows, err := d.db.Query(`
		SELECT level, text, line FROM headings WHERE doc_id = ? ORDER BY position
	`, docID)
	if err != nil {
		return nil, nil, err
	}
	defer hrows.Close()

	var outline []model.Heading
	for hrows.Next() {
		var h model.Heading
		if err := hrows.Scan(&h.Level, &h.Text, &h.Line); err != nil {
			return nil, nil, err
		}
		outline = append(outline, h)
	}
	return decls, outline, hrows.Err()
}

// UpdateNumbers rewrites the numbers of a document's declarations in one
// transaction, matched by label. Used by the settings-change path, where
// declarations did not change but their numbers did.
func (d *Database) UpdateNumbers(relPath string, decls []model.Declaration) error {
	relPath = paths.NormalizeRel(relPath)

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var docID int64
	err = tx.QueryRow("SELECT id FROM documents WHERE path = ?", relPath).Scan(&docID)
	if err == sql.ErrNoRows {
		return ErrDocumentNotFound
	}
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare("UPDATE declarations SET number = ? WHERE doc_id = ? AND label = ?")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, decl := range decls {
		if _, err := stmt.Exec(decl.Number, docID, decl.LocalID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// AllDocumentPaths returns all indexed document paths, sorted.
func (d *Database) AllDocumentPaths() ([]string, error) {
	rows, err := d.db.Query("SELECT path FROM documents ORDER BY path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkVisited records a document visit for recency ranking.
func (d *Database) MarkVisited(relPath string) error {
	_, err := d.db.Exec("UPDATE documents SET visited_at = ? WHERE path = ?",
		now(), paths.NormalizeRel(relPath))
	return err
}

// RecentDocuments returns up to limit document paths ordered most
// recently visited first. Documents never visited are omitted.
func (d *Database) RecentDocuments(limit int) ([]string, error) {
	rows, err := d.db.Query(`
		SELECT path FROM documents
		WHERE visited_at IS NOT NULL
		ORDER BY visited_at DESC, path
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Stats returns statistics about the index.
func (d *Database) Stats() (*IndexStats, error) {
	var stats IndexStats

	if err := d.db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&stats.DocumentCount); err != nil {
		return nil, err
	}
	if err := d.db.QueryRow("SELECT COUNT(*) FROM declarations").Scan(&stats.DeclarationCount); err != nil {
		return nil, err
	}
	if err := d.db.QueryRow(
		"SELECT COUNT(*) FROM declarations WHERE kind = ?", string(model.KindEquation),
	).Scan(&stats.EquationCount); err != nil {
		return nil, err
	}
	stats.TheoremCount = stats.DeclarationCount - stats.EquationCount

	return &stats, nil
}

// IndexStats contains index statistics.
type IndexStats struct {
	DocumentCount    int `json:"document_count"`
	DeclarationCount int `json:"declaration_count"`
	TheoremCount     int `json:"theorem_count"`
	EquationCount    int `json:"equation_count"`
}

// GetFileMtime returns the indexed mtime for a document, or 0 if the
// document is not indexed.
func (d *Database) GetFileMtime(relPath string) (int64, error) {
	var mtime sql.NullInt64
	err := d.db.QueryRow("SELECT file_mtime FROM documents WHERE path = ?",
		paths.NormalizeRel(relPath)).Scan(&mtime)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !mtime.Valid {
		return 0, nil
	}
	return mtime.Int64, nil
}

// IsFileStale checks whether a document needs reindexing: not indexed
// yet, deleted on disk, or modified after its indexed mtime.
func (d *Database) IsFileStale(vaultPath, relPath string) (bool, error) {
	indexedMtime, err := d.GetFileMtime(relPath)
	if err != nil {
		return false, err
	}
	if indexedMtime == 0 {
		return true, nil
	}

	stat, err := os.Stat(filepath.Join(vaultPath, relPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return false, err
	}

	return stat.ModTime().Unix() > indexedMtime, nil
}

// RemoveDeletedFiles removes entries for documents that no longer exist
// on disk. Returns the removed paths.
func (d *Database) RemoveDeletedFiles(vaultPath string) ([]string, error) {
	indexed, err := d.AllDocumentPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to list indexed paths: %w", err)
	}

	var removed []string
	for _, relPath := range indexed {
		if _, err := os.Stat(filepath.Join(vaultPath, relPath)); os.IsNotExist(err) {
			if err := d.RemoveDocument(relPath); err != nil {
				return removed, fmt.Errorf("failed to remove %s: %w", relPath, err)
			}
			removed = append(removed, relPath)
		}
	}

	return removed, nil
}
