// Package sqlite provides SQLite database writing for transition assays
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ChrisMcGann/pepcalc/pkg/transition"
)

const (
	// Date format for HeaderTable (ISO 8601)
	headerDateFormat = "2006-01-02"
	schemaVersion    = 1
)

// Writer handles writing assays to SQLite database files
type Writer struct {
	db             *sql.DB
	tx             *sql.Tx
	outputPath     string
	peptideStmt    *sql.Stmt
	transitionStmt *sql.Stmt
	peptideID      int
	transitionID   int
	closed         bool
}

// NewWriter creates a new SQLite writer
func NewWriter(outputPath string) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{
		db:           db,
		outputPath:   outputPath,
		peptideID:    1,
		transitionID: 1,
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	return w, nil
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS PeptideTable (
		PeptideId INTEGER PRIMARY KEY,
		Sequence TEXT NOT NULL,
		ModifiedSequence TEXT,
		Protein TEXT,
		Charge INTEGER NOT NULL,
		Label TEXT,
		NeutralMass DOUBLE,
		PrecursorMz DOUBLE,
		Composition TEXT,
		Source TEXT
	);

	CREATE TABLE IF NOT EXISTS TransitionTable (
		TransitionId INTEGER PRIMARY KEY,
		PeptideId INTEGER REFERENCES PeptideTable(PeptideId),
		IonSeries TEXT NOT NULL,
		Position INTEGER,
		Charge INTEGER NOT NULL,
		Annotation TEXT,
		ProductMz DOUBLE,
		DecoyMz DOUBLE,
		Intensity DOUBLE
	);

	CREATE TABLE IF NOT EXISTS HeaderTable (
		version INTEGER NOT NULL DEFAULT 0,
		CreationDate TEXT,
		Description TEXT
	);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// prepareStatements opens the write transaction and prepares batch inserts
func (w *Writer) prepareStatements() error {
	var err error

	w.tx, err = w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	w.peptideStmt, err = w.tx.Prepare(`
		INSERT INTO PeptideTable (
			PeptideId, Sequence, ModifiedSequence, Protein, Charge,
			Label, NeutralMass, PrecursorMz, Composition, Source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		w.tx.Rollback()
		return fmt.Errorf("failed to prepare peptide statement: %w", err)
	}

	w.transitionStmt, err = w.tx.Prepare(`
		INSERT INTO TransitionTable (
			TransitionId, PeptideId, IonSeries, Position, Charge,
			Annotation, ProductMz, DecoyMz, Intensity
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		w.tx.Rollback()
		return fmt.Errorf("failed to prepare transition statement: %w", err)
	}

	return nil
}

// WriteAssay writes one peptide precursor and its transitions
func (w *Writer) WriteAssay(assay *transition.Assay) error {
	p := assay.Peptide

	_, err := w.peptideStmt.Exec(
		w.peptideID,              // PeptideId
		p.Sequence(),             // Sequence
		p.AnnotatedSequence(),    // ModifiedSequence
		p.Protein(),              // Protein
		assay.Charge,             // Charge
		string(assay.Label),      // Label
		p.Mass(),                 // NeutralMass
		assay.PrecursorMZ,        // PrecursorMz
		p.Composition().String(), // Composition
		assay.Source,             // Source
	)
	if err != nil {
		return fmt.Errorf("failed to insert peptide: %w", err)
	}

	for _, tr := range assay.Transitions {
		// 0 means no decoy was computed
		var decoy interface{}
		if tr.DecoyMZ != 0 {
			decoy = tr.DecoyMZ
		}

		_, err := w.transitionStmt.Exec(
			w.transitionID,         // TransitionId
			w.peptideID,            // PeptideId
			tr.Ion.Series.String(), // IonSeries
			tr.Ion.Position,        // Position
			tr.Ion.Charge,          // Charge
			tr.Annotation,          // Annotation
			tr.MZ,                  // ProductMz
			decoy,                  // DecoyMz
			tr.Intensity,           // Intensity
		)
		if err != nil {
			return fmt.Errorf("failed to insert transition %s: %w", tr.Annotation, err)
		}
		w.transitionID++
	}

	w.peptideID++
	return nil
}

// Count returns the number of peptides written so far
func (w *Writer) Count() int {
	return w.peptideID - 1
}

// Finalize writes the header table, commits and closes the database
func (w *Writer) Finalize() error {
	if w.closed {
		return nil
	}
	w.closed = true

	// Close prepared statements
	if w.peptideStmt != nil {
		w.peptideStmt.Close()
	}
	if w.transitionStmt != nil {
		w.transitionStmt.Close()
	}

	_, err := w.tx.Exec(`
		INSERT INTO HeaderTable (version, CreationDate, Description)
		VALUES (?, ?, ?)
	`, schemaVersion, time.Now().Format(headerDateFormat), fmt.Sprintf("pepcalc assays: %d peptides", w.Count()))
	if err != nil {
		w.tx.Rollback()
		w.db.Close()
		return fmt.Errorf("failed to insert header: %w", err)
	}

	if err := w.tx.Commit(); err != nil {
		w.db.Close()
		return fmt.Errorf("failed to commit: %w", err)
	}

	// Close database
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// Close closes the database connection (alias for Finalize)
func (w *Writer) Close() error {
	return w.Finalize()
}
