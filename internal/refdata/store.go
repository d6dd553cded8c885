package refdata

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"fieldcap/internal/config"
)

// DBFileName is the reference-data database file under the data directory.
const DBFileName = "refdata.db"

//go:embed schema.sql
var schemaSQL string

// Supplier is a locally cached supplier record. RemoteID and Synced are set
// once the remote side has acknowledged the record.
type Supplier struct {
	ID             string
	OrgID          string
	Name           string
	NormalizedName string
	RemoteID       string
	Synced         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Model is a locally cached model record, optionally tied to a supplier.
type Model struct {
	ID             string
	OrgID          string
	SupplierID     string
	Name           string
	NormalizedName string
	RemoteID       string
	Synced         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Store manages the reference-data cache backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the reference-data database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, DBFileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open refdata db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create refdata schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// FindSupplier looks up a supplier by organization and normalized name.
func (s *Store) FindSupplier(ctx context.Context, orgID, normalized string) (*Supplier, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, org_id, name, normalized_name, remote_id, synced, created_at, updated_at
         FROM suppliers WHERE org_id = ? AND normalized_name = ?`,
		orgID, normalized,
	)
	supplier, err := scanSupplier(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find supplier: %w", err)
	}
	return supplier, nil
}

// InsertSupplier stores a new supplier row.
func (s *Store) InsertSupplier(ctx context.Context, supplier *Supplier) error {
	timestamp := time.Now().UTC()
	supplier.CreatedAt = timestamp
	supplier.UpdatedAt = timestamp
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO suppliers (id, org_id, name, normalized_name, remote_id, synced, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		supplier.ID,
		supplier.OrgID,
		supplier.Name,
		supplier.NormalizedName,
		nullable(supplier.RemoteID),
		boolToInt(supplier.Synced),
		timestamp.Format(time.RFC3339Nano),
		timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert supplier: %w", err)
	}
	return nil
}

// MarkSupplierSynced records the remote acknowledgement for a supplier.
func (s *Store) MarkSupplierSynced(ctx context.Context, id, remoteID string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE suppliers SET remote_id = ?, synced = 1, updated_at = ? WHERE id = ?`,
		nullable(remoteID),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark supplier synced: %w", err)
	}
	return nil
}

// ListSuppliers returns every cached supplier for an organization, sorted by
// display name.
func (s *Store) ListSuppliers(ctx context.Context, orgID string) ([]*Supplier, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, org_id, name, normalized_name, remote_id, synced, created_at, updated_at
         FROM suppliers WHERE org_id = ? ORDER BY name`,
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []*Supplier
	for rows.Next() {
		supplier, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, supplier)
	}
	return suppliers, rows.Err()
}

// FindModel looks up a model by organization and normalized name.
func (s *Store) FindModel(ctx context.Context, orgID, normalized string) (*Model, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, org_id, supplier_id, name, normalized_name, remote_id, synced, created_at, updated_at
         FROM models WHERE org_id = ? AND normalized_name = ?`,
		orgID, normalized,
	)
	model, err := scanModel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find model: %w", err)
	}
	return model, nil
}

// InsertModel stores a new model row.
func (s *Store) InsertModel(ctx context.Context, model *Model) error {
	timestamp := time.Now().UTC()
	model.CreatedAt = timestamp
	model.UpdatedAt = timestamp
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO models (id, org_id, supplier_id, name, normalized_name, remote_id, synced, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		model.ID,
		model.OrgID,
		nullable(model.SupplierID),
		model.Name,
		model.NormalizedName,
		nullable(model.RemoteID),
		boolToInt(model.Synced),
		timestamp.Format(time.RFC3339Nano),
		timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert model: %w", err)
	}
	return nil
}

// MarkModelSynced records the remote acknowledgement for a model.
func (s *Store) MarkModelSynced(ctx context.Context, id, remoteID string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE models SET remote_id = ?, synced = 1, updated_at = ? WHERE id = ?`,
		nullable(remoteID),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark model synced: %w", err)
	}
	return nil
}

// ListModels returns every cached model for an organization, sorted by name.
func (s *Store) ListModels(ctx context.Context, orgID string) ([]*Model, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, org_id, supplier_id, name, normalized_name, remote_id, synced, created_at, updated_at
         FROM models WHERE org_id = ? ORDER BY name`,
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()

	var models []*Model
	for rows.Next() {
		model, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		models = append(models, model)
	}
	return models, rows.Err()
}

// ErrDuplicate reports that a row with the same normalized name already
// exists for the organization.
var ErrDuplicate = errors.New("reference record already exists")

func scanSupplier(scanner interface{ Scan(dest ...any) error }) (*Supplier, error) {
	var (
		supplier   Supplier
		remoteID   sql.NullString
		synced     sql.NullInt64
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&supplier.ID,
		&supplier.OrgID,
		&supplier.Name,
		&supplier.NormalizedName,
		&remoteID,
		&synced,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	supplier.RemoteID = remoteID.String
	supplier.Synced = synced.Valid && synced.Int64 != 0
	supplier.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdRaw)
	supplier.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedRaw)
	return &supplier, nil
}

func scanModel(scanner interface{ Scan(dest ...any) error }) (*Model, error) {
	var (
		model      Model
		supplierID sql.NullString
		remoteID   sql.NullString
		synced     sql.NullInt64
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&model.ID,
		&model.OrgID,
		&supplierID,
		&model.Name,
		&model.NormalizedName,
		&remoteID,
		&synced,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	model.SupplierID = supplierID.String
	model.RemoteID = remoteID.String
	model.Synced = synced.Valid && synced.Int64 != 0
	model.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdRaw)
	model.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedRaw)
	return &model, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
