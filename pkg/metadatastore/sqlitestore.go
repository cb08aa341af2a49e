package metadatastore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/mimir-aip/diamond-price/pkg/models"
)

// InMemoryDSN opens a private in-memory database
const InMemoryDSN = ":memory:"

// SQLiteStore keeps the prediction log in SQLite, trimmed to a fixed number of rows
type SQLiteStore struct {
	db       *sql.DB
	capacity int
}

// NewSQLiteStore opens the log. A capacity of zero or less keeps every prediction.
func NewSQLiteStore(dsn string, capacity int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// every connection to :memory: is a separate database, so keep exactly one
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &SQLiteStore{db: db, capacity: capacity}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS predictions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		predicted_price REAL NOT NULL,
		model_fingerprint TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		data TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_predictions_fingerprint ON predictions(model_fingerprint);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SavePrediction appends a record and drops the oldest rows beyond capacity
func (s *SQLiteStore) SavePrediction(record *models.PredictionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal prediction: %w", err)
	}

	query := `
		INSERT INTO predictions (id, predicted_price, model_fingerprint, created_at, data)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.db.Exec(query,
		record.ID,
		record.PredictedPrice,
		record.ModelFingerprint,
		record.CreatedAt,
		string(data),
	); err != nil {
		return fmt.Errorf("failed to save prediction: %w", err)
	}

	if s.capacity > 0 {
		trim := `DELETE FROM predictions WHERE seq <= (SELECT MAX(seq) FROM predictions) - ?`
		if _, err := s.db.Exec(trim, s.capacity); err != nil {
			return fmt.Errorf("failed to trim prediction log: %w", err)
		}
	}

	return nil
}

// GetPrediction retrieves one record by id
func (s *SQLiteStore) GetPrediction(id string) (*models.PredictionRecord, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM predictions WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}

	var record models.PredictionRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prediction: %w", err)
	}
	return &record, nil
}

// ListRecentPredictions returns up to limit records, newest first
func (s *SQLiteStore) ListRecentPredictions(limit int) ([]*models.PredictionRecord, error) {
	query := `SELECT data FROM predictions ORDER BY seq DESC LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	defer rows.Close()

	records := make([]*models.PredictionRecord, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}

		var record models.PredictionRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal prediction: %w", err)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}

// CountPredictions returns the number of records currently held
func (s *SQLiteStore) CountPredictions() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM predictions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count predictions: %w", err)
	}
	return n, nil
}
