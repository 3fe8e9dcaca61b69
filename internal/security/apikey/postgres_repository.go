package apikey

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	uuid "github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lucinametrics/lucina-service-api/v5/internal/utils/dbutils"
)

const table = "api_keys_v1"

var fields = []string{"id", "name", "role", "key_prefix", "key_hash", "created_at", "expires_at", "is_active", "created_by"}

// PostgresRepository is a repository containing the API key data based on a PSQL database and
// implementing the repository interface
type PostgresRepository struct {
	conn *sqlx.DB
}

// NewPostgresRepository returns a new instance of PostgresRepository
func NewPostgresRepository(dbClient *sqlx.DB) Repository {
	r := PostgresRepository{
		conn: dbClient,
	}
	var ifm Repository = &r
	return ifm
}

// Get retrieves and returns an APIKey from the repository by its id
func (r *PostgresRepository) Get(keyUUID uuid.UUID) (APIKey, bool, error) {
	rows, err := r.newStatement().
		Select(fields...).
		From(table).
		Where(sq.Eq{"id": keyUUID}).
		Query()
	if err != nil {
		return APIKey{}, false, err
	}
	defer rows.Close()
	return dbutils.ScanFirst(rows, r.scan)
}

// Create creates a new APIKey in the repository. The key value itself is never
// stored, only its hash and lookup prefix.
func (r *PostgresRepository) Create(key APIKey) (uuid.UUID, error) {
	_, err := r.newStatement().
		Insert(table).
		Columns(fields...).
		Values(
			key.ID,
			key.Name,
			key.Role,
			key.KeyPrefix,
			key.KeyHash,
			key.CreatedAt,
			key.ExpiresAt,
			key.IsActive,
			key.CreatedBy,
		).
		Exec()
	if err != nil {
		return uuid.UUID{}, err
	}
	return key.ID, nil
}

// Update updates the mutable attributes of an APIKey in the repository.
// The hash and prefix are immutable, a compromised key must be recreated.
func (r *PostgresRepository) Update(key APIKey) error {
	result, err := r.newStatement().
		Update(table).
		Set("name", key.Name).
		Set("role", key.Role).
		Set("expires_at", key.ExpiresAt).
		Set("is_active", key.IsActive).
		Where(sq.Eq{"id": key.ID}).
		Exec()
	if err != nil {
		return err
	}
	return dbutils.CheckRowAffected(result, 1)
}

// Delete deletes an APIKey from the repository
func (r *PostgresRepository) Delete(keyUUID uuid.UUID) error {
	result, err := r.newStatement().
		Delete(table).
		Where(sq.Eq{"id": keyUUID}).
		Exec()
	if err != nil {
		return err
	}
	return dbutils.CheckRowAffected(result, 1)
}

// Deactivate deactivates an APIKey without deleting it
func (r *PostgresRepository) Deactivate(keyUUID uuid.UUID) error {
	result, err := r.newStatement().
		Update(table).
		Set("is_active", false).
		Where(sq.Eq{"id": keyUUID}).
		Exec()
	if err != nil {
		return err
	}
	return dbutils.CheckRowAffected(result, 1)
}

// GetAll retrieves all APIKeys from the repository, ordered by name
func (r *PostgresRepository) GetAll() ([]APIKey, error) {
	rows, err := r.newStatement().
		Select(fields...).
		From(table).
		OrderBy("name").
		Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return dbutils.ScanAll(rows, r.scan)
}

// Validate looks up the active keys sharing the input value prefix and returns
// the one whose hash matches the full value, if it is still usable
func (r *PostgresRepository) Validate(keyValue string) (APIKey, bool, error) {
	if len(keyValue) < PrefixLength {
		return APIKey{}, false, nil
	}

	rows, err := r.newStatement().
		Select(fields...).
		From(table).
		Where(sq.Eq{"key_prefix": keyValue[:PrefixLength], "is_active": true}).
		Query()
	if err != nil {
		return APIKey{}, false, err
	}
	defer rows.Close()

	keys, err := dbutils.ScanAll(rows, r.scan)
	if err != nil {
		return APIKey{}, false, err
	}
	for _, key := range keys {
		if key.IsUsable() && key.Matches(keyValue) {
			return key, true, nil
		}
	}
	return APIKey{}, false, nil
}

func (r *PostgresRepository) newStatement() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).RunWith(r.conn.DB)
}

func (r *PostgresRepository) scan(rows *sql.Rows) (APIKey, error) {
	var key APIKey
	err := rows.Scan(&key.ID, &key.Name, &key.Role, &key.KeyPrefix, &key.KeyHash,
		&key.CreatedAt, &key.ExpiresAt, &key.IsActive, &key.CreatedBy)
	if err != nil {
		return APIKey{}, err
	}
	return key, nil
}
