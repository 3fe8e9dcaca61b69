package history

import (
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lucinametrics/lucina-service-api/v5/internal/supervisor"
	"github.com/lucinametrics/lucina-service-api/v5/internal/utils/dbutils"
)

const table = "service_status_history_v1"

var fields = []string{"id", "service_id", "service_name", "from_status", "to_status", "message", "occurred_at"}

// PostgresRepository is a repository containing the service status history based on a PSQL database and
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

// Create inserts a new status record in the repository
func (r *PostgresRepository) Create(record Record) (int64, error) {
	var id int64
	err := r.newStatement().
		Insert(table).
		Columns("service_id", "service_name", "from_status", "to_status", "message", "occurred_at").
		Values(record.ServiceID,
			record.ServiceName,
			record.FromStatus.String(),
			record.ToStatus.String(),
			record.Message,
			record.OccurredAt,
		).
		Suffix("RETURNING \"id\"").
		QueryRow().
		Scan(&id)
	if err != nil {
		return -1, err
	}
	return id, nil
}

// Get search and returns a status record from the repository by its id
func (r *PostgresRepository) Get(id int64) (Record, bool, error) {
	rows, err := r.newStatement().
		Select(fields...).
		From(table).
		Where(sq.Eq{"id": id}).
		Query()
	if err != nil {
		return Record{}, false, err
	}
	defer rows.Close()
	return dbutils.ScanFirst(rows, r.scan)
}

// GetAll returns a page of status records ordered by descending occurrence time
func (r *PostgresRepository) GetAll(options dbutils.DBQueryOptionnal) ([]Record, error) {
	return r.query(r.newStatement().
		Select(fields...).
		From(table), options)
}

// GetAllByServiceID returns a page of status records of a single service
// ordered by descending occurrence time
func (r *PostgresRepository) GetAllByServiceID(serviceID uuid.UUID, options dbutils.DBQueryOptionnal) ([]Record, error) {
	return r.query(r.newStatement().
		Select(fields...).
		From(table).
		Where(sq.Eq{"service_id": serviceID}), options)
}

// PurgeOlderThan deletes the status records older than the input age
// and returns the number of deleted records
func (r *PostgresRepository) PurgeOlderThan(maxAge time.Duration) (int64, error) {
	result, err := r.newStatement().
		Delete(table).
		Where(sq.Lt{"occurred_at": time.Now().UTC().Add(-maxAge)}).
		Exec()
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *PostgresRepository) query(statement sq.SelectBuilder, options dbutils.DBQueryOptionnal) ([]Record, error) {
	statement = statement.OrderBy("occurred_at DESC", "id DESC")
	if options.MaxAge > 0 {
		statement = statement.Where(sq.Gt{"occurred_at": time.Now().UTC().Add(-options.MaxAge)})
	}
	if options.Limit > 0 {
		statement = statement.Limit(uint64(options.Limit))
	}
	if options.Offset > 0 {
		statement = statement.Offset(uint64(options.Offset))
	}
	rows, err := statement.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return dbutils.ScanAll(rows, r.scan)
}

// scan scans a row into a Record struct
func (r *PostgresRepository) scan(rows *sql.Rows) (Record, error) {
	var record Record
	var fromStatus string
	var toStatus string
	err := rows.Scan(&record.ID, &record.ServiceID, &record.ServiceName, &fromStatus,
		&toStatus, &record.Message, &record.OccurredAt)
	if err != nil {
		return Record{}, err
	}
	record.FromStatus = supervisor.ToStatus(fromStatus)
	record.ToStatus = supervisor.ToStatus(toStatus)
	return record, nil
}

// newStatement creates a new statement builder with Dollar format
func (r *PostgresRepository) newStatement() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).RunWith(r.conn.DB)
}
