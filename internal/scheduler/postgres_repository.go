package scheduler

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/lucinametrics/lucina-service-api/v5/internal/utils/dbutils"
)

const table = "job_schedules_v1"

var fields = []string{"id", "name", "cronexpr", "job_type", "job_data", "enabled"}

// PostgresRepository is a repository containing the job schedules based on a PSQL database and
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

// Create creates a new schedule in the repository
func (r *PostgresRepository) Create(schedule InternalSchedule) (int64, error) {
	t := time.Now().Truncate(1 * time.Millisecond).UTC()
	jobData, err := json.Marshal(schedule.Job)
	if err != nil {
		return -1, fmt.Errorf("failed to marshal the job of schedule %d: %w", schedule.ID, err)
	}

	var id int64
	err = r.newStatement().
		Insert(table).
		Columns("name", "cronexpr", "job_type", "job_data", "enabled", "last_modified").
		Values(schedule.Name, schedule.CronExpr, schedule.JobType, string(jobData), schedule.Enabled, t).
		Suffix("RETURNING \"id\"").
		QueryRow().
		Scan(&id)
	if err != nil {
		return -1, err
	}
	return id, nil
}

// Get search and returns a job schedule from the repository by its id
func (r *PostgresRepository) Get(id int64) (InternalSchedule, bool, error) {
	rows, err := r.newStatement().
		Select(fields...).
		From(table).
		Where(sq.Eq{"id": id}).
		Query()
	if err != nil {
		return InternalSchedule{}, false, err
	}
	defer rows.Close()
	return dbutils.ScanFirst(rows, r.scan)
}

// Update updates a schedule in the repository
func (r *PostgresRepository) Update(schedule InternalSchedule) error {
	t := time.Now().Truncate(1 * time.Millisecond).UTC()
	jobData, err := json.Marshal(schedule.Job)
	if err != nil {
		return fmt.Errorf("failed to marshal the job of schedule %d: %w", schedule.ID, err)
	}

	result, err := r.newStatement().
		Update(table).
		Set("name", schedule.Name).
		Set("cronexpr", schedule.CronExpr).
		Set("job_type", schedule.JobType).
		Set("job_data", string(jobData)).
		Set("enabled", schedule.Enabled).
		Set("last_modified", t).
		Where(sq.Eq{"id": schedule.ID}).
		Exec()
	if err != nil {
		return err
	}
	return dbutils.CheckRowAffected(result, 1)
}

// Delete deletes an entry from the repository by its ID
func (r *PostgresRepository) Delete(id int64) error {
	result, err := r.newStatement().
		Delete(table).
		Where(sq.Eq{"id": id}).
		Exec()
	if err != nil {
		return err
	}
	return dbutils.CheckRowAffected(result, 1)
}

// GetAll returns all job schedules in the repository
func (r *PostgresRepository) GetAll() (map[int64]InternalSchedule, error) {
	rows, err := r.newStatement().
		Select(fields...).
		From(table).
		Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := make(map[int64]InternalSchedule)
	for rows.Next() {
		schedule, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		schedules[schedule.ID] = schedule
	}
	return schedules, rows.Err()
}

// scan scans a row into an InternalSchedule struct, rebuilding the typed job from its json data
func (r *PostgresRepository) scan(rows *sql.Rows) (InternalSchedule, error) {
	var schedule InternalSchedule
	var jobData string
	err := rows.Scan(&schedule.ID, &schedule.Name, &schedule.CronExpr, &schedule.JobType, &jobData, &schedule.Enabled)
	if err != nil {
		return InternalSchedule{}, err
	}

	job, err := UnmarshalInternalJob(schedule.JobType, []byte(jobData), schedule.ID)
	if err != nil {
		return InternalSchedule{}, err
	}
	schedule.Job = job

	return schedule, nil
}

// newStatement creates a new statement builder with Dollar format
func (r *PostgresRepository) newStatement() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).RunWith(r.conn.DB)
}
