package rule

import (
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lucinametrics/lucina-service-api/v5/internal/utils/dbutils"
)

const table = "rules_v1"

var fields = []string{"id", "name", "description", "expression", "enabled", "created", "last_modified"}

// PostgresRepository is a repository containing the alert rules based on a PSQL database and
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

// CheckByName returns if at least one row exists with the input rule name
func (r *PostgresRepository) CheckByName(name string) (bool, error) {
	var exists bool
	checkNameQuery := `select exists(select 1 from rules_v1 where name = $1) AS "exists"`
	err := r.conn.QueryRow(checkNameQuery, name).Scan(&exists)
	if err != nil && err != sql.ErrNoRows {
		return false, err
	}
	return exists, nil
}

// Create creates a new Rule in the repository
func (r *PostgresRepository) Create(rule Rule) (int64, error) {
	t := time.Now().Truncate(1 * time.Millisecond).UTC()
	var id int64
	err := r.newStatement().
		Insert(table).
		Columns("name", "description", "expression", "enabled", "created", "last_modified").
		Values(rule.Name, rule.Description, rule.Expression, rule.Enabled, t, t).
		Suffix("RETURNING \"id\"").
		QueryRow().
		Scan(&id)
	if err != nil {
		return -1, err
	}
	return id, nil
}

// Get search and returns a Rule from the repository by its id
func (r *PostgresRepository) Get(id int64) (Rule, bool, error) {
	rows, err := r.newStatement().
		Select(fields...).
		From(table).
		Where(sq.Eq{"id": id}).
		Query()
	if err != nil {
		return Rule{}, false, err
	}
	defer rows.Close()
	return dbutils.ScanFirst(rows, r.scan)
}

// GetByName search and returns a Rule from the repository by its name
func (r *PostgresRepository) GetByName(name string) (Rule, bool, error) {
	rows, err := r.newStatement().
		Select(fields...).
		From(table).
		Where(sq.Eq{"name": name}).
		Query()
	if err != nil {
		return Rule{}, false, err
	}
	defer rows.Close()
	return dbutils.ScanFirst(rows, r.scan)
}

// Update updates a Rule in the repository
func (r *PostgresRepository) Update(rule Rule) error {
	_, err := r.newStatement().
		Update(table).
		Set("name", rule.Name).
		Set("description", rule.Description).
		Set("expression", rule.Expression).
		Set("enabled", rule.Enabled).
		Set("last_modified", time.Now().Truncate(1*time.Millisecond).UTC()).
		Where(sq.Eq{"id": rule.ID}).
		Exec()
	if err != nil {
		return err
	}
	return nil
}

// Delete deletes a Rule in the repository
func (r *PostgresRepository) Delete(id int64) error {
	_, err := r.newStatement().
		Delete(table).
		Where(sq.Eq{"id": id}).
		Exec()
	if err != nil {
		return err
	}
	return nil
}

// GetAll returns all Rules in the repository
func (r *PostgresRepository) GetAll() (map[int64]Rule, error) {
	rows, err := r.newStatement().
		Select(fields...).
		From(table).
		Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make(map[int64]Rule)
	for rows.Next() {
		rule, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		rules[rule.ID] = rule
	}
	return rules, nil
}

// GetAllEnabled returns the enabled Rules in the repository, ordered by name
func (r *PostgresRepository) GetAllEnabled() ([]Rule, error) {
	rows, err := r.newStatement().
		Select(fields...).
		From(table).
		Where(sq.Eq{"enabled": true}).
		OrderBy("name").
		Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return dbutils.ScanAll(rows, r.scan)
}

// scan scans a row into a Rule struct
func (r *PostgresRepository) scan(rows *sql.Rows) (Rule, error) {
	var rule Rule
	err := rows.Scan(&rule.ID, &rule.Name, &rule.Description, &rule.Expression,
		&rule.Enabled, &rule.Created, &rule.LastModified)
	if err != nil {
		return Rule{}, err
	}
	return rule, nil
}

// newStatement creates a new statement builder with Dollar format
func (r *PostgresRepository) newStatement() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).RunWith(r.conn.DB)
}
