package users

import (
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lucinametrics/lucina-service-api/v5/internal/utils/dbutils"
	"golang.org/x/crypto/bcrypt"
)

const table = "users_v1"

var fields = []string{"id", "login", "role", "created", "last_name", "first_name", "email", "phone"}

// PostgresRepository is a repository containing the user data based on a PSQL database and
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

// Authenticate checks the input credentials and returns the matching user when the password matches
func (r *PostgresRepository) Authenticate(login string, password string) (User, bool, error) {
	rows, err := r.newStatement().
		Select(append(fields, "password")...).
		From(table).
		Where(sq.Eq{"login": login}).
		Query()
	if err != nil {
		return User{}, false, err
	}
	defer rows.Close()

	user, found, err := dbutils.ScanFirst(rows, r.scanWithPassword)
	if err != nil {
		return User{}, false, err
	}
	if !found {
		return User{}, false, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return User{}, false, nil
	}
	return user.User, true, nil
}

// Get search and returns an User from the repository by its id
func (r *PostgresRepository) Get(userUUID uuid.UUID) (User, bool, error) {
	rows, err := r.newStatement().
		Select(fields...).
		From(table).
		Where(sq.Eq{"id": userUUID}).
		Query()
	if err != nil {
		return User{}, false, err
	}
	defer rows.Close()
	return dbutils.ScanFirst(rows, r.scan)
}

// GetByLogin search and returns an User from the repository by its login
func (r *PostgresRepository) GetByLogin(login string) (User, bool, error) {
	rows, err := r.newStatement().
		Select(fields...).
		From(table).
		Where(sq.Eq{"login": login}).
		Query()
	if err != nil {
		return User{}, false, err
	}
	defer rows.Close()
	return dbutils.ScanFirst(rows, r.scan)
}

// Create creates a new User in the repository
func (r *PostgresRepository) Create(user UserWithPassword) (uuid.UUID, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return uuid.UUID{}, err
	}
	newUUID := uuid.New()
	_, err = r.newStatement().
		Insert(table).
		Columns(append(fields, "password")...).
		Values(newUUID,
			user.Login,
			user.Role,
			time.Now(),
			user.LastName,
			user.FirstName,
			user.Email,
			user.Phone,
			string(hash),
		).
		Exec()
	if err != nil {
		if dbutils.UniqueViolation(err) != nil {
			return uuid.UUID{}, ErrLoginAlreadyExists
		}
		return uuid.UUID{}, err
	}
	return newUUID, nil
}

// Update updates an User in the repository
func (r *PostgresRepository) Update(user User) error {
	result, err := r.newStatement().
		Update(table).
		Set("login", user.Login).
		Set("role", user.Role).
		Set("last_name", user.LastName).
		Set("first_name", user.FirstName).
		Set("email", user.Email).
		Set("phone", user.Phone).
		Where(sq.Eq{"id": user.ID}).
		Exec()
	if err != nil {
		if dbutils.UniqueViolation(err) != nil {
			return ErrLoginAlreadyExists
		}
		return err
	}
	return dbutils.CheckRowAffected(result, 1)
}

// UpdatePassword replaces the password of an User in the repository
func (r *PostgresRepository) UpdatePassword(userUUID uuid.UUID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	result, err := r.newStatement().
		Update(table).
		Set("password", string(hash)).
		Where(sq.Eq{"id": userUUID}).
		Exec()
	if err != nil {
		return err
	}
	return dbutils.CheckRowAffected(result, 1)
}

// Delete deletes an User in the repository
func (r *PostgresRepository) Delete(userUUID uuid.UUID) error {
	result, err := r.newStatement().
		Delete(table).
		Where(sq.Eq{"id": userUUID}).
		Exec()
	if err != nil {
		return err
	}
	return dbutils.CheckRowAffected(result, 1)
}

// List returns a page of Users ordered by login
func (r *PostgresRepository) List(options dbutils.DBQueryOptionnal) ([]User, error) {
	statement := r.newStatement().
		Select(fields...).
		From(table).
		OrderBy("login")
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

// scan scans a row into an User struct
func (r *PostgresRepository) scan(rows *sql.Rows) (User, error) {
	var user User
	err := rows.Scan(&user.ID, &user.Login, &user.Role, &user.Created, &user.LastName,
		&user.FirstName, &user.Email, &user.Phone)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (r *PostgresRepository) scanWithPassword(rows *sql.Rows) (UserWithPassword, error) {
	var user UserWithPassword
	err := rows.Scan(&user.ID, &user.Login, &user.Role, &user.Created, &user.LastName,
		&user.FirstName, &user.Email, &user.Phone, &user.Password)
	if err != nil {
		return UserWithPassword{}, err
	}
	return user, nil
}

// newStatement creates a new statement builder with Dollar format
func (r *PostgresRepository) newStatement() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).RunWith(r.conn.DB)
}
