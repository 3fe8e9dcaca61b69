package tests

const (

	// UsersDropTableV1 SQL statement for table drop
	UsersDropTableV1 string = `DROP TABLE IF EXISTS users_v1;`
	// UsersTableV1 SQL statement for the users table
	UsersTableV1 string = `create table IF NOT EXISTS users_v1 (
		id uuid primary key not null,
		login varchar(100) not null unique,
		password varchar(100) not null,
		role varchar(100) not null,
		created timestamptz not null,
		last_name varchar(100) not null,
		first_name varchar(100) not null,
		email varchar(100) not null,
		phone varchar(100)
	);`

	// ServiceStatusHistoryDropTableV1 SQL statement for table drop
	ServiceStatusHistoryDropTableV1 string = `DROP TABLE IF EXISTS service_status_history_v1;`
	// ServiceStatusHistoryTableV1 SQL statement for the service status history table
	ServiceStatusHistoryTableV1 string = `create table IF NOT EXISTS service_status_history_v1 (
		id serial primary key not null,
		service_id uuid not null,
		service_name varchar(100) not null,
		from_status varchar(100) not null,
		to_status varchar(100) not null,
		message text,
		occurred_at timestamptz not null
	);`

	// RulesDropTableV1 SQL statement for table drop
	RulesDropTableV1 string = `DROP TABLE IF EXISTS rules_v1;`
	// RulesTableV1 SQL statement for the rules table
	RulesTableV1 string = `CREATE TABLE IF NOT EXISTS rules_v1 (
		id serial PRIMARY KEY,
		name varchar(100) not null UNIQUE,
		description text,
		expression text not null,
		enabled boolean not null,
		created timestamptz not null,
		last_modified timestamptz not null
	);`

	// ApiKeysDropTableV1 SQL statement for table drop
	ApiKeysDropTableV1 string = `DROP TABLE IF EXISTS api_keys_v1;`
	// ApiKeysTableV1 SQL statement for the api keys table
	ApiKeysTableV1 string = `create table IF NOT EXISTS api_keys_v1 (
		id uuid primary key not null,
		name varchar(100) not null,
		role varchar(100) not null,
		key_prefix varchar(100) not null,
		key_hash varchar(100) not null,
		created_at timestamptz not null,
		expires_at timestamptz,
		is_active boolean not null,
		created_by varchar(100) not null
	);`

	// JobSchedulesDropTableV1 SQL statement for table drop
	JobSchedulesDropTableV1 string = `DROP TABLE IF EXISTS job_schedules_v1;`
	// JobSchedulesTableV1 SQL statement for the job schedules table
	JobSchedulesTableV1 string = `create table IF NOT EXISTS job_schedules_v1 (
		id serial primary key,
		name varchar(100) not null,
		cronexpr varchar(100) not null,
		job_type varchar(100) not null,
		job_data json not null,
		enabled boolean not null,
		last_modified timestamptz not null
	);`
)
