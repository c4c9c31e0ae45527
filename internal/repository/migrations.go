package repository

// Statements are written in the subset Postgres and SQLite share. Timestamps
// are epoch milliseconds and structured columns hold JSON text.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS industry_templates (
		id      TEXT PRIMARY KEY,
		name    TEXT NOT NULL,
		version TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS industry_template_components (
		template_id    TEXT    NOT NULL,
		position       INTEGER NOT NULL,
		component_type TEXT    NOT NULL,
		component_id   TEXT    NOT NULL,
		component_name TEXT    NOT NULL,
		configuration  TEXT,
		PRIMARY KEY (template_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS model_schemas (
		id           TEXT PRIMARY KEY,
		type         TEXT NOT NULL DEFAULT '',
		sub_type     TEXT NOT NULL DEFAULT '',
		display_name TEXT,
		description  TEXT,
		schema       TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS modules (
		id            TEXT PRIMARY KEY,
		module_type   TEXT NOT NULL,
		name          TEXT NOT NULL,
		configuration TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS template_builds (
		build_id            TEXT PRIMARY KEY,
		template_id         TEXT    NOT NULL,
		tenant_id           TEXT,
		version             TEXT    NOT NULL DEFAULT '',
		build_status        TEXT    NOT NULL,
		build_config        TEXT    NOT NULL,
		build_started_at    BIGINT  NOT NULL,
		build_completed_at  BIGINT,
		build_duration      BIGINT,
		artifacts           TEXT,
		performance_metrics TEXT,
		error_log           TEXT,
		error_kind          TEXT,
		record_version      INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS idx_template_builds_template
		ON template_builds (template_id, build_started_at)`,
	`CREATE INDEX IF NOT EXISTS idx_template_builds_status
		ON template_builds (build_status, build_started_at)`,
}
