package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"regexp"
	"time"

	"template-builder/internal/common/config"
	"template-builder/internal/common/errors"
	"template-builder/internal/common/logger"
	"template-builder/internal/models"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLStore implements the catalog readers, CatalogWriter and BuildRepo on
// Postgres or SQLite. Queries are written with $n placeholders.
type SQLStore struct {
	db     *sql.DB
	driver string
	log    logger.Logger
}

func NewSQLStore(db *sql.DB, driver string, log logger.Logger) *SQLStore {
	return &SQLStore{db: db, driver: driver, log: logger.ForComponent(log, "sql-store")}
}

// Migrate creates the tables when they do not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	s.log.Info("Schema migrated", map[string]interface{}{"driver": s.driver, "statements": len(migrations)})
	return nil
}

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

func (s *SQLStore) rebind(query string) string {
	if s.driver != config.DriverSQLite {
		return query
	}
	return placeholderRe.ReplaceAllString(query, "?$1")
}

// ==========================
// Catalog reads
// ==========================

func (s *SQLStore) GetTemplateWithComponents(ctx context.Context, id string) (*models.IndustryTemplate, error) {
	var t models.IndustryTemplate
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT id, name, version FROM industry_templates WHERE id = $1`), id,
	).Scan(&t.ID, &t.Name, &t.Version)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load template %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT component_type, component_id, component_name, configuration
		FROM industry_template_components
		WHERE template_id = $1
		ORDER BY position`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to load components of %s: %w", id, err)
	}
	defer rows.Close()

	t.Components = make([]models.IndustryTemplateComponent, 0)
	for rows.Next() {
		var (
			c   models.IndustryTemplateComponent
			cfg sql.NullString
		)
		if err := rows.Scan(&c.ComponentType, &c.ComponentID, &c.ComponentName, &cfg); err != nil {
			return nil, fmt.Errorf("failed to scan component: %w", err)
		}
		c.TemplateID = id
		if err := decodeJSON(cfg, &c.Configuration); err != nil {
			return nil, fmt.Errorf("component %s configuration: %w", c.ComponentID, err)
		}
		t.Components = append(t.Components, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *SQLStore) GetModelSchema(ctx context.Context, id string) (*models.ModelSchema, error) {
	var (
		m                        models.ModelSchema
		displayName, description sql.NullString
		definition               string
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, type, sub_type, display_name, description, schema
		FROM model_schemas WHERE id = $1`), id,
	).Scan(&m.ID, &m.Type, &m.SubType, &displayName, &description, &definition)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load schema %s: %w", id, err)
	}
	if err := decodeJSON(displayName, &m.DisplayName); err != nil {
		return nil, err
	}
	if err := decodeJSON(description, &m.Description); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(definition), &m.Schema); err != nil {
		return nil, fmt.Errorf("schema %s definition: %w", id, err)
	}
	return &m, nil
}

func (s *SQLStore) GetModule(ctx context.Context, id string) (*models.Module, error) {
	var (
		m   models.Module
		cfg string
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, module_type, name, configuration FROM modules WHERE id = $1`), id,
	).Scan(&m.ID, &m.ModuleType, &m.Name, &cfg)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load module %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(cfg), &m.Configuration); err != nil {
		return nil, fmt.Errorf("module %s configuration: %w", id, err)
	}
	return &m, nil
}

// ==========================
// Catalog writes
// ==========================

// SaveTemplate upserts the template and replaces its component list.
func (s *SQLStore) SaveTemplate(ctx context.Context, t models.IndustryTemplate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, s.rebind(`
		INSERT INTO industry_templates (id, name, version) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, version = excluded.version`),
		t.ID, t.Name, t.Version); err != nil {
		return fmt.Errorf("failed to save template %s: %w", t.ID, err)
	}
	if _, err := tx.ExecContext(ctx, s.rebind(
		`DELETE FROM industry_template_components WHERE template_id = $1`), t.ID); err != nil {
		return fmt.Errorf("failed to clear components of %s: %w", t.ID, err)
	}
	for i, c := range t.Components {
		cfg, err := encodeJSON(c.Configuration)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO industry_template_components
				(template_id, position, component_type, component_id, component_name, configuration)
			VALUES ($1, $2, $3, $4, $5, $6)`),
			t.ID, i, string(c.ComponentType), c.ComponentID, c.ComponentName, cfg); err != nil {
			return fmt.Errorf("failed to save component %d of %s: %w", i, t.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) SaveSchema(ctx context.Context, m models.ModelSchema) error {
	displayName, err := encodeJSON(m.DisplayName)
	if err != nil {
		return err
	}
	description, err := encodeJSON(m.Description)
	if err != nil {
		return err
	}
	definition, err := json.Marshal(m.Schema)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO model_schemas (id, type, sub_type, display_name, description, schema)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET type = excluded.type, sub_type = excluded.sub_type,
			display_name = excluded.display_name, description = excluded.description,
			schema = excluded.schema`),
		m.ID, m.Type, m.SubType, displayName, description, string(definition))
	if err != nil {
		return fmt.Errorf("failed to save schema %s: %w", m.ID, err)
	}
	return nil
}

func (s *SQLStore) SaveModule(ctx context.Context, m models.Module) error {
	cfg, err := json.Marshal(m.Configuration)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO modules (id, module_type, name, configuration) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET module_type = excluded.module_type,
			name = excluded.name, configuration = excluded.configuration`),
		m.ID, string(m.ModuleType), m.Name, string(cfg))
	if err != nil {
		return fmt.Errorf("failed to save module %s: %w", m.ID, err)
	}
	return nil
}

// ==========================
// Build records
// ==========================

const buildColumns = `build_id, template_id, tenant_id, version, build_status, build_config,
	build_started_at, build_completed_at, build_duration, artifacts, performance_metrics,
	error_log, error_kind, record_version`

func (s *SQLStore) Create(ctx context.Context, b *models.TemplateBuild) error {
	cfg, err := json.Marshal(b.BuildConfig)
	if err != nil {
		return err
	}
	version := b.RecordVersion
	if version == 0 {
		version = 1
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO template_builds
			(build_id, template_id, tenant_id, version, build_status, build_config, build_started_at, record_version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`),
		b.BuildID, b.TemplateID, nullString(b.TenantID), b.Version, string(b.BuildStatus),
		string(cfg), b.BuildStartedAt.UnixMilli(), version)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.NewDuplicateBuildError(b.BuildID, err)
		}
		return errors.NewPersistenceFailureError("create build record", err)
	}
	return nil
}

func (s *SQLStore) Complete(ctx context.Context, buildID string, expectedVersion int, patch models.BuildCompletion) error {
	artifacts, err := json.Marshal(patch.Artifacts)
	if err != nil {
		return err
	}
	metrics, err := encodeJSON(patch.PerformanceMetrics)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE template_builds
		SET build_status = $3, build_completed_at = $4, build_duration = $5,
			artifacts = $6, performance_metrics = $7, record_version = record_version + 1
		WHERE build_id = $1 AND record_version = $2 AND build_status = 'building'`),
		buildID, expectedVersion, string(models.BuildStatusCompleted),
		patch.CompletedAt.UnixMilli(), patch.Duration.Milliseconds(), string(artifacts), metrics)
	if err != nil {
		return errors.NewPersistenceFailureError("complete build record", err)
	}
	return s.checkTransition(ctx, res, buildID, expectedVersion)
}

func (s *SQLStore) Fail(ctx context.Context, buildID string, expectedVersion int, failure models.BuildFailure) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE template_builds
		SET build_status = $3, build_completed_at = $4, build_duration = $5,
			error_log = $6, error_kind = $7, record_version = record_version + 1
		WHERE build_id = $1 AND record_version = $2 AND build_status = 'building'`),
		buildID, expectedVersion, string(models.BuildStatusFailed),
		failure.CompletedAt.UnixMilli(), failure.Duration.Milliseconds(), failure.ErrorLog, failure.ErrorKind)
	if err != nil {
		return errors.NewPersistenceFailureError("fail build record", err)
	}
	return s.checkTransition(ctx, res, buildID, expectedVersion)
}

// checkTransition explains a conditional update that touched no rows.
func (s *SQLStore) checkTransition(ctx context.Context, res sql.Result, buildID string, expectedVersion int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewPersistenceFailureError("rows affected", err)
	}
	if n == 1 {
		return nil
	}
	var (
		status  string
		version int
	)
	err = s.db.QueryRowContext(ctx, s.rebind(
		`SELECT build_status, record_version FROM template_builds WHERE build_id = $1`), buildID,
	).Scan(&status, &version)
	switch {
	case stderrors.Is(err, sql.ErrNoRows):
		return errors.NewNotFoundError("build", buildID)
	case err != nil:
		return errors.NewPersistenceFailureError("read build record", err)
	case models.BuildStatus(status).Terminal():
		return errors.NewTerminalStateError(buildID, status)
	default:
		return errors.NewConflictError(buildID, expectedVersion)
	}
}

func (s *SQLStore) Get(ctx context.Context, buildID string) (*models.TemplateBuild, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+buildColumns+` FROM template_builds WHERE build_id = $1`), buildID)
	if err != nil {
		return nil, fmt.Errorf("failed to load build %s: %w", buildID, err)
	}
	builds, err := scanBuilds(rows)
	if err != nil {
		return nil, err
	}
	if len(builds) == 0 {
		return nil, nil
	}
	return &builds[0], nil
}

func (s *SQLStore) ListByTemplate(ctx context.Context, templateID string) ([]models.TemplateBuild, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+buildColumns+` FROM template_builds
		WHERE template_id = $1 ORDER BY build_started_at DESC, build_id DESC`), templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds of %s: %w", templateID, err)
	}
	return scanBuilds(rows)
}

func (s *SQLStore) ListStale(ctx context.Context, before time.Time) ([]models.TemplateBuild, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+buildColumns+` FROM template_builds
		WHERE build_status = 'building' AND build_started_at < $1
		ORDER BY build_started_at DESC, build_id DESC`), before.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to list stale builds: %w", err)
	}
	return scanBuilds(rows)
}

func scanBuilds(rows *sql.Rows) ([]models.TemplateBuild, error) {
	defer rows.Close()
	builds := make([]models.TemplateBuild, 0)
	for rows.Next() {
		var (
			b                                          models.TemplateBuild
			tenant, artifacts, metrics, errLog, errKnd sql.NullString
			cfg                                        string
			started                                    int64
			completed, duration                        sql.NullInt64
		)
		if err := rows.Scan(&b.BuildID, &b.TemplateID, &tenant, &b.Version, &b.BuildStatus, &cfg,
			&started, &completed, &duration, &artifacts, &metrics, &errLog, &errKnd, &b.RecordVersion); err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		b.TenantID = tenant.String
		b.ErrorLog = errLog.String
		b.ErrorKind = errKnd.String
		b.BuildStartedAt = time.UnixMilli(started).UTC()
		if completed.Valid {
			t := time.UnixMilli(completed.Int64).UTC()
			b.BuildCompletedAt = &t
		}
		if duration.Valid {
			d := duration.Int64
			b.BuildDuration = &d
		}
		if err := json.Unmarshal([]byte(cfg), &b.BuildConfig); err != nil {
			return nil, fmt.Errorf("build %s config: %w", b.BuildID, err)
		}
		if artifacts.Valid && artifacts.String != "" {
			b.Artifacts = &models.BuildArtifacts{}
			if err := json.Unmarshal([]byte(artifacts.String), b.Artifacts); err != nil {
				return nil, fmt.Errorf("build %s artifacts: %w", b.BuildID, err)
			}
		}
		if err := decodeJSON(metrics, &b.PerformanceMetrics); err != nil {
			return nil, err
		}
		builds = append(builds, b)
	}
	return builds, rows.Err()
}

// ==========================
// Helpers
// ==========================

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if stderrors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			// extended result codes disabled
			return true
		}
	}
	return false
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// encodeJSON stores empty values as NULL.
func encodeJSON(v interface{}) (sql.NullString, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	if string(b) == "null" || string(b) == "{}" {
		return sql.NullString{}, nil
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeJSON(ns sql.NullString, dst interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(ns.String), dst); err != nil {
		return fmt.Errorf("decoding json column: %w", err)
	}
	return nil
}
