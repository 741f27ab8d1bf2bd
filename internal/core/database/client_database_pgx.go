package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/Coverly/internal/config"
	"github.com/markdave123-py/Coverly/internal/core"
	"github.com/markdave123-py/Coverly/internal/core/apperr"
	"github.com/markdave123-py/Coverly/internal/core/progress"
	"github.com/markdave123-py/Coverly/internal/models"
	"github.com/markdave123-py/Coverly/internal/platform/logger"
)

const pgUniqueViolation = "23505"

type DatabaseClient struct {
	db  *sql.DB
	log *logger.Logger
}

var _ core.DbClient = (*DatabaseClient)(nil)

func NewDatabaseClient(ctx context.Context, cfg *config.Config, log *logger.Logger) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	if log == nil {
		log = logger.Nop()
	}

	dsn, err := buildDSN(cfg.DatabaseURL, cfg.SslCertPath)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	ran, err := EnsureBootstrapped(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	if ran {
		log.Info("database schema bootstrapped", "version", schemaVersion)
	}

	return &DatabaseClient{db: db, log: log}, nil
}

// buildDSN appends verify-ca SSL params when a root certificate is configured.
func buildDSN(databaseURL, sslCertPath string) (string, error) {
	if sslCertPath == "" {
		return databaseURL, nil
	}
	if _, err := os.Stat(sslCertPath); err != nil {
		return "", fmt.Errorf("ssl cert not accessible at %q: %w", sslCertPath, err)
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	q := u.Query()
	q.Set("sslmode", "verify-ca")
	q.Set("sslrootcert", sslCertPath)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Users

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, name, email, phone, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING created_at, updated_at
	`
	err := c.db.QueryRowContext(ctx, q,
		user.ID, user.Name, user.Email, nullString(user.Phone), user.PasswordHash,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("create user %s: %w", user.Email, core.ErrDuplicate)
	}
	return err
}

const userColumns = `id, name, email, phone, password_hash, created_at, updated_at`

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return c.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (c *DatabaseClient) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return c.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (c *DatabaseClient) getUser(ctx context.Context, q string, arg string) (*models.User, error) {
	var (
		u     models.User
		phone sql.NullString
	)
	err := c.db.QueryRowContext(ctx, q, arg).Scan(
		&u.ID, &u.Name, &u.Email, &phone, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.Phone = phone.String
	return &u, nil
}

// DeleteUser removes the user; companies, sessions, templates and letters cascade.
func (c *DatabaseClient) DeleteUser(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.NotFound("user")
	}
	return nil
}

// Companies

// SaveBatch inserts the batch and resets the cursor in a single transaction, so a
// cursor never points at a batch whose rows are not all visible.
func (c *DatabaseClient) SaveBatch(ctx context.Context, userID, batchID string, companies []models.Company) error {
	if len(companies) == 0 {
		return errors.New("save batch: no companies")
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const insertCompany = `
		INSERT INTO companies
			(id, user_id, name, application_link, job_description, job_title, row_index, upload_batch, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	stmt, err := tx.PrepareContext(ctx, insertCompany)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range companies {
		co := &companies[i]
		if co.UserID != userID || co.UploadBatch != batchID {
			_ = tx.Rollback()
			return fmt.Errorf("save batch: company %s does not belong to batch %s of user %s", co.ID, batchID, userID)
		}
		if co.CreatedAt.IsZero() {
			co.CreatedAt = time.Now()
		}
		if _, err := stmt.ExecContext(ctx,
			co.ID, co.UserID, co.Name, co.ApplicationLink, co.JobDescription, co.JobTitle, co.RowIndex, co.UploadBatch, co.CreatedAt,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert company row %d: %w", co.RowIndex, err)
		}
	}

	const resetCursor = `
		INSERT INTO user_sessions (id, user_id, current_batch, current_company_index, current_batch_size, updated_at)
		VALUES ($1, $2, $3, 0, $4, now())
		ON CONFLICT (user_id) DO UPDATE SET
			current_batch = EXCLUDED.current_batch,
			current_company_index = 0,
			current_batch_size = EXCLUDED.current_batch_size,
			updated_at = now()
	`
	if _, err := tx.ExecContext(ctx, resetCursor, uuid.NewString(), userID, batchID, len(companies)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("reset cursor: %w", err)
	}

	return tx.Commit()
}

const companyColumns = `id, user_id, name, application_link, job_description, job_title, row_index, upload_batch, created_at`

func scanCompany(s interface{ Scan(...any) error }, co *models.Company) error {
	return s.Scan(
		&co.ID, &co.UserID, &co.Name, &co.ApplicationLink, &co.JobDescription, &co.JobTitle, &co.RowIndex, &co.UploadBatch, &co.CreatedAt,
	)
}

func (c *DatabaseClient) GetCompaniesByBatch(ctx context.Context, userID, batchID string) ([]models.Company, error) {
	q := `SELECT ` + companyColumns + `
		FROM companies
		WHERE user_id = $1 AND upload_batch = $2
		ORDER BY row_index ASC`
	rows, err := c.db.QueryContext(ctx, q, userID, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Company{}
	for rows.Next() {
		var co models.Company
		if err := scanCompany(rows, &co); err != nil {
			return nil, err
		}
		out = append(out, co)
	}
	return out, rows.Err()
}

// GetCompany returns nil when the company does not exist or belongs to someone else.
func (c *DatabaseClient) GetCompany(ctx context.Context, userID, companyID string) (*models.Company, error) {
	q := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1 AND user_id = $2`
	var co models.Company
	err := scanCompany(c.db.QueryRowContext(ctx, q, companyID, userID), &co)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &co, nil
}

// Sessions

const sessionColumns = `id, user_id, current_batch, current_company_index, current_batch_size, prompt_template, gemini_api_key, updated_at`

func scanSession(s interface{ Scan(...any) error }) (*models.UserSession, error) {
	var us models.UserSession
	var batch, tmpl, geminiKey sql.NullString
	if err := s.Scan(
		&us.ID, &us.UserID, &batch, &us.CurrentCompanyIndex, &us.CurrentBatchSize, &tmpl, &geminiKey, &us.UpdatedAt,
	); err != nil {
		return nil, err
	}
	us.CurrentBatch = batch.String
	us.PromptTemplate = tmpl.String
	us.GeminiAPIKey = geminiKey.String
	return &us, nil
}

func (c *DatabaseClient) GetUserSession(ctx context.Context, userID string) (*models.UserSession, error) {
	s, err := scanSession(c.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM user_sessions WHERE user_id = $1`, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// UpdateCursor locks the session row for the duration of fn. Concurrent navigation for
// the same user serialises on that lock, so each transition sees the previous one's result.
// Only the index is written back. A user without a session gets an empty cursor.
func (c *DatabaseClient) UpdateCursor(ctx context.Context, userID string, fn func(cur *progress.Cursor) error) (*models.UserSession, error) {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}

	s, err := scanSession(tx.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM user_sessions WHERE user_id = $1 FOR UPDATE`, userID))
	if err == sql.ErrNoRows {
		_ = tx.Rollback()
		var empty progress.Cursor
		if err := fn(&empty); err != nil {
			return nil, err
		}
		return &models.UserSession{UserID: userID}, nil
	}
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	cur := s.Cursor()
	before := cur.Index
	if err := fn(&cur); err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if cur.Index != before {
		const q = `UPDATE user_sessions SET current_company_index = $2, updated_at = now() WHERE user_id = $1 RETURNING updated_at`
		if err := tx.QueryRowContext(ctx, q, userID, cur.Index).Scan(&s.UpdatedAt); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("update cursor: %w", err)
		}
		s.CurrentCompanyIndex = cur.Index
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s, nil
}

// UpdateSessionSettings upserts the session. An empty string clears the stored value.
func (c *DatabaseClient) UpdateSessionSettings(ctx context.Context, userID string, set core.SessionSettings) (*models.UserSession, error) {
	const q = `
		INSERT INTO user_sessions (id, user_id, prompt_template, gemini_api_key, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id) DO UPDATE SET
			prompt_template = CASE WHEN $5::boolean THEN EXCLUDED.prompt_template ELSE user_sessions.prompt_template END,
			gemini_api_key  = CASE WHEN $6::boolean THEN EXCLUDED.gemini_api_key ELSE user_sessions.gemini_api_key END,
			updated_at = now()
		RETURNING ` + sessionColumns

	var tmpl, key sql.NullString
	if set.PromptTemplate != nil {
		tmpl = nullString(*set.PromptTemplate)
	}
	if set.GeminiAPIKey != nil {
		key = nullString(*set.GeminiAPIKey)
	}

	return scanSession(c.db.QueryRowContext(ctx, q,
		uuid.NewString(), userID, tmpl, key, set.PromptTemplate != nil, set.GeminiAPIKey != nil,
	))
}

// Cover letters

func (c *DatabaseClient) CreateCoverLetter(ctx context.Context, letter *models.CoverLetter) error {
	if letter == nil {
		return errors.New("nil cover letter")
	}
	const q = `
		INSERT INTO cover_letters (id, user_id, company_id, prompt, content, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING created_at
	`
	return c.db.QueryRowContext(ctx, q,
		letter.ID, letter.UserID, letter.CompanyID, letter.Prompt, letter.Content,
	).Scan(&letter.CreatedAt)
}

func (c *DatabaseClient) ListCoverLettersByUser(ctx context.Context, userID string) ([]models.CoverLetter, error) {
	const q = `
		SELECT id, user_id, company_id, prompt, content, created_at
		FROM cover_letters
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.CoverLetter{}
	for rows.Next() {
		var l models.CoverLetter
		if err := rows.Scan(&l.ID, &l.UserID, &l.CompanyID, &l.Prompt, &l.Content, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Prompt templates

// SavePromptTemplate upserts by (user, name). Marking a template default clears the
// flag on the user's other templates in the same transaction.
func (c *DatabaseClient) SavePromptTemplate(ctx context.Context, tmpl *models.PromptTemplate) error {
	if tmpl == nil {
		return errors.New("nil prompt template")
	}
	if tmpl.ID == "" {
		tmpl.ID = uuid.NewString()
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	if tmpl.IsDefault {
		const clear = `UPDATE prompt_templates SET is_default = false, updated_at = now() WHERE user_id = $1 AND name <> $2 AND is_default`
		if _, err := tx.ExecContext(ctx, clear, tmpl.UserID, tmpl.Name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("clear default template: %w", err)
		}
	}

	const upsert = `
		INSERT INTO prompt_templates (id, user_id, name, content, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (user_id, name) DO UPDATE SET
			content = EXCLUDED.content,
			is_default = EXCLUDED.is_default,
			updated_at = now()
		RETURNING id, created_at, updated_at
	`
	if err := tx.QueryRowContext(ctx, upsert,
		tmpl.ID, tmpl.UserID, tmpl.Name, tmpl.Content, tmpl.IsDefault,
	).Scan(&tmpl.ID, &tmpl.CreatedAt, &tmpl.UpdatedAt); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("upsert template: %w", err)
	}

	return tx.Commit()
}

const templateColumns = `id, user_id, name, content, is_default, created_at, updated_at`

func scanTemplate(s interface{ Scan(...any) error }) (*models.PromptTemplate, error) {
	var t models.PromptTemplate
	if err := s.Scan(&t.ID, &t.UserID, &t.Name, &t.Content, &t.IsDefault, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *DatabaseClient) GetPromptTemplateByName(ctx context.Context, userID, name string) (*models.PromptTemplate, error) {
	t, err := scanTemplate(c.db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM prompt_templates WHERE user_id = $1 AND name = $2`, userID, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (c *DatabaseClient) GetDefaultPromptTemplate(ctx context.Context, userID string) (*models.PromptTemplate, error) {
	t, err := scanTemplate(c.db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM prompt_templates WHERE user_id = $1 AND is_default ORDER BY updated_at DESC LIMIT 1`, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (c *DatabaseClient) ListPromptTemplates(ctx context.Context, userID string) ([]models.PromptTemplate, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+templateColumns+` FROM prompt_templates WHERE user_id = $1 ORDER BY name ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.PromptTemplate{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) DeletePromptTemplate(ctx context.Context, userID, name string) (bool, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM prompt_templates WHERE user_id = $1 AND name = $2`, userID, name)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
