package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/V4T54L/realm-provisioner/internal/domain"
)

const (
	realmsTable = SchemaName + ".realms"

	uniqueViolation = pq.ErrorCode("23505")
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// realmColumns is the column order used by every SELECT and RETURNING clause.
var realmColumns = []string{
	"id", "realm", "customer_type", "enabled",
	"display_name", "display_name_html", "login_theme", "account_theme",
	"ssl_required", "password_policy", "browser_security_headers",
	"login_with_email_allowed", "registration_allowed", "remember_me",
	"reset_password_allowed", "verify_email", "duplicate_emails_allowed",
	"internationalization_enabled", "supported_locales", "default_locale",
	"smtp_server",
	"access_token_lifespan", "access_code_lifespan_login",
	"sso_session_idle_timeout", "sso_session_max_lifespan",
	"revoke_refresh_token", "refresh_token_max_reuse",
	"events_enabled", "events_listeners",
}

var returningRealm = "RETURNING " + strings.Join(realmColumns, ", ")

var _ domain.RealmRepository = (*RealmRepository)(nil)

// RealmRepository implements domain.RealmRepository on PostgreSQL. Each
// method runs a single auto-committed statement on a pooled connection.
type RealmRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRealmRepository creates a new PostgreSQL realm repository.
func NewRealmRepository(db *sql.DB, logger *slog.Logger) *RealmRepository {
	return &RealmRepository{db: db, logger: logger.With("component", "postgres_realm_repository")}
}

// Get returns the realm with the given name, or nil, nil when none exists.
func (r *RealmRepository) Get(ctx context.Context, name string) (*domain.Realm, error) {
	query, args, err := psql.Select(realmColumns...).
		From(realmsTable).
		Where(sq.Eq{"realm": name}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	realm, err := scanRealm(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // not found
		}
		return nil, fmt.Errorf("get realm: %w", err)
	}
	return realm, nil
}

// List returns every realm matching the filter, ordered by id.
func (r *RealmRepository) List(ctx context.Context, filter domain.RealmFilter) ([]domain.Realm, error) {
	q := psql.Select(realmColumns...).From(realmsTable).OrderBy("id")
	if filter.CustomerType != nil && *filter.CustomerType != "" {
		q = q.Where(sq.Eq{"customer_type": *filter.CustomerType})
	}
	if filter.Enabled != nil {
		q = q.Where(sq.Eq{"enabled": *filter.Enabled})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list realms: %w", err)
	}
	defer rows.Close()

	realms := make([]domain.Realm, 0)
	for rows.Next() {
		realm, err := scanRealm(rows)
		if err != nil {
			return nil, fmt.Errorf("scan realm: %w", err)
		}
		realms = append(realms, *realm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list realms: %w", err)
	}
	return realms, nil
}

// Create inserts a new realm row. Uniqueness of the realm name is left to the
// database constraint.
func (r *RealmRepository) Create(ctx context.Context, data domain.RealmCreate) (*domain.Realm, error) {
	cols := []string{"realm", "customer_type", "enabled"}
	vals := []any{data.Realm, data.CustomerType, data.EnabledOrDefault()}
	for _, c := range settingsColumns(data.RealmSettings) {
		if c.set {
			cols = append(cols, c.name)
			vals = append(vals, c.value)
		}
	}

	query, args, err := psql.Insert(realmsTable).
		Columns(cols...).
		Values(vals...).
		Suffix(returningRealm).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert query: %w", err)
	}

	realm, err := scanRealm(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.NewError(domain.KindConflict, "create realm",
				fmt.Sprintf("realm %q already exists", data.Realm), err)
		}
		r.logger.Error("failed to insert realm", "realm", data.Realm, "error", err)
		return nil, fmt.Errorf("insert realm: %w", err)
	}
	return realm, nil
}

// Update writes only the supplied fields. With nothing supplied the existing
// record is returned unchanged without touching the database.
func (r *RealmRepository) Update(ctx context.Context, existing *domain.Realm, data domain.RealmUpdate) (*domain.Realm, error) {
	q := psql.Update(realmsTable).Where(sq.Eq{"id": existing.ID})
	changed := false
	if data.Enabled.Present() {
		q = q.Set("enabled", data.Enabled.Value)
		changed = true
	}
	for _, c := range settingsColumns(data.RealmSettings) {
		if c.set {
			q = q.Set(c.name, c.value)
			changed = true
		}
	}
	if !changed {
		return existing, nil
	}

	query, args, err := q.Suffix(returningRealm).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update query: %w", err)
	}

	realm, err := scanRealm(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(domain.KindNotFound, "update realm", "Realm not found", nil)
		}
		return nil, fmt.Errorf("update realm: %w", err)
	}
	return realm, nil
}

// Delete removes the realm's row.
func (r *RealmRepository) Delete(ctx context.Context, existing *domain.Realm) error {
	query, args, err := psql.Delete(realmsTable).Where(sq.Eq{"id": existing.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete realm: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (r *RealmRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type column struct {
	name  string
	set   bool
	value any
}

// settingsColumns lists every optional column with the value to write. A
// null value clears the column.
func settingsColumns(s domain.RealmSettings) []column {
	return []column{
		{"display_name", s.DisplayName.Set, s.DisplayName.Ptr()},
		{"display_name_html", s.DisplayNameHTML.Set, s.DisplayNameHTML.Ptr()},
		{"login_theme", s.LoginTheme.Set, s.LoginTheme.Ptr()},
		{"account_theme", s.AccountTheme.Set, s.AccountTheme.Ptr()},
		{"ssl_required", s.SSLRequired.Set, s.SSLRequired.Ptr()},
		{"password_policy", s.PasswordPolicy.Set, s.PasswordPolicy.Ptr()},
		{"browser_security_headers", s.BrowserSecurityHeaders.Set, jsonValue(s.BrowserSecurityHeaders)},
		{"login_with_email_allowed", s.LoginWithEmailAllowed.Set, s.LoginWithEmailAllowed.Ptr()},
		{"registration_allowed", s.RegistrationAllowed.Set, s.RegistrationAllowed.Ptr()},
		{"remember_me", s.RememberMe.Set, s.RememberMe.Ptr()},
		{"reset_password_allowed", s.ResetPasswordAllowed.Set, s.ResetPasswordAllowed.Ptr()},
		{"verify_email", s.VerifyEmail.Set, s.VerifyEmail.Ptr()},
		{"duplicate_emails_allowed", s.DuplicateEmailsAllowed.Set, s.DuplicateEmailsAllowed.Ptr()},
		{"internationalization_enabled", s.InternationalizationEnabled.Set, s.InternationalizationEnabled.Ptr()},
		{"supported_locales", s.SupportedLocales.Set, arrayValue(s.SupportedLocales)},
		{"default_locale", s.DefaultLocale.Set, s.DefaultLocale.Ptr()},
		{"smtp_server", s.SMTPServer.Set, jsonValue(s.SMTPServer)},
		{"access_token_lifespan", s.AccessTokenLifespan.Set, s.AccessTokenLifespan.Ptr()},
		{"access_code_lifespan_login", s.AccessCodeLifespanLogin.Set, s.AccessCodeLifespanLogin.Ptr()},
		{"sso_session_idle_timeout", s.SSOSessionIdleTimeout.Set, s.SSOSessionIdleTimeout.Ptr()},
		{"sso_session_max_lifespan", s.SSOSessionMaxLifespan.Set, s.SSOSessionMaxLifespan.Ptr()},
		{"revoke_refresh_token", s.RevokeRefreshToken.Set, s.RevokeRefreshToken.Ptr()},
		{"refresh_token_max_reuse", s.RefreshTokenMaxReuse.Set, s.RefreshTokenMaxReuse.Ptr()},
		{"events_enabled", s.EventsEnabled.Set, s.EventsEnabled.Ptr()},
		{"events_listeners", s.EventsListeners.Set, arrayValue(s.EventsListeners)},
	}
}

func jsonValue(o domain.Optional[map[string]string]) any {
	if !o.Present() {
		return nil
	}
	return jsonMap(o.Value)
}

func arrayValue(o domain.Optional[[]string]) any {
	if !o.Present() {
		return nil
	}
	if o.Value == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(o.Value)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRealm(row rowScanner) (*domain.Realm, error) {
	var (
		r                 domain.Realm
		headers, smtp     jsonMap
		locales, listener pq.StringArray
	)
	err := row.Scan(
		&r.ID, &r.Realm, &r.CustomerType, &r.Enabled,
		&r.DisplayName, &r.DisplayNameHTML, &r.LoginTheme, &r.AccountTheme,
		&r.SSLRequired, &r.PasswordPolicy, &headers,
		&r.LoginWithEmailAllowed, &r.RegistrationAllowed, &r.RememberMe,
		&r.ResetPasswordAllowed, &r.VerifyEmail, &r.DuplicateEmailsAllowed,
		&r.InternationalizationEnabled, &locales, &r.DefaultLocale,
		&smtp,
		&r.AccessTokenLifespan, &r.AccessCodeLifespanLogin,
		&r.SSOSessionIdleTimeout, &r.SSOSessionMaxLifespan,
		&r.RevokeRefreshToken, &r.RefreshTokenMaxReuse,
		&r.EventsEnabled, &listener,
	)
	if err != nil {
		return nil, err
	}
	r.BrowserSecurityHeaders = headers
	r.SMTPServer = smtp
	if locales != nil {
		r.SupportedLocales = []string(locales)
	}
	if listener != nil {
		r.EventsListeners = []string(listener)
	}
	return &r, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// jsonMap stores a string map in a JSON column.
type jsonMap map[string]string

func (m jsonMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(map[string]string(m))
	if err != nil {
		return nil, err
	}
	// sent as text; lib/pq would encode []byte as bytea
	return string(b), nil
}

func (m *jsonMap) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("jsonMap: cannot scan %T", src)
	}
	return json.Unmarshal(b, (*map[string]string)(m))
}
