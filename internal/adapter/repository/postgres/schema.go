package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaName is the dedicated schema holding the realm table.
const SchemaName = "tenant"

const realmsDDL = `
CREATE SCHEMA IF NOT EXISTS ` + SchemaName + `;

CREATE TABLE IF NOT EXISTS ` + SchemaName + `.realms (
	id                           SERIAL PRIMARY KEY,
	realm                        VARCHAR NOT NULL UNIQUE,
	customer_type                VARCHAR NOT NULL,
	enabled                      BOOLEAN NOT NULL DEFAULT TRUE,
	display_name                 VARCHAR,
	display_name_html            VARCHAR,
	login_theme                  VARCHAR,
	account_theme                VARCHAR,
	ssl_required                 VARCHAR,
	password_policy              VARCHAR,
	browser_security_headers     JSON,
	login_with_email_allowed     BOOLEAN,
	registration_allowed         BOOLEAN,
	remember_me                  BOOLEAN,
	reset_password_allowed       BOOLEAN,
	verify_email                 BOOLEAN,
	duplicate_emails_allowed     BOOLEAN,
	internationalization_enabled BOOLEAN,
	supported_locales            VARCHAR[],
	default_locale               VARCHAR,
	smtp_server                  JSON,
	access_token_lifespan        INTEGER,
	access_code_lifespan_login   INTEGER,
	sso_session_idle_timeout     INTEGER,
	sso_session_max_lifespan     INTEGER,
	revoke_refresh_token         BOOLEAN,
	refresh_token_max_reuse      INTEGER,
	events_enabled               BOOLEAN,
	events_listeners             VARCHAR[]
);
`

// EnsureSchema creates the realm schema and table when they do not exist.
// Production deployments normally run migrations out of band instead.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, realmsDDL); err != nil {
		return fmt.Errorf("ensure realm schema: %w", err)
	}
	return nil
}
