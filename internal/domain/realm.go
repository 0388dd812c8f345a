package domain

import (
	"strings"
)

// Realm is the locally stored mirror of a tenant's identity-provider realm.
type Realm struct {
	ID           int64  `json:"id"`
	Realm        string `json:"realm"`
	CustomerType string `json:"customer_type"`
	Enabled      bool   `json:"enabled"`

	DisplayName     *string `json:"display_name"`
	DisplayNameHTML *string `json:"display_name_html"`
	LoginTheme      *string `json:"login_theme"`
	AccountTheme    *string `json:"account_theme"`

	SSLRequired            *string           `json:"ssl_required"`
	PasswordPolicy         *string           `json:"password_policy"`
	BrowserSecurityHeaders map[string]string `json:"browser_security_headers"`

	LoginWithEmailAllowed  *bool `json:"login_with_email_allowed"`
	RegistrationAllowed    *bool `json:"registration_allowed"`
	RememberMe             *bool `json:"remember_me"`
	ResetPasswordAllowed   *bool `json:"reset_password_allowed"`
	VerifyEmail            *bool `json:"verify_email"`
	DuplicateEmailsAllowed *bool `json:"duplicate_emails_allowed"`

	InternationalizationEnabled *bool    `json:"internationalization_enabled"`
	SupportedLocales            []string `json:"supported_locales"`
	DefaultLocale               *string  `json:"default_locale"`

	SMTPServer map[string]string `json:"smtp_server"`

	AccessTokenLifespan     *int `json:"access_token_lifespan"`
	AccessCodeLifespanLogin *int `json:"access_code_lifespan_login"`
	SSOSessionIdleTimeout   *int `json:"sso_session_idle_timeout"`
	SSOSessionMaxLifespan   *int `json:"sso_session_max_lifespan"`

	RevokeRefreshToken   *bool `json:"revoke_refresh_token"`
	RefreshTokenMaxReuse *int  `json:"refresh_token_max_reuse"`

	EventsEnabled   *bool    `json:"events_enabled"`
	EventsListeners []string `json:"events_listeners"`
}

// RealmSettings holds the optional, mutable configuration of a realm.
// Each field records whether it was supplied at all.
type RealmSettings struct {
	Enabled Optional[bool] `json:"enabled"`

	DisplayName     Optional[string] `json:"display_name"`
	DisplayNameHTML Optional[string] `json:"display_name_html"`
	LoginTheme      Optional[string] `json:"login_theme"`
	AccountTheme    Optional[string] `json:"account_theme"`

	SSLRequired            Optional[string]            `json:"ssl_required"`
	PasswordPolicy         Optional[string]            `json:"password_policy"`
	BrowserSecurityHeaders Optional[map[string]string] `json:"browser_security_headers"`

	LoginWithEmailAllowed  Optional[bool] `json:"login_with_email_allowed"`
	RegistrationAllowed    Optional[bool] `json:"registration_allowed"`
	RememberMe             Optional[bool] `json:"remember_me"`
	ResetPasswordAllowed   Optional[bool] `json:"reset_password_allowed"`
	VerifyEmail            Optional[bool] `json:"verify_email"`
	DuplicateEmailsAllowed Optional[bool] `json:"duplicate_emails_allowed"`

	InternationalizationEnabled Optional[bool]     `json:"internationalization_enabled"`
	SupportedLocales            Optional[[]string] `json:"supported_locales"`
	DefaultLocale               Optional[string]   `json:"default_locale"`

	SMTPServer Optional[map[string]string] `json:"smtp_server"`

	AccessTokenLifespan     Optional[int] `json:"access_token_lifespan"`
	AccessCodeLifespanLogin Optional[int] `json:"access_code_lifespan_login"`
	SSOSessionIdleTimeout   Optional[int] `json:"sso_session_idle_timeout"`
	SSOSessionMaxLifespan   Optional[int] `json:"sso_session_max_lifespan"`

	RevokeRefreshToken   Optional[bool] `json:"revoke_refresh_token"`
	RefreshTokenMaxReuse Optional[int]  `json:"refresh_token_max_reuse"`

	EventsEnabled   Optional[bool]     `json:"events_enabled"`
	EventsListeners Optional[[]string] `json:"events_listeners"`
}

// RealmCreate is the input for provisioning a new realm.
type RealmCreate struct {
	Realm        string `json:"realm"`
	CustomerType string `json:"customer_type"`
	RealmSettings
}

// RealmUpdate is a partial update; only supplied fields change.
type RealmUpdate struct {
	RealmSettings
}

// RealmFilter narrows List results. Nil fields do not filter.
type RealmFilter struct {
	CustomerType *string
	Enabled      *bool
}

// Validate checks the required fields of a create request.
func (c RealmCreate) Validate() error {
	if strings.TrimSpace(c.Realm) == "" {
		return NewError(KindValidation, "", "field required: realm", nil)
	}
	if strings.ContainsAny(c.Realm, "/ ") {
		return NewError(KindValidation, "", "realm must not contain spaces or slashes", nil)
	}
	if strings.TrimSpace(c.CustomerType) == "" {
		return NewError(KindValidation, "", "field required: customer_type", nil)
	}
	return c.RealmSettings.validate()
}

// Validate checks a partial update request.
func (u RealmUpdate) Validate() error {
	return u.RealmSettings.validate()
}

func (s RealmSettings) validate() error {
	// enabled is stored NOT NULL
	if s.Enabled.Set && s.Enabled.Null {
		return NewError(KindValidation, "", "enabled must not be null", nil)
	}
	return nil
}

// EnabledOrDefault returns the supplied enabled flag, defaulting to true.
func (s RealmSettings) EnabledOrDefault() bool {
	if s.Enabled.Present() {
		return s.Enabled.Value
	}
	return true
}
