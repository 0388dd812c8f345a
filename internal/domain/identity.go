package domain

// RealmRepresentation is the identity provider's view of a realm. Nil fields
// are left out of the request body entirely.
type RealmRepresentation struct {
	Realm   string `json:"realm,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`

	DisplayName     *string `json:"displayName,omitempty"`
	DisplayNameHTML *string `json:"displayNameHtml,omitempty"`
	LoginTheme      *string `json:"loginTheme,omitempty"`
	AccountTheme    *string `json:"accountTheme,omitempty"`

	SSLRequired            *string            `json:"sslRequired,omitempty"`
	PasswordPolicy         *string            `json:"passwordPolicy,omitempty"`
	BrowserSecurityHeaders *map[string]string `json:"browserSecurityHeaders,omitempty"`

	LoginWithEmailAllowed  *bool `json:"loginWithEmailAllowed,omitempty"`
	RegistrationAllowed    *bool `json:"registrationAllowed,omitempty"`
	RememberMe             *bool `json:"rememberMe,omitempty"`
	ResetPasswordAllowed   *bool `json:"resetPasswordAllowed,omitempty"`
	VerifyEmail            *bool `json:"verifyEmail,omitempty"`
	DuplicateEmailsAllowed *bool `json:"duplicateEmailsAllowed,omitempty"`

	InternationalizationEnabled *bool     `json:"internationalizationEnabled,omitempty"`
	SupportedLocales            *[]string `json:"supportedLocales,omitempty"`
	DefaultLocale               *string   `json:"defaultLocale,omitempty"`

	SMTPServer *map[string]string `json:"smtpServer,omitempty"`

	AccessTokenLifespan     *int `json:"accessTokenLifespan,omitempty"`
	AccessCodeLifespanLogin *int `json:"accessCodeLifespanLogin,omitempty"`
	SSOSessionIdleTimeout   *int `json:"ssoSessionIdleTimeout,omitempty"`
	SSOSessionMaxLifespan   *int `json:"ssoSessionMaxLifespan,omitempty"`

	RevokeRefreshToken *bool `json:"revokeRefreshToken,omitempty"`

	EventsEnabled   *bool     `json:"eventsEnabled,omitempty"`
	EventsListeners *[]string `json:"eventsListeners,omitempty"`
}
