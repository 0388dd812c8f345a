package usecase

import "github.com/V4T54L/realm-provisioner/internal/domain"

// toRepresentation maps local realm settings onto the identity provider's
// field names. Absent and null fields are never forwarded; customer_type and
// refresh_token_max_reuse have no identity-provider counterpart.
//
// When defaultEnabled is set the representation always carries "enabled",
// falling back to true, which is what a newly provisioned realm needs.
func toRepresentation(name string, s domain.RealmSettings, defaultEnabled bool) domain.RealmRepresentation {
	rep := domain.RealmRepresentation{
		Realm: name,

		DisplayName:     s.DisplayName.Ptr(),
		DisplayNameHTML: s.DisplayNameHTML.Ptr(),
		LoginTheme:      s.LoginTheme.Ptr(),
		AccountTheme:    s.AccountTheme.Ptr(),

		SSLRequired:            s.SSLRequired.Ptr(),
		PasswordPolicy:         s.PasswordPolicy.Ptr(),
		BrowserSecurityHeaders: s.BrowserSecurityHeaders.Ptr(),

		LoginWithEmailAllowed:  s.LoginWithEmailAllowed.Ptr(),
		RegistrationAllowed:    s.RegistrationAllowed.Ptr(),
		RememberMe:             s.RememberMe.Ptr(),
		ResetPasswordAllowed:   s.ResetPasswordAllowed.Ptr(),
		VerifyEmail:            s.VerifyEmail.Ptr(),
		DuplicateEmailsAllowed: s.DuplicateEmailsAllowed.Ptr(),

		InternationalizationEnabled: s.InternationalizationEnabled.Ptr(),
		SupportedLocales:            s.SupportedLocales.Ptr(),
		DefaultLocale:               s.DefaultLocale.Ptr(),

		SMTPServer: s.SMTPServer.Ptr(),

		AccessTokenLifespan:     s.AccessTokenLifespan.Ptr(),
		AccessCodeLifespanLogin: s.AccessCodeLifespanLogin.Ptr(),
		SSOSessionIdleTimeout:   s.SSOSessionIdleTimeout.Ptr(),
		SSOSessionMaxLifespan:   s.SSOSessionMaxLifespan.Ptr(),

		RevokeRefreshToken: s.RevokeRefreshToken.Ptr(),

		EventsEnabled:   s.EventsEnabled.Ptr(),
		EventsListeners: s.EventsListeners.Ptr(),
	}

	switch {
	case s.Enabled.Present():
		rep.Enabled = s.Enabled.Ptr()
	case defaultEnabled:
		enabled := true
		rep.Enabled = &enabled
	}

	return rep
}
