package pii

import (
	"log/slog"
	"strings"

	"github.com/V4T54L/realm-provisioner/internal/domain"
)

const RedactedPlaceholder = "[REDACTED]"

// Redactor masks secrets held in realm configuration before the realm leaves
// the service (events, logs).
type Redactor struct {
	fieldsToRedact map[string]struct{} // lower-cased smtp_server keys
	logger         *slog.Logger
}

// NewRedactor creates a Redactor masking the given smtp_server keys.
// Keys are matched case-insensitively.
func NewRedactor(fields []string, logger *slog.Logger) *Redactor {
	fieldSet := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		field = strings.ToLower(strings.TrimSpace(field))
		if field != "" {
			fieldSet[field] = struct{}{}
		}
	}
	return &Redactor{
		fieldsToRedact: fieldSet,
		logger:         logger.With("component", "pii_redactor"),
	}
}

// Realm returns a copy of realm with secret smtp_server values replaced by
// RedactedPlaceholder. The input is never modified.
func (r *Redactor) Realm(realm *domain.Realm) *domain.Realm {
	if realm == nil {
		return nil
	}
	out := *realm
	if len(r.fieldsToRedact) == 0 || len(realm.SMTPServer) == 0 {
		return &out
	}

	masked := make(map[string]string, len(realm.SMTPServer))
	redacted := 0
	for k, v := range realm.SMTPServer {
		if _, ok := r.fieldsToRedact[strings.ToLower(k)]; ok && v != "" {
			masked[k] = RedactedPlaceholder
			redacted++
			continue
		}
		masked[k] = v
	}
	out.SMTPServer = masked

	if redacted > 0 {
		r.logger.Debug("redacted realm secrets", "realm", realm.Realm, "fields", redacted)
	}
	return &out
}
