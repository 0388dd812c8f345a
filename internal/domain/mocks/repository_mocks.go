package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/V4T54L/realm-provisioner/internal/domain"
)

// MockRealmRepository is an in-memory domain.RealmRepository for testing.
// It enforces realm-name uniqueness the way the database does.
type MockRealmRepository struct {
	mu     sync.Mutex
	nextID int64
	Rows   map[string]domain.Realm

	GetCalls    int
	CreateCalls int
	UpdateCalls int
	DeleteCalls int

	GetErr    error
	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error
	PingErr   error
}

// NewMockRealmRepository returns an empty repository.
func NewMockRealmRepository() *MockRealmRepository {
	return &MockRealmRepository{Rows: make(map[string]domain.Realm)}
}

func (m *MockRealmRepository) Get(ctx context.Context, name string) (*domain.Realm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	r, ok := m.Rows[name]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *MockRealmRepository) List(ctx context.Context, filter domain.RealmFilter) ([]domain.Realm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := make([]domain.Realm, 0, len(m.Rows))
	for _, r := range m.Rows {
		if filter.CustomerType != nil && r.CustomerType != *filter.CustomerType {
			continue
		}
		if filter.Enabled != nil && r.Enabled != *filter.Enabled {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockRealmRepository) Create(ctx context.Context, data domain.RealmCreate) (*domain.Realm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if _, exists := m.Rows[data.Realm]; exists {
		return nil, domain.NewError(domain.KindConflict, "create realm", "realm already exists", nil)
	}
	m.nextID++
	r := domain.Realm{
		ID:           m.nextID,
		Realm:        data.Realm,
		CustomerType: data.CustomerType,
		Enabled:      data.EnabledOrDefault(),
	}
	applySettings(&r, data.RealmSettings)
	m.Rows[r.Realm] = r
	return &r, nil
}

func (m *MockRealmRepository) Update(ctx context.Context, existing *domain.Realm, data domain.RealmUpdate) (*domain.Realm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	r := *existing
	if data.Enabled.Present() {
		r.Enabled = data.Enabled.Value
	}
	applySettings(&r, data.RealmSettings)
	m.Rows[r.Realm] = r
	return &r, nil
}

func (m *MockRealmRepository) Delete(ctx context.Context, existing *domain.Realm) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.Rows, existing.Realm)
	return nil
}

func (m *MockRealmRepository) Ping(ctx context.Context) error {
	return m.PingErr
}

func applySettings(r *domain.Realm, s domain.RealmSettings) {
	setPtr(&r.DisplayName, s.DisplayName)
	setPtr(&r.DisplayNameHTML, s.DisplayNameHTML)
	setPtr(&r.LoginTheme, s.LoginTheme)
	setPtr(&r.AccountTheme, s.AccountTheme)
	setPtr(&r.SSLRequired, s.SSLRequired)
	setPtr(&r.PasswordPolicy, s.PasswordPolicy)
	if s.BrowserSecurityHeaders.Set {
		r.BrowserSecurityHeaders = s.BrowserSecurityHeaders.Value
	}
	setPtr(&r.LoginWithEmailAllowed, s.LoginWithEmailAllowed)
	setPtr(&r.RegistrationAllowed, s.RegistrationAllowed)
	setPtr(&r.RememberMe, s.RememberMe)
	setPtr(&r.ResetPasswordAllowed, s.ResetPasswordAllowed)
	setPtr(&r.VerifyEmail, s.VerifyEmail)
	setPtr(&r.DuplicateEmailsAllowed, s.DuplicateEmailsAllowed)
	setPtr(&r.InternationalizationEnabled, s.InternationalizationEnabled)
	if s.SupportedLocales.Set {
		r.SupportedLocales = s.SupportedLocales.Value
	}
	setPtr(&r.DefaultLocale, s.DefaultLocale)
	if s.SMTPServer.Set {
		r.SMTPServer = s.SMTPServer.Value
	}
	setPtr(&r.AccessTokenLifespan, s.AccessTokenLifespan)
	setPtr(&r.AccessCodeLifespanLogin, s.AccessCodeLifespanLogin)
	setPtr(&r.SSOSessionIdleTimeout, s.SSOSessionIdleTimeout)
	setPtr(&r.SSOSessionMaxLifespan, s.SSOSessionMaxLifespan)
	setPtr(&r.RevokeRefreshToken, s.RevokeRefreshToken)
	setPtr(&r.RefreshTokenMaxReuse, s.RefreshTokenMaxReuse)
	setPtr(&r.EventsEnabled, s.EventsEnabled)
	if s.EventsListeners.Set {
		r.EventsListeners = s.EventsListeners.Value
	}
}

func setPtr[T any](dst **T, o domain.Optional[T]) {
	if o.Set {
		*dst = o.Ptr()
	}
}

// IdentityProviderCall records one call made against MockIdentityProvider.
type IdentityProviderCall struct {
	Method         string
	Name           string
	Representation domain.RealmRepresentation
}

// MockIdentityProvider records calls and returns configured errors.
type MockIdentityProvider struct {
	mu        sync.Mutex
	Calls     []IdentityProviderCall
	CreateErr error
	UpdateErr error
	DeleteErr error
	PingErr   error
}

func (m *MockIdentityProvider) CreateRealm(ctx context.Context, rep domain.RealmRepresentation) error {
	m.record(IdentityProviderCall{Method: "CreateRealm", Name: rep.Realm, Representation: rep})
	return m.CreateErr
}

func (m *MockIdentityProvider) UpdateRealm(ctx context.Context, name string, rep domain.RealmRepresentation) error {
	m.record(IdentityProviderCall{Method: "UpdateRealm", Name: name, Representation: rep})
	return m.UpdateErr
}

func (m *MockIdentityProvider) DeleteRealm(ctx context.Context, name string) error {
	m.record(IdentityProviderCall{Method: "DeleteRealm", Name: name})
	return m.DeleteErr
}

func (m *MockIdentityProvider) Ping(ctx context.Context) error {
	return m.PingErr
}

// CallsTo returns the recorded calls for one method.
func (m *MockIdentityProvider) CallsTo(method string) []IdentityProviderCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []IdentityProviderCall
	for _, c := range m.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (m *MockIdentityProvider) record(c IdentityProviderCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, c)
}

// MockEventPublisher collects published events.
type MockEventPublisher struct {
	mu         sync.Mutex
	Events     []domain.RealmEvent
	PublishErr error
}

func (m *MockEventPublisher) Publish(ctx context.Context, event domain.RealmEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.Events = append(m.Events, event)
	return nil
}
