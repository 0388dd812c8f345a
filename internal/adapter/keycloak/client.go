package keycloak

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/V4T54L/realm-provisioner/internal/adapter/metrics"
	"github.com/V4T54L/realm-provisioner/internal/domain"
)

const (
	realmsPath = "/admin/realms"
	realmPath  = "/admin/realms/{realm}"
	tokenPath  = "/realms/{realm}/protocol/openid-connect/token"

	// tokens are refreshed this long before they expire
	tokenExpiryMargin = 10 * time.Second
)

// Config holds the admin connection settings.
type Config struct {
	BaseURL            string
	Username           string
	Password           string
	AdminRealm         string
	ClientID           string
	InsecureSkipVerify bool
	Timeout            time.Duration
	// RateLimit caps admin calls per second; zero disables limiting.
	RateLimit float64
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorMessage     string `json:"errorMessage"`
}

var _ domain.IdentityProvider = (*Client)(nil)

// Client implements domain.IdentityProvider against the Keycloak admin REST API.
type Client struct {
	http    *resty.Client
	cfg     Config
	limiter *rate.Limiter
	logger  *slog.Logger
	metrics *metrics.RealmMetrics
	now     func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewClient creates a Keycloak admin client. m may be nil.
func NewClient(cfg Config, logger *slog.Logger, m *metrics.RealmMetrics) *Client {
	if cfg.AdminRealm == "" {
		cfg.AdminRealm = "master"
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "admin-cli"
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.InsecureSkipVerify {
		httpClient.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec // opt-in for self-signed dev clusters
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Client{
		http:    httpClient,
		cfg:     cfg,
		limiter: limiter,
		logger:  logger.With("component", "keycloak_client"),
		metrics: m,
		now:     time.Now,
	}
}

// CreateRealm provisions a new realm.
func (c *Client) CreateRealm(ctx context.Context, rep domain.RealmRepresentation) error {
	return c.call(ctx, "create_realm", func(req *resty.Request) (*resty.Response, error) {
		return req.SetBody(rep).Post(realmsPath)
	}, nil)
}

// UpdateRealm applies rep to an existing realm. Fields left nil are not changed.
func (c *Client) UpdateRealm(ctx context.Context, name string, rep domain.RealmRepresentation) error {
	return c.call(ctx, "update_realm", func(req *resty.Request) (*resty.Response, error) {
		return req.SetPathParam("realm", name).SetBody(rep).Put(realmPath)
	}, nil)
}

// DeleteRealm removes a realm. A realm that is already gone counts as deleted.
func (c *Client) DeleteRealm(ctx context.Context, name string) error {
	return c.call(ctx, "delete_realm", func(req *resty.Request) (*resty.Response, error) {
		return req.SetPathParam("realm", name).Delete(realmPath)
	}, func(status int) bool { return status == http.StatusNotFound })
}

// Ping obtains an admin token, proving the server is reachable and the
// credentials are accepted.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.accessToken(ctx)
	return err
}

// call runs one authenticated admin request and records its outcome.
// tolerate reports error statuses that should be treated as success.
func (c *Client) call(
	ctx context.Context,
	op string,
	send func(*resty.Request) (*resty.Response, error),
	tolerate func(status int) bool,
) error {
	start := c.now()
	err := c.doCall(ctx, op, send, tolerate)

	if c.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		c.metrics.IdPCallsTotal.WithLabelValues(op, outcome).Inc()
		c.metrics.IdPCallDuration.WithLabelValues(op).Observe(c.now().Sub(start).Seconds())
	}
	return err
}

func (c *Client) doCall(
	ctx context.Context,
	op string,
	send func(*resty.Request) (*resty.Response, error),
	tolerate func(status int) bool,
) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return domain.NewError(domain.KindUpstream, "keycloak."+op, "identity provider request failed", err)
		}
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	resp, err := send(c.http.R().SetContext(ctx).SetAuthToken(token))
	if err != nil {
		c.logger.Error("identity provider request failed", "operation", op, "error", err)
		return domain.NewError(domain.KindUpstream, "keycloak."+op, "identity provider request failed", err)
	}

	status := resp.StatusCode()
	if !resp.IsError() || (tolerate != nil && tolerate(status)) {
		return nil
	}

	if status == http.StatusUnauthorized {
		// force a fresh token on the next call
		c.invalidateToken()
	}
	c.logger.Error("identity provider rejected request", "operation", op, "status", status, "body", resp.String())
	return statusError(op, status, resp.Body())
}

// accessToken returns a cached admin token, fetching a new one when the
// cached token is missing or about to expire.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiresAt.Add(-tokenExpiryMargin)) {
		return c.token, nil
	}

	var tok tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("realm", c.cfg.AdminRealm).
		SetFormData(map[string]string{
			"grant_type": "password",
			"client_id":  c.cfg.ClientID,
			"username":   c.cfg.Username,
			"password":   c.cfg.Password,
		}).
		SetResult(&tok).
		Post(tokenPath)
	if err != nil {
		return "", domain.NewError(domain.KindUpstream, "keycloak.token", "identity provider authentication failed", err)
	}
	if resp.IsError() {
		c.logger.Error("identity provider authentication failed", "status", resp.StatusCode(), "admin_realm", c.cfg.AdminRealm)
		return "", domain.NewError(domain.KindUpstream, "keycloak.token", "identity provider authentication failed",
			fmt.Errorf("status %d: %s", resp.StatusCode(), remoteMessage(resp.Body())))
	}
	if tok.AccessToken == "" {
		return "", domain.NewError(domain.KindUpstream, "keycloak.token", "identity provider authentication failed",
			errors.New("empty access token"))
	}

	c.token = tok.AccessToken
	c.expiresAt = c.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.token, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// statusError maps an admin API error status onto an application error kind.
func statusError(op string, status int, body []byte) error {
	cause := fmt.Errorf("status %d: %s", status, remoteMessage(body))
	switch status {
	case http.StatusNotFound:
		return domain.NewError(domain.KindNotFound, "keycloak."+op, "Realm not found", cause)
	case http.StatusConflict:
		return domain.NewError(domain.KindConflict, "keycloak."+op, "realm already exists", cause)
	case http.StatusBadRequest:
		return domain.NewError(domain.KindValidation, "keycloak."+op, "identity provider rejected the realm", cause)
	default:
		return domain.NewError(domain.KindUpstream, "keycloak."+op, "identity provider request failed", cause)
	}
}

// remoteMessage extracts Keycloak's error text from a response body.
func remoteMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil {
		switch {
		case e.ErrorMessage != "":
			return e.ErrorMessage
		case e.ErrorDescription != "":
			return e.ErrorDescription
		case e.Error != "":
			return e.Error
		}
	}
	if len(body) == 0 {
		return http.StatusText(http.StatusInternalServerError)
	}
	return strings.TrimSpace(string(body))
}
