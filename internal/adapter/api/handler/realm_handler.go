package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/V4T54L/realm-provisioner/internal/domain"
)

// maxBodySize bounds realm request bodies.
const maxBodySize = 1 << 20

// RealmService is the set of realm operations exposed over HTTP.
type RealmService interface {
	Create(ctx context.Context, data domain.RealmCreate) (*domain.Realm, error)
	List(ctx context.Context, filter domain.RealmFilter) ([]domain.Realm, error)
	Get(ctx context.Context, name string) (*domain.Realm, error)
	Update(ctx context.Context, name string, data domain.RealmUpdate) (*domain.Realm, error)
	Delete(ctx context.Context, name string) error
}

// RealmHandler handles the /realms endpoints.
type RealmHandler struct {
	svc    RealmService
	logger *slog.Logger
}

// NewRealmHandler creates a new RealmHandler.
func NewRealmHandler(svc RealmService, logger *slog.Logger) *RealmHandler {
	return &RealmHandler{svc: svc, logger: logger.With("component", "realm_handler")}
}

// Create handles POST /realms/.
func (h *RealmHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.RealmCreate
	if err := decodeBody(w, r, &req); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	realm, err := h.svc.Create(r.Context(), req)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, realm)
}

// List handles GET /realms/?customer_type=&enabled=.
func (h *RealmHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	realms, err := h.svc.List(r.Context(), filter)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, realms)
}

// Get handles GET /realms/{realm_name}.
func (h *RealmHandler) Get(w http.ResponseWriter, r *http.Request) {
	realm, err := h.svc.Get(r.Context(), chi.URLParam(r, "realm_name"))
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	if realm == nil {
		h.respondWithError(w, r, domain.ErrNotFound)
		return
	}
	respondWithJSON(w, http.StatusOK, realm)
}

// Update handles PUT /realms/{realm_name}.
func (h *RealmHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.RealmUpdate
	if err := decodeBody(w, r, &req); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	realm, err := h.svc.Update(r.Context(), chi.URLParam(r, "realm_name"), req)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, realm)
}

// Delete handles DELETE /realms/{realm_name}.
func (h *RealmHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "realm_name")); err != nil {
		h.respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return domain.NewError(domain.KindValidation, "decode body", "request body too large", nil)
		}
		return domain.NewError(domain.KindValidation, "decode body", "invalid request body", err)
	}
	return nil
}

func parseFilter(r *http.Request) (domain.RealmFilter, error) {
	var filter domain.RealmFilter
	q := r.URL.Query()

	if q.Has("customer_type") {
		ct := q.Get("customer_type")
		filter.CustomerType = &ct
	}
	if q.Has("enabled") {
		enabled, err := parseBool(q.Get("enabled"))
		if err != nil {
			return filter, domain.NewError(domain.KindValidation, "parse filter",
				fmt.Sprintf("invalid value for enabled: %q", q.Get("enabled")), nil)
		}
		filter.Enabled = &enabled
	}
	return filter, nil
}

// parseBool accepts strconv.ParseBool forms plus yes/no and on/off.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(s))
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// respondWithError maps an application error to its status code and a
// {"detail": ...} body. Internal errors are logged and not echoed.
func (h *RealmHandler) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	detail := "Internal server error"

	switch domain.ErrorKind(err) {
	case domain.KindValidation:
		status, detail = http.StatusBadRequest, domain.ErrorMessage(err)
	case domain.KindConflict:
		status, detail = http.StatusConflict, domain.ErrorMessage(err)
	case domain.KindNotFound:
		status, detail = http.StatusNotFound, domain.ErrorMessage(err)
	case domain.KindUpstream:
		status, detail = http.StatusBadGateway, domain.ErrorMessage(err)
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("realm request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	respondWithJSON(w, status, errorResponse{Detail: detail})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
