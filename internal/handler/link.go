package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/scorebug/scorebug-server/internal/audit"
	apperrors "github.com/scorebug/scorebug-server/internal/errors"
	"github.com/scorebug/scorebug-server/internal/middleware"
	"github.com/scorebug/scorebug-server/internal/service"
)

const noCodeMessage = "No code is available. Make sure the setup page is shown on your scorebug."

// LinkHandler is the phone side of pairing: check whether a code is
// live, then claim it.
type LinkHandler struct {
	pairing           *service.PairingService
	sessionSecret     string
	defaultDeviceName string
	isProduction      bool
	rateLimit         func(http.Handler) http.Handler
}

func NewLinkHandler(
	pairing *service.PairingService,
	sessionSecret, defaultDeviceName string,
	isProduction bool,
	rateLimit func(http.Handler) http.Handler,
) *LinkHandler {
	return &LinkHandler{
		pairing:           pairing,
		sessionSecret:     sessionSecret,
		defaultDeviceName: defaultDeviceName,
		isProduction:      isProduction,
		rateLimit:         rateLimit,
	}
}

func (h *LinkHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Availability)
	if h.rateLimit != nil {
		r.With(h.rateLimit).Post("/", h.Claim)
	} else {
		r.Post("/", h.Claim)
	}

	return r
}

func (h *LinkHandler) Availability(w http.ResponseWriter, r *http.Request) {
	available, err := h.pairing.CodeAvailable(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to check code availability")
		writeError(w, apperrors.Store(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"codeAvailable": available})
}

func (h *LinkHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code       string `json:"code"`
		DeviceName string `json:"deviceName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}
	if req.Code == "" {
		writeError(w, apperrors.MissingRequired("code"))
		return
	}

	deviceName := req.DeviceName
	if deviceName == "" {
		deviceName = h.defaultDeviceName
	}

	res, err := h.pairing.Claim(r.Context(), req.Code, deviceName, clientIP(r))
	if err != nil {
		log.Error().Err(err).Msg("claim failed")
		writeError(w, apperrors.Store(err))
		return
	}

	switch res.Status {
	case service.ClaimNoCode:
		// A normal empty state: nobody has the setup screen open.
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  string(service.ClaimNoCode),
			"message": noCodeMessage,
		})

	case service.ClaimMismatch:
		audit.LogFromRequest(r, audit.Event{
			Type:    audit.EventLinkMismatch,
			Details: map[string]interface{}{"rejectedCode": res.RejectedCode},
		})
		writeError(w, apperrors.CodeMismatch(res.RejectedCode))

	case service.ClaimLinked:
		if err := middleware.SetCredentialCookie(w, *res.Credential, h.sessionSecret, h.isProduction); err != nil {
			log.Error().Err(err).Msg("failed to set credential cookie")
			writeError(w, apperrors.Internal("Failed to establish session"))
			return
		}
		audit.LogFromRequest(r, audit.Event{
			Type:       audit.EventLinkSuccess,
			DeviceName: res.Credential.DeviceName,
		})
		writeJSON(w, http.StatusOK, map[string]string{
			"status":     string(service.ClaimLinked),
			"deviceName": res.Credential.DeviceName,
		})
	}
}

func clientIP(r *http.Request) string {
	return r.RemoteAddr
}
