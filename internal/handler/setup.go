package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"

	apperrors "github.com/scorebug/scorebug-server/internal/errors"
	"github.com/scorebug/scorebug-server/internal/service"
)

const qrSize = 512

// SetupHandler backs the host display's setup screen: the code it
// shows, the poll that notices the code was claimed, and a QR shortcut
// to the link page.
type SetupHandler struct {
	pairing *service.PairingService
	baseURL string
}

func NewSetupHandler(pairing *service.PairingService, baseURL string) *SetupHandler {
	return &SetupHandler{pairing: pairing, baseURL: baseURL}
}

func (h *SetupHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/code", h.Code)
	r.Get("/status", h.Status)
	r.Get("/qr", h.QR)

	return r
}

// Code issues or refreshes the link code. The setup screen polls this
// every 30 seconds so the displayed code stays claimable.
func (h *SetupHandler) Code(w http.ResponseWriter, r *http.Request) {
	lc, err := h.pairing.EnsureLinkCode(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to ensure link code")
		writeError(w, apperrors.Store(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"code":      lc.Value,
		"expiresIn": int(lc.TTL.Seconds()),
		"linkUrl":   h.linkURL(r),
	})
}

// Status reports whether the code the host was last showing has been
// claimed. Once it has, the live code is consumed and the setup screen
// should transition away.
func (h *SetupHandler) Status(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("code")))
	if code == "" {
		writeError(w, apperrors.MissingRequired("code"))
		return
	}

	linked, err := h.pairing.ConfirmLinked(r.Context(), code)
	if err != nil {
		log.Error().Err(err).Msg("failed to confirm link status")
		writeError(w, apperrors.Store(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"linked": linked})
}

// QR renders the link page address as a QR code so a phone can skip
// typing the URL shown on the TV.
func (h *SetupHandler) QR(w http.ResponseWriter, r *http.Request) {
	png, err := qrcode.Encode(h.linkURL(r), qrcode.Medium, qrSize)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode qr code")
		writeError(w, apperrors.Internal("Failed to render QR code"))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *SetupHandler) linkURL(r *http.Request) string {
	base := h.baseURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return strings.TrimRight(base, "/") + "/link"
}
