package middleware

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scorebug/scorebug-server/internal/audit"
	"github.com/scorebug/scorebug-server/internal/config"
	apperrors "github.com/scorebug/scorebug-server/internal/errors"
	"github.com/scorebug/scorebug-server/internal/httputil"
	"github.com/scorebug/scorebug-server/internal/model"
	"github.com/scorebug/scorebug-server/internal/service"
	"github.com/scorebug/scorebug-server/internal/util"
)

const (
	// CredentialCookie carries the {code, token, deviceName} credential
	// for up to 60 days, same-site only, invisible to page script.
	CredentialCookie = "scorebug_link"
	CredentialMaxAge = config.AuthorizationTTL
)

type contextKey string

const credentialContextKey contextKey = "credential"

// GetCredential returns the verified credential for the request, or nil
// for the host (unauthenticated) display.
func GetCredential(ctx context.Context) *model.Credential {
	if cred, ok := ctx.Value(credentialContextKey).(*model.Credential); ok {
		return cred
	}
	return nil
}

// IsAuthenticated reports whether the request carries a credential that
// matched a live authorization record.
func IsAuthenticated(ctx context.Context) bool {
	return GetCredential(ctx) != nil
}

// SessionMiddleware resolves the credential cookie on every request.
// A missing, malformed, or stale credential downgrades the caller to
// host behavior instead of rejecting the request; only a store failure
// aborts it.
type SessionMiddleware struct {
	pairing *service.PairingService
	secret  string
}

func NewSessionMiddleware(pairing *service.PairingService, secret string) *SessionMiddleware {
	return &SessionMiddleware{pairing: pairing, secret: secret}
}

func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CredentialCookie)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		cred, err := DecodeCredential(cookie.Value, m.secret)
		if err != nil {
			log.Warn().Err(err).Msg("session middleware: invalid credential cookie")
			next.ServeHTTP(w, r)
			return
		}

		ok, err := m.pairing.Verify(r.Context(), cred.Code, cred.Token)
		if err != nil {
			log.Error().Err(err).Msg("session middleware: store error")
			httputil.WriteError(w, apperrors.Store(err))
			return
		}

		if !ok {
			// Expired or revoked record: fall back to host behavior.
			audit.LogFromRequest(r, audit.Event{
				Type:       audit.EventStaleCredential,
				DeviceName: cred.DeviceName,
			})
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), credentialContextKey, cred)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// EncodeCredential serializes a credential for cookie transport. With a
// secret configured the payload is HMAC-signed; without one it is bare
// base64 (the store lookup still gates every use).
func EncodeCredential(cred model.Credential, secret string) (string, error) {
	data, err := json.Marshal(cred)
	if err != nil {
		return "", err
	}

	payload := base64.RawURLEncoding.EncodeToString(data)
	if secret == "" {
		return payload, nil
	}
	return payload + "." + util.HmacSHA256(secret, payload), nil
}

func DecodeCredential(value, secret string) (*model.Credential, error) {
	payload := value
	if secret != "" {
		i := strings.LastIndexByte(value, '.')
		if i < 0 {
			return nil, errors.New("credential missing signature")
		}
		payload = value[:i]
		if !util.ConstantTimeEqual(value[i+1:], util.HmacSHA256(secret, payload)) {
			return nil, errors.New("credential signature mismatch")
		}
	}

	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, err
	}

	var cred model.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, err
	}
	if cred.Code == "" || cred.Token == "" {
		return nil, errors.New("credential incomplete")
	}
	return &cred, nil
}

func SetCredentialCookie(w http.ResponseWriter, cred model.Credential, secret string, secure bool) error {
	value, err := EncodeCredential(cred, secret)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CredentialCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   int(CredentialMaxAge / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func ClearCredentialCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   CredentialCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
