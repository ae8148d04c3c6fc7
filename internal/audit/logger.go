// Package audit emits structured security events on the application
// log stream. Events cover the pairing lifecycle and denied writes so
// an operator can reconstruct who linked, from where, and what was
// rejected.
package audit

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventCodeIssued      EventType = "code_issued"
	EventLinkSuccess     EventType = "link_success"
	EventLinkMismatch    EventType = "link_mismatch"
	EventUnlink          EventType = "unlink"
	EventDisplayDenied   EventType = "display_write_denied"
	EventRateLimitExceed EventType = "rate_limit_exceeded"
	EventStaleCredential EventType = "stale_credential"
)

type Event struct {
	Type       EventType
	DeviceName string
	IP         string
	UserAgent  string
	Details    map[string]interface{}
}

func Log(event Event) {
	logger := log.With().
		Str("audit", "security").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now()).
		Logger()

	if event.DeviceName != "" {
		logger = logger.With().Str("device_name", event.DeviceName).Logger()
	}
	if event.IP != "" {
		logger = logger.With().Str("ip", event.IP).Logger()
	}
	if event.UserAgent != "" {
		logger = logger.With().Str("user_agent", event.UserAgent).Logger()
	}

	logEvent := logger.Info()
	for k, v := range event.Details {
		logEvent = addField(logEvent, k, v)
	}
	logEvent.Msg("security audit event")
}

func addField(e *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return e.Str(key, v)
	case int:
		return e.Int(key, v)
	case int64:
		return e.Int64(key, v)
	case bool:
		return e.Bool(key, v)
	default:
		return e.Interface(key, v)
	}
}

// LogFromRequest fills in the client address and user agent from the
// request before logging.
func LogFromRequest(r *http.Request, event Event) {
	event.IP = clientIP(r)
	event.UserAgent = r.UserAgent()
	Log(event)
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
