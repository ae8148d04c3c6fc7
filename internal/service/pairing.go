package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/scorebug/scorebug-server/internal/audit"
	"github.com/scorebug/scorebug-server/internal/config"
	"github.com/scorebug/scorebug-server/internal/model"
	"github.com/scorebug/scorebug-server/internal/repository"
	"github.com/scorebug/scorebug-server/internal/util"
)

type ClaimStatus string

const (
	// ClaimLinked: the submitted code matched and a credential was minted.
	ClaimLinked ClaimStatus = "linked"
	// ClaimNoCode: no code is live. A normal empty state, not an error.
	ClaimNoCode ClaimStatus = "no_code"
	// ClaimMismatch: the submitted code differs from the live one.
	ClaimMismatch ClaimStatus = "mismatch"
)

type ClaimResult struct {
	Status ClaimStatus
	// RejectedCode echoes the submitted value on mismatch so the UI can
	// keep the error hidden while the same wrong code sits in the input.
	RejectedCode string
	Credential   *model.Credential
}

// PairingService owns the link-code lifecycle: issue/refresh on the
// host side, claim on the phone side, verify on every later request.
type PairingService struct {
	store  repository.PairingStore
	events repository.LinkEventRepository // nil when history is disabled
}

func NewPairingService(store repository.PairingStore, events repository.LinkEventRepository) *PairingService {
	return &PairingService{store: store, events: events}
}

// EnsureLinkCode returns the live code, generating a fresh one when
// none exists or fewer than the refresh floor remains. Refreshing with
// headroom (instead of at absolute expiry) keeps a user from catching
// the tail seconds of a code and failing the link attempt mid-entry.
func (s *PairingService) EnsureLinkCode(ctx context.Context) (*model.LinkCode, error) {
	code, err := s.store.LinkCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("ensure link code: %w", err)
	}
	ttl, err := s.store.LinkCodeTTL(ctx)
	if err != nil {
		return nil, fmt.Errorf("ensure link code: %w", err)
	}

	if code == "" || ttl < config.LinkCodeRefreshFloor {
		code = util.RandomString(config.LinkCodeLength)
		if err := s.store.SetLinkCode(ctx, code); err != nil {
			return nil, fmt.Errorf("ensure link code: %w", err)
		}
		ttl = config.LinkCodeTTL

		log.Info().Str("code", code).Dur("ttl", ttl).Msg("link code issued")
		audit.Log(audit.Event{Type: audit.EventCodeIssued, Details: map[string]interface{}{"code": code}})
	}

	return &model.LinkCode{Value: code, TTL: ttl}, nil
}

// CodeAvailable reports whether a code is currently live, for the link
// form's empty state.
func (s *PairingService) CodeAvailable(ctx context.Context) (bool, error) {
	code, err := s.store.LinkCode(ctx)
	if err != nil {
		return false, fmt.Errorf("code available: %w", err)
	}
	return code != "", nil
}

// Claim matches a submitted code against the live one and, on success,
// mints a token and persists the authorization record the credential
// will be verified against. The read-then-write window during which the
// host could refresh the code is accepted; the store has no
// conditional write and the short code is already a usability tradeoff.
func (s *PairingService) Claim(ctx context.Context, submitted, deviceName, ip string) (ClaimResult, error) {
	live, err := s.store.LinkCode(ctx)
	if err != nil {
		return ClaimResult{}, fmt.Errorf("claim: %w", err)
	}
	if live == "" {
		return ClaimResult{Status: ClaimNoCode}, nil
	}

	normalized := strings.ToUpper(strings.TrimSpace(submitted))
	if normalized != live {
		log.Warn().Str("rejectedCode", normalized).Msg("link code mismatch")
		return ClaimResult{Status: ClaimMismatch, RejectedCode: normalized}, nil
	}

	token := util.RandomString(config.TokenLength)
	rec := model.AuthorizationRecord{Token: token, DeviceName: deviceName}
	if err := s.store.SaveAuthorization(ctx, live, rec); err != nil {
		return ClaimResult{}, fmt.Errorf("claim: %w", err)
	}

	log.Info().
		Str("code", live).
		Str("token", util.MaskToken(token)).
		Str("deviceName", deviceName).
		Msg("device linked")

	s.recordEvent(ctx, model.RecordLinkEventParams{
		EventType:  model.EventDeviceLinked,
		DeviceName: deviceName,
		Detail:     live,
		IP:         ip,
	})

	return ClaimResult{
		Status: ClaimLinked,
		Credential: &model.Credential{
			Code:       live,
			Token:      token,
			DeviceName: deviceName,
		},
	}, nil
}

// Verify reports whether (code, token) matches a live authorization
// record. One store read, no other side effects.
func (s *PairingService) Verify(ctx context.Context, code, token string) (bool, error) {
	if code == "" || token == "" {
		return false, nil
	}

	rec, err := s.store.Authorization(ctx, code)
	if err != nil {
		return false, fmt.Errorf("verify: %w", err)
	}
	if rec == nil {
		return false, nil
	}
	return util.ConstantTimeEqual(rec.Token, token), nil
}

// ConfirmLinked is the host's completion poll: once an authorization
// record exists for the code it was showing, the code has been consumed
// and the live code is deleted so the setup screen stops displaying it.
func (s *PairingService) ConfirmLinked(ctx context.Context, code string) (bool, error) {
	rec, err := s.store.Authorization(ctx, code)
	if err != nil {
		return false, fmt.Errorf("confirm linked: %w", err)
	}
	if rec == nil {
		return false, nil
	}

	if err := s.store.DeleteLinkCode(ctx); err != nil {
		return false, fmt.Errorf("confirm linked: %w", err)
	}

	log.Info().Str("code", code).Str("deviceName", rec.DeviceName).Msg("link confirmed, code consumed")
	return true, nil
}

// Unlink drops the browser-side credential only. The authorization
// record is left to age out with its TTL.
func (s *PairingService) Unlink(ctx context.Context, cred *model.Credential, ip string) {
	if cred == nil {
		return
	}

	log.Info().Str("deviceName", cred.DeviceName).Msg("device unlinked")

	s.recordEvent(ctx, model.RecordLinkEventParams{
		EventType:  model.EventDeviceUnlinked,
		DeviceName: cred.DeviceName,
		IP:         ip,
	})
}

func (s *PairingService) recordEvent(ctx context.Context, params model.RecordLinkEventParams) {
	if s.events == nil {
		return
	}
	if err := s.events.Record(ctx, params); err != nil {
		log.Error().Err(err).Str("eventType", string(params.EventType)).Msg("failed to record link event")
	}
}
