package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	apperrors "github.com/scorebug/scorebug-server/internal/errors"
	"github.com/scorebug/scorebug-server/internal/model"
	"github.com/scorebug/scorebug-server/internal/repository"
	"github.com/scorebug/scorebug-server/internal/sse"
)

// DisplayService owns the shared current-game pointer every viewer of a
// host synchronizes against. Any viewer may read it; only the host
// (the unauthenticated display itself) may move it, so a linked phone
// cannot silently redirect the shared screen.
type DisplayService struct {
	store  repository.PairingStore
	broker *sse.Broker // nil in tests
	events repository.LinkEventRepository
}

func NewDisplayService(store repository.PairingStore, broker *sse.Broker, events repository.LinkEventRepository) *DisplayService {
	return &DisplayService{store: store, broker: broker, events: events}
}

// Current returns the selected game id, or "" when none is selected.
func (s *DisplayService) Current(ctx context.Context) (string, error) {
	id, err := s.store.CurrentGameID(ctx)
	if err != nil {
		return "", fmt.Errorf("current game: %w", err)
	}
	return id, nil
}

// Set moves the pointer. An empty gameID clears the selection outright;
// a non-empty one is stored with the pointer TTL. Writers that hold a
// credential are rejected.
func (s *DisplayService) Set(ctx context.Context, gameID string, isHost bool, ip string) error {
	if !isHost {
		return apperrors.Forbidden("Only the host display may change the current game")
	}

	if gameID == "" {
		if err := s.store.ClearCurrentGameID(ctx); err != nil {
			return fmt.Errorf("clear current game: %w", err)
		}
		log.Info().Msg("current game cleared")
		s.recordEvent(ctx, model.EventGameCleared, "", ip)
	} else {
		if err := s.store.SetCurrentGameID(ctx, gameID); err != nil {
			return fmt.Errorf("set current game: %w", err)
		}
		log.Info().Str("gameId", gameID).Msg("current game selected")
		s.recordEvent(ctx, model.EventGameSelected, gameID, ip)
	}

	s.publish(ctx, gameID)
	return nil
}

func (s *DisplayService) publish(ctx context.Context, gameID string) {
	if s.broker == nil {
		return
	}

	var id *string
	if gameID != "" {
		id = &gameID
	}
	data, _ := json.Marshal(map[string]*string{"currentGameId": id})

	if err := s.broker.Publish(ctx, sse.Event{Type: "display", Data: data}); err != nil {
		log.Warn().Err(err).Msg("failed to publish display update")
	}
}

func (s *DisplayService) recordEvent(ctx context.Context, eventType model.LinkEventType, detail, ip string) {
	if s.events == nil {
		return
	}
	err := s.events.Record(ctx, model.RecordLinkEventParams{
		EventType: eventType,
		Detail:    detail,
		IP:        ip,
	})
	if err != nil {
		log.Error().Err(err).Str("eventType", string(eventType)).Msg("failed to record link event")
	}
}
