package app

import (
	"math/rand"
	"time"

	"coup/internal/domain"
)

// Service contains the game use-cases operating on domain state. Each
// operation either mutates the game and returns the events to dispatch, or
// returns an error with the state untouched.
type Service struct {
	rng *rand.Rand
}

// NewService constructs a Service with the provided rng or a time-seeded
// default.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng}
}

// NewGame creates a lobby-phase game sharing the service rng.
func (s *Service) NewGame(roomID string) *domain.Game {
	return domain.NewGame(roomID, s.rng)
}

// AddPlayer admits a participant to the lobby.
func (s *Service) AddPlayer(g *domain.Game, id, name string) ([]Event, error) {
	if err := g.AddPlayer(id, name); err != nil {
		return nil, err
	}
	return []Event{{
		Kind:    EventPlayerJoined,
		Payload: PlayerJoinedPayload{UserID: id, Name: name},
	}}, nil
}

// RemovePlayer removes a participant; mid-game this may cancel the pending
// action and can decide the game on the next turn advance.
func (s *Service) RemovePlayer(g *domain.Game, id string) ([]Event, error) {
	if err := g.RemovePlayer(id); err != nil {
		return nil, err
	}
	events := []Event{{
		Kind:    EventPlayerLeft,
		Payload: PlayerLeftPayload{UserID: id},
	}}
	return s.appendGameEnd(g, events), nil
}

// StartGame deals hands and opens play. Hands are delivered privately.
func (s *Service) StartGame(g *domain.Game) ([]Event, error) {
	if err := g.Start(); err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(g.Order)+1)
	for _, pid := range g.Order {
		p := g.Players[pid]
		events = append(events, Event{
			Kind:       EventHandDealt,
			Payload:    HandDealtPayload{UserID: pid, Hand: append([]domain.Card(nil), p.Hand...)},
			Recipients: []string{pid},
		})
	}
	events = append(events, Event{
		Kind:    EventGameStarted,
		Payload: GameStartedPayload{Phase: g.Phase, FirstTurnID: g.Order[g.TurnIndex]},
	})
	return events, nil
}

// SubmitAction declares the turn owner's action.
func (s *Service) SubmitAction(g *domain.Game, sourceID string, t domain.ActionType, targetID string) ([]Event, error) {
	if err := g.SubmitAction(sourceID, t, targetID); err != nil {
		return nil, err
	}
	events := []Event{{
		Kind:    EventActionSubmitted,
		Payload: ActionSubmittedPayload{UserID: sourceID, Action: t, Target: targetID},
	}}
	return s.appendGameEnd(g, events), nil
}

// DeclareChallenge disputes the standing action or block claim.
func (s *Service) DeclareChallenge(g *domain.Game, challengerID string) ([]Event, error) {
	result, err := g.DeclareChallenge(challengerID)
	if err != nil {
		return nil, err
	}
	return []Event{{
		Kind: EventChallengeResolved,
		Payload: ChallengeResolvedPayload{
			Challenger: challengerID,
			Challenged: result.Challenged,
			Claim:      result.Claim,
			Proved:     result.Proved,
			Loser:      result.Loser,
		},
	}}, nil
}

// DeclareBlock records a counter-claim against the declared action.
func (s *Service) DeclareBlock(g *domain.Game, blockerID string, claim domain.Card) ([]Event, error) {
	if err := g.DeclareBlock(blockerID, claim); err != nil {
		return nil, err
	}
	return []Event{{
		Kind:    EventBlockDeclared,
		Payload: BlockDeclaredPayload{Blocker: blockerID, Claim: claim},
	}}, nil
}

// Pass waives the current objection window on behalf of participantID.
func (s *Service) Pass(g *domain.Game, participantID string) ([]Event, error) {
	if err := g.Pass(); err != nil {
		return nil, err
	}
	events := []Event{{
		Kind:    EventActionPassed,
		Payload: ActionPassedPayload{UserID: participantID},
	}}
	return s.appendGameEnd(g, events), nil
}

// ResolveCardLoss discards the designated loser's chosen card.
func (s *Service) ResolveCardLoss(g *domain.Game, participantID string, cardIndex int) ([]Event, error) {
	if err := g.ResolveCardLoss(participantID, cardIndex); err != nil {
		return nil, err
	}
	p := g.Players[participantID]
	events := []Event{{
		Kind:    EventCardLost,
		Payload: CardLostPayload{UserID: participantID, CardsLeft: len(p.Hand)},
	}}
	return s.appendGameEnd(g, events), nil
}

// ChooseExchangeKeep finalizes the exchange selection.
func (s *Service) ChooseExchangeKeep(g *domain.Game, participantID string, kept []domain.Card) ([]Event, error) {
	if err := g.ChooseExchangeKeep(participantID, kept); err != nil {
		return nil, err
	}
	events := []Event{{
		Kind:    EventExchangeResolved,
		Payload: ExchangeResolvedPayload{UserID: participantID},
	}}
	return s.appendGameEnd(g, events), nil
}

// appendGameEnd emits the terminal event when the operation decided the game.
func (s *Service) appendGameEnd(g *domain.Game, events []Event) []Event {
	if g.Phase == domain.PhaseGameOver {
		events = append(events, Event{
			Kind:    EventGameEnded,
			Payload: GameEndedPayload{WinnerID: g.WinnerID},
		})
	}
	return events
}
