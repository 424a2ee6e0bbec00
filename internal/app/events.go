package app

import "coup/internal/domain"

// EventKind identifies emitted app events for transport dispatch.
type EventKind string

const (
	EventPlayerJoined      EventKind = "player_joined"
	EventPlayerLeft        EventKind = "player_left"
	EventGameStarted       EventKind = "game_started"
	EventHandDealt         EventKind = "hand_dealt"
	EventActionSubmitted   EventKind = "action_submitted"
	EventChallengeResolved EventKind = "challenge_resolved"
	EventBlockDeclared     EventKind = "block_declared"
	EventActionPassed      EventKind = "action_passed"
	EventCardLost          EventKind = "card_lost"
	EventExchangeResolved  EventKind = "exchange_resolved"
	EventGameEnded         EventKind = "game_ended"
)

// Event is an app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type PlayerJoinedPayload struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

type PlayerLeftPayload struct {
	UserID string `json:"user_id"`
}

type GameStartedPayload struct {
	Phase       domain.Phase `json:"phase"`
	FirstTurnID string       `json:"first_turn_id"`
}

type HandDealtPayload struct {
	UserID string        `json:"user_id"`
	Hand   []domain.Card `json:"hand"`
}

type ActionSubmittedPayload struct {
	UserID string            `json:"user_id"`
	Action domain.ActionType `json:"action"`
	Target string            `json:"target,omitempty"`
}

type ChallengeResolvedPayload struct {
	Challenger string      `json:"challenger"`
	Challenged string      `json:"challenged"`
	Claim      domain.Card `json:"claim"`
	Proved     bool        `json:"proved"`
	Loser      string      `json:"loser"`
}

type BlockDeclaredPayload struct {
	Blocker string      `json:"blocker"`
	Claim   domain.Card `json:"claim"`
}

type ActionPassedPayload struct {
	UserID string `json:"user_id"`
}

type CardLostPayload struct {
	UserID    string `json:"user_id"`
	CardsLeft int    `json:"cards_left"`
}

type ExchangeResolvedPayload struct {
	UserID string `json:"user_id"`
}

type GameEndedPayload struct {
	WinnerID string `json:"winner_id"`
}
