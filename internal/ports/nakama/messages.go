package nakama

import (
	"coup/internal/app"
	"coup/internal/domain"
)

// Wire payloads are JSON. Client requests carry only arguments; identity and
// room come from the Nakama message envelope.

type SubmitActionRequest struct {
	Action domain.ActionType `json:"action"`
	Target string            `json:"target,omitempty"`
}

type BlockRequest struct {
	Card domain.Card `json:"card"`
}

type ResolveLossRequest struct {
	CardIndex int `json:"card_index"`
}

type ExchangeKeepRequest struct {
	Keep []domain.Card `json:"keep"`
}

// Label is the match label advertised for quick-match queries.
type Label struct {
	Open    bool   `json:"open"`
	Game    string `json:"game"`
	Phase   string `json:"phase"`
	Private bool   `json:"private"`
}

// ErrorEvent is sent to the requester only when an operation is rejected.
type ErrorEvent struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ParticipantView is the public per-participant portion of a snapshot; hand
// contents are never included here.
type ParticipantView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Coins     int    `json:"coins"`
	CardCount int    `json:"card_count"`
	Alive     bool   `json:"alive"`
}

// PendingView is the public view of the in-flight action. It never carries
// the undetermined dispute outcome.
type PendingView struct {
	Type    domain.ActionType `json:"type"`
	Source  string            `json:"source"`
	Target  string            `json:"target,omitempty"`
	Blocker string            `json:"blocker,omitempty"`
}

// StateSnapshot is the per-recipient authoritative state: shared public
// fields plus the recipient's own hand.
type StateSnapshot struct {
	Phase        domain.Phase      `json:"phase"`
	TurnOwner    string            `json:"turn_owner,omitempty"`
	Participants []ParticipantView `json:"participants"`
	Hand         []domain.Card     `json:"hand,omitempty"`
	Pending      *PendingView      `json:"pending,omitempty"`
	Winner       string            `json:"winner,omitempty"`
}

// eventOpCodes maps app event kinds onto wire opcodes.
var eventOpCodes = map[app.EventKind]int64{
	app.EventPlayerJoined:      OpPlayerJoined,
	app.EventPlayerLeft:        OpPlayerLeft,
	app.EventGameStarted:       OpGameStarted,
	app.EventHandDealt:         OpHandDealt,
	app.EventActionSubmitted:   OpActionSubmitted,
	app.EventChallengeResolved: OpChallengeResolved,
	app.EventBlockDeclared:     OpBlockDeclared,
	app.EventActionPassed:      OpActionPassed,
	app.EventCardLost:          OpCardLost,
	app.EventExchangeResolved:  OpExchangeResolved,
	app.EventGameEnded:         OpGameEnded,
}

// buildSnapshot renders the state for one recipient. An empty recipient id
// produces a spectator view with no hand.
func buildSnapshot(g *domain.Game, recipientID string) StateSnapshot {
	snap := StateSnapshot{
		Phase:  g.Phase,
		Winner: g.WinnerID,
	}
	if cur := g.CurrentPlayer(); cur != nil && g.Phase != domain.PhaseLobby {
		snap.TurnOwner = cur.ID
	}
	for _, pid := range g.Order {
		p := g.Players[pid]
		snap.Participants = append(snap.Participants, ParticipantView{
			ID:        p.ID,
			Name:      p.Name,
			Coins:     p.Coins,
			CardCount: len(p.Hand),
			Alive:     p.Alive(),
		})
	}
	if own, ok := g.Players[recipientID]; ok {
		snap.Hand = append([]domain.Card(nil), own.Hand...)
	}
	if g.Pending != nil {
		snap.Pending = &PendingView{
			Type:    g.Pending.Type,
			Source:  g.Pending.Source,
			Target:  g.Pending.Target,
			Blocker: g.Pending.Blocker,
		}
	}
	return snap
}
