package bot

import (
	"math/rand"
	"time"

	"coup/internal/domain"
)

// IntentKind classifies what an agent wants to do this tick.
type IntentKind int

const (
	IntentNone IntentKind = iota
	IntentAction
	IntentPass
	IntentCardLoss
	IntentExchangeKeep
)

// Intent is one discrete move an agent submits through the app service,
// mirroring the client intent surface.
type Intent struct {
	Kind      IntentKind
	Action    domain.ActionType
	Target    string
	CardIndex int
	Keep      []domain.Card
}

// Agent is an autonomous seat filler. It plays honestly: it only claims
// characters it actually holds, never challenges and never blocks.
type Agent struct {
	ID  string
	rng *rand.Rand
}

// NewAgent constructs an agent for the given bot user id.
func NewAgent(id string) *Agent {
	return &Agent{ID: id, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Decide returns the agent's move for the current state, or ok=false when it
// has no standing to act.
func (a *Agent) Decide(g *domain.Game) (Intent, bool) {
	p, ok := g.Players[a.ID]
	if !ok || !p.Alive() {
		return Intent{}, false
	}

	switch g.Phase {
	case domain.PhasePlaying:
		if cur := g.CurrentPlayer(); cur == nil || cur.ID != a.ID {
			return Intent{}, false
		}
		return a.pickAction(g, p), true

	case domain.PhaseAwaitingChallenge, domain.PhaseAwaitingBlock, domain.PhaseAwaitingBlockChallenge:
		// Honest cowards: bots never object.
		if g.Pending != nil && g.Pending.Source == a.ID {
			return Intent{}, false
		}
		return Intent{Kind: IntentPass}, true

	case domain.PhaseAwaitingCardLoss:
		if g.Pending == nil || g.Pending.Loser != a.ID {
			return Intent{}, false
		}
		return Intent{Kind: IntentCardLoss, CardIndex: 0}, true

	case domain.PhaseAwaitingCoupTargetLoss:
		if g.Pending == nil || g.Pending.Target != a.ID {
			return Intent{}, false
		}
		return Intent{Kind: IntentCardLoss, CardIndex: 0}, true

	case domain.PhaseAwaitingExchangeChoice:
		if g.Pending == nil || g.Pending.Source != a.ID {
			return Intent{}, false
		}
		keep := append([]domain.Card(nil), p.Hand[:len(p.Hand)-domain.ExchangeDrawCount]...)
		return Intent{Kind: IntentExchangeKeep, Keep: keep}, true
	}

	return Intent{}, false
}

// pickAction chooses a declaration backed by cards the agent really holds.
func (a *Agent) pickAction(g *domain.Game, p *domain.Player) Intent {
	target := a.pickTarget(g)

	if p.Coins >= 7 && target != "" {
		return Intent{Kind: IntentAction, Action: domain.Coup, Target: target}
	}
	if p.HasCard(domain.Duke) {
		return Intent{Kind: IntentAction, Action: domain.Tax}
	}
	if p.HasCard(domain.Captain) && target != "" {
		if t := g.Players[target]; t != nil && t.Coins > 0 {
			return Intent{Kind: IntentAction, Action: domain.Steal, Target: target}
		}
	}
	return Intent{Kind: IntentAction, Action: domain.Income}
}

// pickTarget returns a random alive opponent, or "" when none exist.
func (a *Agent) pickTarget(g *domain.Game) string {
	var opponents []string
	for _, pid := range g.AlivePlayers() {
		if pid != a.ID {
			opponents = append(opponents, pid)
		}
	}
	if len(opponents) == 0 {
		return ""
	}
	return opponents[a.rng.Intn(len(opponents))]
}
