package domain

import (
	"errors"
	"math/rand"
	"time"
)

// Phase represents the lifecycle stage of a game room.
type Phase string

const (
	// PhaseLobby is the pre-game state where participants can join.
	PhaseLobby Phase = "lobby"
	// PhasePlaying is the active state where the turn owner declares actions.
	PhasePlaying Phase = "playing"
	// PhaseAwaitingChallenge waits for a challenge against the declared action.
	PhaseAwaitingChallenge Phase = "awaiting_challenge"
	// PhaseAwaitingBlock waits for a counter-claim against the declared action.
	PhaseAwaitingBlock Phase = "awaiting_block"
	// PhaseAwaitingBlockChallenge waits for a challenge against the block.
	PhaseAwaitingBlockChallenge Phase = "awaiting_block_challenge"
	// PhaseAwaitingCardLoss waits for the dispute loser to discard.
	PhaseAwaitingCardLoss Phase = "awaiting_card_loss"
	// PhaseAwaitingCoupTargetLoss waits for a coup or assassination target to discard.
	PhaseAwaitingCoupTargetLoss Phase = "awaiting_coup_target_loss"
	// PhaseAwaitingExchangeChoice waits for the exchange source to pick kept cards.
	PhaseAwaitingExchangeChoice Phase = "awaiting_exchange_choice"
	// PhaseGameOver is terminal; a winner has been recorded.
	PhaseGameOver Phase = "game_over"
)

// phaseResolveAction is a continuation-only marker stored on the pending
// record; it is never the current phase.
const phaseResolveAction Phase = "resolving_action"

var (
	ErrWrongPhase        = errors.New("operation not valid in current phase")
	ErrDuplicatePlayer   = errors.New("participant id already present")
	ErrUnknownPlayer     = errors.New("participant not found")
	ErrRoomFull          = errors.New("room is full")
	ErrTooFewPlayers     = errors.New("not enough participants to start")
	ErrNotYourTurn       = errors.New("actor does not hold the turn")
	ErrUnknownAction     = errors.New("unknown action type")
	ErrInsufficientCoins = errors.New("insufficient coins for action")
	ErrInvalidTarget     = errors.New("action target missing or not alive")
	ErrIneligible        = errors.New("participant not eligible for this move")
	ErrInvalidBlockCard  = errors.New("claimed character cannot block this action")
	ErrWrongLoser        = errors.New("participant is not the designated loser")
	ErrInvalidCardIndex  = errors.New("card index out of range")
	ErrInvalidKeep       = errors.New("kept cards are not a valid selection")
)

// PendingAction captures an in-flight action and its evolving dispute
// sub-state. Exactly one exists while the phase is a waiting phase; it is
// discarded the moment the action fully resolves or fully fails.
type PendingAction struct {
	Type       ActionType
	Source     string
	Target     string
	Challenger string
	Blocker    string
	BlockCard  Card
	Loser      string

	// nextPhase is the continuation entered once the pending card loss
	// completes: resume play, open the block window, or resolve the action.
	nextPhase Phase
}

// ChallengeResult reports how a declared challenge resolved.
type ChallengeResult struct {
	Challenged string // party whose claim was disputed
	Claim      Card   // character the claim named
	Proved     bool   // true when the challenged party held the character
	Loser      string // participant who must now discard
}

// Game owns all mutable state for one room: the card pool, the ordered
// roster, the turn pointer, the current phase and the pending action. It must
// be driven by a single sequential stream of operations; the Nakama match
// loop provides that serialization.
type Game struct {
	RoomID    string
	Players   map[string]*Player
	Order     []string
	TurnIndex int
	Phase     Phase
	Pending   *PendingAction
	WinnerID  string

	pool *Pool
	rng  *rand.Rand
}

// NewGame creates a lobby-phase game for the given room. rng may be nil to
// use a time-seeded default.
func NewGame(roomID string, rng *rand.Rand) *Game {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Game{
		RoomID:  roomID,
		Players: make(map[string]*Player),
		Phase:   PhaseLobby,
		pool:    NewPool(rng),
		rng:     rng,
	}
}

// AddPlayer admits a participant while the room is in the lobby.
func (g *Game) AddPlayer(id, name string) error {
	if g.Phase != PhaseLobby {
		return ErrWrongPhase
	}
	if _, ok := g.Players[id]; ok {
		return ErrDuplicatePlayer
	}
	if len(g.Order) >= MaxPlayers {
		return ErrRoomFull
	}
	g.Players[id] = NewPlayer(id, name)
	g.Order = append(g.Order, id)
	return nil
}

// RemovePlayer removes a participant at any time. Mid-game, the leaver's
// cards return to the pool so conservation holds, and a pending action is
// cancelled when the leaver is any party to it or held the turn pointer.
func (g *Game) RemovePlayer(id string) error {
	idx := -1
	for i, pid := range g.Order {
		if pid == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrUnknownPlayer
	}

	p := g.Players[id]
	g.Order = append(g.Order[:idx], g.Order[idx+1:]...)
	delete(g.Players, id)

	if g.Phase == PhaseLobby || g.Phase == PhaseGameOver {
		return nil
	}

	// Return the leaver's cards so the 15-card invariant survives the leave.
	if len(p.Hand) > 0 {
		for _, c := range p.Hand {
			g.pool.Return(c)
		}
		g.pool.Shuffle()
	}

	if g.Pending != nil && g.pendingInvolves(id) {
		g.Pending = nil
		g.Phase = PhasePlaying
	}

	if idx < g.TurnIndex {
		g.TurnIndex--
	} else if idx == g.TurnIndex {
		if len(g.Order) == 0 {
			g.TurnIndex = 0
			return nil
		}
		g.TurnIndex = g.TurnIndex % len(g.Order)
		g.Pending = nil
		g.Phase = PhasePlaying
	}
	if g.Phase == PhasePlaying {
		g.ensureTurnOnAlive()
	}
	return nil
}

// Start deals hands, picks a random first turn and enters the playing phase.
func (g *Game) Start() error {
	if g.Phase != PhaseLobby {
		return ErrWrongPhase
	}
	if len(g.Order) < MinPlayers {
		return ErrTooFewPlayers
	}

	g.pool.Initialize()
	g.pool.Shuffle()
	for _, pid := range g.Order {
		p := g.Players[pid]
		p.Hand = p.Hand[:0]
		for i := 0; i < StartingHandSize; i++ {
			c, _ := g.pool.Draw()
			p.AddCard(c)
		}
	}

	g.TurnIndex = g.rng.Intn(len(g.Order))
	g.Phase = PhasePlaying
	return nil
}

// SubmitAction declares the turn owner's action. Coup and Assassinate debit
// their cost immediately; Coup skips all dispute phases.
func (g *Game) SubmitAction(sourceID string, t ActionType, targetID string) error {
	if g.Phase != PhasePlaying {
		return ErrWrongPhase
	}
	src, ok := g.Players[sourceID]
	if !ok {
		return ErrUnknownPlayer
	}
	if g.Order[g.TurnIndex] != sourceID {
		return ErrNotYourTurn
	}
	spec, ok := Actions[t]
	if !ok {
		return ErrUnknownAction
	}
	if spec.NeedsTarget {
		target, ok := g.Players[targetID]
		if !ok || !target.Alive() || targetID == sourceID {
			return ErrInvalidTarget
		}
	}
	if src.Coins < spec.Cost {
		return ErrInsufficientCoins
	}

	src.Coins -= spec.Cost
	g.Pending = &PendingAction{Type: t, Source: sourceID, Target: targetID}

	switch {
	case t == Coup:
		g.Phase = PhaseAwaitingCoupTargetLoss
	case spec.Challengeable:
		g.Phase = PhaseAwaitingChallenge
	case spec.Blockable:
		g.Phase = PhaseAwaitingBlock
	default:
		g.resolveAction()
	}
	return nil
}

// DeclareChallenge disputes the standing claim: the action's claimed
// character, or the block's. The challenged party proves the claim by
// revealing the character, which is swapped for a fresh draw; either way the
// losing side must discard next.
func (g *Game) DeclareChallenge(challengerID string) (ChallengeResult, error) {
	if g.Phase != PhaseAwaitingChallenge && g.Phase != PhaseAwaitingBlockChallenge {
		return ChallengeResult{}, ErrWrongPhase
	}
	challenger, ok := g.Players[challengerID]
	if !ok || !challenger.Alive() {
		return ChallengeResult{}, ErrIneligible
	}

	blockChallenge := g.Phase == PhaseAwaitingBlockChallenge
	challengedID := g.Pending.Source
	claim := Actions[g.Pending.Type].Claim
	if blockChallenge {
		challengedID = g.Pending.Blocker
		claim = g.Pending.BlockCard
	}
	if challengerID == challengedID {
		return ChallengeResult{}, ErrIneligible
	}
	challenged := g.Players[challengedID]

	g.Pending.Challenger = challengerID
	result := ChallengeResult{Challenged: challengedID, Claim: claim}

	if challenged.TakeCard(claim) {
		// Claim proved. The revealed card is swapped for a fresh draw so the
		// challenged hand size is preserved, and the challenger must discard.
		g.pool.Return(claim)
		g.pool.Shuffle()
		replacement, _ := g.pool.Draw()
		challenged.AddCard(replacement)

		g.Pending.Loser = challengerID
		result.Proved = true
		result.Loser = challengerID

		if blockChallenge {
			// Block stands; the action is void.
			g.Pending.nextPhase = PhasePlaying
			g.refundIfAssassinate()
		} else if Actions[g.Pending.Type].Blockable {
			g.Pending.nextPhase = PhaseAwaitingBlock
		} else {
			g.Pending.nextPhase = phaseResolveAction
		}
	} else {
		// Claim disproved; the challenged party discards.
		g.Pending.Loser = challengedID
		result.Loser = challengedID

		if blockChallenge {
			// Block void; the original action proceeds.
			g.Pending.nextPhase = phaseResolveAction
		} else {
			// Action void; play resumes after the discard.
			g.Pending.nextPhase = PhasePlaying
		}
	}

	g.Phase = PhaseAwaitingCardLoss
	return result, nil
}

// DeclareBlock records a counter-claim against the declared action. Foreign
// Aid may be blocked by any alive participant other than the source; Steal
// and Assassinate only by their target.
func (g *Game) DeclareBlock(blockerID string, claim Card) error {
	if g.Phase != PhaseAwaitingBlock {
		return ErrWrongPhase
	}
	blocker, ok := g.Players[blockerID]
	if !ok || !blocker.Alive() || blockerID == g.Pending.Source {
		return ErrIneligible
	}
	if g.Pending.Type == Steal || g.Pending.Type == Assassinate {
		if blockerID != g.Pending.Target {
			return ErrIneligible
		}
	}
	if !Actions[g.Pending.Type].CanBlockWith(claim) {
		return ErrInvalidBlockCard
	}

	g.Pending.Blocker = blockerID
	g.Pending.BlockCard = claim
	g.Phase = PhaseAwaitingBlockChallenge
	return nil
}

// Pass waives the standing objection window. Identity eligibility is
// enforced by the transport layer's filter; the engine validates phase only.
func (g *Game) Pass() error {
	switch g.Phase {
	case PhaseAwaitingChallenge:
		if Actions[g.Pending.Type].Blockable {
			g.Phase = PhaseAwaitingBlock
		} else {
			g.resolveAction()
		}
	case PhaseAwaitingBlock:
		g.resolveAction()
	case PhaseAwaitingBlockChallenge:
		// The block stands; the action is void.
		g.refundIfAssassinate()
		g.nextTurn()
	default:
		return ErrWrongPhase
	}
	return nil
}

// ResolveCardLoss discards the designated loser's card at the given index,
// returns it to the pool and continues the recorded flow.
func (g *Game) ResolveCardLoss(participantID string, cardIndex int) error {
	switch g.Phase {
	case PhaseAwaitingCardLoss:
		if participantID != g.Pending.Loser {
			return ErrWrongLoser
		}
	case PhaseAwaitingCoupTargetLoss:
		if participantID != g.Pending.Target {
			return ErrWrongLoser
		}
	default:
		return ErrWrongPhase
	}

	p, ok := g.Players[participantID]
	if !ok {
		return ErrUnknownPlayer
	}
	c, ok := p.RemoveCard(cardIndex)
	if !ok {
		return ErrInvalidCardIndex
	}
	g.pool.Return(c)
	g.pool.Shuffle()

	if g.Phase == PhaseAwaitingCoupTargetLoss {
		g.nextTurn()
		return nil
	}

	next := g.Pending.nextPhase
	g.Pending.Loser = ""
	g.Pending.nextPhase = ""
	switch next {
	case PhaseAwaitingBlock:
		g.Phase = PhaseAwaitingBlock
	case phaseResolveAction:
		g.resolveAction()
	default:
		g.nextTurn()
	}
	return nil
}

// ChooseExchangeKeep finalizes an exchange: kept must be a sub-multiset of
// the enlarged hand sized to the pre-draw hand. The exact multiset difference
// returns to the pool, so conservation holds.
func (g *Game) ChooseExchangeKeep(participantID string, kept []Card) error {
	if g.Phase != PhaseAwaitingExchangeChoice {
		return ErrWrongPhase
	}
	if participantID != g.Pending.Source {
		return ErrIneligible
	}
	p := g.Players[participantID]
	if len(kept) != len(p.Hand)-ExchangeDrawCount {
		return ErrInvalidKeep
	}

	remaining := make(map[Card]int, len(Characters))
	for _, c := range p.Hand {
		remaining[c]++
	}
	for _, c := range kept {
		if remaining[c] == 0 {
			return ErrInvalidKeep
		}
		remaining[c]--
	}

	p.Hand = append(p.Hand[:0:0], kept...)
	for c, n := range remaining {
		for i := 0; i < n; i++ {
			g.pool.Return(c)
		}
	}
	g.pool.Shuffle()

	g.nextTurn()
	return nil
}

// CurrentPlayer returns the participant at the turn pointer, or nil when the
// roster is empty.
func (g *Game) CurrentPlayer() *Player {
	if len(g.Order) == 0 || g.TurnIndex >= len(g.Order) {
		return nil
	}
	return g.Players[g.Order[g.TurnIndex]]
}

// AlivePlayers returns the ids of participants still holding cards, in turn
// order.
func (g *Game) AlivePlayers() []string {
	var alive []string
	for _, pid := range g.Order {
		if g.Players[pid].Alive() {
			alive = append(alive, pid)
		}
	}
	return alive
}

// PoolLen reports the number of cards currently in the shared pool.
func (g *Game) PoolLen() int {
	return g.pool.Len()
}

// resolveAction applies the action's direct effect once every dispute is
// settled or was never applicable.
func (g *Game) resolveAction() {
	a := g.Pending
	src := g.Players[a.Source]

	switch a.Type {
	case Income:
		src.Coins++
	case ForeignAid:
		src.Coins += 2
	case Tax:
		src.Coins += 3
	case Steal:
		if target, ok := g.Players[a.Target]; ok && target.Coins > 0 {
			amount := target.Coins
			if amount > 2 {
				amount = 2
			}
			target.Coins -= amount
			src.Coins += amount
		}
	case Assassinate:
		if target, ok := g.Players[a.Target]; ok && target.Alive() {
			g.Phase = PhaseAwaitingCoupTargetLoss
			return
		}
		// Target already eliminated during the dispute; the hit fizzles.
	case Exchange:
		for i := 0; i < ExchangeDrawCount; i++ {
			if c, ok := g.pool.Draw(); ok {
				src.AddCard(c)
			}
		}
		g.Phase = PhaseAwaitingExchangeChoice
		return
	}
	g.nextTurn()
}

// nextTurn advances the pointer to the next alive participant, or ends the
// game when at most one remains.
func (g *Game) nextTurn() {
	alive := g.AlivePlayers()
	if len(alive) <= 1 {
		g.Phase = PhaseGameOver
		g.Pending = nil
		if len(alive) == 1 {
			g.WinnerID = alive[0]
		}
		return
	}
	if len(g.Order) == 0 {
		return
	}

	g.Pending = nil
	g.Phase = PhasePlaying

	attempts := 0
	for {
		g.TurnIndex = (g.TurnIndex + 1) % len(g.Order)
		attempts++
		if g.Players[g.Order[g.TurnIndex]].Alive() || attempts >= len(g.Order) {
			return
		}
	}
}

// ensureTurnOnAlive repositions the pointer onto an alive participant after a
// roster removal, without triggering the game-over check.
func (g *Game) ensureTurnOnAlive() {
	if len(g.Order) == 0 {
		return
	}
	for i := 0; i < len(g.Order); i++ {
		if g.Players[g.Order[g.TurnIndex]].Alive() {
			return
		}
		g.TurnIndex = (g.TurnIndex + 1) % len(g.Order)
	}
}

// refundIfAssassinate returns the up-front assassination cost when the
// action is voided by a standing block.
func (g *Game) refundIfAssassinate() {
	if g.Pending.Type != Assassinate {
		return
	}
	if src, ok := g.Players[g.Pending.Source]; ok {
		src.Coins += 3
	}
}

// pendingInvolves reports whether the pending action references the given
// participant in any role.
func (g *Game) pendingInvolves(id string) bool {
	a := g.Pending
	return a.Source == id || a.Target == id || a.Blocker == id || a.Loser == id || a.Challenger == id
}
