package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"math/rand"

	"coup/internal/app"
	"coup/internal/app/invite"
	"coup/internal/bot"
	"coup/internal/config"
	"coup/internal/domain"
	"coup/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// MatchState holds the authoritative runtime state for one room.
type MatchState struct {
	Game      *domain.Game
	App       *app.Service
	Presences map[string]runtime.Presence
	Economy   ports.EconomyPort
	Invite    *invite.Service
	Private   bool

	Tick       int64
	LastPhase  domain.Phase
	PhaseSince int64

	ResponseDeadline int // seconds a waiting phase may sit unanswered; 0 disables

	BotsEnabled      bool
	BotMinDelay      int
	BotMaxDelay      int
	BotAutoFillDelay int
	BotWaitUntil     int64
	SoloHumanSince   int64
	Bots             map[string]*bot.Agent

	Settled bool
}

// HumanCount returns the number of seated participants with a live presence
// expectation (i.e. not bots).
func (ms *MatchState) HumanCount() int {
	count := 0
	for _, pid := range ms.Game.Order {
		if !bot.IsBot(pid) {
			count++
		}
	}
	return count
}

func (ms *MatchState) findSeatedBot() string {
	for _, pid := range ms.Game.Order {
		if bot.IsBot(pid) {
			return pid
		}
	}
	return ""
}

func newMatchHandler() *matchHandler {
	return &matchHandler{}
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	if err := bot.LoadIdentities("data/bot_identities.json"); err != nil {
		logger.Warn("MatchInit: Could not load bot identities: %v", err)
	}
	if err := config.LoadRoomConfig("data/room_config.json"); err != nil {
		logger.Warn("MatchInit: Could not load room config: %v", err)
	}

	roomID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	svc := app.NewService(nil)

	state := &MatchState{
		Game:      svc.NewGame(roomID),
		App:       svc,
		Presences: make(map[string]runtime.Presence),
		Economy:   NewEconomyAdapter(nk),
		Bots:      make(map[string]*bot.Agent),
	}
	state.LastPhase = state.Game.Phase
	state.ResponseDeadline = config.GetResponseDeadline()
	state.BotAutoFillDelay, state.BotMinDelay, state.BotMaxDelay = config.GetBotDelays()

	if private, ok := params["private"].(bool); ok {
		state.Private = private
	}

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if secret := env[inviteSecretEnvKey]; secret != "" {
		state.Invite = invite.NewService(secret, env[inviteIssuerEnvKey], 0)
	} else if state.Private {
		logger.Warn("MatchInit: Private match requested but no invite secret is configured.")
	}
	if val, ok := env["coup_bots_enabled"]; ok {
		state.BotsEnabled = val == "true"
	}

	labelBytes, err := json.Marshal(mh.buildLabel(state))
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1
	return state, tickRate, string(labelBytes)
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// Rejoin is always allowed while the participant is still seated.
	if _, seated := matchState.Game.Players[presence.GetUserId()]; seated {
		return state, true, ""
	}

	if matchState.Private {
		if matchState.Invite == nil {
			return state, false, "private match unavailable"
		}
		matchID, err := matchState.Invite.VerifyToken(metadata["invite_token"])
		if err != nil {
			return state, false, "invalid invite token"
		}
		if ctxMatchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string); matchID != ctxMatchID {
			return state, false, "invite token is for another match"
		}
	}

	if matchState.Game.Phase != domain.PhaseLobby {
		return state, false, "match_in_progress"
	}

	if len(matchState.Game.Order) >= domain.MaxPlayers && matchState.findSeatedBot() == "" {
		return state, false, "match_full"
	}

	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		uid := p.GetUserId()
		matchState.Presences[uid] = p

		if _, seated := matchState.Game.Players[uid]; seated {
			continue // rejoin, snapshot below brings them up to date
		}

		// A full lobby still admits a human by unseating a bot.
		if len(matchState.Game.Order) >= domain.MaxPlayers {
			botID := matchState.findSeatedBot()
			if botID == "" {
				logger.Warn("MatchJoin: User %s joined but no seat was available.", uid)
				continue
			}
			logger.Info("MatchJoin: Replacing bot %s with human %s", botID, uid)
			delete(matchState.Bots, botID)
			if _, err := matchState.App.RemovePlayer(matchState.Game, botID); err != nil {
				logger.Error("MatchJoin: Failed to unseat bot %s: %v", botID, err)
				continue
			}
		}

		events, err := matchState.App.AddPlayer(matchState.Game, uid, p.GetUsername())
		if err != nil {
			logger.Warn("MatchJoin: Could not seat user %s: %v", uid, err)
			continue
		}
		mh.dispatchEvents(ctx, matchState, dispatcher, logger, events)
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastSnapshots(matchState, dispatcher, logger)

	return matchState
}

// MatchLeave removes presences from the room; mid-game the engine cancels any
// pending action the leaver was party to.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		uid := p.GetUserId()
		delete(matchState.Presences, uid)

		events, err := matchState.App.RemovePlayer(matchState.Game, uid)
		if err != nil {
			logger.Debug("MatchLeave: User %s was not seated: %v", uid, err)
			continue
		}
		logger.Debug("MatchLeave: User %s left.", uid)
		mh.dispatchEvents(ctx, matchState, dispatcher, logger, events)
	}

	if matchState.HumanCount() == 0 {
		logger.Info("MatchLeave: Terminating match with no humans.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastSnapshots(matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, msg)
		case OpSubmitAction:
			mh.handleSubmitAction(ctx, matchState, dispatcher, logger, msg)
		case OpChallenge:
			mh.handleChallenge(ctx, matchState, dispatcher, logger, msg)
		case OpBlock:
			mh.handleBlock(ctx, matchState, dispatcher, logger, msg)
		case OpPass:
			mh.handlePass(ctx, matchState, dispatcher, logger, msg)
		case OpResolveLoss:
			mh.handleResolveLoss(ctx, matchState, dispatcher, logger, msg)
		case OpExchangeKeep:
			mh.handleExchangeKeep(ctx, matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	mh.trackPhase(matchState)
	mh.superviseDeadlines(ctx, matchState, dispatcher, logger)
	if matchState.BotsEnabled {
		mh.processBots(ctx, matchState, dispatcher, logger)
	}

	return matchState
}

// trackPhase records when the room last changed phase, for deadline checks.
func (mh *matchHandler) trackPhase(state *MatchState) {
	if state.Game.Phase != state.LastPhase {
		state.LastPhase = state.Game.Phase
		state.PhaseSince = state.Tick
		state.BotWaitUntil = 0
	}
}

func isWaitingPhase(p domain.Phase) bool {
	switch p {
	case domain.PhaseAwaitingChallenge, domain.PhaseAwaitingBlock, domain.PhaseAwaitingBlockChallenge,
		domain.PhaseAwaitingCardLoss, domain.PhaseAwaitingCoupTargetLoss, domain.PhaseAwaitingExchangeChoice:
		return true
	}
	return false
}

// superviseDeadlines force-resolves a waiting phase after the configured
// deadline: the window is passed, or the required discard/exchange is made on
// the non-responder's behalf. This is room policy, not an engine rule.
func (mh *matchHandler) superviseDeadlines(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.ResponseDeadline <= 0 || !isWaitingPhase(state.Game.Phase) {
		return
	}
	if state.Tick-state.PhaseSince < int64(state.ResponseDeadline) {
		return
	}

	g := state.Game
	var events []app.Event
	var err error

	switch g.Phase {
	case domain.PhaseAwaitingCardLoss:
		events, err = state.App.ResolveCardLoss(g, g.Pending.Loser, 0)
	case domain.PhaseAwaitingCoupTargetLoss:
		events, err = state.App.ResolveCardLoss(g, g.Pending.Target, 0)
	case domain.PhaseAwaitingExchangeChoice:
		p := g.Players[g.Pending.Source]
		keep := append([]domain.Card(nil), p.Hand[:len(p.Hand)-domain.ExchangeDrawCount]...)
		events, err = state.App.ChooseExchangeKeep(g, g.Pending.Source, keep)
	default:
		events, err = state.App.Pass(g, "")
	}
	if err != nil {
		logger.Error("superviseDeadlines: Forced resolution failed in phase %s: %v", g.Phase, err)
		state.PhaseSince = state.Tick // do not retry every tick
		return
	}

	logger.Info("superviseDeadlines: Forced resolution in phase %s after %ds.", state.LastPhase, state.ResponseDeadline)
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	mh.trackPhase(state)
	mh.broadcastSnapshots(state, dispatcher, logger)
}

// processBots fills solo lobbies and lets seated agents take their moves.
func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	g := state.Game

	// Auto-fill a lobby that has exactly one human waiting.
	if g.Phase == domain.PhaseLobby {
		if state.HumanCount() == 1 && len(g.Order) < 3 {
			if state.SoloHumanSince == 0 {
				state.SoloHumanSince = state.Tick
				logger.Debug("processBots: Single player detected, starting auto-fill timer.")
			}
			if state.Tick-state.SoloHumanSince >= int64(state.BotAutoFillDelay) {
				added := false
				for i := len(g.Order); i < 3; i++ {
					identity := bot.GetIdentity(i)
					events, err := state.App.AddPlayer(g, identity.UserID, identity.DisplayName)
					if err != nil {
						logger.Error("processBots: Failed to seat bot %s: %v", identity.UserID, err)
						break
					}
					state.Bots[identity.UserID] = bot.NewAgent(identity.UserID)
					logger.Info("processBots: Added bot %s (%s)", identity.DisplayName, identity.UserID)
					mh.dispatchEvents(ctx, state, dispatcher, logger, events)
					added = true
				}
				if added {
					mh.updateLabel(state, dispatcher, logger)
					mh.broadcastSnapshots(state, dispatcher, logger)
				}
				state.SoloHumanSince = 0
			}
		} else {
			state.SoloHumanSince = 0
		}
		return
	}

	actorID, intent := mh.pendingBotMove(state)
	if actorID == "" {
		state.BotWaitUntil = 0
		return
	}

	if state.BotWaitUntil == 0 {
		delay := rand.Intn(state.BotMaxDelay-state.BotMinDelay+1) + state.BotMinDelay
		state.BotWaitUntil = state.Tick + int64(delay)
		return
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	var events []app.Event
	var err error
	switch intent.Kind {
	case bot.IntentAction:
		events, err = state.App.SubmitAction(g, actorID, intent.Action, intent.Target)
	case bot.IntentPass:
		events, err = state.App.Pass(g, actorID)
	case bot.IntentCardLoss:
		events, err = state.App.ResolveCardLoss(g, actorID, intent.CardIndex)
	case bot.IntentExchangeKeep:
		events, err = state.App.ChooseExchangeKeep(g, actorID, intent.Keep)
	default:
		return
	}
	if err != nil {
		logger.Error("processBots: Bot %s move failed in phase %s: %v", actorID, g.Phase, err)
		return
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	mh.trackPhase(state)
	mh.broadcastSnapshots(state, dispatcher, logger)
}

// pendingBotMove returns the bot whose move the room is waiting on, if any.
// During objection windows bots only pass when no human could object, so
// humans keep their full response window.
func (mh *matchHandler) pendingBotMove(state *MatchState) (string, bot.Intent) {
	g := state.Game

	switch g.Phase {
	case domain.PhasePlaying:
		cur := g.CurrentPlayer()
		if cur == nil || !bot.IsBot(cur.ID) {
			return "", bot.Intent{}
		}
		return mh.botIntent(state, cur.ID)

	case domain.PhaseAwaitingCardLoss:
		if g.Pending != nil && bot.IsBot(g.Pending.Loser) {
			return mh.botIntent(state, g.Pending.Loser)
		}

	case domain.PhaseAwaitingCoupTargetLoss:
		if g.Pending != nil && bot.IsBot(g.Pending.Target) {
			return mh.botIntent(state, g.Pending.Target)
		}

	case domain.PhaseAwaitingExchangeChoice:
		if g.Pending != nil && bot.IsBot(g.Pending.Source) {
			return mh.botIntent(state, g.Pending.Source)
		}

	case domain.PhaseAwaitingChallenge, domain.PhaseAwaitingBlock, domain.PhaseAwaitingBlockChallenge:
		for _, pid := range mh.eligibleResponders(g) {
			if !bot.IsBot(pid) {
				return "", bot.Intent{} // a human may still object
			}
		}
		for _, pid := range mh.eligibleResponders(g) {
			return mh.botIntent(state, pid)
		}
	}
	return "", bot.Intent{}
}

// eligibleResponders lists who has standing to object in the current window.
func (mh *matchHandler) eligibleResponders(g *domain.Game) []string {
	if g.Pending == nil {
		return nil
	}
	standing := g.Pending.Source
	if g.Phase == domain.PhaseAwaitingBlockChallenge {
		standing = g.Pending.Blocker
	}
	if g.Phase == domain.PhaseAwaitingBlock {
		if g.Pending.Type == domain.Steal || g.Pending.Type == domain.Assassinate {
			if t, ok := g.Players[g.Pending.Target]; ok && t.Alive() {
				return []string{g.Pending.Target}
			}
			return nil
		}
	}
	var out []string
	for _, pid := range g.AlivePlayers() {
		if pid != standing {
			out = append(out, pid)
		}
	}
	return out
}

func (mh *matchHandler) botIntent(state *MatchState, botID string) (string, bot.Intent) {
	agent, exists := state.Bots[botID]
	if !exists {
		agent = bot.NewAgent(botID)
		state.Bots[botID] = agent
	}
	intent, ok := agent.Decide(state.Game)
	if !ok {
		return "", bot.Intent{}
	}
	return botID, intent
}

/* ---- message handlers ---- */

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	events, err := state.App.StartGame(state.Game)
	if err != nil {
		logger.Warn("handleStartGame: User %s could not start game: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	logger.Info("handleStartGame: Game started with %d players.", len(state.Game.Order))
	mh.updateLabel(state, dispatcher, logger)
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	mh.trackPhase(state)
	mh.broadcastSnapshots(state, dispatcher, logger)
}

func (mh *matchHandler) handleSubmitAction(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	var request SubmitActionRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Warn("handleSubmitAction: Invalid payload from %s: %v", senderID, err)
		return
	}

	events, err := state.App.SubmitAction(state.Game, senderID, request.Action, request.Target)
	if err != nil {
		logger.Warn("handleSubmitAction: User %s failed to submit %s: %v", senderID, request.Action, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	mh.trackPhase(state)
	mh.broadcastSnapshots(state, dispatcher, logger)
}

func (mh *matchHandler) handleChallenge(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	events, err := state.App.DeclareChallenge(state.Game, senderID)
	if err != nil {
		logger.Warn("handleChallenge: User %s failed to challenge: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	mh.trackPhase(state)
	mh.broadcastSnapshots(state, dispatcher, logger)
}

func (mh *matchHandler) handleBlock(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	var request BlockRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Warn("handleBlock: Invalid payload from %s: %v", senderID, err)
		return
	}

	events, err := state.App.DeclareBlock(state.Game, senderID, request.Card)
	if err != nil {
		logger.Warn("handleBlock: User %s failed to block with %s: %v", senderID, request.Card, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	mh.trackPhase(state)
	mh.broadcastSnapshots(state, dispatcher, logger)
}

func (mh *matchHandler) handlePass(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	events, err := state.App.Pass(state.Game, senderID)
	if err != nil {
		logger.Warn("handlePass: User %s failed to pass: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	mh.trackPhase(state)
	mh.broadcastSnapshots(state, dispatcher, logger)
}

func (mh *matchHandler) handleResolveLoss(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	var request ResolveLossRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Warn("handleResolveLoss: Invalid payload from %s: %v", senderID, err)
		return
	}

	events, err := state.App.ResolveCardLoss(state.Game, senderID, request.CardIndex)
	if err != nil {
		logger.Warn("handleResolveLoss: User %s failed to discard index %d: %v", senderID, request.CardIndex, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	mh.trackPhase(state)
	mh.broadcastSnapshots(state, dispatcher, logger)
}

func (mh *matchHandler) handleExchangeKeep(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	var request ExchangeKeepRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Warn("handleExchangeKeep: Invalid payload from %s: %v", senderID, err)
		return
	}

	events, err := state.App.ChooseExchangeKeep(state.Game, senderID, request.Keep)
	if err != nil {
		logger.Warn("handleExchangeKeep: User %s failed to resolve exchange: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	mh.trackPhase(state)
	mh.broadcastSnapshots(state, dispatcher, logger)
}

/* ---- dispatch helpers ---- */

// dispatchEvents marshals and broadcasts app events, honoring targeted
// recipients, and settles the winner reward on game end.
func (mh *matchHandler) dispatchEvents(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		opCode, ok := eventOpCodes[ev.Kind]
		if !ok {
			logger.Warn("dispatchEvents: Unknown event kind: %v", ev.Kind)
			continue
		}

		bytes, err := json.Marshal(ev.Payload)
		if err != nil {
			logger.Error("dispatchEvents: Failed to marshal event %v: %v", ev.Kind, err)
			continue
		}

		var recipients []runtime.Presence
		if len(ev.Recipients) > 0 {
			for _, uid := range ev.Recipients {
				if p, ok := state.Presences[uid]; ok {
					recipients = append(recipients, p)
				}
			}
			// Targeted events with no connected recipients (bots) must not
			// leak to everyone else.
			if len(recipients) == 0 {
				continue
			}
		}

		dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true)

		if ev.Kind == app.EventGameEnded {
			mh.settleGame(ctx, state, logger, ev.Payload.(app.GameEndedPayload))
			mh.updateLabel(state, dispatcher, logger)
		}
	}
}

// settleGame credits the winner's wallet once per game.
func (mh *matchHandler) settleGame(ctx context.Context, state *MatchState, logger runtime.Logger, payload app.GameEndedPayload) {
	if state.Settled || state.Economy == nil {
		return
	}
	state.Settled = true

	if payload.WinnerID == "" || bot.IsBot(payload.WinnerID) {
		return
	}

	updates := []ports.WalletUpdate{
		{
			UserID: payload.WinnerID,
			Amount: config.GetWinnerReward(),
			Metadata: map[string]interface{}{
				"match_id": ctx.Value(runtime.RUNTIME_CTX_MATCH_ID),
				"reason":   "game_settlement",
			},
		},
	}
	if err := state.Economy.UpdateBalances(ctx, updates); err != nil {
		logger.Error("settleGame: Failed to credit winner %s: %v", payload.WinnerID, err)
	}
}

// broadcastSnapshots sends each connected participant their private view of
// the authoritative state.
func (mh *matchHandler) broadcastSnapshots(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	for _, pid := range state.Game.Order {
		presence, ok := state.Presences[pid]
		if !ok {
			continue
		}
		snap := buildSnapshot(state.Game, pid)
		bytes, err := json.Marshal(snap)
		if err != nil {
			logger.Error("broadcastSnapshots: Failed to marshal snapshot: %v", err)
			return
		}
		dispatcher.BroadcastMessage(OpStateSnapshot, bytes, []runtime.Presence{presence}, nil, true)
	}
}

// sendError sends a targeted ErrorEvent to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, opErr error) {
	payload := ErrorEvent{Code: 400, Message: opErr.Error()}
	bytes, err := json.Marshal(payload)
	if err != nil {
		logger.Error("sendError: Failed to marshal ErrorEvent: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("sendError: Cannot send error to %s: presence not found", userID)
		return
	}

	dispatcher.BroadcastMessage(OpGameError, bytes, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) buildLabel(state *MatchState) Label {
	open := !state.Private &&
		state.Game.Phase == domain.PhaseLobby &&
		len(state.Game.Order) < domain.MaxPlayers
	return Label{
		Open:    open,
		Game:    "coup",
		Phase:   string(state.Game.Phase),
		Private: state.Private,
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	labelBytes, err := json.Marshal(mh.buildLabel(state))
	if err != nil {
		logger.Error("updateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(string(labelBytes)); err != nil {
		logger.Error("updateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
