package nakama

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"

	"coup/internal/app"
	"coup/internal/bot"
	"coup/internal/domain"
	"coup/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	broadcastCount int
	labelUpdates   int
	lastOpCode     int64
	lastData       []byte
	lastTargets    []runtime.Presence
	opCodes        []int64
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.broadcastCount++
	md.lastOpCode = opCode
	md.lastData = append([]byte(nil), data...)
	md.lastTargets = presences
	md.opCodes = append(md.opCodes, opCode)
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates++
	return nil
}

// mockPresence is a minimal runtime.Presence for seated test users.
type mockPresence struct {
	userID   string
	username string
}

func (mp *mockPresence) GetUserId() string                 { return mp.userID }
func (mp *mockPresence) GetSessionId() string              { return "session-" + mp.userID }
func (mp *mockPresence) GetNodeId() string                 { return "node-test" }
func (mp *mockPresence) GetHidden() bool                   { return false }
func (mp *mockPresence) GetPersistence() bool              { return true }
func (mp *mockPresence) GetUsername() string               { return mp.username }
func (mp *mockPresence) GetStatus() string                 { return "" }
func (mp *mockPresence) GetReason() runtime.PresenceReason { return runtime.PresenceReasonUnknown }

// mockMatchData wraps a client message for MatchLoop.
type mockMatchData struct {
	mockPresence
	opCode int64
	data   []byte
}

func (md *mockMatchData) GetOpCode() int64      { return md.opCode }
func (md *mockMatchData) GetData() []byte       { return md.data }
func (md *mockMatchData) GetReliable() bool     { return true }
func (md *mockMatchData) GetReceiveTime() int64 { return 0 }

type mockEconomy struct {
	updates []ports.WalletUpdate
	calls   int
}

func (me *mockEconomy) GetBalance(ctx context.Context, userID string) (int64, error) {
	return 0, nil
}

func (me *mockEconomy) UpdateBalances(ctx context.Context, updates []ports.WalletUpdate) error {
	me.calls++
	me.updates = append(me.updates, updates...)
	return nil
}

func newTestState(t *testing.T, ids ...string) *MatchState {
	t.Helper()
	svc := app.NewService(rand.New(rand.NewSource(11)))
	state := &MatchState{
		Game:             svc.NewGame("match-test"),
		App:              svc,
		Presences:        make(map[string]runtime.Presence),
		Bots:             make(map[string]*bot.Agent),
		Economy:          &mockEconomy{},
		ResponseDeadline: 30,
		BotMinDelay:      1,
		BotMaxDelay:      1,
		BotAutoFillDelay: 2,
	}
	for _, id := range ids {
		if _, err := svc.AddPlayer(state.Game, id, "name-"+id); err != nil {
			t.Fatalf("AddPlayer(%s) error: %v", id, err)
		}
		state.Presences[id] = &mockPresence{userID: id, username: "name-" + id}
	}
	state.LastPhase = state.Game.Phase
	return state
}

func startTestGame(t *testing.T, state *MatchState) {
	t.Helper()
	if _, err := state.App.StartGame(state.Game); err != nil {
		t.Fatalf("StartGame error: %v", err)
	}
	state.LastPhase = state.Game.Phase
}

func TestBuildLabel(t *testing.T) {
	handler := &matchHandler{}

	state := newTestState(t, "p1", "p2")
	label := handler.buildLabel(state)
	if !label.Open || label.Game != "coup" || label.Phase != string(domain.PhaseLobby) {
		t.Fatalf("label = %+v, want an open coup lobby", label)
	}

	state.Private = true
	if handler.buildLabel(state).Open {
		t.Fatalf("private match must not advertise as open")
	}
	state.Private = false

	startTestGame(t, state)
	label = handler.buildLabel(state)
	if label.Open {
		t.Fatalf("in-progress match must not advertise as open")
	}
	if label.Phase != string(state.Game.Phase) {
		t.Fatalf("label phase = %s, want %s", label.Phase, state.Game.Phase)
	}
}

func TestSnapshotRedactsOtherHands(t *testing.T) {
	state := newTestState(t, "p1", "p2", "p3")
	startTestGame(t, state)

	snap := buildSnapshot(state.Game, "p1")
	if len(snap.Hand) != domain.StartingHandSize {
		t.Fatalf("own hand = %d cards, want %d", len(snap.Hand), domain.StartingHandSize)
	}
	for _, participant := range snap.Participants {
		if participant.CardCount != domain.StartingHandSize {
			t.Fatalf("participant %s card count = %d, want %d", participant.ID, participant.CardCount, domain.StartingHandSize)
		}
	}

	// A serialized snapshot for p1 must never name p2's cards.
	bytes, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(bytes, &decoded); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	participants := decoded["participants"].([]interface{})
	for _, raw := range participants {
		entry := raw.(map[string]interface{})
		if _, leaked := entry["hand"]; leaked {
			t.Fatalf("participant view leaked a hand: %v", entry)
		}
	}
}

func TestDispatchEventsSkipsDisconnectedRecipients(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(t, "p1")

	events := []app.Event{{
		Kind:       app.EventHandDealt,
		Payload:    app.HandDealtPayload{UserID: "bot:seat-2"},
		Recipients: []string{"bot:seat-2"}, // no presence for bots
	}}
	handler.dispatchEvents(context.Background(), state, dispatcher, noopLogger{}, events)

	if dispatcher.broadcastCount != 0 {
		t.Fatalf("targeted event without connected recipients must not broadcast")
	}

	// The same event for a connected user goes out targeted.
	events[0].Recipients = []string{"p1"}
	handler.dispatchEvents(context.Background(), state, dispatcher, noopLogger{}, events)
	if dispatcher.broadcastCount != 1 {
		t.Fatalf("broadcast count = %d, want 1", dispatcher.broadcastCount)
	}
	if len(dispatcher.lastTargets) != 1 || dispatcher.lastTargets[0].GetUserId() != "p1" {
		t.Fatalf("targets = %v, want only p1", dispatcher.lastTargets)
	}
}

func TestSendErrorTargeted(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(t, "p1", "p2")

	handler.sendError(state, dispatcher, noopLogger{}, "p2", domain.ErrNotYourTurn)

	if dispatcher.lastOpCode != OpGameError {
		t.Fatalf("opcode = %d, want %d", dispatcher.lastOpCode, OpGameError)
	}
	if len(dispatcher.lastTargets) != 1 || dispatcher.lastTargets[0].GetUserId() != "p2" {
		t.Fatalf("error must target only the offender, got %v", dispatcher.lastTargets)
	}

	var payload ErrorEvent
	if err := json.Unmarshal(dispatcher.lastData, &payload); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	if payload.Message == "" {
		t.Fatalf("empty error message")
	}
}

func TestMatchLoopRejectionIsSideEffectFree(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(t, "p1", "p2")
	startTestGame(t, state)

	offender := "p1"
	if state.Game.Order[state.Game.TurnIndex] == "p1" {
		offender = "p2"
	}
	coinsBefore := state.Game.Players[offender].Coins

	body, _ := json.Marshal(SubmitActionRequest{Action: domain.Income})
	msg := &mockMatchData{
		mockPresence: mockPresence{userID: offender},
		opCode:       OpSubmitAction,
		data:         body,
	}
	handler.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 1, state, []runtime.MatchData{msg})

	if state.Game.Players[offender].Coins != coinsBefore {
		t.Fatalf("rejected action changed coins")
	}
	if dispatcher.lastOpCode != OpGameError {
		t.Fatalf("opcode = %d, want %d", dispatcher.lastOpCode, OpGameError)
	}
}

func TestSuperviseDeadlinesForcesPass(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(t, "p1", "p2")
	startTestGame(t, state)

	owner := state.Game.Order[state.Game.TurnIndex]
	if _, err := state.App.SubmitAction(state.Game, owner, domain.Tax, ""); err != nil {
		t.Fatalf("SubmitAction error: %v", err)
	}
	handler.trackPhase(state)

	// Deadline not yet reached.
	state.Tick = state.PhaseSince + int64(state.ResponseDeadline) - 1
	handler.superviseDeadlines(context.Background(), state, dispatcher, noopLogger{})
	if state.Game.Phase != domain.PhaseAwaitingChallenge {
		t.Fatalf("phase advanced before the deadline: %s", state.Game.Phase)
	}

	state.Tick = state.PhaseSince + int64(state.ResponseDeadline)
	handler.superviseDeadlines(context.Background(), state, dispatcher, noopLogger{})
	if state.Game.Phase == domain.PhaseAwaitingChallenge {
		t.Fatalf("deadline did not force the challenge window shut")
	}
	// Tax resolved on the forced pass.
	if state.Game.Players[owner].Coins != domain.StartingCoins+3 {
		t.Fatalf("owner coins = %d, want %d", state.Game.Players[owner].Coins, domain.StartingCoins+3)
	}
}

func TestSuperviseDeadlinesForcesDiscard(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(t, "p1", "p2")
	startTestGame(t, state)

	owner := state.Game.Order[state.Game.TurnIndex]
	target := "p1"
	if owner == "p1" {
		target = "p2"
	}
	state.Game.Players[owner].Coins = 7
	if _, err := state.App.SubmitAction(state.Game, owner, domain.Coup, target); err != nil {
		t.Fatalf("SubmitAction(coup) error: %v", err)
	}
	handler.trackPhase(state)

	state.Tick = state.PhaseSince + int64(state.ResponseDeadline)
	handler.superviseDeadlines(context.Background(), state, dispatcher, noopLogger{})

	if got := len(state.Game.Players[target].Hand); got != domain.StartingHandSize-1 {
		t.Fatalf("target hand = %d cards after forced discard, want %d", got, domain.StartingHandSize-1)
	}
}

func TestProcessBotsAutoFillsSoloLobby(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(t, "p1")
	state.BotsEnabled = true
	state.SoloHumanSince = 8
	state.Tick = 10

	handler.processBots(context.Background(), state, dispatcher, noopLogger{})

	botCount := 0
	for _, id := range state.Game.Order {
		if bot.IsBot(id) {
			botCount++
		}
	}
	if botCount != 2 {
		t.Fatalf("bot count = %d, want 2", botCount)
	}
	if len(state.Game.Order) != 3 {
		t.Fatalf("roster = %d seats, want 3", len(state.Game.Order))
	}
	if state.SoloHumanSince != 0 {
		t.Fatalf("auto-fill timer not reset")
	}
	if dispatcher.broadcastCount == 0 || dispatcher.labelUpdates == 0 {
		t.Fatalf("expected broadcasts and a label update after auto-fill")
	}
}

func TestProcessBotsWaitsForHumansToObject(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(t, "p1", "p2")
	state.BotsEnabled = true
	botID := "bot:seat-2"
	if _, err := state.App.AddPlayer(state.Game, botID, "Courtier"); err != nil {
		t.Fatalf("AddPlayer(bot) error: %v", err)
	}
	state.Bots[botID] = bot.NewAgent(botID)
	startTestGame(t, state)

	// Force a human turn and open a challenge window.
	for i, id := range state.Game.Order {
		if id == "p1" {
			state.Game.TurnIndex = i
		}
	}
	if _, err := state.App.SubmitAction(state.Game, "p1", domain.Tax, ""); err != nil {
		t.Fatalf("SubmitAction error: %v", err)
	}
	handler.trackPhase(state)

	state.Tick = 100
	handler.processBots(context.Background(), state, dispatcher, noopLogger{})

	// p2 may still challenge, so the bot must not close the window.
	if state.Game.Phase != domain.PhaseAwaitingChallenge {
		t.Fatalf("bot closed a window a human could answer: phase = %s", state.Game.Phase)
	}
}

func TestSettleGameCreditsHumanWinnerOnce(t *testing.T) {
	handler := &matchHandler{}
	economy := &mockEconomy{}
	state := newTestState(t, "p1")
	state.Economy = economy

	payload := app.GameEndedPayload{WinnerID: "p1"}
	handler.settleGame(context.Background(), state, noopLogger{}, payload)
	handler.settleGame(context.Background(), state, noopLogger{}, payload)

	if economy.calls != 1 {
		t.Fatalf("settlement calls = %d, want 1", economy.calls)
	}
	if len(economy.updates) != 1 || economy.updates[0].UserID != "p1" {
		t.Fatalf("updates = %+v, want one credit for p1", economy.updates)
	}
	if economy.updates[0].Amount <= 0 {
		t.Fatalf("winner reward = %d, want positive", economy.updates[0].Amount)
	}
}

func TestSettleGameSkipsBotWinner(t *testing.T) {
	handler := &matchHandler{}
	economy := &mockEconomy{}
	state := newTestState(t, "p1")
	state.Economy = economy

	handler.settleGame(context.Background(), state, noopLogger{}, app.GameEndedPayload{WinnerID: "bot:seat-2"})

	if economy.calls != 0 {
		t.Fatalf("bot winner must not be credited")
	}
}

func TestMatchJoinAttempt(t *testing.T) {
	handler := &matchHandler{}
	state := newTestState(t, "p1", "p2")

	_, allowed, _ := handler.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, nil, 1, state, &mockPresence{userID: "p3"}, nil)
	if !allowed {
		t.Fatalf("lobby join rejected")
	}

	startTestGame(t, state)
	_, allowed, reason := handler.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, nil, 1, state, &mockPresence{userID: "p3"}, nil)
	if allowed {
		t.Fatalf("new join allowed into a running game")
	}
	if reason != "match_in_progress" {
		t.Fatalf("reason = %q, want match_in_progress", reason)
	}

	// A seated player may always rejoin.
	_, allowed, _ = handler.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, nil, 1, state, &mockPresence{userID: "p1"}, nil)
	if !allowed {
		t.Fatalf("rejoin rejected for a seated player")
	}
}

func TestMatchLeaveTerminatesWithoutHumans(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(t, "p1")

	next := handler.MatchLeave(context.Background(), noopLogger{}, nil, nil, dispatcher, 1, state, []runtime.Presence{&mockPresence{userID: "p1"}})
	if next != nil {
		t.Fatalf("match must terminate when the last human leaves")
	}
}
