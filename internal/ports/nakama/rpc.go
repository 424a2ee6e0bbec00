package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"coup/internal/app/invite"

	"github.com/heroiclabs/nakama-common/runtime"
)

// QuickMatchResponse is the payload returned to clients when requesting a lobby-capable match.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// CreatePrivateMatchResponse carries the new room id and the token friends
// need to join it.
type CreatePrivateMatchResponse struct {
	MatchID     string `json:"match_id"`
	InviteToken string `json:"invite_token"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcCreatePrivateMatch, rpcCreatePrivateMatch)
}

func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	// Find any match that is open and is our game.
	query := "+label.open:T label.game:coup label.phase:lobby"

	limit := 10
	authoritative := true

	minSize := 1
	maxSize := 5 // leave room for the caller

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("MatchList error: %v", err)
		return "", err
	}

	if len(matches) > 0 {
		resp := QuickMatchResponse{MatchID: matches[0].MatchId, IsNew: false}
		b, _ := json.Marshal(resp)
		return string(b), nil
	}

	// Create new match; seating happens in MatchJoin (server-authoritative).
	matchID, err := nk.MatchCreate(ctx, MatchName, map[string]interface{}{})
	if err != nil {
		logger.Error("MatchCreate error: %v", err)
		return "", err
	}

	resp := QuickMatchResponse{MatchID: matchID, IsNew: true}
	b, _ := json.Marshal(resp)
	return string(b), nil
}

func rpcCreatePrivateMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("authentication required", 16)
	}

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	secret := env[inviteSecretEnvKey]
	if secret == "" {
		logger.Error("rpcCreatePrivateMatch: %s is not configured", inviteSecretEnvKey)
		return "", runtime.NewError("private matches unavailable", 13)
	}

	matchID, err := nk.MatchCreate(ctx, MatchName, map[string]interface{}{"private": true})
	if err != nil {
		logger.Error("MatchCreate error: %v", err)
		return "", err
	}

	token, err := invite.NewService(secret, env[inviteIssuerEnvKey], 0).GenerateToken(userID, matchID)
	if err != nil {
		logger.Error("rpcCreatePrivateMatch: Failed to sign invite token: %v", err)
		return "", runtime.NewError("failed to create invite", 13)
	}

	resp := CreatePrivateMatchResponse{MatchID: matchID, InviteToken: token}
	b, _ := json.Marshal(resp)
	return string(b), nil
}
