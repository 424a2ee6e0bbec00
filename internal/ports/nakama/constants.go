package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create an
	// open lobby.
	RpcQuickMatch = "quick_match"

	// RpcCreatePrivateMatch creates an unlisted match and returns a signed
	// invite token for it.
	RpcCreatePrivateMatch = "create_private_match"

	// MatchName is the authoritative match handler name registered with Nakama.
	MatchName = "coup_match"

	// inviteSecretEnvKey / inviteIssuerEnvKey configure invite token signing
	// via the Nakama runtime environment.
	inviteSecretEnvKey = "coup_invite_secret"
	inviteIssuerEnvKey = "coup_invite_issuer"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame    int64 = 1
	OpSubmitAction int64 = 2
	OpChallenge    int64 = 3
	OpBlock        int64 = 4
	OpPass         int64 = 5
	OpResolveLoss  int64 = 6
	OpExchangeKeep int64 = 7

	// Server -> Client events
	OpPlayerJoined      int64 = 101
	OpPlayerLeft        int64 = 102
	OpGameStarted       int64 = 103
	OpHandDealt         int64 = 104 // sent privately
	OpActionSubmitted   int64 = 105
	OpChallengeResolved int64 = 106
	OpBlockDeclared     int64 = 107
	OpActionPassed      int64 = 108
	OpCardLost          int64 = 109
	OpExchangeResolved  int64 = 110
	OpGameEnded         int64 = 111
	OpStateSnapshot     int64 = 112 // sent privately, per-recipient hand
	OpGameError         int64 = 120 // sent privately
)
