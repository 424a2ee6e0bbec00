package bot

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// botIDPrefix marks seat occupants that are server-driven agents rather than
// connected presences.
const botIDPrefix = "bot:"

// Identity describes one bot profile from the data file.
type Identity struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarIndex int    `json:"avatar_index"`
}

var (
	identities  []Identity
	idSet       map[string]bool
	displayName map[string]string
	loadOnce    sync.Once
	loadErr     error
)

// LoadIdentities loads the bot profiles from the given path.
func LoadIdentities(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read bot identities: %w", err)
			return
		}

		if err := json.Unmarshal(data, &identities); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal bot identities: %w", err)
			return
		}

		idSet = make(map[string]bool)
		displayName = make(map[string]string)
		for _, identity := range identities {
			if identity.UserID != "" {
				idSet[identity.UserID] = true
				displayName[identity.UserID] = identity.DisplayName
			}
		}
	})
	return loadErr
}

// IsBot reports whether the given user id belongs to a bot.
func IsBot(userID string) bool {
	if idSet[userID] {
		return true
	}
	return len(userID) > len(botIDPrefix) && userID[:len(botIDPrefix)] == botIDPrefix
}

// GetIdentity returns the i-th bot profile, synthesizing one when the data
// file provided fewer entries.
func GetIdentity(i int) Identity {
	if i >= 0 && i < len(identities) {
		return identities[i]
	}
	return Identity{
		UserID:      fmt.Sprintf("%sseat-%d", botIDPrefix, i),
		Username:    fmt.Sprintf("bot_seat_%d", i),
		DisplayName: fmt.Sprintf("Courtier %d", i+1),
	}
}

// GetDisplayName returns a bot's display name, or "" for non-bots.
func GetDisplayName(userID string) string {
	return displayName[userID]
}
