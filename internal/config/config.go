package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// RoomConfig holds room policy knobs: response deadlines, bot pacing and the
// winner reward. Game rules constants live in the domain package.
type RoomConfig struct {
	// ResponseDeadlineSeconds is how long a waiting phase may sit unanswered
	// before the match loop force-resolves it on the non-responder's behalf.
	// Zero disables forced resolution.
	ResponseDeadlineSeconds int `json:"response_deadline_seconds"`
	// WinnerRewardGold is credited to the winner's wallet at game over.
	WinnerRewardGold int64 `json:"winner_reward_gold"`
	// BotAutoFillDelaySeconds is how long a solo human lobby waits before
	// bots are seated.
	BotAutoFillDelaySeconds int `json:"bot_auto_fill_delay_seconds"`
	// BotMinDelaySeconds / BotMaxDelaySeconds bound a bot's thinking pause.
	BotMinDelaySeconds int `json:"bot_min_delay_seconds"`
	BotMaxDelaySeconds int `json:"bot_max_delay_seconds"`
}

var (
	cfg      *RoomConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadRoomConfig loads the room configuration from the given path.
func LoadRoomConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read room config: %w", err)
			return
		}

		var c RoomConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal room config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetRoomConfig returns the global room configuration, or nil when unloaded.
func GetRoomConfig() *RoomConfig {
	return cfg
}

// GetResponseDeadline returns the configured waiting-phase deadline in
// seconds, defaulting to 30 when no config is loaded.
func GetResponseDeadline() int {
	if cfg == nil {
		return 30
	}
	return cfg.ResponseDeadlineSeconds
}

// GetWinnerReward returns the gold credited to a game's winner.
func GetWinnerReward() int64 {
	if cfg == nil || cfg.WinnerRewardGold <= 0 {
		return 100
	}
	return cfg.WinnerRewardGold
}

// GetBotDelays returns the (autoFill, min, max) bot delays in seconds with
// safe defaults applied.
func GetBotDelays() (autoFill, min, max int) {
	autoFill, min, max = 5, 1, 3
	if cfg == nil {
		return
	}
	if cfg.BotAutoFillDelaySeconds > 0 {
		autoFill = cfg.BotAutoFillDelaySeconds
	}
	if cfg.BotMinDelaySeconds > 0 {
		min = cfg.BotMinDelaySeconds
	}
	if cfg.BotMaxDelaySeconds >= min {
		max = cfg.BotMaxDelaySeconds
	}
	if max < min {
		max = min
	}
	return
}
