package domain

import "errors"

var (
	// ErrStore marks persistence failures. These abort a whole run since
	// silently dropping state is worse than stopping.
	ErrStore = errors.New("store operation failed")

	// ErrSteamAPI marks a failed steam web api call.
	ErrSteamAPI = errors.New("steam api request failed")
	// ErrPlayerNotFound is returned when a summary lookup yields no players.
	ErrPlayerNotFound = errors.New("player not found")

	// ErrWebhookRequest marks a webhook call that failed before a response
	// body could be classified.
	ErrWebhookRequest = errors.New("webhook request failed")
	// ErrWebhookDecode marks a webhook response that matched none of the
	// known response shapes.
	ErrWebhookDecode = errors.New("unknown webhook response shape")

	// ErrMatchmakingRequest marks a failed lobby list fetch.
	ErrMatchmakingRequest = errors.New("lobby list request failed")
	// ErrModioRequest marks a failed mod.io metadata fetch.
	ErrModioRequest = errors.New("mod.io request failed")

	ErrReadConfig   = errors.New("failed to read config file")
	ErrFormatConfig = errors.New("invalid config file format")
)
