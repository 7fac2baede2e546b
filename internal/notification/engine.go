package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	embed "github.com/leighmacdonald/discordgo-embed"
	"github.com/leighmacdonald/drgwatch/internal/config"
	"github.com/leighmacdonald/drgwatch/internal/domain"
	"github.com/leighmacdonald/drgwatch/internal/metrics"
	"github.com/leighmacdonald/drgwatch/pkg/log"
	"github.com/leighmacdonald/steamid/v4/steamid"
)

const (
	// recencyWindow bounds how old a snapshot may be and still represent a
	// live lobby.
	recencyWindow = time.Minute * 10
	// staleAfter is how long a record may go without a refresh before its
	// message is swept.
	staleAfter = time.Minute * 10
)

// PlayerProvider decorates a notification with the host's community profile.
type PlayerProvider interface {
	PlayerSummary(ctx context.Context, sid64 steamid.SteamID) (domain.PlayerSummary, error)
}

// Engine reconciles the eligible lobby set against the posted message set.
// It processes lobbies strictly sequentially: the webhook quota is global, so
// concurrent senders would invalidate the remaining-call headers the governor
// depends on.
//
// A crash after a successful send but before the record upsert leaves an
// orphaned remote message which the next run duplicates. That window is an
// accepted tradeoff, reconciliation is at-least-once overall.
type Engine struct {
	store    Store
	sender   Sender
	players  PlayerProvider
	governor *Governor
	conf     config.Config
	sleep    func(time.Duration)
}

func NewEngine(store Store, sender Sender, players PlayerProvider, conf config.Config) *Engine {
	return &Engine{
		store:    store,
		sender:   sender,
		players:  players,
		governor: NewGovernor(),
		conf:     conf,
		sleep:    time.Sleep,
	}
}

// Sync runs one full reconciliation pass: create or update a message for
// every eligible lobby, then sweep messages whose lobby went away. Failures
// confined to a single lobby are logged and skipped; store failures abort the
// run.
func (e *Engine) Sync(ctx context.Context) error {
	queued, errQueued := e.store.Eligible(ctx, time.Now().Add(-recencyWindow),
		e.conf.WatchedMods, e.conf.ExcludedMods)
	if errQueued != nil {
		return errors.Join(errQueued, domain.ErrStore)
	}

	for _, item := range queued {
		if errSync := e.syncLobby(ctx, item); errSync != nil {
			if errors.Is(errSync, domain.ErrStore) {
				return errSync
			}

			slog.Error("Failed to sync lobby notification",
				slog.String("lobby_id", item.Snapshot.LobbyID), log.ErrAttr(errSync))
		}
	}

	return e.sweep(ctx)
}

// syncLobby drives a single lobby through the send protocol until a terminal
// response arrives. A rate limited reply is the only retry path and is
// unbounded on purpose: the remote supplies the delay and converges.
func (e *Engine) syncLobby(ctx context.Context, item QueuedNotification) error {
	params, errParams := e.buildPayload(ctx, item.Snapshot)
	if errParams != nil {
		return errParams
	}

	for {
		var (
			response Response
			header   http.Header
			errSend  error
		)

		if item.MessageID != "" {
			response, header, errSend = e.sender.Edit(ctx, item.MessageID, params)
		} else {
			response, header, errSend = e.sender.Create(ctx, params)
		}

		if errSend != nil {
			return errSend
		}

		e.governor.Throttle(header)

		switch response.Kind {
		case ResponseRateLimited:
			slog.Warn("Webhook rate limited",
				slog.Bool("global", response.Global),
				slog.Float64("retry_after", response.RetryAfter),
				slog.String("message", response.Message))
			e.sleep(time.Duration(response.RetryAfter * float64(time.Second)))

			continue
		case ResponseSuccess:
			if errUpsert := e.store.UpsertRecord(ctx, response.MessageID,
				item.Snapshot.LobbyID, time.Now()); errUpsert != nil {
				return errors.Join(errUpsert, domain.ErrStore)
			}

			action := "create"
			if item.MessageID != "" {
				action = "update"
			}

			metrics.Notifications.WithLabelValues(action).Inc()

			return nil
		case ResponseError:
			if response.Code == discordgo.ErrCodeUnknownMessage && item.MessageID != "" {
				slog.Info("Tried to update unknown message, deleting record",
					slog.String("message_id", item.MessageID))

				if errDelete := e.store.DeleteRecord(ctx, item.MessageID); errDelete != nil {
					return errors.Join(errDelete, domain.ErrStore)
				}

				return nil
			}

			slog.Error("Webhook rejected notification",
				slog.Int("code", response.Code), slog.String("message", response.Message))

			return nil
		default:
			return domain.ErrWebhookDecode
		}
	}
}

func (e *Engine) buildPayload(ctx context.Context, snapshot domain.LobbySnapshot) (*discordgo.WebhookParams, error) {
	player, errPlayer := e.players.PlayerSummary(ctx, snapshot.HostSteamID)
	if errPlayer != nil {
		return nil, errPlayer
	}

	hostID := snapshot.HostSteamID.Int64()

	message := embed.
		NewEmbed().
		SetTitle(snapshot.ServerName).
		SetAuthor(player.PersonaName, player.AvatarFull,
			fmt.Sprintf("https://steamcommunity.com/profiles/%d", hostID)).
		SetDescription(fmt.Sprintf("steam://joinlobby/%d/%s/%d", domain.AppID, snapshot.LobbyID, hostID)).
		MessageEmbed

	message.Fields = buildFields(snapshot)

	return &discordgo.WebhookParams{
		AvatarURL: e.conf.DiscordAvatarURL,
		Embeds:    []*discordgo.MessageEmbed{message},
	}, nil
}

// sweep deletes messages whose record stopped being refreshed. The local
// record is removed even when the remote delete fails: retrying next sweep
// would wedge cleanup behind an api that may never confirm a message which is
// already gone.
func (e *Engine) sweep(ctx context.Context) error {
	expired, errExpired := e.store.ExpiredRecords(ctx, time.Now().Add(-staleAfter))
	if errExpired != nil {
		return errors.Join(errExpired, domain.ErrStore)
	}

	for _, record := range expired {
		header, errDelete := e.sender.Delete(ctx, record.MessageID)
		if errDelete != nil {
			slog.Warn("Failed to delete stale notification",
				slog.String("message_id", record.MessageID), log.ErrAttr(errDelete))
		}

		e.governor.Throttle(header)

		if errRecord := e.store.DeleteRecord(ctx, record.MessageID); errRecord != nil {
			return errors.Join(errRecord, domain.ErrStore)
		}

		metrics.Notifications.WithLabelValues("delete").Inc()
	}

	return nil
}
