package notification

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/leighmacdonald/drgwatch/internal/database"
	"github.com/leighmacdonald/drgwatch/internal/domain"
	"github.com/leighmacdonald/steamid/v4/steamid"
)

// QueuedNotification is one eligible lobby along with the message currently
// posted for it, if any.
type QueuedNotification struct {
	Snapshot  domain.LobbySnapshot
	MessageID string
}

// Store is the engine facing persistence surface.
type Store interface {
	Eligible(ctx context.Context, since time.Time, watched []int64, excluded []int64) ([]QueuedNotification, error)
	UpsertRecord(ctx context.Context, messageID string, lobbyID string, updatedOn time.Time) error
	DeleteRecord(ctx context.Context, messageID string) error
	ExpiredRecords(ctx context.Context, cutoff time.Time) ([]domain.NotificationRecord, error)
}

type Repository struct {
	db database.Database
}

func NewRepository(db database.Database) *Repository {
	return &Repository{db: db}
}

// eligibleQuery selects the newest snapshot per lobby captured since the
// recency cutoff, restricted to lobbies running at least one watched mod and
// never the excluded ones. The exclusion is keyed to the most recent sighting
// of an excluded mod per lobby rather than the selected snapshot, which keeps
// a lobby suppressed even if the excluded mod dropped out of its latest
// snapshot. Ordering is oldest first so long running lobbies absorb the rate
// limit budget before fresh ones.
const eligibleQuery = `
	SELECT s.capture_time,
	       s.lobby_id,
	       s.host_steam_id,
	       s.server_name,
	       s.difficulty,
	       s.region,
	       s.classes,
	       s.mission_start,
	       coalesce(n.message_id, '')
	FROM lobby_snapshot s
	LEFT JOIN notification_message n USING (lobby_id)
	WHERE (s.capture_time, s.lobby_id) IN (
	    SELECT sm.capture_time, sm.lobby_id
	    FROM lobby_mod sm
	    WHERE sm.mod_id = ANY ($1)
	      AND (sm.capture_time, sm.lobby_id) NOT IN (
	          SELECT max(capture_time), lobby_id
	          FROM lobby_mod
	          WHERE mod_id = ANY ($2)
	          GROUP BY lobby_id)
	      AND (sm.capture_time, sm.lobby_id) IN (
	          SELECT max(capture_time), lobby_id
	          FROM lobby_snapshot
	          WHERE capture_time > $3
	          GROUP BY lobby_id))
	ORDER BY s.capture_time`

func (r *Repository) Eligible(ctx context.Context, since time.Time, watched []int64, excluded []int64) ([]QueuedNotification, error) {
	rows, errRows := r.db.Query(ctx, eligibleQuery, watched, excluded, since)
	if errRows != nil {
		return nil, errRows
	}

	defer rows.Close()

	var queued []QueuedNotification

	for rows.Next() {
		var (
			item   QueuedNotification
			hostID int64
		)

		if errScan := rows.Scan(&item.Snapshot.CaptureTime, &item.Snapshot.LobbyID, &hostID,
			&item.Snapshot.ServerName, &item.Snapshot.Difficulty, &item.Snapshot.Region,
			&item.Snapshot.Classes, &item.Snapshot.MissionStart, &item.MessageID); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		item.Snapshot.HostSteamID = steamid.New(hostID)
		queued = append(queued, item)
	}

	for i := range queued {
		mods, errMods := r.snapshotMods(ctx, queued[i].Snapshot.CaptureTime, queued[i].Snapshot.LobbyID)
		if errMods != nil {
			return nil, errMods
		}

		queued[i].Snapshot.Mods = mods
	}

	return queued, nil
}

func (r *Repository) snapshotMods(ctx context.Context, captureTime time.Time, lobbyID string) ([]domain.ModRef, error) {
	rows, errRows := r.db.QueryBuilder(ctx, r.db.
		Builder().
		Select("lm.mod_id", "lm.category", "m.name", "m.url").
		From("lobby_mod lm").
		Join("mod m USING (mod_id)").
		Where(sq.And{sq.Eq{"lm.capture_time": captureTime}, sq.Eq{"lm.lobby_id": lobbyID}}).
		OrderBy("lm.category"))
	if errRows != nil {
		return nil, errRows
	}

	defer rows.Close()

	var mods []domain.ModRef

	for rows.Next() {
		var (
			mod      domain.ModRef
			category *int
			name     *string
			url      *string
		)

		if errScan := rows.Scan(&mod.ModID, &category, &name, &url); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		if category != nil {
			value := domain.ModCategory(*category)
			mod.Category = &value
		}

		if name != nil {
			mod.Name = *name
		}

		if url != nil {
			mod.URL = *url
		}

		mods = append(mods, mod)
	}

	return mods, nil
}

// UpsertRecord creates or refreshes the record tying a lobby to its message.
func (r *Repository) UpsertRecord(ctx context.Context, messageID string, lobbyID string, updatedOn time.Time) error {
	return r.db.ExecInsertBuilder(ctx, r.db.
		Builder().
		Insert("notification_message").
		Columns("message_id", "lobby_id", "updated_on").
		Values(messageID, lobbyID, updatedOn).
		Suffix("ON CONFLICT (message_id) DO UPDATE SET updated_on = excluded.updated_on"))
}

func (r *Repository) DeleteRecord(ctx context.Context, messageID string) error {
	return r.db.ExecDeleteBuilder(ctx, r.db.
		Builder().
		Delete("notification_message").
		Where(sq.Eq{"message_id": messageID}))
}

// ExpiredRecords lists records whose lobby has not been refreshed since the
// cutoff, meaning it fell out of the eligible set.
func (r *Repository) ExpiredRecords(ctx context.Context, cutoff time.Time) ([]domain.NotificationRecord, error) {
	rows, errRows := r.db.QueryBuilder(ctx, r.db.
		Builder().
		Select("message_id", "lobby_id", "updated_on").
		From("notification_message").
		Where(sq.LtOrEq{"updated_on": cutoff}))
	if errRows != nil {
		return nil, errRows
	}

	defer rows.Close()

	var records []domain.NotificationRecord

	for rows.Next() {
		var record domain.NotificationRecord
		if errScan := rows.Scan(&record.MessageID, &record.LobbyID, &record.UpdatedOn); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		records = append(records, record)
	}

	return records, nil
}
