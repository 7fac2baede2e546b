package lobby

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/leighmacdonald/drgwatch/internal/database"
	"github.com/leighmacdonald/drgwatch/internal/domain"
	"github.com/leighmacdonald/steamid/v4/steamid"
)

type Repository struct {
	db database.Database
}

func NewRepository(db database.Database) *Repository {
	return &Repository{db: db}
}

// SaveSnapshots writes one snapshot row per lobby plus its mod membership
// rows in a single batch. Stub mod rows are created for ids not yet known so
// the metadata updater can resolve them later.
func (r *Repository) SaveSnapshots(ctx context.Context, snapshots []domain.LobbySnapshot) error {
	batch := &pgx.Batch{}

	for _, snapshot := range snapshots {
		if errQueue := r.queueSnapshot(batch, snapshot); errQueue != nil {
			return errQueue
		}
	}

	results := r.db.SendBatch(ctx, batch)
	defer func() {
		_ = results.Close()
	}()

	for i := 0; i < batch.Len(); i++ {
		if _, errExec := results.Exec(); errExec != nil {
			return database.DBErr(errExec)
		}
	}

	return nil
}

func (r *Repository) queueSnapshot(batch *pgx.Batch, snapshot domain.LobbySnapshot) error {
	snapshotQuery, snapshotArgs, errSnapshot := r.db.
		Builder().
		Insert("lobby_snapshot").
		Columns("capture_time", "lobby_id", "host_steam_id", "server_name", "server_name_san",
			"global_mission_seed", "mission_seed", "difficulty", "game_state", "player_count",
			"is_full", "region", "mission_start", "classes", "class_lock", "mission_structure",
			"password_required", "p2p_address", "p2p_port", "distance").
		Values(snapshot.CaptureTime, snapshot.LobbyID, snapshot.HostSteamID.Int64(), snapshot.ServerName,
			snapshot.ServerNameSan, snapshot.GlobalMissionSeed, snapshot.MissionSeed, snapshot.Difficulty,
			snapshot.GameState, snapshot.PlayerCount, snapshot.IsFull, snapshot.Region, snapshot.MissionStart,
			snapshot.Classes, snapshot.ClassLock, snapshot.MissionStructure, snapshot.PasswordRequired,
			snapshot.P2PAddress, snapshot.P2PPort, snapshot.Distance).
		ToSql()
	if errSnapshot != nil {
		return errors.Join(errSnapshot, database.ErrCreateQuery)
	}

	batch.Queue(snapshotQuery, snapshotArgs...)

	for _, mod := range snapshot.Mods {
		memberQuery, memberArgs, errMember := r.db.
			Builder().
			Insert("lobby_mod").
			Columns("capture_time", "lobby_id", "mod_id", "version", "category").
			Values(snapshot.CaptureTime, snapshot.LobbyID, mod.ModID, mod.Version, mod.Category).
			ToSql()
		if errMember != nil {
			return errors.Join(errMember, database.ErrCreateQuery)
		}

		batch.Queue(memberQuery, memberArgs...)

		stubQuery, stubArgs, errStub := r.db.
			Builder().
			Insert("mod").
			Columns("mod_id").
			Values(mod.ModID).
			Suffix("ON CONFLICT (mod_id) DO NOTHING").
			ToSql()
		if errStub != nil {
			return errors.Join(errStub, database.ErrCreateQuery)
		}

		batch.Queue(stubQuery, stubArgs...)
	}

	return nil
}

// RecentHazard5 returns every hazard 5 snapshot captured within the window,
// oldest first. Mods are limited to the non-verified categories, matching
// what the web view renders.
func (r *Repository) RecentHazard5(ctx context.Context, since time.Time) ([]domain.LobbySnapshot, error) {
	const hazard5Tier = 4

	rows, errRows := r.db.QueryBuilder(ctx, r.db.
		Builder().
		Select("capture_time", "lobby_id", "host_steam_id", "server_name", "difficulty", "region").
		From("lobby_snapshot").
		Where(sq.And{sq.Eq{"difficulty": hazard5Tier}, sq.Gt{"capture_time": since}}).
		OrderBy("capture_time"))
	if errRows != nil {
		return nil, errRows
	}

	defer rows.Close()

	var snapshots []domain.LobbySnapshot

	for rows.Next() {
		var (
			snapshot domain.LobbySnapshot
			hostID   int64
		)

		if errScan := rows.Scan(&snapshot.CaptureTime, &snapshot.LobbyID, &hostID,
			&snapshot.ServerName, &snapshot.Difficulty, &snapshot.Region); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		snapshot.HostSteamID = steamid.New(hostID)
		snapshots = append(snapshots, snapshot)
	}

	for i := range snapshots {
		mods, errMods := r.snapshotMods(ctx, snapshots[i].CaptureTime, snapshots[i].LobbyID, false)
		if errMods != nil {
			return nil, errMods
		}

		snapshots[i].Mods = mods
	}

	return snapshots, nil
}

// SnapshotAt loads a single historical snapshot by its composite key.
func (r *Repository) SnapshotAt(ctx context.Context, captureTime time.Time, lobbyID string) (domain.LobbySnapshot, error) {
	var (
		snapshot domain.LobbySnapshot
		hostID   int64
	)

	row, errRow := r.db.QueryRowBuilder(ctx, r.db.
		Builder().
		Select("capture_time", "lobby_id", "host_steam_id", "server_name", "difficulty", "region").
		From("lobby_snapshot").
		Where(sq.And{sq.Eq{"capture_time": captureTime}, sq.Eq{"lobby_id": lobbyID}}))
	if errRow != nil {
		return snapshot, errRow
	}

	if errScan := row.Scan(&snapshot.CaptureTime, &snapshot.LobbyID, &hostID,
		&snapshot.ServerName, &snapshot.Difficulty, &snapshot.Region); errScan != nil {
		return snapshot, database.DBErr(errScan)
	}

	snapshot.HostSteamID = steamid.New(hostID)

	mods, errMods := r.snapshotMods(ctx, snapshot.CaptureTime, snapshot.LobbyID, false)
	if errMods != nil {
		return snapshot, errMods
	}

	snapshot.Mods = mods

	return snapshot, nil
}

func (r *Repository) snapshotMods(ctx context.Context, captureTime time.Time, lobbyID string, includeVerified bool) ([]domain.ModRef, error) {
	builder := r.db.
		Builder().
		Select("lm.mod_id", "lm.category", "m.name", "m.url").
		From("lobby_mod lm").
		Join("mod m USING (mod_id)").
		Where(sq.And{sq.Eq{"lm.capture_time": captureTime}, sq.Eq{"lm.lobby_id": lobbyID}}).
		OrderBy("lm.category")

	if !includeVerified {
		builder = builder.Where(sq.NotEq{"lm.category": int(domain.ModCategoryVerified)})
	}

	rows, errRows := r.db.QueryBuilder(ctx, builder)
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
