package mods

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/leighmacdonald/drgwatch/internal/database"
)

type Repository struct {
	db database.Database
}

func NewRepository(db database.Database) *Repository {
	return &Repository{db: db}
}

// BackfillSeenMods creates stub mod rows for any id referenced by a lobby
// sighting but missing from the mod table.
func (r *Repository) BackfillSeenMods(ctx context.Context) error {
	const query = `
		INSERT INTO mod (mod_id)
		SELECT DISTINCT mod_id FROM lobby_mod
		ON CONFLICT (mod_id) DO NOTHING`

	return r.db.Exec(ctx, query)
}

// UnresolvedModIDs lists mods which have never been resolved against mod.io.
func (r *Repository) UnresolvedModIDs(ctx context.Context) ([]int64, error) {
	rows, errRows := r.db.QueryBuilder(ctx, r.db.
		Builder().
		Select("mod_id").
		From("mod").
		Where(sq.Eq{"metadata": nil}))
	if errRows != nil {
		return nil, errRows
	}

	defer rows.Close()

	var modIDs []int64

	for rows.Next() {
		var modID int64
		if errScan := rows.Scan(&modID); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		modIDs = append(modIDs, modID)
	}

	return modIDs, nil
}

// SaveResolved stores the resolved name, profile url and raw document.
func (r *Repository) SaveResolved(ctx context.Context, mod ResolvedMod) error {
	return r.db.ExecUpdateBuilder(ctx, r.db.
		Builder().
		Update("mod").
		Set("name", mod.Name).
		Set("url", mod.ProfileURL).
		Set("metadata", []byte(mod.Raw)).
		Where(sq.Eq{"mod_id": mod.ID}))
}
