// Package domain contains the models shared between features.
package domain

import (
	"time"

	"github.com/leighmacdonald/steamid/v4/steamid"
)

// AppID is the steam application id of Deep Rock Galactic, used to build
// joinlobby deep links.
const AppID = 548430

// ModCategory is the mod.io approval track of a mod as reported by the
// matchmaking service.
type ModCategory int

const (
	ModCategoryVerified  ModCategory = 0
	ModCategoryApproved  ModCategory = 1
	ModCategorySandboxed ModCategory = 2
)

// ModRef is a single mod attached to a lobby snapshot. Category is nil for
// mods whose sighting carried no category, and Name/URL are empty until the
// metadata updater has resolved the mod against mod.io. Either state renders
// as a hidden mod.
type ModRef struct {
	ModID    int64
	Category *ModCategory
	Version  string
	Name     string
	URL      string
}

// LobbySnapshot is a single observation of a public lobby. Snapshots are
// immutable once written; a lobby is superseded by a later snapshot with a
// newer capture time for the same lobby id.
type LobbySnapshot struct {
	CaptureTime       time.Time
	LobbyID           string
	HostSteamID       steamid.SteamID
	ServerName        string
	ServerNameSan     string
	GlobalMissionSeed int64
	MissionSeed       int64
	Difficulty        int
	GameState         int
	PlayerCount       int
	IsFull            bool
	Region            string
	// MissionStart is empty while the lobby sits in the space rig and holds
	// the mission start marker once a mission is underway.
	MissionStart     string
	Classes          string
	ClassLock        int
	MissionStructure string
	PasswordRequired bool
	P2PAddress       string
	P2PPort          int
	Distance         float64
	Mods             []ModRef
}

// InMission is true once the lobby has left the space rig.
func (s LobbySnapshot) InMission() bool {
	return s.MissionStart != ""
}

// NotificationRecord links a lobby to the discord message currently
// representing it. A record exists iff a remote message is believed to exist
// for the lobby.
type NotificationRecord struct {
	MessageID string
	LobbyID   string
	UpdatedOn time.Time
}

// PlayerSummary is the subset of a steam community profile used to decorate
// notifications.
type PlayerSummary struct {
	SteamID     steamid.SteamID
	PersonaName string
	ProfileURL  string
	Avatar      string
	AvatarFull  string
}
