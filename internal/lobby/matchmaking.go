// Package lobby polls the matchmaking service and persists lobby snapshots.
package lobby

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/leighmacdonald/drgwatch/internal/domain"
	"github.com/leighmacdonald/drgwatch/pkg/log"
	"github.com/leighmacdonald/steamid/v4/steamid"
	"go.uber.org/ratelimit"
)

const (
	listURL        = "https://drg.ghostship.dk/steam/games/list2"
	requestTimeout = time.Second * 15
	// One list request per difficulty bit. The upstream service is not ours,
	// so the burst is paced through a shared leaky bucket.
	listRequestsPerSecond = 2
)

// difficultyBitsets covers every selectable difficulty, one request each. The
// lobby browser caps result counts per query, querying per difficulty keeps
// the union complete.
var difficultyBitsets = []int{0b00001, 0b00010, 0b00100, 0b01000, 0b10000} //nolint:gochecknoglobals

type listRequest struct {
	SteamTicket          string `json:"steamTicket"`
	SteamPingLoc         string `json:"steamPingLoc"`
	GameTypes            []int  `json:"gameTypes"`
	AuthenticationTicket string `json:"authenticationTicket"`
	IgnoreID             string `json:"ignoreId"`
	Distance             int    `json:"distance"`
	PasswordRequired     int    `json:"dRG_PWREQUIRED"`
	Region               string `json:"dRG_REGION"`
	Version              *int   `json:"dRG_VERSION"`
	DifficultyBitset     int    `json:"difficultyBitset"`
	MissionSeed          int64  `json:"missionSeed"`
	GlobalMissionSeed    int64  `json:"globalMissionSeed"`
	SearchString         string `json:"searchString"`
	DeepDive             bool   `json:"deepDive"`
	Platform             string `json:"platform"`
}

type listedMod struct {
	Name     string `json:"Name"`
	Version  string `json:"Version"`
	Category int    `json:"Category"`
}

type listedLobby struct {
	ID                string      `json:"Id"`
	HostUserID        string      `json:"HostUserID"`
	ServerName        string      `json:"DRG_SERVERNAME"`
	ServerNameSan     string      `json:"DRG_SERVERNAME_SAN"`
	GlobalMissionSeed int64       `json:"DRG_GLOBALMISSION_SEED"`
	MissionSeed       int64       `json:"DRG_MISSION_SEED"`
	Difficulty        int         `json:"DRG_DIFF"`
	GameState         int         `json:"DRG_GAMESTATE"`
	PlayerCount       int         `json:"DRG_NUMPLAYERS"`
	IsFull            int         `json:"DRG_FULL"`
	Region            string      `json:"DRG_REGION"`
	MissionStart      string      `json:"DRG_START"`
	Classes           string      `json:"DRG_CLASSES"`
	ClassLock         int         `json:"DRG_CLASSLOCK"`
	MissionStructure  string      `json:"DRG_MISSIONSTRUCTURE"`
	PasswordRequired  int         `json:"DRG_PWREQUIRED"`
	P2PAddress        string      `json:"P2PADDR"`
	P2PPort           int         `json:"P2PPORT"`
	Distance          float64     `json:"Distance"`
	Mods              []listedMod `json:"Mods"`
}

type listResponse struct {
	Lobbies []listedLobby `json:"Lobbies"`
}

// MatchmakingClient queries the public lobby browser endpoint.
type MatchmakingClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    ratelimit.Limiter
}

func NewMatchmakingClient() *MatchmakingClient {
	return &MatchmakingClient{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    listURL,
		limiter:    ratelimit.New(listRequestsPerSecond),
	}
}

// WithBaseURL points the client at an alternate endpoint, used by tests.
func (c *MatchmakingClient) WithBaseURL(base string) *MatchmakingClient {
	c.baseURL = base

	return c
}

// FetchAll queries every difficulty bitset and returns the union of lobbies,
// deduplicated by lobby id. All returned snapshots share captureTime.
func (c *MatchmakingClient) FetchAll(ctx context.Context, captureTime time.Time) ([]domain.LobbySnapshot, error) {
	unique := map[string]listedLobby{}

	for _, bitset := range difficultyBitsets {
		c.limiter.Take()

		listed, errList := c.fetch(ctx, bitset)
		if errList != nil {
			return nil, errList
		}

		for _, lob := range listed.Lobbies {
			unique[lob.ID] = lob
		}
	}

	snapshots := make([]domain.LobbySnapshot, 0, len(unique))
	for _, lob := range unique {
		snapshots = append(snapshots, newSnapshot(captureTime, lob))
	}

	return snapshots, nil
}

func (c *MatchmakingClient) fetch(ctx context.Context, difficultyBitset int) (listResponse, error) {
	var listed listResponse

	body, errBody := json.Marshal(listRequest{
		GameTypes:            []int{1, 2, 0, 99},
		AuthenticationTicket: "OtherPlatform",
		Distance:             3,
		DifficultyBitset:     difficultyBitset,
		Platform:             "steam",
	})
	if errBody != nil {
		return listed, errors.Join(errBody, domain.ErrMatchmakingRequest)
	}

	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(string(body)))
	if errReq != nil {
		return listed, errors.Join(errReq, domain.ErrMatchmakingRequest)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, errResp := c.httpClient.Do(req)
	if errResp != nil {
		return listed, errors.Join(errResp, domain.ErrMatchmakingRequest)
	}

	defer log.Closer(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return listed, errors.Join(fmt.Errorf("unexpected status: %s", resp.Status), domain.ErrMatchmakingRequest)
	}

	if errDecode := json.NewDecoder(resp.Body).Decode(&listed); errDecode != nil {
		return listed, errors.Join(errDecode, domain.ErrMatchmakingRequest)
	}

	return listed, nil
}

func newSnapshot(captureTime time.Time, lob listedLobby) domain.LobbySnapshot {
	snapshot := domain.LobbySnapshot{
		CaptureTime:       captureTime,
		LobbyID:           lob.ID,
		HostSteamID:       steamid.New(lob.HostUserID),
		ServerName:        lob.ServerName,
		ServerNameSan:     lob.ServerNameSan,
		GlobalMissionSeed: lob.GlobalMissionSeed,
		MissionSeed:       lob.MissionSeed,
		Difficulty:        lob.Difficulty,
		GameState:         lob.GameState,
		PlayerCount:       lob.PlayerCount,
		IsFull:            lob.IsFull != 0,
		Region:            lob.Region,
		MissionStart:      lob.MissionStart,
		Classes:           lob.Classes,
		ClassLock:         lob.ClassLock,
		MissionStructure:  lob.MissionStructure,
		PasswordRequired:  lob.PasswordRequired != 0,
		P2PAddress:        lob.P2PAddress,
		P2PPort:           lob.P2PPort,
		Distance:          lob.Distance,
	}

	for _, entry := range lob.Mods {
		// The mod "name" in the lobby browser payload is its mod.io id.
		modID, errParse := strconv.ParseInt(entry.Name, 10, 64)
		if errParse != nil {
			slog.Warn("Mod has non-numeric id", slog.String("name", entry.Name))

			continue
		}

		category := domain.ModCategory(entry.Category)
		snapshot.Mods = append(snapshot.Mods, domain.ModRef{
			ModID:    modID,
			Category: &category,
			Version:  entry.Version,
		})
	}

	return snapshot
}
