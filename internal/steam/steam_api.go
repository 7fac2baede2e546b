// Package steam implements the small slice of the steam web api needed to
// decorate notifications with the lobby host's community profile.
package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/leighmacdonald/drgwatch/internal/domain"
	"github.com/leighmacdonald/steamid/v4/steamid"
)

const (
	summariesURL   = "https://api.steampowered.com/ISteamUser/GetPlayerSummaries/v0002/"
	requestTimeout = time.Second * 10
)

type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

func NewClient(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		apiKey:     apiKey,
		baseURL:    summariesURL,
	}
}

type playerSummariesResponse struct {
	Response struct {
		Players []struct {
			SteamID     string `json:"steamid"`
			PersonaName string `json:"personaname"`
			ProfileURL  string `json:"profileurl"`
			Avatar      string `json:"avatar"`
			AvatarFull  string `json:"avatarfull"`
		} `json:"players"`
	} `json:"response"`
}

// PlayerSummary fetches the community profile for a single steam id. A lookup
// which succeeds but matches no profile returns domain.ErrPlayerNotFound
// rather than an empty summary. No retries happen at this layer.
func (c *Client) PlayerSummary(ctx context.Context, sid64 steamid.SteamID) (domain.PlayerSummary, error) {
	var summary domain.PlayerSummary

	query := url.Values{}
	query.Set("key", c.apiKey)
	query.Set("steamids", sid64.String())

	req, errReq := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if errReq != nil {
		return summary, errors.Join(errReq, domain.ErrSteamAPI)
	}

	resp, errResp := c.httpClient.Do(req)
	if errResp != nil {
		return summary, errors.Join(errResp, domain.ErrSteamAPI)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return summary, errors.Join(fmt.Errorf("unexpected status: %s", resp.Status), domain.ErrSteamAPI)
	}

	var parsed playerSummariesResponse
	if errDecode := json.NewDecoder(resp.Body).Decode(&parsed); errDecode != nil {
		return summary, errors.Join(errDecode, domain.ErrSteamAPI)
	}

	if len(parsed.Response.Players) == 0 {
		return summary, domain.ErrPlayerNotFound
	}

	player := parsed.Response.Players[0]

	summary = domain.PlayerSummary{
		SteamID:     steamid.New(player.SteamID),
		PersonaName: player.PersonaName,
		ProfileURL:  player.ProfileURL,
		Avatar:      player.Avatar,
		AvatarFull:  player.AvatarFull,
	}

	return summary, nil
}

// WithBaseURL points the client at an alternate api root, used by tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base

	return c
}
