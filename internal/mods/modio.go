// Package mods resolves mod ids seen in lobbies against mod.io metadata.
package mods

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/leighmacdonald/drgwatch/internal/domain"
	"github.com/leighmacdonald/drgwatch/pkg/log"
)

// gameID is the mod.io game id of Deep Rock Galactic.
const (
	gameID         = 2475
	modioURL       = "https://api.mod.io/v1/games/%d/mods"
	requestTimeout = time.Second * 15
)

// ResolvedMod is a mod.io record along with its raw document, which is kept
// verbatim for fields we do not model.
type ResolvedMod struct {
	ID         int64
	Name       string
	ProfileURL string
	Raw        json.RawMessage
}

type ModioClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

func NewModioClient(apiKey string) *ModioClient {
	return &ModioClient{
		httpClient: &http.Client{Timeout: requestTimeout},
		apiKey:     apiKey,
		baseURL:    fmt.Sprintf(modioURL, gameID),
	}
}

// WithBaseURL points the client at an alternate api root, used by tests.
func (c *ModioClient) WithBaseURL(base string) *ModioClient {
	c.baseURL = base

	return c
}

// ModsByID fetches metadata for the given mod ids in one batched request.
// Ids unknown to mod.io are simply absent from the result.
func (c *ModioClient) ModsByID(ctx context.Context, modIDs []int64) ([]ResolvedMod, error) {
	if len(modIDs) == 0 {
		return nil, nil
	}

	idList := make([]string, 0, len(modIDs))
	for _, modID := range modIDs {
		idList = append(idList, strconv.FormatInt(modID, 10))
	}

	query := url.Values{}
	query.Set("api_key", c.apiKey)
	query.Set("id-in", strings.Join(idList, ","))

	req, errReq := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if errReq != nil {
		return nil, errors.Join(errReq, domain.ErrModioRequest)
	}

	resp, errResp := c.httpClient.Do(req)
	if errResp != nil {
		return nil, errors.Join(errResp, domain.ErrModioRequest)
	}

	defer log.Closer(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Join(fmt.Errorf("unexpected status: %s", resp.Status), domain.ErrModioRequest)
	}

	var batch struct {
		Data []json.RawMessage `json:"data"`
	}

	if errDecode := json.NewDecoder(resp.Body).Decode(&batch); errDecode != nil {
		return nil, errors.Join(errDecode, domain.ErrModioRequest)
	}

	resolved := make([]ResolvedMod, 0, len(batch.Data))

	for _, raw := range batch.Data {
		var mod struct {
			ID         int64  `json:"id"`
			Name       string `json:"name"`
			ProfileURL string `json:"profile_url"`
		}

		if errMod := json.Unmarshal(raw, &mod); errMod != nil {
			return nil, errors.Join(errMod, domain.ErrModioRequest)
		}

		resolved = append(resolved, ResolvedMod{
			ID:         mod.ID,
			Name:       mod.Name,
			ProfileURL: mod.ProfileURL,
			Raw:        raw,
		})
	}

	return resolved, nil
}
