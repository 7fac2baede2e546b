package steam_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leighmacdonald/drgwatch/internal/domain"
	"github.com/leighmacdonald/drgwatch/internal/steam"
	"github.com/leighmacdonald/steamid/v4/steamid"
	"github.com/stretchr/testify/require"
)

func TestPlayerSummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
		require.Equal(t, "test-key", req.URL.Query().Get("key"))
		require.Equal(t, "76561197960287930", req.URL.Query().Get("steamids"))

		_, _ = writer.Write([]byte(`{"response": {"players": [{
			"steamid": "76561197960287930",
			"personaname": "Gunner Main",
			"profileurl": "https://steamcommunity.com/id/gunnermain/",
			"avatar": "https://avatars.example.com/small.jpg",
			"avatarfull": "https://avatars.example.com/full.jpg"
		}]}}`))
	}))
	defer server.Close()

	client := steam.NewClient("test-key").WithBaseURL(server.URL)

	summary, errSummary := client.PlayerSummary(context.Background(), steamid.New(76561197960287930))
	require.NoError(t, errSummary)
	require.Equal(t, "Gunner Main", summary.PersonaName)
	require.Equal(t, "https://avatars.example.com/full.jpg", summary.AvatarFull)
	require.Equal(t, int64(76561197960287930), summary.SteamID.Int64())
}

func TestPlayerSummaryNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		_, _ = writer.Write([]byte(`{"response": {"players": []}}`))
	}))
	defer server.Close()

	client := steam.NewClient("test-key").WithBaseURL(server.URL)

	_, errSummary := client.PlayerSummary(context.Background(), steamid.New(76561197960287930))
	require.ErrorIs(t, errSummary, domain.ErrPlayerNotFound)
}

func TestPlayerSummaryBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := steam.NewClient("bad-key").WithBaseURL(server.URL)

	_, errSummary := client.PlayerSummary(context.Background(), steamid.New(76561197960287930))
	require.ErrorIs(t, errSummary, domain.ErrSteamAPI)
}
