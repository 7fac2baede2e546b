package mods_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leighmacdonald/drgwatch/internal/domain"
	"github.com/leighmacdonald/drgwatch/internal/mods"
	"github.com/stretchr/testify/require"
)

func TestModsByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
		require.Equal(t, "test-key", req.URL.Query().Get("api_key"))
		require.Equal(t, "1981468,1962912", req.URL.Query().Get("id-in"))

		_, _ = writer.Write([]byte(`{"data": [
			{"id": 1981468, "name": "More Mutators", "profile_url": "https://mod.io/g/drg/m/more-mutators", "tags": []},
			{"id": 1962912, "name": "Buyable Missions", "profile_url": "https://mod.io/g/drg/m/buyable-missions"}
		]}`))
	}))
	defer server.Close()

	client := mods.NewModioClient("test-key").WithBaseURL(server.URL)

	resolved, errResolve := client.ModsByID(context.Background(), []int64{1981468, 1962912})
	require.NoError(t, errResolve)
	require.Len(t, resolved, 2)
	require.Equal(t, int64(1981468), resolved[0].ID)
	require.Equal(t, "More Mutators", resolved[0].Name)
	require.Equal(t, "https://mod.io/g/drg/m/more-mutators", resolved[0].ProfileURL)
	// The raw document keeps fields we do not model.
	require.Contains(t, string(resolved[0].Raw), `"tags"`)
}

func TestModsByIDEmpty(t *testing.T) {
	client := mods.NewModioClient("test-key").WithBaseURL("http://127.0.0.1:1")

	resolved, errResolve := client.ModsByID(context.Background(), nil)
	require.NoError(t, errResolve)
	require.Empty(t, resolved)
}

func TestModsByIDBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := mods.NewModioClient("bad-key").WithBaseURL(server.URL)

	_, errResolve := client.ModsByID(context.Background(), []int64{1981468})
	require.ErrorIs(t, errResolve, domain.ErrModioRequest)
}
