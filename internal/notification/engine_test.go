package notification

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/leighmacdonald/drgwatch/internal/config"
	"github.com/leighmacdonald/drgwatch/internal/domain"
	"github.com/leighmacdonald/steamid/v4/steamid"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	queued  []QueuedNotification
	expired []domain.NotificationRecord

	upserts       map[string]string
	deleted       []string
	errEligible   error
	errUpsert     error
	errDeleteItem error
}

func newFakeStore() *fakeStore {
	return &fakeStore{upserts: map[string]string{}}
}

func (s *fakeStore) Eligible(_ context.Context, _ time.Time, _ []int64, _ []int64) ([]QueuedNotification, error) {
	return s.queued, s.errEligible
}

func (s *fakeStore) UpsertRecord(_ context.Context, messageID string, lobbyID string, _ time.Time) error {
	if s.errUpsert != nil {
		return s.errUpsert
	}

	s.upserts[messageID] = lobbyID

	return nil
}

func (s *fakeStore) DeleteRecord(_ context.Context, messageID string) error {
	if s.errDeleteItem != nil {
		return s.errDeleteItem
	}

	s.deleted = append(s.deleted, messageID)

	return nil
}

func (s *fakeStore) ExpiredRecords(_ context.Context, _ time.Time) ([]domain.NotificationRecord, error) {
	return s.expired, nil
}

type fakeSender struct {
	responses []Response

	creates   int
	edits     int
	deletes   []string
	errDelete error
}

func (f *fakeSender) next() Response {
	response := f.responses[0]
	f.responses = f.responses[1:]

	return response
}

func (f *fakeSender) Create(_ context.Context, _ *discordgo.WebhookParams) (Response, http.Header, error) {
	f.creates++

	return f.next(), nil, nil
}

func (f *fakeSender) Edit(_ context.Context, _ string, _ *discordgo.WebhookParams) (Response, http.Header, error) {
	f.edits++

	return f.next(), nil, nil
}

func (f *fakeSender) Delete(_ context.Context, messageID string) (http.Header, error) {
	f.deletes = append(f.deletes, messageID)

	return nil, f.errDelete
}

type fakePlayers struct {
	failFor int64
}

func (f fakePlayers) PlayerSummary(_ context.Context, sid64 steamid.SteamID) (domain.PlayerSummary, error) {
	if f.failFor != 0 && sid64.Int64() == f.failFor {
		return domain.PlayerSummary{}, domain.ErrPlayerNotFound
	}

	return domain.PlayerSummary{
		SteamID:     sid64,
		PersonaName: "Gunner Main",
		AvatarFull:  "https://avatars.example.com/full.jpg",
	}, nil
}

func newTestEngine(store Store, sender Sender) (*Engine, *time.Duration) {
	engine := NewEngine(store, sender, fakePlayers{}, config.Config{
		WatchedMods:  []int64{1981468},
		ExcludedMods: []int64{1034411},
	})

	var slept time.Duration

	engine.sleep = func(d time.Duration) { slept += d }
	engine.governor = &Governor{sleep: func(time.Duration) {}}

	return engine, &slept
}

func testQueued(messageID string) QueuedNotification {
	return QueuedNotification{
		MessageID: messageID,
		Snapshot: domain.LobbySnapshot{
			CaptureTime: time.Now(),
			LobbyID:     "109775241058543795",
			HostSteamID: steamid.New(76561197960287930),
			ServerName:  "Rock and Stone",
			Difficulty:  4,
			Region:      "EU",
			Classes:     "0;3;",
		},
	}
}

func TestSyncCreatesMessage(t *testing.T) {
	store := newFakeStore()
	store.queued = []QueuedNotification{testQueued("")}
	sender := &fakeSender{responses: []Response{{Kind: ResponseSuccess, MessageID: "42"}}}

	engine, _ := newTestEngine(store, sender)
	require.NoError(t, engine.Sync(context.Background()))

	require.Equal(t, 1, sender.creates)
	require.Equal(t, 0, sender.edits)
	require.Equal(t, "109775241058543795", store.upserts["42"])
}

func TestSyncEditsExisting(t *testing.T) {
	store := newFakeStore()
	store.queued = []QueuedNotification{testQueued("42")}
	sender := &fakeSender{responses: []Response{{Kind: ResponseSuccess, MessageID: "42"}}}

	engine, _ := newTestEngine(store, sender)
	require.NoError(t, engine.Sync(context.Background()))

	require.Equal(t, 0, sender.creates)
	require.Equal(t, 1, sender.edits)
	require.Equal(t, "109775241058543795", store.upserts["42"])
}

func TestSyncResendsAfterRateLimit(t *testing.T) {
	store := newFakeStore()
	store.queued = []QueuedNotification{testQueued("")}
	sender := &fakeSender{responses: []Response{
		{Kind: ResponseRateLimited, RetryAfter: 2.5, Message: "You are being rate limited."},
		{Kind: ResponseSuccess, MessageID: "42"},
	}}

	engine, slept := newTestEngine(store, sender)
	require.NoError(t, engine.Sync(context.Background()))

	require.Equal(t, 2, sender.creates)
	require.Equal(t, 2500*time.Millisecond, *slept)
	require.Equal(t, "109775241058543795", store.upserts["42"])
}

func TestSyncDropsRecordForUnknownMessage(t *testing.T) {
	store := newFakeStore()
	store.queued = []QueuedNotification{testQueued("42")}
	sender := &fakeSender{responses: []Response{
		{Kind: ResponseError, Code: discordgo.ErrCodeUnknownMessage, Message: "Unknown Message"},
	}}

	engine, _ := newTestEngine(store, sender)
	require.NoError(t, engine.Sync(context.Background()))

	require.Empty(t, store.upserts)
	require.Equal(t, []string{"42"}, store.deleted)
}

func TestSyncIgnoresOtherErrors(t *testing.T) {
	store := newFakeStore()
	store.queued = []QueuedNotification{testQueued("")}
	sender := &fakeSender{responses: []Response{
		{Kind: ResponseError, Code: 50006, Message: "Cannot send an empty message"},
	}}

	engine, _ := newTestEngine(store, sender)
	require.NoError(t, engine.Sync(context.Background()))

	require.Empty(t, store.upserts)
	require.Empty(t, store.deleted)
}

func TestSyncIsolatesLobbyFailures(t *testing.T) {
	// An enrichment failure skips that lobby only, the rest of the batch still
	// goes out and the run finishes clean.
	failing := testQueued("")
	failing.Snapshot.LobbyID = "109775241058543796"
	failing.Snapshot.HostSteamID = steamid.New(76561197960287931)

	store := newFakeStore()
	store.queued = []QueuedNotification{failing, testQueued("")}
	sender := &fakeSender{responses: []Response{{Kind: ResponseSuccess, MessageID: "42"}}}

	engine, _ := newTestEngine(store, sender)
	engine.players = fakePlayers{failFor: 76561197960287931}

	require.NoError(t, engine.Sync(context.Background()))
	require.Equal(t, 1, sender.creates)
	require.Equal(t, "109775241058543795", store.upserts["42"])
}

func TestSyncAbortsOnStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.queued = []QueuedNotification{testQueued(""), testQueued("")}
	store.errUpsert = errors.New("connection reset")
	sender := &fakeSender{responses: []Response{
		{Kind: ResponseSuccess, MessageID: "42"},
		{Kind: ResponseSuccess, MessageID: "43"},
	}}

	engine, _ := newTestEngine(store, sender)
	require.ErrorIs(t, engine.Sync(context.Background()), domain.ErrStore)
	require.Equal(t, 1, sender.creates)
}

func TestSweepDeletesStaleMessages(t *testing.T) {
	store := newFakeStore()
	store.expired = []domain.NotificationRecord{
		{MessageID: "42", LobbyID: "109775241058543795"},
		{MessageID: "43", LobbyID: "109775241058543796"},
	}
	sender := &fakeSender{}

	engine, _ := newTestEngine(store, sender)
	require.NoError(t, engine.Sync(context.Background()))

	require.Equal(t, []string{"42", "43"}, sender.deletes)
	require.Equal(t, []string{"42", "43"}, store.deleted)
}

func TestSweepRemovesRecordWhenRemoteDeleteFails(t *testing.T) {
	store := newFakeStore()
	store.expired = []domain.NotificationRecord{{MessageID: "42", LobbyID: "109775241058543795"}}
	sender := &fakeSender{errDelete: errors.New("boom")}

	engine, _ := newTestEngine(store, sender)
	require.NoError(t, engine.Sync(context.Background()))

	require.Equal(t, []string{"42"}, store.deleted)
}
