// Package web serves the read only HTML view of recently seen lobbies.
package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Depado/ginprom"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/leighmacdonald/drgwatch/internal/config"
	"github.com/leighmacdonald/drgwatch/internal/database"
	"github.com/leighmacdonald/drgwatch/internal/domain"
	"github.com/leighmacdonald/drgwatch/internal/lobby"
	sloggin "github.com/samber/slog-gin"
)

//go:embed templates
var templates embed.FS

const recentWindow = time.Hour

type ModView struct {
	Category string
	Name     string
	URL      string
	Hidden   bool
	ModID    int64
}

type LobbyView struct {
	Title       string
	Hazard      string
	JoinURL     string
	ProfileURL  string
	DetailURL   string
	CaptureTime string
	Mods        []ModView
}

type handler struct {
	repo *lobby.Repository
}

// CreateRouter assembles the gin engine serving the lobby views and, when
// enabled, the prometheus endpoint.
func CreateRouter(conf config.Config, repo *lobby.Repository) (*gin.Engine, error) {
	engine := gin.New()
	engine.Use(gin.Recovery())

	useSloggin(engine, conf)

	if conf.PrometheusEnabled {
		usePrometheus(engine)
	}

	tmpl, errTmpl := template.ParseFS(templates, "templates/*.gohtml")
	if errTmpl != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", errTmpl)
	}

	engine.SetHTMLTemplate(tmpl)

	web := &handler{repo: repo}
	engine.GET("/", web.listLobbies)
	engine.GET("/lobby/:time/:lobby_id", web.showLobby)

	return engine, nil
}

func useSloggin(engine *gin.Engine, conf config.Config) {
	logLevel := slog.LevelError

	switch conf.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	}

	engine.Use(sloggin.NewWithConfig(slog.Default(), sloggin.Config{DefaultLevel: logLevel}))
}

func usePrometheus(engine *gin.Engine) {
	prom := ginprom.New(func(prom *ginprom.Prometheus) {
		prom.Namespace = "drgwatch"
		prom.Subsystem = "http"
	})
	engine.Use(prom.Instrument())
}

func (h *handler) listLobbies(ctx *gin.Context) {
	snapshots, errSnapshots := h.repo.RecentHazard5(ctx, time.Now().Add(-recentWindow))
	if errSnapshots != nil {
		slog.Error("Failed to load recent lobbies", slog.String("reason", errSnapshots.Error()))
		ctx.AbortWithStatus(http.StatusInternalServerError)

		return
	}

	ctx.HTML(http.StatusOK, "lobbies.gohtml", gin.H{"Lobbies": newLobbyViews(snapshots)})
}

func (h *handler) showLobby(ctx *gin.Context) {
	captureNanos, errTime := strconv.ParseInt(ctx.Param("time"), 10, 64)
	if errTime != nil {
		ctx.AbortWithStatus(http.StatusBadRequest)

		return
	}

	snapshot, errSnapshot := h.repo.SnapshotAt(ctx, time.Unix(0, captureNanos), ctx.Param("lobby_id"))
	if errSnapshot != nil {
		status := http.StatusInternalServerError
		if errors.Is(errSnapshot, database.ErrNoResult) {
			status = http.StatusNotFound
		}

		ctx.AbortWithStatus(status)

		return
	}

	ctx.HTML(http.StatusOK, "lobbies.gohtml", gin.H{"Lobbies": newLobbyViews([]domain.LobbySnapshot{snapshot})})
}

func newLobbyViews(snapshots []domain.LobbySnapshot) []LobbyView {
	views := make([]LobbyView, 0, len(snapshots))

	for _, snapshot := range snapshots {
		hostID := snapshot.HostSteamID.Int64()

		view := LobbyView{
			Title:      snapshot.ServerName,
			Hazard:     fmt.Sprintf("Hazard %d", snapshot.Difficulty+1),
			JoinURL:    fmt.Sprintf("steam://joinlobby/%d/%s/%d", domain.AppID, snapshot.LobbyID, hostID),
			ProfileURL: fmt.Sprintf("https://steamcommunity.com/profiles/%d", hostID),
			// Nanosecond resolution so the link round-trips back to the exact
			// capture instant the snapshot is keyed on.
			DetailURL: fmt.Sprintf("/lobby/%d/%s",
				snapshot.CaptureTime.UnixNano(), snapshot.LobbyID),
			CaptureTime: humanize.Time(snapshot.CaptureTime),
		}

		for _, mod := range snapshot.Mods {
			if mod.Category == nil {
				continue
			}

			view.Mods = append(view.Mods, ModView{
				Category: categoryLabel(*mod.Category),
				Name:     mod.Name,
				URL:      mod.URL,
				Hidden:   mod.Name == "" || mod.URL == "",
				ModID:    mod.ModID,
			})
		}

		views = append(views, view)
	}

	return views
}

func categoryLabel(category domain.ModCategory) string {
	switch category {
	case domain.ModCategoryVerified:
		return "Verified"
	case domain.ModCategoryApproved:
		return "Approved"
	case domain.ModCategorySandboxed:
		return "Sandbox"
	default:
		return "Unknown"
	}
}
