// Command kalakobana-server runs the realtime word-game server: a
// WebSocket gateway over an in-memory room registry and session directory,
// plus the GET /api/rooms HTTP listing. All state lives in memory; nothing
// survives a restart.
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/giorgishonia/kalakobana/internal/config"
	"github.com/giorgishonia/kalakobana/internal/gateway"
	"github.com/giorgishonia/kalakobana/internal/roomstate"
	"github.com/giorgishonia/kalakobana/internal/session"
)

func main() {
	cfg := &config.Config{}
	cmd := config.NewCommand(cfg, serve)
	if err := cmd.Execute(); err != nil {
		slog.Error("exiting", "error", err)
		os.Exit(1)
	}
}

func serve(cfg *config.Config) error {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	registry := roomstate.NewRegistry()
	sessions := session.New()
	chat := gateway.NewChatRelay()
	gw := gateway.New(registry, sessions, chat, cfg.ReconnectGrace)
	index := roomstate.NewPublicRoomIndex(registry)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", gw.HandleWS)
	mux.HandleFunc("GET /api/rooms", handleListRooms(index))

	slog.Info("starting server", "addr", cfg.Addr())
	return http.ListenAndServe(cfg.Addr(), mux)
}

func handleListRooms(index *roomstate.PublicRoomIndex) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(index.List()); err != nil {
			slog.Error("encode room list", "error", err)
		}
	}
}
