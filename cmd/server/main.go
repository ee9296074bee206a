// botduel match server: accepts participant websockets, pairs online
// players into scrims on a timer, runs on-demand round-robin
// tournaments and serves standings over HTTP.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/botduel/botduel/internal/config"
	"github.com/botduel/botduel/internal/logging"
	"github.com/botduel/botduel/internal/player"
	"github.com/botduel/botduel/internal/protocol"
	"github.com/botduel/botduel/internal/rank"
	"github.com/botduel/botduel/internal/sched"
	"github.com/botduel/botduel/internal/session"
	"github.com/botduel/botduel/internal/stats"
	"github.com/botduel/botduel/internal/transport"
)

// Build metadata injected via -ldflags at build time
var (
	buildVersion = "dev"
	buildTime    = ""
)

const keepaliveInterval = 10 * time.Second

type server struct {
	log      zerolog.Logger
	cfg      config.Config
	registry *player.Registry
	table    *rank.Table
	daily    *stats.Daily
	upgrader websocket.Upgrader

	// one tournament at a time
	tournament sync.Mutex
}

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		fallback := logging.New("info")
		fallback.Fatal().Err(err).Msg("bad configuration")
	}
	log := logging.New(cfg.LogLevel)

	s := &server{
		log:      log,
		cfg:      cfg,
		registry: player.NewRegistry(),
		table:    rank.NewTable(),
		daily:    stats.NewDaily(),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}

	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWS)
	r.HandleFunc("/lobby", s.handleLobby).Methods(http.MethodGet)
	r.HandleFunc("/standings", s.handleStandings).Methods(http.MethodGet)
	r.HandleFunc("/stats/daily", s.handleDailyStats).Methods(http.MethodGet)
	r.HandleFunc("/tournament", s.handleTournament).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/version", s.handleVersion).Methods(http.MethodGet)

	if cfg.AutoscrimEnabled {
		go s.autoscrimLoop()
	}

	log.Info().
		Str("addr", cfg.ListenAddr).
		Str("version", buildVersion).
		Bool("autoscrim", cfg.AutoscrimEnabled).
		Msg("botduel server listening")
	if err := http.ListenAndServe(cfg.ListenAddr, r); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

// run plays one match and folds the outcome into the global standings.
func (s *server) run(a, b *player.Player) session.Outcome {
	out := session.Run(a, b, session.Options{
		TurnTimeout: s.cfg.TurnTimeout,
		Logger:      s.log,
		Stats:       s.daily,
	})
	s.table.Record(out.Winner, a.Name, b.Name)
	return out
}

func (s *server) autoscrimLoop() {
	tick := time.NewTicker(s.cfg.AutoscrimInterval)
	defer tick.Stop()
	for range tick.C {
		players := s.registry.List()
		if len(players) < 2 {
			continue
		}
		sched.Autoscrim(players, s.run, s.cfg.AutoscrimRetry, s.log)
	}
}

// handleWS upgrades a participant connection, completes the login
// exchange and then holds the connection open for the schedulers. The
// handler only returns once the connection dies.
func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn := transport.NewWSConn(ws)
	defer conn.Close()

	p, ok := s.login(conn)
	if !ok {
		return
	}
	s.log.Info().Str("player", p.Name).Msg("player online")
	defer func() {
		s.registry.Remove(p.Name)
		s.log.Info().Str("player", p.Name).Msg("player offline")
	}()

	s.keepalive(conn)
}

// login reads messages until a valid login claims a free name.
func (s *server) login(conn *transport.WSConn) (*player.Player, bool) {
	for {
		data, err := conn.Receive(time.Minute)
		if err != nil {
			return nil, false
		}
		name, perr := protocol.ParseLogin(data)
		if perr != nil {
			s.log.Debug().Err(perr).Msg("rejecting login")
			if conn.Send(loginReply(false)) != nil {
				return nil, false
			}
			continue
		}
		p := player.New(name, conn)
		if !s.registry.Add(p) {
			s.log.Debug().Str("player", name).Msg("name already taken")
			if conn.Send(loginReply(false)) != nil {
				return nil, false
			}
			continue
		}
		if err := conn.Send(loginReply(true)); err != nil {
			s.registry.Remove(name)
			return nil, false
		}
		return p, true
	}
}

// keepalive pings the connection until it dies. Reads stay untouched;
// the session layer owns them while matches run.
func (s *server) keepalive(conn *transport.WSConn) {
	tick := time.NewTicker(keepaliveInterval)
	defer tick.Stop()
	for {
		select {
		case <-conn.Dead():
			return
		case <-tick.C:
			if err := conn.Ping(); err != nil {
				return
			}
		}
	}
}

func (s *server) handleLobby(w http.ResponseWriter, r *http.Request) {
	players := s.registry.List()
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name
	}
	writeJSON(w, map[string]any{"players": names, "count": len(names)})
}

func (s *server) handleStandings(w http.ResponseWriter, r *http.Request) {
	type row struct {
		rank.Line
		Score float64 `json:"score"`
	}
	lines := s.table.Standings()
	out := make([]row, len(lines))
	for i, l := range lines {
		out[i] = row{Line: l, Score: l.Score()}
	}
	writeJSON(w, out)
}

func (s *server) handleDailyStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.daily.Get())
}

// handleTournament runs a full round-robin over everyone online and
// responds with that tournament's own standings. Results also count
// toward the global table.
func (s *server) handleTournament(w http.ResponseWriter, r *http.Request) {
	if !s.tournament.TryLock() {
		http.Error(w, "tournament already running", http.StatusConflict)
		return
	}
	defer s.tournament.Unlock()

	players := s.registry.List()
	if len(players) < 2 {
		http.Error(w, "need at least two players online", http.StatusConflict)
		return
	}

	s.log.Info().Int("players", len(players)).Msg("tournament starting")
	local := rank.NewTable()
	results := sched.RoundRobin(players, func(a, b *player.Player) session.Outcome {
		out := s.run(a, b)
		local.Record(out.Winner, a.Name, b.Name)
		return out
	})
	s.log.Info().Int("matches", len(results)).Msg("tournament finished")

	type row struct {
		rank.Line
		Score float64 `json:"score"`
	}
	lines := local.Standings()
	standings := make([]row, len(lines))
	for i, l := range lines {
		standings[i] = row{Line: l, Score: l.Score()}
	}
	writeJSON(w, map[string]any{
		"matches":   len(results),
		"standings": standings,
	})
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"ok": true, "players": s.registry.Len()})
}

func (s *server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"version": buildVersion, "time": buildTime})
}

func loginReply(ok bool) protocol.LoginReply {
	return protocol.LoginReply{Type: protocol.TypeLogin, Success: ok}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
