// botduel reference bot: connects to a match server, logs in and
// plays matches with a simple randomized strategy. Useful for
// exercising a server by hand.
package main

import (
	"encoding/json"
	"flag"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/botduel/botduel/internal/game"
	"github.com/botduel/botduel/internal/logging"
	"github.com/botduel/botduel/internal/player"
	"github.com/botduel/botduel/internal/protocol"
	"github.com/botduel/botduel/internal/transport"
)

func main() {
	serverURL := flag.String("server", "ws://localhost:8001/ws", "match server websocket URL")
	name := flag.String("name", "", "bot name (required)")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	log := logging.New(*level)
	if *name == "" {
		log.Fatal().Msg("-name is required")
	}

	conn, err := transport.Dial(*serverURL)
	if err != nil {
		log.Fatal().Err(err).Str("server", *serverURL).Msg("cannot connect")
	}
	defer conn.Close()

	if err := conn.Send(protocol.Login{Type: protocol.TypeLogin, User: *name}); err != nil {
		log.Fatal().Err(err).Msg("login send failed")
	}
	log = log.With().Str("bot", *name).Logger()
	log.Info().Str("server", *serverURL).Msg("connected")

	b := &bot{conn: conn, log: log}
	b.loop()
	os.Exit(0)
}

type bot struct {
	conn player.Conn
	log  zerolog.Logger

	matchID string
	round   int
	mine    []protocol.UnitState
	theirs  []protocol.UnitState
}

type envelope struct {
	Type string `json:"type"`
}

func (b *bot) loop() {
	for {
		data, err := b.conn.Receive(time.Hour)
		if err != nil {
			b.log.Info().Err(err).Msg("connection closed")
			return
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			b.log.Warn().Err(err).Msg("unreadable message")
			continue
		}
		switch env.Type {
		case protocol.TypeLogin:
			var msg protocol.LoginReply
			if json.Unmarshal(data, &msg) == nil && !msg.Success {
				b.log.Error().Msg("login rejected")
				return
			}
			b.log.Info().Msg("logged in")
		case protocol.TypeBeginMatch:
			var msg protocol.BeginMatch
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			b.matchID = msg.MatchID
			b.round = 0
			b.mine, b.theirs = msg.Bots, msg.OpBots
			b.log.Info().Str("match", msg.MatchID).Str("opponent", msg.Opponent).Msg("match started")
			b.submit()
		case protocol.TypeMatchUpdate:
			var msg protocol.MatchUpdate
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			b.round = msg.Round + 1
			b.mine, b.theirs = msg.Bots, msg.OpBots
			b.submit()
		case protocol.TypeMatchOver:
			var msg protocol.MatchOver
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			evt := b.log.Info().Str("match", msg.MatchID).Bool("tie", msg.Tie)
			if msg.Winner != "" {
				evt = evt.Str("winner", msg.Winner)
			}
			evt.Msg("match over")
			b.matchID = ""
		case protocol.TypeInvalidRequest:
			var msg protocol.InvalidRequest
			_ = json.Unmarshal(data, &msg)
			if b.matchID == "" {
				b.log.Warn().Str("reason", msg.Reason).Msg("rejection with no match in flight")
				continue
			}
			b.log.Warn().Str("reason", msg.Reason).Msg("submission rejected; retrying")
			b.submit()
		}
	}
}

func (b *bot) submit() {
	msg := protocol.SubmitTurn{
		Type:    protocol.TypeSubmitTurn,
		MatchID: b.matchID,
		Round:   b.round,
		Actions: b.chooseActions(),
	}
	if err := b.conn.Send(msg); err != nil {
		b.log.Warn().Err(err).Msg("submit failed")
	}
}

// chooseActions plays each unit independently: dead units rest, empty
// units load, the rest pick randomly between loading, shielding and
// launching at a random live target.
func (b *bot) chooseActions() []game.Action {
	var alive []int
	for i, u := range b.theirs {
		if u.Health > 0 {
			alive = append(alive, i)
		}
	}

	acts := make([]game.Action, game.NumUnits)
	for i := range acts {
		u := b.mine[i]
		switch {
		case u.Health <= 0:
			acts[i] = game.Action{Kind: game.ActionNone}
		case u.Ammo == 0:
			acts[i] = game.Action{Kind: game.ActionLoad}
		default:
			switch roll := rand.Intn(4); {
			case roll == 0:
				acts[i] = game.Action{Kind: game.ActionLoad}
			case roll == 1:
				acts[i] = game.Action{Kind: game.ActionShield}
			case len(alive) > 0:
				acts[i] = game.Action{
					Kind:     game.ActionLaunch,
					Target:   alive[rand.Intn(len(alive))],
					Strength: 1 + rand.Intn(u.Ammo),
				}
			default:
				acts[i] = game.Action{Kind: game.ActionLoad}
			}
		}
	}
	return acts
}
