// Package provider talks to the upstream statistics service and describes what it returns.
package provider

import (
	"context"
	"fmt"

	"github.com/fortuna/courtlake/internal/gameday"
)

// Kind identifies an upstream artifact.
type Kind string

const (
	KindScoreboard  Kind = "scoreboard"
	KindBoxscore    Kind = "boxscore"
	KindPlayByPlay  Kind = "play-by-play"
	KindShotChart   Kind = "shot-chart"
	KindTeamHistory Kind = "team-history"
	KindPlayerList  Kind = "player-list"
)

// GameKinds are fetched once per game.
var GameKinds = []Kind{KindBoxscore, KindPlayByPlay, KindShotChart}

// Request describes one upstream call.
type Request struct {
	Kind Kind
	// ID is the game id, team id or empty for league-wide kinds.
	ID   string
	Date gameday.Date
}

func (r Request) String() string {
	switch {
	case r.Kind == KindScoreboard:
		return fmt.Sprintf("%s/%s", r.Kind, r.Date)
	case r.ID != "":
		return fmt.Sprintf("%s/%s", r.Kind, r.ID)
	default:
		return string(r.Kind)
	}
}

// Transport fetches the raw bytes for a request.
type Transport interface {
	Fetch(ctx context.Context, req Request) ([]byte, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req Request) ([]byte, error)

func (f TransportFunc) Fetch(ctx context.Context, req Request) ([]byte, error) {
	return f(ctx, req)
}
