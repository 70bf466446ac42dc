package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fortuna/courtlake/internal/etlerr"
	"github.com/fortuna/courtlake/internal/gameday"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scoreboardFixture = `{
  "resource": "scoreboard",
  "resultSets": [
    {"name": "GameHeader", "headers": ["GAME_DATE_EST", "GAME_ID", "HOME_TEAM_ID"],
     "rowSet": [["2024-01-15T00:00:00", "0022300571", 1610612737],
                ["2024-01-15T00:00:00", "0022300572", 1610612738],
                ["2024-01-15T00:00:00", "0022300571", 1610612737]]},
    {"name": "LineScore", "headers": ["GAME_ID"], "rowSet": []}
  ]
}`

func TestParseGameIDs(t *testing.T) {
	ids, err := ParseGameIDs([]byte(scoreboardFixture))
	require.NoError(t, err)
	assert.Equal(t, []string{"0022300571", "0022300572"}, ids)
}

func TestParseGameIDsEmptyDate(t *testing.T) {
	payload := `{"resultSets": [{"name": "GameHeader", "headers": ["GAME_ID"], "rowSet": []}]}`
	ids, err := ParseGameIDs([]byte(payload))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestParseGameIDsShapeErrors(t *testing.T) {
	tests := map[string]string{
		"no result sets":  `{"resource": "scoreboard"}`,
		"no game header":  `{"resultSets": [{"name": "LineScore", "headers": [], "rowSet": []}]}`,
		"no game id col":  `{"resultSets": [{"name": "GameHeader", "headers": ["X"], "rowSet": []}]}`,
		"not json at all": `<html>`,
	}
	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseGameIDs([]byte(payload))
			require.Error(t, err)
			assert.Equal(t, etlerr.DataShape, etlerr.Classify(err))
		})
	}
}

func TestDecodeSingularResultSet(t *testing.T) {
	sets, err := DecodeResultSets([]byte(`{"resultSet": {"name": "Shot_Chart_Detail", "headers": ["A"], "rowSet": [[1]]}}`))
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, 0, sets[0].Column("A"))
	assert.Equal(t, -1, sets[0].Column("B"))
}

func TestTeamIDs(t *testing.T) {
	ids := TeamIDs()
	require.Len(t, ids, 30)
	ids[0] = 0
	assert.NotEqual(t, int64(0), TeamIDs()[0], "callers get a copy")
}

func TestHTTPTransportRoutesAndHeaders(t *testing.T) {
	var gotPath, gotQuery, gotOrigin string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotOrigin = r.Header.Get("x-nba-stats-origin")
		_, _ = w.Write([]byte(scoreboardFixture))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(srv.URL, time.Second)
	body, err := tr.Fetch(context.Background(), Request{Kind: KindScoreboard, Date: gameday.Of(2024, time.January, 15)})
	require.NoError(t, err)

	assert.Equal(t, "/scoreboardv2", gotPath)
	assert.Contains(t, gotQuery, "GameDate=2024-01-15")
	assert.Equal(t, "stats", gotOrigin)
	assert.JSONEq(t, scoreboardFixture, string(body))
}

func TestHTTPTransportStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   etlerr.Class
	}{
		{"throttled", http.StatusTooManyRequests, `{}`, etlerr.Throttled},
		{"server error", http.StatusBadGateway, `{}`, etlerr.Transient},
		{"not found", http.StatusNotFound, `{}`, etlerr.Fatal},
		{"html bounce", http.StatusOK, `<html>denied</html>`, etlerr.Throttled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPTransport(srv.URL, time.Second).Fetch(context.Background(), Request{Kind: KindBoxscore, ID: "0022300571"})
			require.Error(t, err)
			assert.Equal(t, tt.want, etlerr.Classify(err))
		})
	}
}

func TestHTTPTransportUnknownKind(t *testing.T) {
	_, err := NewHTTPTransport("http://unused", time.Second).Fetch(context.Background(), Request{Kind: "nope"})
	assert.Error(t, err)
}
