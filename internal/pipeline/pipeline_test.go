package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/courtlake/internal/bronze"
	"github.com/fortuna/courtlake/internal/gameday"
	"github.com/fortuna/courtlake/internal/gold"
	"github.com/fortuna/courtlake/internal/provider"
	"github.com/fortuna/courtlake/internal/silver"
)

type calls []string

func (c *calls) add(s string) { *c = append(*c, s) }

type fakeBronze struct {
	log       *calls
	manifests map[string]*bronze.Manifest
	fetchErr  error
	dimErr    error
}

func (f *fakeBronze) FetchAndPersist(_ context.Context, date gameday.Date) (*bronze.Manifest, error) {
	f.log.add("bronze:" + date.String())
	m := f.manifests[date.String()]
	if m == nil {
		m = &bronze.Manifest{GameDate: date.String(), GameIDs: []string{}}
	}
	return m, f.fetchErr
}

func (f *fakeBronze) PersistDimension(_ context.Context, kind provider.Kind) error {
	f.log.add("bronze:" + string(kind))
	return f.dimErr
}

func (f *fakeBronze) Manifest(date gameday.Date) (*bronze.Manifest, bool, error) {
	m, ok := f.manifests[date.String()]
	return m, ok, nil
}

type fakeSilver struct {
	log        *calls
	partitions map[string]bool
	err        error
}

func (f *fakeSilver) ProcessDate(_ context.Context, date gameday.Date) (*silver.DateResult, error) {
	f.log.add("silver:" + date.String())
	return &silver.DateResult{Date: date}, f.err
}

func (f *fakeSilver) ProcessPlayers(context.Context) (int, error) {
	f.log.add("silver:players")
	return 1, nil
}

func (f *fakeSilver) ProcessTeams(context.Context) (int, error) {
	f.log.add("silver:teams")
	return 1, nil
}

func (f *fakeSilver) PartitionExists(dataset string, date gameday.Date) bool {
	return f.partitions[dataset+"/"+date.String()]
}

type fakeGold struct {
	log *calls
}

func (f *fakeGold) InitSchema(context.Context) error {
	f.log.add("gold:schema")
	return nil
}

func (f *fakeGold) LoadDate(_ context.Context, date gameday.Date) (*gold.Load, error) {
	f.log.add("gold:" + date.String())
	return &gold.Load{}, nil
}

func (f *fakeGold) LoadDimensions(context.Context) (*gold.Load, error) {
	f.log.add("gold:dims")
	return &gold.Load{}, nil
}

func newFakes() (*calls, *fakeBronze, *fakeSilver, *fakeGold) {
	c := &calls{}
	return c,
		&fakeBronze{log: c, manifests: map[string]*bronze.Manifest{}},
		&fakeSilver{log: c, partitions: map[string]bool{}},
		&fakeGold{log: c}
}

func TestRunDateOrder(t *testing.T) {
	c, b, s, g := newFakes()
	b.manifests["2024-01-15"] = &bronze.Manifest{GameDate: "2024-01-15", GameIDs: []string{"0022300571"}}

	require.NoError(t, New(b, s, g, nil).RunDate(context.Background(), gameday.Of(2024, 1, 15)))
	assert.Equal(t, calls{"bronze:2024-01-15", "silver:2024-01-15", "gold:2024-01-15"}, *c)
}

func TestRunDateWithoutGames(t *testing.T) {
	c, b, s, g := newFakes()

	require.NoError(t, New(b, s, g, nil).RunDate(context.Background(), gameday.Of(2024, 7, 15)))
	assert.Equal(t, calls{"bronze:2024-07-15"}, *c)
}

func TestRunDateStopsAtFirstFailure(t *testing.T) {
	date := gameday.Of(2024, 1, 15)

	t.Run("bronze", func(t *testing.T) {
		c, b, s, g := newFakes()
		cause := &bronze.FetchError{Date: date, FailedGameIDs: []string{"g2"}, Errs: []error{errors.New("boom")}}
		b.fetchErr = cause

		err := New(b, s, g, nil).RunDate(context.Background(), date)
		require.Error(t, err)
		var fe *bronze.FetchError
		assert.ErrorAs(t, err, &fe)
		assert.Equal(t, calls{"bronze:2024-01-15"}, *c)
	})

	t.Run("silver", func(t *testing.T) {
		c, b, s, g := newFakes()
		b.manifests[date.String()] = &bronze.Manifest{GameIDs: []string{"g1"}}
		s.err = silver.ErrNoUsableData

		err := New(b, s, g, nil).RunDate(context.Background(), date)
		assert.ErrorIs(t, err, silver.ErrNoUsableData)
		assert.Equal(t, calls{"bronze:2024-01-15", "silver:2024-01-15"}, *c)
	})
}

func TestRunDateWithoutWarehouse(t *testing.T) {
	c, b, s, _ := newFakes()
	b.manifests["2024-01-15"] = &bronze.Manifest{GameIDs: []string{"g1"}}
	p := New(b, s, nil, nil)

	require.NoError(t, p.RunDate(context.Background(), gameday.Of(2024, 1, 15)))
	require.NoError(t, p.InitSchema(context.Background()))
	assert.Equal(t, calls{"bronze:2024-01-15", "silver:2024-01-15"}, *c)

	_, err := p.LoadDate(context.Background(), gameday.Of(2024, 1, 15))
	assert.ErrorIs(t, err, errNoWarehouse)
}

func TestRefreshDimensions(t *testing.T) {
	c, b, s, g := newFakes()
	require.NoError(t, New(b, s, g, nil).RefreshDimensions(context.Background()))
	assert.Equal(t, calls{
		"bronze:team-history", "bronze:player-list",
		"silver:players", "silver:teams",
		"gold:dims",
	}, *c)

	c, b, s, g = newFakes()
	b.dimErr = errors.New("throttled")
	require.Error(t, New(b, s, g, nil).RefreshDimensions(context.Background()))
	assert.Equal(t, calls{"bronze:team-history"}, *c)
}

func TestIsDone(t *testing.T) {
	_, b, s, g := newFakes()
	p := New(b, s, g, nil)

	b.manifests["2024-07-15"] = &bronze.Manifest{GameIDs: []string{}}
	b.manifests["2024-01-15"] = &bronze.Manifest{GameIDs: []string{"g1"}}
	b.manifests["2024-01-16"] = &bronze.Manifest{GameIDs: []string{"g2"}}
	s.partitions["boxscores/2024-01-16"] = true

	for _, tc := range []struct {
		date gameday.Date
		want bool
	}{
		{gameday.Of(2024, 1, 14), false},
		{gameday.Of(2024, 7, 15), true},
		{gameday.Of(2024, 1, 15), false},
		{gameday.Of(2024, 1, 16), true},
	} {
		t.Run(tc.date.String(), func(t *testing.T) {
			done, err := p.IsDone(tc.date)
			require.NoError(t, err)
			assert.Equal(t, tc.want, done)
		})
	}
}
