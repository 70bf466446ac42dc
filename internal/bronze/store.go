// Package bronze persists raw upstream payloads byte-for-byte on the local filesystem.
package bronze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fortuna/courtlake/internal/etlerr"
	"github.com/fortuna/courtlake/internal/gameday"
	"github.com/fortuna/courtlake/internal/logger"
	"github.com/fortuna/courtlake/internal/provider"
)

const (
	manifestDir      = "manifests"
	playerListFile   = "players"
	defaultWorkers   = 4
	artifactFileMode = 0o644
)

var kindDirs = map[provider.Kind]string{
	provider.KindBoxscore:    "boxscores",
	provider.KindPlayByPlay:  "pbp",
	provider.KindShotChart:   "shot_chart",
	provider.KindTeamHistory: "teams",
	provider.KindPlayerList:  "players",
}

// ErrManifestNotFound is returned when a date has never been fetched.
var ErrManifestNotFound = errors.New("manifest not found")

// Manifest records which games were discovered for a date.
type Manifest struct {
	GameDate string   `json:"game_date"`
	GameIDs  []string `json:"game_ids"`
}

// Store reads and writes bronze artifacts under a root directory.
type Store struct {
	root    string
	client  provider.Transport
	workers int
	log     *logger.Logger
}

// NewStore builds a store. client is usually a rate-limited client.Client; it may be nil for read-only use.
func NewStore(root string, client provider.Transport, workers int, log *logger.Logger) *Store {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Store{
		root:    root,
		client:  client,
		workers: workers,
		log:     logger.OrNop(log).Component("bronze"),
	}
}

func (s *Store) Root() string { return s.root }

// ArtifactPath returns where an artifact of kind lives. League-wide kinds ignore id.
func (s *Store) ArtifactPath(kind provider.Kind, id string) string {
	if kind == provider.KindPlayerList {
		id = playerListFile
	}
	return filepath.Join(s.root, kindDirs[kind], id+".json")
}

// ManifestPath returns the manifest location for date.
func (s *Store) ManifestPath(date gameday.Date) string {
	return filepath.Join(s.root, manifestDir, date.String()+".json")
}

// Exists reports whether the artifact has been persisted.
func (s *Store) Exists(kind provider.Kind, id string) bool {
	_, err := os.Stat(s.ArtifactPath(kind, id))
	return err == nil
}

// ReadArtifact returns the stored bytes.
func (s *Store) ReadArtifact(kind provider.Kind, id string) ([]byte, error) {
	return os.ReadFile(s.ArtifactPath(kind, id))
}

// TeamHistoryIDs lists the team ids that have a stored history, in directory order.
func (s *Store) TeamHistoryIDs() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, kindDirs[provider.KindTeamHistory]))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list team histories: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		ids = append(ids, e.Name()[:len(e.Name())-len(".json")])
	}
	return ids, nil
}

// Manifest loads the manifest for date. found is false when none exists.
func (s *Store) Manifest(date gameday.Date) (*Manifest, bool, error) {
	raw, err := os.ReadFile(s.ManifestPath(date))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read manifest %s: %w", date, err)
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false, etlerr.New(etlerr.DataShape, "decode manifest "+date.String(), err)
	}
	if m.GameIDs == nil {
		m.GameIDs = []string{}
	}
	return &m, true, nil
}

// FetchAndPersist discovers the games on date and downloads every missing per-game artifact.
// The manifest is always written with the full discovered list. When any game fails the
// returned error is a *FetchError naming every failed game.
func (s *Store) FetchAndPersist(ctx context.Context, date gameday.Date) (*Manifest, error) {
	if s.client == nil {
		return nil, errors.New("bronze store has no upstream client")
	}

	scoreboard, err := s.client.Fetch(ctx, provider.Request{Kind: provider.KindScoreboard, Date: date})
	if err != nil {
		return nil, fmt.Errorf("discover games on %s: %w", date, err)
	}
	gameIDs, err := provider.ParseGameIDs(scoreboard)
	if err != nil {
		return nil, fmt.Errorf("discover games on %s: %w", date, err)
	}

	manifest := &Manifest{GameDate: date.String(), GameIDs: gameIDs}
	if len(gameIDs) == 0 {
		s.log.Info("no games scheduled", "date", date.String())
		return manifest, s.writeManifest(date, manifest)
	}

	var (
		mu      sync.Mutex
		failed  = map[string]struct{}{}
		errs    []error
		fetched int
	)

	// The group is not context-bound: one failed game must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(s.workers)

	for _, gameID := range gameIDs {
		for _, kind := range provider.GameKinds {
			gameID, kind := gameID, kind
			g.Go(func() error {
				ok, err := s.FetchEntity(ctx, kind, gameID)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed[gameID] = struct{}{}
					errs = append(errs, fmt.Errorf("%s %s: %w", kind, gameID, err))
					return nil
				}
				if ok {
					fetched++
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	if err := s.writeManifest(date, manifest); err != nil {
		return nil, err
	}

	s.log.Info("bronze date complete",
		"date", date.String(),
		"games", len(gameIDs),
		"fetched", fetched,
		"failed_games", len(failed),
	)

	if len(failed) > 0 {
		ids := make([]string, 0, len(failed))
		for _, id := range gameIDs {
			if _, ok := failed[id]; ok {
				ids = append(ids, id)
			}
		}
		return manifest, &FetchError{Date: date, FailedGameIDs: ids, Errs: errs}
	}
	return manifest, nil
}

// FetchEntity downloads one artifact unless it already exists. fetched reports whether a
// network call was made.
func (s *Store) FetchEntity(ctx context.Context, kind provider.Kind, id string) (bool, error) {
	if _, ok := kindDirs[kind]; !ok {
		return false, fmt.Errorf("kind %q is not persisted", kind)
	}
	if s.Exists(kind, id) {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s.client == nil {
		return false, errors.New("bronze store has no upstream client")
	}

	body, err := s.client.Fetch(ctx, provider.Request{Kind: kind, ID: id})
	if err != nil {
		return false, err
	}
	if err := writeAtomic(s.ArtifactPath(kind, id), body); err != nil {
		return false, err
	}
	s.log.Debug("artifact stored", "kind", string(kind), "id", id, "bytes", len(body))
	return true, nil
}

// PersistDimension downloads a league-wide dimension. Team histories are write-once per
// team; the player list is refreshed on every call.
func (s *Store) PersistDimension(ctx context.Context, kind provider.Kind) error {
	switch kind {
	case provider.KindTeamHistory:
		var errs []error
		fetched := 0
		for _, teamID := range provider.TeamIDs() {
			id := strconv.FormatInt(teamID, 10)
			ok, err := s.FetchEntity(ctx, kind, id)
			if err != nil {
				if etlerr.IsCancellation(err) {
					return err
				}
				s.log.Error("team history fetch failed", "team_id", id, "error", err)
				errs = append(errs, fmt.Errorf("team %s: %w", id, err))
				continue
			}
			if ok {
				fetched++
			}
		}
		s.log.Info("team histories persisted", "fetched", fetched, "failed", len(errs))
		return errors.Join(errs...)

	case provider.KindPlayerList:
		if s.client == nil {
			return errors.New("bronze store has no upstream client")
		}
		body, err := s.client.Fetch(ctx, provider.Request{Kind: kind})
		if err != nil {
			return fmt.Errorf("fetch player list: %w", err)
		}
		if err := writeAtomic(s.ArtifactPath(kind, ""), body); err != nil {
			return err
		}
		s.log.Info("player list persisted", "bytes", len(body))
		return nil

	default:
		return fmt.Errorf("kind %q is not a dimension", kind)
	}
}

func (s *Store) writeManifest(date gameday.Date, m *Manifest) error {
	if m.GameIDs == nil {
		m.GameIDs = []string{}
	}
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return writeAtomic(s.ManifestPath(date), raw)
}

// writeAtomic writes through a temp file in the target directory so a partial file never
// appears under the final name.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, artifactFileMode); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
