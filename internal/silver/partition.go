package silver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/parquet-go/parquet-go"

	"github.com/fortuna/courtlake/internal/gameday"
)

const partitionFile = "data.parquet"

// PartitionPath returns silver/<dataset>/season=S/game_date=D/data.parquet under root.
func PartitionPath(root, dataset string, date gameday.Date) string {
	return filepath.Join(root, dataset,
		"season="+strconv.Itoa(date.Season()),
		"game_date="+date.String(),
		partitionFile)
}

// DimensionPath returns silver/<dataset>/<dataset>.parquet under root.
func DimensionPath(root, dataset string) string {
	return filepath.Join(root, dataset, dataset+".parquet")
}

// writeParquet replaces path atomically with rows.
func writeParquet[T any](path string, rows []T) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if err := parquet.Write(tmp, rows); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write parquet %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// readParquet loads every row of path. A missing file yields no rows and no error.
func readParquet[T any](path string) ([]T, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}
