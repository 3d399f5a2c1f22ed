package movement

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pthm-cable/maunakea/geom"
	"github.com/pthm-cable/maunakea/world"
)

// ErrStaleCache is returned when a cached table was built from different
// inputs than the ones requested.
var ErrStaleCache = errors.New("movement: stale table cache")

const cacheVersion = 1

type cacheFile struct {
	Version   int                  `msgpack:"v"`
	Key       Key                  `msgpack:"key"`
	OriginX   int32                `msgpack:"ox"`
	OriginY   int32                `msgpack:"oy"`
	Width     int32                `msgpack:"w"`
	Height    int32                `msgpack:"h"`
	Distances []byte               `msgpack:"dist"`
	Lethal    []geom.DirectionMask `msgpack:"lethal"`
}

// WriteCache serialises the table.
func (t *Table) WriteCache(w io.Writer) error {
	enc := msgpack.NewEncoder(w)
	err := enc.Encode(&cacheFile{
		Version:   cacheVersion,
		Key:       t.key,
		OriginX:   t.originX,
		OriginY:   t.originY,
		Width:     t.width,
		Height:    t.height,
		Distances: t.distances,
		Lethal:    t.lethal,
	})
	if err != nil {
		return fmt.Errorf("movement: encoding cache: %w", err)
	}
	return nil
}

// ReadCache decodes a table written by WriteCache. It returns ErrStaleCache
// when the stored key differs from want or the data is inconsistent.
func ReadCache(r io.Reader, want Key) (*Table, error) {
	var f cacheFile
	if err := msgpack.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("movement: decoding cache: %w", err)
	}
	if f.Version != cacheVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrStaleCache, f.Version, cacheVersion)
	}
	if f.Key != want {
		return nil, fmt.Errorf("%w: built for %+v", ErrStaleCache, f.Key)
	}
	cells := int(f.Width) * int(f.Height)
	if f.Width <= 0 || f.Height <= 0 || len(f.Distances) != cells*geom.NumDirections || len(f.Lethal) != cells {
		return nil, fmt.Errorf("%w: inconsistent dimensions %dx%d", ErrStaleCache, f.Width, f.Height)
	}
	return &Table{
		originX:   f.OriginX,
		originY:   f.OriginY,
		width:     f.Width,
		height:    f.Height,
		cap:       f.Key.Cap,
		key:       f.Key,
		distances: f.Distances,
		lethal:    f.Lethal,
	}, nil
}

// CachePath returns the file a table with the given key is cached under.
func CachePath(dir string, key Key) string {
	return filepath.Join(dir, fmt.Sprintf("table-%016x-%d.msgpack", key.Fingerprint, key.Cap))
}

// LoadOrBuild returns the cached table for w when dir holds a matching one,
// and otherwise builds the table and writes it to dir. An empty dir disables
// caching. A cache that cannot be written is logged and the built table is
// still returned.
func LoadOrBuild(ctx context.Context, dir string, w *world.World, hit, hurt geom.Rect, opts Options, logger *slog.Logger) (*Table, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		return Build(ctx, w, hit, hurt, opts)
	}

	key := Key{Fingerprint: w.Fingerprint(), Cap: opts.Cap, Hit: hit, Hurt: hurt}
	path := CachePath(dir, key)
	if f, err := os.Open(path); err == nil {
		t, err := ReadCache(f, key)
		f.Close()
		if err == nil {
			logger.Info("table_cache_hit", "path", path)
			return t, nil
		}
		logger.Warn("table_cache_rejected", "path", path, "error", err)
	}

	t, err := Build(ctx, w, hit, hurt, opts)
	if err != nil {
		return nil, err
	}
	if err := writeCacheFile(dir, path, t); err != nil {
		logger.Warn("table_cache_write_failed", "path", path, "error", err)
		return t, nil
	}
	logger.Info("table_cache_written", "path", path)
	return t, nil
}

// writeCacheFile writes t next to path and renames it into place, so a
// failed write never leaves a truncated cache behind.
func writeCacheFile(dir, path string, t *Table) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("movement: creating cache dir: %w", err)
	}
	f, err := os.CreateTemp(dir, ".table-*.tmp")
	if err != nil {
		return fmt.Errorf("movement: creating cache file: %w", err)
	}
	tmp := f.Name()
	err = t.WriteCache(f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("movement: closing cache file: %w", cerr)
	}
	if err == nil {
		if rerr := os.Rename(tmp, path); rerr != nil {
			err = fmt.Errorf("movement: installing cache file: %w", rerr)
		}
	}
	if err != nil {
		os.Remove(tmp)
	}
	return err
}
