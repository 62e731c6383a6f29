package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

var ErrNoSnapshot = errors.New("no snapshot")

// Store is a durable slot holding the latest encoded snapshot.
type Store interface {
	Save(data []byte) error
	Load() ([]byte, error)
	Close() error
}

// FileStore keeps the snapshot in a single file. Writes go to a temporary
// file renamed over the previous snapshot, so a crash never leaves a
// half-written document behind.
type FileStore struct {
	fs   afero.Fs
	path string
}

func NewFileStore(fs afero.Fs, path string) (*FileStore, error) {
	if err := fs.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("could not create snapshot directory: %w", err)
	}
	return &FileStore{fs: fs, path: path}, nil
}

func (s *FileStore) Save(data []byte) error {
	tmp, err := afero.TempFile(s.fs, filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("could not create temporary snapshot: %w", err)
	}
	defer s.fs.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("could not write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("could not sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close snapshot: %w", err)
	}
	if err := s.fs.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("could not replace snapshot: %w", err)
	}
	return nil
}

func (s *FileStore) Load() ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	return data, err
}

func (s *FileStore) Close() error {
	return nil
}

var snapshotKey = []byte("snapshot")

// LevelDBStore keeps the snapshot under a single key of a leveldb database.
type LevelDBStore struct {
	db *leveldb.DB
}

func NewLevelDBStore(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{
		Filter:          filter.NewBloomFilter(10),
		BlockCacher:     opt.NoCacher,
		OpenFilesCacher: opt.NoCacher,
	})
	if err != nil {
		return nil, fmt.Errorf("could not open leveldb at %s: %w", path, err)
	}
	return &LevelDBStore{db: db}, nil
}

func (s *LevelDBStore) Save(data []byte) error {
	return s.db.Put(snapshotKey, data, &opt.WriteOptions{Sync: true})
}

func (s *LevelDBStore) Load() ([]byte, error) {
	data, err := s.db.Get(snapshotKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNoSnapshot
	}
	return data, err
}

func (s *LevelDBStore) Close() error {
	return s.db.Close()
}

// NewStore opens the backend selected by cfg. Relative paths are resolved
// from home.
func NewStore(home string, cfg Config) (Store, error) {
	path := cfg.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(home, path)
	}
	switch cfg.Backend {
	case BackendFile, "":
		return NewFileStore(afero.NewOsFs(), path)
	case BackendLevelDB:
		return NewLevelDBStore(path)
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Backend)
	}
}
