package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-kit/kit/log"
)

// Extension is the file extension of scenario databases.
const Extension = ".sqlite"

var (
	// ErrNoCurrentConnection is used when no scenario database is open.
	ErrNoCurrentConnection = errors.New("no current database connection, create or load a database first")

	// ErrDatabaseExists is used when creating a database that is already there.
	ErrDatabaseExists = errors.New("database already exists")

	// ErrUnknownDatabase is used when loading a database that does not exist.
	ErrUnknownDatabase = errors.New("unknown database")

	// ErrInvalidName is used for database names that are empty or contain a path.
	ErrInvalidName = errors.New("invalid database name")
)

// State of the chooser's connection.
type State int

// Connection states
const (
	Closed State = iota
	Opened
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Opened:
		return "open"
	}
	return ""
}

// Chooser keeps one scenario database per file in a directory and holds
// at most one of them open.
type Chooser struct {
	mtx     sync.RWMutex
	dir     string
	logger  log.Logger
	state   State
	current *Store
}

// NewChooser returns a chooser over the databases in dir.
func NewChooser(dir string, logger log.Logger) *Chooser {
	return &Chooser{dir: dir, logger: logger}
}

// List returns the names of all databases in the directory, sorted.
func (c *Chooser) List() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite.Chooser.List: %w", err)
	}

	names := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), Extension) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Create creates a new database, migrates it and makes it current.
func (c *Chooser) Create(ctx context.Context, name string) error {
	path, err := c.path(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrDatabaseExists, name)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("sqlite.Chooser.Create: %w", err)
	}
	return c.open(ctx, path)
}

// Load opens an existing database, migrates it and makes it current.
func (c *Chooser) Load(ctx context.Context, name string) error {
	path, err := c.path(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrUnknownDatabase, name)
	}
	return c.open(ctx, path)
}

// Close closes the current database.
func (c *Chooser) Close() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.closeCurrent()
}

// Current returns the open database.
func (c *Chooser) Current() (*Store, error) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	if c.state != Opened {
		return nil, ErrNoCurrentConnection
	}
	return c.current, nil
}

// State reports whether a database is open.
func (c *Chooser) State() State {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.state
}

// use runs fn against the open database. The database is not switched or
// closed while fn runs.
func (c *Chooser) use(fn func(*Store) error) error {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	if c.state != Opened {
		return ErrNoCurrentConnection
	}
	return fn(c.current)
}

// open replaces the current database with the one at path.
func (c *Chooser) open(ctx context.Context, path string) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.state == Opened {
		if err := c.closeCurrent(); err != nil {
			return err
		}
	}

	s, err := Open(ctx, path, c.logger)
	if err != nil {
		return err
	}
	c.current = s
	c.state = Opened
	c.logger.Log("msg", "database opened", "path", path)
	return nil
}

func (c *Chooser) closeCurrent() error {
	if c.state != Opened {
		return ErrNoCurrentConnection
	}
	err := c.current.Close()
	c.current = nil
	c.state = Closed
	if err != nil {
		return fmt.Errorf("sqlite.Chooser.Close: %w", err)
	}
	return nil
}

func (c *Chooser) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if !strings.HasSuffix(name, Extension) {
		name += Extension
	}
	return filepath.Join(c.dir, name), nil
}
