package schema

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Cache persists a built dictionary so the rule tables only need to be
// parsed when they change. Definitions are stored as JSON blobs keyed by
// name, one table per dictionary.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (and if needed initializes) the cache database at path.
func OpenCache(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS entities (
		name TEXT PRIMARY KEY,
		def TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create entities table: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS types (
		name TEXT PRIMARY KEY,
		def TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create types table: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error { return c.db.Close() }

// Store replaces the cached dictionary with d in a single transaction.
func (c *Cache) Store(d *Dict) (retErr error) {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, table := range []string{"entities", "types"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			retErr = fmt.Errorf("clear %s: %w", table, err)
			return retErr
		}
	}
	for name, e := range d.Entities {
		data, err := json.Marshal(e)
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err := tx.Exec(`INSERT INTO entities(name,def) VALUES(?,?)`, name, data); err != nil {
			retErr = fmt.Errorf("insert entity %s: %w", name, err)
			return retErr
		}
	}
	for name, t := range d.Types {
		data, err := json.Marshal(t)
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err := tx.Exec(`INSERT INTO types(name,def) VALUES(?,?)`, name, data); err != nil {
			retErr = fmt.Errorf("insert type %s: %w", name, err)
			return retErr
		}
	}
	return tx.Commit()
}

// Load reads the cached dictionary. An empty cache yields an empty Dict.
func (c *Cache) Load() (*Dict, error) {
	d := NewDict()

	rows, err := c.db.Query(`SELECT name, def FROM entities`)
	if err != nil {
		return nil, fmt.Errorf("select entities: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var def []byte
		if err := rows.Scan(&name, &def); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		e := &Entity{}
		if err := json.Unmarshal(def, e); err != nil {
			return nil, fmt.Errorf("decode entity %s: %w", name, err)
		}
		d.Entities[name] = e
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	trows, err := c.db.Query(`SELECT name, def FROM types`)
	if err != nil {
		return nil, fmt.Errorf("select types: %w", err)
	}
	defer trows.Close()
	for trows.Next() {
		var name string
		var def []byte
		if err := trows.Scan(&name, &def); err != nil {
			return nil, fmt.Errorf("scan type: %w", err)
		}
		t := &TypeDef{}
		if err := json.Unmarshal(def, t); err != nil {
			return nil, fmt.Errorf("decode type %s: %w", name, err)
		}
		d.Types[name] = t
	}
	if err := trows.Err(); err != nil {
		return nil, err
	}

	return d, nil
}
