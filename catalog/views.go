package catalog

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

var viewPrefix = []byte("view/")

// Views stores view definitions, the query text of every view keyed by the
// view name, inside of a pebble database. An empty dir keeps the database in
// memory.
type Views struct {
	db *pebble.DB
}

func OpenViews(dir string) (*Views, error) {
	opts := &pebble.Options{}
	path := dir
	if dir == "" {
		opts.FS = vfs.NewMem()
		path = "views"
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("open view store: %w", err)
	}
	return &Views{
		db: db,
	}, nil
}

func viewKey(name string) []byte {
	key := make([]byte, 0, len(viewPrefix)+len(name))
	key = append(key, viewPrefix...)
	return append(key, name...)
}

func (self *Views) Get(name string) (string, bool, error) {
	value, closer, err := self.db.Get(viewKey(name))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("view store get: %w", err)
	}
	defer closer.Close()
	return string(value), true, nil
}

func (self *Views) Set(name, def string) error {
	if err := self.db.Set(viewKey(name), []byte(def), pebble.Sync); err != nil {
		return fmt.Errorf("view store set: %w", err)
	}
	return nil
}

// Names returns the name of every stored view, in key order
func (self *Views) Names() ([]string, error) {
	upper := append([]byte{}, viewPrefix...)
	upper[len(upper)-1]++

	iter, err := self.db.NewIter(&pebble.IterOptions{
		LowerBound: viewPrefix,
		UpperBound: upper,
	})
	if err != nil {
		return nil, fmt.Errorf("view store iterate: %w", err)
	}
	defer iter.Close()

	out := []string{}
	for iter.First(); iter.Valid(); iter.Next() {
		out = append(out, string(iter.Key()[len(viewPrefix):]))
	}
	return out, iter.Error()
}

func (self *Views) Close() error {
	return self.db.Close()
}
