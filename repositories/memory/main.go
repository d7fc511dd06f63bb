// Package memory is an in-process Store used by tests and single-node runs.
package memory

import (
	"bytes"
	"context"
	"sync"

	"gohan/allelecounts/models/ingest/structs"
	"gohan/allelecounts/repositories"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Store struct {
	mux  sync.RWMutex
	rows map[string]map[string][]byte
	// row keys, kept sorted
	keys []string
}

func NewStore() *Store {
	return &Store{rows: map[string]map[string][]byte{}}
}

func (s *Store) Get(ctx context.Context, key structs.RowKey) (*repositories.Row, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	return s.row(key, key.String()), nil
}

func (s *Store) Append(ctx context.Context, key structs.RowKey, qualifier string, value []byte) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	cells := s.cells(key.String())
	cells[qualifier] = append(cells[qualifier], value...)
	return nil
}

func (s *Store) Apply(ctx context.Context, writes []structs.StoreWrite) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	for _, w := range writes {
		if err := ctx.Err(); err != nil {
			return err
		}
		cells := s.cells(w.Row.String())
		for _, c := range w.Cells {
			cells[c.Qualifier] = append(cells[c.Qualifier], c.Value...)
		}
	}
	return nil
}

func (s *Store) CompareAndPut(ctx context.Context, key structs.RowKey, qualifier string, expected []byte, value []byte) (bool, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	if !bytes.Equal(s.rows[key.String()][qualifier], expected) {
		return false, nil
	}
	s.cells(key.String())[qualifier] = slices.Clone(value)
	return true, nil
}

func (s *Store) Scan(ctx context.Context, from structs.RowKey, to structs.RowKey) ([]repositories.Row, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	lower, upper := from.String(), to.String()
	start, _ := slices.BinarySearch(s.keys, lower)

	rows := []repositories.Row{}
	for _, k := range s.keys[start:] {
		if k > upper {
			break
		}
		key, err := structs.ParseRowKey(k)
		if err != nil {
			return nil, err
		}
		rows = append(rows, *s.row(key, k))
	}
	return rows, nil
}

func (s *Store) Chromosomes(ctx context.Context) ([]string, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	seen := map[string]struct{}{}
	for _, k := range s.keys {
		key, err := structs.ParseRowKey(k)
		if err != nil {
			return nil, err
		}
		seen[key.Chromosome] = struct{}{}
	}
	chromosomes := maps.Keys(seen)
	slices.Sort(chromosomes)
	return chromosomes, nil
}

// row copies the stored cells so callers never alias the store
func (s *Store) row(key structs.RowKey, k string) *repositories.Row {
	row := &repositories.Row{Key: key, Cells: map[string][]byte{}}
	for q, v := range s.rows[k] {
		row.Cells[q] = slices.Clone(v)
	}
	return row
}

func (s *Store) cells(k string) map[string][]byte {
	cells, ok := s.rows[k]
	if !ok {
		cells = map[string][]byte{}
		s.rows[k] = cells
		i, _ := slices.BinarySearch(s.keys, k)
		s.keys = slices.Insert(s.keys, i, k)
	}
	return cells
}
