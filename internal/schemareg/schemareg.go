// Package schemareg memoizes parsed record schemas. Converters are rebuilt
// per task partition while catalogs reference the same handful of schemas,
// so parsing is cached process-wide keyed by the schema document itself.
package schemareg

import (
	"errors"
	"fmt"

	rc "github.com/dgraph-io/ristretto"
	"github.com/hamba/avro/v2"
)

type Registry struct {
	c *rc.Cache
}

type Config struct {
	NumCounters int64
	MaxCost     int64 // total cached schema-document bytes
	BufferItems int64
}

func New(cfg Config) (*Registry, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("schemareg: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &Registry{c: c}, nil
}

// Parse returns the parsed form of doc, consulting the cache first.
// Cost is the document length so MaxCost bounds resident schema text.
func (r *Registry) Parse(doc string) (avro.Schema, error) {
	if v, ok := r.c.Get(doc); ok {
		if s, ok := v.(avro.Schema); ok {
			return s, nil
		}
		// unexpected entry shape: drop and reparse
		r.c.Del(doc)
	}
	s, err := avro.Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("schemareg: parse schema: %w", err)
	}
	r.c.Set(doc, s, int64(len(doc)))
	return s, nil
}

func (r *Registry) Close() {
	r.c.Wait()
	r.c.Close()
}

// shared process-wide instance; sized for a few hundred distinct schemas.
var std = func() *Registry {
	r, err := New(Config{NumCounters: 1e4, MaxCost: 8 << 20, BufferItems: 64})
	if err != nil {
		panic(err)
	}
	return r
}()

// Parse parses doc through the process-wide registry.
func Parse(doc string) (avro.Schema, error) { return std.Parse(doc) }
