// Package querycache memoizes lookup queries for one resolution run.
//
// Each entity kind gets its own Cache instance, constructed when the run
// starts and discarded (or cleared) when it ends. The cache is deliberately
// unsynchronized: the pipeline is single-writer and single-pass, and a cache
// must never be shared across concurrently running resolvers. Writes do not
// invalidate anything automatically; a caller that changes a previously
// cached result set clears the cache itself.
package querycache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Queryer is the slice of sqlx the cache needs to execute a miss.
type Queryer interface {
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
}

type Cache struct {
	entries map[string][]map[string]any
	hits    int
	misses  int
}

func New() *Cache {
	return &Cache{entries: make(map[string][]map[string]any)}
}

// Rows returns the materialized result of (query, args, discriminator),
// executing the query at most once per distinct triple. The key covers the
// full contents of every argument: two lookups that differ only in a bound
// parameter never share an entry.
func (c *Cache) Rows(ctx context.Context, q Queryer, query string, args []any, discriminator string) ([]map[string]any, error) {
	key := cacheKey(query, args, discriminator)
	if cached, ok := c.entries[key]; ok {
		c.hits++
		return cached, nil
	}

	rows, err := q.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cache miss execute: %w", err)
	}
	defer rows.Close()

	out := make([]map[string]any, 0, 4)
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("query cache scan row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query cache iterate rows: %w", err)
	}

	c.misses++
	c.entries[key] = out
	return out, nil
}

// Clear drops every entry. Callers invoke it after any write that could
// change a previously cached result set.
func (c *Cache) Clear() {
	c.entries = make(map[string][]map[string]any)
}

func (c *Cache) Len() int {
	return len(c.entries)
}

// Stats reports hit and miss counts since construction.
func (c *Cache) Stats() (hits, misses int) {
	return c.hits, c.misses
}

func cacheKey(query string, args []any, discriminator string) string {
	h := sha256.New()
	h.Write([]byte(query))
	for _, arg := range args {
		// %#v renders full value contents, so equal-length argument lists
		// with different values always hash apart.
		fmt.Fprintf(h, "|%#v", arg)
	}
	h.Write([]byte("|"))
	h.Write([]byte(discriminator))
	return hex.EncodeToString(h.Sum(nil))
}
