/*
Copyright © 2026 the subgrid authors.
This file is part of subgrid.

subgrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

subgrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with subgrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package subgrid

import (
	"context"
	"runtime"

	"github.com/ctessum/requestcache"
	"github.com/flowmap/subgrid/internal/hash"
)

// TableCache loads table containers, keeping up to a fixed number of
// them in memory. Concurrent requests for the same file are loaded once.
// It is safe for concurrent use. The returned Tables are shared and
// must not be modified.
type TableCache struct {
	c *requestcache.Cache
}

// NewTableCache returns a cache holding up to size table sets.
func NewTableCache(size int) *TableCache {
	return &TableCache{
		c: requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
			return LoadTables(request.(string))
		}, runtime.GOMAXPROCS(-1),
			requestcache.Deduplicate(), requestcache.Memory(size)),
	}
}

// Load returns the tables stored at path. A file that has changed since
// it was last loaded is read again.
func (tc *TableCache) Load(ctx context.Context, path string) (Tables, error) {
	key, err := hash.File(path)
	if err != nil {
		return nil, err
	}
	result, err := tc.c.NewRequest(ctx, path, key).Result()
	if err != nil {
		return nil, err
	}
	return result.(Tables), nil
}

// Loads returns the number of times a table container has been read
// from disk rather than served from memory.
func (tc *TableCache) Loads() int {
	r := tc.c.Requests()
	return r[len(r)-1]
}
