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
along with subgrid.  If not, see <http://www.gnu.org/licenses/>.*/

// Package hash computes content keys for caching and for stamping
// table containers with the inputs they were built from.
package hash

import (
	"encoding/gob"
	"fmt"
	"hash"
	"hash/fnv"
	"os"
	"reflect"

	"github.com/davecgh/go-spew/spew"
)

// Hash returns a hash key for the specified objects.
// Objects that gob cannot encode, such as nil pointers,
// are printed with spew instead.
func Hash(objects ...interface{}) string {
	h := fnv.New128a()
	for _, o := range objects {
		if v := reflect.ValueOf(o); !v.IsValid() || (v.Kind() == reflect.Ptr && v.IsNil()) {
			return spewHash(fnv.New128a(), objects)
		}
	}
	e := gob.NewEncoder(h)
	for _, o := range objects {
		if err := e.Encode(o); err != nil {
			return spewHash(fnv.New128a(), objects)
		}
	}
	return sum(h)
}

func spewHash(h hash.Hash, objects []interface{}) string {
	printer := spew.ConfigState{
		Indent:                  " ",
		SortKeys:                true,
		DisableMethods:          true,
		SpewKeys:                true,
		DisablePointerAddresses: true,
		DisableCapacities:       true,
	}
	for _, o := range objects {
		printer.Fprintf(h, "%#v", o)
	}
	return sum(h)
}

func sum(h hash.Hash) string {
	bKey := h.Sum([]byte{})
	return fmt.Sprintf("%x", bKey[0:h.Size()])
}

// File returns a hash key identifying the current version of the
// file at path by its name, size and modification time.
func File(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("hash: %v", err)
	}
	return Hash(path, fi.Size(), fi.ModTime().UnixNano()), nil
}
