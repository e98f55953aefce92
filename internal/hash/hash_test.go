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

package hash

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestHash(t *testing.T) {
	type point struct{ X, Y float64 }
	a := Hash([]point{{X: 1, Y: 2}}, 3)
	if b := Hash([]point{{X: 1, Y: 2}}, 3); a != b {
		t.Errorf("equal inputs have different hashes %s and %s", a, b)
	}
	if b := Hash([]point{{X: 1, Y: 2}}, 4); a == b {
		t.Errorf("different inputs have the same hash %s", a)
	}
	if len(a) != 32 {
		t.Errorf("hash %s has length %d, want 32", a, len(a))
	}
}

func TestHashNil(t *testing.T) {
	type point struct{ X, Y float64 }
	var p *point
	h := Hash(p, 1)
	if len(h) != 32 {
		t.Errorf("nil pointer hash %q has length %d, want 32", h, len(h))
	}
	if h2 := Hash(p, 1); h2 != h {
		t.Errorf("equal inputs have different hashes %s and %s", h, h2)
	}
	if h2 := Hash(&point{X: 1}, 1); h2 == h {
		t.Errorf("nil and non-nil pointers have the same hash %s", h)
	}
	if h2 := Hash(nil); len(h2) != 32 {
		t.Errorf("nil hash %q has length %d, want 32", h2, len(h2))
	}
}

func TestFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "hash")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "f.txt")
	if err = ioutil.WriteFile(path, []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}
	h1, err := File(path)
	if err != nil {
		t.Fatal(err)
	}
	if err = ioutil.WriteFile(path, []byte("ab"), 0644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(time.Hour)
	if err = os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}
	h2, err := File(path)
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 {
		t.Error("a modified file should have a different hash")
	}
	if _, err = File(filepath.Join(dir, "missing")); err == nil {
		t.Error("a missing file should fail")
	}
}
