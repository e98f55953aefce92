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

package subgridutil

import (
	"fmt"
	"sync"

	"github.com/gosuri/uiprogress"
)

// progressBar starts a terminal progress bar labeled with label.
// The returned function reports progress and the bar stops once
// done == total.
func progressBar(label string) func(done, total int) {
	var (
		bar  *uiprogress.Bar
		once sync.Once
	)
	return func(done, total int) {
		once.Do(func() {
			uiprogress.Start()
			bar = uiprogress.AddBar(total).AppendCompleted().PrependElapsed()
			bar.PrependFunc(func(b *uiprogress.Bar) string {
				return fmt.Sprintf("%s (%d/%d)", label, b.Current(), total)
			})
		})
		bar.Set(done)
		if done >= total {
			uiprogress.Stop()
		}
	}
}
