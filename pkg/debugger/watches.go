// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package debugger

// WatchHit is the first watched access since the last Pending call.
type WatchHit struct {
	Write bool
	Addr  uint16
	Old   uint16
	Value uint16
}

// Watches are the read and write address sets checked on every memory
// access. Counts let overlapping ranges be removed independently. Watches
// is the machine's memory observer.
type Watches struct {
	read  map[uint16]int
	write map[uint16]int

	hit     WatchHit
	pending bool
}

func eachAddress(first, last uint16, fn func(addr uint16)) {
	for addr := first; ; addr++ {
		fn(addr)

		if addr == last {
			break
		}
	}
}

func (w *Watches) sets(kind BreakpointKind) []map[uint16]int {
	if w.read == nil {
		w.read = make(map[uint16]int)
		w.write = make(map[uint16]int)
	}

	switch kind {
	case KIND_WATCHPOINT:
		return []map[uint16]int{w.write}
	case KIND_RWATCHPOINT:
		return []map[uint16]int{w.read}
	case KIND_AWATCHPOINT:
		return []map[uint16]int{w.read, w.write}
	}

	return nil
}

// Add watches [first, last] for the accesses kind names.
func (w *Watches) Add(kind BreakpointKind, first, last uint16) error {
	if last < first {
		return ErrBadRange
	}

	for _, set := range w.sets(kind) {
		eachAddress(first, last, func(addr uint16) {
			set[addr]++
		})
	}

	return nil
}

// Remove undoes one Add of the same range.
func (w *Watches) Remove(kind BreakpointKind, first, last uint16) {
	if last < first {
		return
	}

	for _, set := range w.sets(kind) {
		eachAddress(first, last, func(addr uint16) {
			if set[addr] <= 1 {
				delete(set, addr)
			} else {
				set[addr]--
			}
		})
	}
}

// Clear stops watching [first, last] for any access.
func (w *Watches) Clear(first, last uint16) error {
	if last < first {
		return ErrBadRange
	}

	for _, set := range w.sets(KIND_AWATCHPOINT) {
		eachAddress(first, last, func(addr uint16) {
			delete(set, addr)
		})
	}

	return nil
}

func (w *Watches) Contains(addr uint16, write bool) bool {
	if write {
		return w.write[addr] > 0
	}

	return w.read[addr] > 0
}

func (w *Watches) ObserveRead(addr, value uint16) {
	if !w.pending && w.read[addr] > 0 {
		w.hit = WatchHit{Addr: addr, Old: value, Value: value}
		w.pending = true
	}
}

func (w *Watches) ObserveWrite(addr, old, value uint16) {
	if !w.pending && w.write[addr] > 0 {
		w.hit = WatchHit{Write: true, Addr: addr, Old: old, Value: value}
		w.pending = true
	}
}

// Pending consumes the recorded hit.
func (w *Watches) Pending() (WatchHit, bool) {
	if !w.pending {
		return WatchHit{}, false
	}

	w.pending = false
	return w.hit, true
}
