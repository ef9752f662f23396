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

type BreakpointKind int

const (
	KIND_BREAKPOINT BreakpointKind = iota
	KIND_WATCHPOINT
	KIND_RWATCHPOINT
	KIND_AWATCHPOINT
)

func (kind BreakpointKind) String() string {
	switch kind {
	case KIND_WATCHPOINT:
		return "hw watchpoint"
	case KIND_RWATCHPOINT:
		return "read watchpoint"
	case KIND_AWATCHPOINT:
		return "acc watchpoint"
	}

	return "breakpoint"
}

type Disposition int

const (
	DISP_KEEP Disposition = iota
	DISP_DISABLE
	DISP_DELETE
)

func (disp Disposition) String() string {
	switch disp {
	case DISP_DISABLE:
		return "dis"
	case DISP_DELETE:
		return "del"
	}

	return "keep"
}

type Breakpoint struct {
	ID          int
	Kind        BreakpointKind
	Address     uint16
	Enabled     bool
	Disposition Disposition
	Ignore      int
	Hits        int

	// Last address of a watch range
	Last uint16

	// Source position shown in listings, Line is 0 when unknown
	File string
	Line int
}

// Breakpoints holds at most one breakpoint per address. Addresses with an
// enabled breakpoint are mirrored in a set so Check is a single lookup for
// the common case.
type Breakpoints struct {
	list    []*Breakpoint
	enabled map[uint16]struct{}
	lastID  int
}

func (bps *Breakpoints) index(id int) int {
	for i, bp := range bps.list {
		if bp.ID == id {
			return i
		}
	}

	return -1
}

func (bps *Breakpoints) enable(bp *Breakpoint, enable bool) {
	if bps.enabled == nil {
		bps.enabled = make(map[uint16]struct{})
	}

	bp.Enabled = enable

	if bp.Kind != KIND_BREAKPOINT {
		return
	}

	if enable {
		bps.enabled[bp.Address] = struct{}{}
	} else {
		delete(bps.enabled, bp.Address)
	}
}

// Add places a breakpoint at addr. Temporary breakpoints are deleted when
// hit.
func (bps *Breakpoints) Add(addr uint16, temporary bool) (*Breakpoint, error) {
	if bp, ok := bps.Find(addr); ok {
		return nil, &DuplicateError{Address: addr, ID: bp.ID}
	}

	bps.lastID++

	bp := &Breakpoint{
		ID:      bps.lastID,
		Kind:    KIND_BREAKPOINT,
		Address: addr,
	}

	if temporary {
		bp.Disposition = DISP_DELETE
	}

	bps.list = append(bps.list, bp)
	bps.enable(bp, true)
	return bp, nil
}

// AddWatch registers a watch range for listing and id based control. The
// addresses themselves are tracked by Watches.
func (bps *Breakpoints) AddWatch(kind BreakpointKind, first, last uint16) *Breakpoint {
	bps.lastID++

	bp := &Breakpoint{
		ID:      bps.lastID,
		Kind:    kind,
		Address: first,
		Last:    last,
		Enabled: true,
	}

	bps.list = append(bps.list, bp)
	return bp
}

// Find returns the address breakpoint at addr, enabled or not.
func (bps *Breakpoints) Find(addr uint16) (*Breakpoint, bool) {
	for _, bp := range bps.list {
		if bp.Kind == KIND_BREAKPOINT && bp.Address == addr {
			return bp, true
		}
	}

	return nil, false
}

func (bps *Breakpoints) Get(id int) (*Breakpoint, bool) {
	if i := bps.index(id); i != -1 {
		return bps.list[i], true
	}

	return nil, false
}

// Delete removes the breakpoint and returns it.
func (bps *Breakpoints) Delete(id int) (*Breakpoint, error) {
	i := bps.index(id)

	if i == -1 {
		return nil, NoBreakpointError(id)
	}

	bp := bps.list[i]
	bps.enable(bp, false)
	bps.list = append(bps.list[:i], bps.list[i+1:]...)
	return bp, nil
}

func (bps *Breakpoints) SetEnabled(id int, enable bool) (*Breakpoint, error) {
	bp, ok := bps.Get(id)

	if !ok {
		return nil, NoBreakpointError(id)
	}

	bps.enable(bp, enable)
	return bp, nil
}

// EnableWith enables the breakpoint and sets what happens on its next hit.
func (bps *Breakpoints) EnableWith(id int, disp Disposition) (*Breakpoint, error) {
	bp, err := bps.SetEnabled(id, true)

	if err != nil {
		return nil, err
	}

	bp.Disposition = disp
	return bp, nil
}

// SetIgnoreCount makes the next n hits of the breakpoint not stop.
func (bps *Breakpoints) SetIgnoreCount(id int, n int) error {
	bp, ok := bps.Get(id)

	if !ok {
		return NoBreakpointError(id)
	}

	if n < 0 {
		n = 0
	}

	bp.Ignore = n
	return nil
}

// Check is called before every instruction. It reports a copy of the
// breakpoint that stops execution at addr after counting the hit and
// applying its disposition.
func (bps *Breakpoints) Check(addr uint16) (Breakpoint, bool) {
	if _, ok := bps.enabled[addr]; !ok {
		return Breakpoint{}, false
	}

	bp, ok := bps.Find(addr)

	if !ok || !bp.Enabled {
		return Breakpoint{}, false
	}

	bp.Hits++

	if bp.Ignore > 0 {
		bp.Ignore--
		return Breakpoint{}, false
	}

	hit := *bp

	switch bp.Disposition {
	case DISP_DISABLE:
		bps.enable(bp, false)
	case DISP_DELETE:
		bps.Delete(bp.ID)
	}

	return hit, true
}

// List returns every breakpoint and watchpoint in creation order.
func (bps *Breakpoints) List() []*Breakpoint {
	return bps.list
}

func (bps *Breakpoints) Len() int {
	return len(bps.list)
}
