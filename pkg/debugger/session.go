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

import (
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/lassandro/lc3db/pkg/machine"
	"github.com/lassandro/lc3db/pkg/source"
)

type Config struct {
	// Suppress banners and per-stop disassembly
	Quiet bool
	// Print \x1a\x1a markers for front ends instead of source lines
	Fullname bool
	// Operating system object loaded at start and on every run
	OSImage string
}

// Terminal switches the console between line editing for commands and raw
// keystrokes for the simulated program.
type Terminal interface {
	ProgramMode() error
	CommandMode() error
}

// Session is one debugging session: the machine, what is known about the
// loaded programs, and the user's breakpoints and displays.
type Session struct {
	Machine     *machine.Machine
	Source      *source.Info
	Breakpoints Breakpoints
	Watches     Watches
	Config      Config

	Out      io.Writer
	Log      *log.Logger
	Terminal Terminal

	// Why the last execution command stopped
	LastStop StopReason

	programs []string
	entry    uint16
	osLoaded bool

	frames      []Frame
	framesPC    uint16
	framesValid bool
	selected    int

	displays    []*display
	lastDisplay int

	listFile string
	listLine int
	sources  map[string][]string

	lastCommand string
	interrupted atomic.Bool

	// Device bound by the tty command
	tty *os.File
}

func NewSession(mc *machine.Machine, out io.Writer, config Config) *Session {
	s := &Session{
		Machine: mc,
		Source:  source.NewInfo(),
		Config:  config,
		Out:     out,
		Log:     log.New(os.Stderr, "lc3db: ", 0),
	}

	mc.Memory.Observer = &s.Watches

	if config.OSImage != "" {
		if err := s.loadOS(true); err != nil {
			s.Log.Println(err)
		}
	}

	return s
}

// Interrupt asks the running simulation to stop at the next instruction
// boundary. It is safe to call from a signal handler goroutine.
func (s *Session) Interrupt() {
	s.interrupted.Store(true)
}

func debugPath(object string) string {
	return strings.TrimSuffix(object, filepath.Ext(object)) + ".dbg"
}

// loadDebug reads the debug file next to object, if there is one.
func (s *Session) loadDebug(object string, resetHLL bool) {
	path := debugPath(object)
	file, err := os.Open(path)

	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.Log.Println(err)
		}
		return
	}

	defer file.Close()

	if resetHLL {
		s.Source.ResetHLL()
	}

	for _, err := range source.ParseDebug(file, s.Source) {
		s.Log.Printf("%s: %v", path, err)
	}
}

func (s *Session) loadOS(withDebug bool) error {
	if _, err := s.Machine.LoadFile(s.Config.OSImage); err != nil {
		return err
	}

	if !s.Config.Quiet && withDebug {
		s.printf("Loading %s\n", s.Config.OSImage)
	}

	if withDebug {
		s.loadDebug(s.Config.OSImage, false)
	}

	s.osLoaded = true
	return nil
}

func (s *Session) invalidate() {
	s.framesValid = false
	s.selected = 0
}

// Load places an object file in memory with its debug information and
// points the PC at it.
func (s *Session) Load(path string) error {
	origin, err := s.Machine.LoadFile(path)

	if err != nil {
		return err
	}

	s.loadDebug(path, true)
	s.sources = nil

	found := false
	for _, program := range s.programs {
		if program == path {
			found = true
			break
		}
	}

	if !found {
		s.programs = append(s.programs, path)
	}

	s.entry = origin
	s.Machine.CPU.PC = origin
	s.Machine.SetRunning(true)
	s.invalidate()

	s.printLocation()
	return nil
}

// restart reloads memory the way a fresh process would see it and picks the
// start address: the operating system entry when one is loaded, otherwise
// the last loaded program.
func (s *Session) restart() error {
	if !s.osLoaded && len(s.programs) == 0 {
		return ErrNoProgram
	}

	mc := s.Machine
	mc.Reset()

	if s.osLoaded {
		if err := s.loadOS(false); err != nil {
			return err
		}
	}

	for _, program := range s.programs {
		if _, err := mc.LoadFile(program); err != nil {
			return err
		}
	}

	if s.osLoaded {
		mc.CPU.PC = mc.Memory.Peek(machine.MEMSPACE_OS_ENTRY)
	} else {
		mc.CPU.PC = s.entry
	}

	mc.SetRunning(true)
	s.Watches.Pending()
	s.interrupted.Store(false)
	s.invalidate()
	return nil
}

// Close releases the terminal device bound by tty, if any.
func (s *Session) Close() error {
	if s.tty == nil {
		return nil
	}

	err := s.tty.Close()
	s.tty = nil
	return err
}
