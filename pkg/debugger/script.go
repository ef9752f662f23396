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
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/lassandro/lc3db/pkg/source"
)

// RunScript runs a file of commands. Files ending in .star are Starlark
// programs; anything else holds one command per line, with # comments.
func (s *Session) RunScript(path string) error {
	if filepath.Ext(path) == ".star" {
		return s.runStarlark(path)
	}

	file, err := os.Open(path)

	if err != nil {
		return err
	}

	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineno := 0

	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := s.Execute(line); err != nil {
			if errors.Is(err, ErrQuit) {
				return err
			}

			return fmt.Errorf("%s:%d: %w", path, lineno, err)
		}
	}

	// A script's last command is not repeated by an empty line
	s.lastCommand = ""
	return scanner.Err()
}

func (s *Session) runStarlark(path string) error {
	src, err := os.ReadFile(path)

	if err != nil {
		return err
	}

	thread := starlark.Thread{
		Name: path,
		Print: func(_ *starlark.Thread, msg string) {
			s.printf("%s\n", msg)
		},
	}

	opts := syntax.FileOptions{}
	pred := starlark.StringDict{
		"execute":  starlark.NewBuiltin("execute", s.starExecute),
		"register": starlark.NewBuiltin("register", s.starRegister),
		"memory":   starlark.NewBuiltin("memory", s.starMemory),
		"symbol":   starlark.NewBuiltin("symbol", s.starSymbol),
		"location": starlark.NewBuiltin("location", s.starLocation),
	}

	_, err = starlark.ExecFileOptions(&opts, &thread, path, src, pred)
	s.lastCommand = ""
	return err
}

// execute(cmd) runs a debugger command.
func (s *Session) starExecute(
	thread *starlark.Thread,
	b *starlark.Builtin,
	args starlark.Tuple,
	kwargs []starlark.Tuple,
) (starlark.Value, error) {
	var line string

	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &line); err != nil {
		return nil, err
	}

	if err := s.Execute(line); err != nil {
		return nil, err
	}

	return starlark.None, nil
}

// register(name[, value]) reads or writes R0-R7, PC or PSR.
func (s *Session) starRegister(
	thread *starlark.Thread,
	b *starlark.Builtin,
	args starlark.Tuple,
	kwargs []starlark.Tuple,
) (starlark.Value, error) {
	var name string
	var value starlark.Value

	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name, &value); err != nil {
		return nil, err
	}

	reg, ok := s.register(name)

	if !ok {
		return nil, fmt.Errorf("%s: %w", b.Name(), SymbolError(name))
	}

	if value != nil {
		word, err := starWord(b, value)

		if err != nil {
			return nil, err
		}

		*reg = word
		s.invalidate()
	}

	return starlark.MakeInt(int(*reg)), nil
}

// memory(addr[, value]) reads or writes a word without triggering watches.
func (s *Session) starMemory(
	thread *starlark.Thread,
	b *starlark.Builtin,
	args starlark.Tuple,
	kwargs []starlark.Tuple,
) (starlark.Value, error) {
	var addr, value starlark.Value

	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &addr, &value); err != nil {
		return nil, err
	}

	word, err := starWord(b, addr)

	if err != nil {
		return nil, err
	}

	mem := &s.Machine.Memory

	if value != nil {
		v, err := starWord(b, value)

		if err != nil {
			return nil, err
		}

		mem.Poke(word, v)
		s.invalidate()
	}

	return starlark.MakeInt(int(mem.Peek(word))), nil
}

// symbol(name) is the address of a label, or None.
func (s *Session) starSymbol(
	thread *starlark.Thread,
	b *starlark.Builtin,
	args starlark.Tuple,
	kwargs []starlark.Tuple,
) (starlark.Value, error) {
	var name string

	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name); err != nil {
		return nil, err
	}

	if addr, ok := s.Source.Lookup(name); ok {
		return starlark.MakeInt(int(addr)), nil
	}

	return starlark.None, nil
}

// location([addr]) is the (file, line) an address comes from, or None.
func (s *Session) starLocation(
	thread *starlark.Thread,
	b *starlark.Builtin,
	args starlark.Tuple,
	kwargs []starlark.Tuple,
) (starlark.Value, error) {
	var addr starlark.Value

	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0, &addr); err != nil {
		return nil, err
	}

	pc := s.Machine.CPU.PC

	if addr != nil {
		word, err := starWord(b, addr)

		if err != nil {
			return nil, err
		}

		pc = word
	}

	loc, ok := s.Source.FindLocation(pc, source.STYLE_SHORT)

	if !ok {
		return starlark.None, nil
	}

	return starlark.Tuple{starlark.String(loc.Path), starlark.MakeInt(loc.Line)}, nil
}

func starWord(b *starlark.Builtin, v starlark.Value) (uint16, error) {
	i, ok := v.(starlark.Int)

	if !ok {
		return 0, fmt.Errorf("%s: got %s, want int", b.Name(), v.Type())
	}

	i64, ok := i.Int64()

	if !ok || i64 < -0x8000 || i64 > 0xFFFF {
		return 0, fmt.Errorf("%s: %s out of range", b.Name(), i)
	}

	return uint16(i64), nil
}
