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

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// console owns the controlling terminal. Commands are read with line
// editing and history; while the program runs, keystrokes are delivered
// one at a time without echo so the keyboard device can poll for them.
type console struct {
	in  *os.File
	out *os.File

	// Terminal state outside of program mode, nil when in is not a tty
	cooked *unix.Termios

	lines   *term.Terminal
	scanner *bufio.Scanner
}

func newConsole(in, out *os.File) *console {
	con := &console{in: in, out: out}
	fd := int(in.Fd())

	if !term.IsTerminal(fd) {
		con.scanner = bufio.NewScanner(in)
		return con
	}

	if termios, err := unix.IoctlGetTermios(fd, ioctlGetTermios); err == nil {
		con.cooked = termios
	}

	con.lines = term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{in, out}, "")

	return con
}

// ReadLine prompts for one command. io.EOF means the input is finished.
func (con *console) ReadLine(prompt string) (string, error) {
	if con.lines == nil {
		fmt.Fprint(con.out, prompt)

		if !con.scanner.Scan() {
			if err := con.scanner.Err(); err != nil {
				return "", err
			}

			return "", io.EOF
		}

		return con.scanner.Text(), nil
	}

	fd := int(con.in.Fd())
	state, err := term.MakeRaw(fd)

	if err != nil {
		return "", err
	}

	defer term.Restore(fd, state)

	con.lines.SetPrompt(prompt)
	return con.lines.ReadLine()
}

func (con *console) ProgramMode() error {
	if con.cooked == nil {
		return nil
	}

	termstate := *con.cooked

	termstate.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.INLCR
	termstate.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.IEXTEN
	termstate.Cflag &^= unix.CSIZE | unix.PARENB
	termstate.Cflag |= unix.CS8

	termstate.Cc[unix.VMIN] = 0
	termstate.Cc[unix.VTIME] = 0

	return unix.IoctlSetTermios(int(con.in.Fd()), ioctlSetTermios, &termstate)
}

func (con *console) CommandMode() error {
	if con.cooked == nil {
		return nil
	}

	return unix.IoctlSetTermios(int(con.in.Fd()), ioctlSetTermios, con.cooked)
}
