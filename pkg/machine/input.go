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

package machine

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// ByteInput is an in-memory keyboard queue.
type ByteInput struct {
	buf []byte
}

func NewByteInput(s string) *ByteInput {
	return &ByteInput{buf: []byte(s)}
}

// Feed queues more keystrokes.
func (in *ByteInput) Feed(b ...byte) {
	in.buf = append(in.buf, b...)
}

func (in *ByteInput) Ready() bool {
	return len(in.buf) > 0
}

func (in *ByteInput) ReadByte() (byte, error) {
	if len(in.buf) == 0 {
		return 0, io.EOF
	}

	key := in.buf[0]
	in.buf = in.buf[1:]
	return key, nil
}

// FileInput polls a descriptor (usually a terminal) for keystrokes.
type FileInput struct {
	File *os.File
}

func (in *FileInput) Ready() bool {
	fds := []unix.PollFd{{Fd: int32(in.File.Fd()), Events: unix.POLLIN}}

	n, err := unix.Poll(fds, 0)

	if err != nil || n == 0 {
		return false
	}

	return fds[0].Revents&unix.POLLIN != 0
}

func (in *FileInput) ReadByte() (byte, error) {
	var scratch [1]byte

	n, err := in.File.Read(scratch[:])

	if err != nil {
		return 0, err
	} else if n != 1 {
		return 0, io.EOF
	}

	return scratch[0], nil
}

// OpenInput prepares path as keyboard input. Regular files are read up front
// so that end of file reads as "no key ready" rather than as a ready
// descriptor returning nothing.
func OpenInput(path string) (Input, error) {
	file, err := os.Open(path)

	if err != nil {
		return nil, err
	}

	stat, err := file.Stat()

	if err != nil {
		file.Close()
		return nil, err
	}

	if stat.Mode().IsRegular() {
		defer file.Close()

		data, err := io.ReadAll(file)

		if err != nil {
			return nil, err
		}

		return &ByteInput{buf: data}, nil
	}

	return &FileInput{File: file}, nil
}
