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
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"

	"github.com/lassandro/lc3db/pkg/debugger"
	"github.com/lassandro/lc3db/pkg/machine"
)

var helpvar bool
var quietvar bool
var fullnamevar bool
var execvar bool
var rootvar string
var scriptvar string

const usage = "lc3db [-quiet] [-fullname] [-rootdir dir] [-x file] [-exec] [file.obj]"

const PROMPT = "(gdb) "

const banner = "lc3db, a source level debugger for the LC-3\n" +
	"Type `help' for a list of commands.\n"

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&quietvar, "quiet", false, "Suppresses the banner and per-stop disassembly")
	flag.BoolVar(&fullnamevar, "fullname", false, "Prints location markers for front ends")
	flag.BoolVar(&execvar, "exec", false, "Runs the program without the debugger")
	flag.StringVar(&rootvar, "rootdir", "", "Installation root (default $LC3DB_ROOT)")
	flag.StringVar(&scriptvar, "x", "", "Runs commands from file before the prompt")
	flag.Parse()
}

// findOS returns the operating system image to use, or "" for none.
func findOS(root string) string {
	candidates := []string{filepath.Join("lib", "los.obj")}

	if root != "" {
		candidates = append(candidates, filepath.Join(root, "lib", "lc3db", "los.obj"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// interrupts delivers SIGINT to fn until the returned stop is called.
func interrupts(fn func()) (stop func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		for range c {
			fn()
		}
	}()

	return func() {
		signal.Stop(c)
		close(c)
	}
}

// run executes the program outside the debugger until it halts.
func run(mc *machine.Machine, con *console, osImage, program string) int {
	if osImage != "" {
		if _, err := mc.LoadFile(osImage); err != nil {
			log.Println(err)
			return 1
		}
	}

	origin, err := mc.LoadFile(program)

	if err != nil {
		log.Println(err)
		return 1
	}

	mc.CPU.PC = origin

	if osImage != "" {
		mc.CPU.PC = mc.Memory.Peek(machine.MEMSPACE_OS_ENTRY)
	}

	var interrupted atomic.Bool
	stop := interrupts(func() { interrupted.Store(true) })
	defer stop()

	if err := con.ProgramMode(); err != nil {
		log.Println(err)
	}

	defer func() {
		if err := con.CommandMode(); err != nil {
			log.Println(err)
		}
	}()

	mc.SetRunning(true)

	for mc.Running() && !interrupted.Load() {
		mc.Step()
	}

	if err := mc.Devices.Display.Err; err != nil {
		log.Println(err)
		return 1
	}

	return 0
}

func repl(s *debugger.Session, con *console) int {
	for {
		line, err := con.ReadLine(PROMPT)

		if err == io.EOF {
			fmt.Println()
			return 0
		} else if err != nil {
			log.Println(err)
			return 1
		}

		if err := s.Execute(line); err != nil {
			if errors.Is(err, debugger.ErrQuit) {
				return 0
			}

			log.Println(err)
		}
	}
}

func lc3db() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	if len(args) > 1 || (execvar && len(args) != 1) {
		log.Println(usage)
		return 1
	}

	root := rootvar
	if root == "" {
		root = os.Getenv("LC3DB_ROOT")
	}

	osImage := findOS(root)
	con := newConsole(os.Stdin, os.Stdout)
	mc := machine.NewMachine(&machine.FileInput{File: os.Stdin}, os.Stdout)

	if execvar {
		return run(mc, con, osImage, args[0])
	}

	if !quietvar {
		fmt.Print(banner)
	}

	s := debugger.NewSession(mc, os.Stdout, debugger.Config{
		Quiet:    quietvar,
		Fullname: fullnamevar,
		OSImage:  osImage,
	})

	s.Terminal = con
	defer s.Close()

	stop := interrupts(s.Interrupt)
	defer stop()

	if len(args) == 1 {
		if err := s.Load(args[0]); err != nil {
			log.Println(err)
		}
	}

	if scriptvar != "" {
		if err := s.RunScript(scriptvar); err != nil {
			if errors.Is(err, debugger.ErrQuit) {
				return 0
			}

			log.Println(err)
		}
	}

	return repl(s, con)
}

func main() {
	os.Exit(lc3db())
}
