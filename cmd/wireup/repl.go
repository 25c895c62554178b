package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/dudk/wireup"
	"github.com/dudk/wireup/metric"
)

const replHelp = `set <name> <value>       assign signal or slot
get <name>               read signal or slot
call <block> <method> [args...]
names                    list addressable names
stats                    show engine metrics
quit`

var errQuit = errors.New("quit")

// session executes REPL lines against an engine.
type session struct {
	engine    *wireup.Engine
	component string
}

// execute runs one line and returns its output. errQuit ends the session.
func (s *session) execute(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	switch cmd, args := fields[0], fields[1:]; cmd {
	case "quit", "exit":
		return "", errQuit
	case "help":
		return replHelp, nil
	case "set":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: set <name> <value>")
		}
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return "", err
		}
		return "", s.engine.Set(args[0], v)
	case "get":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: get <name>")
		}
		v, err := s.engine.Get(args[0])
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case "call":
		if len(args) < 2 {
			return "", fmt.Errorf("usage: call <block> <method> [args...]")
		}
		values, err := parseFloats(args[2:])
		if err != nil {
			return "", err
		}
		return "", s.engine.Call(args[0], args[1], values...)
	case "names":
		p := s.engine.Active()
		if p == nil {
			return "", wireup.ErrNoProcessor
		}
		return strings.Join(p.Names(), "\n"), nil
	case "stats":
		var b strings.Builder
		for k, v := range metric.Get(s.component) {
			fmt.Fprintf(&b, "%s: %s\n", k, v)
		}
		return strings.TrimSuffix(b.String(), "\n"), nil
	default:
		return "", fmt.Errorf("unknown command %q, type help", cmd)
	}
}

func parseFloats(args []string) ([]float64, error) {
	values := make([]float64, len(args))
	for i, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// repl reads lines until quit or end of input.
func (s *session) repl(out io.Writer) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(func(line string) []string {
		p := s.engine.Active()
		if p == nil {
			return nil
		}
		i := strings.LastIndex(line, " ") + 1
		var c []string
		for _, name := range p.Names() {
			if strings.HasPrefix(name, line[i:]) {
				c = append(c, line[:i]+name)
			}
		}
		return c
	})

	for {
		line, err := ln.Prompt("wireup> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		result, err := s.execute(line)
		if err == errQuit {
			return nil
		}
		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		if result != "" {
			fmt.Fprintln(out, result)
		}
	}
}
