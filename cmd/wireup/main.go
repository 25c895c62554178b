package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	exitOK = iota
	exitFailure
	exitUsage
)

// command is a wireup subcommand. Register binds its flags, Run executes it
// once flags are parsed.
type command interface {
	Name() string
	Help() string
	Run() error
	Register(*flag.FlagSet)
}

type cli struct {
	commands []command
	stderr   io.Writer
}

func newCLI(stdout, stderr io.Writer) *cli {
	return &cli{
		commands: []command{
			&listCommand{out: stdout},
			&renderCommand{},
			&playCommand{},
		},
		stderr: stderr,
	}
}

func main() {
	os.Exit(newCLI(os.Stdout, os.Stderr).run(os.Args[1:]))
}

func (c *cli) find(name string) command {
	for _, cmd := range c.commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

// run dispatches arguments without program name and returns exit code.
func (c *cli) run(args []string) int {
	if len(args) == 0 {
		c.usage()
		return exitUsage
	}
	name, args := args[0], args[1:]
	switch name {
	case "help", "-h", "-help", "--help":
		if len(args) == 1 {
			if cmd := c.find(args[0]); cmd != nil {
				c.flags(cmd).Usage()
				return exitOK
			}
		}
		c.usage()
		return exitOK
	}

	cmd := c.find(name)
	if cmd == nil {
		fmt.Fprintf(c.stderr, "unknown command %q\n\n", name)
		c.usage()
		return exitUsage
	}
	fs := c.flags(cmd)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(c.stderr, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		fs.Usage()
		return exitUsage
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(c.stderr, "%s: %v\n", name, err)
		return exitFailure
	}
	return exitOK
}

// flags returns fresh flag set of the command with its own usage.
func (c *cli) flags(cmd command) *flag.FlagSet {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	cmd.Register(fs)
	fs.Usage = func() {
		fmt.Fprintf(c.stderr, "Usage: wireup %s [flags]\n\n%s\n\nFlags:\n", cmd.Name(), cmd.Help())
		fs.PrintDefaults()
	}
	return fs
}

func (c *cli) usage() {
	fmt.Fprint(c.stderr, "Wireup renders and plays block graphs\n\nUsage: wireup <command> [flags]\n\nCommands:\n")
	for _, cmd := range c.commands {
		fmt.Fprintf(c.stderr, "  %-8s %s\n", cmd.Name(), cmd.Help())
	}
	fmt.Fprint(c.stderr, "\nRun 'wireup help <command>' for command flags.\n")
}

// stringList collects repeated flag values.
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}
