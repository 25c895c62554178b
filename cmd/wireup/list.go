package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dudk/wireup/blocks"
)

type listCommand struct {
	out io.Writer
}

func (cmd *listCommand) Name() string {
	return "list"
}

func (cmd *listCommand) Help() string {
	return "Show built-in patches, block kinds and filter types"
}

func (cmd *listCommand) Register(fs *flag.FlagSet) {}

func (cmd *listCommand) Run() error {
	out := cmd.out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintln(out, "Patches:")
	for _, p := range patches {
		fmt.Fprintf(out, "\t%s\t%s\n", p.name, p.help)
	}
	fmt.Fprintln(out, "Kinds:")
	for _, name := range blocks.Registry().Names() {
		fmt.Fprintf(out, "\t%s\n", name)
	}
	fmt.Fprintf(out, "Filters:\n\t%s\n", strings.Join(blocks.Filters(), " "))
	return nil
}
