// Package console provides the interactive prompt that runs after startup.
//
// Every line is handed to the command registry, so runtime-only commands
// such as set, save-config and self-update become reachable. The built-ins
// help, exit and quit are handled by the console itself.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"

	"launchkit/internal/commands"
	"launchkit/pkg/logging"
)

const (
	subsystem     = "Console"
	defaultPrompt = "launchkit> "
	historyName   = ".launchkit_history"
)

// Dispatcher runs command lines.
type Dispatcher interface {
	Decode(line string) commands.Result
	Commands() []commands.Info
}

// Options configure a Console.
type Options struct {
	Prompt      string
	HistoryFile string
	Stdin       io.ReadCloser
	Stdout      io.Writer
}

// Console is a readline REPL over a Dispatcher.
type Console struct {
	dispatcher Dispatcher
	options    Options
}

// New creates a Console. Zero options select the default prompt, a history
// file in the temp directory and the process stdio.
func New(dispatcher Dispatcher, options Options) *Console {
	if options.Prompt == "" {
		options.Prompt = defaultPrompt
	}
	if options.HistoryFile == "" {
		options.HistoryFile = filepath.Join(os.TempDir(), historyName)
	}
	if options.Stdout == nil {
		options.Stdout = os.Stdout
	}
	return &Console{dispatcher: dispatcher, options: options}
}

// Execute runs one input line and reports whether the console should keep
// reading.
func (c *Console) Execute(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	name, _, _ := strings.Cut(input, " ")
	switch strings.ToLower(name) {
	case "exit", "quit":
		return false
	case "help", "?":
		c.printHelp()
		return true
	}

	result := c.dispatcher.Decode(input)
	fmt.Fprintln(c.options.Stdout, result.Message)
	return true
}

func (c *Console) printHelp() {
	out := c.options.Stdout
	fmt.Fprintln(out, "Available commands:")
	for _, info := range c.dispatcher.Commands() {
		fmt.Fprintf(out, "  %-16s %s\n", info.Name, info.Description)
	}
	fmt.Fprintf(out, "  %-16s %s\n", "help", "Shows this list")
	fmt.Fprintf(out, "  %-16s %s\n", "exit", "Leaves the console")
}

// Run reads lines until exit, EOF or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	config := &readline.Config{
		Prompt:            c.options.Prompt,
		HistoryFile:       c.options.HistoryFile,
		AutoComplete:      c.completer(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdout:            c.options.Stdout,
	}
	if c.options.Stdin != nil {
		config.Stdin = c.options.Stdin
	}

	rl, err := readline.NewEx(config)
	if err != nil {
		return errors.Wrap(err, "failed to create readline instance")
	}
	defer rl.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	logging.Info(subsystem, "Console started. Type 'help' for available commands.")
	for {
		if ctx.Err() != nil {
			logging.Info(subsystem, "Console shutting down...")
			return nil
		}

		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if len(line) == 0 {
				continue
			}
		case errors.Is(err, io.EOF):
			logging.Info(subsystem, "Console closed.")
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "readline error")
		}

		if !c.Execute(line) {
			logging.Info(subsystem, "Console closed by user.")
			return nil
		}
	}
}

// completer completes command names, including the built-ins.
func (c *Console) completer() *readline.PrefixCompleter {
	names := func(string) []string {
		var out []string
		for _, info := range c.dispatcher.Commands() {
			out = append(out, info.Name)
		}
		return append(out, "help", "exit", "quit")
	}
	return readline.NewPrefixCompleter(readline.PcItemDynamic(names))
}
