package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"launchkit/internal/commands"
	"launchkit/internal/config"
	"launchkit/internal/formatting"
	"launchkit/pkg/logging"
)

// Command names.
const (
	CommandPrintConfig = "print-config"
	CommandCommands    = "commands"
	CommandLogPath     = "log-path"
	CommandMetrics     = "metrics"
	CommandSet         = "set"
	CommandSaveConfig  = "save-config"
	CommandSelfUpdate  = "self-update"
)

func (a *Application) registerCommands() error {
	noop := func(name string) commands.Handler {
		return func(string) error {
			logging.Debug(subsystem, "-%s given, App-Mode default adjusted", name)
			return nil
		}
	}
	if err := a.registry.RegisterArgument("forceconsole", "Prefer CLI mode when App-Mode is not configured", noop("forceconsole")); err != nil {
		return err
	}
	if err := a.registry.RegisterArgument("forcegui", "Prefer GUI mode when App-Mode is not configured", noop("forcegui")); err != nil {
		return err
	}

	list := []struct {
		name        string
		description string
		handler     commands.Handler
		startup     bool
	}{
		{CommandPrintConfig, "Prints every configuration key [table|json|yaml]", a.printConfig, true},
		{CommandCommands, "Lists arguments and commands [table|json|yaml]", a.listCommands, true},
		{CommandLogPath, "Prints the path of the live log file", a.printLogPath, true},
		{CommandMetrics, "Prints the counters of this session [table|json|yaml]", a.printMetrics, true},
		{CommandSet, "Sets a configuration key and saves its file: set <key> <value>", a.setKey, false},
		{CommandSaveConfig, "Rewrites every configuration file from the current values", a.saveConfig, false},
		{CommandSelfUpdate, "Updates launchkit to the latest release", a.selfUpdate, false},
	}
	for _, c := range list {
		if err := a.registry.RegisterCommand(c.name, c.description, c.handler, c.startup); err != nil {
			return err
		}
	}
	return nil
}

func (a *Application) formatter(value string) (formatting.Formatter, error) {
	format, ok := formatting.ParseFormat(strings.ToLower(strings.TrimSpace(value)))
	if !ok {
		return nil, errors.Errorf("unknown output format %q, expected table, json or yaml", value)
	}
	return formatting.New(formatting.Options{Format: format, Color: a.config.IsTerminal()}), nil
}

func (a *Application) printConfig(value string) error {
	f, err := a.formatter(value)
	if err != nil {
		return err
	}

	var entries []formatting.ConfigEntry
	for _, svc := range a.tracker.Services() {
		for _, key := range svc.Keys() {
			entries = append(entries, formatting.ConfigEntry{
				Service:  svc.Name(),
				Key:      key.Name(),
				Value:    key.Value().String(),
				Default:  key.Default().String(),
				Argument: key.Argument(),
			})
		}
	}
	fmt.Fprint(a.out(), f.FormatConfig(entries))
	return nil
}

func (a *Application) listCommands(value string) error {
	f, err := a.formatter(value)
	if err != nil {
		return err
	}

	var entries []formatting.CommandEntry
	for _, info := range a.registry.Arguments() {
		entries = append(entries, formatting.CommandEntry{Name: info.Name, Kind: "argument", Description: info.Description, Startup: true})
	}
	for _, info := range a.registry.Commands() {
		entries = append(entries, formatting.CommandEntry{Name: info.Name, Kind: "command", Description: info.Description, Startup: info.Startup})
	}
	fmt.Fprint(a.out(), f.FormatCommands(entries))
	return nil
}

func (a *Application) printLogPath(string) error {
	fmt.Fprintln(a.out(), a.engine.LogPath())
	return nil
}

func (a *Application) printMetrics(value string) error {
	f, err := a.formatter(value)
	if err != nil {
		return err
	}
	samples, err := a.recorder.Snapshot()
	if err != nil {
		return errors.Wrap(err, "failed to gather metrics")
	}

	entries := make([]formatting.MetricEntry, 0, len(samples))
	for _, s := range samples {
		entries = append(entries, formatting.MetricEntry{Name: s.Name, Labels: s.Labels, Value: s.Value})
	}
	fmt.Fprint(a.out(), f.FormatMetrics(entries))
	return nil
}

// findKey looks a key up by name, ignoring case, across every configuration
// service.
func (a *Application) findKey(name string) (*config.Service, *config.Key, bool) {
	for _, svc := range a.tracker.Services() {
		for _, key := range svc.Keys() {
			if strings.EqualFold(key.Name(), name) {
				return svc, key, true
			}
		}
	}
	return nil, nil, false
}

func (a *Application) setKey(value string) error {
	name, raw, _ := strings.Cut(strings.TrimSpace(value), " ")
	if name == "" {
		return errors.New("usage: set <key> <value>")
	}

	svc, key, ok := a.findKey(name)
	if !ok {
		return errors.Wrapf(config.ErrUnknownKey, "%s", name)
	}
	if err := svc.SetAndSave(key.Name(), strings.TrimSpace(raw)); err != nil {
		return err
	}

	logging.Info(subsystem, "%s of %s set to %s", key.Name(), svc.Name(), key.Value())
	fmt.Fprintf(a.out(), "%s = %s\n", key.Name(), key.Value())
	return nil
}

func (a *Application) saveConfig(string) error {
	for _, svc := range a.tracker.Services() {
		if !svc.HasFile() {
			continue
		}
		if err := svc.Save(); err != nil {
			return errors.Wrapf(err, "failed to save %s", svc.Name())
		}
		fmt.Fprintf(a.out(), "Saved %s to %s\n", svc.Name(), svc.Path())
	}
	return nil
}

func (a *Application) selfUpdate(string) error {
	enabled, err := a.mainConfig.Value(KeyUpdater)
	if err != nil {
		return err
	}
	if !enabled.AsBool() {
		return errors.Errorf("updates are disabled by %s", KeyUpdater)
	}
	_, err = a.updater.Run(context.Background(), a.config.Version, a.out())
	return err
}
