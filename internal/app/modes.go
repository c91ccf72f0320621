package app

import (
	"context"

	"github.com/pkg/errors"

	"launchkit/internal/config"
	"launchkit/internal/console"
	"launchkit/pkg/logging"
)

// runMode hands control to the GUI or the interactive console once startup
// finished.
func (a *Application) runMode(ctx context.Context) error {
	mode, err := a.mainConfig.Value(KeyAppMode)
	if err != nil {
		return err
	}

	if mode.AsString() == ModeGUI {
		if err := a.runGUIMode(ctx); err != nil {
			return err
		}
	}

	interactive, err := a.sessionConfig.Value(KeyInteractive)
	if err != nil {
		return err
	}
	if interactive.AsBool() {
		return a.runConsole(ctx)
	}
	return nil
}

// runGUIMode runs the GUI when one is installed.
func (a *Application) runGUIMode(ctx context.Context) error {
	if a.gui == nil {
		logging.Warn(subsystem, "GUI mode was requested, but no GUI is available. Continuing without one.")
		return nil
	}
	logging.Info(subsystem, "Starting GUI...")
	return errors.Wrap(a.gui.Run(ctx), "GUI failed")
}

// runConsole reads commands until the user leaves. Configuration files are
// reloaded when edited meanwhile.
func (a *Application) runConsole(ctx context.Context) error {
	if err := a.startWatcher(ctx); err != nil {
		logging.Error(subsystem, err, "Failed to watch configuration files, edits will need a restart")
	}
	defer a.stopWatcher()

	c := console.New(a.registry, console.Options{
		Stdin:  a.config.Stdin,
		Stdout: a.config.Stdout,
	})
	return c.Run(ctx)
}

func (a *Application) startWatcher(ctx context.Context) error {
	w := config.NewWatcher(0)
	w.OnReload = func(service string, err error) {
		a.recorder.Reloaded(service, err)
		if err != nil {
			logging.Error(subsystem, err, "Failed to reload %s", service)
		}
	}
	for _, svc := range a.tracker.Services() {
		if err := w.Add(svc); err != nil {
			return err
		}
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	a.watcher = w
	return nil
}

func (a *Application) stopWatcher() {
	if a.watcher == nil {
		return
	}
	if err := a.watcher.Stop(); err != nil {
		logging.Warn(subsystem, "Failed to stop configuration watcher: %v", err)
	}
	a.watcher = nil
}
