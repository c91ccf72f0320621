package app

import (
	"context"

	"launchkit/internal/services"
	"launchkit/pkg/logging"
)

const launcherServiceName = "Launcher Service"

// launcherService closes the session: it stops the config watcher and logs
// the end of the run on EXIT and CRASH.
type launcherService struct {
	*services.BaseService
	app *Application
}

func newLauncherService(a *Application) *launcherService {
	return &launcherService{
		BaseService: services.NewBaseService(launcherServiceName, services.PhasePostInit, services.PhaseExit, services.PhaseCrash),
		app:         a,
	}
}

func (l *launcherService) PostInit(ctx context.Context) error {
	logging.Info(l.Name(), "Session %s is ready. Log file: %s", l.app.sessionID, l.app.engine.LogPath())
	return nil
}

func (l *launcherService) Exit(ctx context.Context) error {
	l.app.stopWatcher()
	logging.Info(l.Name(), "Session %s finished.", l.app.sessionID)
	return nil
}

func (l *launcherService) Crash(ctx context.Context) error {
	l.app.stopWatcher()
	logging.Warn(l.Name(), "Session %s ended with a crash.", l.app.sessionID)
	return nil
}
