// Package updater replaces the running binary with the latest GitHub release.
package updater

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/pkg/errors"

	"launchkit/pkg/logging"
)

// RepositorySlug is the GitHub repository (owner/repo) releases are read from.
const RepositorySlug = "launchkit/launchkit"

const subsystem = "Updater"

// ErrDevelopmentVersion is returned for builds without a release version.
var ErrDevelopmentVersion = errors.New("cannot self-update a development version")

// Release describes an available release.
type Release struct {
	Version     string
	PublishedAt time.Time
	Notes       string
	Newer       bool

	raw *selfupdate.Release
}

// Source finds and installs releases.
type Source interface {
	Latest(ctx context.Context, current string) (Release, bool, error)
	Apply(ctx context.Context, release Release, executable string) error
}

// Updater checks for and installs newer releases.
type Updater struct {
	source     Source
	executable func() (string, error)
	quiet      bool
}

// Option configures an Updater.
type Option func(*Updater)

// WithSource replaces the GitHub release source.
func WithSource(source Source) Option {
	return func(u *Updater) { u.source = source }
}

// WithExecutable replaces the lookup of the running binary's path.
func WithExecutable(fn func() (string, error)) Option {
	return func(u *Updater) { u.executable = fn }
}

// Quiet disables the progress spinner.
func Quiet() Option {
	return func(u *Updater) { u.quiet = true }
}

// New creates an Updater reading releases of RepositorySlug.
func New(opts ...Option) *Updater {
	u := &Updater{
		executable: selfupdate.ExecutablePath,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.source == nil {
		u.source = &githubSource{slug: RepositorySlug}
	}
	return u
}

// Result reports what Run did.
type Result struct {
	Current string
	Latest  string
	Updated bool
}

// Run updates the binary when a release newer than current exists. Progress
// is written to out.
func (u *Updater) Run(ctx context.Context, current string, out io.Writer) (Result, error) {
	result := Result{Current: current}
	if current == "" || current == "dev" {
		return result, ErrDevelopmentVersion
	}

	fmt.Fprintf(out, "Current version: %s\n", current)
	latest, found, err := u.detect(ctx, current, out)
	if err != nil {
		return result, errors.Wrap(err, "error detecting latest version")
	}
	if !found {
		return result, errors.Errorf("latest release for %s could not be found", RepositorySlug)
	}
	result.Latest = latest.Version

	if !latest.Newer {
		fmt.Fprintln(out, "Current version is the latest.")
		return result, nil
	}

	fmt.Fprintf(out, "Found newer version: %s (published at %s)\n", latest.Version, latest.PublishedAt.Format(time.RFC3339))
	if latest.Notes != "" {
		fmt.Fprintf(out, "Release notes:\n%s\n", latest.Notes)
	}

	exe, err := u.executable()
	if err != nil {
		return result, errors.Wrap(err, "could not locate executable path")
	}

	logging.Info(subsystem, "Updating %s from %s to %s", exe, current, latest.Version)
	fmt.Fprintf(out, "Updating %s to version %s...\n", exe, latest.Version)
	if err := u.source.Apply(ctx, latest, exe); err != nil {
		return result, errors.Wrap(err, "update failed")
	}

	result.Updated = true
	logging.Info(subsystem, "Updated to version %s", latest.Version)
	fmt.Fprintf(out, "Successfully updated to version %s\n", latest.Version)
	return result, nil
}

func (u *Updater) detect(ctx context.Context, current string, out io.Writer) (Release, bool, error) {
	if u.quiet {
		return u.source.Latest(ctx, current)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.Suffix = " Checking for updates..."
	s.Start()
	defer s.Stop()
	return u.source.Latest(ctx, current)
}

// githubSource reads releases through go-selfupdate.
type githubSource struct {
	slug string
}

func (g *githubSource) updater() (*selfupdate.Updater, error) {
	updater, err := selfupdate.NewUpdater(selfupdate.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create updater")
	}
	return updater, nil
}

func (g *githubSource) Latest(ctx context.Context, current string) (Release, bool, error) {
	updater, err := g.updater()
	if err != nil {
		return Release{}, false, err
	}
	latest, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(g.slug))
	if err != nil || !found {
		return Release{}, found, err
	}
	return Release{
		Version:     latest.Version(),
		PublishedAt: latest.PublishedAt,
		Notes:       latest.ReleaseNotes,
		Newer:       latest.GreaterThan(current),
		raw:         latest,
	}, true, nil
}

func (g *githubSource) Apply(ctx context.Context, release Release, executable string) error {
	if release.raw == nil {
		return errors.Errorf("release %s was not detected from %s", release.Version, g.slug)
	}
	updater, err := g.updater()
	if err != nil {
		return err
	}
	return updater.UpdateTo(ctx, release.raw, executable)
}
