package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"launchkit/internal/app"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates the run crashed or the command failed.
	ExitCodeError = 1
)

// debugToken enables debug output on the console. It is consumed here and
// never reaches the argument decoder.
const debugToken = "--debug"

// version is injected by main. rootCmd.Version mirrors it for cobra.
var version string

// rootCmd represents the base command for the launchkit application.
// Every token is passed through untouched so "-name:value" arguments reach
// the launcher's own decoder.
var rootCmd = &cobra.Command{
	Use:   "launchkit [-argument[:value]]... [-command[:value]]...",
	Short: "Start the launcher",
	Long: `launchkit runs the launcher lifecycle: it rotates its log file, loads
launchkit.yaml and logging.yaml, applies "-name:value" arguments and runs
startup commands such as -print-config before handing over to the GUI or the
interactive console (-interactive).

Run "launchkit -commands" to list every argument and command.`,
	Args:               cobra.ArbitraryArgs,
	DisableFlagParsing: true,
	SilenceUsage:       true,
	SilenceErrors:      true,
	RunE:               runLauncher,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		var crash *app.CrashError
		if !errors.As(err, &crash) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the exit code for err.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}
	return ExitCodeError
}

// splitDebug removes the debug token from args.
func splitDebug(args []string) (bool, []string) {
	debug := false
	rest := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == debugToken {
			debug = true
			continue
		}
		rest = append(rest, arg)
	}
	return debug, rest
}

func runLauncher(cmd *cobra.Command, args []string) error {
	debug, tokens := splitDebug(args)

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to determine working directory: %w", err)
	}

	cfg := app.NewConfig(debug, tokens, workDir, version)
	cfg.Stdout = cmd.OutOrStdout()
	cfg.Stderr = cmd.ErrOrStderr()

	application, err := app.NewApplication(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
