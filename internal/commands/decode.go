package commands

import (
	"fmt"
	"strings"
	"time"

	"launchkit/pkg/logging"
)

// Outcome classifies what happened to a single token or line.
type Outcome int

const (
	// OutcomeIgnored means the name matched nothing.
	OutcomeIgnored Outcome = iota
	// OutcomeApplied means an argument handler succeeded.
	OutcomeApplied
	// OutcomeArgumentFailed means an argument handler returned an error.
	OutcomeArgumentFailed
	// OutcomeQueued means a startup command was queued for later.
	OutcomeQueued
	// OutcomeBlacklisted means a runtime-only command was found during a scan.
	OutcomeBlacklisted
	// OutcomeExecuted means a command handler succeeded.
	OutcomeExecuted
	// OutcomeCommandFailed means a command handler returned an error.
	OutcomeCommandFailed
	// OutcomeArgumentOnly means Decode was asked to run an argument.
	OutcomeArgumentOnly
	// OutcomeUnknownCommand means Decode found no command.
	OutcomeUnknownCommand
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeApplied:
		return "applied"
	case OutcomeArgumentFailed:
		return "argument_failed"
	case OutcomeQueued:
		return "queued"
	case OutcomeBlacklisted:
		return "blacklisted"
	case OutcomeExecuted:
		return "executed"
	case OutcomeCommandFailed:
		return "command_failed"
	case OutcomeArgumentOnly:
		return "argument_only"
	case OutcomeUnknownCommand:
		return "unknown_command"
	default:
		return "unknown"
	}
}

// Result is the decode result of one token or console line.
type Result struct {
	Input   string
	Name    string
	Value   string
	Outcome Outcome
	Err     error
	// Message is a human-readable status, set for command executions.
	Message string
}

// Invocation is a command queued during a scan.
type Invocation struct {
	Name  string
	Value string
}

// Line renders the invocation the way it is passed to Decode.
func (i Invocation) Line() string {
	if i.Value == "" {
		return i.Name
	}
	return i.Name + " " + i.Value
}

// Report collects the results of decoding a token list.
type Report struct {
	Results []Result
	// Pending holds startup commands not yet run, in the order found.
	Pending []Invocation
}

// Failed returns the results that carry an error.
func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// splitToken splits a command-line token on the first colon.
func splitToken(token string) (string, string) {
	name, value, _ := strings.Cut(token, ":")
	return Normalize(name), value
}

// ScanArguments runs argument handlers for every matching token and queues
// startup commands without running them. A failing argument is logged and the
// scan continues with the next token.
func (r *Registry) ScanArguments(args []string) *Report {
	report := &Report{}
	logging.Info(subsystem, "Decoding %d argument(s)", len(args))

	for _, token := range args {
		name, value := splitToken(token)
		res := Result{Input: token, Name: name, Value: value}
		argument, command := r.lookup(name)

		switch {
		case argument != nil:
			if err := invoke(argument.handler, value); err != nil {
				logging.Error(subsystem, err, "Exception thrown while decoding argument %q with value %q!", name, value)
				res.Outcome = OutcomeArgumentFailed
				res.Err = err
			} else {
				res.Outcome = OutcomeApplied
			}
		case command != nil && !command.Startup:
			logging.Warn(subsystem, "Startup command %q found, however this command is blacklisted from the startup execution.", name)
			res.Outcome = OutcomeBlacklisted
		case command != nil:
			logging.Info(subsystem, "Startup command %q found! It will be executed after full argument decoding.", name)
			res.Outcome = OutcomeQueued
			report.Pending = append(report.Pending, Invocation{Name: name, Value: value})
		default:
			logging.Debug(subsystem, "Ignoring unknown argument: %s", token)
			res.Outcome = OutcomeIgnored
		}

		r.notify(res.Outcome)
		report.Results = append(report.Results, res)
	}
	return report
}

// RunPending runs the commands queued in report through Decode, in order, and
// appends their results.
func (r *Registry) RunPending(report *Report) {
	pending := report.Pending
	report.Pending = nil
	for _, inv := range pending {
		report.Results = append(report.Results, r.Decode(inv.Line()))
	}
}

// DecodeArguments scans args and then runs the queued startup commands.
func (r *Registry) DecodeArguments(args []string) *Report {
	report := r.ScanArguments(args)
	r.RunPending(report)
	return report
}

// Decode runs a single command line of the form "name value". Everything
// after the first space is passed to the handler as its value. Failures are
// logged and reported through the result message, never returned.
func (r *Registry) Decode(line string) Result {
	start := time.Now()
	logging.Debug(subsystem, "Decoding line %q...", line)

	rawName, value, _ := strings.Cut(line, " ")
	name := Normalize(rawName)
	res := Result{Input: line, Name: name, Value: value}
	argument, command := r.lookup(name)

	switch {
	case command != nil:
		if err := invoke(command.handler, value); err != nil {
			logging.Error(subsystem, err, "Exception thrown while decoding command %q with value %q!", name, value)
			res.Outcome = OutcomeCommandFailed
			res.Err = err
			res.Message = fmt.Sprintf("Exception was thrown while executing current command! %v.\nFor more details, check the log file at %s", err, logging.LogPath())
		} else {
			res.Outcome = OutcomeExecuted
			res.Message = fmt.Sprintf("Command execution finished. Execution took %.3fs.", time.Since(start).Seconds())
			logging.Info(subsystem, "%s", res.Message)
		}
	case argument != nil:
		logging.Warn(subsystem, "Specified command %q is an argument and can only be used at startup.", name)
		res.Outcome = OutcomeArgumentOnly
		res.Message = "Argument commands can only be executed on the startup!"
	default:
		logging.Warn(subsystem, "No specified command found: %s", name)
		res.Outcome = OutcomeUnknownCommand
		res.Message = "No specified command found!"
	}

	r.notify(res.Outcome)
	return res
}
