package session

import (
	"fmt"
	"time"

	"github.com/acolita/ssh-session-mcp/internal/ports"
)

// DefaultTimeoutMs is the execution timeout applied when none is given.
const DefaultTimeoutMs = 30000

// composeCommand applies the working-directory composition rule: with a
// working directory, the command actually sent is `cd "<dir>" && <command>`.
// The directory has already passed the path-safe pattern, so plain quoting
// is enough.
func composeCommand(command, workingDir string) string {
	if workingDir == "" {
		return command
	}
	return fmt.Sprintf("cd %q && %s", workingDir, command)
}

// runCommand runs one command to completion on the given connection.
//
// On timeout the exec channel is closed (abandoning the wait) but the
// connection handle is left alone; the remote process is not guaranteed to
// be killed. No partial result is returned on timeout.
func runCommand(conn ports.Conn, command, workingDir string, timeout time.Duration, clock ports.Clock) (*ExecutionResult, error) {
	sent := composeCommand(command, workingDir)

	ch, err := conn.OpenExec()
	if err != nil {
		return nil, executionError("open exec channel", err)
	}

	type outcome struct {
		out ports.ExecOutput
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		out, err := ch.Run(sent)
		done <- outcome{out: out, err: err}
	}()

	select {
	case o := <-done:
		ch.Close()
		if o.err != nil {
			return nil, connectionError("command transport failed", o.err)
		}
		return &ExecutionResult{
			Command:          sent,
			OriginalCommand:  command,
			WorkingDirectory: workingDir,
			ExitCode:         o.out.ExitCode,
			Stdout:           string(o.out.Stdout),
			Stderr:           string(o.out.Stderr),
			Success:          o.out.ExitCode != nil && *o.out.ExitCode == 0,
			Timestamp:        clock.Now(),
		}, nil

	case <-clock.After(timeout):
		ch.Close()
		return nil, timeoutErrorf("command timed out after %dms", timeout.Milliseconds())

	case <-conn.Done():
		ch.Close()
		return nil, connectionError("connection closed during execution", nil)
	}
}
