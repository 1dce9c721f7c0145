package session

import "time"

// ConnectSummary describes a successful connect.
type ConnectSummary struct {
	Status     string    `json:"status"`
	Host       string    `json:"host"`
	Port       int       `json:"port"`
	User       string    `json:"username"`
	AuthMethod string    `json:"authMethod"`
	Timestamp  time.Time `json:"timestamp"`
}

// DisconnectSummary describes the outcome of a disconnect call.
// Status is "disconnected" or "no_connection"; both are success payloads.
type DisconnectSummary struct {
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusSummary is a pure read of the current session state.
// Host, user and auth method are empty when disconnected.
type StatusSummary struct {
	Connected  bool      `json:"connected"`
	Host       string    `json:"host,omitempty"`
	Port       int       `json:"port,omitempty"`
	User       string    `json:"username,omitempty"`
	AuthMethod string    `json:"authMethod,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// ExecutionResult is the outcome of one command run. ExitCode is nil only
// when the command terminated abnormally before reporting an exit status.
type ExecutionResult struct {
	Host             string    `json:"host"`
	Port             int       `json:"port"`
	User             string    `json:"username"`
	Command          string    `json:"command"`
	OriginalCommand  string    `json:"originalCommand"`
	WorkingDirectory string    `json:"workingDirectory,omitempty"`
	ExitCode         *int      `json:"exitCode"`
	Stdout           string    `json:"stdout"`
	Stderr           string    `json:"stderr"`
	Success          bool      `json:"success"`
	Timestamp        time.Time `json:"timestamp"`
}
