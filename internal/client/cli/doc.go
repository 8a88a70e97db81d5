// Package cli provides the gophauth command-line client.
//
// It is a cobra command tree: register, login, refresh, whoami, logout and
// ping. Each invocation loads the configuration, resumes the session kept in
// the local session file, runs one command and persists the session again.
package cli
