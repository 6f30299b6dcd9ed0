// Package cli provides the interactive objsync command-line client.
//
// It wires configuration, the authenticator, the gRPC connection used for
// health checks and a transfer session into a small REPL. A background
// watcher pings the server and switches between online and offline mode.
//
// Commands:
//   - register / login / logout / refresh
//   - status: token state, transfer progress and counters
//   - upload <file> <url> / download <url> [name], with live progress
//
// App.Run blocks until the user exits.
package cli
