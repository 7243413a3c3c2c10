// Package cli implements custodyctl, the command-line client for the custody
// server.
//
// Wallet commands (create, login, sign, export, change-password, recover)
// talk to the server over gRPC. Operator commands (wallet info, deactivate,
// reactivate) additionally need an operator token, which the offline "token"
// command mints from the shared secret. "migrate" applies the database
// schema directly.
//
// Passwords are always read from the terminal without echo and wiped after
// the call returns.
package cli
