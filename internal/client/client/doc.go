// Package client is the custodyctl side of the custody gRPC API.
//
// GRPCClient manages the connection, attaches the session or operator token
// to outgoing calls through a unary interceptor and maps status codes to
// sentinel errors (ErrUnauthorized, ErrUnavailable) that callers can match
// with errors.Is.
package client
