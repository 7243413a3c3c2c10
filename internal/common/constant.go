// Package common contains shared constants, sentinel errors and small helpers
// used across custodykeeper components.
package common

// SessionTokenHeaderName is the gRPC metadata key carrying a wallet session token.
const SessionTokenHeaderName = "session_token"

// OperatorTokenHeaderName is the gRPC metadata key carrying an operator JWT.
const OperatorTokenHeaderName = "operator_token"
