// Package common contains shared constants and sentinel errors used across
// sync agent components.
package common

// SessionTokenHeaderName is the HTTP header used to carry the operator
// session token on outbound relayer requests.
const SessionTokenHeaderName = "Authorization"
