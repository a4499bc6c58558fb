// Package common contains constants and helpers shared across services
package common

const (
	AppName = "compound-engine"

	// AdminKeyHeader carries the admin key on admin routes.
	AdminKeyHeader = "X-Admin-Key"
	// CallerHeader names the address an admin call acts as.
	CallerHeader = "X-Caller"
)
