// Package common contains shared constants used across AssetFlow components.
package common

// IdentityHeaderName carries the signed-in user's email on every request.
// The backend trusts it as-is.
const IdentityHeaderName = "X-User-Email"

// RequestIDHeaderName carries the per-request correlation id.
const RequestIDHeaderName = "X-Request-ID"
