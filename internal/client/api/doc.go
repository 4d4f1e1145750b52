// Package api is the console's gateway to the AssetFlow backend: the Data
// API (generic CRUD per collection) and the Auth API (OTP, password login,
// signup, logout, "who am I").
//
// # Transport
//
// HTTPClient speaks JSON over HTTP. Every request carries the identity
// header (X-User-Email) taken from an IdentitySource when one is stored,
// and an X-Request-ID taken from the context or freshly generated.
// The backend trusts the identity header as-is; there is no bearer token.
//
// # Error Handling
//
// Failures fall into three classes, all matchable with errors.Is/As:
//   - transport: ErrUnavailable (dial failures, timeouts, 502/503/504);
//   - server-reported: *APIError, which unwraps to ErrUnauthorized,
//     ErrNotFound or ErrBadRequest depending on the status code;
//   - shape: ErrMissingUser, ErrDecode, models.ErrMissingID.
package api
