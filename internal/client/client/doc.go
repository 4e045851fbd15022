// Package client contains the client-side building blocks of the qaapi test
// tool.
//
// # Overview
//
//  1. A transport contract (see the Client interface) covering the REST
//     API: health, register/login/refresh/logout/verify-token and the user
//     management endpoints.
//  2. APIClient, the net/http implementation. It keeps the bearer session,
//     transparently refreshes the access token once when a call comes back
//     401, retries transport failures, 429 and 5xx responses with
//     exponential backoff, and records the elapsed time of every response.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite file and applying embedded goose migrations.
//
// # Error Handling
//
// Non-2xx responses surface as *APIError, which matches the sentinels of
// package common (ErrorUnauthorized, ErrorForbidden, ErrorNotFound,
// ErrorConflict, ErrorValidation, ErrorBadRequest) with errors.Is, plus
// ErrRateLimited and ErrUnavailable. Calls that need a session return
// ErrNotLoggedIn when no tokens are held.
package client
