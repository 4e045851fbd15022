// Package auth is the authentication core of the API: password hashing,
// signed token issue/decode, credential verification and the authorization
// gate that turns a bearer token into an authorized principal.
//
// Every component is constructed with its dependencies and configuration;
// nothing here reads globals or the environment. Failures are reported as
// the sentinel errors from package common and translated into transport
// status codes only by the HTTP and gRPC layers.
package auth
