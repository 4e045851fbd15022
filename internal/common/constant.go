package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound calls.
const AccessTokenHeaderName = "access_token"

// AuthorizationHeaderName carries "Bearer <token>" on HTTP requests and
// is also accepted as gRPC metadata.
const AuthorizationHeaderName = "authorization"

// APIKeyHeaderName carries a service API key.
const APIKeyHeaderName = "X-API-Key"

// TokenTypeBearer is the token_type reported to clients.
const TokenTypeBearer = "bearer"
