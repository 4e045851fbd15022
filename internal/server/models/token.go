package models

// TokenKind distinguishes access tokens from refresh tokens. It travels in
// the "type" claim.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// TokenPair is what a successful login or refresh hands back to the caller.
// RefreshToken is empty on refresh responses.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// ServiceIdentity is the principal behind an API key.
type ServiceIdentity struct {
	Name string `json:"service"`
}
