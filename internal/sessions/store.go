package sessions

import (
	"errors"
)

// AccessTokenKey is the well-known key the bearer token is persisted under.
const AccessTokenKey = "access_token"

var ErrInvalidToken = errors.New("token must not be empty")

// TokenStore holds at most one bearer token. Session handling writes to it,
// the request authorizer and route guard only read from it.
type TokenStore interface {
	Set(token string) error
	Get() (string, bool)
	Clear() error
}
