package models

// LoginRequest is the body of the code handshake.
type LoginRequest struct {
	Code string `json:"code" binding:"required"`
}

// AuthResult is returned by both login and verify. A rejected result never
// carries a token; on success the token only ever lands in the token store.
type AuthResult struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

func Accepted(message string) AuthResult {
	return AuthResult{Accepted: true, Message: message}
}

func Rejected(message string) AuthResult {
	return AuthResult{Accepted: false, Message: message}
}
