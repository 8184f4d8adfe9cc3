package client

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"
)

// TokenSource is the read side of the token store.
type TokenSource interface {
	Get() (string, bool)
}

// UnauthorizedHandler reacts to an authorization rejection from the device.
type UnauthorizedHandler interface {
	HandleUnauthorized()
}

// UnauthorizedFunc adapts a function to UnauthorizedHandler.
type UnauthorizedFunc func()

func (f UnauthorizedFunc) HandleUnauthorized() {
	f()
}

// Authorizer decorates a transport: it attaches the stored bearer token to
// every outgoing request and fires the unauthorized handler whenever a
// response comes back as 401. The response itself is returned untouched.
type Authorizer struct {
	tokens TokenSource
	next   http.RoundTripper

	mu      sync.RWMutex
	handler UnauthorizedHandler
}

func NewAuthorizer(tokens TokenSource, next http.RoundTripper) *Authorizer {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Authorizer{
		tokens: tokens,
		next:   next,
	}
}

// OnUnauthorized sets the handler fired on 401 responses.
func (a *Authorizer) OnUnauthorized(handler UnauthorizedHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handler = handler
}

func (a *Authorizer) RoundTrip(req *http.Request) (*http.Response, error) {

	token, hasToken := a.tokens.Get()

	// The caller's request is never mutated
	outgoing := req
	if hasToken {
		outgoing = req.Clone(req.Context())
		outgoing.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	resp, err := a.next.RoundTrip(outgoing)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {

		logrus.WithFields(logrus.Fields{
			"method":   req.Method,
			"url":      req.URL.String(),
			"hasToken": hasToken,
		}).Warnln("Device rejected authorization, closing session")

		a.mu.RLock()
		handler := a.handler
		a.mu.RUnlock()

		if handler != nil {
			handler.HandleUnauthorized()
		}
	}

	return resp, nil
}
