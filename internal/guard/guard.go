// Package guard decides whether the protected panel may be entered.
//
// Entry requires both a stored token and the device confirming that token.
package guard

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/smartbedding/panel/internal/models"
	"github.com/smartbedding/panel/internal/navigation"
)

type State string

const (
	StateUnauthenticated         State = "unauthenticated"
	StateAuthenticatedUnverified State = "authenticated-unverified"
	StateAuthenticatedVerified   State = "authenticated-verified"
)

// Session is what the guard needs from the session service.
type Session interface {
	IsLoggedIn() bool
	Verify(ctx context.Context) (models.AuthResult, error)
}

type Decision struct {
	Allow    bool
	Redirect models.View
	State    State
	Reason   string
}

type Guard struct {
	session   Session
	navigator navigation.Navigator
}

func New(session Session, navigator navigation.Navigator) *Guard {
	if navigator == nil {
		navigator = navigation.NavigatorFunc(func(models.View) {})
	}
	return &Guard{
		session:   session,
		navigator: navigator,
	}
}

// State reports the local view of the session without contacting the device.
func (g *Guard) State() State {
	if g.session.IsLoggedIn() {
		return StateAuthenticatedUnverified
	}
	return StateUnauthenticated
}

// Evaluate runs before entering a protected view.
func (g *Guard) Evaluate(ctx context.Context, target models.View) Decision {

	if !target.IsProtected() {
		return Decision{Allow: true, State: g.State()}
	}

	// Tier 1: no token, no round trip
	if !g.session.IsLoggedIn() {
		return g.deny(StateUnauthenticated, "no active session")
	}

	// Tier 2: the device has the final word
	result, err := g.session.Verify(ctx)
	if err != nil {
		logrus.WithError(err).Warnln("Session verification failed")
		return g.deny(StateUnauthenticated, "could not confirm session")
	}

	if !result.Accepted {
		return g.deny(StateUnauthenticated, result.Message)
	}

	logrus.WithFields(logrus.Fields{
		"view": target,
	}).Debugln("Guard allowed entry")

	return Decision{
		Allow:  true,
		State:  StateAuthenticatedVerified,
		Reason: result.Message,
	}
}

func (g *Guard) deny(state State, reason string) Decision {

	logrus.WithFields(logrus.Fields{
		"reason": reason,
	}).Debugln("Guard denied entry")

	g.navigator.Navigate(models.ViewEntry)

	return Decision{
		Allow:    false,
		Redirect: models.ViewEntry,
		State:    state,
		Reason:   reason,
	}
}
