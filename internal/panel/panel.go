// Package panel assembles the control panel: token store, device client,
// session service, guard and refresher, wired to one navigation router.
package panel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/smartbedding/panel/internal/alerts"
	"github.com/smartbedding/panel/internal/auth"
	"github.com/smartbedding/panel/internal/client"
	"github.com/smartbedding/panel/internal/config"
	"github.com/smartbedding/panel/internal/guard"
	"github.com/smartbedding/panel/internal/models"
	"github.com/smartbedding/panel/internal/navigation"
	"github.com/smartbedding/panel/internal/poller"
	"github.com/smartbedding/panel/internal/sessions"
)

var ErrAccessDenied = errors.New("access to the panel was denied")

type Options struct {
	// Store overrides the store selected from the session config.
	Store sessions.TokenStore
	// Transport overrides the HTTP transport used to reach the device.
	Transport http.RoundTripper
}

type App struct {
	Config  *config.Config
	Store   sessions.TokenStore
	Client  *client.DeviceClient
	Session *auth.Service
	Guard   *guard.Guard
	Router  *navigation.Router
	Alerts  *alerts.Queue

	mu        sync.Mutex
	refresher *poller.Refresher
	unwatch   func()
}

func New(cfg *config.Config, opts Options) (*App, error) {

	store := opts.Store
	if store == nil {
		var err error
		store, err = NewTokenStore(cfg)
		if err != nil {
			return nil, err
		}
	}

	deviceClient, err := client.NewDeviceClient(client.Options{
		Endpoint:  cfg.GetDeviceUrl(),
		Timeout:   cfg.Device.Timeout,
		Transport: opts.Transport,
	}, store)
	if err != nil {
		return nil, err
	}

	router := navigation.NewRouter()
	session := auth.NewService(store, deviceClient, router)

	// Any 401 from any endpoint ends the session
	deviceClient.OnUnauthorized(session)

	app := &App{
		Config:  cfg,
		Store:   store,
		Client:  deviceClient,
		Session: session,
		Guard:   guard.New(session, router),
		Router:  router,
		Alerts:  alerts.NewQueue(cfg.Alerts.Duration),
	}

	changes, cancel := router.Changes()
	app.unwatch = cancel
	go app.watchNavigation(changes)

	return app, nil
}

// NewTokenStore picks the store for the configured device.
func NewTokenStore(cfg *config.Config) (sessions.TokenStore, error) {
	if cfg.Session.Ephemeral {
		logrus.Debugln("Using in-memory session")
		return sessions.NewMemoryStore(), nil
	}

	store, err := sessions.NewFileStore(cfg.Session.Path, cfg.GetDeviceName())
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"path": store.Path(),
	}).Debugln("Using session file")

	return store, nil
}

// Login pairs with the device and posts the outcome as an alert.
func (a *App) Login(ctx context.Context, code string) (models.AuthResult, error) {
	result, err := a.Session.Login(ctx, code)

	switch {
	case errors.Is(err, auth.ErrInvalidCode):
		a.Alerts.Warning("Please enter a valid code.")
	case err != nil:
		a.Alerts.Error("Could not reach the device.")
	case !result.Accepted:
		a.Alerts.Error(messageOr(result.Message, "The device rejected the code."))
	default:
		a.Alerts.Success("Login successful.")
	}

	return result, err
}

func (a *App) Logout() error {
	if err := a.Session.Logout(); err != nil {
		return err
	}
	a.Alerts.Info("Session closed.")
	return nil
}

// OpenPanel runs the guard for the panel view and, when allowed, starts
// polling the device. Polling stops as soon as the session ends.
func (a *App) OpenPanel(ctx context.Context) (*poller.Refresher, guard.Decision, error) {

	decision := a.Guard.Evaluate(ctx, models.ViewPanel)
	if !decision.Allow {
		a.Alerts.Warning("Please log in to the device first.")
		return nil, decision, fmt.Errorf("%w: %s", ErrAccessDenied, decision.Reason)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.refresher != nil && !a.refresher.Stopped() {
		return a.refresher, decision, nil
	}

	refresher := poller.NewRefresher(a.Client.Connectivity, a.Config.Polling.Interval)
	if err := refresher.Start(ctx); err != nil {
		return nil, decision, err
	}
	a.refresher = refresher

	return refresher, decision, nil
}

// ClosePanel stops polling, if running.
func (a *App) ClosePanel() {
	a.mu.Lock()
	refresher := a.refresher
	a.refresher = nil
	a.mu.Unlock()

	if refresher != nil {
		refresher.Stop()
	}
}

func (a *App) Close() {
	a.ClosePanel()
	a.unwatch()
	a.Router.Close()
	a.Alerts.Close()
}

func (a *App) watchNavigation(changes <-chan models.View) {
	for view := range changes {
		// Deliveries are latest-wins, so also check the session itself
		if !view.IsProtected() || !a.Session.IsLoggedIn() {
			a.ClosePanel()
		}
	}
}

func messageOr(message, fallback string) string {
	if len(message) == 0 {
		return fallback
	}
	return message
}
