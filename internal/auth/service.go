package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/smartbedding/panel/internal/client"
	"github.com/smartbedding/panel/internal/common"
	"github.com/smartbedding/panel/internal/models"
	"github.com/smartbedding/panel/internal/navigation"
	"github.com/smartbedding/panel/internal/sessions"
)

// ErrInvalidCode is returned for codes that are rejected locally, before any
// request is made.
var ErrInvalidCode = errors.New("please enter a valid numeric code")

// DeviceAPI is the subset of the device client the session service needs.
type DeviceAPI interface {
	Login(ctx context.Context, code string) (*models.ApiResponse[string], error)
	Verify(ctx context.Context) (*models.ApiResponse[json.RawMessage], error)
}

// Service owns the session: it is the only writer of the token store and
// the single source of truth for whether a session is active.
type Service struct {
	store     sessions.TokenStore
	api       DeviceAPI
	navigator navigation.Navigator

	// serializes writes to the store
	lock sync.Mutex
}

func NewService(store sessions.TokenStore, api DeviceAPI, navigator navigation.Navigator) *Service {
	if navigator == nil {
		navigator = navigation.NavigatorFunc(func(models.View) {})
	}
	return &Service{
		store:     store,
		api:       api,
		navigator: navigator,
	}
}

// ValidateCode rejects empty and non-numeric codes.
func ValidateCode(code string) error {
	if !common.IsNumericCode(strings.TrimSpace(code)) {
		return ErrInvalidCode
	}
	return nil
}

// Login exchanges a one-time code for a token. A failed attempt never touches
// the token store.
func (s *Service) Login(ctx context.Context, code string) (models.AuthResult, error) {

	if err := ValidateCode(code); err != nil {
		return models.Rejected(err.Error()), err
	}

	res, err := s.api.Login(ctx, strings.TrimSpace(code))
	if err != nil {
		logrus.WithError(err).Errorln("Login request failed")
		return models.Rejected("could not connect to the device"), fmt.Errorf("login failed: %w", err)
	}

	if !res.Accepted() || len(*res.Data) == 0 {
		message := res.GetMessage()
		if len(message) == 0 {
			message = "unknown error"
		}
		logrus.WithFields(logrus.Fields{
			"message": message,
		}).Warnln("Login rejected by device")
		return models.Rejected(message), nil
	}

	s.lock.Lock()
	err = s.store.Set(*res.Data)
	s.lock.Unlock()

	if err != nil {
		return models.Rejected("failed to store session"), fmt.Errorf("failed to store token: %w", err)
	}

	logrus.Infoln("Login successful")
	s.navigator.Navigate(models.ViewPanel)

	return models.Accepted(res.GetMessage()), nil
}

// Verify asks the device whether the stored token is still honored. Any
// outcome other than an explicit acceptance closes the session before
// returning; transport failures are treated the same way.
func (s *Service) Verify(ctx context.Context) (models.AuthResult, error) {

	res, err := s.api.Verify(ctx)

	if err != nil {
		s.HandleUnauthorized()

		if errors.Is(err, client.ErrUnauthorized) {
			message := "session rejected by device"
			if res != nil && len(res.GetMessage()) > 0 {
				message = res.GetMessage()
			}
			return models.Rejected(message), nil
		}

		logrus.WithError(err).Warnln("Could not confirm session with device")
		return models.Rejected("could not confirm session"), fmt.Errorf("verify failed: %w", err)
	}

	if !res.Result {
		s.HandleUnauthorized()
		return models.Rejected(res.GetMessage()), nil
	}

	return models.Accepted(res.GetMessage()), nil
}

// HandleUnauthorized clears the token and returns to the entry view. It is
// safe to call concurrently; only the call that actually removes a token has
// any visible effect.
func (s *Service) HandleUnauthorized() {
	if s.closeSession() {
		logrus.Infoln("Session closed after authorization failure")
		s.navigator.Navigate(models.ViewEntry)
	}
}

// Logout ends the session on user request.
func (s *Service) Logout() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	logrus.Infoln("Logged out")
	s.navigator.Navigate(models.ViewEntry)
	return nil
}

// IsLoggedIn is a local check only, it never contacts the device.
func (s *Service) IsLoggedIn() bool {
	_, ok := s.store.Get()
	return ok
}

func (s *Service) closeSession() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.store.Get(); !ok {
		return false
	}

	if err := s.store.Clear(); err != nil {
		logrus.WithError(err).Errorln("Failed to clear session")
	}

	return true
}
