package device

import (
	"crypto/subtle"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/smartbedding/panel/internal/models"
)

const bearerPrefix = "Bearer "

// Simulator holds the state of a single bed controller: the pairing code it
// accepts and the one session token it currently honours.
type Simulator struct {
	code         string
	connectivity models.ConnectivityAnswer

	mu    sync.RWMutex
	token string
}

func NewSimulator(code string, connectivity models.ConnectivityAnswer) *Simulator {
	return &Simulator{
		code:         code,
		connectivity: connectivity,
	}
}

// Pair checks the code and issues a fresh token. Any previously issued token
// stops working.
func (s *Simulator) Pair(code string) (string, bool) {
	if subtle.ConstantTimeCompare([]byte(code), []byte(s.code)) != 1 {
		return "", false
	}

	token := uuid.NewString()

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	return token, true
}

// Authorized reports whether the Authorization header carries the current token.
func (s *Simulator) Authorized(header string) bool {
	if !strings.HasPrefix(header, bearerPrefix) {
		return false
	}
	presented := strings.TrimPrefix(header, bearerPrefix)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.token) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(s.token)) == 1
}

// Revoke forgets the current token, as a controller reboot would.
func (s *Simulator) Revoke() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}

func (s *Simulator) Connectivity() models.ConnectivityAnswer {
	return s.connectivity
}
