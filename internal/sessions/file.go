package sessions

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const sessionFileVersion = "1.0"

// DeviceSession is the on-disk layout of a device session file.
type DeviceSession struct {
	Version   string            `yaml:"version"`
	Timestamp time.Time         `yaml:"timestamp"`
	Values    map[string]string `yaml:"values"`
}

// FileStore persists the token as YAML under <dir>/<device>.yaml so that it
// survives a restart of the process. The in-memory copy only changes after the
// file has been replaced, so a failed write leaves both untouched.
type FileStore struct {
	lock    sync.RWMutex
	path    string
	session DeviceSession
}

// NewFileStore opens (or creates) the session file for the given device host.
func NewFileStore(dir string, device string) (*FileStore, error) {

	if len(dir) == 0 {
		return nil, fmt.Errorf("session directory is not configured")
	}

	if !IsValidDeviceName(device) {
		return nil, fmt.Errorf("invalid device name: %s", device)
	}

	dir, err := expandHome(dir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	store := &FileStore{
		path: filepath.Join(dir, fmt.Sprintf("%s.yaml", device)),
	}

	if err := store.Load(); err != nil {
		return nil, err
	}

	return store, nil
}

func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Set(token string) error {
	if len(token) == 0 {
		return ErrInvalidToken
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	next := f.session.clone()
	next.Values[AccessTokenKey] = token

	logrus.WithFields(logrus.Fields{
		"path": f.path,
	}).Debugln("Storing device session token")

	return f.commit(next)
}

func (f *FileStore) Get() (string, bool) {
	f.lock.RLock()
	defer f.lock.RUnlock()

	token, ok := f.session.Values[AccessTokenKey]
	return token, ok && len(token) > 0
}

func (f *FileStore) Clear() error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if _, ok := f.session.Values[AccessTokenKey]; !ok {
		return nil
	}

	next := f.session.clone()
	delete(next.Values, AccessTokenKey)

	logrus.WithFields(logrus.Fields{
		"path": f.path,
	}).Debugln("Clearing device session token")

	err := f.commit(next)
	if err == nil {
		return nil
	}

	// The file holds nothing but session values, so removing it also
	// destroys the token.
	if rmErr := os.Remove(f.path); rmErr != nil && !os.IsNotExist(rmErr) {
		return errors.Join(err, rmErr)
	}

	logrus.WithError(err).Warnf("Removed session file %s after failed rewrite", f.path)
	f.session = next
	return nil
}

// Load re-reads the session file from disk.
func (f *FileStore) Load() error {
	f.lock.Lock()
	defer f.lock.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read session file: %w", err)
	}

	if len(data) == 0 {
		f.session = newDeviceSession()
		return nil
	}

	var session DeviceSession
	if err := yaml.Unmarshal(data, &session); err != nil {
		logrus.WithError(err).Errorf("Failed to parse session file %s, reinitializing", f.path)
		f.session = newDeviceSession()
		return nil
	}

	if session.Values == nil {
		session.Values = make(map[string]string)
	}

	f.session = session
	return nil
}

// commit writes next to disk and adopts it only once the file is in place.
// Callers must hold the write lock.
func (f *FileStore) commit(next DeviceSession) error {
	next.Timestamp = time.Now().UTC()

	data, err := yaml.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	// Only allow read/write access to the owner
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace session file: %w", err)
	}

	f.session = next
	return nil
}

func (s DeviceSession) clone() DeviceSession {
	values := make(map[string]string, len(s.Values))
	for k, v := range s.Values {
		values[k] = v
	}
	s.Values = values
	return s
}

func newDeviceSession() DeviceSession {
	return DeviceSession{
		Version:   sessionFileVersion,
		Timestamp: time.Now().UTC(),
		Values:    make(map[string]string),
	}
}

// IsValidDeviceName accepts hostnames and host:port pairs, nothing that could
// escape the session directory.
func IsValidDeviceName(name string) bool {
	if len(name) == 0 || len(name) > 255 {
		return false
	}
	if strings.Contains(name, "..") {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '-', r == '_', r == ':':
		default:
			return false
		}
	}
	return true
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
