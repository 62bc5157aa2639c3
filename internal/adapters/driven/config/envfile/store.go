// Package envfile persists the credential set as a flat KEY=value file,
// the format consumed by the automation environments this tool feeds.
//
// Recognised keys are TENANT_ID, CLIENT_ID, CLIENT_SECRET and
// REFRESH_TOKEN. Comments and unrecognised keys are preserved across
// rewrites so the file can double as a general .env file.
package envfile

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/rollcall-labs/rollcall/internal/core/domain"
	"github.com/rollcall-labs/rollcall/internal/logger"
)

// Credential file keys.
const (
	KeyTenantID     = "TENANT_ID"
	KeyClientID     = "CLIENT_ID"
	KeyClientSecret = "CLIENT_SECRET"
	KeyRefreshToken = "REFRESH_TOKEN"
)

// DefaultFileName is the credential file name under the rollcall home dir.
const DefaultFileName = "credentials.env"

// Store reads and writes a credential env file.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store for the given path. An empty path resolves to
// ~/.rollcall/credentials.env.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		path = filepath.Join(home, ".rollcall", DefaultFileName)
	}
	return &Store{path: path}, nil
}

// Path returns the credential file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the credential set from the file. A missing file yields an
// empty credential set rather than an error, so first-run setup can
// detect and report the missing fields itself.
func (s *Store) Load() (domain.CredentialSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (domain.CredentialSet, error) {
	var creds domain.CredentialSet

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return creds, nil
		}
		return creds, fmt.Errorf("open credential file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	// Refresh tokens run well past bufio's default 64K line limit margin
	// leaves room for future growth.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		key, value, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		switch key {
		case KeyTenantID:
			creds.TenantID = value
		case KeyClientID:
			creds.ClientID = value
		case KeyClientSecret:
			creds.ClientSecret = value
		case KeyRefreshToken:
			creds.RefreshToken = value
		}
	}
	if err := scanner.Err(); err != nil {
		return creds, fmt.Errorf("read credential file: %w", err)
	}

	return creds, nil
}

// Save writes the full credential set, preserving comments and unknown
// keys already in the file. The file is written with 0600 permissions.
func (s *Store) Save(creds domain.CredentialSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rewrite(map[string]string{
		KeyTenantID:     creds.TenantID,
		KeyClientID:     creds.ClientID,
		KeyClientSecret: creds.ClientSecret,
		KeyRefreshToken: creds.RefreshToken,
	})
}

// UpdateRefreshToken replaces only the refresh token, leaving the rest of
// the file untouched. Called after every exchange that rotates the token.
func (s *Store) UpdateRefreshToken(refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rewrite(map[string]string{
		KeyRefreshToken: refreshToken,
	})
}

// rewrite merges updates into the existing file content.
func (s *Store) rewrite(updates map[string]string) error {
	var lines []string
	seen := make(map[string]bool)

	if data, err := os.ReadFile(s.path); err == nil {
		for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
			key, _, ok := parseLine(line)
			if ok {
				if newValue, has := updates[key]; has {
					lines = append(lines, key+"="+newValue)
					seen[key] = true
					continue
				}
			}
			lines = append(lines, line)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read credential file: %w", err)
	}

	// Append keys not already present, in a stable order.
	for _, key := range []string{KeyTenantID, KeyClientID, KeyClientSecret, KeyRefreshToken} {
		if value, has := updates[key]; has && !seen[key] {
			lines = append(lines, key+"="+value)
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create credential directory: %w", err)
	}

	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(s.path, []byte(content), 0600); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}

	return nil
}

// parseLine splits a KEY=value line, skipping blanks and comments.
func parseLine(line string) (key, value string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", "", false
	}
	key, value, found := strings.Cut(trimmed, "=")
	if !found {
		return "", "", false
	}
	return strings.TrimSpace(key), strings.TrimSpace(value), true
}

// Watch emits the credential set whenever the file changes on disk, so a
// long-running poll sees a refresh token rotated by a concurrent run.
// The channel closes when ctx is cancelled.
func (s *Store) Watch(ctx context.Context) (<-chan domain.CredentialSet, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory: editors and atomic writes replace the file,
	// which drops a watch registered on the file itself.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch credential directory: %w", err)
	}

	out := make(chan domain.CredentialSet, 1)
	go func() {
		defer close(out)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != s.path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				creds, err := s.Load()
				if err != nil {
					logger.Warn("envfile: reload failed: %v", err)
					continue
				}
				select {
				case out <- creds:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("envfile: watch error: %v", err)
			}
		}
	}()

	return out, nil
}
