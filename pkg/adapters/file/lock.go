package file

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/nvencoder/pkg/ports"
)

// DefaultLockDir is where lock files live when no directory is configured.
var DefaultLockDir = filepath.Join(".nvencoder", "locks")

// ErrLockAcquire is returned when the lock file cannot be created or read.
var ErrLockAcquire = errors.New("failed to acquire file lock")

var errCorruptLock = errors.New("corrupt lock file")

// corruptGrace is how long an unreadable lock file is left to its writer.
const corruptGrace = time.Minute

// lockFile is the content of a held lock.
type lockFile struct {
	Key       string    `json:"key"`
	Token     string    `json:"token"`
	PID       int       `json:"pid"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

func (l lockFile) expired(now time.Time) bool {
	return !l.ExpiresAt.IsZero() && now.After(l.ExpiresAt)
}

// Locker implements ports.DistributedLocker with lock files created with
// O_EXCL, so separate processes sharing Dir exclude each other.
// A lock whose ttl has passed is stale and may be taken over; a zero ttl
// never expires.
type Locker struct {
	Dir      string
	interval time.Duration
	now      func() time.Time
}

// NewLocker creates a locker keeping its files in dir.
// If dir is empty, it defaults to DefaultLockDir.
func NewLocker(dir string) *Locker {
	if dir == "" {
		dir = DefaultLockDir
	}
	return &Locker{Dir: dir, interval: 100 * time.Millisecond, now: time.Now}
}

// Path returns the lock file used for key.
func (l *Locker) Path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(l.Dir, hex.EncodeToString(sum[:12])+".lock")
}

// Lock creates the lock file for key, polling until it is free or stale.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLockAcquire, err)
	}
	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLockAcquire, err)
	}
	path := l.Path(key)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		held := lockFile{Key: key, Token: token, PID: os.Getpid()}
		if ttl > 0 {
			held.ExpiresAt = l.now().Add(ttl)
		}
		ok, err := l.create(path, held)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLockAcquire, err)
		}
		if ok {
			return func(context.Context) error { return l.release(path, token) }, nil
		}
		if l.reclaim(path, token) {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// create writes the lock file unless it already exists.
func (l *Locker) create(path string, held lockFile) (bool, error) {
	data, err := json.Marshal(held)
	if err != nil {
		return false, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, err
	}
	_, werr := f.Write(data)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(path)
		return false, err
	}
	return true, nil
}

// reclaim removes a stale lock file. The file is first renamed to a name
// only this caller uses, so two waiters cannot both remove it; if the moved
// file turns out to be a fresh lock it is linked back.
func (l *Locker) reclaim(path, token string) bool {
	stale, err := readLock(path)
	switch {
	case errors.Is(err, errCorruptLock):
		// A holder that died between create and write leaves an empty file.
		info, serr := os.Stat(path)
		if serr != nil || l.now().Sub(info.ModTime()) < corruptGrace {
			return false
		}
	case err != nil || !stale.expired(l.now()):
		return false
	}
	grave := path + "." + token + ".stale"
	if err := os.Rename(path, grave); err != nil {
		return false
	}
	moved, err := readLock(grave)
	if err == nil && moved.Token != stale.Token {
		if os.Link(grave, path) == nil {
			_ = os.Remove(grave)
			return false
		}
	}
	_ = os.Remove(grave)
	return true
}

// release removes the lock file while it still holds token.
func (l *Locker) release(path, token string) error {
	held, err := readLock(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if held.Token != token {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

func readLock(path string) (lockFile, error) {
	var held lockFile
	data, err := os.ReadFile(path)
	if err != nil {
		return held, err
	}
	if err := json.Unmarshal(data, &held); err != nil {
		return held, fmt.Errorf("%w %s: %v", errCorruptLock, path, err)
	}
	return held, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
