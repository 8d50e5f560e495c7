package cli

import (
	"context"
	"fmt"
	"path/filepath"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/nvencoder/internal/config"
	"github.com/aretw0/nvencoder/pkg/adapters/file"
	"github.com/aretw0/nvencoder/pkg/adapters/memory"
	redisadapter "github.com/aretw0/nvencoder/pkg/adapters/redis"
	"github.com/aretw0/nvencoder/pkg/ports"
)

// Persistence bundles the result store and the batch locker of one backend.
type Persistence struct {
	Store  ports.ResultStore
	Locker ports.DistributedLocker
	close  func() error
}

// Close releases backend connections.
func (p Persistence) Close() error {
	if p.close == nil {
		return nil
	}
	return p.close()
}

// OpenPersistence opens the configured backend. Relative file store
// directories and the lock directory are resolved against baseDir. The redis backend is pinged so
// a wrong address fails before any encoding starts.
func OpenPersistence(ctx context.Context, sc config.StoreConfig, baseDir string) (Persistence, error) {
	switch sc.Backend {
	case config.StoreMemory:
		return Persistence{Store: memory.NewStore(), Locker: memory.NewLocker()}, nil

	case config.StoreFile:
		dir := sc.Dir
		if dir == "" {
			dir = file.DefaultDir
		}
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(baseDir, dir)
		}
		locks := filepath.Join(baseDir, file.DefaultLockDir)
		return Persistence{Store: file.New(dir), Locker: file.NewLocker(locks)}, nil

	case config.StoreRedis:
		client := backend.NewClient(&backend.Options{
			Addr:     sc.RedisAddr,
			Password: sc.RedisPassword,
			DB:       sc.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return Persistence{}, fmt.Errorf("failed to connect to redis at %s: %w", sc.RedisAddr, err)
		}
		opts := []redisadapter.Option{redisadapter.WithTTL(sc.TTL)}
		if sc.RedisPrefix != "" {
			opts = append(opts, redisadapter.WithPrefix(sc.RedisPrefix))
		}
		return Persistence{
			Store:  redisadapter.NewFromClient(client, opts...),
			Locker: redisadapter.NewLocker(client, sc.RedisPrefix),
			close:  client.Close,
		}, nil
	}
	return Persistence{}, fmt.Errorf("unknown store backend %q", sc.Backend)
}
