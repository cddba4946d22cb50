package storage

import (
	"fmt"

	"github.com/bullpost/bullpost-client/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "bullpost/"

// New opens the storage backend selected by STORAGE_BACKEND
func New(cfg *config.Config) (StorageInterface, error) {
	switch cfg.StorageBackend {
	case "file":
		logrus.Debugf("Using file storage in %s", cfg.StateDir)
		return NewFileStorage(cfg.StateDir)
	case "azure":
		logrus.Debugf("Using Azure Blob Storage account %s", cfg.StorageAccount)
		return NewAzureStorage(cfg.StorageAccount, cfg.StorageContainer, keyPrefix)
	case "redis":
		logrus.Debugf("Using Redis at %s", cfg.RedisAddr)
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisStorage(client, keyPrefix), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}
