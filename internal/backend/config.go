// Package backend opens the configured ledger store and import markers.
package backend

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"bookkeep/internal/config"
	"bookkeep/internal/retry"
)

// BackendType names a ledger store implementation.
type BackendType string

const (
	MemoryBackend    BackendType = "memory"
	SQLiteBackend    BackendType = "sqlite"
	FirestoreBackend BackendType = "firestore"
)

var backendTypes = []BackendType{MemoryBackend, SQLiteBackend, FirestoreBackend}

func (bt BackendType) String() string { return string(bt) }

func (bt BackendType) IsValid() bool {
	for _, t := range backendTypes {
		if t == bt {
			return true
		}
	}
	return false
}

func errUnknownType(t string) error {
	names := make([]string, len(backendTypes))
	for i, bt := range backendTypes {
		names[i] = bt.String()
	}
	return fmt.Errorf("unknown backend %q: want one of %s", t, strings.Join(names, ", "))
}

type Config struct {
	Type BackendType

	SeedFile     string
	SQLiteDBPath string

	FirestoreProjectID    string
	GoogleCredentialsFile string

	// Every store call goes through this policy.
	Retry retry.Policy

	// Redis markers are used when RedisAddr is set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	MarkerTTL     time.Duration
}

// FromAppConfig picks the backend settings out of the process config.
func FromAppConfig(app *config.Config) (Config, error) {
	if app == nil {
		return Config{}, errors.New("app config is nil")
	}
	t := BackendType(app.DataBackend)
	if !t.IsValid() {
		return Config{}, errUnknownType(app.DataBackend)
	}
	return Config{
		Type:                  t,
		SeedFile:              app.SeedFile,
		SQLiteDBPath:          app.SQLiteDBPath,
		FirestoreProjectID:    app.FirestoreProjectID,
		GoogleCredentialsFile: app.GoogleCredentialsFile,
		Retry: retry.Policy{
			MaxAttempts: app.StoreRetryAttempts,
			BaseDelay:   app.StoreRetryBaseDelay,
			MaxDelay:    app.StoreRetryMaxDelay,
		},
		RedisAddr:     app.RedisAddr,
		RedisPassword: app.RedisPassword,
		RedisDB:       app.RedisDB,
		MarkerTTL:     app.ImportMarkerTTL,
	}, nil
}

// Validate checks the settings the selected backend needs. An empty seed
// file is fine for memory.
func (c Config) Validate() error {
	switch c.Type {
	case MemoryBackend:
		return nil
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("sqlite backend needs a database path")
		}
		return nil
	case FirestoreBackend:
		if c.FirestoreProjectID == "" {
			return errors.New("firestore backend needs a project id")
		}
		return nil
	}
	return errUnknownType(c.Type.String())
}
