package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vibecodeauditor/vcaudit/domain"
	"github.com/vibecodeauditor/vcaudit/internal/config"
	"github.com/vibecodeauditor/vcaudit/internal/registry"
	"github.com/vibecodeauditor/vcaudit/internal/store"
)

// dataStore combines the persistence boundaries backed by one store
type dataStore interface {
	domain.FrameworkStore
	domain.ComplianceIssueStore
	domain.ScanStore
}

// newLogger builds the CLI logger. Warnings and errors only unless verbose.
func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}

// loadRegistry builds the rule registry, extended from a YAML rules file
// when one is configured
func loadRegistry(rulesPath string) (*registry.Registry, error) {
	if rulesPath == "" {
		return registry.Default(), nil
	}
	return registry.LoadFile(rulesPath)
}

// openStore opens the configured store backend and seeds the user's
// frameworks from the registry on first use. mapping.frameworks narrows
// the seeded set; empty seeds every registered framework.
func openStore(cfg *config.Config, reg *registry.Registry, userID string) (dataStore, error) {
	frameworks := reg.Frameworks(cfg.Mapping.Frameworks...)

	switch cfg.Storage.Backend {
	case "memory":
		s := store.NewMemoryStore()
		s.SeedFrameworks(userID, frameworks)
		return s, nil
	case "file", "":
		dataDir := cfg.Storage.DataDir
		if dataDir == "" {
			dataDir = config.DefaultDataDir
		}
		s, err := store.NewFileStore(dataDir)
		if err != nil {
			return nil, err
		}
		if err := s.SeedFrameworks(userID, frameworks); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}
