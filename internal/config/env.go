// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/xtding233/encounter-backend/internal/party"
)

// Server is the runtime configuration of cmd/server.
type Server struct {
	HTTPAddr       string        `env:"ENCOUNTER_HTTP_ADDR" envDefault:":8080"`
	GRPCAddr       string        `env:"ENCOUNTER_GRPC_ADDR" envDefault:":9090"`
	DataDir        string        `env:"ENCOUNTER_DATA_DIR" envDefault:"./data"`
	DBPath         string        `env:"ENCOUNTER_DB_PATH"`
	ReloadInterval time.Duration `env:"ENCOUNTER_RELOAD_INTERVAL" envDefault:"2s"`
	AllowedPlayers string        `env:"ENCOUNTER_ALLOWED_PLAYERS"`
	MaxTrials      int           `env:"ENCOUNTER_MAX_TRIALS" envDefault:"100000"`
}

// Players returns the allowed players, trimmed with blanks dropped.
func (s Server) Players() []string {
	return party.ParseNames(s.AllowedPlayers)
}

// Importer is the runtime configuration of cmd/catalog-importer.
type Importer struct {
	DataDir string `env:"ENCOUNTER_DATA_DIR" envDefault:"./data"`
	DBPath  string `env:"ENCOUNTER_DB_PATH" envDefault:"./data/catalog.db"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
