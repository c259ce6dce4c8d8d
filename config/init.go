package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/database"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/logger"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/tracing"
)

type Config struct {
	AppConfig       *AppConfig
	Logger          *logger.Config
	Tracing         *tracing.JaegerConfig
	DatabaseConfig  *database.DatabaseConfig
	StorageConfig   *StorageConfig
	IngestionConfig *IngestionConfig
	DispatchConfig  *DispatchConfig
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:       &AppConfig{},
		Logger:          &logger.Config{},
		Tracing:         &tracing.JaegerConfig{},
		DatabaseConfig:  &database.DatabaseConfig{},
		StorageConfig:   &StorageConfig{},
		IngestionConfig: &IngestionConfig{},
		DispatchConfig:  &DispatchConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		return nil, err
	}

	return config, nil
}
