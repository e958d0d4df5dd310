/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Backend names.
const (
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Env holds backend connection settings read from the environment.
type Env struct {
	Backend string

	AWSAccessKey string
	AWSSecretKey string
	AWSRegion    string
	AWSEndpoint  string
	DDBTable     string

	MongoURI      string
	MongoDatabase string

	PostgresURL string
	SQLitePath  string

	OptionsFile string
	LogLevel    string
	LogPretty   bool
}

// LoadEnv reads settings from the process environment, after loading any
// of the given .env files that exist. Without files, ./.env is tried.
func LoadEnv(files ...string) *Env {
	_ = godotenv.Load(files...)

	return &Env{
		Backend: strings.ToLower(getEnv("SOFTDELETE_BACKEND", BackendMemory)),

		AWSAccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		AWSEndpoint:  getEnv("AWS_ENDPOINT_URL", ""),
		DDBTable:     getEnv("DDB_TABLE_NAME", ""),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "softdelete"),

		PostgresURL: getEnv("POSTGRES_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "softdelete.db"),

		OptionsFile: getEnv("SOFTDELETE_OPTIONS", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogPretty:   getEnv("LOG_PRETTY", "false") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
