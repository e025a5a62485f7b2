package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sushihentaime/lessonhub/internal/common"
)

func main() {
	source := pflag.String("path", "file://migrations", "migration source URL")
	envFile := pflag.String("env", ".env", "env file holding the POSTGRES_* settings")
	steps := pflag.Int("steps", 0, "number of migrations to apply, negative to roll back; 0 applies all")
	down := pflag.Bool("down", false, "roll back every migration")
	pflag.Parse()

	logger, err := common.NewLogger("development", "info")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	dsn, err := databaseURL(*envFile)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	m, err := migrate.New(*source, dsn)
	if err != nil {
		logger.Fatal("failed to open migrations", zap.Error(err))
	}
	defer m.Close()

	switch {
	case *down:
		err = m.Down()
	case *steps != 0:
		err = m.Steps(*steps)
	default:
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal("migration failed", zap.Error(err))
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		logger.Fatal("could not read schema version", zap.Error(err))
	}

	logger.Info("migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
}

func databaseURL(envFile string) (string, error) {
	v := viper.New()
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.AutomaticEnv()

	if _, err := os.Stat(envFile); err == nil {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return "", err
		}
	}

	user := v.GetString("POSTGRES_USER")
	name := v.GetString("POSTGRES_DB")
	if user == "" || name == "" {
		return "", errors.New("POSTGRES_USER and POSTGRES_DB must be set")
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		user, v.GetString("POSTGRES_PASSWORD"), v.GetString("POSTGRES_HOST"), v.GetString("POSTGRES_PORT"), name), nil
}
