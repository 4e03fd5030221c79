package database

import (
	"fmt"
	"net/url"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ConnectPostgres establishes a connection to the PostgreSQL application store.
// When credential is set it replaces the password carried by the DSN.
func ConnectPostgres(dsn, credential string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn must not be empty")
	}

	resolved, err := withCredential(dsn, credential)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(postgres.Open(resolved), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return db, nil
}

var keywordValueEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func withCredential(dsn, credential string) (string, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return dsn, nil
	}

	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return fmt.Sprintf("%s password='%s'", dsn, keywordValueEscaper.Replace(credential)), nil
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("failed to parse postgres dsn: %w", err)
	}

	username := "postgres"
	if parsed.User != nil && parsed.User.Username() != "" {
		username = parsed.User.Username()
	}
	parsed.User = url.UserPassword(username, credential)

	return parsed.String(), nil
}
