package database

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/lmojica26/womenhealthytips.com/internal/config"
)

// cloudSQLSocketDir is where Cloud Run mounts Cloud SQL instance sockets.
const cloudSQLSocketDir = "/cloudsql"

// ResolveURL returns the connection string for cfg. An explicit URL is used
// as is; otherwise a unix socket DSN is built for the managed instance.
func ResolveURL(cfg config.DatabaseConfig) (string, error) {
	if cfg.URL != "" {
		return cfg.URL, nil
	}
	if cfg.Instance == "" {
		return "", fmt.Errorf("neither DATABASE_URL nor INSTANCE_CONNECTION_NAME is set")
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", fmt.Errorf("DB_USER and DB_NAME must be set when using INSTANCE_CONNECTION_NAME")
	}

	dsn := fmt.Sprintf("host=%s/%s user=%s dbname=%s sslmode=disable", cloudSQLSocketDir, cfg.Instance, cfg.User, cfg.Name)
	if cfg.Password != "" {
		// IAM authentication connects without a password.
		dsn += " password=" + cfg.Password
	}
	return dsn, nil
}

var passwordPair = regexp.MustCompile(`password=\S+`)

// Redact masks the password in a URL or key/value DSN for logging.
func Redact(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "***")
		}
		return u.String()
	}
	return passwordPair.ReplaceAllString(dsn, "password=***")
}
