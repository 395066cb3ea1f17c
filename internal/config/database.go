// internal/config/database.go
package config

import (
	"fmt"
	"time"
)

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

func (d *DatabaseConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(d.MaxLifetime) * time.Second
}
