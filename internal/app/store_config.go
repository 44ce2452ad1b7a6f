package app

import (
	"strings"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/database"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/store"
)

// StoreOptions converts the store configuration into the store package representation.
// Host-based settings are taken from the block matching the selected driver.
func (c StoreConfig) StoreOptions() store.Config {
	sql := database.Config{
		Driver: c.Driver,
		Path:   strings.TrimSpace(c.Path),
		DSN:    strings.TrimSpace(c.DSN),
	}

	var auth DBAuthConfig
	switch database.NormaliseDriver(c.Driver) {
	case "postgres":
		auth = c.Postgres
	case "mysql":
		auth = c.MySQL
	}
	sql.Host = strings.TrimSpace(auth.Host)
	sql.Port = auth.Port
	sql.Name = strings.TrimSpace(auth.Database)
	sql.User = strings.TrimSpace(auth.Username)
	sql.Password = auth.Password

	return store.Config{
		Driver: c.Driver,
		SQL:    sql,
		Mongo: store.MongoConfig{
			URI:      strings.TrimSpace(c.MongoDB.URI),
			Database: strings.TrimSpace(c.MongoDB.Database),
		},
	}
}
