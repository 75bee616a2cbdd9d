package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config represents the console configuration.
type Config struct {
	Connections []Connection `mapstructure:"connections" yaml:"connections"`
	Preferences Preferences  `mapstructure:"preferences" yaml:"preferences"`
}

// Connection represents a saved connection profile.
type Connection struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Database string `mapstructure:"database" yaml:"database"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`

	// PasswordFromKeyring reads the password from the OS keychain, stored
	// under the profile name, instead of the file.
	PasswordFromKeyring bool `mapstructure:"password_from_keyring" yaml:"password_from_keyring,omitempty"`
}

// Preferences holds user preferences.
type Preferences struct {
	Theme             string        `mapstructure:"theme" yaml:"theme"`
	DefaultConnection string        `mapstructure:"default_connection" yaml:"default_connection"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	BatchSize         int           `mapstructure:"batch_size" yaml:"batch_size"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
}

// DSN builds a PostgreSQL connection string using password as the secret.
func (c Connection) DSN(password string) string {
	u := url.URL{Scheme: "postgresql", Host: c.Host, Path: "/" + c.Database}
	if c.Port > 0 {
		u.Host += ":" + strconv.Itoa(c.Port)
	}
	if c.Username != "" {
		if password != "" {
			u.User = url.UserPassword(c.Username, password)
		} else {
			u.User = url.User(c.Username)
		}
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}

// DisplayString returns a human-readable summary of the connection.
func (c Connection) DisplayString() string {
	s := c.Host
	if c.Port > 0 {
		s += ":" + strconv.Itoa(c.Port)
	}
	s += "/" + c.Database
	if c.Username != "" {
		s = c.Username + "@" + s
	}
	return s
}

// ParseDSN parses a PostgreSQL connection string into a Connection.
func ParseDSN(dsn string) (Connection, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return Connection{}, fmt.Errorf("invalid DSN: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return Connection{}, fmt.Errorf("invalid DSN: unsupported scheme %q", u.Scheme)
	}

	conn := Connection{
		Host:     u.Hostname(),
		Database: strings.TrimPrefix(u.Path, "/"),
		SSLMode:  u.Query().Get("sslmode"),
	}

	if u.User != nil {
		conn.Username = u.User.Username()
		if p, ok := u.User.Password(); ok {
			conn.Password = p
		}
	}

	if portStr := u.Port(); portStr != "" {
		conn.Port, _ = strconv.Atoi(portStr)
	}
	if conn.Port == 0 {
		conn.Port = 5432
	}

	conn.Name = fmt.Sprintf("%s-%d-%s", conn.Host, conn.Port, conn.Database)

	return conn, nil
}

// Lookup returns the connection with the given name.
func (cfg *Config) Lookup(name string) (*Connection, bool) {
	for i := range cfg.Connections {
		if cfg.Connections[i].Name == name {
			return &cfg.Connections[i], true
		}
	}
	return nil, false
}

// HasConnection checks if a connection with the given name already exists.
func (cfg *Config) HasConnection(name string) bool {
	_, ok := cfg.Lookup(name)
	return ok
}

// PutConnection adds conn, replacing a profile with the same name.
func (cfg *Config) PutConnection(conn Connection) {
	if existing, ok := cfg.Lookup(conn.Name); ok {
		*existing = conn
		return
	}
	cfg.Connections = append(cfg.Connections, conn)
}

// RemoveConnection deletes the named profile and reports whether it existed.
func (cfg *Config) RemoveConnection(name string) bool {
	for i, c := range cfg.Connections {
		if c.Name == name {
			cfg.Connections = append(cfg.Connections[:i], cfg.Connections[i+1:]...)
			if cfg.Preferences.DefaultConnection == name {
				cfg.Preferences.DefaultConnection = ""
			}
			return true
		}
	}
	return false
}

// DefaultConnection returns the default connection, or the first one.
func (cfg *Config) DefaultConnection() *Connection {
	if len(cfg.Connections) == 0 {
		return nil
	}
	if c, ok := cfg.Lookup(cfg.Preferences.DefaultConnection); ok {
		return c
	}
	return &cfg.Connections[0]
}
