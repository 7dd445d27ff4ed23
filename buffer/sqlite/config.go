package sqlite

import "strings"

// Config holds the SQLite connection settings.
type Config struct {
	file  string
	conns int
}

type ConfigFunc = func(c *Config)

// WithFile sets the database file. The default ":memory:" keeps the queue in
// a private in-memory database that disappears with the process.
func WithFile(file string) ConfigFunc {
	file = strings.TrimSpace(file)
	if file == "" {
		panic("file can't be blank")
	}
	if strings.Contains(file, "?") {
		panic("file can't contain ?")
	}
	return func(c *Config) {
		c.file = file
	}
}

// WithConns sets the maximum number of open connections.
func WithConns(conns int) ConfigFunc {
	if conns < 1 {
		panic("conns can't be < 1")
	}
	return func(c *Config) {
		c.conns = conns
	}
}
