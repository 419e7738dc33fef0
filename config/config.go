// Package config holds the serving configuration of freshserv.
package config

import (
	"net"
	"strconv"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultHost is the loopback address the server binds to.
	DefaultHost = "127.0.0.1"

	// DefaultPort is the fixed port of the development server.
	DefaultPort = 8080

	// DefaultRoot is the directory the files are served from.
	DefaultRoot = "."
)

// Config is passed into the server constructor explicitly. There are no
// flag, environment or file sources for it in this version.
type Config struct {
	// Host is the address to bind. Loopback by default so the server is
	// reachable from the developer's machine only.
	Host string `validate:"required,ip|hostname"`

	// Port is the TCP port to bind. Zero asks the kernel for a free one.
	Port int `validate:"gte=0,lte=65535"`

	// Root is the directory request paths are resolved against.
	Root string `validate:"required,dir"`

	// Metrics mounts /metrics ahead of the file handler and starts the
	// process sampler. Off in the default configuration.
	Metrics bool

	// JournalPath, when set, opens a bolt journal there and records one
	// entry per served request. Empty means no journal and no file.
	JournalPath string
}

var validate = validator.New()

// Default returns the fixed configuration of the development server.
func Default() Config {
	return Config{
		Host: DefaultHost,
		Port: DefaultPort,
		Root: DefaultRoot,
	}
}

// Validate reports the first invalid field, if any.
func (c Config) Validate() error {
	return validate.Struct(c)
}

// Addr returns the host:port string to bind.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
