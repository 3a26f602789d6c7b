package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	EnvServerHost         = "FLORACARE_SERVER_HOST"
	EnvServerPort         = "FLORACARE_SERVER_PORT"
	EnvServerReadTimeout  = "FLORACARE_SERVER_READ_TIMEOUT"
	EnvServerWriteTimeout = "FLORACARE_SERVER_WRITE_TIMEOUT"
)

// ServerConfig holds the HTTP listener settings. Timeouts are Go
// duration strings; WriteTimeout covers a full diagnosis run.
type ServerConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	ReadTimeout  string `toml:"read_timeout"`
	WriteTimeout string `toml:"write_timeout"`
}

func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration  { return duration(c.ReadTimeout) }
func (c *ServerConfig) WriteTimeoutDuration() time.Duration { return duration(c.WriteTimeout) }

// Finalize applies defaults, then environment overrides, then validates.
func (c *ServerConfig) Finalize() error {
	fallback(&c.Host, "0.0.0.0")
	fallback(&c.Port, 8080)
	fallback(&c.ReadTimeout, "1m")
	fallback(&c.WriteTimeout, "5m")

	envString(&c.Host, EnvServerHost)
	envInt(&c.Port, EnvServerPort)
	envString(&c.ReadTimeout, EnvServerReadTimeout)
	envString(&c.WriteTimeout, EnvServerWriteTimeout)

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return checkDurations("read_timeout", c.ReadTimeout, "write_timeout", c.WriteTimeout)
}

func (c *ServerConfig) Merge(o *ServerConfig) {
	overlay(&c.Host, o.Host)
	overlay(&c.Port, o.Port)
	overlay(&c.ReadTimeout, o.ReadTimeout)
	overlay(&c.WriteTimeout, o.WriteTimeout)
}
