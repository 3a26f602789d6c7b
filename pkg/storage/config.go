package storage

import (
	"errors"
	"os"
	"strings"
)

// Config selects the blob account and where images are written.
// ConnectionString (shared key, e.g. Azurite) and ServiceURL (Entra ID)
// are mutually exclusive. Leaving both empty disables storage and
// uploads are kept in a local directory instead.
type Config struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	ServiceURL       string `toml:"service_url"`
	ImagePrefix      string `toml:"image_prefix"`
}

// Env names the environment variables that override Config fields.
type Env struct {
	ContainerName    string
	ConnectionString string
	ServiceURL       string
	ImagePrefix      string
}

func (c *Config) Enabled() bool {
	return c.ConnectionString != "" || c.ServiceURL != ""
}

func (c *Config) Finalize(env *Env) error {
	if c.ContainerName == "" {
		c.ContainerName = "plant-images"
	}
	if c.ImagePrefix == "" {
		c.ImagePrefix = "images"
	}

	if env != nil {
		for dst, name := range map[*string]string{
			&c.ContainerName:    env.ContainerName,
			&c.ConnectionString: env.ConnectionString,
			&c.ServiceURL:       env.ServiceURL,
			&c.ImagePrefix:      env.ImagePrefix,
		} {
			if v := lookup(name); v != "" {
				*dst = v
			}
		}
	}

	switch {
	case c.ContainerName == "":
		return errors.New("container_name required")
	case c.ConnectionString != "" && c.ServiceURL != "":
		return errors.New("connection_string and service_url are mutually exclusive")
	case strings.Contains(c.ImagePrefix, ".."):
		return errors.New("image_prefix contains invalid path segment")
	}
	return nil
}

func (c *Config) Merge(overlay *Config) {
	for dst, v := range map[*string]string{
		&c.ContainerName:    overlay.ContainerName,
		&c.ConnectionString: overlay.ConnectionString,
		&c.ServiceURL:       overlay.ServiceURL,
		&c.ImagePrefix:      overlay.ImagePrefix,
	} {
		if v != "" {
			*dst = v
		}
	}
}

func lookup(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
