package appconfig

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

var ErrNoRegistry = errors.New("no registry server is given")

type Context struct {
	Name            string `mapstructure:"name" yaml:"name"`
	Registry        string `mapstructure:"registry" yaml:"registry"`
	GitLab          string `mapstructure:"gitlab" yaml:"gitlab,omitempty"`
	User            string `mapstructure:"user" yaml:"user,omitempty"`
	Password        string `mapstructure:"password" yaml:"password,omitempty"`
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file,omitempty"`
}

type Config struct {
	Contexts       []Context `mapstructure:"contexts"`
	CurrentContext string    `mapstructure:"current_context"`
	Workers        int       `mapstructure:"workers"`
	Sort           string    `mapstructure:"sort"`
	Output         string    `mapstructure:"output"`
	Verbose        bool      `mapstructure:"verbose"`
}

func (c *Config) FindContext(name string) (*Context, error) {
	for i := range c.Contexts {
		if c.Contexts[i].Name == name {
			return &c.Contexts[i], nil
		}
	}
	return nil, fmt.Errorf("could not find context '%v'", name)
}

func (c *Config) findCurrentContext() (*Context, error) {
	if c.CurrentContext == "" {
		return nil, fmt.Errorf("could not find current context")
	}
	return c.FindContext(c.CurrentContext)
}

// SetContext adds ctx or replaces the context with the same name.
func (c *Config) SetContext(ctx Context) {
	ctx.Registry = NormalizeServer(ctx.Registry)
	ctx.GitLab = NormalizeServer(ctx.GitLab)
	if existing, err := c.FindContext(ctx.Name); err == nil {
		*existing = ctx
		return
	}
	c.Contexts = append(c.Contexts, ctx)
}

// DeleteContext removes the named context and reports whether it existed.
// Deleting the current context leaves no context active.
func (c *Config) DeleteContext(name string) bool {
	kept := make([]Context, 0, len(c.Contexts))
	for _, ctx := range c.Contexts {
		if ctx.Name != name {
			kept = append(kept, ctx)
		}
	}
	if len(kept) == len(c.Contexts) {
		return false
	}
	c.Contexts = kept
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return true
}

func (c *Config) CurrentRegistry() string {
	currentContext, err := c.findCurrentContext()
	if err != nil {
		return ""
	}
	return currentContext.Registry
}

// Resolve returns the effective connection settings: non-empty fields of
// overrides win over the current context. A password is only kept while it
// belongs to the resolved user. Credentials missing from both are read from
// the credentials file when one is given, unless an overriding user names
// someone else.
func (c *Config) Resolve(overrides Context) (Context, error) {
	var res Context
	if current, err := c.findCurrentContext(); err == nil {
		res = *current
	}
	if overrides.Registry != "" {
		res.Registry = overrides.Registry
	}
	if overrides.GitLab != "" {
		res.GitLab = overrides.GitLab
	}
	if overrides.User != "" && overrides.User != res.User {
		res.User = overrides.User
		res.Password = ""
	}
	if overrides.Password != "" {
		res.Password = overrides.Password
	}
	if overrides.CredentialsFile != "" {
		res.CredentialsFile = overrides.CredentialsFile
	}
	res.Registry = NormalizeServer(res.Registry)
	res.GitLab = NormalizeServer(res.GitLab)
	if res.Registry == "" {
		return Context{}, ErrNoRegistry
	}
	if res.CredentialsFile != "" && res.Password == "" {
		user, password, err := ReadCredentialsFile(res.CredentialsFile)
		if err != nil {
			return Context{}, err
		}
		if overrides.User == "" || overrides.User == user {
			res.User, res.Password = user, password
		}
	}
	return res, nil
}

// NormalizeServer strips the scheme and trailing slashes from a server name.
func NormalizeServer(server string) string {
	server = strings.TrimSpace(server)
	server = strings.TrimPrefix(server, "https://")
	server = strings.TrimPrefix(server, "http://")
	return strings.TrimRight(server, "/")
}

// ReadCredentialsFile reads a username from the first line of path and a
// password or access token from the second.
func ReadCredentialsFile(path string) (user string, password string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", fmt.Errorf("could not read credentials file '%v': %w", path, err)
	}
	defer f.Close()
	lines := make([]string, 0, 2)
	scanner := bufio.NewScanner(f)
	for len(lines) < 2 && scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return "", "", fmt.Errorf("could not read credentials file '%v': %w", path, err)
	}
	if len(lines) < 2 || lines[0] == "" || lines[1] == "" {
		return "", "", fmt.Errorf("credentials file '%v' must contain a username and a password on two separate lines", path)
	}
	return lines[0], lines[1], nil
}
