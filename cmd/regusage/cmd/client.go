package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/logs"
	"github.com/macvmio/regusage/pkg/appconfig"
	"github.com/macvmio/regusage/pkg/registry"
	"golang.org/x/term"
)

var errNoGitLabCredentials = errors.New("could not get credentials for the GitLab web api")

// connection resolves the registry settings from flags and the current context.
func connection() (appconfig.Context, error) {
	conn, err := TheAppConfig.Resolve(appconfig.Context{
		Registry:        flagRegistry,
		GitLab:          flagGitLab,
		User:            flagUser,
		CredentialsFile: flagCredentialsFile,
	})
	if err != nil {
		return appconfig.Context{}, err
	}
	if conn.User != "" && conn.Password == "" {
		if conn.Password, err = promptPassword(os.Stdin, os.Stderr, conn.User); err != nil {
			return appconfig.Context{}, err
		}
	}
	return conn, nil
}

// promptPassword asks for a password without echoing it.
func promptPassword(in *os.File, out io.Writer, user string) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no password given for user '%v' and stdin is not a terminal", user)
	}
	fmt.Fprintf(out, "Password for %s: ", user)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("unable to read password: %w", err)
	}
	return string(b), nil
}

// readPasswordLine reads a password piped on stdin.
func readPasswordLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("unable to read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// gitLabURL is the base URL of the GitLab instance issuing registry tokens.
func gitLabURL(server string, insecure bool) string {
	if insecure {
		return "http://" + server + "/"
	}
	return "https://" + server + "/"
}

func authorizerFor(conn appconfig.Context, insecure bool) (registry.Authorizer, error) {
	switch {
	case conn.GitLab != "":
		if conn.User == "" || conn.Password == "" {
			return nil, errNoGitLabCredentials
		}
		logs.Debug.Printf("requesting registry tokens from GitLab at %s", conn.GitLab)
		return registry.NewGitLabAuthorizer(gitLabURL(conn.GitLab, insecure), conn.User, conn.Password), nil
	case conn.User != "":
		return &registry.StaticAuthorizer{Username: conn.User, Password: conn.Password}, nil
	default:
		return registry.NewKeychainAuthorizer(authn.DefaultKeychain), nil
	}
}

func newRegistryClient() (*registry.Client, error) {
	conn, err := connection()
	if err != nil {
		return nil, err
	}
	authorizer, err := authorizerFor(conn, flagInsecure)
	if err != nil {
		return nil, err
	}
	opts := []registry.Option{
		registry.WithAuthorizer(authorizer),
		registry.WithUserAgent("regusage/" + userAgentVersion()),
	}
	if flagInsecure {
		opts = append(opts, registry.WithInsecure())
	}
	return registry.NewClient(conn.Registry, opts...)
}
