package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/docker/cli/cli/config"
	"github.com/docker/cli/cli/config/configfile"
	"github.com/docker/cli/cli/config/types"
	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/macvmio/regusage/pkg/appconfig"
	"github.com/spf13/cobra"
)

type loginOptions struct {
	serverAddress string
	user          string
	password      string
	passwordStdin bool
}

// serverAddress picks the registry named on the command line or, without
// one, the registry of the current context.
func serverAddress(args []string) (string, error) {
	server := flagRegistry
	if len(args) > 0 {
		server = args[0]
	}
	if server == "" {
		server = TheAppConfig.CurrentRegistry()
	}
	if server == "" {
		return "", appconfig.ErrNoRegistry
	}
	reg, err := name.NewRegistry(appconfig.NormalizeServer(server))
	if err != nil {
		return "", err
	}
	return reg.Name(), nil
}

func loadDockerConfig() (*configfile.ConfigFile, error) {
	cf, err := config.Load(os.Getenv("DOCKER_CONFIG"))
	if err != nil {
		return nil, fmt.Errorf("unable to load docker config: %w", err)
	}
	return cf, nil
}

func credentialsKey(serverAddress string) string {
	if serverAddress == name.DefaultRegistry {
		return authn.DefaultAuthKey
	}
	return serverAddress
}

// NewCmdAuthLogin stores registry credentials in the docker config, where the
// default keychain picks them up.
func NewCmdAuthLogin() *cobra.Command {
	var opts loginOptions

	eg := `  # Log in to registry.mygitlab.com
  regusage login registry.mygitlab.com -u <username> -p <password>

  # Log in to the registry of the current context, reading the token from stdin
  echo $TOKEN | regusage login -u <username> --password-stdin`

	cmd := &cobra.Command{
		Use:     "login [OPTIONS] [SERVER]",
		Short:   "Log in to a registry",
		Example: eg,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := serverAddress(args)
			if err != nil {
				return err
			}
			opts.serverAddress = server
			if opts.passwordStdin {
				if opts.password, err = readPasswordLine(cmd.InOrStdin()); err != nil {
					return err
				}
			} else if opts.user != "" && opts.password == "" {
				if opts.password, err = promptPassword(os.Stdin, cmd.ErrOrStderr(), opts.user); err != nil {
					return err
				}
			}
			filename, err := login(opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in to %s via %s\n", server, filename)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.user, "username", "u", "", "Username")
	flags.StringVarP(&opts.password, "password", "p", "", "Password")
	flags.BoolVarP(&opts.passwordStdin, "password-stdin", "", false, "Take the password from stdin")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")

	return cmd
}

func login(opts loginOptions) (string, error) {
	if opts.user == "" || opts.password == "" {
		return "", errors.New("username and password required")
	}
	cf, err := loadDockerConfig()
	if err != nil {
		return "", err
	}
	creds := cf.GetCredentialsStore(opts.serverAddress)
	if err := creds.Store(types.AuthConfig{
		ServerAddress: credentialsKey(opts.serverAddress),
		Username:      opts.user,
		Password:      opts.password,
	}); err != nil {
		return "", fmt.Errorf("unable to store credentials for '%v': %w", opts.serverAddress, err)
	}
	if err := cf.Save(); err != nil {
		return "", fmt.Errorf("unable to save docker config: %w", err)
	}
	return cf.Filename, nil
}

func NewCmdAuthLogout() *cobra.Command {
	eg := `  # Log out of registry.mygitlab.com
  regusage logout registry.mygitlab.com`

	cmd := &cobra.Command{
		Use:     "logout [SERVER]",
		Short:   "Log out of a registry",
		Example: eg,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := serverAddress(args)
			if err != nil {
				return err
			}
			cf, err := loadDockerConfig()
			if err != nil {
				return err
			}
			creds := cf.GetCredentialsStore(server)
			if err := creds.Erase(credentialsKey(server)); err != nil {
				return fmt.Errorf("unable to erase credentials for '%v': %w", server, err)
			}
			if err := cf.Save(); err != nil {
				return fmt.Errorf("unable to save docker config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged out of %s via %s\n", server, cf.Filename)
			return nil
		},
	}
	return cmd
}
