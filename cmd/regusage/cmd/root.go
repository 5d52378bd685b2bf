package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/google/go-containerregistry/pkg/logs"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	flagRegistry        string
	flagGitLab          string
	flagUser            string
	flagCredentialsFile string
	flagInsecure        bool
	flagVerbose         bool
	flagDebug           bool
)

func InitializeCommands() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "regusage",
		Short: "Regusage reports the storage used by the repositories of a container registry.",
		Long: `Regusage walks the catalog of a Docker Registry v2 (including GitLab's container registry),
reads every tag manifest and sizes every layer once. Each repository and tag is reported with
its logical size, counting shared layers everywhere, and its disk size, counting every layer
exactly once across the registry.`,
		SuggestionsMinimumDistance: 2,
		SilenceUsage:               true,
		SilenceErrors:              true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(); err != nil {
				return err
			}
			setupLogs(cmd.ErrOrStderr())
			logConfigSource()
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfigFile, "config", "", "config file (default is $HOME/.regusage/config.yaml)")
	flags.StringVarP(&flagRegistry, "registry", "r", "", "registry server hostname, for example registry.mygitlab.com")
	flags.StringVarP(&flagGitLab, "gitlab", "g", "", "GitLab server hostname issuing registry tokens, for example mygitlab.com")
	flags.StringVar(&flagUser, "user", "", "user account for the registry or the GitLab API")
	flags.StringVarP(&flagCredentialsFile, "credentials-file", "c", "", "file with username and password or access token on two separate lines")
	flags.BoolVar(&flagInsecure, "insecure", false, "allow plain http connections to the registry")
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "be verbose")
	flags.BoolVar(&flagDebug, "debug", false, "print debug messages")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "debug")
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))

	rootCmd.AddCommand(
		NewCmdUsage(),
		NewCmdCatalog(),
		NewCmdDelete(),
		NewCmdAuthLogin(),
		NewCmdAuthLogout(),
		NewCmdContext(),
		NewCmdVersion(),
	)

	return rootCmd
}

// verbose reports whether progress should be shown, set by --verbose, the
// verbose config key or REGUSAGE_VERBOSE.
func verbose() bool {
	return TheAppConfig.Verbose || flagDebug
}

// setupLogs routes go-containerregistry's loggers according to verbosity and --debug.
func setupLogs(w io.Writer) {
	logs.Warn = log.New(w, "WARNING: ", log.LstdFlags)
	logs.Progress = log.New(io.Discard, "", 0)
	logs.Debug = log.New(io.Discard, "", 0)
	if verbose() {
		logs.Progress = log.New(w, "", log.LstdFlags)
	}
	if flagDebug {
		logs.Debug = log.New(w, "DEBUG: ", log.LstdFlags)
	}
}

func Execute(rootCmd *cobra.Command) {
	rootCmd.Version = Version
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
