package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/macvmio/regusage/pkg/report"
	"github.com/macvmio/regusage/pkg/usage"
	"github.com/spf13/cobra"
)

func NewCmdDelete() *cobra.Command {
	var showReport bool

	cmd := &cobra.Command{
		Use:     "delete <repository> <digest>",
		Aliases: []string{"rm"},
		Short:   "Delete a manifest from a repository",
		Long: `Deletes the manifest with the given digest. Layers are only freed once the registry
runs its garbage collection.`,
		Example: `  regusage delete group/project sha256:4c3f...

  # Delete and print the usage of the registry afterwards
  regusage delete group/project sha256:4c3f... --report`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newRegistryClient()
			if err != nil {
				return err
			}
			session := usage.NewSession(client, usage.WithWorkersCount(TheAppConfig.Workers))
			if err := session.DeleteImage(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s@%s\n", args[0], args[1])
			if !showReport {
				return nil
			}
			snapshot, err := session.Refresh(cmd.Context())
			if err != nil {
				return fmt.Errorf("unable to collect usage of '%v': %w", client.Registry(), err)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return report.Write(cmd.OutOrStdout(), snapshot,
				report.WithColor(!color.NoColor),
				report.WithRegistry(client.Registry()))
		},
	}
	cmd.Flags().BoolVar(&showReport, "report", false, "print the usage of the registry after deleting")
	return cmd
}
