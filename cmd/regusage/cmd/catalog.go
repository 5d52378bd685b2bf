package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

func NewCmdCatalog() *cobra.Command {
	return &cobra.Command{
		Use:     "catalog",
		Aliases: []string{"ls"},
		Short:   "List the repositories of the registry",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newRegistryClient()
			if err != nil {
				return err
			}
			repos, err := client.Catalog(cmd.Context())
			if err != nil {
				return err
			}
			slices.Sort(repos)
			for _, repo := range repos {
				fmt.Fprintln(cmd.OutOrStdout(), repo)
			}
			return nil
		},
	}
}
