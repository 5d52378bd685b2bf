package cmd

import (
	"fmt"

	"github.com/macvmio/regusage/pkg/appconfig"
	"github.com/spf13/cobra"
)

func NewCmdContext() *cobra.Command {
	contextCmd := &cobra.Command{
		Use:   "context",
		Short: "Manage registry contexts",
		Long: `A context remembers a registry, the GitLab server issuing its tokens and the credentials
to use, so they do not have to be passed on every invocation.`,
	}

	var password string
	var contextSetCmd = &cobra.Command{
		Use:     "set [name] --registry=REGISTRY [--gitlab=GITLAB] [--user=USER] [--password=PASSWORD]",
		Short:   "Set a new context or modify an existing one",
		Example: `  regusage context set work --registry registry.mygitlab.com --gitlab mygitlab.com --credentials-file ~/.gitlab-token`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagRegistry == "" {
				return appconfig.ErrNoRegistry
			}
			TheAppConfig.SetContext(appconfig.Context{
				Name:            args[0],
				Registry:        flagRegistry,
				GitLab:          flagGitLab,
				User:            flagUser,
				Password:        password,
				CredentialsFile: flagCredentialsFile,
			})
			if TheAppConfig.CurrentContext == "" {
				TheAppConfig.CurrentContext = args[0]
			}
			if err := saveConfig(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Context %s set/updated successfully.\n", args[0])
			return nil
		},
	}
	contextSetCmd.Flags().StringVar(&password, "password", "", "Registry or GitLab password")

	var contextUnsetCmd = &cobra.Command{
		Use:   "unset",
		Short: "Unset the current context, leaving no active context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if TheAppConfig.CurrentContext == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No current context is set.")
				return nil
			}
			TheAppConfig.CurrentContext = ""
			if err := saveConfig(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Context unset successfully. No active context.")
			return nil
		},
	}

	var contextUseCmd = &cobra.Command{
		Use:   "use [name]",
		Short: "Switch to a different context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := TheAppConfig.FindContext(args[0]); err != nil {
				return err
			}
			TheAppConfig.CurrentContext = args[0]
			if err := saveConfig(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Switched to context %s.\n", args[0])
			return nil
		},
	}

	var contextGetCmd = &cobra.Command{
		Use:   "get",
		Short: "Get details of the current context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := TheAppConfig.FindContext(TheAppConfig.CurrentContext)
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No current context set.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Current context: %s\nRegistry: %s\nGitLab: %s\nUser: %s\n",
				ctx.Name, ctx.Registry, ctx.GitLab, ctx.User)
			return nil
		},
	}

	var contextListCmd = &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all available contexts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, ctx := range TheAppConfig.Contexts {
				status := ""
				if ctx.Name == TheAppConfig.CurrentContext {
					status = " (current)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", ctx.Name, status)
			}
			return nil
		},
	}

	var contextDeleteCmd = &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !TheAppConfig.DeleteContext(args[0]) {
				return fmt.Errorf("context %s not found", args[0])
			}
			if err := saveConfig(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Context %s deleted successfully.\n", args[0])
			return nil
		},
	}

	contextCmd.AddCommand(
		contextSetCmd,
		contextUnsetCmd,
		contextUseCmd,
		contextGetCmd,
		contextListCmd,
		contextDeleteCmd)

	return contextCmd
}
