package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/google/go-containerregistry/pkg/logs"
	"github.com/macvmio/regusage/pkg/progress"
	"github.com/macvmio/regusage/pkg/report"
	"github.com/macvmio/regusage/pkg/usage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// showProgress renders updates on w until the returned stop function is called.
func showProgress(w io.Writer, updates chan usage.Progress) (stop func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			progress.Print(w, updates)
		} else {
			progress.Log(w, updates)
		}
	}()
	return func() {
		close(updates)
		<-done
	}
}

func NewCmdUsage() *cobra.Command {
	var file string

	eg := `  # Print the usage of a GitLab registry, biggest repositories last
  regusage usage -g mygitlab.com -r registry.mygitlab.com --user root --sort size

  # Export the usage of the current context as compressed JSON
  regusage usage --file usage.json.zst`

	cmd := &cobra.Command{
		Use:     "usage",
		Aliases: []string{"du"},
		Short:   "Report the storage used by every repository and tag",
		Long: `Reports the logical size and the disk size of every repository and tag of the registry.
The logical size counts every layer a tag references. The disk size counts every layer once,
attributed to the tag with the fewest layers that references it.`,
		Example: eg,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := report.ParseSortOrder(TheAppConfig.Sort)
			if err != nil {
				return err
			}
			format, err := report.ParseFormat(TheAppConfig.Output)
			if err != nil {
				return err
			}
			if f, ok := report.FormatForPath(file); ok && !cmd.Flags().Changed("output") {
				format = f
			}
			client, err := newRegistryClient()
			if err != nil {
				return err
			}

			logs.Progress.Printf("collecting usage of %s with %d workers", client.Registry(), TheAppConfig.Workers)
			opts := []usage.Option{usage.WithWorkersCount(TheAppConfig.Workers)}
			stopProgress := func() {}
			if verbose() {
				updates := make(chan usage.Progress)
				stopProgress = showProgress(cmd.ErrOrStderr(), updates)
				opts = append(opts, usage.WithProgress(updates))
			}
			session := usage.NewSession(client, opts...)
			snapshot, err := session.Snapshot(cmd.Context())
			stopProgress()
			if err != nil {
				return fmt.Errorf("unable to collect usage of '%v': %w", client.Registry(), err)
			}
			logs.Progress.Printf("collected %d repositories", len(snapshot.Repositories()))

			reportOpts := []report.Option{
				report.WithFormat(format),
				report.WithSortOrder(order),
				report.WithColor(file == "" && !color.NoColor),
				report.WithRegistry(client.Registry()),
			}
			if file == "" {
				return report.Write(cmd.OutOrStdout(), snapshot, reportOpts...)
			}
			wc, err := report.Create(file)
			if err != nil {
				return err
			}
			if err := report.Write(wc, snapshot, reportOpts...); err != nil {
				wc.Close()
				return err
			}
			if err := wc.Close(); err != nil {
				return fmt.Errorf("unable to finish report file '%v': %w", file, err)
			}
			logs.Progress.Printf("report written to %s", file)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringP("sort", "s", "name", "sorting order: name, size or disksize")
	flags.StringP("output", "o", "table", "output format: table, json or yaml")
	flags.IntP("workers", "w", 8, "number of repositories read concurrently")
	flags.StringVarP(&file, "file", "f", "", "write the report to a file, compressed when it ends in .zst")
	_ = viper.BindPFlag("sort", flags.Lookup("sort"))
	_ = viper.BindPFlag("output", flags.Lookup("output"))
	_ = viper.BindPFlag("workers", flags.Lookup("workers"))

	return cmd
}
