package main

import (
	"fmt"
	"os"

	"github.com/didi/scc/internal/buildinfo"
	"github.com/didi/scc/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "scc",
		Short:         "Decode syscall trace records from the scc device",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTrace,
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(newVersionCommand(), newGenerateCommand(), newDumpCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Version:", buildinfo.Version)
			fmt.Fprintln(out, "Git commit:", buildinfo.CommitID)
			fmt.Fprintln(out, "Build time:", buildinfo.BuildTime)
		},
	}
}
