package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/torosent/crankbench/internal/config"
	"github.com/torosent/crankbench/internal/scenario"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = ""
	date    = ""
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "crankbench",
		Short:         "Micro-benchmarks for Elasticsearch-compatible clusters",
		Long:          "crankbench times repeated operations against a target cluster and stores every measured repetition in a reporting cluster.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(os.Stdout)
	root.AddCommand(newRunCmd(), newScenariosCmd(), newVersionCmd())
	return root
}

func newScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List built-in scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listScenarios(cmd.OutOrStdout())
		},
	}
}

func listScenarios(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCATEGORY\tDESCRIPTION")
	for _, sc := range scenario.All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", sc.Name, sc.Category, sc.Description)
	}
	return tw.Flush()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "crankbench %s\n", versionString())
		},
	}
}

func versionString() string {
	s := version
	if commit != "" {
		s += " (" + commit
		if date != "" {
			s += ", " + date
		}
		s += ")"
	}
	return fmt.Sprintf("%s go%s %s/%s", s, config.RuntimeVersion(), runtime.GOOS, runtime.GOARCH)
}
