package cmd

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/spigell/skillmatch/cmd.version=...".
var version = ""

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the skillmatch build version",
	Run: func(cmd *cobra.Command, _ []string) {
		printVersion(cmd.OutOrStdout(), resolveVersion(version, debug.ReadBuildInfo))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// resolveVersion prefers the linker-injected version, then the module version
// recorded by go install, then the VCS revision.
func resolveVersion(injected string, buildInfo func() (*debug.BuildInfo, bool)) string {
	if injected != "" {
		return injected
	}

	info, ok := buildInfo()
	if !ok {
		return "unknown"
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}

	var revision, modified string
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value
		}
	}
	if revision == "" {
		return "devel"
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	if modified == "true" {
		revision += "-dirty"
	}
	return revision
}

func printVersion(w io.Writer, v string) {
	fmt.Fprintf(w, "%s %s\n", app, v)
}
