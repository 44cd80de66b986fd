package cmd

import (
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gomapping/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version and build details, plus the input sources, volume
estimators and default sampling cap compiled into this binary.`,
	Run: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) {
	cmd.Printf("gomapping version %s\n", Version)
	cmd.Printf("  Commit: %s\n", Commit)
	cmd.Printf("  Go version: %s\n", runtime.Version())
	cmd.Printf("  OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	cmd.Printf("  Input sources: %s\n",
		strings.Join([]string{config.SourceFile, config.SourceMySQL, config.SourcePostgres}, ", "))
	cmd.Printf("  Volume estimators: %s\n",
		strings.Join([]string{config.VolumeGeometric, config.VolumeMax, config.VolumeFixed}, ", "))
	cmd.Printf("  Compression: gzip (.gz), zstd (.zst)\n")
	cmd.Printf("  Default max_binom: %d (workers: %d)\n", config.DefaultMaxBinom, runtime.NumCPU())
}
