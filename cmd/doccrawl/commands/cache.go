package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/doccrawl/internal/cache"
	"github.com/jmylchreest/doccrawl/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or prune the page cache",
	Long: `The page cache stores fetched pages in SQLite so repeated crawls with
--cache-mode enabled or read_only skip the network.`,
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show cache location, size and page count",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openCacheStore(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		count, err := store.Count(cmd.Context())
		if err != nil {
			return err
		}
		size := "0 B"
		if info, err := os.Stat(store.Path()); err == nil {
			size = humanize.Bytes(uint64(info.Size())) //#nosec G115 -- file sizes are non-negative
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Path:  %s\n", store.Path())
		fmt.Fprintf(out, "Pages: %d\n", count)
		fmt.Fprintf(out, "Size:  %s\n", size)
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete cached pages older than --older-than",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		olderThan, _ := cmd.Flags().GetDuration("older-than")

		store, err := openCacheStore(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		cutoff := time.Now().Add(-olderThan)
		n, err := store.Prune(cmd.Context(), cutoff)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d pages fetched before %s\n", n, humanize.Time(cutoff))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheInfoCmd, cachePruneCmd)

	cacheCmd.PersistentFlags().String("cache-dir", "", "cache directory (default: $XDG_CACHE_HOME/doccrawl)")
	cachePruneCmd.Flags().Duration("older-than", 7*24*time.Hour, "age beyond which pages are removed (0 removes everything)")
}

func openCacheStore(cmd *cobra.Command) (*cache.Store, error) {
	if err := initLogger(false); err != nil {
		return nil, err
	}
	dir, _ := cmd.Flags().GetString("cache-dir")
	if dir == "" {
		dir = viper.GetString(config.KeyCacheDir)
	}
	return cache.Open(cache.Options{Dir: dir})
}
