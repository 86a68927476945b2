// Command catalogctl operates the catalog: it loads legacy documents into the
// embedded store and talks to a running catalog service over gRPC.
package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "catalogctl",
		Short:        "Operate the game store catalog",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("legacy-db", strings.TrimSpace(os.Getenv("LEGACY_DB_PATH")), "legacy Badger directory (or LEGACY_DB_PATH env)")
	cmd.PersistentFlags().String("addr", envOr("CATALOG_GRPC_ADDR", "localhost:9092"), "catalog gRPC address (or CATALOG_GRPC_ADDR env)")
	cmd.PersistentFlags().StringP("output", "o", "table", "output format: table or json")

	cmd.AddCommand(
		newLegacyCmd(),
		newResolveCmd(),
		newGamesCmd(),
	)
	return cmd
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
