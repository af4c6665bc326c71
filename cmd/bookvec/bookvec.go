// Package bookveccmder
package bookveccmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papyri/bookvec/cmd/bookvec/config"
	initcmder "github.com/papyri/bookvec/cmd/bookvec/init"
	searchcmder "github.com/papyri/bookvec/cmd/bookvec/search"
	seedcmder "github.com/papyri/bookvec/cmd/bookvec/seed"
	versioncmder "github.com/papyri/bookvec/cmd/version"
)

const bookvecLongDesc string = `Bookvec is a vector retrieval backend for book collections.

Ingest chunked book text and query it by semantic similarity:
  bookvec seed <chunks.json>    Embed and persist book chunks
  bookvec search <query>        Retrieve the most similar chunks`

const bookvecShortDesc string = "Bookvec - Book Chunk Retrieval"

func NewBookvecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookvec",
		Short: bookvecShortDesc,
		Long:  bookvecLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .bookvec/ directory location")

	// Add subcommands
	cmd.AddCommand(seedcmder.NewSeedCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
