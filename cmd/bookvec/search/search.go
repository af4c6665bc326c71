// Package searchcmder provides the search command for semantic retrieval
// over persisted book chunks.
package searchcmder

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/papyri/bookvec/pkg/cliui"
	"github.com/papyri/bookvec/pkg/config"
	"github.com/papyri/bookvec/pkg/embeddings/ollama"
	"github.com/papyri/bookvec/pkg/logger"
	"github.com/papyri/bookvec/pkg/tracing"
	"github.com/papyri/bookvec/pkg/utils"
	"github.com/papyri/bookvec/pkg/vector"
	vectorutils "github.com/papyri/bookvec/pkg/vector/utils"
)

var (
	rankStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	bookStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	previewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const searchLongDesc string = `Retrieve the most similar book chunks for a query.

Embeds the query text and runs a cosine similarity search against the
configured vector store. Results are ranked nearest first; matches below
the similarity floor are dropped after the top-k cut.

Use --quiet to output only chunk ids, one per line.

Examples:
  bookvec search "a tale of revenge at sea"
  bookvec search "mad captains" --top-k 10 --similarity-floor 0.4
  bookvec search "white whale" -p qdrant -t http://localhost:6334
  bookvec search "white whale" --approximate`

const searchShortDesc string = "Retrieve similar book chunks"

type searchCommander struct {
	query string
	quiet bool

	dbProvider      string
	dbTarget        string
	walletPath      string
	precisionBits   uint
	dimensions      uint
	topK            uint
	similarityFloor float64
	approximate     bool
	embeddingTarget string
	embeddingModel  string

	debug  bool
	v      *viper.Viper
	logger *zap.Logger
}

var searchFlagKeys = []string{
	config.FlagDBProvider,
	config.FlagDBTarget,
	config.FlagWalletPath,
	config.FlagPrecisionBits,
	config.FlagDimensions,
	config.FlagTopK,
	config.FlagSimilarityFloor,
	config.FlagApproximate,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
}

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, fs, searchFlagKeys)
			cmder.v = v
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only chunk ids, one per line (for piping)")

	config.AddStringFlag(cmd, fs, config.FlagDBProvider, &cmder.dbProvider)
	config.AddStringFlag(cmd, fs, config.FlagDBTarget, &cmder.dbTarget)
	config.AddStringFlag(cmd, fs, config.FlagWalletPath, &cmder.walletPath)
	config.AddUintFlag(cmd, fs, config.FlagPrecisionBits, &cmder.precisionBits)
	config.AddUintFlag(cmd, fs, config.FlagDimensions, &cmder.dimensions)
	config.AddUintFlag(cmd, fs, config.FlagTopK, &cmder.topK)
	config.AddFloat64Flag(cmd, fs, config.FlagSimilarityFloor, &cmder.similarityFloor)
	config.AddBoolFlag(cmd, fs, config.FlagApproximate, &cmder.approximate)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingTgt, &cmder.embeddingTarget)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingModel, &cmder.embeddingModel)

	return cmd
}

func (c *searchCommander) run(ctx context.Context) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	tracer := tracing.NewNoop()
	if c.v.GetBool("tracing.enabled") {
		shutdown, err := tracing.Init(ctx, c.v.GetString("tracing.endpoint"))
		if err != nil {
			return fmt.Errorf("initializing tracing: %w", err)
		}
		defer func() { _ = shutdown(ctx) }()
		tracer = tracing.NewOTel("bookvec")
	}

	store, err := vectorutils.NewStore(ctx, &vectorutils.NewStoreOpts{
		Provider:      c.v.GetString("db.provider"),
		Target:        c.v.GetString("db.target"),
		Dimensions:    int(c.v.GetUint("db.dimensions")),
		PrecisionBits: int(c.v.GetUint("db.precision_bits")),
		WalletPath:    c.v.GetString("db.wallet_path"),
		Tracer:        tracer,
		Logger:        c.logger,
	})
	if err != nil {
		return fmt.Errorf("opening vector store: %w", err)
	}
	defer store.Close()

	embedder := ollama.New(ollama.Config{
		BaseURL: c.v.GetString("embedding.target"),
		Model:   c.v.GetString("embedding.model"),
	})
	defer embedder.Close()

	embedding, err := embedder.Embed(ctx, c.query)
	if err != nil {
		return fmt.Errorf("embedding query: %w", err)
	}

	result, err := store.Query(ctx, vector.QueryRequest{
		Embedding:       embedding,
		TopK:            int(c.v.GetUint("query.top_k")),
		Approximate:     c.v.GetBool("query.approximate"),
		SimilarityFloor: c.v.GetFloat64("query.similarity_floor"),
	})
	if err != nil {
		return fmt.Errorf("querying vector store: %w", err)
	}

	if len(result.Matches) == 0 {
		if !c.quiet {
			fmt.Println("No results found.")
		}
		return nil
	}

	if c.quiet {
		for _, match := range result.Matches {
			fmt.Println(match.ID)
		}
		return nil
	}

	fmt.Printf("\n%s %s %s\n\n",
		headerStyle.Render("Search Results for:"),
		bookStyle.Render(fmt.Sprintf("%q", c.query)),
		dimStyle.Render(fmt.Sprintf("(%s)", cliui.FormatDuration(result.Elapsed))),
	)

	for i, match := range result.Matches {
		printMatch(i+1, match)
	}

	return nil
}

func printMatch(rank int, match vector.Match) {
	fmt.Printf("  %s  %s  %s %s\n",
		rankStyle.Render(fmt.Sprintf("#%d", rank)),
		scoreStyle.Render(fmt.Sprintf("similarity: %.4f", match.Similarity)),
		bookStyle.Render(match.BookName),
		dimStyle.Render(fmt.Sprintf("p.%d", match.PageNum)),
	)

	preview := strings.ReplaceAll(match.Text, "\n", " ")
	fmt.Printf("  %s\n\n", previewStyle.Render(utils.Truncate(preview, 120)))
}
