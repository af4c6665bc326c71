// Package seedcmder provides the seed command for embedding and persisting
// book chunks into a vector store.
package seedcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/papyri/bookvec/pkg/cliui"
	"github.com/papyri/bookvec/pkg/config"
	"github.com/papyri/bookvec/pkg/embeddings"
	"github.com/papyri/bookvec/pkg/embeddings/ollama"
	"github.com/papyri/bookvec/pkg/eventstream"
	"github.com/papyri/bookvec/pkg/eventstream/kafka"
	"github.com/papyri/bookvec/pkg/eventstream/nop"
	"github.com/papyri/bookvec/pkg/logger"
	"github.com/papyri/bookvec/pkg/tracing"
	"github.com/papyri/bookvec/pkg/vector"
	vectorutils "github.com/papyri/bookvec/pkg/vector/utils"
)

const seedLongDesc string = `Embed and persist book chunks into a vector store.

Reads a JSON file containing an array of chunks, embeds each chunk's text,
stages them, and persists the whole batch in one transaction. Chunks that fail
to write are reported individually; the rest of the batch still commits.

The chunk file format:
  [
    {"text": "It was the best of times...", "page_num": 1},
    {"id": "ch1-p2", "text": "...it was the worst of times", "page_num": 2}
  ]

Chunks without an id are assigned one.

Examples:
  bookvec seed chunks.json --book "A Tale of Two Cities"
  bookvec seed chunks.json --book "Moby Dick" -p postgres -t postgres://localhost:5432/books
  bookvec seed chunks.json --book "Moby Dick" --event-brokers localhost:9092`

const seedShortDesc string = "Embed and persist book chunks"

// bookUpserter is satisfied by backends that keep book metadata in a
// relational table alongside the chunks.
type bookUpserter interface {
	UpsertBook(ctx context.Context, id, name string) error
}

type chunkSpec struct {
	ID      string `json:"id,omitempty"`
	Text    string `json:"text"`
	PageNum int    `json:"page_num"`
}

type seedCommander struct {
	filePath string
	bookName string
	bookID   string

	dbProvider      string
	dbTarget        string
	walletPath      string
	precisionBits   uint
	dimensions      uint
	embeddingTarget string
	embeddingModel  string
	eventBrokers    string
	eventTopic      string

	debug  bool
	v      *viper.Viper
	logger *zap.Logger
}

var seedFlagKeys = []string{
	config.FlagDBProvider,
	config.FlagDBTarget,
	config.FlagWalletPath,
	config.FlagPrecisionBits,
	config.FlagDimensions,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEventBrokers,
	config.FlagEventTopic,
}

func NewSeedCmd() *cobra.Command {
	cmder := &seedCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "seed <chunks.json>",
		Short: seedShortDesc,
		Long:  seedLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, fs, seedFlagKeys)
			cmder.v = v
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.filePath = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.bookName, "book", "b", "", "Name of the book the chunks belong to")
	cmd.Flags().StringVar(&cmder.bookID, "book-id", "", "Stable id for the book (generated if empty)")
	_ = cmd.MarkFlagRequired("book")

	config.AddStringFlag(cmd, fs, config.FlagDBProvider, &cmder.dbProvider)
	config.AddStringFlag(cmd, fs, config.FlagDBTarget, &cmder.dbTarget)
	config.AddStringFlag(cmd, fs, config.FlagWalletPath, &cmder.walletPath)
	config.AddUintFlag(cmd, fs, config.FlagPrecisionBits, &cmder.precisionBits)
	config.AddUintFlag(cmd, fs, config.FlagDimensions, &cmder.dimensions)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingTgt, &cmder.embeddingTarget)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddStringFlag(cmd, fs, config.FlagEventBrokers, &cmder.eventBrokers)
	config.AddStringFlag(cmd, fs, config.FlagEventTopic, &cmder.eventTopic)

	return cmd
}

func (c *seedCommander) run(ctx context.Context) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	chunks, err := loadChunks(c.filePath)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks found in %s", c.filePath)
	}

	bookID := c.bookID
	if bookID == "" {
		bookID = uuid.NewString()
	}

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

	if bu, ok := store.(bookUpserter); ok {
		if err := cliui.Step(os.Stdout, fmt.Sprintf("Registering book %q", c.bookName), func() error {
			return bu.UpsertBook(ctx, bookID, c.bookName)
		}); err != nil {
			return err
		}
	}

	embedder := ollama.New(ollama.Config{
		BaseURL: c.v.GetString("embedding.target"),
		Model:   c.v.GetString("embedding.model"),
	})
	defer embedder.Close()

	var nodes []vector.Node
	if err := cliui.Step(os.Stdout, fmt.Sprintf("Embedding %d chunks", len(chunks)), func() error {
		var embedErr error
		nodes, embedErr = buildNodes(ctx, embedder, chunks, bookID)
		return embedErr
	}); err != nil {
		return err
	}

	store.Add(nodes)

	start := time.Now()
	var res *vector.PersistResult
	if err := cliui.Step(os.Stdout, "Persisting batch", func() error {
		var persistErr error
		res, persistErr = store.Persist(ctx)
		return persistErr
	}); err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("\n  %s Wrote %s of %s chunks %s\n\n",
		cliui.Mark(nil),
		cliui.NameStyle.Render(fmt.Sprintf("%d", res.Written)),
		cliui.NameStyle.Render(fmt.Sprintf("%d", res.Staged)),
		cliui.DimStyle.Render(fmt.Sprintf("(%s)", cliui.FormatDuration(elapsed))),
	)

	for _, rowErr := range res.Errors {
		fmt.Printf("  %s %s %s\n",
			cliui.FailMark,
			cliui.KeyStyle.Render(rowErr.ID),
			cliui.DimStyle.Render(rowErr.Err.Error()),
		)
	}

	return c.publishEvent(ctx, bookID, nodes, res, elapsed)
}

func (c *seedCommander) publishEvent(ctx context.Context, bookID string, nodes []vector.Node, res *vector.PersistResult, elapsed time.Duration) error {
	publisher, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	chunkIDs := make([]string, 0, len(nodes))
	for _, n := range nodes {
		chunkIDs = append(chunkIDs, n.ID)
	}

	event := &eventstream.ChunksPersistedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeChunksPersisted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Provider:      c.v.GetString("db.provider"),
		BookID:        bookID,
		ChunkIDs:      chunkIDs,
		Written:       res.Written,
		Failed:        res.Failed,
		DurationMs:    elapsed.Milliseconds(),
	}

	if err := publisher.PublishChunksPersisted(ctx, event); err != nil {
		return fmt.Errorf("publishing persist event: %w", err)
	}

	return nil
}

func (c *seedCommander) newPublisher() (eventstream.Publisher, error) {
	if !c.v.GetBool("events.enabled") {
		return nop.NewPublisher(), nil
	}

	// Broker lists arrive as TOML arrays from the config file but as
	// comma-separated strings from flags and env vars.
	var brokers []string
	for _, b := range c.v.GetStringSlice("events.brokers") {
		brokers = append(brokers, config.ParseBrokerList(b)...)
	}

	publisher, err := kafka.NewPublisher(kafka.Config{
		Brokers: brokers,
		Topic:   c.v.GetString("events.topic"),
	}, c.logger)
	if err != nil {
		return nil, fmt.Errorf("connecting event publisher: %w", err)
	}

	return publisher, nil
}

// loadChunks reads and validates the chunk file.
func loadChunks(path string) ([]chunkSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chunk file: %w", err)
	}

	var chunks []chunkSpec
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("parsing chunk file: %w", err)
	}

	for i, ch := range chunks {
		if ch.Text == "" {
			return nil, fmt.Errorf("chunk %d has no text", i)
		}
	}

	return chunks, nil
}

// buildNodes embeds each chunk and assigns ids where they are missing.
func buildNodes(ctx context.Context, embedder embeddings.Embedder, chunks []chunkSpec, bookID string) ([]vector.Node, error) {
	nodes := make([]vector.Node, 0, len(chunks))

	for _, ch := range chunks {
		embedding, err := embedder.Embed(ctx, ch.Text)
		if err != nil {
			return nil, fmt.Errorf("embedding chunk %q: %w", ch.ID, err)
		}

		id := ch.ID
		if id == "" {
			id = uuid.NewString()
		}

		nodes = append(nodes, vector.Node{
			ID:        id,
			Text:      ch.Text,
			PageNum:   ch.PageNum,
			BookID:    bookID,
			Embedding: embedding,
		})
	}

	return nodes, nil
}
