// Command ingest loads restaurant markdown or JSONL knowledge into the vector store.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"ai_hoi/internal/ingest"
	"ai_hoi/src"
	"ai_hoi/src/llm"
	"ai_hoi/src/logger"
	"ai_hoi/src/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfg *src.Config

	namespace  string
	batchSize  int
	assumeYes  bool
	textFields string
	chunkSize  int
	chunkOver  int
)

func main() {
	root := &cobra.Command{
		Use:           "ingest",
		Short:         "Load knowledge documents into the vector store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			loaded, err := src.LoadConfig()
			if err != nil {
				return err
			}
			if err := logger.InitLogger(loaded.Log); err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}
	root.PersistentFlags().StringVar(&namespace, "namespace", "", "vector store namespace (default VECTOR_NAMESPACE)")
	root.PersistentFlags().IntVar(&batchSize, "batch-size", 32, "documents per embedding request")

	restaurants := &cobra.Command{
		Use:   "restaurants --file restaurants_knowledge.md",
		Short: "Ingest a restaurant knowledge markdown file",
		RunE:  runRestaurants,
	}
	restaurants.Flags().StringP("file", "f", "restaurants_knowledge.md", "markdown file")
	restaurants.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")

	jsonl := &cobra.Command{
		Use:   "jsonl --file data.jsonl",
		Short: "Ingest one document per JSON line",
		RunE:  runJSONL,
	}
	jsonl.Flags().StringP("file", "f", "", "jsonl file")
	_ = jsonl.MarkFlagRequired("file")
	jsonl.Flags().StringVar(&textFields, "text-fields", "", "comma-separated fields composing the text, e.g. ten_mon,dac_diem,khau_vi")
	jsonl.Flags().IntVar(&chunkSize, "chunk-size", 0, "split texts longer than this many characters (0 disables)")
	jsonl.Flags().IntVar(&chunkOver, "chunk-overlap", 100, "characters shared by consecutive chunks")

	root.AddCommand(restaurants, jsonl)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func runRestaurants(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", path, err)
	}

	parsed := ingest.ParseRestaurants(string(content))
	if len(parsed) == 0 {
		return fmt.Errorf("no restaurant sections found in %s", path)
	}
	fmt.Printf("Parsed %d restaurants from %s\n", len(parsed), path)
	sample := parsed[0]
	fmt.Printf("  Name: %s\n  Address: %s\n  Specialties: %s\n", sample.Name, sample.Address, sample.Specialties)

	ns := targetNamespace()
	if !assumeYes && !confirm(cmd.InOrStdin(), fmt.Sprintf("Ingest %d restaurants into namespace %q? (yes/no): ", len(parsed), ns)) {
		fmt.Println("Cancelled")
		return nil
	}

	return ingestDocuments(cmd.Context(), ns, ingest.RestaurantDocuments(parsed, time.Now()))
}

func runJSONL(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var fields []string
	for _, field := range strings.Split(textFields, ",") {
		if field = strings.TrimSpace(field); field != "" {
			fields = append(fields, field)
		}
	}

	docs, err := ingest.ReadJSONL(f, ingest.JSONLOptions{TextFields: fields})
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No records found in the file.")
		return nil
	}
	docs, err = ingest.Chunk(docs, chunkSize, chunkOver)
	if err != nil {
		return err
	}
	return ingestDocuments(cmd.Context(), targetNamespace(), docs)
}

func ingestDocuments(ctx context.Context, ns string, docs []ingest.Document) error {
	embedder, err := llm.NewEmbedder(ctx, cfg.Embedding)
	if err != nil {
		return err
	}
	store, err := storage.OpenVectorStore(ctx, cfg.Vector)
	if err != nil {
		return err
	}

	report, err := ingest.New(embedder, store, ingest.WithBatchSize(batchSize)).Ingest(ctx, ns, docs)
	fmt.Printf("Done. Upserted %d, unchanged %d, total %d in %d batches\n", report.Upserted, report.Skipped, report.Total, report.Batches)
	return err
}

func targetNamespace() string {
	if namespace != "" {
		return namespace
	}
	return cfg.Vector.Namespace
}

func confirm(in io.Reader, question string) bool {
	fmt.Print(question)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "yes" || answer == "y"
}
