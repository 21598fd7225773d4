// Command crawlchat runs the crawlchat control plane and crawl/index
// workers: crawl a site, extract and chunk its documents, embed them into
// a vector index, and answer chat questions grounded on what was crawled.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/crawlchat/crawlchat/internal/config"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "crawlchat",
		Short: "crawlchat — crawl, extract, index, and chat over a site's documents",
		Long: `crawlchat crawls one or more seed URLs, extracts text from whatever it
finds (HTML, PDF, DOCX, XLSX, PPTX, CSV), chunks and embeds it into a
vector index, and answers chat questions grounded on the indexed corpus.

Run as two long-lived processes:
  crawlchat serve   — HTTP control plane (task API, chat API, metrics)
  crawlchat worker  — crawl + indexing worker (one or many, horizontally scaled)`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(workerCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogger creates a structured logger honoring the --verbose flag.
func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("crawlchat " + config.Version)
		},
	}
}
