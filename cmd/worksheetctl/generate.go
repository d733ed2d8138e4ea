package main

import (
	"time"

	"github.com/spf13/cobra"

	"worksheet-ai-api/internal/application/worksheet"
	einoobs "worksheet-ai-api/internal/observability/eino"
	"worksheet-ai-api/internal/wire"
	"worksheet-ai-api/pkg/logger"
)

var (
	genTopics    string
	genCount     int
	genReading   int
	genWriting   int
	genSeedWords string
	genProvider  string
	genModel     string
	genFormat    string
	genOut       string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate worksheets with the configured model and render them",
	Long: `generate runs the same generator as the HTTP service but skips entitlement,
persistence and caching. Useful for prompt and provider tuning.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger.Init(cfg.Observability.Logging.Level, "text")
		einoobs.Init()

		kinds, err := parseActivities()
		if err != nil {
			return err
		}
		generator, err := wire.InitializeGenerator(cfg)
		if err != nil {
			return err
		}

		start := time.Now()
		docs, err := generator.Generate(cmd.Context(), worksheet.GenerateInput{
			Topics:       splitList(genTopics),
			Kinds:        kinds,
			Count:        genCount,
			ReadingLevel: worksheet.ClampLevel(genReading),
			WritingLevel: worksheet.ClampLevel(genWriting),
			SeedWords:    splitList(genSeedWords),
			Provider:     genProvider,
			Model:        genModel,
		})
		if err != nil {
			return err
		}
		headerf("generated %d documents in %s", len(docs), time.Since(start).Round(time.Millisecond))
		for i, d := range docs {
			successf("  %d. %s", i+1, d.Title)
		}
		return renderAndWrite(cmd.Context(), cfg, docs, kinds, genFormat, genOut)
	},
}

func init() {
	generateCmd.Flags().StringVarP(&genTopics, "topics", "t", "", "topics, comma separated")
	generateCmd.Flags().IntVarP(&genCount, "count", "n", 1, "number of worksheets")
	generateCmd.Flags().IntVar(&genReading, "reading", 1, "reading level (1-5)")
	generateCmd.Flags().IntVar(&genWriting, "writing", 1, "writing level (1-5)")
	generateCmd.Flags().StringVar(&genSeedWords, "seed-words", "", "target vocabulary, comma separated")
	generateCmd.Flags().StringVar(&genProvider, "provider", "", "llm provider (default: llm.default_provider)")
	generateCmd.Flags().StringVar(&genModel, "model", "", "model override")
	generateCmd.Flags().StringVarP(&genFormat, "format", "f", "", "pdf, html or png")
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "", "output file")
	_ = generateCmd.MarkFlagRequired("topics")
}
