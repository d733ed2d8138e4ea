package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"worksheet-ai-api/internal/application/layout"
	"worksheet-ai-api/internal/application/worksheet"
	"worksheet-ai-api/internal/config"
	"worksheet-ai-api/internal/domain/entity"
	"worksheet-ai-api/internal/infrastructure/render"
)

var (
	renderInput  string
	renderFormat string
	renderOut    string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render documents from a JSON file or raw model output",
	Long: `render reads either a JSON array of documents (one element per story) or a
single raw model reply, normalizes each entry, paginates and renders the result.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds, err := parseActivities()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(renderInput)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		ctx := cmd.Context()
		docs := parseDocuments(ctx, worksheet.NewNormalizer(), string(data), kinds)
		return renderAndWrite(ctx, loadConfigOrDefaults(), docs, kinds, renderFormat, renderOut)
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderInput, "input", "i", "", "input file")
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "", "pdf, html or png (default: render.default_format)")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output file (default: worksheet.<ext>)")
	_ = renderCmd.MarkFlagRequired("input")
}

// parseDocuments JSON 数组逐项规范化，其余内容整体视为一次模型回复
func parseDocuments(ctx context.Context, n *worksheet.Normalizer, input string, kinds []entity.ActivityKind) []entity.Document {
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, "[") && gjson.Valid(trimmed) {
		var docs []entity.Document
		gjson.Parse(trimmed).ForEach(func(_, value gjson.Result) bool {
			docs = append(docs, n.Normalize(ctx, value.Raw, kinds).Document)
			return true
		})
		return docs
	}
	return []entity.Document{n.Normalize(ctx, trimmed, kinds).Document}
}

func renderAndWrite(ctx context.Context, cfg *config.Config, docs []entity.Document, kinds []entity.ActivityKind, format, out string) error {
	if format == "" {
		format = cfg.Render.DefaultFormat
	}
	f, err := render.ParseFormat(format)
	if err != nil {
		return err
	}

	pages := layout.NewPaginator(cfg.Render.DrawingAreaHeight).Paginate(layout.Number(docs), kinds)
	data, rd, err := render.NewDefaultRegistry(cfg).Render(ctx, f, pages)
	if err != nil {
		return err
	}

	if out == "" {
		out = "worksheet" + rd.Extension()
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	successf("wrote %s (%d documents, %d pages, %d bytes)", out, len(docs), len(pages), len(data))
	return nil
}
