package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"worksheet-ai-api/internal/config"
	"worksheet-ai-api/internal/domain/entity"
)

var (
	configDir  string
	activities []string
)

var rootCmd = &cobra.Command{
	Use:   "worksheetctl",
	Short: "Operator tooling for the worksheet generator",
	Long: `worksheetctl drives the worksheet pipeline without the HTTP service.

Commands:
  prompt    print the instruction and response schema sent to the model
  render    paginate and render stored or raw model output to pdf/html/png
  generate  call the configured model and render the result`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configDir, "config-dir", "", "config directory (default: $CONFIG_DIR or ./configs)",
	)
	rootCmd.PersistentFlags().StringSliceVarP(
		&activities, "activities", "a", nil, "activity kinds, comma separated (e.g. whQuestions,drawAndTell)",
	)

	rootCmd.AddCommand(promptCmd, renderCmd, generateCmd)
}

func loadConfig() (*config.Config, error) {
	if configDir != "" {
		return config.LoadFrom(configDir)
	}
	return config.Load()
}

// loadConfigOrDefaults 离线命令在缺少配置文件时使用内置渲染参数
func loadConfigOrDefaults() *config.Config {
	cfg, err := loadConfig()
	if err == nil {
		return cfg
	}
	warnf("config not loaded, using built-in render defaults: %v", err)
	return &config.Config{
		Render: config.RenderConfig{
			DefaultFormat:     "pdf",
			BaseFontSize:      12,
			DrawingAreaHeight: 260,
			PNGMaxPages:       8,
		},
	}
}

func parseActivities() ([]entity.ActivityKind, error) {
	kinds, err := entity.ParseActivityKinds(activities)
	if err != nil {
		return nil, err
	}
	return entity.OrderedKinds(kinds), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func warnf(format string, args ...any) {
	color.New(color.FgYellow).Fprintf(os.Stderr, format+"\n", args...)
}

func successf(format string, args ...any) {
	color.New(color.FgGreen).Printf(format+"\n", args...)
}

func headerf(format string, args ...any) {
	color.New(color.FgHiCyan, color.Bold).Println(fmt.Sprintf(format, args...))
}
