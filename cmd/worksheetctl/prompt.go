package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"worksheet-ai-api/internal/application/worksheet"
)

var (
	promptTopic      string
	promptReading    int
	promptWriting    int
	promptSeedWords  string
	promptShowSchema bool
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the model instruction for one worksheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds, err := parseActivities()
		if err != nil {
			return err
		}
		headerf("instruction")
		fmt.Println(worksheet.BuildPrompt(worksheet.PromptInput{
			Topic:        promptTopic,
			ReadingLevel: worksheet.ClampLevel(promptReading),
			WritingLevel: worksheet.ClampLevel(promptWriting),
			Kinds:        kinds,
			SeedWords:    splitList(promptSeedWords),
		}))

		if promptShowSchema {
			schema, err := json.MarshalIndent(worksheet.ResponseSchema(kinds), "", "  ")
			if err != nil {
				return err
			}
			headerf("response schema")
			fmt.Println(string(schema))
		}
		return nil
	},
}

func init() {
	promptCmd.Flags().StringVarP(&promptTopic, "topic", "t", "", "story topic")
	promptCmd.Flags().IntVar(&promptReading, "reading", 1, "reading level (1-5)")
	promptCmd.Flags().IntVar(&promptWriting, "writing", 1, "writing level (1-5)")
	promptCmd.Flags().StringVar(&promptSeedWords, "seed-words", "", "target vocabulary, comma separated")
	promptCmd.Flags().BoolVar(&promptShowSchema, "schema", false, "also print the response JSON schema")
	_ = promptCmd.MarkFlagRequired("topic")
}
