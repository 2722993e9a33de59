package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/hr-admin/internal/resume"
	"github.com/jonathan/hr-admin/internal/scoring"
)

var (
	scorePosition string
	scoreSkills   []string
	scoreYears    int
)

var scoreCmd = &cobra.Command{
	Use:   "score <cv-file>",
	Short: "Score a CV file against a position",
	Long: `Extract the text of a CV (txt, html, pdf, doc, docx, odt, rtf) and print
the CV score breakdown for the given position as JSON. Nothing is stored.`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringVarP(&scorePosition, "position", "p", "", "Position applied for (required)")
	scoreCmd.Flags().StringSliceVarP(&scoreSkills, "skills", "s", nil, "Comma-separated list of skills")
	scoreCmd.Flags().IntVarP(&scoreYears, "years", "y", 0, "Years of experience")

	if err := scoreCmd.MarkFlagRequired("position"); err != nil {
		panic(fmt.Sprintf("failed to mark position flag as required: %v", err))
	}

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open CV %s: %w", path, err)
	}
	defer f.Close()

	text, err := resume.ExtractText(filepath.Base(path), f)
	if err != nil {
		return fmt.Errorf("failed to extract text from %s: %w", path, err)
	}

	breakdown := scoring.Explain(scoring.Input{
		ResumeText:      text,
		Skills:          scoreSkills,
		Position:        scorePosition,
		YearsExperience: scoreYears,
	})

	out, err := json.MarshalIndent(breakdown, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal score breakdown: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
