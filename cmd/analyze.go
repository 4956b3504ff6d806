package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/ai"
	"github.com/spigell/skillmatch/internal/render"
	"github.com/spigell/skillmatch/internal/resume"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyse a resume against a job description with Gemini",
	Example: `  skillmatch analyze --resume cv.pdf --job-description-file job.txt --type ats_score
  skillmatch analyze --resume cv.docx --job-description "Senior Go developer..." --save review.md`,
	Run: func(cmd *cobra.Command, _ []string) {
		runAnalyzeCommand(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("resume", "r", "", "resume file (pdf, docx or txt)")
	analyzeCmd.Flags().String("job-description", "", "job description text")
	analyzeCmd.Flags().String("job-description-file", "", "file with the job description")
	analyzeCmd.Flags().StringP("type", "t", "", "analysis type: resume_review, skills_improvement, match_percentage or ats_score")
	analyzeCmd.Flags().String("save", "", "write the analysis as markdown to this file")

	analyzeCmd.MarkFlagRequired("resume")
	analyzeCmd.MarkFlagsMutuallyExclusive("job-description", "job-description-file")
}

func runAnalyzeCommand(cmd *cobra.Command) {
	ctx := context.Background()
	config, logger, format := bootstrap()

	resumePath, _ := cmd.Flags().GetString("resume")
	doc, err := resume.Load(resumePath)
	if err != nil {
		logger.Fatal("loading resume", zap.Error(err))
	}

	jobDescription, err := jobDescriptionFromFlags(cmd)
	if err != nil {
		logger.Fatal("reading job description", zap.Error(err))
	}

	typeFlag, _ := cmd.Flags().GetString("type")
	kind, err := selectAnalysisType(typeFlag)
	if err != nil {
		logger.Fatal("choosing analysis type", zap.Error(err))
	}

	analyzer, err := newAnalyzer(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building gemini analyzer", zap.Error(err))
	}

	logger.Info("analysing resume",
		zap.String("resume", doc.Name),
		zap.String("type", string(kind)),
	)

	savePath, _ := cmd.Flags().GetString("save")
	if err := analyze(ctx, analyzer, kind, doc, jobDescription, format, os.Stdout, savePath); err != nil {
		logger.Fatal("analysing resume", zap.Error(err))
	}

	if savePath != "" {
		logger.Info("saved analysis", zap.String("filename", savePath))
	}
}

func analyze(ctx context.Context, analyzer ai.Analyzer, kind ai.AnalysisType, doc *resume.Document, jobDescription string, format render.Format, out io.Writer, savePath string) error {
	analysis, err := analyzer.Analyze(ctx, kind, doc, jobDescription)
	if err != nil {
		return err
	}

	if err := render.Analysis(out, format, analysis); err != nil {
		return err
	}

	if savePath == "" {
		return nil
	}
	return os.WriteFile(savePath, []byte(analysis.Markdown()), 0o644)
}

func jobDescriptionFromFlags(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("job-description-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}

	text, _ := cmd.Flags().GetString("job-description")
	if strings.TrimSpace(text) == "" {
		return "", ai.ErrEmptyJobDescription
	}
	return strings.TrimSpace(text), nil
}

// selectAnalysisType parses the flag value or asks interactively when it is empty.
func selectAnalysisType(value string) (ai.AnalysisType, error) {
	if strings.TrimSpace(value) != "" {
		return ai.ParseAnalysisType(value)
	}

	kinds := ai.AnalysisTypes()
	items := make([]string, len(kinds))
	for i, kind := range kinds {
		items[i] = kind.Title()
	}

	prompt := promptui.Select{
		Label: "Choose an analysis",
		Items: items,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return "", fmt.Errorf("analysis selection cancelled: %w", err)
		}
		return "", err
	}

	return kinds[idx], nil
}
