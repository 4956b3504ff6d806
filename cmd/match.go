package cmd

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/corpus"
	"github.com/spigell/skillmatch/internal/matching"
	"github.com/spigell/skillmatch/internal/render"
	"github.com/spigell/skillmatch/internal/resume"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank the job corpus against your skills",
	Example: `  skillmatch match --skills "python, sql, pandas"
  skillmatch match --resume cv.pdf --top 10 -o json`,
	Run: func(cmd *cobra.Command, _ []string) {
		runMatchCommand(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("skills", "s", "", "comma separated list of your skills")
	matchCmd.Flags().StringP("resume", "r", "", "resume file (pdf, docx or txt) to take skills from")
	matchCmd.Flags().IntP("top", "n", matching.DefaultTopN, "number of matches to show")

	viper.BindPFlag("match.top-n", matchCmd.Flags().Lookup("top"))
}

func runMatchCommand(cmd *cobra.Command) {
	ctx := context.Background()
	config, logger, format := bootstrap()

	skills, _ := cmd.Flags().GetString("skills")
	resumePath, _ := cmd.Flags().GetString("resume")

	if strings.TrimSpace(skills) == "" && resumePath != "" {
		doc, err := resume.Load(resumePath)
		if err != nil {
			logger.Fatal("loading resume", zap.Error(err))
		}
		skills = resumeSkills(ctx, doc, optionalExtractor(ctx, config.AI, logger), logger)
	}

	engine := matching.NewEngine(corpus.NewStore(config.Corpus, logger), logger)

	if err := match(ctx, engine, skills, config.Match.TopN, format, os.Stdout); err != nil {
		logger.Fatal("matching", zap.Error(err))
	}
}

type matcher interface {
	Match(ctx context.Context, userSkills string, topN int) ([]matching.MatchResult, error)
}

// match ranks skills and prints the results. No-match conditions print the
// empty result instead of failing.
func match(ctx context.Context, m matcher, skills string, topN int, format render.Format, out io.Writer) error {
	results, err := m.Match(ctx, skills, topN)
	switch {
	case matching.IsNoMatches(err):
		results = nil
	case err != nil:
		return err
	}

	return render.Matches(out, format, results)
}
