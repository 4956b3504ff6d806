package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/filtering"
	"github.com/spigell/skillmatch/internal/jsearch"
	"github.com/spigell/skillmatch/internal/render"
	"github.com/spigell/skillmatch/internal/resume"
)

const (
	PromptExit                = "Exit"
	PromptShowJobs            = "Show jobs again"
	PromptReportByEmployers   = "Report by employers"
	PromptJobsToFile          = "Dump jobs to file"
	PromptAppendToExcludeFile = "Append all jobs to exclude file"
)

var errExit = errors.New("exit requested")

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search live job listings and rank them by your skills",
	Example: `  skillmatch search --role "data engineer" --location Berlin --skills "python, spark"
  skillmatch search --resume cv.pdf --location Remote --remote --count 30 --yes`,
	Run: func(cmd *cobra.Command, _ []string) {
		runSearchCommand(cmd)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().String("role", "", "job role to search for (guessed from --resume when empty)")
	searchCmd.Flags().String("location", "", "location to search in")
	searchCmd.Flags().Bool("remote", false, "remote jobs only")
	searchCmd.Flags().Int("count", jsearch.DefaultCount, "number of jobs to fetch")
	searchCmd.Flags().StringP("skills", "s", "", "rank results by these skills")
	searchCmd.Flags().StringP("resume", "r", "", "resume file used to guess the role and skills")
	searchCmd.Flags().Float64("min-similarity", 0, "drop jobs matching your skills below this percentage")
	searchCmd.Flags().StringP("exclude-file", "e", "", "file with jobs to exclude. Default is unset.")
	searchCmd.Flags().BoolP("yes", "y", false, "do not ask what to do with the results")

	viper.BindPFlag("search.role", searchCmd.Flags().Lookup("role"))
	viper.BindPFlag("search.location", searchCmd.Flags().Lookup("location"))
	viper.BindPFlag("search.remote", searchCmd.Flags().Lookup("remote"))
	viper.BindPFlag("search.count", searchCmd.Flags().Lookup("count"))
	viper.BindPFlag("filters.min-similarity", searchCmd.Flags().Lookup("min-similarity"))
	viper.BindPFlag("filters.exclude-file", searchCmd.Flags().Lookup("exclude-file"))
}

func runSearchCommand(cmd *cobra.Command) {
	ctx := context.Background()
	config, logger, format := bootstrap()

	params := config.Search
	skills, _ := cmd.Flags().GetString("skills")

	if resumePath, _ := cmd.Flags().GetString("resume"); resumePath != "" {
		doc, err := resume.Load(resumePath)
		if err != nil {
			logger.Fatal("loading resume", zap.Error(err))
		}
		if strings.TrimSpace(params.Role) == "" {
			params.Role = resume.GuessJobTitle(doc.Text)
			logger.Info("guessed job title from resume", zap.String("role", params.Role))
		}
		if strings.TrimSpace(skills) == "" {
			skills = resumeSkills(ctx, doc, optionalExtractor(ctx, config.AI, logger), logger)
		}
	}

	client, err := newJSearchClient(config.JSearch, logger)
	if err != nil {
		logger.Fatal("building jsearch client", zap.Error(err))
	}

	logger.Info("starting the search", zap.String("query", params.Query()))

	bar := getProgressBar(params.Pages(), "Fetching job pages")
	jobs, err := client.Search(ctx, &params, func(page, _ int) {
		bar.Set(page)
	})
	bar.Finish()
	if err != nil {
		if jobs.Len() == 0 {
			logger.Fatal("searching jobs", zap.Error(err))
		}
		logger.Warn("search stopped early, continuing with fetched jobs", zap.Error(err))
	}

	if jobs.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no jobs found"))
		return
	}

	steps := prepareFilters(config.Filters, skills)
	logFilters(logger, steps)

	jobs, err = filtering.Run(ctx, logger, steps, jobs)
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	if jobs.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no jobs left after filters"))
		return
	}

	if err := render.Jobs(os.Stdout, format, jobs, time.Now()); err != nil {
		logger.Fatal("printing jobs", zap.Error(err))
	}

	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return
	}

	for {
		if err := handleAction(promptAction(config.Filters.ExcludeFile), logger, config, format, jobs); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
		if jobs.Len() == 0 {
			logger.Info("exiting", zap.String("reason", "no jobs left"))
			return
		}
	}
}

func prepareFilters(config filtering.Config, skills string) []filtering.Filter {
	steps := []filtering.Filter{
		filtering.NewExcludedEmployers(config.Employers),
		filtering.NewExcludeFile(config.ExcludeFile),
		filtering.NewSkillSimilarity(skills, config.MinSimilarity),
	}

	if strings.TrimSpace(skills) == "" {
		filtering.DisableByName(steps, filtering.SkillSimilarityName, "no skills provided")
	}

	return steps
}

func logFilters(logger *zap.Logger, steps []filtering.Filter) {
	for _, status := range filtering.Describe(steps) {
		logger.Debug("filter configured",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}
}

func promptAction(excludeFile string) string {
	items := []string{PromptShowJobs, PromptReportByEmployers, PromptJobsToFile}
	if excludeFile != "" {
		items = append(items, PromptAppendToExcludeFile)
	}

	prompt := promptui.Select{
		Label: "What next?",
		Items: append(items, PromptExit),
	}

	_, action, err := prompt.Run()
	if err != nil {
		return PromptExit
	}
	return action
}

func handleAction(action string, logger *zap.Logger, config *Config, format render.Format, jobs *jsearch.Jobs) error {
	switch action {
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	case PromptShowJobs:
		return render.Jobs(os.Stdout, format, jobs, time.Now())
	case PromptReportByEmployers:
		pretty, _ := json.MarshalIndent(jobs.ReportByEmployer(), "", "  ")
		fmt.Println(string(pretty))
		logger.Info("report by employers", zap.Int("jobs count", jobs.Len()))
		return nil
	case PromptJobsToFile:
		filename, err := jobs.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		return appendToExcludeFile(config.Filters.ExcludeFile, jobs, logger)
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func appendToExcludeFile(excludeFile string, jobs *jsearch.Jobs, logger *zap.Logger) error {
	excluded, err := jsearch.LoadExcludedJobs(excludeFile)
	if err != nil {
		return err
	}

	excluded.Append(jobs.ToExcluded())

	if err := excluded.ToFile(excludeFile); err != nil {
		return err
	}

	logger.Info("appended to exclude file", zap.String("filename", excludeFile))

	jobs.Exclude(jsearch.JobIDField, excluded.IDs())
	return nil
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("pages"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}
