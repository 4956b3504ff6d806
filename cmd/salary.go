package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/jsearch"
	"github.com/spigell/skillmatch/internal/render"
)

var salaryCmd = &cobra.Command{
	Use:     "salary",
	Short:   "Estimate the salary for a job title and location",
	Example: `  skillmatch salary --title "Data Engineer" --location "Austin, TX" --experience FOUR_TO_SIX`,
	Run: func(cmd *cobra.Command, _ []string) {
		runSalaryCommand(cmd)
	},
}

func init() {
	rootCmd.AddCommand(salaryCmd)

	salaryCmd.Flags().String("title", "", "job title")
	salaryCmd.Flags().String("location", "", "location")
	salaryCmd.Flags().String("experience", jsearch.ExperienceAll, experienceUsage())
}

func experienceUsage() string {
	codes := make([]string, len(jsearch.ExperienceLevels))
	for i, level := range jsearch.ExperienceLevels {
		codes[i] = level.Code
	}
	return fmt.Sprintf("years of experience: %s", strings.Join(codes, ", "))
}

func runSalaryCommand(cmd *cobra.Command) {
	ctx := context.Background()
	config, logger, format := bootstrap()

	title, _ := cmd.Flags().GetString("title")
	location, _ := cmd.Flags().GetString("location")
	experience, _ := cmd.Flags().GetString("experience")

	client, err := newJSearchClient(config.JSearch, logger)
	if err != nil {
		logger.Fatal("building jsearch client", zap.Error(err))
	}

	estimate, err := client.EstimateSalary(ctx, &jsearch.SalaryParams{
		Title:      title,
		Location:   location,
		Experience: experience,
	})
	if err != nil {
		logger.Fatal("estimating salary", zap.Error(err))
	}

	if err := render.Salary(os.Stdout, format, title, location, estimate); err != nil {
		logger.Fatal("printing salary estimate", zap.Error(err))
	}
}
