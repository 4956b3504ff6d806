package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/ai/gemini"
	"github.com/spigell/skillmatch/internal/corpus"
	"github.com/spigell/skillmatch/internal/filtering"
	"github.com/spigell/skillmatch/internal/jsearch"
	"github.com/spigell/skillmatch/internal/logger"
	"github.com/spigell/skillmatch/internal/matching"
	"github.com/spigell/skillmatch/internal/render"
	"github.com/spigell/skillmatch/internal/server"
)

const (
	app       = "skillmatch"
	envPrefix = "SKILLMATCH"
)

type Config struct {
	Corpus  corpus.Config        `mapstructure:"corpus"`
	Match   MatchConfig          `mapstructure:"match"`
	AI      AIConfig             `mapstructure:"ai"`
	JSearch JSearchConfig        `mapstructure:"jsearch"`
	Search  jsearch.SearchParams `mapstructure:"search"`
	Filters filtering.Config     `mapstructure:"filters"`
	Server  server.Config        `mapstructure:"server"`
	Output  string               `mapstructure:"output"`
}

type MatchConfig struct {
	TopN int `mapstructure:"top-n"`
}

type AIConfig struct {
	// Provider is empty or "gemini".
	Provider string       `mapstructure:"provider"`
	Gemini   GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	gemini.Config `mapstructure:",squash"`
	APIKey        string `mapstructure:"api-key"`
	APIKeyFile    string `mapstructure:"api-key-file"`
}

type JSearchConfig struct {
	jsearch.Config `mapstructure:",squash"`
	APIKey         string `mapstructure:"api-key"`
	APIKeyFile     string `mapstructure:"api-key-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "skillmatch ranks job postings by how well they match your skills",
		Long: `skillmatch ranks a job corpus against a free-text list of skills using
TF-IDF cosine similarity. It can also analyse a resume with Gemini, search
live job listings and estimate salaries through JSearch, and serve all of
it over HTTP.`,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is skillmatch.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().StringP("output", "o", string(render.FormatTable), "output format: table, json or yaml")
	rootCmd.PersistentFlags().String("corpus", "", "path to the job skills CSV file")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("corpus.path", rootCmd.PersistentFlags().Lookup("corpus"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("corpus.path", "job_skills.csv")
	v.SetDefault("corpus.link-column", corpus.DefaultLinkColumn)
	v.SetDefault("corpus.skills-column", corpus.DefaultSkillsColumn)
	v.SetDefault("corpus.refresh-interval", time.Duration(0))

	v.SetDefault("match.top-n", matching.DefaultTopN)

	v.SetDefault("ai.provider", gemini.Provider)
	v.SetDefault("ai.gemini.model", "")
	v.SetDefault("ai.gemini.max-retries", 0)
	v.SetDefault("ai.gemini.max-log-length", 0)
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")

	v.SetDefault("jsearch.base-url", jsearch.DefaultBaseURL)
	v.SetDefault("jsearch.timeout", 30*time.Second)
	v.SetDefault("jsearch.requests-per-second", 1.0)
	v.SetDefault("jsearch.api-key", "")
	v.SetDefault("jsearch.api-key-file", "")

	v.SetDefault("search.role", "")
	v.SetDefault("search.location", "")
	v.SetDefault("search.remote", false)
	v.SetDefault("search.count", jsearch.DefaultCount)
	v.SetDefault("search.date-posted", "")
	v.SetDefault("search.employment-types", "")

	v.SetDefault("filters.employers", []string{})
	v.SetDefault("filters.exclude-file", "")
	v.SetDefault("filters.min-similarity", 0.0)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read-timeout", 10*time.Second)
	v.SetDefault("server.shutdown-timeout", 10*time.Second)
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless given explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		return nil, errors.New("empty configuration")
	}

	return config, nil
}

// bootstrap builds the logger and reads the configuration for a command.
func bootstrap() (*Config, *zap.Logger, render.Format) {
	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating a logger: %s\n", err)
		os.Exit(1)
	}

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	format, err := render.ParseFormat(config.Output)
	if err != nil {
		log.Fatal("parsing output format", zap.Error(err))
	}

	log.Debug("starting with config",
		zap.String("version", resolveVersion(version, debug.ReadBuildInfo)),
		zap.String("config_file", viper.ConfigFileUsed()),
		zap.String("corpus", config.Corpus.Path),
		zap.String("ai_provider", config.AI.Provider),
	)

	return config, log, format
}
