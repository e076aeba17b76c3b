package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resumematch/internal/ai"
	"github.com/spigell/resumematch/internal/ai/gemini"
	"github.com/spigell/resumematch/internal/ai/openai"
	"github.com/spigell/resumematch/internal/ai/params"
	"github.com/spigell/resumematch/internal/analysis"
	"github.com/spigell/resumematch/internal/app"
	"github.com/spigell/resumematch/internal/filtering"
	"github.com/spigell/resumematch/internal/github"
	"github.com/spigell/resumematch/internal/logger"
	"github.com/spigell/resumematch/internal/report"
	"github.com/spigell/resumematch/internal/resume"
	"github.com/spigell/resumematch/internal/secrets"
)

const (
	providerGroq   = "groq"
	providerOpenAI = "openai"
	providerGemini = "gemini"

	openAIBaseURL = "https://api.openai.com/v1"
)

// bootstrap builds the logger and config every command needs. Failures are fatal.
func bootstrap() (*zap.Logger, *Config) {
	logger, err := logger.New(logger.Options{JSON: viper.GetBool("json"), Debug: viper.GetBool("debug")})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return logger, config
}

// newService wires the chat backend, GitHub client and filters. A missing LLM
// key is fatal; a missing GitHub token only limits the API rate.
func newService(ctx context.Context, config *Config, log *zap.Logger) *app.Service {
	completer, err := newCompleter(ctx, config.LLM, log)
	if err != nil {
		log.Fatal("building chat completer", zap.Error(err),
			zap.String("hint", "set LLM_API_KEY (or GROQ_API_KEY) or llm.api-key-file in the configuration file"),
		)
	}

	analyzer := analysis.New(completer, params.NewDeriver(params.NewCounter(), log), log)
	if model := strings.TrimSpace(config.LLM.Model); model != "" {
		if err := checkModel(config, model); err != nil {
			log.Fatal("checking llm.model", zap.Error(err))
		}
		analyzer.DefaultModel = model
	}

	extractor, err := resume.NewProjectExtractor(config.Resume.ProjectHeaders)
	if err != nil {
		log.Fatal("building resume project extractor", zap.Error(err))
	}

	pipeline := filtering.NewPipeline(&filtering.Config{ExcludedNames: config.GitHub.Exclude}, log)
	log.Debug("repository filters", zap.Any("filters", filtering.Describe(pipeline.Steps)))

	return &app.Service{
		Analyzer:  analyzer,
		GitHub:    newGitHubClient(config.GitHub, log),
		Filter:    pipeline,
		Extractor: extractor,
		PDF: report.PDFOptions{
			SectionLimit: config.Report.SectionLimit,
			Font:         config.Report.Font,
			Compress:     config.Report.Compress,
		},
		Logger: log,
	}
}

func newCompleter(ctx context.Context, cfg *LLMConfig, log *zap.Logger) (ai.Completer, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider == "" {
		provider = providerGroq
	}

	env := []string{"LLM_API_KEY"}
	switch provider {
	case providerGroq:
		env = append(env, "GROQ_API_KEY")
	case providerOpenAI:
		env = append(env, "OPENAI_API_KEY")
	case providerGemini:
		env = append(env, "GEMINI_API_KEY")
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  provider + " api key",
		File:  cfg.APIKeyFile,
		Value: cfg.APIKey,
		Env:   env,
	})
	if err != nil {
		return nil, err
	}

	clientLogger := log.With(logger.CommonFields(provider, cfg.Model)...)

	if provider == providerGemini {
		generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Model, clientLogger)
		if err != nil {
			return nil, err
		}
		return generator, nil
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" && provider == providerOpenAI {
		baseURL = openAIBaseURL
	}
	client, err := openai.NewClient(openai.Options{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		Timeout:  cfg.Timeout,
		Provider: provider,
	}, clientLogger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newGitHubClient(cfg *GitHubConfig, log *zap.Logger) *github.Client {
	token, ok, err := secrets.Optional(secrets.Source{
		Name:  "github token",
		File:  cfg.TokenFile,
		Value: cfg.Token,
		Env:   []string{"GITHUB_TOKEN"},
	})
	if err != nil {
		log.Fatal("loading github token", zap.Error(err))
	}
	if !ok {
		log.Warn("github token is not configured; requests are rate limited",
			zap.String("hint", "set GITHUB_TOKEN or github.token-file"),
		)
	}

	client := github.New(log, token, cfg.Timeout)
	if apiURL := strings.TrimSpace(cfg.APIURL); apiURL != "" {
		client.APIURL = strings.TrimSuffix(apiURL, "/")
	}
	return client
}

// checkModel rejects models outside the catalogue when the provider serves it.
func checkModel(config *Config, model string) error {
	model = strings.TrimSpace(model)
	if model == "" || !servesCatalogue(config.LLM.Provider) {
		return nil
	}
	if !ai.KnownModel(model) {
		return fmt.Errorf("unknown model %q (see the models command)", model)
	}
	return nil
}

// servesCatalogue reports whether ai.Models applies to the provider.
func servesCatalogue(provider string) bool {
	provider = strings.ToLower(strings.TrimSpace(provider))
	return provider == "" || provider == providerGroq
}

// readInputs loads the job description and the resume text from files.
func readInputs(jobFile, resumeFile string) (string, string, error) {
	if jobFile == "" || resumeFile == "" {
		return "", "", fmt.Errorf("both --job and --resume are required")
	}

	job, err := os.ReadFile(jobFile)
	if err != nil {
		return "", "", fmt.Errorf("reading job description: %w", err)
	}

	data, err := os.ReadFile(resumeFile)
	if err != nil {
		return "", "", fmt.Errorf("reading resume: %w", err)
	}
	text, err := resume.Extract(resumeFile, data)
	if err != nil {
		return "", "", fmt.Errorf("extracting resume text: %w", err)
	}

	return strings.TrimSpace(string(job)), text, nil
}
