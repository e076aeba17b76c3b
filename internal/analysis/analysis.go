package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/resumematch/internal/ai"
	"github.com/spigell/resumematch/internal/ai/params"
	"github.com/spigell/resumematch/internal/ai/parse"
	"github.com/spigell/resumematch/internal/logger"
	"github.com/spigell/resumematch/internal/metrics"
	"github.com/spigell/resumematch/internal/sanitize"
)

const (
	TypeProfileFit         = "profile_fit"
	TypeKeywordMatch       = "keyword_match"
	TypeSelection          = "selection_percentage"
	TypeQA                 = "qa"
	TypeProjectDescription = "project_description"

	// SystemPrompt sizes the token budget of every resume analysis.
	SystemPrompt = "You are an expert Technical HR Manager and ATS analyzer."

	qaSystemPrompt = "You are a helpful HR assistant. Provide detailed, specific answers based on the resume content."
	qaChunks       = 2

	fitScoreLabel     = "FIT SCORE"
	keywordMatchLabel = "KEYWORD MATCH PERCENTAGE"

	defaultMaxLogLength = 200
)

var (
	//go:embed prompts/profile_fit.md
	profileFitPrompt string
	//go:embed prompts/keyword_match.md
	keywordMatchPrompt string
	//go:embed prompts/selection.md
	selectionPrompt string
)

var ErrMissingInput = errors.New("job description and resume text are required")

// Input is what every resume analysis works on.
type Input struct {
	JobDescription string
	ResumeText     string
	Model          string
}

func (in Input) validate() error {
	if strings.TrimSpace(in.JobDescription) == "" || strings.TrimSpace(in.ResumeText) == "" {
		return ErrMissingInput
	}
	return nil
}

type ProfileFit struct {
	Text     string       `json:"text"`
	FitScore int          `json:"fit_score"`
	Source   parse.Source `json:"source"`
	Seed     int          `json:"seed"`
}

type KeywordMatch struct {
	Text       string       `json:"text"`
	Percentage int          `json:"percentage"`
	Source     parse.Source `json:"source"`
	Seed       int          `json:"seed"`
}

type Selection struct {
	Categories parse.Categories `json:"categories"`
	Percentage int              `json:"selection_percentage"`
	Positive   []string         `json:"positive_categories"`
	Negative   []string         `json:"negative_categories"`
	Raw        string           `json:"raw"`
	Seed       int              `json:"seed"`
}

type Answer struct {
	Question string `json:"question"`
	Text     string `json:"answer"`
	Seed     int    `json:"seed"`
}

type Analyzer struct {
	// DefaultModel is used when the input names no model.
	DefaultModel string

	completer ai.Completer
	deriver   *params.Deriver
	logger    *zap.Logger
	maxLogLen int
}

func New(completer ai.Completer, deriver *params.Deriver, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	if deriver == nil {
		deriver = params.NewDeriver(nil, log)
	}
	return &Analyzer{
		DefaultModel: ai.DefaultModel,
		completer:    completer,
		deriver:      deriver,
		logger:       log,
		maxLogLen:    defaultMaxLogLength,
	}
}

func (a *Analyzer) ProfileFit(ctx context.Context, in Input) (*ProfileFit, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	seed := params.Seed(in.JobDescription, in.ResumeText, TypeProfileFit)
	raw, err := a.complete(ctx, call{
		analysis:     TypeProfileFit,
		seed:         seed,
		model:        in.Model,
		budgetPrompt: SystemPrompt,
		budgetJob:    in.JobDescription,
		messages:     resumeMessages(profileFitPrompt, in),
	})
	if err != nil {
		return nil, err
	}

	score := parse.Percentage(raw, fitScoreLabel)
	metrics.ObserveScore(TypeProfileFit, string(score.Source), score.Value)

	return &ProfileFit{Text: raw, FitScore: score.Value, Source: score.Source, Seed: seed}, nil
}

func (a *Analyzer) KeywordMatch(ctx context.Context, in Input) (*KeywordMatch, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	seed := params.Seed(in.JobDescription, in.ResumeText, TypeKeywordMatch)
	raw, err := a.complete(ctx, call{
		analysis:     TypeKeywordMatch,
		seed:         seed,
		model:        in.Model,
		budgetPrompt: SystemPrompt,
		budgetJob:    in.JobDescription,
		messages:     resumeMessages(keywordMatchPrompt, in),
	})
	if err != nil {
		return nil, err
	}

	score := parse.Percentage(raw, keywordMatchLabel)
	metrics.ObserveScore(TypeKeywordMatch, string(score.Source), score.Value)

	return &KeywordMatch{Text: raw, Percentage: score.Value, Source: score.Source, Seed: seed}, nil
}

// SelectionPercentage asks for per-category scores and averages them.
// Categories at or above the average are strengths, the rest need improvement.
func (a *Analyzer) SelectionPercentage(ctx context.Context, in Input) (*Selection, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	seed := params.Seed(in.JobDescription, in.ResumeText, TypeSelection)
	raw, err := a.complete(ctx, call{
		analysis:     TypeSelection,
		seed:         seed,
		model:        in.Model,
		budgetPrompt: SystemPrompt,
		budgetJob:    in.JobDescription,
		messages:     resumeMessages(selectionPrompt, in),
	})
	if err != nil {
		return nil, err
	}

	cats := parse.ParseCategories(raw)
	if cats.Source != parse.SourceStructured {
		a.logger.Info("category scores were not returned as JSON",
			zap.String("source", string(cats.Source)),
			zap.String("response_preview", logger.TruncateForLog(raw, a.maxLogLen)),
		)
	}

	selection := cats.Selection()
	positive, negative := cats.Split()
	metrics.ObserveScore(TypeSelection, string(cats.Source), selection)

	return &Selection{
		Categories: cats,
		Percentage: selection,
		Positive:   positive,
		Negative:   negative,
		Raw:        raw,
		Seed:       seed,
	}, nil
}

// QA answers a free-form question using the first resume chunks as context.
func (a *Analyzer) QA(ctx context.Context, in Input, question string) (*Answer, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}

	chunks := sanitize.Chunk(in.ResumeText, sanitize.DefaultChunkSize)
	if len(chunks) > qaChunks {
		chunks = chunks[:qaChunks]
	}
	excerpt := strings.Join(chunks, "\n\n")

	seed := params.Seed(in.JobDescription+question, in.ResumeText, TypeQA)
	raw, err := a.complete(ctx, call{
		analysis:     TypeQA,
		seed:         seed,
		model:        in.Model,
		budgetPrompt: SystemPrompt,
		budgetJob:    in.JobDescription + question,
		messages: []ai.Message{
			ai.System(qaSystemPrompt),
			ai.User(fmt.Sprintf("Job Description:\n%s\n\nResume Excerpt:\n%s\n\nQuestion: %s", in.JobDescription, excerpt, question)),
		},
	})
	if err != nil {
		return nil, err
	}

	return &Answer{Question: question, Text: raw, Seed: seed}, nil
}

func resumeMessages(prompt string, in Input) []ai.Message {
	return []ai.Message{
		ai.System(strings.TrimSpace(prompt)),
		ai.User(fmt.Sprintf("Job Description:\n%s\n\nResume Text:\n%s", in.JobDescription, in.ResumeText)),
	}
}

type call struct {
	analysis string
	seed     int
	model    string
	// budgetPrompt and budgetJob size max_tokens; they are not sent.
	budgetPrompt string
	budgetJob    string
	messages     []ai.Message
}

func (a *Analyzer) complete(ctx context.Context, c call) (string, error) {
	if a.completer == nil {
		return "", errors.New("chat completer is not configured")
	}

	model := ai.ResolveModel(c.model, a.DefaultModel)
	p := a.deriver.Derive(c.budgetPrompt, c.budgetJob, model)

	fields := append(logger.AnalysisFields(c.analysis, c.seed), logger.CommonFields(a.completer.Provider(), model)...)
	log := a.logger.With(fields...)

	prompt := promptText(c.messages)
	log.Debug("chat completion request",
		zap.Int("max_tokens", p.MaxTokens),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.completer.Complete(ctx, ai.Request{
		Model:       model,
		Messages:    c.messages,
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
		TopP:        p.TopP,
		Operation:   c.analysis,
	})
	if err != nil {
		log.Warn("analysis failed", zap.Error(err))
		return "", fmt.Errorf("%s: %w", c.analysis, err)
	}

	log.Debug("chat completion response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, a.maxLogLen)),
	)

	return raw, nil
}

func promptText(messages []ai.Message) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n\n")
}
