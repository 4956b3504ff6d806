package gemini

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/skillmatch/internal/ai"
	"github.com/spigell/skillmatch/internal/resume"
	"github.com/spigell/skillmatch/internal/utils"
)

//go:embed prompts/*.md
var prompts embed.FS

var listMarker = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+`)

const (
	defaultMaxLogLength = 200
	extractSkillsPrompt = "extract_skills"
)

type contentGenerator interface {
	Generate(ctx context.Context, system string, parts ...genai.Part) (string, error)
	Model() string
}

// Analyzer runs résumé analyses and skill extraction through Gemini.
type Analyzer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var (
	_ ai.Analyzer       = (*Analyzer)(nil)
	_ ai.SkillExtractor = (*Analyzer)(nil)
)

func NewAnalyzer(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Analyzer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Analyzer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (a *Analyzer) Analyze(ctx context.Context, kind ai.AnalysisType, doc *resume.Document, jobDescription string) (*ai.Analysis, error) {
	if _, err := ai.ParseAnalysisType(string(kind)); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("resume is required")
	}
	jobDescription = strings.TrimSpace(jobDescription)
	if jobDescription == "" {
		return nil, ai.ErrEmptyJobDescription
	}

	system, err := loadPrompt(string(kind))
	if err != nil {
		return nil, err
	}

	parts := []genai.Part{resumePart(doc), {Text: "Job description:\n" + jobDescription}}

	raw, err := a.generate(ctx, string(kind), system, parts...)
	if err != nil {
		return nil, err
	}

	return &ai.Analysis{Type: kind, Model: a.generator.Model(), Text: raw}, nil
}

func (a *Analyzer) ExtractSkills(ctx context.Context, resumeText string) (string, error) {
	resumeText = strings.TrimSpace(resumeText)
	if resumeText == "" {
		return "", resume.ErrEmptyResume
	}

	system, err := loadPrompt(extractSkillsPrompt)
	if err != nil {
		return "", err
	}

	raw, err := a.generate(ctx, extractSkillsPrompt, system, genai.Part{Text: resumeText})
	if err != nil {
		return "", err
	}

	skills := CleanSkills(raw)
	if skills == "" {
		return "", errors.New("gemini returned no skills")
	}
	return skills, nil
}

func (a *Analyzer) generate(ctx context.Context, task, system string, parts ...genai.Part) (string, error) {
	a.logger.Debug("gemini generate content request",
		zap.String("task", task),
		zap.Int("parts", len(parts)),
		zap.String("system_preview", utils.TruncateForLog(system, a.maxLogLen)),
	)

	raw, err := a.generator.Generate(ctx, system, parts...)
	if err != nil {
		return "", err
	}

	a.logger.Debug("gemini generate content response",
		zap.String("task", task),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	return raw, nil
}

// resumePart sends PDFs as they are and everything else as extracted text.
func resumePart(doc *resume.Document) genai.Part {
	if doc.MIMEType == resume.MIMEPDF && len(doc.Data) > 0 {
		return *genai.NewPartFromBytes(doc.Data, resume.MIMEPDF)
	}
	return genai.Part{Text: "Resume:\n" + doc.Text}
}

func loadPrompt(name string) (string, error) {
	data, err := prompts.ReadFile("prompts/" + name + ".md")
	if err != nil {
		return "", fmt.Errorf("prompt %q: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// CleanSkills normalises a model answer into "a, b, c": code fences and list
// markers are removed and duplicates dropped case-insensitively.
func CleanSkills(raw string) string {
	raw = extractText(raw)

	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})

	seen := make(map[string]struct{}, len(fields))
	skills := make([]string, 0, len(fields))
	for _, field := range fields {
		skill := listMarker.ReplaceAllString(strings.TrimSpace(field), "")
		skill = strings.TrimSpace(strings.TrimSuffix(skill, "."))
		if skill == "" {
			continue
		}
		key := strings.ToLower(skill)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		skills = append(skills, skill)
	}

	return strings.Join(skills, ", ")
}

func extractText(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```text")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
