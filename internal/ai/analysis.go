package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/skillmatch/internal/resume"
)

// AnalysisType selects the kind of résumé review requested from the model.
type AnalysisType string

const (
	ResumeReview      AnalysisType = "resume_review"
	SkillsImprovement AnalysisType = "skills_improvement"
	MatchPercentage   AnalysisType = "match_percentage"
	ATSScore          AnalysisType = "ats_score"
)

var (
	ErrUnknownAnalysis     = errors.New("unknown analysis type")
	ErrEmptyJobDescription = errors.New("please enter a job description")
)

var titles = map[AnalysisType]string{
	ResumeReview:      "Resume Review",
	SkillsImprovement: "Skills Improvement",
	MatchPercentage:   "Match Percentage",
	ATSScore:          "ATS Score Check",
}

// AnalysisTypes lists the supported analyses in menu order.
func AnalysisTypes() []AnalysisType {
	return []AnalysisType{ResumeReview, SkillsImprovement, MatchPercentage, ATSScore}
}

// ParseAnalysisType accepts the identifier of a supported analysis.
func ParseAnalysisType(s string) (AnalysisType, error) {
	kind := AnalysisType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := titles[kind]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAnalysis, s)
	}
	return kind, nil
}

// Title is the human readable name of the analysis.
func (t AnalysisType) Title() string {
	if title, ok := titles[t]; ok {
		return title
	}
	return string(t)
}

// Analysis is the model's answer to one analysis request.
type Analysis struct {
	Type  AnalysisType
	Model string
	Text  string
}

// Markdown renders the analysis as a standalone document.
func (a *Analysis) Markdown() string {
	return fmt.Sprintf("# %s Results\n\n%s", a.Type.Title(), a.Text)
}

// FileName is the default name used when saving the analysis.
func (a *Analysis) FileName() string {
	return fmt.Sprintf("resume_%s.md", a.Type)
}

type Analyzer interface {
	Analyze(ctx context.Context, kind AnalysisType, doc *resume.Document, jobDescription string) (*Analysis, error)
}

// SkillExtractor turns résumé text into a comma-separated skills list.
type SkillExtractor interface {
	ExtractSkills(ctx context.Context, resumeText string) (string, error)
}
