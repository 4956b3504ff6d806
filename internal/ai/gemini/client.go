package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/skillmatch/internal/logger"
	"github.com/spigell/skillmatch/internal/utils"
)

const (
	Provider = "gemini"

	defaultModel      = "gemini-2.5-flash"
	defaultMaxRetries = 3
	maxQuotaDelay     = 30 * time.Second
	baseBackoff       = time.Second
)

// wait pauses between attempts and returns early when ctx is done.
var wait = utils.WaitFor

var retryDelayPattern = regexp.MustCompile(`(?i)retry (?:after|in) ([0-9]+(?:\.[0-9]+)?)\s*(s|sec|secs|seconds?)\b`)

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type genaiChats struct {
	chats *genai.Chats
}

func (c genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	return c.chats.Create(ctx, model, config, history)
}

// Config holds the Gemini settings read from the "ai.gemini" section.
type Config struct {
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
	// MaxLogLength limits prompt and response previews in debug logs.
	MaxLogLength int `mapstructure:"max-log-length"`
}

// Generator sends single-turn requests to Gemini and retries temporary failures.
type Generator struct {
	chats      chatCreator
	model      string
	maxRetries int
	logger     *zap.Logger
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey string, cfg Config, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}

	return &Generator{
		chats:      genaiChats{chats: client.Chats},
		model:      model,
		maxRetries: retries,
		logger:     logger.WithCommonFields(log, Provider, model),
	}, nil
}

// GenerateContent sends a text message under the given system instruction.
func (g *Generator) GenerateContent(ctx context.Context, system, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("message must not be empty")
	}
	return g.Generate(ctx, system, genai.Part{Text: message})
}

// Generate sends parts under the given system instruction and returns the
// text of the answer. Temporary API errors are retried with exponential backoff.
func (g *Generator) Generate(ctx context.Context, system string, parts ...genai.Part) (string, error) {
	if g == nil || g.chats == nil {
		return "", errors.New("gemini generator is not initialized")
	}
	if len(parts) == 0 {
		return "", errors.New("at least one message part is required")
	}

	config := &genai.GenerateContentConfig{}
	if system = strings.TrimSpace(system); system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		output, err := g.send(ctx, config, parts)
		if err == nil {
			return output, nil
		}
		lastErr = err

		delay, retry := retryDelay(err, attempt)
		if !retry || attempt == g.maxRetries {
			break
		}

		g.logger.Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := wait(ctx, delay); err != nil {
			return "", err
		}
	}

	return "", lastErr
}

func (g *Generator) send(ctx context.Context, config *genai.GenerateContentConfig, parts []genai.Part) (string, error) {
	chat, err := g.chats.Create(ctx, g.model, config, nil)
	if err != nil {
		return "", fmt.Errorf("create chat: %w", err)
	}

	resp, err := chat.SendMessage(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	var builder strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate == nil || candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part == nil {
					continue
				}
				text := strings.TrimSpace(part.Text)
				if text == "" {
					continue
				}
				if builder.Len() > 0 {
					builder.WriteString("\n")
				}
				builder.WriteString(text)
			}
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}
	return output, nil
}

// retryDelay reports whether err is worth another attempt and how long to wait.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var ptr *genai.APIError
		if !errors.As(err, &ptr) || ptr == nil {
			return 0, false
		}
		apiErr = *ptr
	}

	switch apiErr.Code {
	case http.StatusTooManyRequests:
		if requested, ok := requestedDelay(apiErr.Message); ok {
			if requested > maxQuotaDelay {
				return 0, false
			}
			return requested, true
		}
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
	default:
		return 0, false
	}

	return baseBackoff << (attempt - 1), true
}

func requestedDelay(message string) (time.Duration, bool) {
	m := retryDelayPattern.FindStringSubmatch(message)
	if m == nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
