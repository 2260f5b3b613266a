package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/civic-pulse/pulsecore/internal/domain"
	"github.com/civic-pulse/pulsecore/internal/telemetry"
)

const (
	defaultAnswerTopK        = 6
	defaultContextMaxChars   = 3000
	defaultGenerationTimeout = 30 * time.Second

	noInformationAnswer = "No information is available for that question yet."
)

// systemInstructions frame every generated answer. The assistant speaks for
// the platform directly rather than narrating what it retrieved.
const systemInstructions = `You are Civic Pulse, the assistant of a civic issue reporting platform.
Citizens report issues, verified issues are matched to responding organizations, and volunteers resolve them.
Answer using the context below. Reply directly and confidently; never mention the context or retrieval.
If the context does not contain the answer, say the information is not available. Be concise.`

// CompletionClient defines the interface for text generation
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Retriever is the slice of the context service the orchestrator needs.
type Retriever interface {
	Retrieve(ctx context.Context, question string, k int, filter map[string]any) ([]*domain.RetrievalHit, error)
}

// AnswerConfig holds the orchestrator's tunables.
type AnswerConfig struct {
	TopK              int
	ContextMaxChars   int
	GenerationTimeout time.Duration
}

func DefaultAnswerConfig() AnswerConfig {
	return AnswerConfig{
		TopK:              defaultAnswerTopK,
		ContextMaxChars:   defaultContextMaxChars,
		GenerationTimeout: defaultGenerationTimeout,
	}
}

// AnswerResult is the structured response for one chat turn. SupportingHits
// carries provenance so callers never re-derive where the text came from.
type AnswerResult struct {
	Text           string
	SupportingHits []*domain.RetrievalHit
}

// AnswerService combines retrieval, prompt assembly, and generation into the
// platform's chat answer. It always produces a non-empty answer: generation
// failures fall back to an extractive summary of the top hits.
type AnswerService struct {
	retriever  Retriever
	completion CompletionClient
	cfg        AnswerConfig
}

func NewAnswerService(retriever Retriever, completion CompletionClient, cfg AnswerConfig) *AnswerService {
	if cfg.TopK <= 0 {
		cfg.TopK = defaultAnswerTopK
	}
	if cfg.ContextMaxChars <= 0 {
		cfg.ContextMaxChars = defaultContextMaxChars
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = defaultGenerationTimeout
	}
	return &AnswerService{retriever: retriever, completion: completion, cfg: cfg}
}

// Answer runs one chat turn: retrieve, build the bounded context, generate,
// and fall back to an extractive summary when generation is unavailable.
func (s *AnswerService) Answer(ctx context.Context, question string, topK int, filter map[string]any) (*AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return &AnswerResult{Text: "Please ask a question.", SupportingHits: []*domain.RetrievalHit{}}, nil
	}
	if topK <= 0 {
		topK = s.cfg.TopK
	}

	ctx, span := telemetry.StartSpan(ctx, "AnswerService.Answer", telemetry.SpanAttributes{
		Operation: "answer",
	})
	defer span.End()

	hits, err := s.retriever.Retrieve(ctx, question, topK, filter)
	if err != nil {
		return nil, err
	}

	if len(hits) == 0 {
		return &AnswerResult{Text: noInformationAnswer, SupportingHits: []*domain.RetrievalHit{}}, nil
	}

	contextBlock := BuildContext(hits, s.cfg.ContextMaxChars)
	prompt := buildPrompt(question, contextBlock)

	text, err := s.generate(ctx, prompt)
	if err != nil {
		log.Printf("answer: generation unavailable, using extractive fallback: %v", err)
		text = extractiveSummary(hits)
	}

	return &AnswerResult{Text: text, SupportingHits: hits}, nil
}

// generate calls the completion capability under the configured timeout. A
// timeout or error surfaces as GenerationUnavailable for the caller to
// recover from locally.
func (s *AnswerService) generate(ctx context.Context, prompt string) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	text, err := s.completion.Complete(genCtx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.ErrGenerationUnavailable
	}
	return text, nil
}

func buildPrompt(question, contextBlock string) string {
	var b strings.Builder
	b.WriteString(systemInstructions)
	b.WriteString("\n\nContext:\n")
	if contextBlock == "" {
		b.WriteString("(no relevant records found)")
	} else {
		b.WriteString(contextBlock)
	}
	b.WriteString("\n\nQuestion:\n")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")
	return b.String()
}

// extractiveSummary is the deterministic fallback answer: the top hit
// snippets verbatim, highest score first.
func extractiveSummary(hits []*domain.RetrievalHit) string {
	var lines []string
	for i, h := range hits {
		if i >= 3 {
			break
		}
		if h.Snippet == "" {
			continue
		}
		lines = append(lines, "- "+h.Snippet)
	}
	if len(lines) == 0 {
		return noInformationAnswer
	}
	return "Here is what the records show:\n" + strings.Join(lines, "\n")
}
