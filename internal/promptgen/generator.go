package promptgen

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sonder-app/sonder-api/internal/llm"
	"github.com/sonder-app/sonder-api/internal/logging"
	"github.com/sonder-app/sonder-api/internal/metrics"
	"github.com/sonder-app/sonder-api/internal/prompts"
)

// DefaultTimeout bounds one call to the text generation service.
const DefaultTimeout = 15 * time.Second

// TextGenerator is the text generation service the generator calls.
// llm.Client satisfies it.
type TextGenerator interface {
	Generate(ctx context.Context, instruction string, params llm.GenerationParams) (string, error)
}

// Topic is one instruction template the generator can send.
type Topic struct {
	Name        string
	Instruction string
}

// LoadTopics renders the embedded topic templates for maxWords, ordered by name.
func LoadTopics(maxWords int) ([]Topic, error) {
	names, err := prompts.List(prompts.TopicsFile)
	if err != nil {
		return nil, err
	}

	topics := make([]Topic, 0, len(names))
	for _, name := range names {
		template, err := prompts.Get(prompts.TopicsFile, name)
		if err != nil {
			return nil, err
		}
		topics = append(topics, Topic{
			Name:        name,
			Instruction: prompts.Format(template, map[string]string{"MaxWords": strconv.Itoa(maxWords)}),
		})
	}
	return topics, nil
}

// GeneratorConfig tunes a Generator. Zero values fall back to defaults.
type GeneratorConfig struct {
	Params  llm.GenerationParams
	Timeout time.Duration
	Topics  []Topic
	Rand    RandSource
}

// Generated is the outcome of one generation round.
type Generated struct {
	Text    string
	Outcome Outcome
	Topic   string
	Raw     string
	// Err is the service error that sent the round to the default question.
	Err   error
	Steps []Step
}

// Generator asks the text service for a question and normalizes the answer.
type Generator struct {
	client     TextGenerator
	normalizer *Normalizer
	params     llm.GenerationParams
	timeout    time.Duration
	topics     []Topic
	rnd        RandSource
	log        logging.Logger
}

// NewGenerator builds a generator. A nil client makes every round fall back
// to the default question.
func NewGenerator(client TextGenerator, normalizer *Normalizer, cfg GeneratorConfig, logger logging.Logger) (*Generator, error) {
	if normalizer == nil {
		return nil, fmt.Errorf("normalizer is required")
	}
	if logger == nil {
		logger = logging.Discard()
	}

	topics := cfg.Topics
	if len(topics) == 0 {
		var err error
		topics, err = LoadTopics(normalizer.Policy().MaxWords)
		if err != nil {
			return nil, fmt.Errorf("failed to load topics: %w", err)
		}
	}

	params := cfg.Params
	if params == (llm.GenerationParams{}) {
		params = llm.DefaultGenerationParams()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rnd := cfg.Rand
	if rnd == nil {
		rnd = globalRand
	}

	return &Generator{
		client:     client,
		normalizer: normalizer,
		params:     params,
		timeout:    timeout,
		topics:     topics,
		rnd:        rnd,
		log:        logger.With("component", "promptgen"),
	}, nil
}

// Generate runs one round: pick a topic, call the service under the
// configured timeout, normalize. It always produces a usable question.
func (g *Generator) Generate(ctx context.Context) Generated {
	topic := g.topics[g.rnd.IntN(len(g.topics))]
	out := Generated{Topic: topic.Name}

	raw, err := g.call(ctx, topic)
	out.Raw = raw
	out.Err = err
	if err != nil {
		g.log.Warn("text generation failed, using default question", "topic", topic.Name, "error", err)
	}

	res := g.normalizer.NormalizeDetailed(raw, err == nil)
	out.Text = res.Text
	out.Outcome = res.Outcome
	out.Steps = res.Steps

	metrics.RecordNormalizerOutcome(string(res.Outcome))
	g.log.Info("prompt generated", "topic", topic.Name, "outcome", string(res.Outcome), "words", WordCount(res.Text))
	return out
}

func (g *Generator) call(ctx context.Context, topic Topic) (string, error) {
	if g.client == nil {
		return "", fmt.Errorf("no text generation client configured")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	raw, err := g.client.Generate(ctx, topic.Instruction, g.params)
	metrics.RecordGeneration(providerName(g.client), time.Since(start), err == nil)
	if err != nil {
		return "", err
	}
	return raw, nil
}

func providerName(client TextGenerator) string {
	if p, ok := client.(interface{ Provider() llm.Provider }); ok {
		return string(p.Provider())
	}
	return "custom"
}
