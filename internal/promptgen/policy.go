package promptgen

import (
	"math/rand/v2"

	"github.com/sonder-app/sonder-api/internal/prompts"
)

// DefaultMaxWords is the word ceiling applied when a policy does not set one.
const DefaultMaxWords = 12

// MinMaxWords is the smallest word ceiling a normalizer accepts.
const MinMaxWords = 3

// LastResortQuestion fits every ceiling from MinMaxWords up.
const LastResortQuestion = "What inspires you?"

const builtinDefaultQuestion = "What brought you joy today?"

// Policy holds the static tables the normalizer applies.
type Policy struct {
	MaxWords         int
	DefaultQuestion  string
	PronounFallbacks []string
	LengthFallbacks  []string
	FillerPhrases    []string
}

// DefaultPolicy returns the policy backed by the embedded question tables.
func DefaultPolicy() Policy {
	return Policy{
		MaxWords:         DefaultMaxWords,
		DefaultQuestion:  prompts.MustGet(prompts.QuestionsFile, "default-question"),
		PronounFallbacks: prompts.MustGetList(prompts.QuestionsFile, "pronoun-fallbacks"),
		LengthFallbacks:  prompts.MustGetList(prompts.QuestionsFile, "length-fallbacks"),
		FillerPhrases:    prompts.MustGetList(prompts.QuestionsFile, "filler-phrases"),
	}
}

// WithMaxWords returns a copy of the policy with a different word ceiling.
func (p Policy) WithMaxWords(n int) Policy {
	p.MaxWords = n
	return p
}

// RandSource picks fallback entries. *rand.Rand from math/rand/v2 satisfies it.
type RandSource interface {
	IntN(n int) int
}

type randFunc func(n int) int

func (f randFunc) IntN(n int) int { return f(n) }

// globalRand uses the math/rand/v2 top-level functions, which are safe for
// concurrent use.
var globalRand RandSource = randFunc(rand.IntN)

// SequenceRand returns the given indexes in order, wrapping around, each
// reduced modulo n. It is meant for tests that need to pin fallback choices.
type SequenceRand struct {
	seq []int
	pos int
}

// NewSequenceRand creates a SequenceRand over seq.
func NewSequenceRand(seq ...int) *SequenceRand {
	return &SequenceRand{seq: seq}
}

// IntN implements RandSource.
func (s *SequenceRand) IntN(n int) int {
	if len(s.seq) == 0 || n <= 0 {
		return 0
	}
	v := s.seq[s.pos%len(s.seq)]
	s.pos++
	if v < 0 {
		v = -v
	}
	return v % n
}
