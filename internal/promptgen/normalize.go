// Package promptgen turns raw generative-service output into a short,
// second-person daily question, and drives the generation round that
// produces it.
package promptgen

import (
	"regexp"
	"strings"
	"unicode"
)

// Outcome names the branch of the normalizer that produced the final text.
type Outcome string

const (
	// OutcomeDefault means the service failed or returned nothing.
	OutcomeDefault Outcome = "default"
	// OutcomeCleaned means the cleaned service text was kept.
	OutcomeCleaned Outcome = "cleaned"
	// OutcomePronounFallback means a first-person token forced a fallback.
	OutcomePronounFallback Outcome = "pronoun_fallback"
	// OutcomeLengthSalvaged means removing a filler phrase brought the text under the limit.
	OutcomeLengthSalvaged Outcome = "length_salvaged"
	// OutcomeLengthFallback means the text stayed too long and was replaced.
	OutcomeLengthFallback Outcome = "length_fallback"
	// OutcomeEmptyFallback means cleanup left no words behind.
	OutcomeEmptyFallback Outcome = "empty_fallback"
)

// Outcomes lists every outcome, in pipeline order.
var Outcomes = []Outcome{
	OutcomeDefault, OutcomeCleaned, OutcomePronounFallback,
	OutcomeLengthSalvaged, OutcomeLengthFallback, OutcomeEmptyFallback,
}

// Step records the working text after one pipeline stage.
type Step struct {
	Stage string
	Text  string
}

// Result is the normalized text plus how it was reached.
type Result struct {
	Text    string
	Outcome Outcome
	Steps   []Step
}

var (
	numberedMarker = regexp.MustCompile(`^\d+\.\s*`)
	bulletMarker   = regexp.MustCompile(`^[-•]\s*`)
	leadingResidue = regexp.MustCompile(`^[0-9.\-•\s]+`)
	lineBreaks     = regexp.MustCompile(`\s*[\r\n]+\s*`)
	terminalRun    = regexp.MustCompile(`[.?!]{2,}$`)
	wordToken      = regexp.MustCompile(`[\p{L}\p{N}']+`)

	spaceRun          = regexp.MustCompile(`\s{2,}`)
	spaceBeforePunct  = regexp.MustCompile(`\s+([?.,;:!])`)
	commaRun          = regexp.MustCompile(`,{2,}`)
	danglingBeforeEnd = regexp.MustCompile(`[,;:]+([?.])$`)
)

var firstPerson = map[string]bool{
	"i": true, "me": true, "my": true, "i'm": true, "i've": true,
}

// Normalizer applies the cleanup pipeline and fallback policy. It only reads
// its tables after construction and is safe for concurrent use, provided the
// RandSource is.
type Normalizer struct {
	policy  Policy
	fillers []*regexp.Regexp
	rnd     RandSource
}

// NewNormalizer builds a normalizer for policy. A nil rnd uses math/rand/v2.
//
// Fallback entries that do not fit the word ceiling are dropped. A default
// question that does not fit is replaced by the first fitting fallback, or by
// LastResortQuestion when none fits.
func NewNormalizer(policy Policy, rnd RandSource) *Normalizer {
	switch {
	case policy.MaxWords <= 0:
		policy.MaxWords = DefaultMaxWords
	case policy.MaxWords < MinMaxWords:
		policy.MaxWords = MinMaxWords
	}
	policy.PronounFallbacks = compliantOnly(policy.PronounFallbacks, policy.MaxWords)
	policy.LengthFallbacks = compliantOnly(policy.LengthFallbacks, policy.MaxWords)
	policy.DefaultQuestion = firstCompliant(policy.MaxWords,
		append(append([]string{policy.DefaultQuestion, builtinDefaultQuestion},
			policy.LengthFallbacks...), policy.PronounFallbacks...)...)

	if rnd == nil {
		rnd = globalRand
	}

	fillers := make([]*regexp.Regexp, 0, len(policy.FillerPhrases))
	for _, phrase := range policy.FillerPhrases {
		words := strings.Fields(phrase)
		if len(words) == 0 {
			continue
		}
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		fillers = append(fillers, regexp.MustCompile(`(?i)\b`+strings.Join(words, `\s+`)+`\b`))
	}

	return &Normalizer{policy: policy, fillers: fillers, rnd: rnd}
}

// Policy returns the policy the normalizer was built with.
func (n *Normalizer) Policy() Policy {
	return n.policy
}

// Normalize returns a compliant question for raw. When serviceSucceeded is
// false or raw is blank the default question is returned untouched.
func (n *Normalizer) Normalize(raw string, serviceSucceeded bool) string {
	return n.NormalizeDetailed(raw, serviceSucceeded).Text
}

// NormalizeDetailed is Normalize with the outcome and per-stage trace.
func (n *Normalizer) NormalizeDetailed(raw string, serviceSucceeded bool) Result {
	if !serviceSucceeded || strings.TrimSpace(raw) == "" {
		return Result{Text: n.policy.DefaultQuestion, Outcome: OutcomeDefault}
	}

	res := Result{}
	record := func(stage, text string) string {
		res.Steps = append(res.Steps, Step{Stage: stage, Text: text})
		return text
	}

	text := record("trim", strings.TrimSpace(raw))
	text = record("extract_list_item", extractListItem(text))
	text = record("collapse_punctuation", strings.ReplaceAll(text, "?.", "?"))
	text = record("truncate_sentence", truncateSentence(text))
	text = record("strip_markers", stripResidue(text))

	if !hasLetter(text) {
		res.Text = n.policy.DefaultQuestion
		res.Outcome = OutcomeEmptyFallback
		return res
	}

	text = record("terminal_punctuation", ensureTerminal(text))

	if HasFirstPerson(text) {
		res.Text = record("pronoun_policy", n.pick(n.policy.PronounFallbacks))
		res.Outcome = OutcomePronounFallback
		return res
	}

	if WordCount(text) <= n.policy.MaxWords {
		res.Text = text
		res.Outcome = OutcomeCleaned
		return res
	}

	salvaged := record("remove_filler", n.removeFiller(text))
	if hasLetter(salvaged) && WordCount(salvaged) <= n.policy.MaxWords {
		res.Text = salvaged
		res.Outcome = OutcomeLengthSalvaged
		return res
	}

	res.Text = record("length_policy", n.pick(n.policy.LengthFallbacks))
	res.Outcome = OutcomeLengthFallback
	return res
}

// pick returns a uniformly chosen entry, or the default question for an empty list.
func (n *Normalizer) pick(list []string) string {
	if len(list) == 0 {
		return n.policy.DefaultQuestion
	}
	return list[n.rnd.IntN(len(list))]
}

func compliantOnly(list []string, maxWords int) []string {
	out := make([]string, 0, len(list))
	for _, q := range list {
		if IsCompliant(q, maxWords) {
			out = append(out, q)
		}
	}
	return out
}

func firstCompliant(maxWords int, candidates ...string) string {
	for _, q := range candidates {
		if IsCompliant(q, maxWords) {
			return q
		}
	}
	return LastResortQuestion
}

// extractListItem keeps the first list line of a multi-line answer.
func extractListItem(text string) string {
	if !strings.Contains(text, "\n") {
		return text
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if loc := numberedMarker.FindStringIndex(line); loc != nil {
			return line[loc[1]:]
		}
		if loc := bulletMarker.FindStringIndex(line); loc != nil {
			return line[loc[1]:]
		}
	}
	return text
}

// truncateSentence cuts after the first '?', or after the first '.' when
// there is no question mark. A run of marks before the cut ("...?") collapses
// into the last one.
func truncateSentence(text string) string {
	if i := strings.IndexByte(text, '?'); i >= 0 {
		return terminalRun.ReplaceAllString(text[:i+1], "?")
	}
	if i := strings.IndexByte(text, '.'); i >= 0 {
		return text[:i+1]
	}
	return text
}

func stripResidue(text string) string {
	text = leadingResidue.ReplaceAllString(text, "")
	return strings.TrimSpace(lineBreaks.ReplaceAllString(text, " "))
}

func ensureTerminal(text string) string {
	if strings.HasSuffix(text, "?") || strings.HasSuffix(text, ".") {
		return text
	}
	text = strings.TrimRightFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune("!,;:", r)
	})
	if strings.Contains(text, "?") {
		return text + "?"
	}
	return text + "."
}

// removeFiller drops the first filler phrase (in policy order) found in text
// and tidies what is left.
func (n *Normalizer) removeFiller(text string) string {
	for _, re := range n.fillers {
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		text = text[:loc[0]] + text[loc[1]:]
		text = spaceRun.ReplaceAllString(text, " ")
		text = spaceBeforePunct.ReplaceAllString(text, "$1")
		text = commaRun.ReplaceAllString(text, ",")
		text = danglingBeforeEnd.ReplaceAllString(text, "$1")
		text = strings.TrimLeft(strings.TrimSpace(text), ",;: ")
		return capitalizeFirst(text)
	}
	return text
}

// HasFirstPerson reports whether text contains a first-person token. Any
// contraction of "i" (i'd, i'll) counts as well.
func HasFirstPerson(text string) bool {
	lower := strings.ToLower(strings.NewReplacer("’", "'", "‘", "'").Replace(text))
	for _, tok := range wordToken.FindAllString(lower, -1) {
		tok = strings.Trim(tok, "'")
		if firstPerson[tok] || strings.HasPrefix(tok, "i'") {
			return true
		}
	}
	return false
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// IsCompliant reports whether text already satisfies every output rule for
// the given word ceiling.
func IsCompliant(text string, maxWords int) bool {
	if text == "" || text != strings.TrimSpace(text) || !hasLetter(text) {
		return false
	}
	last := text[len(text)-1]
	if last != '?' && last != '.' {
		return false
	}
	body := text[:len(text)-1]
	if strings.ContainsAny(body, "?.") {
		return false
	}
	return !HasFirstPerson(text) && WordCount(text) <= maxWords
}

func hasLetter(text string) bool {
	return strings.IndexFunc(text, unicode.IsLetter) >= 0
}

func capitalizeFirst(text string) string {
	for i, r := range text {
		if unicode.IsLetter(r) {
			return text[:i] + string(unicode.ToUpper(r)) + text[i+len(string(r)):]
		}
	}
	return text
}
