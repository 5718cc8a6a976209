package clarification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"prism-workers/internal/llm"
)

var ErrUnparseableVerdict = errors.New("LLM_MALFORMED_OUTPUT")

const ambiguitySystemPrompt = `You help a course assistant decide whether a student's question is clear enough to answer.

A question NEEDS a follow-up when it cannot be answered without guessing what the student means, for example "explain it", "how does that work?", or a single word with several meanings in the course.
A question does NOT need a follow-up when it names a concrete concept, document, or task, even if it is short.

Set "response" only when the message needs no course material at all, such as a greeting or thanks. Otherwise leave it empty.

Reply with a JSON object:
{"needs_follow_up": true|false, "follow_up_questions": ["one short question to the student", ...], "response": ""}`

type Completer interface {
	Complete(ctx context.Context, system, user string, opts ...llm.Option) (string, error)
}

// LLMClassifier asks the language model to judge ambiguity.
type LLMClassifier struct {
	llm Completer
}

func NewLLMClassifier(c Completer) *LLMClassifier {
	return &LLMClassifier{llm: c}
}

func (c *LLMClassifier) Classify(ctx context.Context, query string, history []string) (Verdict, error) {
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("Earlier messages in this clarification:\n")
		for _, h := range history {
			fmt.Fprintf(&b, "- %s\n", h)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Student question: %s", query)

	raw, err := c.llm.Complete(ctx, ambiguitySystemPrompt, b.String(), llm.Temperature(0), llm.JSONObject())
	if err != nil {
		return Verdict{}, err
	}
	return ParseVerdict(raw)
}

// ParseVerdict decodes the model reply, falling back to the first object
// that mentions needs_follow_up.
func ParseVerdict(raw string) (Verdict, error) {
	var v Verdict
	if err := json.Unmarshal([]byte(llm.StripFences(raw)), &v); err == nil {
		return v.clean(), nil
	}

	span, ok := llm.SalvageObject(raw, "needs_follow_up")
	if !ok {
		return Verdict{}, ErrUnparseableVerdict
	}
	if err := json.Unmarshal([]byte(span), &v); err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrUnparseableVerdict, err)
	}
	return v.clean(), nil
}

func (v Verdict) clean() Verdict {
	qs := v.FollowUpQuestions[:0:0]
	for _, q := range v.FollowUpQuestions {
		if q = strings.TrimSpace(q); q != "" {
			qs = append(qs, q)
		}
	}
	v.FollowUpQuestions = qs
	v.Response = strings.TrimSpace(v.Response)
	return v
}
