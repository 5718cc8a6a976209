package clarification

import (
	"context"
	"errors"
	"testing"

	"prism-workers/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cannedLLM struct {
	reply string
	err   error
	user  string
}

func (c *cannedLLM) Complete(ctx context.Context, system, user string, opts ...llm.Option) (string, error) {
	c.user = user
	return c.reply, c.err
}

func TestLLMClassifier_Classify(t *testing.T) {
	model := &cannedLLM{reply: `{"needs_follow_up": true, "follow_up_questions": ["Which lecture?"]}`}
	c := NewLLMClassifier(model)

	v, err := c.Classify(context.Background(), "explain it the cache", []string{"explain it", "the cache"})
	require.NoError(t, err)
	assert.True(t, v.NeedsFollowUp)
	assert.Equal(t, []string{"Which lecture?"}, v.FollowUpQuestions)
	assert.Contains(t, model.user, "- explain it\n- the cache\n")
	assert.Contains(t, model.user, "Student question: explain it the cache")
}

func TestLLMClassifier_Errors(t *testing.T) {
	_, err := NewLLMClassifier(&cannedLLM{err: llm.ErrLLMTimeout}).Classify(context.Background(), "q", nil)
	assert.True(t, errors.Is(err, llm.ErrLLMTimeout))

	_, err = NewLLMClassifier(&cannedLLM{reply: "maybe?"}).Classify(context.Background(), "q", nil)
	assert.ErrorIs(t, err, ErrUnparseableVerdict)
}
