package questions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProvider(t *testing.T) {
	set := &QuestionSet{
		Id: "set-1",
		Questions: []Question{
			{Index: 0, Kind: KindChoice, Prompt: "q", Options: []string{"a", "b"}, CorrectIndex: 0, TimeLimitMs: 20000},
		},
	}
	p := NewStaticProvider(set)

	got, err := p.GetQuestionSet(context.Background(), "set-1")
	require.NoError(t, err)
	assert.Equal(t, set, got)

	_, err = p.GetQuestionSet(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrSetNotFound)
}
