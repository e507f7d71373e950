package questions

import (
	"context"
	"errors"
)

var ErrSetNotFound = errors.New("question set not found")

// Question kinds
const (
	KindChoice = "choice"
	KindText   = "text"
)

// Question is the transport-neutral shape the game core consumes. The answer
// key fields never leave the server; broadcast payloads strip them.
type Question struct {
	Index        int
	Kind         string // KindChoice | KindText
	Prompt       string
	Options      []string
	CorrectIndex int
	Answer       string // canonical text answer, text kind only
	TimeLimitMs  int64
}

type QuestionSet struct {
	Id        string
	Name      string
	Questions []Question
}

// Provider is the question-set collaborator. The management surface that
// authors sets lives outside this process entirely.
type Provider interface {
	GetQuestionSet(ctx context.Context, setId string) (*QuestionSet, error)
}

// StaticProvider serves question sets from memory. Used in tests and local
// development seeding.
type StaticProvider struct {
	sets map[string]*QuestionSet
}

func NewStaticProvider(sets ...*QuestionSet) *StaticProvider {
	p := &StaticProvider{sets: make(map[string]*QuestionSet)}
	for _, set := range sets {
		p.sets[set.Id] = set
	}
	return p
}

func (p *StaticProvider) GetQuestionSet(ctx context.Context, setId string) (*QuestionSet, error) {
	set, ok := p.sets[setId]
	if !ok {
		return nil, ErrSetNotFound
	}
	return set, nil
}
