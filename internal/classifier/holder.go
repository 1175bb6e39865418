package classifier

import (
	"pubg-tournament/internal/domain"
	"pubg-tournament/internal/tuning"
	"sync/atomic"
)

// Holder serves the current Classifier and swaps it when tuning changes.
type Holder struct {
	current atomic.Pointer[Classifier]
}

func NewHolder(store *tuning.Store) (*Holder, error) {
	c, err := New(store.Get().Classifier)
	if err != nil {
		return nil, err
	}
	h := &Holder{}
	h.current.Store(c)
	return h, nil
}

func (h *Holder) Classify(m *domain.MatchRecord) domain.Classification {
	return h.current.Load().Classify(m)
}

func (h *Holder) Explain(m *domain.MatchRecord) (domain.Classification, string) {
	return h.current.Load().Explain(m)
}

// Apply compiles t before publishing it, so a bad rule leaves the old classifier in place.
func (h *Holder) Apply(t *tuning.Tuning) error {
	c, err := New(t.Classifier)
	if err != nil {
		return err
	}
	h.current.Store(c)
	return nil
}

func (h *Holder) RuleNames() []string {
	return h.current.Load().RuleNames()
}
