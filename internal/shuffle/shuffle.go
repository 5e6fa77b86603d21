// Package shuffle randomizes the presentation order of a question's options and
// translates presented keys back to canonical keys. Everything here is pure:
// callers persist the mapping once per (attempt, question) and reuse it.
package shuffle

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	mrand "math/rand/v2"

	"github.com/fasahat78/startege-sub004/internal/models"
)

// RandomSource yields a uniform integer in [0, n).
type RandomSource interface {
	IntN(n int) (int, error)
}

type cryptoSource struct{}

func (cryptoSource) IntN(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

type mathSource struct{}

func (mathSource) IntN(n int) (int, error) {
	return mrand.IntN(n), nil
}

// Result is one shuffled presentation of a question.
type Result struct {
	// Options are relabelled A..D in their new order
	Options models.QuestionOptions
	Mapping models.ShuffleMapping
	// CorrectKey is the presented key of the canonical correct option
	CorrectKey models.OptionKey
}

type Shuffler struct {
	strong RandomSource
	weak   RandomSource
}

// New returns a shuffler backed by crypto/rand, falling back to math/rand/v2
// only for draws where the crypto source fails.
func New() *Shuffler {
	return &Shuffler{strong: cryptoSource{}, weak: mathSource{}}
}

// NewWithSources is used by tests to pin randomness.
func NewWithSources(strong, weak RandomSource) *Shuffler {
	if weak == nil {
		weak = mathSource{}
	}
	return &Shuffler{strong: strong, weak: weak}
}

func (s *Shuffler) intN(n int) (int, error) {
	v, err := s.strong.IntN(n)
	if err == nil && v >= 0 && v < n {
		return v, nil
	}
	v, werr := s.weak.IntN(n)
	if werr != nil {
		return 0, errors.Join(err, werr)
	}
	if v < 0 || v >= n {
		return 0, fmt.Errorf("random source returned %d outside [0,%d)", v, n)
	}
	return v, nil
}

// Shuffle permutes options with Fisher-Yates so every ordering is equally likely.
func (s *Shuffler) Shuffle(options models.QuestionOptions, correctKey models.OptionKey) (*Result, error) {
	if err := options.Validate(); err != nil {
		return nil, fmt.Errorf("cannot shuffle: %w", err)
	}
	if !correctKey.IsValid() {
		return nil, fmt.Errorf("cannot shuffle: correct key: %w", models.ErrInvalidOptionKey)
	}

	order := make(models.QuestionOptions, len(options))
	copy(order, options)
	for i := len(order) - 1; i > 0; i-- {
		j, err := s.intN(i + 1)
		if err != nil {
			return nil, fmt.Errorf("failed to draw random index: %w", err)
		}
		order[i], order[j] = order[j], order[i]
	}

	return build(order, correctKey), nil
}

// Identity presents options in canonical order, for exams with shuffling off.
func Identity(options models.QuestionOptions, correctKey models.OptionKey) (*Result, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	ordered := make(models.QuestionOptions, 0, len(options))
	for _, k := range models.OptionKeys {
		text, _ := options.Text(k)
		ordered = append(ordered, models.QuestionOption{Key: k, Text: text})
	}
	return build(ordered, correctKey), nil
}

// build relabels a canonical-keyed ordering as A..D and records where each came from.
func build(order models.QuestionOptions, correctKey models.OptionKey) *Result {
	res := &Result{
		Options: make(models.QuestionOptions, len(order)),
		Mapping: make(models.ShuffleMapping, len(order)),
	}
	for i, opt := range order {
		presented := models.OptionKeys[i]
		res.Options[i] = models.QuestionOption{Key: presented, Text: opt.Text}
		res.Mapping[presented] = opt.Key
		if opt.Key == correctKey {
			res.CorrectKey = presented
		}
	}
	return res
}

// Reconstruct rebuilds the presented order from a stored mapping: for each
// presented key A..D look up its canonical key, then that key's text.
func Reconstruct(options models.QuestionOptions, mapping models.ShuffleMapping) (models.QuestionOptions, error) {
	if err := mapping.Validate(); err != nil {
		return nil, err
	}
	presented := make(models.QuestionOptions, 0, len(models.OptionKeys))
	for _, k := range models.OptionKeys {
		canonical, err := mapping.Canonical(k)
		if err != nil {
			return nil, err
		}
		text, ok := options.Text(canonical)
		if !ok {
			return nil, fmt.Errorf("%w: canonical key %s missing from question", models.ErrInvalidShuffleMapping, canonical)
		}
		presented = append(presented, models.QuestionOption{Key: k, Text: text})
	}
	return presented, nil
}

// Translate maps a presented selection to its canonical key.
func Translate(selected models.OptionKey, mapping models.ShuffleMapping) (models.OptionKey, error) {
	if !selected.IsValid() {
		return "", models.ErrInvalidOptionKey
	}
	if err := mapping.Validate(); err != nil {
		return "", err
	}
	return mapping.Canonical(selected)
}

// IsCorrect translates and compares against the canonical correct key.
func IsCorrect(selected models.OptionKey, mapping models.ShuffleMapping, correctKey models.OptionKey) (bool, error) {
	canonical, err := Translate(selected, mapping)
	if err != nil {
		return false, err
	}
	return canonical == correctKey, nil
}
