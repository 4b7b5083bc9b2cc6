// Package extract turns card alert emails into transaction records.
//
// Each brand owns a Strategy: an ordered list of Steps tried one after another
// until one of them recognises the message. The amount convention is a property
// of the Strategy, so a raw amount is always read in the locale of the brand
// that produced it.
package extract

import (
	"fmt"

	"github.com/alertas-dev/alertas/internal/amount"
	"github.com/alertas-dev/alertas/internal/model"
)

// Fields are the values a Step pulled out of one message.
type Fields struct {
	Merchant     model.Field
	Amount       model.Field
	Installments model.Field
	Date         model.Field
	Time         model.Field
}

// Step is one extraction attempt against a message.
type Step interface {
	Name() string
	// Fields reports false when the step did not recognise the message.
	Fields(msg model.RawMessage) (Fields, bool)
}

// Result is a record plus the name of the step that produced it.
type Result struct {
	Record model.TransactionRecord
	Step   string
}

// Strategy extracts records for one brand.
type Strategy struct {
	brand      model.Brand
	convention amount.Convention
	steps      []Step
}

// NewStrategy creates a Strategy trying steps in order.
func NewStrategy(brand model.Brand, convention amount.Convention, steps ...Step) *Strategy {
	return &Strategy{brand: brand, convention: convention, steps: steps}
}

// Brand returns the brand this strategy extracts.
func (s *Strategy) Brand() model.Brand { return s.brand }

// Convention returns the amount convention raw amounts are read in.
func (s *Strategy) Convention() amount.Convention { return s.convention }

// Steps returns the step names in evaluation order.
func (s *Strategy) Steps() []string {
	names := make([]string, len(s.steps))
	for i, st := range s.steps {
		names[i] = st.Name()
	}
	return names
}

// Extract runs the steps in order and builds a record from the first match.
// A message without any body text never matches.
func (s *Strategy) Extract(msg model.RawMessage) (Result, bool) {
	if msg.Empty() {
		return Result{}, false
	}
	for _, st := range s.steps {
		f, ok := st.Fields(msg)
		if !ok {
			continue
		}
		return Result{Record: s.build(f), Step: st.Name()}, true
	}
	return Result{}, false
}

func (s *Strategy) build(f Fields) model.TransactionRecord {
	rec := model.TransactionRecord{
		Brand:        s.brand,
		Merchant:     f.Merchant,
		AmountRaw:    f.Amount,
		Installments: f.Installments,
		Date:         f.Date,
		Time:         f.Time,
	}
	if f.Amount.OK() {
		rec.Amount, rec.AmountOK = s.convention.Parse(f.Amount.Value())
	}
	return rec
}

// Registry holds one strategy per brand.
type Registry struct {
	strategies map[model.Brand]*Strategy
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[model.Brand]*Strategy)}
}

// Register adds a strategy. Panics on a duplicate brand.
func (r *Registry) Register(s *Strategy) {
	if _, ok := r.strategies[s.brand]; ok {
		panic(fmt.Sprintf("duplicate strategy for brand %s", s.brand))
	}
	r.strategies[s.brand] = s
}

// Get returns the strategy for brand, or nil.
func (r *Registry) Get(brand model.Brand) *Strategy {
	return r.strategies[brand]
}

// VisaStrategy reads the snippet, then the plain body, then the HTML body as text.
func VisaStrategy(convention amount.Convention) *Strategy {
	return NewStrategy(model.BrandVisa, convention,
		TextStep{Source: SourceSnippet},
		TextStep{Source: SourcePlain},
		TextStep{Source: SourceHTML},
	)
}

// MastercardStrategy reads labeled list items, then labeled plain text, and
// falls back to the free-text steps.
func MastercardStrategy(convention amount.Convention) *Strategy {
	return NewStrategy(model.BrandMastercard, convention,
		ListItemStep{},
		LabeledTextStep{},
		TextStep{Source: SourceSnippet},
		TextStep{Source: SourcePlain},
		TextStep{Source: SourceHTML},
	)
}

// DefaultRegistry returns a registry with both brands using the given conventions.
func DefaultRegistry(conventions map[model.Brand]amount.Convention) *Registry {
	conv := func(b model.Brand, fallback amount.Convention) amount.Convention {
		if c, ok := conventions[b]; ok && c != "" {
			return c
		}
		return fallback
	}
	r := NewRegistry()
	r.Register(VisaStrategy(conv(model.BrandVisa, amount.Argentine)))
	r.Register(MastercardStrategy(conv(model.BrandMastercard, amount.US)))
	return r
}
