package extract

import (
	"regexp"
	"strings"

	"github.com/alertas-dev/alertas/internal/model"
)

// Source selects which body a TextStep reads.
type Source string

const (
	SourceSnippet Source = "snippet"
	SourcePlain   Source = "plain"
	SourceHTML    Source = "html"
)

var (
	reMerchant     = regexp.MustCompile(`establecimiento (.*?),`)
	reDollarAmount = regexp.MustCompile(`\$\s*(\d[\d.,]*\d|\d)`)
	reInstallments = regexp.MustCompile(`(?i)(\d+)\s*cuotas?`)
)

// TextStep scans free text for "establecimiento X," and a "$"-prefixed amount.
// Date and time come from the message timestamp.
type TextStep struct {
	Source Source
}

// Name implements Step.
func (s TextStep) Name() string { return "text:" + string(s.Source) }

// Fields implements Step. It matches when a merchant or an amount was found.
func (s TextStep) Fields(msg model.RawMessage) (Fields, bool) {
	text := s.text(msg)
	if strings.TrimSpace(text) == "" {
		return Fields{}, false
	}

	f := Fields{
		Merchant:     firstGroup(reMerchant, text),
		Amount:       firstGroup(reDollarAmount, text),
		Installments: firstGroup(reInstallments, text),
	}
	if !f.Merchant.OK() && !f.Amount.OK() {
		return Fields{}, false
	}
	f.Date, f.Time = msg.Timestamp.Split()
	return f, true
}

func (s TextStep) text(msg model.RawMessage) string {
	switch s.Source {
	case SourceSnippet:
		return msg.Snippet
	case SourcePlain:
		return msg.Plain
	case SourceHTML:
		return htmlText(msg.HTML)
	default:
		return ""
	}
}

func firstGroup(re *regexp.Regexp, text string) model.Field {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return model.Missing()
	}
	return model.Found(strings.TrimSpace(m[1]))
}
