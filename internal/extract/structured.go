package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/alertas-dev/alertas/internal/model"
)

// Labels used by the structured alert layout.
const (
	labelMerchant     = "Comercio:"
	labelAmount       = "Importe:"
	labelDate         = "Fecha:"
	labelTime         = "Hora:"
	labelInstallments = "Cantidad cuotas:"
)

// ListItemStep reads "<li>Label: value</li>" pairs from the HTML body.
type ListItemStep struct{}

// Name implements Step.
func (ListItemStep) Name() string { return "html:list" }

// Fields implements Step. It matches when merchant, amount, date or time was labeled.
func (ListItemStep) Fields(msg model.RawMessage) (Fields, bool) {
	if strings.TrimSpace(msg.HTML) == "" {
		return Fields{}, false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(msg.HTML))
	if err != nil {
		return Fields{}, false
	}

	var f Fields
	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		text := collapseSpace(nodesText(li.Nodes))
		label, value, ok := labeledValue(text)
		if !ok {
			return
		}
		switch label {
		case labelMerchant:
			setOnce(&f.Merchant, value)
		case labelAmount:
			setOnce(&f.Amount, stripCurrency(value))
		case labelDate:
			setOnce(&f.Date, value)
		case labelTime:
			setOnce(&f.Time, value)
		case labelInstallments:
			setOnce(&f.Installments, value)
		}
	})
	return f, f.labeled()
}

// labeledValue finds the label carried by text and returns everything after
// the first colon.
func labeledValue(text string) (label, value string, ok bool) {
	for _, l := range []string{labelMerchant, labelAmount, labelDate, labelTime, labelInstallments} {
		if strings.Contains(text, l) {
			_, after, _ := strings.Cut(text, ":")
			return l, strings.TrimSpace(after), true
		}
	}
	return "", "", false
}

var (
	rePlainMerchant     = regexp.MustCompile(`Comercio:\s*([^\n]+)`)
	rePlainAmount       = regexp.MustCompile(`Importe:\s*\$?\s*(\d[\d,]*(?:\.\d+)?)`)
	rePlainDate         = regexp.MustCompile(`Fecha:\s*(\d{2}/\d{2}/\d{4})`)
	rePlainTime         = regexp.MustCompile(`Hora:\s*(\d{2}:\d{2})`)
	rePlainInstallments = regexp.MustCompile(`Cantidad cuotas:\s*(\d+)`)
)

// LabeledTextStep reads the same labels as ListItemStep from the plain body.
type LabeledTextStep struct{}

// Name implements Step.
func (LabeledTextStep) Name() string { return "plain:labels" }

// Fields implements Step.
func (LabeledTextStep) Fields(msg model.RawMessage) (Fields, bool) {
	text := msg.Plain
	if strings.TrimSpace(text) == "" {
		return Fields{}, false
	}
	f := Fields{
		Merchant:     firstGroup(rePlainMerchant, text),
		Amount:       firstGroup(rePlainAmount, text),
		Date:         firstGroup(rePlainDate, text),
		Time:         firstGroup(rePlainTime, text),
		Installments: firstGroup(rePlainInstallments, text),
	}
	return f, f.labeled()
}

func (f Fields) labeled() bool {
	return f.Merchant.OK() || f.Amount.OK() || f.Date.OK() || f.Time.OK()
}

func setOnce(dst *model.Field, value string) {
	if !dst.OK() {
		*dst = model.Found(value)
	}
}

func stripCurrency(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "$", ""))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
