package server

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// numberFormat renders numbers with Indonesian grouping and decimal marks,
// e.g. 2.200 and 6,15.
type numberFormat struct {
	p *message.Printer
}

func newNumberFormat() numberFormat {
	return numberFormat{p: message.NewPrinter(language.Indonesian)}
}

func (f numberFormat) Int(v int) string { return f.p.Sprintf("%d", v) }

func (f numberFormat) Float(v float64) string { return f.p.Sprintf("%.2f", v) }

func (f numberFormat) Percent(v float64) string { return f.p.Sprintf("%.1f%%", v*100) }
