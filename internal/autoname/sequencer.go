// Package autoname turns extracted fields into filenames and metadata.
//
// A document moves through a fixed stage chain, company, then date, then
// invoice number, with the card number resolved at the end. Each stage reads
// the text left by the previous stage and scrubs its own match before handing
// the text on, so a later, looser pattern cannot re-capture consumed text.
package autoname

import (
	"log/slog"

	"github.com/a3tai/mcp-pdf-autoname/internal/extract"
)

// Stage is a position in the per-document extraction chain.
type Stage int

const (
	StageStart Stage = iota
	StageCompanyDone
	StageDateDone
	StageInvoiceDone
	StageFinished
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageCompanyDone:
		return "company-done"
	case StageDateDone:
		return "date-done"
	case StageInvoiceDone:
		return "invoice-done"
	case StageFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Progress is the state of one document between stages. It is a value:
// Step returns a new Progress and never mutates its input.
type Progress struct {
	Stage Stage
	// Text is the normalized text as scrubbed by the stages so far.
	Text    string
	Results map[extract.FieldKind]*extract.Result
	// Chain is the gated company, date, invoice sequence. Date joins only
	// after a company and the invoice number only after both.
	Chain []string
}

// Done reports whether the chain reached StageFinished.
func (p Progress) Done() bool {
	return p.Stage >= StageFinished
}

// Available maps every field that produced a result to its value,
// independent of the chain gating.
func (p Progress) Available() map[extract.FieldKind]string {
	out := make(map[extract.FieldKind]string, len(p.Results))
	for kind, res := range p.Results {
		if res != nil && res.Value != "" {
			out[kind] = res.Value
		}
	}
	return out
}

func (p Progress) clone() Progress {
	next := Progress{Stage: p.Stage, Text: p.Text}
	next.Results = make(map[extract.FieldKind]*extract.Result, len(p.Results)+1)
	for k, v := range p.Results {
		next.Results[k] = v
	}
	next.Chain = append([]string(nil), p.Chain...)
	return next
}

// Sequencer runs the four extractors in chain order. Any extractor may be
// nil, in which case its stage finds nothing.
type Sequencer struct {
	company extract.Extractor
	date    extract.Extractor
	invoice extract.Extractor
	card    extract.Extractor
	logger  *slog.Logger
}

// NewSequencer wires the stage extractors.
func NewSequencer(company, date, invoice, card extract.Extractor, logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequencer{company: company, date: date, invoice: invoice, card: card, logger: logger}
}

// NewDefaultSequencer builds the standard catalogs around a company
// dictionary.
func NewDefaultSequencer(dict extract.Dictionary, logger *slog.Logger) *Sequencer {
	return NewSequencer(
		extract.NewCompanyExtractor(dict),
		extract.NewDateExtractor(),
		extract.NewInvoiceExtractor(),
		extract.NewCardExtractor(),
		logger,
	)
}

// Start returns the initial progress for normalized text.
func (s *Sequencer) Start(text string) Progress {
	return Progress{Stage: StageStart, Text: text, Results: map[extract.FieldKind]*extract.Result{}}
}

// Run drives text through every stage.
func (s *Sequencer) Run(text string) Progress {
	p := s.Start(text)
	for !p.Done() {
		p = s.Step(p)
	}
	return p
}

// Step performs the single transition out of p.Stage.
func (s *Sequencer) Step(p Progress) Progress {
	next := p.clone()

	switch p.Stage {
	case StageStart:
		if res := s.find(s.company, next.Text); res != nil {
			next.Results[extract.FieldCompany] = res
			next.Chain = append(next.Chain, res.Value)
			next.Text = s.scrub(next.Text, func(t string) (string, error) {
				return extract.ScrubKeywords(t, res.Synonyms)
			})
		}
		next.Stage = StageCompanyDone

	case StageCompanyDone:
		if res := s.find(s.date, next.Text); res != nil {
			next.Results[extract.FieldDate] = res
			if len(next.Chain) == 1 {
				next.Chain = append(next.Chain, res.Value)
			}
			next.Text = s.scrub(next.Text, func(t string) (string, error) {
				return extract.Scrub(t, res.Matched)
			})
			next.Text = s.scrub(next.Text, extract.ScrubAllDates)
		}
		next.Stage = StageDateDone

	case StageDateDone:
		if res := s.find(s.invoice, next.Text); res != nil {
			next.Results[extract.FieldInvoiceNumber] = res
			if len(next.Chain) == 2 {
				next.Chain = append(next.Chain, res.Value)
			}
			next.Text = s.scrub(next.Text, func(t string) (string, error) {
				return extract.Scrub(t, res.Matched)
			})
		}
		next.Stage = StageInvoiceDone

	case StageInvoiceDone:
		if res := s.find(s.card, next.Text); res != nil {
			next.Results[extract.FieldCardNumber] = res
		}
		next.Stage = StageFinished
	}

	return next
}

func (s *Sequencer) find(e extract.Extractor, text string) *extract.Result {
	if e == nil {
		return nil
	}
	res, err := extract.SafeFind(e, text)
	if err != nil {
		s.logger.Warn("extractor failed", "field", e.Kind().String(), "error", err)
		return nil
	}
	if res != nil {
		s.logger.Debug("field found", "field", e.Kind().String(), "value", res.Value, "rule", res.Rule)
	}
	return res
}

// scrub applies fn and keeps the previous text when fn fails.
func (s *Sequencer) scrub(text string, fn func(string) (string, error)) string {
	out, err := fn(text)
	if err != nil {
		s.logger.Warn("scrub failed", "error", err)
		return text
	}
	return out
}
