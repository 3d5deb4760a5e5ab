package text

import (
	"log/slog"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"golang.org/x/text/number"
)

var (
	cat       = buildCatalog()
	supported = supportedTags()
	matcher   = language.NewMatcher(supported)
)

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, t := range tables {
		for k, msg := range t.strings {
			if err := b.SetString(t.tag, string(k), msg); err != nil {
				// Only reachable with a malformed table entry.
				panic("text: register " + string(k) + ": " + err.Error())
			}
		}
	}
	return b
}

func supportedTags() []language.Tag {
	tags := make([]language.Tag, len(tables))
	for i, t := range tables {
		tags[i] = t.tag
	}
	return tags
}

// Printer renders localized strings and numbers for one language.
type Printer struct {
	tag language.Tag
	p   *message.Printer
}

// NewPrinter returns a printer for the best supported match of lang.
// Unsupported or malformed languages fall back to English.
func NewPrinter(lang string) *Printer {
	_, idx := language.MatchStrings(matcher, lang)
	if idx < 0 || idx >= len(supported) {
		idx = 0
	}
	tag := supported[idx]
	if lang != "" && tag != language.English {
		slog.Debug("localization selected", "requested", lang, "language", tag.String())
	}
	return &Printer{tag: tag, p: message.NewPrinter(tag, message.Catalog(cat))}
}

// Default returns an English printer.
func Default() *Printer {
	return NewPrinter("en")
}

// Language returns the language the printer resolved to.
func (p *Printer) Language() language.Tag {
	return p.tag
}

// Get returns the string registered for k.
func (p *Printer) Get(k Key) string {
	if k == "" {
		return ""
	}
	return p.p.Sprintf(string(k))
}

// Format renders the format string registered for k with args.
func (p *Printer) Format(k Key, args ...any) string {
	return p.p.Sprintf(string(k), args...)
}

// Fixed formats v with exactly decimals fraction digits and no grouping ("F2").
func (p *Printer) Fixed(v float64, decimals int) string {
	return p.p.Sprint(number.Decimal(v, number.Scale(decimals), number.NoSeparator()))
}

// Grouped formats v with exactly decimals fraction digits and group separators ("N1").
func (p *Printer) Grouped(v float64, decimals int) string {
	return p.p.Sprint(number.Decimal(v, number.Scale(decimals)))
}

// Percent formats a ratio as a percentage number with one decimal, without
// the sign: 0.6 renders as "60.0".
func (p *Printer) Percent(ratio float64) string {
	return p.Grouped(ratio*100, 1)
}
