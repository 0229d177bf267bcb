package leaf

import (
	"regexp"
)

// Character class bodies, usable inside [...].
const (
	AstralRange               = `\x{10000}-\x{10ffff}`
	ComboMarksRange           = `\x{0300}-\x{036f}`
	ComboHalfMarksRange       = `\x{fe20}-\x{fe2f}`
	ComboSymbolsRange         = `\x{20d0}-\x{20ff}`
	ComboMarksExtendedRange   = `\x{1ab0}-\x{1aff}`
	ComboMarksSupplementRange = `\x{1dc0}-\x{1dff}`
	ComboRange                = ComboMarksRange + ComboHalfMarksRange + ComboSymbolsRange + ComboMarksExtendedRange + ComboMarksSupplementRange
	DingbatRange              = `\x{2700}-\x{27bf}`
	LowerRange                = `a-z\x{00df}-\x{00f6}\x{00f8}-\x{00ff}`
	MathOpRange               = `\x{00ac}\x{00b1}\x{00d7}\x{00f7}`
	NonCharRange              = `\x00-\x2f\x3a-\x40\x5b-\x60\x7b-\x{00bf}`
	PunctuationRange          = `\x{2000}-\x{206f}`
	SpaceRange                = ` \t\x0b\f\x{00a0}\x{feff}\n\r\x{2028}\x{2029}\x{1680}\x{180e}\x{2000}-\x{200a}\x{202f}\x{205f}\x{3000}`
	UpperRange                = `A-Z\x{00c0}-\x{00d6}\x{00d8}-\x{00de}`
	VarRange                  = `\x{fe0e}\x{fe0f}`
	BreakRange                = MathOpRange + NonCharRange + PunctuationRange + SpaceRange
)

// Patterns maps pattern names to their sources. Range entries are wrapped in
// a character class when compiled.
var Patterns = map[string]string{
	"AstralRange":               "[" + AstralRange + "]",
	"ComboMarksRange":           "[" + ComboMarksRange + "]",
	"ComboHalfMarksRange":       "[" + ComboHalfMarksRange + "]",
	"ComboSymbolsRange":         "[" + ComboSymbolsRange + "]",
	"ComboMarksExtendedRange":   "[" + ComboMarksExtendedRange + "]",
	"ComboMarksSupplementRange": "[" + ComboMarksSupplementRange + "]",
	"ComboRange":                "[" + ComboRange + "]",
	"DingbatRange":              "[" + DingbatRange + "]",
	"LowerRange":                "[" + LowerRange + "]",
	"MathOpRange":               "[" + MathOpRange + "]",
	"NonCharRange":              "[" + NonCharRange + "]",
	"PunctuationRange":          "[" + PunctuationRange + "]",
	"SpaceRange":                "[" + SpaceRange + "]",
	"UpperRange":                "[" + UpperRange + "]",
	"VarRange":                  "[" + VarRange + "]",
	"BreakRange":                "[" + BreakRange + "]",

	"Apos":     `['’]`,
	"Break":    "[" + BreakRange + "]",
	"Combo":    "[" + ComboRange + "]",
	"Digit":    `\d`,
	"Dingbat":  "[" + DingbatRange + "]",
	"Lower":    "[" + LowerRange + "]",
	"Misc":     `[^` + AstralRange + BreakRange + `\d` + DingbatRange + LowerRange + UpperRange + `]`,
	"Fitz":     `[\x{1f3fb}-\x{1f3ff}]`,
	"Modifier": `[` + ComboRange + `\x{1f3fb}-\x{1f3ff}]`,
	"Regional": `[\x{1f1e6}-\x{1f1ff}]{2}`,
	"Upper":    "[" + UpperRange + "]",
	"ZWJ":      `\x{200d}`,
	"Emoji":    `[\x{1f300}-\x{1faff}\x{2600}-\x{27bf}]`,
}

// CompilePatterns compiles every entry of Patterns.
func CompilePatterns() (map[string]*regexp.Regexp, error) {
	out := make(map[string]*regexp.Regexp, len(Patterns))
	for name, src := range Patterns {
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, err
		}
		out[name] = re
	}
	return out, nil
}
