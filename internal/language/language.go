package language

import (
	"fmt"
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// AutoCode asks the engine to detect the spoken language.
const AutoCode = "auto"

// Selector is the language chosen once per run.
type Selector struct {
	Label string
	Code  string
}

// Auto returns the detection selector.
func Auto() Selector {
	return Selector{Label: "Auto-detect", Code: AutoCode}
}

// IsAuto reports whether the engine should detect the language itself.
func (s Selector) IsAuto() bool {
	return s.Code == "" || s.Code == AutoCode
}

// String renders "Label (code)".
func (s Selector) String() string {
	if s.Label == "" {
		return s.Code
	}
	return fmt.Sprintf("%s (%s)", s.Label, s.Code)
}

type entry struct {
	code2 string
	code3 string
	alt3  string
	word  string
}

var languages = []entry{
	{"en", "eng", "", "english"},
	{"es", "spa", "", "spanish"},
	{"fr", "fra", "fre", "french"},
	{"de", "deu", "ger", "german"},
	{"it", "ita", "", "italian"},
	{"pt", "por", "", "portuguese"},
	{"ja", "jpn", "", "japanese"},
	{"ko", "kor", "", "korean"},
	{"zh", "zho", "chi", "chinese"},
	{"ru", "rus", "", "russian"},
	{"ar", "ara", "", "arabic"},
	{"hi", "hin", "", "hindi"},
	{"nl", "nld", "dut", "dutch"},
	{"pl", "pol", "", "polish"},
	{"sv", "swe", "", "swedish"},
	{"da", "dan", "", "danish"},
	{"no", "nor", "", "norwegian"},
	{"fi", "fin", "", "finnish"},
	{"uk", "ukr", "", "ukrainian"},
	{"tr", "tur", "", "turkish"},
}

var aliases = func() map[string]string {
	out := make(map[string]string, len(languages)*4)
	for _, e := range languages {
		out[e.code2] = e.code2
		out[e.code3] = e.code2
		if e.alt3 != "" {
			out[e.alt3] = e.code2
		}
		out[e.word] = e.code2
	}
	return out
}()

// Resolve parses a language reference (ISO 639-1/639-2 code, English word,
// BCP 47 tag, or "auto") into a Selector.
func Resolve(input string) (Selector, error) {
	value := strings.ToLower(strings.TrimSpace(input))
	switch value {
	case "", AutoCode, "detect":
		return Auto(), nil
	}
	if code, ok := aliases[value]; ok {
		return Selector{Label: DisplayName(code), Code: code}, nil
	}
	tag, err := xlanguage.Parse(value)
	if err != nil {
		return Selector{}, fmt.Errorf("language %q: %w", input, err)
	}
	base, confidence := tag.Base()
	if confidence == xlanguage.No {
		return Selector{}, fmt.Errorf("language %q: unrecognized base language", input)
	}
	code := base.String()
	if len(code) != 2 {
		return Selector{}, fmt.Errorf("language %q: no two-letter code for %s", input, code)
	}
	return Selector{Label: DisplayName(code), Code: code}, nil
}

// DisplayName returns the English name for a code, or the uppercased code
// when x/text has no name for it.
func DisplayName(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return "Unknown"
	}
	if code == AutoCode {
		return Auto().Label
	}
	tag, err := xlanguage.Parse(code)
	if err != nil {
		return strings.ToUpper(code)
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(code)
}
