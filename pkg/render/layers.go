package render

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// A PDF literal string, with escaped parentheses allowed inside
const pdfLiteral = `\(((?:\\.|[^\\)])*)\)`

var ocgPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/Type\s*/OCG\s*/Name\s*` + pdfLiteral),
	regexp.MustCompile(`/Name\s*` + pdfLiteral + `\s*/Type\s*/OCG`),
}

// Layers lists the optional-content group names found in raw PDF data, in
// order of appearance. Names in compressed object streams are not found.
func Layers(pdf []byte) ([]string, error) {
	if len(pdf) == 0 {
		return nil, errors.New("empty PDF data")
	}

	content := string(pdf)
	var names []string
	seen := make(map[string]bool)
	for _, re := range ocgPatterns {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			name := decodePDFText(unescapePDFString(m[1]))
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names, nil
}

// LayerCheck is the result of looking for layout layers in a PDF
type LayerCheck struct {
	Layers   []string // All detected layers
	Found    bool     // A layer named base, or base with a page suffix, exists
	Name     string   // The first matching layer
	Warnings []string
}

// CheckLayers looks for a layer called base, or one of the per-page layers a
// Document creates from it.
func CheckLayers(pdf []byte, base string) (LayerCheck, error) {
	var res LayerCheck
	layers, err := Layers(pdf)
	if err != nil {
		return res, fmt.Errorf("cannot analyze layers: %w", err)
	}
	res.Layers = layers

	perPage := regexp.MustCompile(`^` + regexp.QuoteMeta(base) + `\s*\(Page\s*\d+\)$`)
	for _, layer := range layers {
		if layer == base || perPage.MatchString(layer) {
			if !res.Found {
				res.Found = true
				res.Name = layer
			}
			continue
		}
		lower := strings.ToLower(layer)
		if strings.Contains(lower, "ocr") || strings.Contains(lower, "layout") {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Existing layer might hold a reconstruction: %s", layer))
		}
	}
	return res, nil
}

// unescapePDFString resolves the backslash escapes of a PDF literal string
func unescapePDFString(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch c := s[i]; c {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			v := 0
			for n := 0; n < 3 && i < len(s) && s[i] >= '0' && s[i] <= '7'; n++ {
				v = v*8 + int(s[i]-'0')
				i++
			}
			i--
			b.WriteByte(byte(v))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// decodePDFText decodes UTF-16BE text strings, which start with a byte order
// mark. Anything else is returned as is.
func decodePDFText(s string) string {
	if !strings.HasPrefix(s, "\xfe\xff") {
		return s
	}
	decoded, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().String(s)
	if err != nil {
		return s
	}
	return decoded
}
