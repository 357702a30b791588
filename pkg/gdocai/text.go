package gdocai

import (
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
)

// textFromAnchor extracts the text a text anchor points at in the document text
func textFromAnchor(anchor *documentaipb.Document_TextAnchor, runes []rune) string {
	if anchor == nil {
		return ""
	}
	total := len(runes)

	var b strings.Builder
	for _, seg := range anchor.TextSegments {
		start := int(seg.StartIndex)
		end := int(seg.EndIndex)
		if start < 0 {
			start = 0
		}
		if end > total {
			end = total
		}
		if start > end {
			start = end
		}
		b.WriteString(string(runes[start:end]))
	}
	return b.String()
}

// tokenText drops the trailing break character Document AI includes in a token
func tokenText(token *documentaipb.Document_Page_Token, runes []rune) string {
	txt := textFromAnchor(token.GetLayout().GetTextAnchor(), runes)
	if token.GetDetectedBreak().GetType() == documentaipb.Document_Page_Token_DetectedBreak_TYPE_UNSPECIFIED {
		return txt
	}
	return strings.TrimRight(txt, " \n\r\t")
}
