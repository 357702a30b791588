package hocr

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

var charsetPattern = regexp.MustCompile(`(?i)charset\s*=\s*["']?([a-z0-9_\-]+)`)

// Parse converts raw hOCR data into a Document
func Parse(data []byte) (*Document, error) {
	decoded, err := decode(data)
	if err != nil {
		return nil, err
	}

	root, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return nil, fmt.Errorf("failed to parse hOCR: %w", err)
	}

	doc := &Document{Metadata: make(map[string]string)}
	extractDocumentMeta(doc, root)

	var findPages func(*html.Node)
	findPages = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "ocr_page") {
			doc.Pages = append(doc.Pages, parsePage(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findPages(c)
		}
	}
	findPages(root)

	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("no ocr_page elements found in hOCR data")
	}
	return doc, nil
}

// decode converts single-byte encodings declared in a meta charset to UTF-8
func decode(data []byte) ([]byte, error) {
	head := data
	if len(head) > 2048 {
		head = head[:2048]
	}
	m := charsetPattern.FindSubmatch(head)
	if m == nil {
		return data, nil
	}

	var enc encoding.Encoding
	switch strings.ToLower(string(m[1])) {
	case "iso-8859-1", "latin1", "latin-1":
		enc = charmap.ISO8859_1
	case "iso-8859-15":
		enc = charmap.ISO8859_15
	case "windows-1252", "cp1252":
		enc = charmap.Windows1252
	default:
		return data, nil
	}

	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", m[1], err)
	}
	return decoded, nil
}

// ParseTitle breaks an hOCR title attribute into its properties.
// Example input: "bbox 100 200 300 400; x_wconf 95"
func ParseTitle(title string) map[string][]string {
	result := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		items := strings.Fields(part)
		if len(items) > 0 {
			result[items[0]] = items[1:]
		}
	}
	return result
}

func parseBBox(props map[string][]string) (BoundingBox, bool) {
	v, ok := props["bbox"]
	if !ok || len(v) < 4 {
		return BoundingBox{}, false
	}
	var coords [4]float64
	for i := range coords {
		f, err := strconv.ParseFloat(v[i], 64)
		if err != nil {
			return BoundingBox{}, false
		}
		coords[i] = f
	}
	return NewBoundingBox(coords[0], coords[1], coords[2], coords[3]), true
}

func extractDocumentMeta(doc *Document, root *html.Node) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "html":
				if lang := attr(n, "lang"); lang != "" {
					doc.Language = lang
				} else if lang := attr(n, "xml:lang"); lang != "" {
					doc.Language = lang
				}
			case "title":
				if n.FirstChild != nil {
					doc.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				name, content := attr(n, "name"), attr(n, "content")
				if name == "" || content == "" {
					break
				}
				if strings.HasPrefix(name, "ocr-") {
					doc.Metadata[name] = content
				} else if name == "dc.language" {
					doc.Language = content
				}
			case "body":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
}

func parsePage(n *html.Node) Page {
	props := ParseTitle(attr(n, "title"))
	page := Page{
		ID:   attr(n, "id"),
		Lang: attr(n, "lang"),
	}
	page.BBox, _ = parseBBox(props)
	if image := props["image"]; len(image) > 0 {
		page.ImageName = strings.Trim(strings.Join(image, " "), `"`)
	}
	if ppageno := props["ppageno"]; len(ppageno) > 0 {
		page.PageNumber, _ = strconv.Atoi(ppageno[0])
	}
	page.Nodes = parseChildren(n, page.Lang)
	return page
}

// parseChildren returns the OCR elements below n, skipping non-OCR wrappers
func parseChildren(n *html.Node, lang string) []Node {
	var nodes []Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		class := ocrClass(c)
		if class == "" {
			nodes = append(nodes, parseChildren(c, lang)...)
			continue
		}
		nodes = append(nodes, parseNode(c, class, lang))
	}
	return nodes
}

func parseNode(n *html.Node, class, lang string) Node {
	if l := attr(n, "lang"); l != "" {
		lang = l
	}
	props := ParseTitle(attr(n, "title"))

	node := Node{Class: class, ID: attr(n, "id"), Lang: lang}
	node.BBox, node.HasBBox = parseBBox(props)
	if conf := props["x_wconf"]; len(conf) > 0 {
		if f, err := strconv.ParseFloat(conf[0], 64); err == nil {
			node.Confidence, node.HasConf = f, true
		}
	}

	if class == "ocrx_word" {
		node.Text = strings.Join(strings.Fields(textContent(n)), " ")
		return node
	}
	node.Children = parseChildren(n, lang)
	if len(node.Children) == 0 {
		node.Text = strings.TrimSpace(textContent(n))
	}
	return node
}

// ocrClass returns the first ocr_ or ocrx_ class of an element
func ocrClass(n *html.Node) string {
	for _, c := range strings.Fields(attr(n, "class")) {
		if strings.HasPrefix(c, "ocr_") || strings.HasPrefix(c, "ocrx_") {
			return c
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
