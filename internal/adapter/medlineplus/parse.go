package medlineplus

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"health-rag/internal/domain"
)

const (
	fieldTitle   = "title"
	fieldSummary = "FullSummary"
)

type searchResult struct {
	XMLName   xml.Name      `xml:"nlmSearchResult"`
	Count     int           `xml:"count"`
	Documents []xmlDocument `xml:"list>document"`
}

type xmlDocument struct {
	URL      string       `xml:"url,attr"`
	Contents []xmlContent `xml:"content"`
}

// xmlContent gathers the character data of a <content> element and all of its
// descendants, so highlight spans around matched terms do not cut the text.
type xmlContent struct {
	Name string
	Text string
}

func (c *xmlContent) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		if attr.Name.Local == "name" {
			c.Name = attr.Value
		}
	}

	var sb strings.Builder
	for depth := 1; depth > 0; {
		tok, err := d.Token()
		if err != nil {
			return fmt.Errorf("read content %q: %w", c.Name, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			sb.Write(t)
		}
	}
	c.Text = sb.String()
	return nil
}

func (d xmlDocument) field(name string) string {
	for _, c := range d.Contents {
		if c.Name == name {
			return c.Text
		}
	}
	return ""
}

// parseDocuments decodes a search response. Records missing a title or summary
// after markup stripping are dropped.
func parseDocuments(r io.Reader) ([]domain.Document, error) {
	var result searchResult
	if err := xml.NewDecoder(r).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	docs := make([]domain.Document, 0, len(result.Documents))
	for _, raw := range result.Documents {
		doc := domain.Document{
			Title:   stripMarkup(raw.field(fieldTitle)),
			Summary: stripMarkup(raw.field(fieldSummary)),
			URL:     strings.TrimSpace(raw.URL),
		}
		if !doc.Valid() {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// stripMarkup turns an HTML fragment into plain text. Block elements become line breaks,
// list items get a "- " marker and runs of whitespace collapse to one space.
func stripMarkup(raw string) string {
	if !strings.Contains(raw, "<") && !strings.Contains(raw, "&") {
		return normalizeWhitespace(raw)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return normalizeWhitespace(raw)
	}

	doc.Find("script, style, noscript").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("li").PrependHtml("- ")
	doc.Find("p, div, li, ul, ol, h1, h2, h3, h4, h5, h6, blockquote, table, tr").AppendHtml("\n")

	return normalizeWhitespace(doc.Text())
}

func normalizeWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if fields := strings.Fields(line); len(fields) > 0 {
			kept = append(kept, strings.Join(fields, " "))
		}
	}
	return strings.Join(kept, "\n")
}
