package ingestion

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/transaction-ingestion/internal/domain/transaction"
	"golang.org/x/net/html/charset"
)

// xmlDateLayouts are tried in order for markup dates. Layouts without a zone are read as UTC.
var xmlDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	time.RFC1123Z,
	time.RFC1123,
}

// xmlElement is a generic element tree, the whole document is loaded before traversal
type xmlElement struct {
	XMLName  xml.Name
	Attrs    []xml.Attr   `xml:",any,attr"`
	Text     string       `xml:",chardata"`
	Children []xmlElement `xml:",any"`
}

func (e *xmlElement) attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (e *xmlElement) child(name string) *xmlElement {
	for i := range e.Children {
		if e.Children[i].XMLName.Local == name {
			return &e.Children[i]
		}
	}
	return nil
}

// innerText concatenates the text of the element and its descendants
func (e *xmlElement) innerText() string {
	if len(e.Children) == 0 {
		return e.Text
	}
	var sb strings.Builder
	sb.WriteString(e.Text)
	for i := range e.Children {
		sb.WriteString(e.Children[i].innerText())
	}
	return sb.String()
}

// descendants collects e and every nested element with the given name in document order
func (e *xmlElement) descendants(name string, out []*xmlElement) []*xmlElement {
	if e.XMLName.Local == name {
		out = append(out, e)
	}
	for i := range e.Children {
		out = e.Children[i].descendants(name, out)
	}
	return out
}

func (e *xmlElement) textAt(path ...string) (string, error) {
	node := e
	for _, name := range path {
		node = node.child(name)
		if node == nil {
			return "", transaction.ErrMissingElement{Path: strings.Join(path, "/")}
		}
	}
	return node.innerText(), nil
}

// XMLParser reads markup batches made of Transaction elements
type XMLParser struct{}

func NewXMLParser() *XMLParser {
	return &XMLParser{}
}

// Parse loads the document and converts every Transaction element found at any depth.
// A malformed document fails the whole call.
func (p *XMLParser) Parse(r io.Reader) (*ParseResult, error) {
	root, err := decodeDocument(r)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{}
	for _, element := range root.descendants("Transaction", nil) {
		record, err := p.parseElement(element)
		if err != nil {
			id, _ := element.attr("id")
			result.addFailure(id, err)
			continue
		}
		result.Records = append(result.Records, record)
	}

	return result, nil
}

func decodeDocument(r io.Reader) (*xmlElement, error) {
	decoder := xml.NewDecoder(r)
	// Declared encodings other than UTF-8 (ISO-8859-1, windows-1252, UTF-16...) are transcoded
	decoder.CharsetReader = charset.NewReaderLabel

	var root xmlElement
	if err := decoder.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, transaction.ErrEmptyStream
		}
		return nil, fmt.Errorf("%w: %w", transaction.ErrUnreadableStream, err)
	}

	// Only comments, processing instructions and whitespace may follow the root
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return &root, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", transaction.ErrUnreadableStream, err)
		}
		if _, ok := token.(xml.StartElement); ok {
			return nil, fmt.Errorf("%w: multiple root elements", transaction.ErrUnreadableStream)
		}
	}
}

func (p *XMLParser) parseElement(element *xmlElement) (*transaction.Record, error) {
	id, ok := element.attr("id")
	if !ok {
		return nil, transaction.ErrMissingElement{Path: "@id"}
	}

	rawAmount, err := element.textAt("PaymentDetails", "Amount")
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(rawAmount)
	if err != nil {
		return nil, err
	}

	currency, err := element.textAt("PaymentDetails", "CurrencyCode")
	if err != nil {
		return nil, err
	}

	rawDate, err := element.textAt("TransactionDate")
	if err != nil {
		return nil, err
	}
	date, err := parseMarkupDate(rawDate)
	if err != nil {
		return nil, err
	}

	rawStatus, err := element.textAt("Status")
	if err != nil {
		return nil, err
	}
	status, err := transaction.NormalizeStatus(transaction.FormatXML, rawStatus)
	if err != nil {
		return nil, err
	}

	return &transaction.Record{
		TransactionID:   id,
		Amount:          amount,
		CurrencyCode:    currency,
		TransactionDate: date,
		Status:          status,
	}, nil
}

func parseMarkupDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	for _, layout := range xmlDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, transaction.ErrInvalidField{Field: "TransactionDate", Value: raw}
}
