package chatparse

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/chat-invoicing-microservice/pkg/invoice"
)

// Extraction failure taxonomy. ErrNotConfigured is returned before any
// network call when no credential is present; ErrBadFormat covers model
// output that cannot be read as a JSON array; ErrBadSchema covers array
// elements missing a required field or carrying an uncoercible value.
var (
	ErrNotConfigured = errors.New("gemini api key not configured")
	ErrBadFormat     = errors.New("model response is not a json array")
	ErrBadSchema     = errors.New("model response has invalid item structure")
)

// Generator produces free text for a prompt. The production
// implementation calls Gemini; tests substitute a deterministic stub.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

const promptTemplate = `You are an expert at extracting purchase information from chat messages.

Analyze the following chat messages and extract all items being purchased.
For each item, identify:
- item: The product/service name
- quantity: How many units (default to 1 if not mentioned)
- price: The price per unit in rupees

Chat messages:
%s

Return ONLY a valid JSON array with this exact structure (no markdown, no code blocks, just the JSON):
[
  {
    "item": "Product Name",
    "quantity": 2,
    "price": 500.00
  }
]

Rules:
- If quantity is not mentioned, assume 1
- Extract price per unit, not total
- Use descriptive item names
- Return empty array [] if no items found
- ONLY return the JSON array, no other text or explanation

JSON array:`

// Parser turns raw chat messages into line items via a Generator.
type Parser struct {
	gen     Generator
	timeout time.Duration
}

// New returns a Parser calling gen with the given per-call timeout
// (no timeout when zero).
func New(gen Generator, timeout time.Duration) *Parser {
	return &Parser{gen: gen, timeout: timeout}
}

// Parse joins the chat messages into one prompt context, issues a single
// generation call, and normalizes the response into line items. An empty
// slice is a valid result meaning no items were found.
func (p *Parser) Parse(ctx context.Context, chats []string) ([]invoice.LineItem, error) {
	prompt := fmt.Sprintf(promptTemplate, strings.Join(chats, "\n"))

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	raw, err := p.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return parseItems(ExtractJSONArray(raw))
}

var jsonFenceRe = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// ExtractJSONArray pulls the JSON array candidate out of free-form model
// output: a json-tagged fence wins, then any fence is stripped, then the
// text between the first '[' and the last ']' is sliced. When no
// brackets are found the text is returned as-is, letting the JSON parse
// fail downstream. This string splicing is the most fragile boundary in
// the system; keep it pure and covered by the malformed-input tests.
func ExtractJSONArray(text string) string {
	content := strings.TrimSpace(text)

	if m := jsonFenceRe.FindStringSubmatch(content); m != nil {
		content = strings.TrimSpace(m[1])
	} else if strings.Contains(content, "```") {
		content = strings.TrimSpace(strings.ReplaceAll(content, "```", ""))
	}

	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start != -1 && end != -1 && start < end {
		content = content[start : end+1]
	}

	return content
}

func parseItems(payload string) ([]invoice.LineItem, error) {
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()

	var rows []map[string]any
	if err := dec.Decode(&rows); err != nil {
		return nil, errors.Wrapf(ErrBadFormat, "%v (response: %s)", err, truncate(payload, 200))
	}

	items := make([]invoice.LineItem, 0, len(rows))
	for _, row := range rows {
		for _, key := range []string{"item", "quantity", "price"} {
			if _, ok := row[key]; !ok {
				return nil, errors.Wrapf(ErrBadSchema, "missing %q in %v", key, row)
			}
		}

		name, ok := row["item"].(string)
		if !ok || name == "" {
			return nil, errors.Wrapf(ErrBadSchema, "item name %v is not a string", row["item"])
		}
		quantity, err := coerceInt(row["quantity"])
		if err != nil {
			return nil, errors.Wrapf(ErrBadSchema, "quantity for %q: %v", name, err)
		}
		price, err := coerceFloat(row["price"])
		if err != nil {
			return nil, errors.Wrapf(ErrBadSchema, "price for %q: %v", name, err)
		}

		items = append(items, invoice.LineItem{Name: name, Quantity: quantity, UnitPrice: price})
	}

	return items, nil
}

func coerceInt(v any) (int, error) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("cannot coerce %q to integer", n.String())
		}
		return int(f), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("cannot coerce %q to integer", n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("cannot coerce %T to integer", v)
	}
}

func coerceFloat(v any) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("cannot coerce %q to float", n.String())
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot coerce %q to float", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot coerce %T to float", v)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
