package chatparse

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chat-invoicing-microservice/pkg/invoice"
)

func stub(response string) Generator {
	return GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return response, nil
	})
}

func TestParse(t *testing.T) {
	t.Run("fenced json response", func(t *testing.T) {
		p := New(stub("```json\n[{\"item\":\"Pen\",\"quantity\":2,\"price\":10}]\n```"), 0)

		items, err := p.Parse(context.Background(), []string{"2 pens at 10 rupees"})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, invoice.LineItem{Name: "Pen", Quantity: 2, UnitPrice: 10.0}, items[0])
	})

	t.Run("response with surrounding prose", func(t *testing.T) {
		p := New(stub("Sure! Here are the items:\n[{\"item\":\"Chair\",\"quantity\":1,\"price\":1500.50}]\nLet me know if you need more."), 0)

		items, err := p.Parse(context.Background(), []string{"one chair 1500.50"})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Chair", items[0].Name)
		assert.Equal(t, 1500.50, items[0].UnitPrice)
	})

	t.Run("empty array is a valid result", func(t *testing.T) {
		p := New(stub("[]"), 0)

		items, err := p.Parse(context.Background(), []string{"hello there"})
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("missing price is a schema error", func(t *testing.T) {
		p := New(stub("[{\"item\":\"Pen\",\"quantity\":2}]"), 0)

		_, err := p.Parse(context.Background(), []string{"pens"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBadSchema)
	})

	t.Run("uncoercible quantity is a schema error", func(t *testing.T) {
		p := New(stub("[{\"item\":\"Pen\",\"quantity\":\"two\",\"price\":10}]"), 0)

		_, err := p.Parse(context.Background(), []string{"pens"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBadSchema)
	})

	t.Run("string numbers are coerced", func(t *testing.T) {
		p := New(stub("[{\"item\":\"Pen\",\"quantity\":\"2\",\"price\":\"10.5\"}]"), 0)

		items, err := p.Parse(context.Background(), []string{"pens"})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 2, items[0].Quantity)
		assert.Equal(t, 10.5, items[0].UnitPrice)
	})

	t.Run("fractional quantity truncates", func(t *testing.T) {
		p := New(stub("[{\"item\":\"Rice\",\"quantity\":2.9,\"price\":60}]"), 0)

		items, err := p.Parse(context.Background(), []string{"rice"})
		require.NoError(t, err)
		assert.Equal(t, 2, items[0].Quantity)
	})

	t.Run("non-json text without brackets is a format error", func(t *testing.T) {
		p := New(stub("I could not find any purchase information in these messages."), 0)

		_, err := p.Parse(context.Background(), []string{"hi"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBadFormat)
	})

	t.Run("json object instead of array is a format error", func(t *testing.T) {
		p := New(stub("{\"item\":\"Pen\",\"quantity\":2,\"price\":10}"), 0)

		_, err := p.Parse(context.Background(), []string{"pens"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBadFormat)
	})

	t.Run("messages are newline joined into the prompt", func(t *testing.T) {
		var seen string
		p := New(GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
			seen = prompt
			return "[]", nil
		}), 0)

		_, err := p.Parse(context.Background(), []string{"first message", "second message"})
		require.NoError(t, err)
		assert.Contains(t, seen, "first message\nsecond message")
	})

	t.Run("timeout is applied to the generation call", func(t *testing.T) {
		p := New(GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
			deadline, ok := ctx.Deadline()
			require.True(t, ok)
			assert.LessOrEqual(t, time.Until(deadline), time.Second)
			return "[]", nil
		}), time.Second)

		_, err := p.Parse(context.Background(), []string{"hi"})
		require.NoError(t, err)
	})
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare array", `[{"item":"Pen"}]`, `[{"item":"Pen"}]`},
		{"json fence", "```json\n[1,2]\n```", "[1,2]"},
		{"plain fence", "```\n[1,2]\n```", "[1,2]"},
		{"prose around array", "Here you go: [1,2] hope that helps", "[1,2]"},
		{"fence with prose outside", "Result:\n```json\n[1]\n```\nDone.", "[1]"},
		{"no brackets passes through", "no items here", "no items here"},
		{"reversed brackets pass through", "] oops [", "] oops ["},
		{"whitespace trimmed", "  \n[1]\n  ", "[1]"},
		{"nested arrays keep outermost", `[[1],[2]]`, `[[1],[2]]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSONArray(tt.in))
		})
	}
}

func TestGeminiGeneratorNotConfigured(t *testing.T) {
	g := NewGeminiGenerator("", "gemini-2.5-flash")

	_, err := g.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.True(t, strings.Contains(err.Error(), "GEMINI_API_KEY"))
}
