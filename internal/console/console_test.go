package console

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure-sidekick/server/internal/agent/model"
)

type script []string

func (s *script) ReadLine(string) (string, error) {
	if len(*s) == 0 {
		return "", io.EOF
	}
	next := (*s)[0]
	*s = (*s)[1:]
	return next, nil
}

var subs = []model.Subscription{
	{ID: "00000000-0000-0000-0000-000000000001", DisplayName: "Dev"},
	{ID: "00000000-0000-0000-0000-000000000002", DisplayName: strings.Repeat("p", 60)},
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{in: "", want: 0, wantOK: true},
		{in: " 2 ", want: 1, wantOK: true},
		{in: "0", wantOK: false},
		{in: "3", wantOK: false},
		{in: "two", wantOK: false},
	}
	for _, tt := range tests {
		got, ok := parseChoice(tt.in, 2)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		if tt.wantOK {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}

func TestPickRetriesUntilValid(t *testing.T) {
	var buf bytes.Buffer
	in := &script{"9", "abc", "2"}

	got, err := pick(NewPrinter(&buf), in, subs)
	require.NoError(t, err)
	assert.Equal(t, subs[1].ID, got.ID)
	assert.Empty(t, *in)

	out := buf.String()
	assert.Contains(t, out, "Subscription Id")
	assert.Contains(t, out, subs[0].ID)
	assert.Contains(t, out, strings.Repeat("p", 50))
	assert.NotContains(t, out, strings.Repeat("p", 51))
	assert.Equal(t, 3, strings.Count(out, "Please select a subscription"))
}

func TestPickDefaultsToFirst(t *testing.T) {
	got, err := pick(NewPrinter(io.Discard), &script{""}, subs)
	require.NoError(t, err)
	assert.Equal(t, "Dev", got.DisplayName)

	_, err = pick(NewPrinter(io.Discard), &script{}, subs)
	assert.ErrorIs(t, err, io.EOF)
}

func TestPrinterOutput(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Fragment("Hello ")
	p.Fragment("world")
	p.EndStream()
	assert.Equal(t, "Hello world\n", buf.String())

	buf.Reset()
	p.Usage(schema.TokenUsage{PromptTokens: 32, CompletionTokens: 53, TotalTokens: 85}, 0.000142)
	assert.Contains(t, buf.String(), "Prompt tokens: 32; Completion tokens: 53; Total tokens: 85")
	assert.Contains(t, buf.String(), "$0.000142")

	buf.Reset()
	p.Help()
	assert.Contains(t, buf.String(), `"toggle response mode"`)

	buf.Reset()
	p.Welcome()
	assert.Contains(t, buf.String(), "welcome to Azure Sidekick")

	buf.Reset()
	p.Error("boom")
	assert.Contains(t, buf.String(), "boom")
}
