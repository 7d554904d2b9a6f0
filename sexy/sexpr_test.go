package sexy

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestParseSymbol(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello", "hello"},
		{"test_var", "test_var"},
		{"func-name", "func-name"},
		{"x", "x"},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeSymbol)
		be.Equal(t, result.Text, test.expected)
		be.Equal(t, result.String(), test.expected)
	}
}

func TestParseString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		output   string
	}{
		{`"hello"`, "hello", `"hello"`},
		{`"hello world"`, "hello world", `"hello world"`},
		{`""`, "", `""`},
		{`"test\"quote"`, `test"quote`, `"test\"quote"`},
		{`"test\\backslash"`, `test\backslash`, `"test\\backslash"`},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeString)
		be.Equal(t, result.Text, test.expected)
		be.Equal(t, result.String(), test.output)
	}
}

func TestParseInteger(t *testing.T) {
	for _, input := range []string{"42", "0", "-123"} {
		result, err := Parse(input)
		be.Err(t, err, nil)
		be.Equal(t, result.Type, NodeInteger)
		be.Equal(t, result.Text, input)
	}
}

func TestParseList(t *testing.T) {
	result, err := Parse(`(function "main" () int (block (return 0)))`)
	be.Err(t, err, nil)
	be.Equal(t, result.Type, NodeList)
	be.Equal(t, len(result.Items), 5)
	be.Equal(t, result.Items[2].Type, NodeList)
	be.Equal(t, len(result.Items[2].Items), 0)
	be.Equal(t, result.String(), `(function "main" () int (block (return 0)))`)
}

func TestParseCommentsAndWhitespace(t *testing.T) {
	result, err := Parse("; leading comment\n(call\n  \"f\" ; the callee\n  1)")
	be.Err(t, err, nil)
	be.Equal(t, result.String(), `(call "f" 1)`)
}

func TestParseEllipsis(t *testing.T) {
	result, err := Parse(`(program ...)`)
	be.Err(t, err, nil)
	be.Equal(t, result.Items[1].Type, NodeEllipsis)
	be.Equal(t, result.String(), `(program ...)`)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`(a b`, "expected ')'"},
		{`"open`, "unterminated string"},
		{`a b`, "expected EOF"},
		{`(a . b)`, "unexpected character '.'"},
		{`"\n"`, "invalid escape sequence"},
		{`)`, "unexpected token"},
	}

	for _, test := range tests {
		_, err := Parse(test.input)
		be.True(t, err != nil)
		if !strings.Contains(err.Error(), test.want) {
			t.Errorf("Parse(%q): got error %q, want it to contain %q", test.input, err, test.want)
		}
	}
}

func mustParse(t *testing.T, input string) *Node {
	t.Helper()
	n, err := Parse(input)
	be.Err(t, err, nil)
	return n
}

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		actual  string
		ok      bool
	}{
		{`(call "f" 1)`, `(call "f" 1)`, true},
		{`(call "f" ...)`, `(call "f" 1 (ident "x"))`, true},
		{`(call "f" ...)`, `(call "f")`, true},
		{`...`, `(anything at all)`, true},
		{`(if ... )`, `(if (ident "c") (block))`, true},
		{`(call "f" 1)`, `(call "g" 1)`, false},
		{`(call "f" 1)`, `(call "f" 1 2)`, false},
		{`(call "f" 1 2)`, `(call "f" 1)`, false},
		{`(ident "x")`, `(string "x")`, false},
		{`1`, `"1"`, false},
	}

	for _, test := range tests {
		err := Match(mustParse(t, test.pattern), mustParse(t, test.actual))
		if (err == nil) != test.ok {
			t.Errorf("Match(%s, %s) = %v, want ok=%v", test.pattern, test.actual, err, test.ok)
		}
	}
}

func TestMatchReportsPath(t *testing.T) {
	err := Match(mustParse(t, `(block (var int "x" 1))`), mustParse(t, `(block (var int "x" 2))`))
	be.True(t, err != nil)
	be.True(t, strings.HasPrefix(err.Error(), "at root.1.3:"))
}
