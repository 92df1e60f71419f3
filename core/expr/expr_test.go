package expr

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpression_String(t *testing.T) {
	cases := []struct {
		name     string
		expr     *Expression
		expected string
	}{
		{"empty", Nothing(), ""},
		{"simple", Simple("echo", "hello"), "echo hello"},
		{"quoted", Simple("echo", "hello world", "it's"), `echo 'hello world' 'it'\''s'`},
		{"empty arg", Simple("printf", ""), "printf ''"},
		{"stdout", RedirectTo(Stdout, "out.txt", Simple("ls")), "ls > out.txt"},
		{"stderr", RedirectTo(Stderr, "err.txt", Simple("ls")), "ls 2> err.txt"},
		{"stdin", RedirectFrom(Stdin, "in.txt", Simple("cat")), "cat < in.txt"},
		{"append", AppendTo(Stdout, "log", Simple("date")), "date >> log"},
		{"both", RedirectBoth("all", Simple("make")), "make &> all"},
		{"sequence", Seq(Simple("a"), Simple("b")), "a; b"},
		{"and", And(Simple("a"), Simple("b")), "a && b"},
		{"or", Or(Simple("a"), Simple("b")), "a || b"},
		{"pipe", PipeTo(Simple("a"), Simple("b")), "a | b"},
		{"background", Bg(Simple("sleep", "1")), "sleep 1 &"},
		{"nested", And(PipeTo(Simple("a"), Simple("b")), Simple("c")), "{ a | b; } && c"},
		{"background first", Seq(Bg(Simple("a")), Simple("b")), "a & b"},
		{"background operand", And(Bg(Simple("a")), Simple("b")), "{ a & } && b"},
		{"stacked redirects", RedirectFrom(Stdin, "in", RedirectTo(Stdout, "out", Simple("sort"))), "sort < in > out"},
		{"redirect nothing", RedirectTo(Stdout, "f", Nothing()), "> f"},
		{"redirect operand", And(RedirectTo(Stdout, "f", Simple("a")), Simple("b")), "a > f && b"},
		{"group redirected", RedirectTo(Stdout, "f", Seq(Simple("a"), Simple("b"))), "{ a; b; } > f"},
		{"invalid", &Expression{Kind: Kind(42)}, "<Kind(42)>"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.expr.String())
		})
	}
}

func TestExpression_Validate(t *testing.T) {
	cases := map[string]struct {
		expr    *Expression
		wantErr bool
	}{
		"nil":                {nil, false},
		"empty":              {Nothing(), false},
		"simple":             {Simple("true"), false},
		"no argv":            {&Expression{Kind: SimpleCommand}, true},
		"blank program":      {Simple(""), true},
		"redirect":           {RedirectTo(Stdout, "f", Simple("true")), false},
		"redirect no target": {&Expression{Kind: Redirect, Left: Simple("true")}, true},
		"redirect no child":  {RedirectTo(Stdout, "f", nil), true},
		"sequence":           {Seq(Simple("a"), Simple("b")), false},
		"sequence one side":  {Seq(Simple("a"), nil), true},
		"pipe bad child":     {PipeTo(Simple("a"), Simple()), true},
		"background":         {Bg(Simple("a")), false},
		"background empty":   {Bg(nil), true},
		"unknown kind":       {&Expression{Kind: Kind(-3)}, true},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := tc.expr.Validate()
			if tc.wantErr {
				assert.True(t, errors.Is(err, ErrMalformed), "expected ErrMalformed, got %v", err)
			} else {
				assert.Nil(t, err)
			}
		})
	}

	err := Seq(Simple("a"), &Expression{Kind: Kind(42)}).Validate()
	assert.True(t, errors.Is(err, ErrUnknownKind))
	assert.False(t, errors.Is(Simple().Validate(), ErrUnknownKind))
}

func TestKind(t *testing.T) {
	for _, k := range Kinds() {
		assert.True(t, k.Valid(), k.String())
	}
	assert.False(t, Kind(99).Valid())
	assert.Equal(t, "Pipe", Pipe.String())
	assert.Equal(t, "AppendFile", AppendFile.String())
}

func TestDump(t *testing.T) {
	tree := Seq(
		RedirectBoth("all.log", Simple("make", "all")),
		Bg(PipeTo(Simple("yes"), Simple("head", "-n", "1"))),
	)

	buf := &bytes.Buffer{}
	assert.Nil(t, Dump(buf, tree))

	expected := `Sequence
  Redirect ToFile fd=both "all.log"
    SimpleCommand ["make" "all"]
  Background
    Pipe
      SimpleCommand ["yes"]
      SimpleCommand ["head" "-n" "1"]
`
	assert.Equal(t, expected, buf.String())
}
