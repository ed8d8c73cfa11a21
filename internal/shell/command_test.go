package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeToken(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"run", "run"},
		{"a file.exe", `"a file.exe"`},
		{"tab\there", "\"tab\there\""},
		{`/p:Platform="Any CPU"`, `/p:Platform="Any CPU"`},
		{`"already quoted"`, `"already quoted"`},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, EscapeToken(tc.in), tc.in)
	}
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, `run "a file.exe" -x`, Tokens("run", "a file.exe", "-x").String())
	assert.Equal(t, `MSBuild.exe /p:OutDir="C:\out dir"`, Tokens("MSBuild.exe", `/p:OutDir="C:\out dir"`).String())
	assert.Equal(t, `echo "a b" | tr a-z A-Z`, Raw(`echo "a b" | tr a-z A-Z`).String())
}

func TestTokensCopiesInput(t *testing.T) {
	toks := []string{"echo", "hi"}
	c := Tokens(toks...)
	toks[1] = "changed"
	assert.Equal(t, "echo hi", c.String())
}

func TestCommandIsEmpty(t *testing.T) {
	assert.True(t, Raw("   ").IsEmpty())
	assert.True(t, Tokens().IsEmpty())
	assert.False(t, Raw("ls").IsEmpty())
	assert.False(t, Tokens("ls").IsEmpty())
}
