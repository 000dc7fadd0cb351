package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRelativePath(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"blank", "   ", ""},
		{"bare relative", "problems/a.pdf", "./problems/a.pdf"},
		{"already canonical", "./files/contests/c1/statement/contest.pdf", "./files/contests/c1/statement/contest.pdf"},
		{"windows absolute", `C:\Users\me\acm\files\contests\c1\a.pdf`, "./files/contests/c1/a.pdf"},
		{"unix absolute under files", "/home/u/site/files/problems/p.pdf", "./files/problems/p.pdf"},
		{"unix absolute elsewhere", "/abs/a.pdf", "./abs/a.pdf"},
		{"traversal stripped", "./files/../../secret.txt", "./files/secret.txt"},
		{"only dots", "../..", ""},
		{"repeated slashes", "files//problems///p.pdf", "./files/problems/p.pdf"},
		{"url untouched", " https://example.com/a.pdf ", "https://example.com/a.pdf"},
		{"trailing slash kept", "files/contests/", "./files/contests/"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeRelativePath(tc.in)
			assert.Equal(t, tc.want, got)
			assert.NotContains(t, got, "..")
			assert.NotContains(t, got, `\`)
		})
	}
}

func TestNormalizeRelativePathIsIdempotent(t *testing.T) {
	for _, in := range []string{`a\b\c.pdf`, "/x/files/y.pdf", "./files/contests/c/s.pdf"} {
		once := NormalizeRelativePath(in)
		assert.Equal(t, once, NormalizeRelativePath(once), in)
	}
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "", NormalizePath(""))
	assert.Equal(t, "./files/a.pdf", NormalizePath(`files\a.pdf`))
	assert.Equal(t, "/srv/a.pdf", NormalizePath("/srv//a.pdf"))
	assert.Equal(t, "./files/b/c.pdf", NormalizePath("./files//b/c.pdf"))
}

func TestValidatePathSecurity(t *testing.T) {
	assert.True(t, ValidatePathSecurity("./files/contests/c1/statement/contest.pdf"))
	assert.True(t, ValidatePathSecurity("./files/problems/p1/solution/official/solution.pdf"))

	assert.False(t, ValidatePathSecurity("./files/contests/../../etc/passwd"))
	assert.False(t, ValidatePathSecurity("~/files/contests/a.pdf"))
	assert.False(t, ValidatePathSecurity("/files/contests/a.pdf"))
	assert.False(t, ValidatePathSecurity("./files/other/a.pdf"))
	assert.False(t, ValidatePathSecurity("files/contests/a.pdf"))
}
