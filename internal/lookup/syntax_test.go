package lookup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidSyntax(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"john@acme.com", true},
		{"first.last+tag@sub.example.co.uk", true},
		{"o'brien@example.ie", true},
		{"x@localhost", true},
		{"a-b@a-b.io", true},
		{"", false},
		{"plainaddress", false},
		{"@example.com", false},
		{"user@", false},
		{"user@@example.com", false},
		{"user@-example.com", false},
		{"user@example-.com", false},
		{"user@exa_mple.com", false},
		{"user@example..com", false},
		{"user name@example.com", false},
		{" user@example.com", false},
		{"user@" + strings.Repeat("a", 63) + ".com", true},
		{"user@" + strings.Repeat("a", 64) + ".com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidSyntax(tt.email))
		})
	}
}

func TestSplitAddress(t *testing.T) {
	local, domain := SplitAddress("Info.Team@Example.com")
	assert.Equal(t, "Info.Team", local)
	assert.Equal(t, "Example.com", domain)
}
