package lookup

import "strings"

// Seed list of burner providers.
var defaultDisposableDomains = []string{
	"tempmail.com",
	"throwaway.email",
	"guerrillamail.com",
	"mailinator.com",
	"10minutemail.com",
	"trashmail.com",
	"temp-mail.org",
	"getnada.com",
	"maildrop.cc",
	"sharklasers.com",
	"guerrillamailblock.com",
}

// Local parts that address a function rather than a person.
var defaultRolePrefixes = []string{
	"info", "admin", "support", "sales", "contact", "hello", "help",
	"noreply", "no-reply", "postmaster", "webmaster", "hostmaster",
}

// Classifier answers the disposable and role-account questions against a
// fixed pair of lists. It is immutable and safe for concurrent use.
type Classifier struct {
	disposable map[string]struct{}
	roles      []string
}

func NewClassifier(disposableDomains, rolePrefixes []string) *Classifier {
	c := &Classifier{disposable: make(map[string]struct{}, len(disposableDomains))}
	for _, d := range disposableDomains {
		if d = normalizeEntry(d); d != "" {
			c.disposable[d] = struct{}{}
		}
	}
	for _, r := range rolePrefixes {
		if r = normalizeEntry(r); r != "" {
			c.roles = append(c.roles, r)
		}
	}
	return c
}

// DefaultClassifier uses the built-in seed lists.
func DefaultClassifier() *Classifier {
	return NewClassifier(defaultDisposableDomains, defaultRolePrefixes)
}

// Classifier lets a fixed classifier act as its own ClassifierSource.
func (c *Classifier) Classifier() *Classifier { return c }

// IsDisposableDomain is an exact, case-insensitive match. Subdomains of a
// listed domain do not match.
func (c *Classifier) IsDisposableDomain(domain string) bool {
	_, ok := c.disposable[strings.ToLower(domain)]
	return ok
}

// IsRoleAccount matches a local part equal to a role prefix or starting with
// the prefix followed by '-' or '.'. "info.team" matches, "information" does not.
func (c *Classifier) IsRoleAccount(local string) bool {
	local = strings.ToLower(local)
	for _, p := range c.roles {
		if local == p {
			return true
		}
		if strings.HasPrefix(local, p) {
			switch local[len(p)] {
			case '-', '.':
				return true
			}
		}
	}
	return false
}

func normalizeEntry(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
