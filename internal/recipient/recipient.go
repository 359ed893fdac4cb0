// Package recipient resolves which staff addresses receive a module's mail.
package recipient

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/antqd/emailsender/internal/module"
)

// Generic override variables, consulted after the module's own variable.
const (
	EnvInternal       = "INTERNAL_RECIPIENTS"
	EnvInternalLegacy = "EMAIL_INTERNAL_TO"
)

// ErrNoRecipients means no source produced an address: the deployment is
// misconfigured.
var ErrNoRecipients = errors.New("no internal recipients configured")

// LookupFunc reads one configuration variable.
type LookupFunc func(key string) (string, bool)

// Resolver reads overrides on every call so changes to the environment apply
// without a restart.
type Resolver struct {
	lookup LookupFunc
}

// New creates a Resolver over lookup. A nil lookup reads the process
// environment.
func New(lookup LookupFunc) *Resolver {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &Resolver{lookup: lookup}
}

// Resolve returns the internal recipients for d. Modules with a ConfigKey
// consult, in order, that variable, INTERNAL_RECIPIENTS and EMAIL_INTERNAL_TO
// before falling back to their defaults; the first non-empty list wins.
func (r *Resolver) Resolve(d module.Descriptor) ([]string, error) {
	if d.ConfigKey != "" {
		for _, key := range []string{d.ConfigKey, EnvInternal, EnvInternalLegacy} {
			if v, ok := r.lookup(key); ok {
				if list := Split(v); len(list) > 0 {
					return list, nil
				}
			}
		}
	}

	list := clean(d.DefaultRecipients)
	if len(list) == 0 {
		return nil, fmt.Errorf("module %q: %w", d.Key, ErrNoRecipients)
	}
	return list, nil
}

// Split parses a comma separated address list, dropping blanks.
func Split(v string) []string {
	return clean(strings.Split(v, ","))
}

func clean(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
