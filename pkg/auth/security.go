package auth

import (
	"context"
	"errors"

	"github.com/organizator/organizator/pkg/contextkeys"
)

// ErrNoSecurityContext means a handler asked for the resolved identity but
// the security middleware never ran on this code path. That is a wiring bug;
// it must surface as an error rather than a substitute identity.
var ErrNoSecurityContext = errors.New("no security context attached to request")

// Provenance records which credential source produced the principal.
type Provenance string

const (
	ProvenanceSession     Provenance = "session"
	ProvenanceCertificate Provenance = "certificate"
)

// SecurityContext is the immutable per-request resolution result. It is
// created once by the security middleware and never mutated afterwards.
type SecurityContext struct {
	Principal  string
	Provenance Provenance
}

// WithSecurity attaches sec to ctx for downstream handlers.
func WithSecurity(ctx context.Context, sec *SecurityContext) context.Context {
	return contextkeys.WithSecurity(ctx, sec)
}

// FromContext extracts the SecurityContext resolved for this request.
func FromContext(ctx context.Context) (*SecurityContext, error) {
	sec, ok := ctx.Value(contextkeys.SecurityKey).(*SecurityContext)
	if !ok || sec == nil {
		return nil, ErrNoSecurityContext
	}
	return sec, nil
}

// subjectDNPrefixLen is the length of the leading attribute prefix ("CN=")
// in the proxy-supplied subject distinguished name. The proxy contract
// guarantees the prefix is exactly this long.
const subjectDNPrefixLen = 3

// PrincipalFromSubjectDN extracts the principal identifier from the value of
// the X-SSL-Client-S-DN header by stripping the fixed attribute prefix.
// A value too short to carry a principal yields "".
func PrincipalFromSubjectDN(dn string) string {
	if len(dn) <= subjectDNPrefixLen {
		return ""
	}
	return dn[subjectDNPrefixLen:]
}
