package middleware

import (
	"net/http"

	"github.com/organizator/organizator/pkg/auth"
	"github.com/organizator/organizator/pkg/httputil"
	"github.com/organizator/organizator/pkg/observability"
	"github.com/organizator/organizator/pkg/session"
)

// ClientCertHeader carries the TLS client certificate subject DN, injected
// by the trusted reverse proxy. It is only meaningful behind that proxy.
const ClientCertHeader = "X-SSL-Client-S-DN"

// LoginPath is exempt from resolution: a caller without credentials must be
// able to reach it.
const LoginPath = "/login"

// Security resolves a principal for each inbound request before any handler
// runs. Credential sources are tried in strict order: the session cookie
// first, then the proxy-supplied client certificate header. Session state
// wins when both are present, because a user may switch identity via login
// without the proxy certificate changing within the same browser session.
type Security struct {
	sessions *session.Store
	metrics  *observability.Metrics
}

// NewSecurity creates the security resolution middleware. metrics may be
// nil in tests.
func NewSecurity(sessions *session.Store, metrics *observability.Metrics) *Security {
	return &Security{sessions: sessions, metrics: metrics}
}

// Handler wraps next with security context resolution. Requests that
// resolve no principal are rejected with 401 before next is invoked.
func (m *Security) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == LoginPath {
			next.ServeHTTP(w, r)
			return
		}

		sec := m.resolve(r)
		if sec == nil {
			m.count("none")
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}

		m.count(string(sec.Provenance))
		ctx := auth.WithSecurity(r.Context(), sec)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolve tries each credential source in precedence order and returns nil
// when none yields a principal.
func (m *Security) resolve(r *http.Request) *auth.SecurityContext {
	if principal := m.sessions.Principal(r); principal != "" {
		return &auth.SecurityContext{Principal: principal, Provenance: auth.ProvenanceSession}
	}

	if dn := r.Header.Get(ClientCertHeader); dn != "" {
		if principal := auth.PrincipalFromSubjectDN(dn); principal != "" {
			return &auth.SecurityContext{Principal: principal, Provenance: auth.ProvenanceCertificate}
		}
	}

	return nil
}

func (m *Security) count(source string) {
	if m.metrics != nil {
		m.metrics.ResolutionsTotal.WithLabelValues(source).Inc()
	}
}
