package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/organizator/organizator/pkg/errs"
	"github.com/organizator/organizator/pkg/observability"
)

// Gate is the decision point every protected operation calls before touching
// data. It computes each decision fresh from the evaluator; grants change
// between requests and a stale allow is not acceptable.
type Gate struct {
	eval    *Evaluator
	metrics *observability.Metrics
}

// NewGate creates a gate. metrics may be nil in tests.
func NewGate(eval *Evaluator, metrics *observability.Metrics) *Gate {
	return &Gate{eval: eval, metrics: metrics}
}

// RequireMemoGroup allows the request when principal holds at least min over
// the memo group. Denials carry no detail about the grant structure.
func (g *Gate) RequireMemoGroup(ctx context.Context, principal string, groupID int, min AccessLevel) error {
	level, err := g.eval.MemoGroupLevel(ctx, principal, groupID)
	return g.decide(level, err, min)
}

// RequireFile allows the request when principal holds at least min over the
// stored file.
func (g *Gate) RequireFile(ctx context.Context, principal string, fileID uuid.UUID, min AccessLevel) error {
	level, err := g.eval.FileLevel(ctx, principal, fileID)
	return g.decide(level, err, min)
}

func (g *Gate) decide(level AccessLevel, err error, min AccessLevel) error {
	switch {
	case err != nil:
		// Absent resources surface as not-found rather than forbidden so an
		// unauthorized caller cannot distinguish "exists" from "denied".
		if errors.Is(err, errs.ErrNotFound) {
			g.count("not_found")
			return err
		}
		g.count("error")
		return err
	case !level.AtLeast(min):
		g.count("deny")
		return fmt.Errorf("%w: insufficient access level", errs.ErrForbidden)
	default:
		g.count("allow")
		return nil
	}
}

func (g *Gate) count(decision string) {
	if g.metrics != nil {
		g.metrics.AuthzDecisionsTotal.WithLabelValues(decision).Inc()
	}
}
