package realtime

import (
	"context"
	"fmt"

	"github.com/darasahub/darasa/core"
	"github.com/darasahub/darasa/core/principal"
)

// GuardianDirectory is the live learner-to-guardian linkage lookup. The
// router queries it at delivery time, never a cached snapshot, so a guardian
// linked a minute ago receives the next event.
type GuardianDirectory interface {
	FindGuardiansByLearner(ctx context.Context, learnerID string) ([]principal.Guardian, error)
}

// Router fans a domain event out to learner mailboxes and to the mailboxes
// of each learner's linked guardians.
type Router struct {
	registry  *Registry
	guardians GuardianDirectory
	logger    core.Logger
}

func NewRouter(registry *Registry, guardians GuardianDirectory, logger core.Logger) *Router {
	return &Router{registry: registry, guardians: guardians, logger: logger}
}

// Deliver pushes the event to each learner recipient and a guardian-flavored
// copy to each of that learner's guardians. Fire-and-forget end to end: a
// failed guardian lookup skips that learner's guardian copies and nothing is
// retried or persisted here.
func (rt *Router) Deliver(ctx context.Context, evt Event, learnerIDs ...string) {
	for _, learnerID := range learnerIDs {
		rt.registry.Publish(AddressOf(learnerID), evt.forStudent())

		guardians, err := rt.guardians.FindGuardiansByLearner(ctx, learnerID)
		if err != nil {
			rt.logger.Error(fmt.Sprintf("resolving guardians of learner %s: %v", learnerID, err), err)
			continue
		}
		parentCopy := evt.forParent()
		for _, g := range guardians {
			rt.registry.Publish(AddressOf(g.ID), parentCopy)
		}
	}
}
