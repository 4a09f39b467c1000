package realtime

import (
	"context"
	"sync"
	"testing"

	"github.com/darasahub/darasa/core/principal"
)

type nopLogger struct{}

func (nopLogger) Enable(bool)                        {}
func (nopLogger) Debug(string, ...interface{})       {}
func (nopLogger) Info(string, ...interface{})        {}
func (nopLogger) Warn(string, ...interface{})        {}
func (nopLogger) Error(string, ...interface{})       {}
func (nopLogger) Fatal(msg string, _ ...interface{}) { panic(msg) }

// memDirectory is a mutable learner-to-guardian linkage for tests.
type memDirectory struct {
	mu    sync.Mutex
	links map[string][]principal.Guardian
	err   error
}

func (d *memDirectory) FindGuardiansByLearner(_ context.Context, learnerID string) ([]principal.Guardian, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	return d.links[learnerID], nil
}

func (d *memDirectory) link(learnerID string, g principal.Guardian) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.links == nil {
		d.links = make(map[string][]principal.Guardian)
	}
	d.links[learnerID] = append(d.links[learnerID], g)
}

func drainOne(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case evt := <-sub.C:
		return evt
	default:
		t.Fatal("no event in mailbox")
		return Event{}
	}
}

func assertEmpty(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case evt := <-sub.C:
		t.Fatalf("unexpected event in mailbox: %+v", evt)
	default:
	}
}

func TestRouter_fansOutToLearnerAndGuardians(t *testing.T) {
	reg := NewRegistry()
	defer reg.Close()
	dir := &memDirectory{}
	dir.link("l1", principal.Guardian{ID: "g1"})
	dir.link("l1", principal.Guardian{ID: "g2"})
	router := NewRouter(reg, dir, nopLogger{})

	learnerSub, _ := reg.Subscribe("l1")
	g1Sub, _ := reg.Subscribe("g1")
	g2Sub, _ := reg.Subscribe("g2")

	router.Deliver(context.Background(), NewEvent("exam.published", "Results out", ""), "l1")

	if evt := drainOne(t, learnerSub); evt.Audience != AudienceStudent {
		t.Errorf("learner copy Audience = %s, want %s", evt.Audience, AudienceStudent)
	}
	for _, sub := range []*Subscription{g1Sub, g2Sub} {
		if evt := drainOne(t, sub); evt.Audience != AudienceParent {
			t.Errorf("guardian copy Audience = %s, want %s", evt.Audience, AudienceParent)
		}
	}
}

// linkage is read at delivery time: a guardian linked between two events
// receives only the second.
func TestRouter_linkageReadAtDeliveryTime(t *testing.T) {
	reg := NewRegistry()
	defer reg.Close()
	dir := &memDirectory{}
	router := NewRouter(reg, dir, nopLogger{})

	lateSub, _ := reg.Subscribe("g-late")

	router.Deliver(context.Background(), NewEvent("a", "", ""), "l1")
	assertEmpty(t, lateSub)

	dir.link("l1", principal.Guardian{ID: "g-late"})

	router.Deliver(context.Background(), NewEvent("b", "", ""), "l1")
	if evt := drainOne(t, lateSub); evt.Type != "b" {
		t.Errorf("Type = %s, want b (only the post-link event)", evt.Type)
	}
	assertEmpty(t, lateSub)
}

// a failed guardian lookup skips that learner's guardian copies but still
// delivers the learner copy and continues with other learners.
func TestRouter_lookupFailureSkipsGuardianCopies(t *testing.T) {
	reg := NewRegistry()
	defer reg.Close()
	dir := &memDirectory{err: context.DeadlineExceeded}
	router := NewRouter(reg, dir, nopLogger{})

	learnerSub, _ := reg.Subscribe("l1")
	otherSub, _ := reg.Subscribe("l2")

	router.Deliver(context.Background(), NewEvent("x", "", ""), "l1", "l2")

	if evt := drainOne(t, learnerSub); evt.Audience != AudienceStudent {
		t.Errorf("Audience = %s, want %s", evt.Audience, AudienceStudent)
	}
	if evt := drainOne(t, otherSub); evt.Audience != AudienceStudent {
		t.Errorf("Audience = %s, want %s", evt.Audience, AudienceStudent)
	}
}

func TestRouter_sharedGuardianGetsCopyPerLearner(t *testing.T) {
	reg := NewRegistry()
	defer reg.Close()
	dir := &memDirectory{}
	dir.link("l1", principal.Guardian{ID: "g1"})
	dir.link("l2", principal.Guardian{ID: "g1"})
	router := NewRouter(reg, dir, nopLogger{})

	gSub, _ := reg.Subscribe("g1")

	router.Deliver(context.Background(), NewEvent("x", "", ""), "l1", "l2")

	drainOne(t, gSub)
	drainOne(t, gSub)
	assertEmpty(t, gSub)
}
