package testutil

import (
	"testing"

	"github.com/lllypuk/statuswatch/internal/domain/event"
	"github.com/lllypuk/statuswatch/internal/domain/status"
)

func TestAssertEventHelpers(t *testing.T) {
	actor := ActorFixture()
	app := NewApplication(t, actor, "Billing", "https://billing.example.com")
	if err := app.Enable(actor); err != nil {
		t.Fatal(err)
	}
	events := app.GetUncommittedEvents()

	evt := AssertEventPublished(t, events, status.EventTypeHealthCheckStarted)
	AssertAggregateID(t, evt, app.ID().String())
	AssertEventCount(t, events, status.EventTypeStatusChanged, 1)
	AssertEventTypes(t, events, status.EventTypeHealthCheckStarted, status.EventTypeStatusChanged)
	AssertEventTypes(t, []event.DomainEvent{})
}

func TestBuildActor(t *testing.T) {
	actor := BuildActor(WithTenant("t9"), WithoutRoles())

	if actor.TenantID != "t9" || actor.IsOperator() {
		t.Fatalf("unexpected actor %+v", actor)
	}
}
