package steps_test

import (
	"testing"

	"verdandi/internal/steps"
)

func TestBuildScheduleConvergesOnRatio(t *testing.T) {
	schedule := steps.BuildSchedule(10, 0.7, 0, 0)
	if len(schedule) != 10 {
		t.Fatalf("expected 10 slots, got %d", len(schedule))
	}
	if schedule[0].Type != steps.DiscoveryDisruption {
		t.Fatal("expected an empty portfolio to start with disruption")
	}

	disruption := 0
	for _, strategy := range schedule {
		if strategy.Type == steps.DiscoveryDisruption {
			disruption++
		}
	}
	if disruption != 7 {
		t.Fatalf("expected 7 disruption slots at ratio 0.7, got %d", disruption)
	}
}

func TestBuildScheduleBalancesExistingPortfolio(t *testing.T) {
	// Portfolio is already all disruption, so the next slots go moonshot
	// until the ratio dips below target.
	schedule := steps.BuildSchedule(3, 0.7, 7, 0)
	if schedule[0].Type != steps.DiscoveryMoonshot {
		t.Fatal("expected moonshot first when disruption is over-represented")
	}

	moonshot := 0
	for _, strategy := range schedule {
		if strategy.Type == steps.DiscoveryMoonshot {
			moonshot++
		}
	}
	if moonshot != 3 {
		t.Fatalf("expected all 3 slots moonshot, got %d", moonshot)
	}
}
