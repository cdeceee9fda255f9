package steps

// DiscoveryType identifies which discovery lens produced an idea.
type DiscoveryType string

const (
	DiscoveryDisruption DiscoveryType = "disruption"
	DiscoveryMoonshot   DiscoveryType = "moonshot"
)

// Strategy is the personality of one discovery agent: what it searches for
// and how its ideas should later be scored.
type Strategy struct {
	Type            DiscoveryType
	Name            string
	Queries         []string
	ScoringGuidance string
}

// DisruptionStrategy hunts for broken workflows a specific user group keeps
// complaining about.
var DisruptionStrategy = Strategy{
	Type: DiscoveryDisruption,
	Name: "Disruption Agent",
	Queries: []string{
		"most common workflow complaints professionals",
		"cumbersome manual processes people hate doing at work",
		"broken software tools specific professions complain about",
	},
	ScoringGuidance: "Weight pain severity and willingness to pay heavily. Existing paid competitors validate the market.",
}

// MoonshotStrategy hunts for products enabled by capabilities that did not
// exist a year ago.
var MoonshotStrategy = Strategy{
	Type: DiscoveryMoonshot,
	Name: "Moonshot Agent",
	Queries: []string{
		"new AI capabilities what is now possible",
		"emerging platforms APIs developers building on",
		"how industries will transform next 5 years",
	},
	ScoringGuidance: "Weight novelty and growth potential more heavily than proven willingness to pay. Few competitors is expected, not a weakness.",
}

// BuildSchedule assigns a strategy to each discovery slot, steering the
// portfolio toward targetRatio disruption ideas. Existing counts come from
// prior experiments so the ratio converges across batches; with no history
// the schedule starts with disruption.
func BuildSchedule(count int, targetRatio float64, disruptionCount, moonshotCount int) []Strategy {
	schedule := make([]Strategy, 0, count)
	for i := 0; i < count; i++ {
		total := disruptionCount + moonshotCount
		currentRatio := 0.0
		if total > 0 {
			currentRatio = float64(disruptionCount) / float64(total)
		}
		if currentRatio >= targetRatio {
			schedule = append(schedule, MoonshotStrategy)
			moonshotCount++
		} else {
			schedule = append(schedule, DisruptionStrategy)
			disruptionCount++
		}
	}
	return schedule
}
