package steps

import "verdandi/internal/step"

// DefaultIdeaPool is the built-in candidate pool used by trial runs and by
// deployments without a generation backend.
func DefaultIdeaPool() []IdeaCandidate {
	return []IdeaCandidate{
		{
			Title:            "DevLog — Automated Developer Changelog",
			OneLiner:         "Generate readable changelogs from git commits and pull requests",
			ProblemStatement: "Developers skip changelogs because writing them by hand is tedious, and generated ones read like commit dumps.",
			TargetAudience:   "Open-source maintainers and small SaaS teams",
			Category:         "developer-tools",
			PainPoints: []PainPoint{
				{Description: "Writing changelogs is tedious and often skipped", Severity: 6, Frequency: "weekly", Source: "HackerNews"},
				{Description: "Auto-generated changelogs from commits are unreadable", Severity: 7, Frequency: "weekly", Source: "Reddit r/programming"},
			},
			ExistingSolutions: []string{"release-please", "conventional-changelog"},
			Differentiation:   "Summarization that produces human-quality prose, not commit lists",
		},
		{
			Title:            "FormShield — Form Spam Detection",
			OneLiner:         "Block spam form submissions without CAPTCHAs",
			ProblemStatement: "Contact forms get flooded with spam; CAPTCHAs hurt conversion and honeypots catch only basic bots.",
			TargetAudience:   "Small business owners with public-facing forms",
			Category:         "security",
			PainPoints: []PainPoint{
				{Description: "Spam submissions waste time and pollute databases", Severity: 7, Frequency: "daily", Source: "Reddit r/webdev"},
				{Description: "CAPTCHAs cut form completion rates", Severity: 8, Frequency: "daily", Source: "Baymard Institute"},
			},
			ExistingSolutions: []string{"reCAPTCHA", "Akismet", "honeypot fields"},
			Differentiation:   "Zero user friction, content analyzed semantically",
		},
		{
			Title:            "PriceTrack — Competitor Pricing Monitor",
			OneLiner:         "Instant alerts when competitors change their pricing pages",
			ProblemStatement: "Checking competitor pricing manually is impractical and generic change detectors are too noisy.",
			TargetAudience:   "SaaS founders and product managers",
			Category:         "competitive-intelligence",
			PainPoints: []PainPoint{
				{Description: "Missed competitor price changes lose revenue", Severity: 8, Frequency: "monthly", Source: "Reddit r/SaaS"},
				{Description: "Generic monitoring tools flood with false positives", Severity: 6, Frequency: "weekly", Source: "HackerNews"},
			},
			ExistingSolutions: []string{"Visualping", "Kompyte", "manual checking"},
			Differentiation:   "Structured extraction built specifically for pricing pages",
		},
		{
			Title:            "StatusSnap — Zero-Config Status Pages",
			OneLiner:         "A professional status page with no setup",
			ProblemStatement: "Every product needs a status page, but hosted options are pricey and self-hosted ones need DevOps time.",
			TargetAudience:   "Indie hackers and small SaaS teams",
			Category:         "developer-tools",
			PainPoints: []PainPoint{
				{Description: "Hosted status pages cost $29-99/month for basics", Severity: 6, Frequency: "monthly", Source: "Reddit r/SaaS"},
				{Description: "Self-hosted alternatives need DevOps knowledge", Severity: 7, Frequency: "monthly", Source: "HackerNews"},
			},
			ExistingSolutions: []string{"Statuspage.io", "Instatus", "Upptime"},
			Differentiation:   "Connect a monitoring tool and get a page instantly",
		},
	}
}

// Options tunes the default stage set.
type Options struct {
	GoThreshold   int
	RequireReview bool
	IdeaPool      []IdeaCandidate
}

// DefaultRegistry wires the full stage ladder over the built-in
// collaborators. Deployments with real generation or research services build
// their own registry from the individual constructors.
func DefaultRegistry(opts Options) (*step.Registry, error) {
	pool := opts.IdeaPool
	if pool == nil {
		pool = DefaultIdeaPool()
	}
	return step.NewRegistry(
		NewDiscoveryStep(&StaticIdeaSource{Ideas: pool}),
		NewResearchStep(StaticResearcher{}),
		NewScoringStep(HeuristicScorer{}, opts.GoThreshold),
		NewDefinitionStep(StaticPlanner{}),
		NewLandingStep(StaticPublisher{}),
		NewReviewStep(opts.RequireReview),
		NewDeploymentStep(StaticDeployer{}),
		NewAnalyticsStep(StaticAnalyticsConfigurer{}),
		NewDistributionStep(StaticDistributor{}),
	)
}
