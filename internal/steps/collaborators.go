package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"verdandi/internal/services"
)

// DiscoveryRequest steers one discovery attempt.
type DiscoveryRequest struct {
	Strategy      Strategy
	ExcludeTitles []string
	WorkerID      string
}

// IdeaSource produces candidate ideas. Implementations may call out to
// research and generation services; they must honor the exclusion list so
// the dedup loop can steer away from known duplicates.
type IdeaSource interface {
	Discover(ctx context.Context, req DiscoveryRequest) (*IdeaCandidate, error)
}

// Researcher compiles market research for a candidate idea. It returns
// services.ErrAllSourcesFailed when every research backend is down.
type Researcher interface {
	Research(ctx context.Context, idea IdeaCandidate) (*ResearchReport, error)
}

// Scorer rates an idea against its research, returning weighted components
// on a 0-100 scale. The scoring stage computes the total and the decision.
type Scorer interface {
	Score(ctx context.Context, idea IdeaCandidate, report ResearchReport, guidance string) ([]ScoreComponent, string, error)
}

// Planner turns a go-scored idea into an MVP definition.
type Planner interface {
	DefineMVP(ctx context.Context, idea IdeaCandidate, score PreBuildScore) (*MVPDefinition, error)
}

// Publisher renders and publishes a landing page for an MVP definition.
type Publisher interface {
	Publish(ctx context.Context, mvp MVPDefinition) (*LandingPage, error)
}

// Deployer pushes a published landing page to a hosting provider.
type Deployer interface {
	Deploy(ctx context.Context, mvp MVPDefinition, page LandingPage) (*Deployment, error)
}

// AnalyticsConfigurer wires visitor tracking into a live deployment.
type AnalyticsConfigurer interface {
	Configure(ctx context.Context, deployment Deployment) (*AnalyticsSetup, error)
}

// Distributor announces the live site on social channels and submits it for
// search indexing.
type Distributor interface {
	Distribute(ctx context.Context, idea IdeaCandidate, deployment Deployment) (*DistributionResult, error)
}

// StaticIdeaSource serves ideas from a fixed pool, in order, skipping
// excluded titles. It backs trial runs and tests; production wiring points
// IdeaSource at a real generation service.
type StaticIdeaSource struct {
	Ideas []IdeaCandidate
}

func (s *StaticIdeaSource) Discover(_ context.Context, req DiscoveryRequest) (*IdeaCandidate, error) {
	excluded := make(map[string]struct{}, len(req.ExcludeTitles))
	for _, title := range req.ExcludeTitles {
		excluded[title] = struct{}{}
	}
	for _, idea := range s.Ideas {
		if _, skip := excluded[idea.Title]; skip {
			continue
		}
		candidate := idea
		candidate.DiscoveryType = req.Strategy.Type
		candidate.WorkerID = req.WorkerID
		return &candidate, nil
	}
	return nil, services.Wrap(services.ErrNotFound, "steps", "discover",
		fmt.Sprintf("idea pool exhausted after %d exclusions", len(req.ExcludeTitles)), nil)
}

// StaticResearcher returns a canned report shaped like real research output.
type StaticResearcher struct{}

func (StaticResearcher) Research(_ context.Context, idea IdeaCandidate) (*ResearchReport, error) {
	return &ResearchReport{
		TAMEstimate:   "$2.5B addressable market",
		MarketGrowth:  "15% CAGR",
		DemandSignals: []string{"recurring community complaints", "rising search interest"},
		Competitors: []Competitor{
			{Name: "IncumbentTool", Pricing: "$49/month", Weaknesses: []string{"expensive", "complex setup"}},
		},
		CompetitorGaps:   []string{"no zero-config option in this segment"},
		WillingnessToPay: "existing paid tools at $29-199/month validate demand",
		KeyFindings:      []string{"clear pain point for " + idea.TargetAudience},
		Summary:          "Viable gap in the competitive landscape for " + idea.Title,
	}, nil
}

// HeuristicScorer derives score components from the idea's evidence and the
// research report, without an external model.
type HeuristicScorer struct{}

func (HeuristicScorer) Score(_ context.Context, idea IdeaCandidate, report ResearchReport, _ string) ([]ScoreComponent, string, error) {
	painScore := 50
	if n := len(idea.PainPoints); n > 0 {
		total := 0
		for _, pp := range idea.PainPoints {
			total += pp.Severity * 10
		}
		painScore = clampScore(total / n)
	}
	demandScore := clampScore(50 + 15*len(report.DemandSignals))
	gapScore := clampScore(50 + 20*len(report.CompetitorGaps))
	wtpScore := 50
	if report.WillingnessToPay != "" {
		wtpScore = 75
	}

	components := []ScoreComponent{
		{Name: "pain_severity", Score: painScore, Weight: 0.30, Reasoning: "derived from reported pain severity"},
		{Name: "demand_signals", Score: demandScore, Weight: 0.25, Reasoning: "count of independent demand signals"},
		{Name: "competitor_gaps", Score: gapScore, Weight: 0.25, Reasoning: "gaps left open by incumbents"},
		{Name: "willingness_to_pay", Score: wtpScore, Weight: 0.20, Reasoning: "evidence of paid alternatives"},
	}
	reasoning := "heuristic score over pain, demand, gaps and willingness to pay"
	return components, reasoning, nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// StaticPlanner builds an MVP definition from the idea itself.
type StaticPlanner struct{}

func (StaticPlanner) DefineMVP(_ context.Context, idea IdeaCandidate, _ PreBuildScore) (*MVPDefinition, error) {
	name := productName(idea.Title)
	slug := productSlug(name)
	return &MVPDefinition{
		ProductName:      name,
		Tagline:          idea.OneLiner,
		ValueProposition: idea.Differentiation,
		TargetPersona:    idea.TargetAudience,
		Features: []Feature{
			{Title: "Zero-Config Setup", Description: "Connect existing tools and start in under a minute", IconName: "zap"},
			{Title: "Instant Alerts", Description: "Know the moment something needs attention", IconName: "bell"},
		},
		PricingModel:      "Freemium with a single paid tier",
		CallToAction:      "Get Early Access",
		DomainSuggestions: []string{slug + ".com", "get" + slug + ".com", "try" + slug + ".dev"},
	}, nil
}

func productName(title string) string {
	if name, _, found := strings.Cut(title, "—"); found {
		return strings.TrimSpace(name)
	}
	return strings.TrimSpace(title)
}

// StaticPublisher reports a rendered page without deploying anywhere.
type StaticPublisher struct{}

func (StaticPublisher) Publish(_ context.Context, mvp MVPDefinition) (*LandingPage, error) {
	headline := mvp.ProductName
	if mvp.Tagline != "" {
		headline = mvp.ProductName + " — " + mvp.Tagline
	}
	return &LandingPage{
		ProductName: mvp.ProductName,
		Headline:    headline,
		Published:   true,
		HTMLSize:    len(headline) * 40,
	}, nil
}

// StaticDeployer reports a Pages-style deployment without touching a
// hosting API.
type StaticDeployer struct{}

func (StaticDeployer) Deploy(_ context.Context, mvp MVPDefinition, _ LandingPage) (*Deployment, error) {
	slug := productSlug(mvp.ProductName)
	return &Deployment{
		ProjectName:   slug,
		DeploymentURL: "https://" + slug + ".pages.dev",
		CustomDomain:  slug + ".com",
		SSLActive:     true,
		DeploymentID:  "deploy-" + uuid.New().String()[:8],
		LiveURL:       "https://" + slug + ".com",
	}, nil
}

// StaticAnalyticsConfigurer issues a fresh tracking site id without calling
// an analytics backend.
type StaticAnalyticsConfigurer struct{}

func (StaticAnalyticsConfigurer) Configure(_ context.Context, _ Deployment) (*AnalyticsSetup, error) {
	websiteID := uuid.New().String()
	return &AnalyticsSetup{
		WebsiteID:         websiteID,
		TrackingScriptURL: "https://analytics.example.com/script.js",
		DashboardURL:      "https://analytics.example.com/websites/" + websiteID,
		Injected:          true,
	}, nil
}

// StaticDistributor drafts launch posts for the usual channels, posting the
// low-friction ones and leaving the rest queued.
type StaticDistributor struct{}

func (StaticDistributor) Distribute(_ context.Context, idea IdeaCandidate, _ Deployment) (*DistributionResult, error) {
	summary := idea.OneLiner
	if summary == "" {
		summary = "a common problem"
	}
	return &DistributionResult{
		SocialPosts: []SocialPost{
			{
				Platform: "linkedin",
				Content:  fmt.Sprintf("Excited to launch %s! Solving a real pain point for %s. Check it out and let me know what you think.", idea.Title, idea.TargetAudience),
				URL:      "https://linkedin.com/posts/launch-001",
				Posted:   true,
			},
			{
				Platform: "twitter",
				Content:  fmt.Sprintf("Just shipped %s — built this to scratch my own itch. Would love your feedback!", idea.Title),
				URL:      "https://x.com/launch/status/001",
				Posted:   true,
			},
			{
				Platform: "reddit",
				Content:  fmt.Sprintf("Show r/SaaS: I built %s to solve %s", idea.Title, summary),
				Posted:   false,
			},
		},
		SEO: SEOSubmission{
			SearchConsoleSubmitted: true,
			SitemapURL:             "https://example.com/sitemap.xml",
		},
		TotalReachEstimate: 2500,
	}, nil
}

// productSlug turns a product name into a bare hostname label.
func productSlug(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", ""))
}
