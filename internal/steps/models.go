package steps

// Stage names and numbers. Names are checkpoint keys; renaming one orphans
// existing stage results.
const (
	StageIdeaDiscovery  = "idea_discovery"
	StageDeepResearch   = "deep_research"
	StageScoring        = "scoring"
	StageMVPDefinition  = "mvp_definition"
	StageLandingPage    = "landing_page"
	StageHumanReview    = "human_review"
	StageDeployment     = "deployment"
	StageAnalyticsSetup = "analytics_setup"
	StageDistribution   = "distribution"
)

const (
	NumberIdeaDiscovery  = 0
	NumberDeepResearch   = 1
	NumberScoring        = 2
	NumberMVPDefinition  = 3
	NumberLandingPage    = 4
	NumberHumanReview    = 5
	NumberDeployment     = 6
	NumberAnalyticsSetup = 7
	NumberDistribution   = 8
)

// PainPoint is one observed complaint backing an idea.
type PainPoint struct {
	Description string `json:"description"`
	Severity    int    `json:"severity"`
	Frequency   string `json:"frequency"`
	Source      string `json:"source"`
	Quote       string `json:"quote,omitempty"`
}

// IdeaCandidate is the discovery stage's output: one product idea worth
// validating.
type IdeaCandidate struct {
	Title             string        `json:"title"`
	OneLiner          string        `json:"one_liner"`
	ProblemStatement  string        `json:"problem_statement"`
	TargetAudience    string        `json:"target_audience"`
	Category          string        `json:"category"`
	PainPoints        []PainPoint   `json:"pain_points,omitempty"`
	ExistingSolutions []string      `json:"existing_solutions,omitempty"`
	Differentiation   string        `json:"differentiation,omitempty"`
	DiscoveryType     DiscoveryType `json:"discovery_type"`
	NoveltyScore      float64       `json:"novelty_score"`
	WorkerID          string        `json:"worker_id,omitempty"`
}

// Competitor describes one existing player found during research.
type Competitor struct {
	Name        string   `json:"name"`
	URL         string   `json:"url,omitempty"`
	Description string   `json:"description,omitempty"`
	Pricing     string   `json:"pricing,omitempty"`
	Strengths   []string `json:"strengths,omitempty"`
	Weaknesses  []string `json:"weaknesses,omitempty"`
}

// SearchResult is one raw source consulted during research.
type SearchResult struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Snippet        string  `json:"snippet,omitempty"`
	Source         string  `json:"source,omitempty"`
	RelevanceScore float64 `json:"relevance_score,omitempty"`
}

// ResearchReport is the deep-research stage's output.
type ResearchReport struct {
	TAMEstimate      string         `json:"tam_estimate,omitempty"`
	MarketGrowth     string         `json:"market_growth,omitempty"`
	DemandSignals    []string       `json:"demand_signals,omitempty"`
	Competitors      []Competitor   `json:"competitors,omitempty"`
	CompetitorGaps   []string       `json:"competitor_gaps,omitempty"`
	WillingnessToPay string         `json:"willingness_to_pay,omitempty"`
	CommonComplaints []string       `json:"common_complaints,omitempty"`
	SearchResults    []SearchResult `json:"search_results,omitempty"`
	KeyFindings      []string       `json:"key_findings,omitempty"`
	Summary          string         `json:"research_summary,omitempty"`
}

// Decision is the scoring stage's verdict.
type Decision string

const (
	DecisionGo   Decision = "go"
	DecisionNoGo Decision = "no_go"
)

// ScoreComponent is one weighted dimension of the pre-build score.
type ScoreComponent struct {
	Name      string  `json:"name"`
	Score     int     `json:"score"`
	Weight    float64 `json:"weight"`
	Reasoning string  `json:"reasoning,omitempty"`
}

// PreBuildScore is the scoring stage's output. Total is the weighted sum of
// components on a 0-100 scale; Decision compares it to Threshold.
type PreBuildScore struct {
	Components []ScoreComponent `json:"components"`
	Total      int              `json:"total"`
	Threshold  int              `json:"threshold"`
	Decision   Decision         `json:"decision"`
	Reasoning  string           `json:"reasoning,omitempty"`
	Risks      []string         `json:"risks,omitempty"`
}

// Feature is one headline capability of the proposed MVP.
type Feature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	IconName    string `json:"icon_name,omitempty"`
}

// MVPDefinition is the definition stage's output: what to build and how to
// pitch it.
type MVPDefinition struct {
	ProductName       string    `json:"product_name"`
	Tagline           string    `json:"tagline,omitempty"`
	ValueProposition  string    `json:"value_proposition,omitempty"`
	TargetPersona     string    `json:"target_persona,omitempty"`
	Features          []Feature `json:"features,omitempty"`
	PricingModel      string    `json:"pricing_model,omitempty"`
	CallToAction      string    `json:"call_to_action,omitempty"`
	DomainSuggestions []string  `json:"domain_suggestions,omitempty"`
}

// LandingPage is the publishing stage's output.
type LandingPage struct {
	ProductName string `json:"product_name"`
	Headline    string `json:"headline,omitempty"`
	URL         string `json:"url,omitempty"`
	Published   bool   `json:"published"`
	HTMLSize    int    `json:"html_size,omitempty"`
}

// ReviewResult is the human-review stage's output. Approved false with
// Skipped false pauses the pipeline for review.
type ReviewResult struct {
	Approved bool   `json:"approved"`
	Skipped  bool   `json:"skipped"`
	Reason   string `json:"reason,omitempty"`
}

// Deployment is the deployment stage's output: where the published page
// went live.
type Deployment struct {
	ProjectName   string `json:"project_name"`
	DeploymentURL string `json:"deployment_url"`
	CustomDomain  string `json:"custom_domain,omitempty"`
	SSLActive     bool   `json:"ssl_active"`
	DeploymentID  string `json:"deployment_id,omitempty"`
	LiveURL       string `json:"live_url"`
}

// AnalyticsSetup is the analytics stage's output: tracking wired into the
// live site.
type AnalyticsSetup struct {
	WebsiteID         string `json:"website_id"`
	TrackingScriptURL string `json:"tracking_script_url,omitempty"`
	DashboardURL      string `json:"dashboard_url,omitempty"`
	Injected          bool   `json:"injected"`
}

// SocialPost is one distribution announcement, posted or queued.
type SocialPost struct {
	Platform string `json:"platform"`
	Content  string `json:"content"`
	URL      string `json:"url,omitempty"`
	Posted   bool   `json:"posted"`
}

// SEOSubmission records search-engine submission state for the live site.
type SEOSubmission struct {
	SearchConsoleSubmitted bool   `json:"google_search_console_submitted"`
	SitemapURL             string `json:"sitemap_url,omitempty"`
}

// DistributionResult is the distribution stage's output.
type DistributionResult struct {
	SocialPosts        []SocialPost  `json:"social_posts,omitempty"`
	SEO                SEOSubmission `json:"seo"`
	TotalReachEstimate int           `json:"total_reach_estimate,omitempty"`
}
