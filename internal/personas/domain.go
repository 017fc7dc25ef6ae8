package personas

import "strings"

// Product domains the synthesizer can classify a dataset into. The domain
// picks which persona templates apply when no language model is used.
const (
	DomainHospitality = "hospitality"
	DomainMobileApp   = "mobile_app"
	DomainEcommerce   = "ecommerce"
	DomainService     = "service"
	DomainGeneric     = "generic"
)

var domainMarkers = []struct {
	domain  string
	markers []string
}{
	{DomainHospitality, []string{
		"hotel", "airbnb", "host", "room", "location", "stay", "guest",
		"apartment", "parcheggio", "posizione", "soggiorno", "check",
	}},
	{DomainMobileApp, []string{
		"app", "mobile", "feature", "bug", "update", "interface", "login", "crash",
	}},
	{DomainEcommerce, []string{
		"product", "quality", "size", "fabric", "delivery", "shipping", "order", "refund",
	}},
	{DomainService, []string{
		"service", "support", "staff", "customer", "help",
	}},
}

// classifyDomain matches cluster keywords and a sample of review texts
// against per-domain marker words. First domain with a hit wins, so more
// specific domains are listed before generic service words.
func classifyDomain(keywords []string, sampleTexts []string) string {
	var b strings.Builder
	for _, k := range keywords {
		b.WriteString(strings.ToLower(k))
		b.WriteByte(' ')
	}
	for _, t := range sampleTexts {
		b.WriteString(strings.ToLower(t))
		b.WriteByte(' ')
	}
	combined := b.String()

	for _, d := range domainMarkers {
		for _, m := range d.markers {
			if strings.Contains(combined, m) {
				return d.domain
			}
		}
	}
	return DomainGeneric
}

// template is the deterministic seed data for one persona slot.
type template struct {
	Name      string
	Archetype string
	Goals     []string
	Pains     []string
	Channels  []string
}

var domainTemplates = map[string][]template{
	DomainHospitality: {
		{
			Name:      "Budget Traveler",
			Archetype: "Budget Seeker",
			Goals:     []string{"Find affordable stays", "Good location access", "Basic amenities"},
			Pains:     []string{"Unexpected fees", "Poor location", "Misleading photos"},
			Channels:  []string{"Price comparison sites", "Review platforms", "Social media"},
		},
		{
			Name:      "Experience Seeker",
			Archetype: "Explorer",
			Goals:     []string{"Authentic experiences", "Local recommendations", "Unique properties"},
			Pains:     []string{"Generic accommodations", "Poor host communication", "Limited local info"},
			Channels:  []string{"Instagram", "Travel blogs", "Word of mouth"},
		},
		{
			Name:      "Comfort Focused",
			Archetype: "Quality Seeker",
			Goals:     []string{"Clean comfortable space", "Reliable amenities", "Quiet environment"},
			Pains:     []string{"Noise issues", "Cleanliness problems", "Broken facilities"},
			Channels:  []string{"Direct booking", "Premium platforms", "Referrals"},
		},
		{
			Name:      "Trip Planner",
			Archetype: "Planner",
			Goals:     []string{"Predictable logistics", "Clear house rules", "Smooth check-in"},
			Pains:     []string{"Last-minute changes", "Unclear instructions", "Slow responses"},
			Channels:  []string{"Booking platforms", "Email updates", "Maps and guides"},
		},
	},
	DomainMobileApp: {
		{
			Name:      "Power User",
			Archetype: "Convenience First",
			Goals:     []string{"Advanced features", "Quick navigation", "Customization options"},
			Pains:     []string{"Missing features", "Slow performance", "Complex UI"},
			Channels:  []string{"App stores", "Tech forums", "Social media"},
		},
		{
			Name:      "Casual User",
			Archetype: "Convenience First",
			Goals:     []string{"Simple interface", "Reliable basic functions", "Easy learning"},
			Pains:     []string{"Too many options", "Confusing navigation", "Frequent crashes"},
			Channels:  []string{"App stores", "Friends", "Default options"},
		},
		{
			Name:      "Early Adopter",
			Archetype: "Explorer",
			Goals:     []string{"New features first", "Frequent updates", "Beta access"},
			Pains:     []string{"Stale releases", "Regressions after updates", "Ignored feedback"},
			Channels:  []string{"Release notes", "Tech news", "Community forums"},
		},
	},
	DomainEcommerce: {
		{
			Name:      "Quality Conscious",
			Archetype: "Quality Seeker",
			Goals:     []string{"High quality products", "Accurate descriptions", "Good materials"},
			Pains:     []string{"Poor quality", "Misleading descriptions", "Size issues"},
			Channels:  []string{"Review sites", "Brand websites", "Social proof"},
		},
		{
			Name:      "Deal Hunter",
			Archetype: "Value Maximizer",
			Goals:     []string{"Best prices", "Fast shipping", "Easy returns"},
			Pains:     []string{"High prices", "Slow delivery", "Complicated returns"},
			Channels:  []string{"Price comparison", "Deal alerts", "Social media"},
		},
		{
			Name:      "Repeat Shopper",
			Archetype: "Convenience First",
			Goals:     []string{"Consistent experience", "Quick reordering", "Reliable sizing"},
			Pains:     []string{"Stock changes", "Quality drift", "Account friction"},
			Channels:  []string{"Newsletters", "Brand apps", "Loyalty programs"},
		},
	},
	DomainService: {
		{
			Name:      "Outcome Focused",
			Archetype: "Quality Seeker",
			Goals:     []string{"Problems solved fast", "Competent staff", "Clear communication"},
			Pains:     []string{"Long wait times", "Repeated explanations", "Unresolved issues"},
			Channels:  []string{"Direct contact", "Review platforms", "Recommendations"},
		},
		{
			Name:      "Relationship Builder",
			Archetype: "Planner",
			Goals:     []string{"Consistent point of contact", "Proactive updates", "Fair treatment"},
			Pains:     []string{"Staff turnover", "Being passed around", "Generic answers"},
			Channels:  []string{"Phone and email", "Account managers", "Word of mouth"},
		},
	},
	DomainGeneric: {
		{
			Name:      "Satisfied User",
			Archetype: "Quality Seeker",
			Goals:     []string{"Reliable service", "Good value", "Positive experience"},
			Pains:     []string{"Service issues", "Poor communication", "Unmet expectations"},
			Channels:  []string{"Search engines", "Reviews", "Recommendations"},
		},
		{
			Name:      "Critical User",
			Archetype: "Quality Seeker",
			Goals:     []string{"High standards", "Attention to detail", "Consistent quality"},
			Pains:     []string{"Quality inconsistency", "Poor attention to detail", "Service gaps"},
			Channels:  []string{"Review platforms", "Direct feedback", "Community forums"},
		},
	},
}

var archetypes = []string{
	"Explorer", "Planner", "Family Traveler", "Business Traveler",
	"Budget Seeker", "Quality Seeker", "Convenience First", "Value Maximizer",
}

var icons = []string{"A", "B", "C", "D", "E", "F", "G", "H"}

var accents = []string{
	"#60a5fa", "#22c55e", "#f59e0b", "#f43f5e",
	"#a78bfa", "#14b8a6", "#eab308", "#fb7185",
}
