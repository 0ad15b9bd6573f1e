package message

// Option is one selectable answer of a coded field.
type Option struct {
	ID    string
	Label string
}

// Table maps option ids to display labels, preserving display order.
type Table struct {
	options []Option
	index   map[string]string
}

func newTable(options ...Option) *Table {
	t := &Table{options: options, index: make(map[string]string, len(options))}
	for _, o := range options {
		t.index[o.ID] = o.Label
	}
	return t
}

// Lookup returns the label for id and whether the id is known.
func (t *Table) Lookup(id string) (string, bool) {
	label, ok := t.index[id]
	return label, ok
}

// Label returns the label for id. Unknown ids fall back to the id itself.
func (t *Table) Label(id string) string {
	if label, ok := t.index[id]; ok {
		return label
	}
	return id
}

func (t *Table) Contains(id string) bool {
	_, ok := t.index[id]
	return ok
}

// Options returns the options in display order.
func (t *Table) Options() []Option {
	return append([]Option(nil), t.options...)
}

var ReferralSources = newTable(
	Option{"google", "Google Search"},
	Option{"ai", "AI (ChatGPT, Gemini) Search"},
	Option{"social", "Facebook / Social Media"},
	Option{"youtube", "YouTube / Video"},
	Option{"friend", "Friend or Customer Referral"},
	Option{"news", "News / Media"},
	Option{"advertisement", "Advertisement"},
	Option{"other", "Others"},
)

var BusinessTypes = newTable(
	Option{"ecommerce", "E-commerce"},
	Option{"saas", "SaaS"},
	Option{"local", "Local Business"},
	Option{"healthcare", "Healthcare"},
	Option{"education", "Education"},
	Option{"real-estate", "Real Estate"},
	Option{"finance", "Finance"},
	Option{"other", "Other"},
)

var SEOExperience = newTable(
	Option{"yes", "Yes"},
	Option{"no", "No"},
	Option{"not-sure", "Not Sure"},
)

var Goals = newTable(
	Option{"foot-traffic", "Increase local foot traffic/calls"},
	Option{"online-sales", "Boost online sales/revenue"},
	Option{"brand-awareness", "Improve brand awareness"},
	Option{"outrank-competitors", "Outrank specific competitors"},
	Option{"recover-rankings", "Recover lost rankings"},
	Option{"other-goal", "Other"},
)

var ServiceTeams = newTable(
	Option{"local-seo", "Local SEO"},
	Option{"ecommerce-seo", "E-Commerce SEO"},
	Option{"brand-seo", "Brand SEO & PR"},
	Option{"digital-marketing", "Digital Marketing Consultancy"},
	Option{"rank-recovery", "Rank Drop/Penalty Recovery"},
	Option{"seo-workshop", "SEO Workshop"},
	Option{"other-service", "Other"},
)

// Contact form tables.

var ContactServices = newTable(
	Option{"ai-first-seo", "AI-First SEO"},
	Option{"local-seo", "Local SEO (Google Maps Ranking)"},
	Option{"cms-seo", "WordPress / Shopify / Wix / Webflow SEO"},
	Option{"digital-pr", "Digital PR & Brand Building"},
	Option{"ecommerce-seo", "E-commerce SEO"},
	Option{"seo-training", "SEO Training / Consultation"},
	Option{"website-design", "Website Design + SEO"},
	Option{"not-sure", "Not Sure / Need Recommendation"},
)

var ContactGoals = newTable(
	Option{"rank-higher", "Rank higher on Google"},
	Option{"local-customers", "Get more local customers (Google Maps)"},
	Option{"organic-traffic", "Increase organic traffic"},
	Option{"brand-authority", "Build brand authority"},
	Option{"conversion-rates", "Improve conversion rates"},
	Option{"seo-friendly-website", "Build a SEO Friendly Website"},
	Option{"technical-seo", "Fix technical SEO issues"},
	Option{"other", "Other"},
)

var BudgetRanges = newTable(
	Option{"200", "$200 (20,000 BDT)"},
	Option{"300-500", "$300 - $500 (30k-50k BDT)"},
	Option{"500-1000", "$500 - $1,000 (60k-1L BDT)"},
	Option{"1000-2000", "$1,000 - $2,000 (1L-2L BDT)"},
	Option{"not-sure", "Not sure yet"},
)

var HowHeard = newTable(
	Option{"google-search", "Google Search"},
	Option{"ai-(chatgpt-gemini)", "AI (ChatGPT, Gemini) Search"},
	Option{"social-media(facebook)", "Facebook / Social Media"},
	Option{"youtube-video", "YouTube / Video"},
	Option{"friend-customer-referral", "Friend or Customer Referral"},
	Option{"news-media", "News / Media"},
	Option{"advertisement", "Advertisement"},
	Option{"other", "Others"},
)
