package endpoints

import (
	"regexp"

	"bitsight-connector/core/database"
	"bitsight-connector/core/reconcile"
)

// fetchMode selects how an endpoint's records are retrieved.
type fetchMode int

const (
	// paged collections use limit/offset pagination over links.next.
	paged fetchMode = iota
	// single endpoints return everything in one response, either as a
	// results array or as a bare array.
	single
	// report endpoints return CSV.
	report
	// object endpoints return one JSON object, stored as one record.
	object
	// keyed endpoints return an object of objects. Each entry becomes a
	// record with its key stored under entryKey.
	keyed
)

// column maps a table column to a dotted path in the record.
type column struct {
	name string
	path string
}

// endpoint is one row of the catalogue.
type endpoint struct {
	name        string
	description string
	path        string
	mode        fetchMode
	entryKey    string
	table       string
	keyColumn   string
	keys        reconcile.KeyStrategy
	columns     []column
	// reconciled endpoints cover their whole table in one fetch, so rows
	// missing from a complete fetch are deactivated.
	reconciled bool
	params     map[string]string
	// kinds types individual columns; the rest are text.
	kinds map[string]database.ColumnKind
}

var placeholder = regexp.MustCompile(`\{([a-z_]+)\}`)

// requires returns the path placeholders of ep. Each one must be supplied
// as a job param, is substituted into the path and is injected into every
// record under its own name.
func (ep endpoint) requires() []string {
	var out []string
	for _, m := range placeholder.FindAllStringSubmatch(ep.path, -1) {
		out = append(out, m[1])
	}
	return out
}

func cols(pairs ...string) []column {
	out := make([]column, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, column{name: pairs[i], path: pairs[i+1]})
	}
	return out
}

var (
	ratingKinds = map[string]database.ColumnKind{"rating": database.KindInt}
	sizeKinds   = map[string]database.ColumnKind{"rating": database.KindInt, "network_size_v4": database.KindInt}
)

// catalogue lists every supported endpoint.
var catalogue = []endpoint{
	{
		name:        "companies",
		description: "Companies in the portfolio with their current rating",
		path:        "/ratings/v1/companies",
		mode:        paged,
		table:       "bitsight_companies",
		keyColumn:   "company_guid",
		keys:        reconcile.KeyStrategy{Primary: "guid"},
		columns: cols(
			"name", "name",
			"domain", "domain",
			"industry", "industry.name",
			"sub_industry", "sub_industry.name",
			"country", "country",
			"added_date", "added_date",
			"rating", "rating",
		),
		kinds:      ratingKinds,
		reconciled: true,
	},
	{
		name:        "portfolio",
		description: "Portfolio entries with subscription and life cycle details",
		path:        "/ratings/v2/portfolio",
		mode:        paged,
		table:       "bitsight_portfolio",
		keyColumn:   "guid",
		keys:        reconcile.KeyStrategy{Primary: "guid"},
		columns: cols(
			"custom_id", "custom_id",
			"name", "name",
			"shortname", "shortname",
			"network_size_v4", "network_size_v4",
			"rating", "rating",
			"rating_date", "rating_date",
			"added_date", "added_date",
			"industry_name", "industry.name",
			"industry_slug", "industry.slug",
			"sub_industry_name", "sub_industry.name",
			"sub_industry_slug", "sub_industry.slug",
			"subscription_type_name", "subscription_type.name",
			"subscription_type_slug", "subscription_type.slug",
			"life_cycle_name", "life_cycle.name",
			"life_cycle_slug", "life_cycle.slug",
			"relationship_name", "relationship.name",
			"portfolio_type", "type",
		),
		kinds:      sizeKinds,
		reconciled: true,
	},
	{
		name:        "current-ratings",
		description: "Current rating of every rated company",
		path:        "/ratings/v1/current-ratings",
		mode:        paged,
		table:       "bitsight_current_ratings",
		keyColumn:   "company_guid",
		keys:        reconcile.KeyStrategy{Primary: "company.guid"},
		columns: cols(
			"company_name", "company.name",
			"rating", "rating",
			"rating_date", "rating_date",
			"rating_level", "rating_level",
			"industry_name", "industry.name",
			"industry_slug", "industry.slug",
			"sub_industry_name", "sub_industry.name",
			"sub_industry_slug", "sub_industry.slug",
			"network_size_v4", "network_size_v4",
		),
		kinds:      sizeKinds,
		reconciled: true,
	},
	{
		name:        "current-ratings-v2",
		description: "Current rating of every rated company, v2 API",
		path:        "/ratings/v2/current-ratings",
		mode:        paged,
		table:       "bitsight_current_ratings_v2",
		keyColumn:   "company_guid",
		keys:        reconcile.KeyStrategy{Primary: "company.guid"},
		columns: cols(
			"company_name", "company.name",
			"rating", "rating",
			"rating_date", "rating_date",
		),
		kinds:      ratingKinds,
		reconciled: true,
	},
	{
		name:        "alerts",
		description: "Portfolio alerts",
		path:        "/ratings/v1/alerts",
		mode:        paged,
		table:       "bitsight_alerts",
		keyColumn:   "alert_guid",
		keys:        reconcile.KeyStrategy{Primary: "guid"},
		columns: cols(
			"alert_type", "alert_type",
			"alert_date", "alert_date",
			"company_guid", "company_guid",
			"company_name", "company_name",
			"severity", "severity",
			"alert_trigger", "trigger",
		),
	},
	{
		name:        "threats",
		description: "Threat intelligence with exposure counts",
		path:        "/ratings/v2/threats",
		mode:        paged,
		table:       "bitsight_threat_intel",
		keyColumn:   "threat_guid",
		keys:        reconcile.KeyStrategy{Primary: "guid"},
		columns: cols(
			"name", "name",
			"category_name", "category.name",
			"severity_level", "severity.level",
			"first_seen_date", "first_seen_date",
			"last_seen_date", "last_seen_date",
			"exposed_count", "exposed_count",
			"mitigated_count", "mitigated_count",
			"epss_score", "epss.score",
			"epss_percentile", "epss.percentile",
			"evidence_certainty", "evidence_certainty",
		),
		kinds: map[string]database.ColumnKind{
			"exposed_count":   database.KindInt,
			"mitigated_count": database.KindInt,
			"epss_score":      database.KindNum,
			"epss_percentile": database.KindNum,
		},
		reconciled: true,
	},
	{
		name:        "threat-statistics",
		description: "Threat summary snapshot; each distinct summary is its own row",
		path:        "/ratings/v2/threats/summaries",
		mode:        object,
		table:       "bitsight_threat_statistics",
		keyColumn:   "summary_hash",
		keys:        reconcile.KeyStrategy{AllowContentHash: true},
		reconciled:  true,
	},
	{
		name:        "threats-impact",
		description: "Companies affected by one threat",
		path:        "/ratings/v2/threats/{threat_guid}/companies",
		mode:        paged,
		table:       "bitsight_threat_impact",
		keyColumn:   "impact_key",
		keys:        reconcile.KeyStrategy{Composite: []string{"threat_guid", "company.guid"}},
		columns: cols(
			"threat_guid", "threat_guid",
			"company_guid", "company.guid",
			"company_name", "company.name",
			"exposure_status", "status",
			"first_seen_date", "first_seen_date",
			"last_seen_date", "last_seen_date",
		),
	},
	{
		name:        "threats-evidence",
		description: "Evidence of one threat against one company",
		path:        "/ratings/v2/threats/{threat_guid}/companies/{entity_guid}/evidence",
		mode:        object,
		table:       "bitsight_threat_evidence",
		keyColumn:   "evidence_key",
		keys:        reconcile.KeyStrategy{Composite: []string{"threat_guid", "entity_guid"}},
		columns: cols(
			"threat_guid", "threat_guid",
			"entity_guid", "entity_guid",
		),
	},
	{
		name:        "users",
		description: "Users of the BitSight account",
		path:        "/ratings/v2/users",
		mode:        paged,
		table:       "bitsight_users",
		keyColumn:   "user_guid",
		keys:        reconcile.KeyStrategy{Primary: "guid"},
		columns: cols(
			"friendly_name", "friendly_name",
			"formal_name", "formal_name",
			"email", "email",
			"status", "status",
			"landing_page", "landing_page",
			"mfa_status", "mfa_status",
			"last_login_time", "last_login_time",
			"joined_time", "joined_time",
		),
		reconciled: true,
	},
	{
		name:        "user-details",
		description: "Full record of one user",
		path:        "/ratings/v2/users/{user_guid}",
		mode:        object,
		table:       "bitsight_user_details",
		keyColumn:   "user_guid",
		keys:        reconcile.KeyStrategy{Primary: "guid", Composite: []string{"user_guid"}},
		columns: cols(
			"friendly_name", "friendly_name",
			"formal_name", "formal_name",
			"email", "email",
			"group_guid", "group.guid",
			"group_name", "group.name",
			"landing_page", "landing_page",
			"status", "status",
			"last_login_time", "last_login_time",
			"joined_time", "joined_time",
			"mfa_status", "mfa_status",
			"is_available_for_contact", "is_available_for_contact",
			"is_company_api_token", "is_company_api_token",
			"roles", "roles",
			"features", "features",
		),
		kinds: map[string]database.ColumnKind{
			"is_available_for_contact": database.KindFlag,
			"is_company_api_token":     database.KindFlag,
		},
	},
	{
		name:        "user-quota",
		description: "License quota per quota type",
		path:        "/ratings/v1/users/quota",
		mode:        keyed,
		entryKey:    "quota_type",
		table:       "bitsight_user_quota",
		keyColumn:   "quota_type",
		keys:        reconcile.KeyStrategy{Primary: "quota_type"},
		columns: cols(
			"total", "total",
			"used", "used",
			"remaining", "remaining",
		),
		kinds: map[string]database.ColumnKind{
			"total":     database.KindInt,
			"used":      database.KindInt,
			"remaining": database.KindInt,
		},
		reconciled: true,
	},
	{
		name:        "tiers",
		description: "Portfolio tiers",
		path:        "/ratings/v1/tiers",
		mode:        single,
		table:       "bitsight_tiers",
		keyColumn:   "tier_slug",
		keys:        reconcile.KeyStrategy{Primary: "slug", Composite: []string{"name"}},
		columns: cols(
			"name", "name",
			"description", "description",
		),
		reconciled: true,
	},
	{
		name:        "subscriptions",
		description: "Company subscriptions",
		path:        "/ratings/v1/subscriptions",
		mode:        paged,
		table:       "bitsight_subscriptions",
		keyColumn:   "subscription_guid",
		keys:        reconcile.KeyStrategy{Primary: "guid", Composite: []string{"company.guid", "subscription_type.slug"}},
		columns: cols(
			"company_guid", "company.guid",
			"subscription_type_name", "subscription_type.name",
			"subscription_type_slug", "subscription_type.slug",
			"life_cycle_name", "life_cycle.name",
			"life_cycle_slug", "life_cycle.slug",
			"start_date", "start_date",
			"end_date", "end_date",
		),
		reconciled: true,
	},
	{
		name:        "company-details",
		description: "Full profile of one company",
		path:        "/ratings/v1/companies/{company_guid}",
		mode:        object,
		table:       "bitsight_company_details",
		keyColumn:   "company_guid",
		keys:        reconcile.KeyStrategy{Primary: "guid", Composite: []string{"company_guid"}},
		columns: cols(
			"custom_id", "custom_id",
			"name", "name",
			"shortname", "shortname",
			"description", "description",
			"primary_domain", "primary_domain",
			"homepage", "homepage",
			"industry", "industry",
			"industry_slug", "industry_slug",
			"sub_industry", "sub_industry",
			"sub_industry_slug", "sub_industry_slug",
			"people_count", "people_count",
			"search_count", "search_count",
			"customer_monitoring_count", "customer_monitoring_count",
			"company_type", "type",
			"confidence", "confidence",
			"subscription_type", "subscription_type",
			"subscription_end_date", "subscription_end_date",
			"has_company_tree", "has_company_tree",
			"is_bundle", "is_bundle",
			"is_primary", "is_primary",
			"in_spm_portfolio", "in_spm_portfolio",
			"rating_industry_median", "rating_industry_median",
			"primary_company_guid", "primary_company.guid",
			"primary_company_name", "primary_company.name",
			"ratings", "ratings",
			"rating_details", "rating_details",
			"permissions", "permissions",
		),
		kinds: map[string]database.ColumnKind{
			"people_count":              database.KindInt,
			"search_count":              database.KindInt,
			"customer_monitoring_count": database.KindInt,
			"has_company_tree":          database.KindFlag,
			"is_bundle":                 database.KindFlag,
			"is_primary":                database.KindFlag,
			"in_spm_portfolio":          database.KindFlag,
		},
	},
	{
		name:        "findings",
		description: "Findings of one company",
		path:        "/ratings/v1/companies/{company_guid}/findings",
		mode:        paged,
		table:       "bitsight_findings",
		keyColumn:   "finding_key",
		keys: reconcile.KeyStrategy{
			Composite:        []string{"company_guid", "temporary_id"},
			AllowContentHash: true,
		},
		columns: cols(
			"company_guid", "company_guid",
			"finding_guid", "guid",
			"title", "title",
			"category", "category",
			"risk_vector", "risk_vector",
			"severity", "severity",
			"grade", "grade",
			"status", "status",
			"first_seen", "first_seen",
			"last_seen", "last_seen",
			"remediation_status", "remediation_status",
			"observations", "observations",
		),
	},
	{
		name:        "observations",
		description: "Observations of one company",
		path:        "/ratings/v1/companies/{company_guid}/observations",
		mode:        paged,
		table:       "bitsight_observations",
		keyColumn:   "observation_key",
		keys: reconcile.KeyStrategy{
			Composite:        []string{"company_guid", "guid"},
			AllowContentHash: true,
		},
		columns: cols(
			"company_guid", "company_guid",
			"observation_guid", "guid",
			"finding_guid", "finding_guid",
			"observed_date", "observed_date",
			"observation_type", "type",
		),
	},
	{
		name:        "company-infrastructure",
		description: "Infrastructure attributed to one company",
		path:        "/ratings/v1/companies/{company_guid}/infrastructure",
		mode:        paged,
		table:       "bitsight_company_infrastructure",
		keyColumn:   "infrastructure_key",
		keys: reconcile.KeyStrategy{
			Composite:        []string{"company_guid", "temporary_id"},
			AllowContentHash: true,
		},
		columns: cols(
			"company_guid", "company_guid",
			"temporary_id", "temporary_id",
			"value", "value",
			"asset_type", "type",
			"source", "source",
			"country", "country",
			"start_date", "start_date",
			"end_date", "end_date",
			"attributed_guid", "attributed_to.guid",
			"attributed_name", "attributed_to.name",
			"ip_count", "ip_count",
			"is_suppressed", "is_suppressed",
			"asn", "asn",
			"tags", "tags",
		),
		kinds: map[string]database.ColumnKind{
			"ip_count":      database.KindInt,
			"is_suppressed": database.KindFlag,
		},
	},
	{
		name:        "company-assets",
		description: "Assets of one company",
		path:        "/ratings/v1/companies/{company_guid}/assets",
		mode:        paged,
		table:       "bitsight_assets",
		keyColumn:   "asset_key",
		keys: reconcile.KeyStrategy{
			Composite:        []string{"company_guid", "asset"},
			AllowContentHash: true,
		},
		columns: cols(
			"company_guid", "company_guid",
			"asset", "asset",
			"asset_type", "asset_type",
			"importance", "importance",
			"ip_addresses", "ip_addresses",
			"tags", "tags",
		),
	},
	{
		name:        "ratings-history",
		description: "Daily rating history of one company",
		path:        "/ratings/v1/companies/{company_guid}/reports/ratings-history",
		mode:        report,
		table:       "bitsight_ratings_history",
		keyColumn:   "history_key",
		keys: reconcile.KeyStrategy{
			Composite:        []string{"company_guid", "date"},
			AllowContentHash: true,
		},
		columns: cols(
			"company_guid", "company_guid",
			"rating_date", "date",
			"rating", "rating",
		),
		kinds:  ratingKinds,
		params: map[string]string{"format": "csv"},
	},
}
