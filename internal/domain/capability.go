package domain

// CapabilitySet is derived from the current tier at the point of use and is
// never persisted. Holding one across more than a single logical operation is
// a bug: a concurrent override can change the tier mid-session.
type CapabilitySet struct {
	MaxActiveJobs          int     `json:"max_active_jobs"`
	CanBulkShortlist       bool    `json:"can_bulk_shortlist"`
	CanBulkReject          bool    `json:"can_bulk_reject"`
	VisibilityWeight       float64 `json:"visibility_weight"`
	ExternalContactVisible bool    `json:"external_contact_visible"`
	CanFeatureJobs         bool    `json:"can_feature_jobs"`
	AnalyticsEnabled       bool    `json:"analytics_enabled"`
	EarlyAccessFeatures    bool    `json:"early_access_features"`
	StudioBranding         bool    `json:"studio_branding"`
}

// capabilityTable maps each tier to its capability row. Built once, never
// mutated after init.
var capabilityTable = map[Tier]CapabilitySet{
	TierNew: {
		MaxActiveJobs:    2,
		VisibilityWeight: 1.0,
	},
	TierTrusted: {
		MaxActiveJobs:    10,
		CanBulkShortlist: true,
		CanBulkReject:    true,
		VisibilityWeight: 1.25,
		AnalyticsEnabled: true,
	},
	TierVerified: {
		MaxActiveJobs:          25,
		CanBulkShortlist:       true,
		CanBulkReject:          true,
		VisibilityWeight:       1.5,
		ExternalContactVisible: true,
		CanFeatureJobs:         true,
		AnalyticsEnabled:       true,
		EarlyAccessFeatures:    true,
		StudioBranding:         true,
	},
	TierBasic: {
		VisibilityWeight: 1.0,
	},
	TierComplete: {
		VisibilityWeight: 1.25,
		AnalyticsEnabled: true,
	},
	TierFeatured: {
		VisibilityWeight:       2.0,
		ExternalContactVisible: true,
		AnalyticsEnabled:       true,
		EarlyAccessFeatures:    true,
	},
}

// ResolveCapabilities returns the capability row for a tier. Every tier has a
// defined row; unknown tiers fall back to the most restrictive one.
func ResolveCapabilities(tier Tier) CapabilitySet {
	if caps, ok := capabilityTable[tier]; ok {
		return caps
	}
	return capabilityTable[TierNew]
}
