package injector

// ServiceQuery defines criteria for querying services.
type ServiceQuery struct {
	// Lifestyle filters by service lifestyle.
	// nil matches all lifestyles.
	Lifestyle *Lifestyle

	// Metadata filters by service metadata key-value pairs.
	// All specified metadata must match for a service to be included.
	Metadata map[string]string

	// Built filters by whether a singleton instance exists.
	// nil matches all services.
	Built *bool
}

// Query returns detailed information about services matching the query criteria.
//
// Example:
//
//	// Find all singletons tagged with layer=storage
//	singleton := injector.LifestyleSingleton
//	results := injector.Query(c, injector.ServiceQuery{
//	    Lifestyle: &singleton,
//	    Metadata:  map[string]string{"layer": "storage"},
//	})
func Query(c *Container, query ServiceQuery) []ServiceInfo {
	var results []ServiceInfo

	for _, id := range c.Services() {
		info := c.Inspect(id)
		if !info.Registered {
			continue
		}

		if query.Lifestyle != nil && info.Lifestyle != *query.Lifestyle {
			continue
		}

		if !matchMetadata(info.Metadata, query.Metadata) {
			continue
		}

		if query.Built != nil && info.Built != *query.Built {
			continue
		}

		results = append(results, info)
	}

	return results
}

// QueryIDs returns the ids of services matching the query criteria.
func QueryIDs(c *Container, query ServiceQuery) []ServiceID {
	results := Query(c, query)

	ids := make([]ServiceID, len(results))
	for i, info := range results {
		ids[i] = info.ID
	}

	return ids
}

// FindByLifestyle returns all services with a specific lifestyle.
func FindByLifestyle(c *Container, lifestyle Lifestyle) []ServiceInfo {
	return Query(c, ServiceQuery{Lifestyle: &lifestyle})
}

// FindBuilt returns all singletons that have been built.
func FindBuilt(c *Container) []ServiceInfo {
	built := true

	return Query(c, ServiceQuery{Built: &built})
}

func matchMetadata(have, want map[string]string) bool {
	for key, value := range want {
		if got, ok := have[key]; !ok || got != value {
			return false
		}
	}

	return true
}
