package service

// Cache keys for read-mostly listings. Frequency and combined totals are always
// computed from the database and never cached.
const (
	cacheKeyPublicDatasets = "datamatch:public:datasets"
	cacheKeyAdminOverview  = "datamatch:admin:overview"
	cachePatternListings   = "datamatch:*"
)
