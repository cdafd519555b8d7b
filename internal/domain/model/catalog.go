package model

// DefaultCatalog returns the library items shipped with a fresh install.
func DefaultCatalog() []ContentItem {
	return []ContentItem{
		{ID: "001", Title: "Economic Trends 2025 Report", Type: ContentTypeBook, PricingTraining: "$5,000", PricingReference: "$2,500", Sharing: true},
		{ID: "002", Title: "Advanced Machine Learning Techniques", Type: ContentTypeVideo, PricingTraining: "$8,000", PricingReference: "$4,000", Sharing: false},
		{ID: "003", Title: "Financial Markets Podcast Series", Type: ContentTypeAudio, PricingTraining: "$3,500", PricingReference: "$1,800", Sharing: true},
		{ID: "004", Title: "Healthcare Innovation Dataset", Type: ContentTypeDataset, PricingTraining: "$10,000", PricingReference: "$5,500", Sharing: true},
		{ID: "005", Title: "Renewable Energy White Papers", Type: ContentTypeBook, PricingTraining: "$7,200", PricingReference: "$3,600", Sharing: false},
		{ID: "006", Title: "Consumer Behavior Analysis", Type: ContentTypeVideo, PricingTraining: "$6,500", PricingReference: "$3,250", Sharing: true},
		{ID: "007", Title: "Historical Market Data 1990-2020", Type: ContentTypeDataset, PricingTraining: "$12,000", PricingReference: "$6,000", Sharing: true},
		{ID: "008", Title: "Executive Interview Series", Type: ContentTypeAudio, PricingTraining: "$4,800", PricingReference: "$2,400", Sharing: false},
		{ID: "009", Title: "Technology Adoption Survey", Type: ContentTypeBook, PricingTraining: "$9,200", PricingReference: "$4,600", Sharing: true},
		{ID: "010", Title: "Sustainable Business Practices", Type: ContentTypeVideo, PricingTraining: "$7,800", PricingReference: "$3,900", Sharing: false},
	}
}
