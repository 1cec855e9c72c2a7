package constants

// Recommendation is the three-way verdict from identity verification.
type Recommendation string

const (
	RecommendationVerified Recommendation = "verified"
	RecommendationReview   Recommendation = "review_required"
	RecommendationRejected Recommendation = "rejected"
)
