package health

// PointsTable maps each classification to its portfolio point value.
type PointsTable map[Classification]float64

// DefaultPoints is the standard scoring table.
var DefaultPoints = PointsTable{
	Growing:   100,
	Stable:    70,
	Shrinking: 40,
	Dormant:   0,
}

// PortfolioEntry is one customer's contribution to a portfolio score.
type PortfolioEntry struct {
	Classification        Classification
	TrailingTwelveRevenue float64
}

// Scores is the aggregate health of a set of customers. WeightedOK is false
// when total revenue is zero, in which case WeightedScore is meaningless and
// consumers should report insufficient revenue data.
type Scores struct {
	UnweightedScore float64
	WeightedScore   float64
	WeightedOK      bool
	TotalRevenue    float64
	CustomerCount   int
}

// PortfolioScores rolls per-customer classifications into unweighted and
// revenue-weighted scores. A nil points table uses DefaultPoints. The second
// return is false for an empty portfolio.
func PortfolioScores(entries []PortfolioEntry, points PointsTable) (Scores, bool) {
	if len(entries) == 0 {
		return Scores{}, false
	}
	if points == nil {
		points = DefaultPoints
	}

	var pointSum, weightedSum, revenueSum float64
	for _, entry := range entries {
		p := points[entry.Classification]
		pointSum += p
		weightedSum += p * entry.TrailingTwelveRevenue
		revenueSum += entry.TrailingTwelveRevenue
	}

	scores := Scores{
		UnweightedScore: pointSum / float64(len(entries)),
		TotalRevenue:    revenueSum,
		CustomerCount:   len(entries),
	}
	if revenueSum > 0 {
		scores.WeightedScore = weightedSum / revenueSum
		scores.WeightedOK = true
	}
	return scores, true
}
