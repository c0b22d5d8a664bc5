package topics

const (
	// Props
	PropUpdates = "prop_updates"
	StatResults = "stat_results"

	// Bets
	BetPlaced  = "bet_placed"
	BetSettled = "bet_settled"

	// DLQs
	StatResultsDLQ = "stat_results_dlq"
)
