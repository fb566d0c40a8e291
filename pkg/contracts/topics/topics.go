package topics

const (
	// Liquidação
	BetSettleRequested = "bet_settle_requested"
	BetResolved        = "bet_resolved"

	// DLQs
	BetSettleRequestedDLQ = "bet_settle_requested_dlq"

	// Redis Pub/Sub
	ResolutionsBroadcast = "dice_resolutions_broadcast"
)
