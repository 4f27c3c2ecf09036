package loadcheck

// Submission results.
const (
	resultMatched    = "matched"
	resultSuperseded = "superseded"
	resultFailed     = "failed"
	resultMismatched = "mismatched"
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
	PercentageMultiplier    = 100
)

// estimateTolerance absorbs float rounding between client and service sums.
const estimateTolerance = 1e-6
