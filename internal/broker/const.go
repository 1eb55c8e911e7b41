package broker

const (
	SubmissionEventsExchangeName = "submission.events"
	SubmissionEventsExchangeType = "direct"

	// API sends to and the worker reads from:
	SubmissionValidatedQueue      = "submission.validated"
	SubmissionValidatedRoutingKey = "submission.validated"

	// Nacked submissions wait here before going back to the worker:
	SubmissionRetryQueue      = "submission.validated.retry"
	SubmissionRetryRoutingKey = "submission.validated.retry"

	RetryTTLMilliseconds = 10000
)
