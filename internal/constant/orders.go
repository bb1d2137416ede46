package constant

const (
	OrderUpdateStreamName        = "order_updates"
	OrderUpdateStreamSubjectAll  = "order_updates.*"
	OrderUpdateStreamSubjectData = "order_updates.data"

	OrderUpdateQueueName  = "order_update_queue"
	OrderUpdateQueueGroup = "order_update_group"
)
