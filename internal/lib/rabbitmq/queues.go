package rabbitmq

// Ключи маршрутизации доменных событий.
const (
	RoutingUserRegistered = "user.registered"
	RoutingYieldPredicted = "yield.predicted"
)

// QueueConfig описывает очередь и ключ, которым она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetAuditQueues возвращает очереди, в которые складываются все события сервиса.
func GetAuditQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "cropyield.audit.users", RoutingKey: RoutingUserRegistered},
		{QueueName: "cropyield.audit.predictions", RoutingKey: RoutingYieldPredicted},
	}
}
