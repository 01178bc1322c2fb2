package rabbitmq

import "context"

// PublisherInterface is what the order service needs from the broker: fire an
// event envelope at a routing key on the order exchange.
type PublisherInterface interface {
	Publish(ctx context.Context, routingKey string, data any) error
}

var _ PublisherInterface = (*Publisher)(nil)
