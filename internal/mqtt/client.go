package mqtt

// MQTTClient is the part of the client other integrations publish through.
type MQTTClient interface {
	GetPrefix() string
	Topics() *Topics
	Publish(topic string, payload interface{}, retain bool)
}
