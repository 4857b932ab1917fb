package services

// Publisher is the notification fanout boundary. Publishing happens strictly
// after a unit of work commits and is fire-and-forget: implementations must
// not return errors into the mutating path.
type Publisher interface {
	Publish(topic, event string, data interface{})
}

// publish tolerates a nil publisher so services can run without a hub wired,
// e.g. in tests that only exercise persistence.
func publish(p Publisher, topic, event string, data interface{}) {
	if p == nil {
		return
	}
	p.Publish(topic, event, data)
}
