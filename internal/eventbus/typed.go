package eventbus

// SubscribeTo returns a channel receiving only events of type T, plus a stop
// function releasing the underlying subscription. The returned channel closes
// when the subscription is stopped or the bus shuts down.
func SubscribeTo[T any](b *Bus) (<-chan T, func()) {
	raw := b.Subscribe()
	out := make(chan T, subBuffer)
	go func() {
		defer close(out)
		for ev := range raw {
			t, ok := ev.(T)
			if !ok {
				continue
			}
			select {
			case out <- t:
			default:
			}
		}
	}()
	return out, func() { b.Unsubscribe(raw) }
}
