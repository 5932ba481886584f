package virtualizer

// notify fires the change callback, or marks it pending inside a batch.
func (v *Virtualizer[K]) notify() {
	if v.notifyDepth > 0 {
		v.notifyPending = true

		return
	}

	v.notifyNow()
}

func (v *Virtualizer[K]) notifyNow() {
	v.stats.notifications.Add(1)

	if fn := v.cfg.callbacks().onChange; fn != nil {
		fn(v, v.isScrolling)
	}
}

// BatchUpdate runs fn with notifications deferred and fires at most one
// change notification when the outermost batch returns. Batches nest.
func (v *Virtualizer[K]) BatchUpdate(fn func(v *Virtualizer[K])) {
	v.notifyDepth++

	func() {
		defer func() { v.notifyDepth-- }()

		fn(v)
	}()

	if v.notifyDepth == 0 && v.notifyPending {
		v.notifyPending = false
		v.notifyNow()
	}
}
