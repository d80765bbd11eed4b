package matrix

import (
	"sync"
	"time"
)

// Debouncer - отложенный вызов: каждый Trigger перезапускает таймер,
// fn выполняется один раз после паузы d без новых Trigger.
type Debouncer struct {
	d  time.Duration
	fn func()

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func NewDebouncer(d time.Duration, fn func()) *Debouncer {
	return &Debouncer{d: d, fn: fn}
}

func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.d, d.fn)
}

// Stop отменяет ожидающий вызов; уже запущенный fn не прерывается.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
