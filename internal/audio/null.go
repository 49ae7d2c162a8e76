package audio

import (
	"io"
	"sync"
	"time"
)

// nullDevice pulls the stream in real time and throws the bytes away, so a
// muted run advances its voices exactly like a live one.
type nullDevice struct {
	reader io.Reader
	buf    []byte
	period time.Duration

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	stopped bool
}

func newNullDevice(reader *StreamReader, blockSize int, period time.Duration) *nullDevice {
	if period <= 0 {
		period = time.Millisecond
	}
	return &nullDevice{
		reader: reader,
		buf:    make([]byte, blockSize*LayoutMono16.BytesPerFrame()),
		period: period,
	}
}

func (d *nullDevice) Play() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil || d.stopped {
		return
	}
	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	go d.run(d.stop, d.done)
}

func (d *nullDevice) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(d.period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			_, _ = d.reader.Read(d.buf)
		}
	}
}

func (d *nullDevice) Pause() {
	d.mu.Lock()
	stop, done := d.stop, d.done
	d.stop, d.done = nil, nil
	d.mu.Unlock()
	if stop != nil {
		close(stop)
		<-done
	}
}

func (d *nullDevice) Close() error {
	d.Pause()
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	return nil
}
