// Package safe_close coordinates shutdown of a set of long-running goroutines.
// The first SendCloseSignal wins; WaitClosed blocks until every attached
// goroutine has called its done func.
package safe_close

import (
	"sync"
)

type SafeClose struct {
	once     sync.Once
	signal   chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	closeErr error
}

func NewSafeClose() *SafeClose {
	return &SafeClose{signal: make(chan struct{})}
}

// Attach runs fn in its own goroutine. fn must call done exactly once when it has stopped.
func (s *SafeClose) Attach(fn func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	var once sync.Once
	go fn(func() { once.Do(s.wg.Done) }, s.signal)
}

// SendCloseSignal 发送关闭信号，仅第一次调用的 err 会被记录
func (s *SafeClose) SendCloseSignal(err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.closeErr = err
		s.mu.Unlock()
		close(s.signal)
	})
}

// CloseSignal 关闭信号通道
func (s *SafeClose) CloseSignal() <-chan struct{} {
	return s.signal
}

// WaitClosed waits for every attached goroutine and returns the error that triggered the close.
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeErr
}
