// Package worker runs background loops that stop together.
package worker

import "sync"

// Worker is a long running task owned by Workers.
type Worker interface {
	// Run is a blocking method that usually contains a for/select loop.
	Run(stopC chan struct{})
}

// Func adapts a function to the Worker interface.
type Func func(stopC chan struct{})

// Run calls f.
func (f Func) Run(stopC chan struct{}) { f(stopC) }

// Workers is a group of running workers. The zero value is ready to use.
type Workers struct {
	m     sync.Mutex
	stopC chan struct{}
	wg    sync.WaitGroup
}

// StartWithOnFinishHandler runs r in a new goroutine and calls onFinish after Run returns.
func (w *Workers) StartWithOnFinishHandler(r Worker, onFinish func()) {
	w.m.Lock()
	if w.stopC == nil {
		w.stopC = make(chan struct{})
	}
	stopC := w.stopC
	w.wg.Add(1)
	w.m.Unlock()
	go func() {
		defer w.wg.Done()
		r.Run(stopC)
		if onFinish != nil {
			onFinish()
		}
	}()
}

// Start runs r in a new goroutine.
func (w *Workers) Start(r Worker) {
	w.StartWithOnFinishHandler(r, nil)
}

// Stop signals all workers and waits until they return. Stop must be called once.
func (w *Workers) Stop() {
	w.m.Lock()
	if w.stopC != nil {
		close(w.stopC)
	}
	w.m.Unlock()
	w.wg.Wait()
}
