package worker_test

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Falcosc/libtorrent/internal/worker"
	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
)

type Parent struct {
	workers worker.Workers
}

func (p *Parent) Run(stopC chan struct{}) {
	c := &Child{}
	p.workers.Start(c)
	<-stopC
}

func (p *Parent) Stop() {
	p.workers.Stop()
}

type Child struct{}

func (c *Child) Run(stopC chan struct{}) {
	close(childRun)
	fmt.Println("hello from child")
	<-stopC
	fmt.Println("child is stopped")
}

var childRun = make(chan struct{})

func Example() {
	p := &Parent{}
	go p.Run(nil)
	<-childRun
	p.Stop()
	// Output:
	// hello from child
	// child is stopped
}

func TestFuncOnFinish(t *testing.T) {
	defer leaktest.Check(t)()

	var w worker.Workers
	var ticks, finished int32
	w.StartWithOnFinishHandler(worker.Func(func(stopC chan struct{}) {
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				atomic.AddInt32(&ticks, 1)
			case <-stopC:
				return
			}
		}
	}), func() { atomic.StoreInt32(&finished, 1) })
	time.Sleep(20 * time.Millisecond)
	w.Stop()
	assert.Equal(t, int32(1), atomic.LoadInt32(&finished))
	assert.NotZero(t, atomic.LoadInt32(&ticks))
}
