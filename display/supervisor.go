package ostinato

import (
	"sync"
	"time"

	Oe "github.com/maroda/ostinato/engine"
)

type PollSupervisor struct {
	View     *CycleView
	Ticker   *time.Ticker
	StopChan chan struct{}
	WG       sync.WaitGroup
}

// NewPollSupervisor is a wrapper around the CycleView that manages polling goroutines
// They are strongly coupled, one knows about the other
func (v *CycleView) NewPollSupervisor() *PollSupervisor {
	ps := &PollSupervisor{
		View: v,
	}
	v.Supervisor = ps
	return ps
}

func (v *CycleView) ReloadConfig(c []Oe.ConfigFile) error {
	v.Supervisor.Stop()

	// Build new charts from config
	// and replace the existing ChartSet
	charts, err := Oe.NewChartsFromConfig(c)
	if err != nil {
		// Keep polling the charts we already have
		v.Supervisor.Start()
		return err
	}
	v.Set.MU.Lock()
	v.Set.Charts = charts
	v.Set.MU.Unlock()

	v.Supervisor.Start()
	return nil
}

// Start the PollSupervisor
func (p *PollSupervisor) Start() {
	p.StopChan = make(chan struct{})
	p.Ticker = time.NewTicker(p.pollInterval())

	p.WG.Add(1)
	go func() {
		defer p.WG.Done()
		defer p.Ticker.Stop()

		for {
			select {
			case <-p.Ticker.C:
				p.View.PollChartsAll()
			case <-p.StopChan:
				return
			}
		}
	}()
}

// pollInterval is the shortest refresh any chart asks for
func (p *PollSupervisor) pollInterval() time.Duration {
	interval := time.Minute

	p.View.Set.MU.RLock()
	defer p.View.Set.MU.RUnlock()

	for _, chart := range p.View.Set.Charts {
		if chart.Refresh > 0 && chart.Refresh < interval {
			interval = chart.Refresh
		}
	}
	return interval
}

// Stop the PollSupervisor
func (p *PollSupervisor) Stop() {
	if p.StopChan != nil {
		close(p.StopChan)
		p.WG.Wait()
	}
}

// Restart the PollSupervisor
func (p *PollSupervisor) Restart() {
	p.Stop()
	p.Start()
}
