package sim

import "time"

// clock raises one interrupt per timer period until the simulation stops.
func (p *Port) clock() {
	period := time.Second / time.Duration(p.hz)
	if period <= 0 {
		period = time.Microsecond
	}
	for {
		select {
		case <-p.ctx.Done():
			return
		default:
		}
		sleep(period)
		p.Raise(1)
	}
}
