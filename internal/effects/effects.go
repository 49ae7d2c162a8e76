// Package effects provides mono processors for the master bus.
package effects

// Effector processes one mono sample at a time.
type Effector interface {
	Process(s float32) float32
	Reset()
}

// Chain applies a sequence of effects in order.
type Chain struct {
	effects []Effector
}

func NewChain(effects ...Effector) *Chain {
	c := &Chain{}
	for _, e := range effects {
		c.Add(e)
	}
	return c
}

func (c *Chain) Process(s float32) float32 {
	for _, e := range c.effects {
		s = e.Process(s)
	}
	return s
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}

// Add appends e to the chain. Nil effects are skipped.
func (c *Chain) Add(e Effector) {
	if e == nil {
		return
	}
	c.effects = append(c.effects, e)
}

func (c *Chain) Len() int { return len(c.effects) }

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
