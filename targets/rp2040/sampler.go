//go:build rp2040 || rp2350

package main

import (
	"machine"

	"gobdc/core"
)

// adcShift reduces TinyGo's 16-bit scaled reading to the 10-bit codes the
// core works in.
const adcShift = 6

// sampler converts the four analog inputs into a core.SampleFIFO, one
// group per carrier period. Results land in core.ADCChannel order.
type sampler struct {
	chans [4]machine.ADC
	fifo  *core.SampleFIFO
}

func newSampler(fifo *core.SampleFIFO) *sampler {
	return &sampler{
		chans: [4]machine.ADC{
			core.ChanCurrent:     {Pin: machine.ADC0},
			core.ChanVBus:        {Pin: machine.ADC1},
			core.ChanPosition:    {Pin: machine.ADC2},
			core.ChanTemperature: {Pin: machine.ADC3},
		},
		fifo: fifo,
	}
}

func (s *sampler) configure() error {
	machine.InitADC()
	for i := range s.chans {
		if err := s.chans[i].Configure(machine.ADCConfig{}); err != nil {
			return err
		}
	}
	return nil
}

// sample runs in the wrap interrupt. Each Get blocks for one conversion,
// about 2us.
func (s *sampler) sample() {
	s.fifo.PushGroup(
		s.chans[core.ChanCurrent].Get()>>adcShift,
		s.chans[core.ChanVBus].Get()>>adcShift,
		s.chans[core.ChanPosition].Get()>>adcShift,
		s.chans[core.ChanTemperature].Get()>>adcShift,
	)
}
