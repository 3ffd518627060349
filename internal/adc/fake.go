package adc

import "fmt"

// FakeSampler is a test double returning scripted codes per channel.
type FakeSampler struct {
	// Codes holds the sequence returned for each channel. Each call to
	// ReadRaw consumes the next code; the last one repeats.
	Codes map[int][]int

	index map[int]int

	// ReadError, if set, will be returned by ReadRaw.
	ReadError error

	// Reads counts ReadRaw calls per channel.
	Reads map[int]int

	Closed bool
}

// NewFakeSampler creates a FakeSampler with no channels configured.
func NewFakeSampler() *FakeSampler {
	return &FakeSampler{
		Codes: map[int][]int{},
		index: map[int]int{},
		Reads: map[int]int{},
	}
}

// Set makes the channel return code on every read from now on.
func (f *FakeSampler) Set(channel, code int) {
	f.Codes[channel] = []int{code}
	f.index[channel] = 0
}

// Script makes the channel return codes in order, repeating the last.
func (f *FakeSampler) Script(channel int, codes ...int) {
	f.Codes[channel] = codes
	f.index[channel] = 0
}

// ReadRaw returns the next scripted code for the channel.
func (f *FakeSampler) ReadRaw(channel int) (int, error) {
	f.Reads[channel]++
	if f.ReadError != nil {
		return 0, f.ReadError
	}

	codes := f.Codes[channel]
	if len(codes) == 0 {
		return 0, fmt.Errorf("no codes configured for channel %d", channel)
	}

	i := f.index[channel]
	if i < len(codes)-1 {
		f.index[channel]++
	}
	return codes[i], nil
}

// Close marks the sampler as closed.
func (f *FakeSampler) Close() error {
	f.Closed = true
	return nil
}
