//go:build rp2040 || rp2350

package main

import "machine"

// InitUSB configures USB CDC. On the RP2040 machine.Serial is the CDC
// endpoint, and TinyGo's runtime sets up its descriptors.
func InitUSB() {
	_ = machine.Serial.Configure(machine.UARTConfig{})
}

// USBAvailable returns the number of bytes waiting to be read.
func USBAvailable() int {
	return machine.Serial.Buffered()
}

// USBRead reads a single byte.
func USBRead() (byte, error) {
	return machine.Serial.ReadByte()
}

// usbWriter is the io.Writer the transport frames onto.
type usbWriter struct{}

func (usbWriter) Write(p []byte) (int, error) {
	return machine.Serial.Write(p)
}
