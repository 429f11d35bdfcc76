//go:build rp2040 || rp2350

package main

import (
	"machine"

	"gobdc/core"
)

var debugUART *machine.UART

// InitDebugUART starts UART1 on GPIO20 (TX) and GPIO21 (RX) at 115200 and
// routes core debug output to it.
func InitDebugUART() {
	debugUART = machine.UART1
	err := debugUART.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GPIO20,
		RX:       machine.GPIO21,
	})
	if err != nil {
		debugUART = nil
		return
	}
	core.SetDebugWriter(debugPrintln)
	core.SetDebugEnabled(true)
	debugPrintln("=== " + chipName + " bdc debug ===")
}

func debugPrintln(s string) {
	if debugUART == nil {
		return
	}
	debugUART.Write([]byte(s))
	debugUART.Write([]byte("\r\n"))
}
