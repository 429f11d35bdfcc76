//go:build !wasm

package serial

import (
	"fmt"
	"sort"
	"strings"

	bugst "go.bug.st/serial"
)

// devicePrefixes are the names the controller enumerates under, best first.
var devicePrefixes = []string{"/dev/ttyACM", "/dev/ttyUSB", "/dev/cu.usbmodem", "COM"}

// Ports lists the serial ports present on the host.
func Ports() ([]string, error) {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	sort.Strings(ports)
	return ports, nil
}

// Detect returns the first port that looks like a controller.
func Detect() (string, error) {
	ports, err := Ports()
	if err != nil {
		return "", err
	}
	if dev := pick(ports); dev != "" {
		return dev, nil
	}
	return "", fmt.Errorf("no controller port among %d ports", len(ports))
}

func pick(ports []string) string {
	for _, prefix := range devicePrefixes {
		for _, p := range ports {
			if strings.HasPrefix(p, prefix) {
				return p
			}
		}
	}
	return ""
}
