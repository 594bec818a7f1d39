//go:build !linux

package host

import (
	"fmt"
	"runtime"
)

// setSpeed is only implemented on Linux. Elsewhere set serial.baud to 0 and
// configure the port beforehand, e.g. with stty.
func setSpeed(fd, baud int) error {
	return fmt.Errorf("setting the baud rate is not supported on %s", runtime.GOOS)
}
