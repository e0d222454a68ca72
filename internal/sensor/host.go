package sensor

import (
	"sync"

	"periph.io/x/periph/host"
)

var (
	hostOnce sync.Once
	hostErr  error
)

// initHost loads the platform drivers that populate the SPI and I2C
// registries. Both hardware constructors call it; it runs once.
func initHost() error {
	hostOnce.Do(func() {
		_, hostErr = host.Init()
	})
	return hostErr
}
