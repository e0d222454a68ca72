package sensor

import (
	"encoding/binary"
	"errors"
	"fmt"

	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
)

// ErrFault is returned when the MAX31855 frame carries the fault bit
// (open thermocouple, short to GND or VCC).
var ErrFault = errors.New("max31855: fault bit set")

const (
	faultBit = 0x00010000

	// 14-bit signed thermocouple field lives in bits 31..18, 0.25 °C/LSB.
	tcShift    = 18
	tcMask     = 0x3FFF
	tcSignBit  = 0x2000
	tcFullSpan = 0x4000
	degPerLSB  = 0.25
)

// MAX31855 reads a K-type thermocouple over SPI.
type MAX31855 struct {
	port spi.PortCloser
	conn spi.Conn
}

// NewMAX31855 opens the named SPI port (empty string selects the first
// available one) and configures it for the converter.
func NewMAX31855(portName string) (*MAX31855, error) {
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("load platform drivers: %w", err)
	}
	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", portName, err)
	}
	conn, err := port.Connect(4*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("connect max31855: %w", err)
	}
	return &MAX31855{port: port, conn: conn}, nil
}

// TemperatureF clocks one 32-bit frame out of the converter.
func (m *MAX31855) TemperatureF() (float64, error) {
	tx := make([]byte, 4)
	rx := make([]byte, 4)
	if err := m.conn.Tx(tx, rx); err != nil {
		return 0, fmt.Errorf("max31855 read: %w", err)
	}
	return decodeFrameF(binary.BigEndian.Uint32(rx))
}

func (m *MAX31855) Close() error {
	return m.port.Close()
}

// decodeFrameF extracts the thermocouple temperature from a raw frame.
func decodeFrameF(raw uint32) (float64, error) {
	if raw&faultBit != 0 {
		return 0, ErrFault
	}
	v := int32(raw>>tcShift) & tcMask
	if v&tcSignBit != 0 {
		v -= tcFullSpan
	}
	tempC := float64(v) * degPerLSB
	return tempC*9.0/5.0 + 32.0, nil
}
