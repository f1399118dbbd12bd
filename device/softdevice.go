package device

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/marcinbor85/gohex"
)

// SoftDevice is a SoftDevice release flashed from address zero together
// with the MBR.
type SoftDevice struct {
	Name string
	// FlashEnd is the first flash address available to the application.
	FlashEnd uint32
	// RAMSize is the RAM the SoftDevice is configured to use from the
	// start of RAM. It depends on the BLE configuration, not the release.
	RAMSize uint32

	FWID    uint16
	ID      uint32
	Version uint32
}

// The info struct sits 0x2000 bytes into the SoftDevice, which starts
// right after the 4K MBR.
const (
	sdInfoAddr    = 0x1000 + 0x2000
	sdInfoLen     = 0x18
	sdMagic       = 0x51B1E5DB
	sdMagicOff    = 0x04
	sdSizeOff     = 0x08
	sdFWIDOff     = 0x0C
	sdIDOff       = 0x10
	sdVersionOff  = 0x14
	sdInfoSizeOff = 0x00
)

var ErrNoSoftDevice = errors.New("no softdevice info struct found")

// ReadSoftDevice reads the info struct of a SoftDevice Intel HEX file.
func ReadSoftDevice(r io.Reader) (*SoftDevice, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, err
	}
	return readSoftDevice(mem)
}

func readSoftDevice(mem *gohex.Memory) (*SoftDevice, error) {
	b := mem.ToBinary(sdInfoAddr, sdInfoLen, 0xFF)
	le := binary.LittleEndian
	if le.Uint32(b[sdMagicOff:]) != sdMagic {
		return nil, ErrNoSoftDevice
	}
	sd := &SoftDevice{
		FlashEnd: le.Uint32(b[sdSizeOff:]),
		FWID:     le.Uint16(b[sdFWIDOff:]),
	}
	if sd.FlashEnd <= sdInfoAddr || sd.FlashEnd == 0xFFFFFFFF {
		return nil, fmt.Errorf("implausible softdevice size %#x", sd.FlashEnd)
	}
	// Older releases end the struct before the ID and version fields.
	if b[sdInfoSizeOff] >= sdInfoLen {
		sd.ID = le.Uint32(b[sdIDOff:])
		sd.Version = le.Uint32(b[sdVersionOff:])
		major, minor, patch := sd.Version/1000000, sd.Version/1000%1000, sd.Version%1000
		sd.Name = fmt.Sprintf("s%d_%d.%d.%d", sd.ID, major, minor, patch)
	} else {
		sd.Name = fmt.Sprintf("fwid_%#04x", sd.FWID)
	}
	return sd, nil
}
