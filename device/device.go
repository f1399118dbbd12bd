// Package device describes the physical memory of nRF52 parts and the
// ranges a SoftDevice or DFU bootloader takes from it.
package device

import (
	"fmt"
	"strings"

	"github.com/q0jt/nrf-layout/layout"
)

// Arch names an nRF52 part.
type Arch string

const (
	NRF52805 Arch = "nRF52805"
	NRF52810 Arch = "nRF52810"
	NRF52811 Arch = "nRF52811"
	NRF52820 Arch = "nRF52820"
	NRF52832 Arch = "nRF52832"
	NRF52833 Arch = "nRF52833"
	NRF52840 Arch = "nRF52840"
)

// Cortex-M4 system exceptions in front of the device interrupts.
const coreExceptions = 16

// Device is one part of the catalog. It implements layout.Target.
type Device struct {
	Arch Arch

	FlashBase uint32
	FlashSize uint32
	RAMBase   uint32
	RAMSize   uint32
	// Interrupts is the number of device interrupt lines.
	Interrupts int

	// Bootloader start address; zero when the part has no known DFU
	// bootloader placement.
	BootLoaderAddr     uint32
	BootLoaderSettAddr uint32

	SoftDevice *SoftDevice
	bootloader bool
}

// WithSoftDevice returns a copy of d with sd flashed below the application.
func (d Device) WithSoftDevice(sd *SoftDevice) Device {
	d.SoftDevice = sd
	return d
}

// WithBootloader returns a copy of d that reserves the DFU bootloader and
// its settings page at the top of flash.
func (d Device) WithBootloader() (Device, error) {
	if d.BootLoaderAddr == 0 {
		return Device{}, fmt.Errorf("%s: no bootloader address registered", d.Arch)
	}
	d.bootloader = true
	return d, nil
}

func (d Device) flashEnd() uint64 {
	return uint64(d.FlashBase) + uint64(d.FlashSize)
}

// Memory returns the physical flash and RAM of d.
func (d Device) Memory() []layout.Span {
	return []layout.Span{
		{Label: "flash", Start: uint64(d.FlashBase), End: d.flashEnd()},
		{Label: "ram", Start: uint64(d.RAMBase), End: uint64(d.RAMBase) + uint64(d.RAMSize)},
	}
}

// Reserved returns the SoftDevice ranges and, with WithBootloader, the
// bootloader and its settings pages up to the end of flash.
func (d Device) Reserved() []layout.Span {
	var spans []layout.Span
	if sd := d.SoftDevice; sd != nil {
		spans = append(spans, layout.Span{
			Label: sd.Name,
			Start: uint64(d.FlashBase),
			End:   uint64(sd.FlashEnd),
		})
		if sd.RAMSize > 0 {
			spans = append(spans, layout.Span{
				Label: sd.Name + " ram",
				Start: uint64(d.RAMBase),
				End:   uint64(d.RAMBase) + uint64(sd.RAMSize),
			})
		}
	}
	if d.bootloader {
		end := d.flashEnd()
		if d.BootLoaderSettAddr > d.BootLoaderAddr {
			end = uint64(d.BootLoaderSettAddr)
		}
		spans = append(spans, layout.Span{
			Label: "bootloader",
			Start: uint64(d.BootLoaderAddr),
			End:   end,
		})
		if end < d.flashEnd() {
			spans = append(spans, layout.Span{
				Label: "bootloader settings",
				Start: end,
				End:   d.flashEnd(),
			})
		}
	}
	return spans
}

// VectorTableSize is the size of the system exceptions plus one entry per
// device interrupt.
func (d Device) VectorTableSize() uint64 {
	return uint64(coreExceptions+d.Interrupts) * 4
}

func (d Device) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (flash %dK, ram %dK", d.Arch, d.FlashSize>>10, d.RAMSize>>10)
	if d.SoftDevice != nil {
		fmt.Fprintf(&b, ", %s", d.SoftDevice.Name)
	}
	if d.bootloader {
		b.WriteString(", bootloader")
	}
	b.WriteString(")")
	return b.String()
}
