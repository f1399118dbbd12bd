package device

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/q0jt/nrf-layout/device/config"
)

var (
	ErrUnknownDevice     = errors.New("arch is not registered")
	ErrUnknownSoftDevice = errors.New("softdevice is not registered")
)

// Catalog holds the parts and SoftDevice releases a layout can target.
type Catalog struct {
	Devices     map[Arch]Device
	SoftDevices map[string]SoftDevice
}

const (
	kib     = 1024
	ramBase = 0x20000000
)

// Builtin returns the catalog compiled into the package.
func Builtin() *Catalog {
	return &Catalog{
		Devices: map[Arch]Device{
			NRF52805: {Arch: NRF52805, FlashSize: 192 * kib, RAMBase: ramBase, RAMSize: 24 * kib, Interrupts: 30},
			NRF52810: {Arch: NRF52810, FlashSize: 192 * kib, RAMBase: ramBase, RAMSize: 24 * kib, Interrupts: 30},
			NRF52811: {Arch: NRF52811, FlashSize: 192 * kib, RAMBase: ramBase, RAMSize: 24 * kib, Interrupts: 30},
			NRF52820: {Arch: NRF52820, FlashSize: 256 * kib, RAMBase: ramBase, RAMSize: 32 * kib, Interrupts: 40},
			NRF52832: {
				Arch: NRF52832, FlashSize: 512 * kib, RAMBase: ramBase, RAMSize: 64 * kib, Interrupts: 39,
				BootLoaderAddr: 0x78000, BootLoaderSettAddr: 0x7F000,
			},
			NRF52833: {Arch: NRF52833, FlashSize: 512 * kib, RAMBase: ramBase, RAMSize: 128 * kib, Interrupts: 48},
			NRF52840: {
				Arch: NRF52840, FlashSize: 1024 * kib, RAMBase: ramBase, RAMSize: 256 * kib, Interrupts: 48,
				BootLoaderAddr: 0xF8000, BootLoaderSettAddr: 0xFF000,
			},
		},
		SoftDevices: map[string]SoftDevice{
			"s113_7.3.0": {Name: "s113_7.3.0", FlashEnd: 0x1C000},
			"s132_6.1.1": {Name: "s132_6.1.1", FlashEnd: 0x26000},
			"s132_7.3.0": {Name: "s132_7.3.0", FlashEnd: 0x26000},
			"s140_6.1.1": {Name: "s140_6.1.1", FlashEnd: 0x26000},
			"s140_7.3.0": {Name: "s140_7.3.0", FlashEnd: 0x27000},
		},
	}
}

// LoadCatalog evaluates the Pkl catalog at path.
func LoadCatalog(ctx context.Context, path string) (*Catalog, error) {
	conf, err := config.LoadFromPath(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return fromConfig(conf), nil
}

func fromConfig(conf *config.DeviceCatalog) *Catalog {
	c := &Catalog{
		Devices:     make(map[Arch]Device, len(conf.Devices)),
		SoftDevices: make(map[string]SoftDevice, len(conf.SoftDevices)),
	}
	for name, d := range conf.Devices {
		dev := Device{
			Arch:       Arch(name),
			FlashBase:  d.FlashBase,
			FlashSize:  d.FlashSize,
			RAMBase:    d.RamBase,
			RAMSize:    d.RamSize,
			Interrupts: int(d.Interrupts),
		}
		if d.BootLoaderAddr != nil {
			dev.BootLoaderAddr = *d.BootLoaderAddr
		}
		if d.BootLoaderSettAddr != nil {
			dev.BootLoaderSettAddr = *d.BootLoaderSettAddr
		}
		c.Devices[dev.Arch] = dev
	}
	for name, sd := range conf.SoftDevices {
		c.SoftDevices[name] = SoftDevice{Name: name, FlashEnd: sd.FlashEnd, RAMSize: sd.RamSize}
	}
	return c
}

// Lookup returns the device registered as name, ignoring case.
func (c *Catalog) Lookup(name string) (Device, error) {
	for arch, d := range c.Devices {
		if strings.EqualFold(string(arch), name) {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("%q: %w", name, ErrUnknownDevice)
}

// SoftDevice returns the SoftDevice release registered as name, ignoring case.
func (c *Catalog) SoftDevice(name string) (*SoftDevice, error) {
	for n, sd := range c.SoftDevices {
		if strings.EqualFold(n, name) {
			return &sd, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownSoftDevice)
}

// Lookup returns the device registered as name in the builtin catalog.
func Lookup(name string) (Device, error) {
	return Builtin().Lookup(name)
}
