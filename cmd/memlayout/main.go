// memlayout validates memory.x descriptors for an nRF52 part and prints the
// linker symbols they resolve to.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/q0jt/nrf-layout/device"
	"github.com/q0jt/nrf-layout/firmware"
	"github.com/q0jt/nrf-layout/layout"
	"golang.org/x/sync/errgroup"
)

var (
	arch          = flag.String("device", "nRF52840", "target part, e.g. nRF52832")
	catalog       = flag.String("catalog", "", "optional Pkl device catalog, replaces the builtin one")
	softDevice    = flag.String("softdevice", "", "SoftDevice release from the catalog, e.g. s140_7.3.0")
	softDeviceHex = flag.String("softdevice_hex", "", "SoftDevice Intel HEX to read the reservation from")
	softDeviceRAM = flag.Uint64("softdevice_ram", 0, "RAM in bytes the SoftDevice is configured to use")
	bootloader    = flag.Bool("bootloader", false, "reserve the DFU bootloader at the top of flash")
	image         = flag.String("image", "", "application Intel HEX to check against each layout")
	outDir        = flag.String("out_dir", "", "if set, write a binary layout record per descriptor here")
)

func main() {
	flag.Parse()
	ctx := context.Background()

	if flag.NArg() == 0 {
		glog.Exit("Usage: memlayout [flags] memory.x...")
	}
	dev, err := target(ctx)
	if err != nil {
		glog.Exitf("Failed to set up target: %v", err)
	}
	glog.Infof("Target %v", dev)

	outs := make([]bytes.Buffer, flag.NArg())
	g := new(errgroup.Group)
	for i, path := range flag.Args() {
		i, path := i, path
		g.Go(func() error {
			if err := process(path, dev, &outs[i]); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			return nil
		})
	}
	err = g.Wait()
	for i := range outs {
		os.Stdout.Write(outs[i].Bytes())
	}
	if err != nil {
		glog.Exitf("Invalid layout: %v", err)
	}
}

func target(ctx context.Context) (device.Device, error) {
	cat := device.Builtin()
	if *catalog != "" {
		var err error
		if cat, err = device.LoadCatalog(ctx, *catalog); err != nil {
			return device.Device{}, err
		}
	}
	dev, err := cat.Lookup(*arch)
	if err != nil {
		return device.Device{}, err
	}

	var sd *device.SoftDevice
	switch {
	case *softDeviceHex != "":
		f, err := os.Open(*softDeviceHex)
		if err != nil {
			return device.Device{}, err
		}
		defer f.Close()
		if sd, err = device.ReadSoftDevice(f); err != nil {
			return device.Device{}, fmt.Errorf("%s: %w", *softDeviceHex, err)
		}
		glog.V(1).Infof("Read %s from %s, application flash starts at %#x", sd.Name, *softDeviceHex, sd.FlashEnd)
	case *softDevice != "":
		if sd, err = cat.SoftDevice(*softDevice); err != nil {
			return device.Device{}, err
		}
	}
	if sd != nil {
		if *softDeviceRAM > 0 {
			if sd.RAMSize, err = ramSize(*softDeviceRAM); err != nil {
				return device.Device{}, err
			}
		}
		dev = dev.WithSoftDevice(sd)
	}
	if *bootloader {
		if dev, err = dev.WithBootloader(); err != nil {
			return device.Device{}, err
		}
	}
	return dev, nil
}

func ramSize(v uint64) (uint32, error) {
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("softdevice_ram %#x does not fit the 32-bit address space", v)
	}
	return uint32(v), nil
}

func process(path string, dev device.Device, out *bytes.Buffer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	l, err := layout.Parse(f)
	if err != nil {
		return err
	}
	res, err := layout.Resolve(l, dev)
	if err != nil {
		return err
	}
	glog.V(1).Infof("%s: %d regions, stack at %#x", path, len(res.Regions), res.Symbols.StackStart)

	if *image != "" {
		if err := checkImage(*image, l); err != nil {
			return err
		}
	}
	if *outDir != "" {
		b, err := res.MarshalBinary()
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".layout.pb"
		if err := os.WriteFile(filepath.Join(*outDir, name), b, 0644); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "/* %s */\n", path)
	return res.Symbols.WriteScript(out)
}

func checkImage(path string, l layout.Layout) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	report, err := firmware.CheckHex(f, l)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := report.Err(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	glog.Infof("%s fits: %d bytes in %s", path, report.Bytes(layout.Flash), layout.Flash)
	return nil
}
