package printer

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"
)

// Printer sends raw ESC/POS data to a thermal printer
type Printer interface {
	// Print sends raw ESC/POS bytes to the printer
	Print(ctx context.Context, data []byte) error
	// IsConnected returns true if the printer can be reached
	IsConnected(ctx context.Context) bool
	// Type returns "usb", "network" or "none"
	Type() string
}

// --- USB Printer (writes to device file, e.g. /dev/usb/lp0) ---

type usbPrinter struct {
	path string
}

// NewUSBPrinter creates a printer that writes to a USB device file
func NewUSBPrinter(devicePath string) Printer {
	return &usbPrinter{path: devicePath}
}

func (p *usbPrinter) Print(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.OpenFile(p.path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("printer: failed to open USB device %s: %w", p.path, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("printer: failed to write to USB device %s: %w", p.path, err)
	}
	return nil
}

func (p *usbPrinter) IsConnected(ctx context.Context) bool {
	_, err := os.Stat(p.path)
	return err == nil
}

func (p *usbPrinter) Type() string { return "usb" }

// --- Network Printer (raw TCP, e.g. 192.168.1.100:9100) ---

type networkPrinter struct {
	address string
	dialer  net.Dialer
}

// NewNetworkPrinter creates a printer that connects via TCP.
// Address should include port, e.g. "192.168.1.100:9100"
func NewNetworkPrinter(address string) Printer {
	return &networkPrinter{
		address: address,
		dialer:  net.Dialer{Timeout: 5 * time.Second},
	}
}

func (p *networkPrinter) Print(ctx context.Context, data []byte) error {
	conn, err := p.dialer.DialContext(ctx, "tcp", p.address)
	if err != nil {
		return fmt.Errorf("printer: failed to connect to %s: %w", p.address, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(10 * time.Second)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetWriteDeadline(deadline)

	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("printer: failed to write to %s: %w", p.address, err)
	}
	return nil
}

func (p *networkPrinter) IsConnected(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	conn, err := p.dialer.DialContext(ctx, "tcp", p.address)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (p *networkPrinter) Type() string { return "network" }

// --- Null Printer (no-op, used when no printer is configured) ---

type nullPrinter struct{}

// NewNullPrinter creates a no-op printer for environments without hardware
func NewNullPrinter() Printer {
	return nullPrinter{}
}

func (nullPrinter) Print(ctx context.Context, data []byte) error { return nil }

func (nullPrinter) IsConnected(ctx context.Context) bool { return false }

func (nullPrinter) Type() string { return "none" }

// NewPrinterFromConfig creates the appropriate Printer based on type.
//
//	printerType: "usb", "network", or "none"
//	usbPath: device path for USB printers (e.g. "/dev/usb/lp0")
//	address: TCP address for network printers (e.g. "192.168.1.100:9100")
func NewPrinterFromConfig(printerType, usbPath, address string) (Printer, error) {
	switch printerType {
	case "usb":
		if usbPath == "" {
			return nil, fmt.Errorf("printer: USB path is required for USB printer type")
		}
		return NewUSBPrinter(usbPath), nil
	case "network":
		if address == "" {
			return nil, fmt.Errorf("printer: address is required for network printer type")
		}
		return NewNetworkPrinter(address), nil
	case "none", "":
		return NewNullPrinter(), nil
	default:
		return nil, fmt.Errorf("printer: unknown printer type %q (use usb, network, or none)", printerType)
	}
}
