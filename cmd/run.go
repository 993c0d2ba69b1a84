package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bluetuith-org/bluetooth-le/api/ble"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// run scans for the configured duration and, when a device address was
// supplied, connects to it and prints its discovered attributes.
func run(ctx context.Context, c ble.Central, cfg *Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := scanDevices(ctx, c, cfg.Values.ScanDuration); err != nil {
		return err
	}

	if cfg.Values.ConnectDeviceAddr.IsNil() {
		return nil
	}

	return connectDevice(ctx, c, cfg.Values.ConnectDeviceAddr)
}

// scanDevices runs one scan window, printing results as they arrive.
func scanDevices(ctx context.Context, c ble.Central, duration time.Duration) error {
	printInfo(fmt.Sprintf("Scanning for %s...", duration))

	printer := &scanPrinter{seen: make(map[ble.MacAddress]struct{})}
	c.StartScan(nil, nil, printer)
	defer c.StopScan()

	bar := progressbar.NewOptions(int(duration/time.Millisecond),
		progressbar.OptionSetDescription("Scanning"),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		deadline := time.After(duration)

		for {
			select {
			case <-ticker.C:
				bar.Add(100)

			case <-deadline:
				bar.Finish()
				return nil

			case <-ctx.Done():
				bar.Finish()
				return ctx.Err()
			}
		}
	})

	if err := g.Wait(); err != nil {
		return err
	}

	printInfo(fmt.Sprintf("Scan finished, %d device(s) found.", printer.count()))

	return nil
}

// connectDevice connects to the device, prints its attribute tree and
// holds the connection until interrupted.
func connectDevice(ctx context.Context, c ble.Central, address ble.MacAddress) error {
	printInfo("Connecting to " + address.String() + "...")

	sub := newConnectWaiter()
	conn := c.Connect(address, sub)

	listener := &eventPrinter{disconnected: make(chan struct{})}
	c.AddListener(conn, listener)

	select {
	case services := <-sub.connected:
		printInfo("Connected to " + address.String() + ".")
		printServices(services)

	case failure := <-sub.failed:
		return failure

	case <-ctx.Done():
		c.Disconnect(conn)
		return ctx.Err()
	}

	c.ReadRssi(conn)

	printInfo("Holding connection, press Ctrl-C to disconnect.")
	<-ctx.Done()

	c.Disconnect(conn)

	select {
	case <-listener.disconnected:
		printInfo("Disconnected.")
	case <-time.After(5 * time.Second):
		printWarn("No disconnect confirmation received.")
	}

	return nil
}

// scanPrinter prints each device once per scan window.
type scanPrinter struct {
	mu   sync.Mutex
	seen map[ble.MacAddress]struct{}
}

func (p *scanPrinter) OnDiscover(device ble.DiscoveredDevice) {
	p.mu.Lock()
	if _, ok := p.seen[device.Address]; ok {
		p.mu.Unlock()
		return
	}
	p.seen[device.Address] = struct{}{}
	p.mu.Unlock()

	printDevice(device)
}

func (p *scanPrinter) OnScanFailure(failure ble.Failure) {
	printError(failure)
}

func (p *scanPrinter) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.seen)
}

// connectWaiter resolves one connect attempt into channels.
type connectWaiter struct {
	connected chan []ble.Service
	failed    chan ble.Failure
}

func newConnectWaiter() *connectWaiter {
	return &connectWaiter{
		connected: make(chan []ble.Service, 1),
		failed:    make(chan ble.Failure, 1),
	}
}

func (w *connectWaiter) OnConnected(_ ble.Connection, services []ble.Service) {
	select {
	case w.connected <- services:
	default:
	}
}

func (w *connectWaiter) OnConnectFailure(failure ble.Failure) {
	select {
	case w.failed <- failure:
	default:
	}
}

// eventPrinter prints connection traffic of interest.
type eventPrinter struct {
	ble.EmptyListener

	closeOnce    sync.Once
	disconnected chan struct{}
}

func (p *eventPrinter) OnRssiRead(rssi int16) {
	printInfo(fmt.Sprintf("Signal strength: %d dBm", rssi))
}

func (p *eventPrinter) OnTransferSizeChanged(size int) {
	printInfo(fmt.Sprintf("Transfer size: %d bytes", size))
}

func (p *eventPrinter) OnDisconnected(_ ble.Connection, status int32) {
	if status != 0 {
		printWarn(fmt.Sprintf("Disconnected with status %d.", status))
	}

	p.closeOnce.Do(func() { close(p.disconnected) })
}

func (p *eventPrinter) OnFailure(failure ble.Failure) {
	printError(failure)
}
