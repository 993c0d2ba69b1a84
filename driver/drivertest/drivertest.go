// Package drivertest provides an in-memory, scriptable radio driver for
// exercising a central without hardware. Tests inspect the recorded
// driver calls and fire callbacks through the captured event interfaces.
package drivertest

import (
	"sync"

	ac "github.com/bluetuith-org/bluetooth-le/api/appfeatures"
	"github.com/bluetuith-org/bluetooth-le/api/ble"
	"github.com/bluetuith-org/bluetooth-le/driver"
)

// Driver is a scriptable driver.Driver.
type Driver struct {
	mu sync.Mutex

	powered       bool
	features      ac.Features
	rejectConnect bool

	scanEvents   driver.ScanEvents
	scanStarts   int
	scanStops    int
	lastFilters  []ble.ScanFilter
	lastSettings *ble.ScanSettings

	connects []ble.MacAddress
	sessions []*Session
}

var _ driver.Driver = (*Driver)(nil)

// New returns a powered-on driver with every feature enabled.
func New() *Driver {
	d := &Driver{powered: true}
	d.features.Add(
		ac.FeatureScanning,
		ac.FeatureConnection,
		ac.FeatureTransferSizeRequest,
		ac.FeatureConnectionUpdates,
		ac.FeatureReliableWrites,
	)

	return d
}

// SetPowered scripts the radio power state.
func (d *Driver) SetPowered(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.powered = on
}

// SetFeatures scripts the resolved feature set.
func (d *Driver) SetFeatures(features ac.Features) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.features = features
}

// RejectConnects scripts synchronous rejection of connect attempts.
func (d *Driver) RejectConnects(reject bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.rejectConnect = reject
}

// Enabled returns the scripted radio power state.
func (d *Driver) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.powered
}

// Features returns the scripted feature set.
func (d *Driver) Features() ac.Features {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.features
}

// StartScan records the scan request and captures the event interface.
func (d *Driver) StartScan(filters []ble.ScanFilter, settings *ble.ScanSettings, events driver.ScanEvents) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.scanStarts++
	d.lastFilters = filters
	d.lastSettings = settings
	d.scanEvents = events
}

// StopScan records the stop request.
func (d *Driver) StopScan() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.scanStops++
}

// Connect records the attempt and returns a new scripted session, or nil
// when connect rejection is scripted.
func (d *Driver) Connect(address ble.MacAddress, events driver.SessionEvents) driver.Session {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.connects = append(d.connects, address)

	if d.rejectConnect {
		return nil
	}

	s := NewSession(address, events)
	d.sessions = append(d.sessions, s)

	return s
}

// ScanStarts returns the number of recorded scan starts.
func (d *Driver) ScanStarts() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.scanStarts
}

// ScanStops returns the number of recorded scan stops.
func (d *Driver) ScanStops() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.scanStops
}

// ScanConfig returns the filters and settings of the last scan start.
func (d *Driver) ScanConfig() ([]ble.ScanFilter, *ble.ScanSettings) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.lastFilters, d.lastSettings
}

// ScanEvents returns the captured scan event interface.
func (d *Driver) ScanEvents() driver.ScanEvents {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.scanEvents
}

// Connects returns the addresses of all recorded connect attempts.
func (d *Driver) Connects() []ble.MacAddress {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]ble.MacAddress(nil), d.connects...)
}

// Sessions returns all sessions handed out so far.
func (d *Driver) Sessions() []*Session {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]*Session(nil), d.sessions...)
}

// LastSession returns the most recent session handed out, or nil.
func (d *Driver) LastSession() *Session {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.sessions) == 0 {
		return nil
	}

	return d.sessions[len(d.sessions)-1]
}

// NotifyCall records one SetNotify invocation.
type NotifyCall struct {
	Characteristic ble.Characteristic
	Enable         bool
}

// WriteCall records one WriteCharacteristic invocation.
type WriteCall struct {
	Characteristic ble.Characteristic
	Data           []byte
}

// Session is a scriptable driver.Session.
type Session struct {
	mu sync.Mutex

	address ble.MacAddress
	events  driver.SessionEvents

	// accept flags script whether the session accepts each operation
	// for asynchronous processing. All default to true.
	acceptReads      bool
	acceptWrites     bool
	acceptNotify     bool
	acceptDescWrites bool
	acceptRssi       bool
	acceptPriority   bool

	discoverCalls    int
	transferRequests []int
	reads            []ble.Characteristic
	writes           []WriteCall
	notifies         []NotifyCall
	descWrites       []ble.Descriptor
	rssiReads        int
	priorities       []ble.ConnectionPriority
	disconnects      int
	closes           int
}

var _ driver.Session = (*Session)(nil)

// NewSession returns a session that accepts every operation.
func NewSession(address ble.MacAddress, events driver.SessionEvents) *Session {
	return &Session{
		address:          address,
		events:           events,
		acceptReads:      true,
		acceptWrites:     true,
		acceptNotify:     true,
		acceptDescWrites: true,
		acceptRssi:       true,
		acceptPriority:   true,
	}
}

// Events returns the event interface the central registered for this
// session. Tests use it to fire driver callbacks.
func (s *Session) Events() driver.SessionEvents {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.events
}

// Address returns the device address the session was opened for.
func (s *Session) Address() ble.MacAddress {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.address
}

// Accept scripts the accepted-for-async result of all request operations.
func (s *Session) Accept(accept bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.acceptReads = accept
	s.acceptWrites = accept
	s.acceptNotify = accept
	s.acceptDescWrites = accept
	s.acceptRssi = accept
	s.acceptPriority = accept
}

// DiscoverServices records the discovery request.
func (s *Session) DiscoverServices() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.discoverCalls++
}

// RequestTransferSize records the size request.
func (s *Session) RequestTransferSize(size int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transferRequests = append(s.transferRequests, size)
}

// ReadCharacteristic records the read request.
func (s *Session) ReadCharacteristic(char ble.Characteristic) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.acceptReads {
		return false
	}

	s.reads = append(s.reads, char)

	return true
}

// WriteCharacteristic records the write request.
func (s *Session) WriteCharacteristic(char ble.Characteristic, data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.acceptWrites {
		return false
	}

	s.writes = append(s.writes, WriteCall{Characteristic: char, Data: data})

	return true
}

// SetNotify records the notification toggle.
func (s *Session) SetNotify(char ble.Characteristic, enable bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.acceptNotify {
		return false
	}

	s.notifies = append(s.notifies, NotifyCall{Characteristic: char, Enable: enable})

	return true
}

// WriteDescriptor records the descriptor write.
func (s *Session) WriteDescriptor(desc ble.Descriptor) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.acceptDescWrites {
		return false
	}

	s.descWrites = append(s.descWrites, desc)

	return true
}

// ReadRssi records the signal strength request.
func (s *Session) ReadRssi() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.acceptRssi {
		return false
	}

	s.rssiReads++

	return true
}

// RequestPriority records the priority request.
func (s *Session) RequestPriority(priority ble.ConnectionPriority) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.acceptPriority {
		return false
	}

	s.priorities = append(s.priorities, priority)

	return true
}

// Disconnect records the teardown request.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disconnects++
}

// Close records the handle release.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closes++
}

// DiscoverCalls returns the number of recorded discovery requests.
func (s *Session) DiscoverCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.discoverCalls
}

// TransferRequests returns all recorded size requests.
func (s *Session) TransferRequests() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]int(nil), s.transferRequests...)
}

// Reads returns all recorded read requests.
func (s *Session) Reads() []ble.Characteristic {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]ble.Characteristic(nil), s.reads...)
}

// Writes returns all recorded write requests.
func (s *Session) Writes() []WriteCall {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]WriteCall(nil), s.writes...)
}

// Notifies returns all recorded notification toggles.
func (s *Session) Notifies() []NotifyCall {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]NotifyCall(nil), s.notifies...)
}

// DescriptorWrites returns all recorded descriptor writes.
func (s *Session) DescriptorWrites() []ble.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]ble.Descriptor(nil), s.descWrites...)
}

// RssiReads returns the number of recorded signal strength requests.
func (s *Session) RssiReads() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rssiReads
}

// Priorities returns all recorded priority requests.
func (s *Session) Priorities() []ble.ConnectionPriority {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]ble.ConnectionPriority(nil), s.priorities...)
}

// Disconnects returns the number of recorded teardown requests.
func (s *Session) Disconnects() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.disconnects
}

// Closes returns the number of recorded handle releases.
func (s *Session) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closes
}
