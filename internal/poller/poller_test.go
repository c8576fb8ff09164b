// internal/poller/poller_test.go
package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tamzrod/clivet-modbus/internal/config"
	"github.com/tamzrod/clivet-modbus/internal/registers"
)

type fakeException struct{ code byte }

func (e *fakeException) Error() string       { return "exception" }
func (e *fakeException) ExceptionCode() byte { return e.code }

type fakeClient struct {
	mu sync.Mutex

	connected  bool
	connectErr error

	regs     map[uint16]uint16
	readErr  map[uint16]error // keyed by start address
	writeErr error

	// clamp models a device that stores something other than what was asked
	clamp func(addr, value uint16) uint16

	connects int
	reads    int
	writes   int
}

func newFake() *fakeClient {
	return &fakeClient{
		regs:    map[uint16]uint16{},
		readErr: map[uint16]error{},
	}
}

func (f *fakeClient) Connect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	return nil
}

func (f *fakeClient) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeClient) ReadHoldingRegisters(addr, qty uint16, deviceID uint8) ([]uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++

	if err := f.readErr[addr]; err != nil {
		var ex *fakeException
		if !errors.As(err, &ex) {
			f.connected = false
		}
		return nil, err
	}

	out := make([]uint16, qty)
	for i := range out {
		out[i] = f.regs[addr+uint16(i)]
	}
	return out, nil
}

func (f *fakeClient) WriteRegister(addr, value uint16, deviceID uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++

	if f.writeErr != nil {
		return f.writeErr
	}
	if f.clamp != nil {
		value = f.clamp(addr, value)
	}
	f.regs[addr] = value
	return nil
}

func newPoller(t *testing.T, f *fakeClient, ranges ...registers.Range) *Poller {
	t.Helper()
	if len(ranges) == 0 {
		ranges = []registers.Range{{Start: 2600, Count: 2}}
	}
	p, err := New(Config{UniqueID: "u1", DeviceID: 2, Interval: time.Hour, Ranges: ranges}, f)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	return p
}

// ---- refresh cycle ----

func TestPollOnce_Success(t *testing.T) {
	f := newFake()
	f.regs[2600] = 5
	f.regs[4200] = 7

	p := newPoller(t, f, registers.Range{Start: 2600, Count: 2}, registers.Range{Start: 4200, Count: 1})

	if err := p.pollOnce(); err != nil {
		t.Fatalf("pollOnce err=%v", err)
	}
	if v := p.Get(4200); !v.Known || v.Word != 7 {
		t.Fatalf("4200: %+v", v)
	}
	if f.connects != 1 {
		t.Fatalf("expected one connect, got %d", f.connects)
	}
}

func TestPollOnce_FaultKeepsEarlierRanges(t *testing.T) {
	f := newFake()
	f.regs[2600] = 5
	f.regs[2601] = 0
	f.readErr[4200] = errors.New("i/o timeout")

	p := newPoller(t, f, registers.Range{Start: 2600, Count: 2}, registers.Range{Start: 4200, Count: 1})

	err := p.pollOnce()
	if !errors.Is(err, ErrCommunication) {
		t.Fatalf("expected communication failure, got %v", err)
	}
	if v := p.Get(2600); !v.Known || v.Word != 5 {
		t.Fatalf("2600: %+v", v)
	}
	if v := p.Get(2601); !v.Known || v.Word != 0 {
		t.Fatalf("2601: %+v", v)
	}
	if p.Get(4200).Known {
		t.Fatalf("4200 must remain unknown")
	}
}

func TestPollOnce_OfflineAbortsBeforeReading(t *testing.T) {
	f := newFake()
	f.connectErr = errors.New("connection refused")

	p := newPoller(t, f, registers.Range{Start: 2600, Count: 2}, registers.Range{Start: 4200, Count: 1})

	err := p.pollOnce()
	if !errors.Is(err, ErrOffline) {
		t.Fatalf("expected offline, got %v", err)
	}
	if errors.Is(err, ErrCommunication) {
		t.Fatalf("offline must stay distinguishable")
	}
	if f.reads != 0 || f.connects != 1 {
		t.Fatalf("reads=%d connects=%d", f.reads, f.connects)
	}
}

func TestPollOnce_ExceptionSkipsOnlyThatRange(t *testing.T) {
	f := newFake()
	f.regs[2600] = 1
	f.regs[2700] = 2
	f.regs[2800] = 3
	f.readErr[2700] = &fakeException{code: 2}

	p := newPoller(t, f,
		registers.Range{Start: 2600, Count: 1},
		registers.Range{Start: 2700, Count: 1},
		registers.Range{Start: 2800, Count: 1},
	)
	p.Cache().Put(2700, 99)

	if err := p.pollOnce(); err != nil {
		t.Fatalf("exception reply must not fail the cycle: %v", err)
	}
	if v := p.Get(2700); v.Word != 99 {
		t.Fatalf("skipped range must stay untouched: %+v", v)
	}
	if v := p.Get(2800); !v.Known || v.Word != 3 {
		t.Fatalf("later range must still be read: %+v", v)
	}
	if !f.connected {
		t.Fatalf("exception reply must not drop the link")
	}
}

func TestPollOnce_ReconnectsAfterFault(t *testing.T) {
	f := newFake()
	f.readErr[2600] = errors.New("broken pipe")

	p := newPoller(t, f)

	_ = p.pollOnce()
	delete(f.readErr, 2600)

	if err := p.pollOnce(); err != nil {
		t.Fatalf("second cycle err=%v", err)
	}
	if f.connects != 2 {
		t.Fatalf("expected reconnect, connects=%d", f.connects)
	}
}

// ---- single-address refresh ----

func TestRefreshAddress(t *testing.T) {
	f := newFake()
	f.regs[2701] = 550

	p := newPoller(t, f)

	var got []Update
	p.Subscribe(func(u Update) { got = append(got, u) })

	if err := p.refreshAddress(2701); err != nil {
		t.Fatalf("refresh err=%v", err)
	}
	if v := p.Get(2701); v.Word != 550 {
		t.Fatalf("2701: %+v", v)
	}

	f.readErr[2702] = &fakeException{code: 2}
	if err := p.refreshAddress(2702); err != nil {
		t.Fatalf("exception must not raise: %v", err)
	}
	if p.Get(2702).Known {
		t.Fatalf("no value came back, cache must not change")
	}

	if len(got) != 2 || got[0].Kind != UpdateAddress || got[0].Address != 2701 || got[1].Address != 2702 {
		t.Fatalf("observers: %+v", got)
	}
}

func TestRefreshAddress_Offline(t *testing.T) {
	f := newFake()
	f.connectErr = errors.New("no route to host")

	p := newPoller(t, f)
	if err := p.refreshAddress(2701); !errors.Is(err, ErrOffline) {
		t.Fatalf("expected offline, got %v", err)
	}
}

// ---- mutator ----

func TestWriteRegister_CacheReflectsDevice(t *testing.T) {
	f := newFake()
	f.clamp = func(addr, value uint16) uint16 { return value + 1 }

	p := newPoller(t, f)

	if err := p.writeRegister(2701, 600); err != nil {
		t.Fatalf("write err=%v", err)
	}
	if v := p.Get(2701); !v.Known || v.Word != 601 {
		t.Fatalf("cache must hold the device value, got %+v", v)
	}
	if f.writes != 1 {
		t.Fatalf("writes=%d", f.writes)
	}
}

func TestWriteRegister_Failure(t *testing.T) {
	f := newFake()
	f.writeErr = &fakeException{code: 3}

	p := newPoller(t, f)

	err := p.writeRegister(2701, 600)
	if !errors.Is(err, ErrCommunication) {
		t.Fatalf("expected communication failure, got %v", err)
	}
	if ErrorCode(err) != CodeCommunication|3 {
		t.Fatalf("error code 0x%04X", ErrorCode(err))
	}
}

func TestWriteBit_UnchangedSkipsWrite(t *testing.T) {
	f := newFake()
	f.regs[2600] = 0b0101

	p := newPoller(t, f)

	if err := p.writeBit(2600, 0, true); err != nil {
		t.Fatalf("writeBit err=%v", err)
	}
	if f.writes != 0 {
		t.Fatalf("expected zero writes, got %d", f.writes)
	}
}

func TestWriteBit_ChangeWritesOnceAndRefreshes(t *testing.T) {
	f := newFake()
	f.regs[2600] = 0b0101

	p := newPoller(t, f)

	var updates int
	p.Subscribe(func(u Update) { updates++ })

	if err := p.writeBit(2600, 1, true); err != nil {
		t.Fatalf("writeBit err=%v", err)
	}
	if f.writes != 1 {
		t.Fatalf("expected one write, got %d", f.writes)
	}
	if f.reads != 2 {
		t.Fatalf("expected read-modify-write plus refresh, reads=%d", f.reads)
	}
	if v := p.Get(2600); v.Word != 0b0111 {
		t.Fatalf("cache: %016b", v.Word)
	}
	if updates != 1 {
		t.Fatalf("expected one refresh notification, got %d", updates)
	}
}

func TestWriteBits_AppliesAll(t *testing.T) {
	f := newFake()
	f.regs[2700] = 0b0110_0000

	p := newPoller(t, f)

	if err := p.writeBits(2700, map[uint]bool{0: true, 2: true, 5: false, 6: false}); err != nil {
		t.Fatalf("writeBits err=%v", err)
	}
	if f.regs[2700] != 0b0000_0101 {
		t.Fatalf("device word: %08b", f.regs[2700])
	}
}

func TestWriteBit_ReadFailure(t *testing.T) {
	f := newFake()
	f.readErr[2600] = &fakeException{code: 2}

	p := newPoller(t, f)

	if err := p.writeBit(2600, 1, true); !errors.Is(err, ErrCommunication) {
		t.Fatalf("expected communication failure, got %v", err)
	}
	if f.writes != 0 {
		t.Fatalf("no write may follow a failed read")
	}
}

func TestWriteBit_Offline(t *testing.T) {
	f := newFake()
	f.connectErr = errors.New("refused")

	p := newPoller(t, f)

	if err := p.writeBit(2600, 1, true); !errors.Is(err, ErrOffline) {
		t.Fatalf("expected offline, got %v", err)
	}
}

// ---- worker ----

func TestRun_CycleNotifiesAndServesJobs(t *testing.T) {
	f := newFake()
	f.regs[2600] = 5

	p := newPoller(t, f)

	cycles := make(chan Update, 4)
	cancelSub := p.Subscribe(func(u Update) {
		if u.Kind == UpdateCycle {
			cycles <- u
		}
	})
	defer cancelSub()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	select {
	case u := <-cycles:
		if u.Err != nil {
			t.Fatalf("first cycle err=%v", u.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no cycle notification")
	}

	if err := p.WriteBit(ctx, 2600, 1, true); err != nil {
		t.Fatalf("WriteBit err=%v", err)
	}
	if v := p.Get(2600); v.Word != 0b0111 {
		t.Fatalf("cache: %016b", v.Word)
	}

	if err := p.Refresh(ctx); err != nil {
		t.Fatalf("Refresh err=%v", err)
	}

	cancel()
	<-done

	if f.Connected() {
		t.Fatalf("transport must be closed when Run returns")
	}
}

func TestServe_ConcurrentBitWritesKeepEveryBit(t *testing.T) {
	f := newFake()
	p := newPoller(t, f)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	done := make(chan struct{})
	go func() {
		p.Serve(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for bit := uint(0); bit < 16; bit++ {
		wg.Add(2)
		go func(bit uint) {
			defer wg.Done()
			errs <- p.WriteBit(ctx, 2600, bit, true)
		}(bit)
		// refreshes race with the writes for the same word
		go func() {
			defer wg.Done()
			errs <- p.Refresh(ctx)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("job err=%v", err)
		}
	}

	f.mu.Lock()
	word, writes := f.regs[2600], f.writes
	f.mu.Unlock()

	if word != 0xFFFF {
		t.Fatalf("device word: %016b", word)
	}
	if writes != 16 {
		t.Fatalf("writes=%d, want one per bit", writes)
	}
	if v := p.Get(2600); !v.Known || v.Word != 0xFFFF {
		t.Fatalf("cache: %+v", v)
	}
}

func TestSubmit_CancelledWithoutWorker(t *testing.T) {
	p := newPoller(t, newFake())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := p.RefreshAddress(ctx, 2600); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestCycle_FailedCycleNotifiesWithError(t *testing.T) {
	f := newFake()
	f.connectErr = errors.New("refused")

	p := newPoller(t, f)

	var got Update
	p.Subscribe(func(u Update) { got = u })

	_ = p.cycle()
	if got.Kind != UpdateCycle || !errors.Is(got.Err, ErrOffline) {
		t.Fatalf("update: %+v", got)
	}
}

func TestSubscribe_Cancel(t *testing.T) {
	p := newPoller(t, newFake())

	n := 0
	cancel := p.Subscribe(func(Update) { n++ })
	_ = p.cycle()
	cancel()
	cancel()
	_ = p.cycle()

	if n != 1 {
		t.Fatalf("expected one notification, got %d", n)
	}
}

// ---- construction, identity, codes, metrics ----

func TestNew_Validation(t *testing.T) {
	r := []registers.Range{{Start: 0, Count: 1}}

	if _, err := New(Config{Interval: time.Second, Ranges: r}, nil); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if _, err := New(Config{Ranges: r}, newFake()); err == nil {
		t.Fatalf("expected error for zero interval")
	}
	if _, err := New(Config{Interval: time.Second}, newFake()); err == nil {
		t.Fatalf("expected error for no ranges")
	}
	if _, err := New(Config{Interval: time.Second, Ranges: []registers.Range{{Start: 1}}}, newFake()); err == nil {
		t.Fatalf("expected error for zero count")
	}
}

func TestUniqueID(t *testing.T) {
	cases := []struct {
		c    config.Connection
		want string
	}{
		{config.Connection{Host: "192.168.1.40", Port: 502, DeviceID: 2}, "192.168.1.40_502_2"},
		{config.Connection{SerialPort: "/dev/ttyUSB0", Baudrate: 9600, DeviceID: 3}, "/dev/ttyUSB0_3"},
		{config.Connection{Host: "hp.local", DeviceID: 2}, "hp.local_2"},
	}

	for _, c := range cases {
		if got := UniqueID(c.c); got != c.want {
			t.Fatalf("got %q want %q", got, c.want)
		}
		if UniqueID(c.c) != UniqueID(c.c) {
			t.Fatalf("must be deterministic")
		}
	}
}

func TestErrorCode(t *testing.T) {
	if ErrorCode(nil) != 0 {
		t.Fatalf("nil must be 0")
	}
	if ErrorCode(offline("poll", 2600, errors.New("x"))) != CodeOffline {
		t.Fatalf("offline code")
	}
	if ErrorCode(communication("poll", 2600, errors.New("x"))) != CodeCommunication {
		t.Fatalf("communication code")
	}
	if ErrorCode(errors.New("other")) != CodeGeneric {
		t.Fatalf("generic code")
	}
}

func TestMetrics(t *testing.T) {
	f := newFake()
	f.readErr[4200] = &fakeException{code: 2}

	m := NewMetrics(prometheus.NewRegistry())
	p, err := New(Config{
		UniqueID: "u1",
		DeviceID: 2,
		Interval: time.Hour,
		Ranges:   []registers.Range{{Start: 2600, Count: 1}, {Start: 4200, Count: 1}},
	}, f, WithMetrics(m))
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	_ = p.cycle()
	_ = p.writeBit(2600, 0, true)

	if v := testutil.ToFloat64(m.cycles.WithLabelValues("ok")); v != 1 {
		t.Fatalf("ok cycles=%v", v)
	}
	if v := testutil.ToFloat64(m.rangeReads.WithLabelValues("exception")); v != 1 {
		t.Fatalf("exception reads=%v", v)
	}
	if v := testutil.ToFloat64(m.writes.WithLabelValues("ok")); v != 1 {
		t.Fatalf("writes=%v", v)
	}
	if v := testutil.ToFloat64(m.connected); v != 1 {
		t.Fatalf("connected=%v", v)
	}
}
