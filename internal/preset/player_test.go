package preset

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Danondso/drone/internal/noise"
)

type engineCall struct {
	op   string
	gain float64
	at   time.Time
}

type mockEngine struct {
	mu       sync.Mutex
	calls    []engineCall
	startErr error
}

func (m *mockEngine) record(op string, gain float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, engineCall{op: op, gain: gain, at: time.Now()})
}

func (m *mockEngine) Start(s noise.Settings) error {
	m.record("start", s.Gain)
	return m.startErr
}

func (m *mockEngine) Stop()         { m.record("stop", 0) }
func (m *mockEngine) StopWithFade() { m.record("fade", 0) }

func (m *mockEngine) snapshot() []engineCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]engineCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *mockEngine) ops() []string {
	var ops []string
	for _, c := range m.snapshot() {
		ops = append(ops, c.op)
	}
	return ops
}

type recordingListener struct {
	mu     sync.Mutex
	events []change
}

func (l *recordingListener) PlayingChanged(id int64, playing bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, change{id: id, playing: playing})
}

func (l *recordingListener) snapshot() []change {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]change, len(l.events))
	copy(out, l.events)
	return out
}

func testPreset(id int64, gain float64) Preset {
	return Preset{ID: id, Name: "p", Gain: gain, SampleRate: 44100, BufferSize: 1024, Color: noise.White}
}

func equalOps(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPlayPresetReplacesPlayingPreset(t *testing.T) {
	eng := &mockEngine{}
	lis := &recordingListener{}
	p := NewPlayer(eng, nil, lis)

	if err := p.PlayPreset(testPreset(1, 0.3)); err != nil {
		t.Fatalf("play A: %v", err)
	}
	if err := p.PlayPreset(testPreset(2, 0.6)); err != nil {
		t.Fatalf("play B: %v", err)
	}

	if id, ok := p.Playing(); !ok || id != 2 {
		t.Errorf("expected preset 2 playing, got %d (%v)", id, ok)
	}
	// The first fade is the no-op stop before anything played.
	want := []string{"fade", "start", "fade", "start"}
	if got := eng.ops(); !equalOps(got, want) {
		t.Errorf("expected engine calls %v, got %v", want, got)
	}
	if last := eng.snapshot()[3]; last.gain != 0.6 {
		t.Errorf("expected B's gain 0.6, got %f", last.gain)
	}

	events := lis.snapshot()
	wantEvents := []change{{1, true}, {1, false}, {2, true}}
	if len(events) != len(wantEvents) {
		t.Fatalf("expected events %v, got %v", wantEvents, events)
	}
	for i := range events {
		if events[i] != wantEvents[i] {
			t.Errorf("event %d: expected %v, got %v", i, wantEvents[i], events[i])
		}
	}
	if p.Phase() != PhasePlaying {
		t.Errorf("expected phase playing, got %s", p.Phase())
	}
}

func TestTogglePreset(t *testing.T) {
	eng := &mockEngine{}
	p := NewPlayer(eng, nil)

	if err := p.TogglePreset(testPreset(1, 0.5)); err != nil {
		t.Fatal(err)
	}
	if id, ok := p.Playing(); !ok || id != 1 {
		t.Fatalf("expected preset 1 playing")
	}

	if err := p.TogglePreset(testPreset(2, 0.5)); err != nil {
		t.Fatal(err)
	}
	if id, _ := p.Playing(); id != 2 {
		t.Errorf("expected toggle of another preset to switch, got %d", id)
	}

	if err := p.TogglePreset(testPreset(2, 0.5)); err != nil {
		t.Fatal(err)
	}
	if _, ok := p.Playing(); ok {
		t.Error("expected toggle of the playing preset to stop it")
	}
	ops := eng.ops()
	if ops[len(ops)-1] != "fade" {
		t.Errorf("expected stop with fade last, got %v", ops)
	}
	if p.Phase() != PhaseStopped {
		t.Errorf("expected phase stopped, got %s", p.Phase())
	}
}

func TestStartFailureClearsPlaying(t *testing.T) {
	eng := &mockEngine{startErr: errors.New("no device")}
	lis := &recordingListener{}
	p := NewPlayer(eng, nil, lis)

	if err := p.PlayPreset(testPreset(1, 0.5)); err == nil {
		t.Fatal("expected start error")
	}
	if _, ok := p.Playing(); ok {
		t.Error("expected nothing playing after failed start")
	}
	events := lis.snapshot()
	if len(events) != 2 || events[1] != (change{1, false}) {
		t.Errorf("expected playing flag to flip back, got %v", events)
	}
}

func TestPlayRejectsInvalidPreset(t *testing.T) {
	eng := &mockEngine{}
	p := NewPlayer(eng, nil)
	if err := p.PlayPreset(Preset{ID: 1, Name: "", Gain: 0.5, SampleRate: 44100, BufferSize: 1024}); err == nil {
		t.Fatal("expected error for blank name")
	}
	if len(eng.ops()) != 0 {
		t.Errorf("expected no engine calls, got %v", eng.ops())
	}
}

func TestPresetDeleted(t *testing.T) {
	eng := &mockEngine{}
	p := NewPlayer(eng, nil)
	if err := p.PlayPreset(testPreset(1, 0.5)); err != nil {
		t.Fatal(err)
	}

	p.PresetDeleted(2)
	if id, ok := p.Playing(); !ok || id != 1 {
		t.Error("deleting another preset must not stop playback")
	}

	p.PresetDeleted(1)
	if _, ok := p.Playing(); ok {
		t.Error("expected playback stopped after deleting the playing preset")
	}
}

func TestCloseStopsAndRejectsPlay(t *testing.T) {
	eng := &mockEngine{}
	p := NewPlayer(eng, nil)
	if err := p.PlaySettings(testPreset(0, 0.3).Settings()); err != nil {
		t.Fatal(err)
	}
	if id, _ := p.Playing(); id != QuickStartID {
		t.Errorf("expected quick start id, got %d", id)
	}

	p.Close()
	if _, ok := p.Playing(); ok {
		t.Error("expected nothing playing after close")
	}
	if err := p.PlayPreset(testPreset(1, 0.5)); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestAutoBurstCycleTiming(t *testing.T) {
	const on = 80 * time.Millisecond
	const off = 50 * time.Millisecond

	eng := &mockEngine{}
	p := NewPlayer(eng, nil)
	pr := testPreset(7, 0.5)
	pr.AutoBurst = true
	pr.BurstSeconds = on.Seconds()
	pr.BurstIntervalSeconds = off.Seconds()

	if err := p.PlayPreset(pr); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	if p.Phase() != PhasePlaying {
		t.Errorf("expected playing phase early in the burst, got %s", p.Phase())
	}
	time.Sleep(on)
	if p.Phase() != PhaseSilent {
		t.Errorf("expected silent phase after the burst, got %s", p.Phase())
	}

	time.Sleep(2*(on+off) + 10*time.Millisecond)
	p.StopPlayback()
	stoppedAt := len(eng.snapshot())

	calls := eng.snapshot()
	// Skip the initial stop issued before the loop began.
	calls = calls[1 : stoppedAt-1]
	if len(calls) < 5 {
		t.Fatalf("expected at least two full cycles, got %v", eng.ops())
	}
	for i := 0; i+1 < len(calls); i++ {
		cur, next := calls[i], calls[i+1]
		elapsed := next.at.Sub(cur.at)
		var want time.Duration
		switch {
		case cur.op == "start" && next.op == "fade":
			want = on
		case cur.op == "fade" && next.op == "start":
			want = off
		default:
			t.Fatalf("unexpected call order %s -> %s", cur.op, next.op)
		}
		if elapsed < want || elapsed > want+40*time.Millisecond {
			t.Errorf("%s -> %s took %s, want ~%s", cur.op, next.op, elapsed, want)
		}
	}

	time.Sleep(on + off)
	if n := len(eng.snapshot()); n != stoppedAt {
		t.Errorf("expected no engine calls after cancel, got %d more", n-stoppedAt)
	}
	if _, ok := p.Playing(); ok {
		t.Error("expected nothing playing")
	}
	if p.Phase() != PhaseStopped {
		t.Errorf("expected phase stopped, got %s", p.Phase())
	}
}

func TestOneShotBurstClearsPlaying(t *testing.T) {
	eng := &mockEngine{}
	lis := &recordingListener{}
	p := NewPlayer(eng, nil, lis)

	if err := p.Burst(testPreset(0, 0.4).Settings(), 30*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if _, ok := p.Playing(); !ok {
		t.Error("expected burst to be playing")
	}

	deadline := time.Now().Add(time.Second)
	for {
		if _, ok := p.Playing(); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for one-shot burst to finish")
		}
		time.Sleep(5 * time.Millisecond)
	}

	want := []string{"fade", "start", "fade"}
	if got := eng.ops(); !equalOps(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	events := lis.snapshot()
	if len(events) != 2 || events[1] != (change{QuickStartID, false}) {
		t.Errorf("expected playing cleared, got %v", events)
	}
}

func TestOneShotBurstCancelledByNewPlay(t *testing.T) {
	eng := &mockEngine{}
	p := NewPlayer(eng, nil)

	if err := p.BurstPreset(Preset{ID: 4, Name: "b", Gain: 0.4, SampleRate: 44100, BufferSize: 512, BurstSeconds: 0.05}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := p.PlayPreset(testPreset(5, 0.5)); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)

	if id, ok := p.Playing(); !ok || id != 5 {
		t.Errorf("expected preset 5 still playing, got %d (%v)", id, ok)
	}
	want := []string{"fade", "start", "fade", "start"}
	if got := eng.ops(); !equalOps(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestBurstRejectsNonPositiveDuration(t *testing.T) {
	p := NewPlayer(&mockEngine{}, nil)
	if err := p.Burst(testPreset(0, 0.4).Settings(), 0); err == nil {
		t.Error("expected error for zero duration")
	}
}
