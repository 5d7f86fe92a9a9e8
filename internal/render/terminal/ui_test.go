package terminal

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/signalsfoundry/orrery-simulator/core"
	"github.com/signalsfoundry/orrery-simulator/kb"
	"github.com/signalsfoundry/orrery-simulator/timectrl"
)

func key(k tcell.Key) *tcell.EventKey { return tcell.NewEventKey(k, 0, tcell.ModNone) }

func runeKey(ch rune) *tcell.EventKey { return tcell.NewEventKey(tcell.KeyRune, ch, tcell.ModNone) }

func newTestUI(t *testing.T, opts ...UIOption) (*UI, *core.Scene, tcell.SimulationScreen) {
	t.Helper()
	screen := newSimScreen(t)
	scene, r := newRenderedScene(t)
	ui, err := NewUI(screen, scene, r, nil, opts...)
	if err != nil {
		t.Fatalf("NewUI: %v", err)
	}
	return ui, scene, screen
}

func screenText(screen tcell.SimulationScreen, row int) string {
	w, _ := screen.Size()
	var b strings.Builder
	for col := 0; col < w; col++ {
		ch, _, _, _ := screen.GetContent(col, row)
		b.WriteRune(ch)
	}
	return b.String()
}

func focusName(t *testing.T, ui *UI, scene *core.Scene) string {
	t.Helper()
	p, err := scene.Pose(ui.Focus().Current())
	if err != nil {
		t.Fatalf("Pose: %v", err)
	}
	return p.Name
}

func TestUINavigation(t *testing.T) {
	ui, scene, _ := newTestUI(t)

	steps := []struct {
		ev   *tcell.EventKey
		want string
	}{
		{runeKey('w'), "Earth"},
		{runeKey('d'), "Mars"},
		{runeKey('d'), "Earth"},
		{runeKey('a'), "Mars"},
		{runeKey('s'), "Sun"},
		{runeKey('w'), "Mars"},
		{runeKey('s'), "Sun"},
		{runeKey('q'), "Sun"},
		{runeKey('w'), "Earth"},
		{runeKey('w'), "Moon"},
	}
	for i, step := range steps {
		if !ui.HandleEvent(step.ev) {
			t.Fatalf("step %d: key should not quit", i)
		}
		if got := focusName(t, ui, scene); got != step.want {
			t.Fatalf("step %d (%q): focus = %s, want %s", i, step.ev.Rune(), got, step.want)
		}
	}

	ui.HandleEvent(runeKey('w'))
	if ui.message == "" {
		t.Fatalf("entering a leaf should report a message")
	}
}

func TestUIAmplifierEditing(t *testing.T) {
	clock := timectrl.NewTimeController(time.Unix(0, 0), 16*time.Millisecond, timectrl.Accelerated)
	ui, scene, _ := newTestUI(t, WithClock(clock))

	ui.HandleEvent(key(tcell.KeyRight))
	ui.HandleEvent(key(tcell.KeyUp))
	if got := ui.amp.Pending(); got != 110000 {
		t.Fatalf("pending amplifier = %v, want 110000", got)
	}
	if scene.TimeScale().Amplifier != 100000 {
		t.Fatalf("amplifier must not change before Enter")
	}

	ui.HandleEvent(key(tcell.KeyEnter))
	if got := scene.TimeScale().Amplifier; got != 110000 {
		t.Fatalf("committed amplifier = %v, want 110000", got)
	}
	if got := clock.Step(); got != scene.TimeScale().SimDuration() {
		t.Fatalf("clock step = %v, want %v", got, scene.TimeScale().SimDuration())
	}

	ui.HandleEvent(key(tcell.KeyLeft))
	ui.HandleEvent(key(tcell.KeyLeft))
	ui.HandleEvent(key(tcell.KeyDown))
	if got := ui.amp.Pending(); got != 109900 {
		t.Fatalf("pending amplifier = %v, want 109900", got)
	}
}

func TestUIPauseAndQuit(t *testing.T) {
	clock := timectrl.NewTimeController(time.Unix(0, 0), 16*time.Millisecond, timectrl.Accelerated)
	ui, _, _ := newTestUI(t, WithClock(clock))

	ui.HandleEvent(runeKey(' '))
	if !clock.Paused() {
		t.Fatalf("space should pause the clock")
	}
	ui.HandleEvent(runeKey(' '))
	if clock.Paused() {
		t.Fatalf("space should resume the clock")
	}

	if ui.HandleEvent(key(tcell.KeyEscape)) {
		t.Fatalf("escape should quit")
	}
	if ui.HandleEvent(key(tcell.KeyCtrlC)) {
		t.Fatalf("ctrl-c should quit")
	}
}

func TestUIZoomAndFreeMode(t *testing.T) {
	ui, _, _ := newTestUI(t)
	base := ui.View().UnitsPerCell

	ui.HandleEvent(runeKey('c'))
	if ui.View().UnitsPerCell <= base {
		t.Fatalf("zooming out should widen the view")
	}
	ui.HandleEvent(runeKey('z'))
	ui.HandleEvent(runeKey('z'))
	if ui.View().UnitsPerCell >= base {
		t.Fatalf("zooming in should narrow the view")
	}

	ui.HandleEvent(runeKey('f'))
	free := ui.View()
	if free.Center != (core.Vec3{}) || free.UnitsPerCell <= base {
		t.Fatalf("free view should be centred on the origin and wider, got %+v", free)
	}
	ui.HandleEvent(runeKey('d'))
	if ui.free {
		t.Fatalf("sibling navigation should leave free mode")
	}
}

func TestUIDrawStatus(t *testing.T) {
	poses := kb.NewKnowledgeBase()
	screen := newSimScreen(t)
	screen.SetSize(160, 24)
	r := NewRenderer()
	scene, err := core.NewScene(core.DefaultSceneConfig(), nil, core.WithRenderer(r), core.WithPublisher(poses))
	if err != nil {
		t.Fatalf("NewScene: %v", err)
	}
	if _, err := scene.AddTree(core.NoParent, sunEarthMoon()); err != nil {
		t.Fatalf("AddTree: %v", err)
	}
	if err := scene.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	ui, err := NewUI(screen, scene, r, nil, WithPoses(poses))
	if err != nil {
		t.Fatalf("NewUI: %v", err)
	}

	ui.Draw()
	top := screenText(screen, 0)
	for _, want := range []string{"Focus: Sun", "Parent: No parent", "Child: Earth (1/2)"} {
		if !strings.Contains(top, want) {
			t.Fatalf("status line %q missing %q", top, want)
		}
	}
	if second := screenText(screen, 1); !strings.Contains(second, "Amplifier: x100000") {
		t.Fatalf("second status line %q missing amplifier", second)
	}
	if third := screenText(screen, 2); !strings.Contains(third, "tick 1") {
		t.Fatalf("third status line %q missing tick", third)
	}
}

func TestUIRunStopsOnContext(t *testing.T) {
	ui, _, _ := newTestUI(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := ui.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestUIRunQuitsOnEscape(t *testing.T) {
	ui, _, screen := newTestUI(t)
	done := make(chan error, 1)
	go func() { done <- ui.Run(context.Background()) }()

	screen.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after escape")
	}
}
