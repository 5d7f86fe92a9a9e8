package terminal

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/signalsfoundry/orrery-simulator/core"
	"github.com/signalsfoundry/orrery-simulator/internal/logging"
	"github.com/signalsfoundry/orrery-simulator/kb"
	"github.com/signalsfoundry/orrery-simulator/model"
	"github.com/signalsfoundry/orrery-simulator/timectrl"
)

const (
	// defaultCamDist is how far past the focused body's surface the locked
	// view reaches, in scene units.
	defaultCamDist = 5
	zoomFactor     = 1.25
	idleRedraw     = 100 * time.Millisecond
)

// UIOption customises a UI.
type UIOption func(*UI)

// WithPoses reads body state from a knowledge base fed by the scene, and
// redraws whenever it is updated.
func WithPoses(poses *kb.KnowledgeBase) UIOption {
	return func(u *UI) { u.poses = poses }
}

// WithClock lets the space bar pause and resume the tick driver.
func WithClock(clock *timectrl.TimeController) UIOption {
	return func(u *UI) { u.clock = clock }
}

// WithAmplifier overrides the amplifier editor.
func WithAmplifier(amp *timectrl.AmplifierControl) UIOption {
	return func(u *UI) {
		if amp != nil {
			u.amp = amp
		}
	}
}

// UI is the interactive terminal front end: a top-down view locked on a
// focused body (or free over the whole scene), a status overlay and the
// keyboard bindings.
type UI struct {
	screen   tcell.Screen
	scene    *core.Scene
	renderer *Renderer
	focus    *core.Focus
	poses    *kb.KnowledgeBase
	clock    *timectrl.TimeController
	amp      *timectrl.AmplifierControl
	log      logging.Logger

	free    bool
	camDist float64
	zoom    int
	message string
}

// NewUI focuses the first root of scene. The caller owns the screen's
// Init and Fini.
func NewUI(screen tcell.Screen, scene *core.Scene, r *Renderer, log logging.Logger, opts ...UIOption) (*UI, error) {
	if log == nil {
		log = logging.Noop()
	}
	focus, err := core.NewFocus(scene)
	if err != nil {
		return nil, err
	}
	u := &UI{
		screen:   screen,
		scene:    scene,
		renderer: r,
		focus:    focus,
		log:      log,
		camDist:  defaultCamDist,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(u)
		}
	}
	if u.amp == nil {
		u.amp = timectrl.NewAmplifierControl(scene, u.clock)
	}
	return u, nil
}

// Focus exposes the navigation state.
func (u *UI) Focus() *core.Focus { return u.focus }

// HandleEvent applies one terminal event. It returns false when the user
// asked to quit.
func (u *UI) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return u.handleKey(ev)
	case *tcell.EventResize:
		u.screen.Sync()
	}
	return true
}

func (u *UI) handleKey(ev *tcell.EventKey) bool {
	u.message = ""
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		u.amp.Increase()
	case tcell.KeyDown:
		u.amp.Decrease()
	case tcell.KeyRight:
		u.amp.StepUp()
	case tcell.KeyLeft:
		u.amp.StepDown()
	case tcell.KeyEnter:
		u.commit()
	case tcell.KeyRune:
		u.handleRune(ev.Rune())
	}
	return true
}

func (u *UI) handleRune(ch rune) {
	var err error
	switch ch {
	case 'f':
		u.free = !u.free
		u.resetCamera()
	case 'd':
		u.lock()
		err = u.focus.NextSibling()
	case 'a':
		u.lock()
		err = u.focus.PrevSibling()
	case 'w':
		u.resetCamera()
		err = u.focus.Enter()
	case 's':
		u.resetCamera()
		err = u.focus.Up()
	case 'e':
		u.focus.NextChild()
	case 'q':
		u.focus.PrevChild()
	case 'c':
		u.zoom++
	case 'z':
		u.zoom--
	case ' ':
		if u.clock != nil {
			if u.clock.TogglePause() {
				u.message = "paused"
			}
		}
	}
	if err != nil {
		u.message = err.Error()
	}
}

// lock leaves free mode, as sibling navigation always does.
func (u *UI) lock() {
	u.free = false
	u.resetCamera()
}

func (u *UI) resetCamera() {
	u.camDist = defaultCamDist
	u.zoom = 0
}

func (u *UI) commit() {
	if !u.amp.Dirty() {
		return
	}
	ts, err := u.amp.Commit()
	if err != nil {
		u.message = err.Error()
		u.log.Warn(context.Background(), "time scale change rejected", logging.Err(err))
		return
	}
	u.message = fmt.Sprintf("time scale %s", ts)
}

func (u *UI) pose(id core.BodyID) (model.BodyPose, bool) {
	if u.poses != nil {
		if p, ok := u.poses.GetPose(int(id)); ok {
			return p, true
		}
	}
	p, err := u.scene.Pose(id)
	return p, err == nil
}

func (u *UI) name(id core.BodyID) string {
	if p, ok := u.pose(id); ok {
		return p.Name
	}
	return "?"
}

// View returns the current camera.
func (u *UI) View() View {
	w, _ := u.screen.Size()
	half := float64(max(w/2, 1))
	scale := math.Pow(zoomFactor, float64(u.zoom))

	if u.free {
		return View{UnitsPerCell: 1.1 * u.renderer.Extent() * scale / half}
	}

	p, _ := u.pose(u.focus.Current())
	center := core.Vec3{X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z}
	return View{Center: center, UnitsPerCell: (p.Radius + u.camDist) * scale / half}
}

// Draw repaints the whole screen.
func (u *UI) Draw() {
	u.screen.Clear()
	u.renderer.Draw(u.screen, u.View())
	u.drawStatus()
	u.screen.Show()
}

func (u *UI) drawStatus() {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	cur := u.focus.Current()

	parent := "No parent"
	if pid, err := u.scene.Parent(cur); err == nil && pid != core.NoParent {
		parent = u.name(pid)
	}
	child := "No child bodies"
	if cid, ok := u.focus.SelectedChild(); ok {
		children, _ := u.scene.Children(cur)
		idx := 0
		for i, c := range children {
			if c == cid {
				idx = i
			}
		}
		child = fmt.Sprintf("%s (%d/%d)", u.name(cid), idx+1, len(children))
	}

	ts := u.scene.TimeScale()
	paused := u.clock != nil && u.clock.Paused()

	lines := []string{
		fmt.Sprintf("[F] Free: %t  [A/D] Focus: %s  [S] Parent: %s  [W (Q/E)] Child: %s", u.free, u.name(cur), parent, child),
		fmt.Sprintf("Base ms: %d  [↑/↓] Amplifier: x%g  [←/→] Step: +%g  [Enter] Applied: %t  [Space] Paused: %t",
			ts.MsPerTick, u.amp.Pending(), u.amp.Step(), !u.amp.Dirty(), paused),
	}
	if p, ok := u.pose(cur); ok {
		lines = append(lines, fmt.Sprintf("%s (%.2f, %.2f, %.2f)  dist %.2f  spin %.1f°  tick %d",
			p.Kind, p.Position.X, p.Position.Y, p.Position.Z, p.Distance, p.SpinDeg, u.scene.TickCount()))
	}
	if u.message != "" {
		lines = append(lines, u.message)
	}
	for row, line := range lines {
		drawText(u.screen, 0, row, style, line)
	}
}

func drawText(screen tcell.Screen, col, row int, style tcell.Style, text string) {
	w, _ := screen.Size()
	for _, ch := range text {
		if col >= w {
			return
		}
		screen.SetContent(col, row, ch, nil, style)
		col++
	}
}

// Run draws and handles input until ctx is cancelled or the user quits.
func (u *UI) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := u.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	redraw := make(chan struct{}, 1)
	if u.poses != nil {
		unsubscribe := u.poses.Subscribe(func(kb.Event) {
			select {
			case redraw <- struct{}{}:
			default:
			}
		})
		defer unsubscribe()
	}

	ticker := time.NewTicker(idleRedraw)
	defer ticker.Stop()

	u.Draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if !u.HandleEvent(ev) {
				u.log.Info(ctx, "quit requested")
				return nil
			}
			u.Draw()
		case <-redraw:
			u.Draw()
		case <-ticker.C:
			u.Draw()
		}
	}
}
