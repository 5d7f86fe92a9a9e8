package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/orrery-simulator/internal/logging"
	"github.com/signalsfoundry/orrery-simulator/model"
)

// SceneConfig holds the settings shared by every body of a Scene.
type SceneConfig struct {
	MsPerTick     int
	TimeAmplifier float64
	// PixelsPerAU converts astronomical units into scene units.
	PixelsPerAU float64
	// SizeScale divides body diameters in km into scene units.
	SizeScale float64
	// OrbitDotDensity is the number of path points per scene unit of radius.
	OrbitDotDensity float64
	KeplerMode      KeplerMode
	// PathTolerance is the relative distance change that rebuilds a dynamic
	// orbit path.
	PathTolerance float64
	// Epoch is the simulated start time. Zero starts Kepler bodies at J2000
	// and satellites at their TLE epoch.
	Epoch time.Time
}

// DefaultSceneConfig returns the settings of the stock solar system view.
func DefaultSceneConfig() SceneConfig {
	return SceneConfig{
		MsPerTick:       16,
		TimeAmplifier:   100000,
		PixelsPerAU:     50,
		SizeScale:       4000,
		OrbitDotDensity: 2.5,
		KeplerMode:      KeplerStandard,
		PathTolerance:   0.01,
	}
}

// TimeScale returns the scale described by MsPerTick and TimeAmplifier.
func (c SceneConfig) TimeScale() TimeScale {
	return TimeScale{MsPerTick: c.MsPerTick, Amplifier: c.TimeAmplifier}
}

// Validate fails fast on settings that would produce NaN positions.
func (c SceneConfig) Validate() error {
	if err := c.TimeScale().Validate(); err != nil {
		return err
	}
	for name, v := range map[string]float64{
		"pixels per AU":     c.PixelsPerAU,
		"size scale":        c.SizeScale,
		"orbit dot density": c.OrbitDotDensity,
	} {
		if !(v > 0) || !isFinite(v) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidConfiguration, name, v)
		}
	}
	if c.PathTolerance < 0 || !isFinite(c.PathTolerance) {
		return fmt.Errorf("%w: path tolerance must not be negative, got %v", ErrInvalidConfiguration, c.PathTolerance)
	}
	return nil
}

// SceneMetrics receives tick and configuration measurements.
type SceneMetrics interface {
	ObserveTick(d time.Duration, err error)
	SetBodyCount(n int)
	SetTimeAmplifier(amplifier float64)
	IncRateRecalculations()
}

// PosePublisher receives a snapshot of every body after each committed tick.
type PosePublisher interface {
	PublishPoses(tick int64, poses []model.BodyPose)
}

// SceneOption customises Scene construction.
type SceneOption func(*Scene)

// WithRenderer attaches the drawing surface shape commands are sent to.
func WithRenderer(r Renderer) SceneOption {
	return func(s *Scene) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m SceneMetrics) SceneOption {
	return func(s *Scene) {
		s.metrics = m
	}
}

// WithPublisher attaches a pose publisher.
func WithPublisher(p PosePublisher) SceneOption {
	return func(s *Scene) {
		s.publisher = p
	}
}

// WithTracer overrides the tracer used for tick spans.
func WithTracer(t trace.Tracer) SceneOption {
	return func(s *Scene) {
		if t != nil {
			s.tracer = t
		}
	}
}

// Scene owns a forest of bodies and the TimeScale they are advanced with.
// All methods are safe for concurrent use.
type Scene struct {
	mu sync.Mutex

	cfg SceneConfig
	ts  TimeScale

	bodies  []*Body
	roots   []BodyID
	byName  map[string]BodyID
	pending map[BodyID]Vec3
	tick    int64

	log       logging.Logger
	renderer  Renderer
	metrics   SceneMetrics
	publisher PosePublisher
	tracer    trace.Tracer
}

// NewScene validates cfg and returns an empty Scene.
func NewScene(cfg SceneConfig, log logging.Logger, opts ...SceneOption) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Noop()
	}
	s := &Scene{
		cfg:      cfg,
		ts:       cfg.TimeScale(),
		byName:   make(map[string]BodyID),
		pending:  make(map[BodyID]Vec3),
		log:      log,
		renderer: NopRenderer{},
		tracer:   otel.Tracer("github.com/signalsfoundry/orrery-simulator/core"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.metrics != nil {
		s.metrics.SetTimeAmplifier(s.ts.Amplifier)
		s.metrics.SetBodyCount(0)
	}
	return s, nil
}

// Config returns the scene settings.
func (s *Scene) Config() SceneConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// AddBody attaches a single body, ignoring def.Children, under parent. Pass
// NoParent to add a root.
func (s *Scene) AddBody(parent BodyID, def model.BodyDefinition) (BodyID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mark := len(s.bodies)
	id, err := s.addLocked(parent, def)
	if err != nil {
		s.rollbackLocked(mark)
		return 0, err
	}
	s.bodiesChangedLocked()
	return id, nil
}

// AddTree attaches def and all of its descendants under parent. Either the
// whole tree is added or nothing is.
func (s *Scene) AddTree(parent BodyID, def model.BodyDefinition) (BodyID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mark := len(s.bodies)
	id, err := s.addTreeLocked(parent, def)
	if err != nil {
		s.rollbackLocked(mark)
		return 0, err
	}
	s.bodiesChangedLocked()
	return id, nil
}

// AddScenario adds every top-level body of sc as a root, in order, and
// returns the new roots.
func (s *Scene) AddScenario(sc model.Scenario) ([]BodyID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mark := len(s.bodies)
	roots := make([]BodyID, 0, len(sc.Bodies))
	for _, def := range sc.Bodies {
		id, err := s.addTreeLocked(NoParent, def)
		if err != nil {
			s.rollbackLocked(mark)
			return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
		roots = append(roots, id)
	}
	s.bodiesChangedLocked()
	s.log.Info(context.Background(), "scenario loaded",
		logging.String("scenario", sc.Name),
		logging.Int("roots", len(roots)),
		logging.Int("bodies", sc.Count()),
	)
	return roots, nil
}

func (s *Scene) addTreeLocked(parent BodyID, def model.BodyDefinition) (BodyID, error) {
	id, err := s.addLocked(parent, def)
	if err != nil {
		return 0, err
	}
	for _, child := range def.Children {
		if _, err := s.addTreeLocked(id, child); err != nil {
			return 0, fmt.Errorf("%s: %w", def.Name, err)
		}
	}
	return id, nil
}

func (s *Scene) addLocked(parent BodyID, def model.BodyDefinition) (BodyID, error) {
	if def.Name == "" {
		return 0, fmt.Errorf("%w: body name is required", ErrInvalidConfiguration)
	}
	if _, exists := s.byName[def.Name]; exists {
		return 0, fmt.Errorf("%w: body %q already exists", ErrInvalidConfiguration, def.Name)
	}
	root := parent == NoParent
	if !root && !s.validLocked(parent) {
		return 0, fmt.Errorf("%w: parent %d of %q", ErrBodyNotFound, parent, def.Name)
	}
	if !(def.DiameterKm > 0) {
		return 0, fmt.Errorf("%w: %q diameter must be positive, got %v", ErrInvalidConfiguration, def.Name, def.DiameterKm)
	}

	orbit, err := buildOrbitModel(def.Orbit, root, s.cfg, s.ts)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", def.Name, err)
	}
	spin, err := rotationRateFor(def.RotationHours, s.ts)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", def.Name, err)
	}
	col, err := ParseColor(def.Color)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", def.Name, err)
	}

	frame := ParentFrame{}
	if !root {
		frame = s.bodies[parent].frame()
	}
	state, err := orbit.Place(frame)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", def.Name, err)
	}

	id := BodyID(len(s.bodies))
	b := &Body{
		id:            id,
		name:          def.Name,
		parent:        parent,
		radius:        (def.DiameterKm / s.cfg.SizeScale) / 2,
		obliquityDeg:  def.ObliquityDeg,
		rotationHours: def.RotationHours,
		rotationRate:  spin,
		model:         orbit,
		state:         state,
		color:         def.Color,
		appearance:    Appearance{Name: def.Name, Color: col, Texture: def.Texture},
	}

	if err := s.createShapesLocked(b, def); err != nil {
		s.removeShapesLocked(b)
		return 0, fmt.Errorf("%s: %w", def.Name, err)
	}

	s.bodies = append(s.bodies, b)
	s.byName[b.name] = id
	if root {
		s.roots = append(s.roots, id)
	} else {
		p := s.bodies[parent]
		p.children = append(p.children, id)
	}

	s.log.Debug(context.Background(), "body added",
		logging.String("body", b.name),
		logging.Int("id", int(id)),
		logging.Int("parent", int(parent)),
		logging.String("orbit", string(orbit.Kind())),
	)
	return id, nil
}

func (s *Scene) createShapesLocked(b *Body, def model.BodyDefinition) error {
	var err error
	axis := Vec3{X: -90, Y: b.obliquityDeg}
	if b.shape, err = s.renderer.CreateSphere(b.state.Position, b.radius, axis, b.appearance); err != nil {
		return err
	}
	for _, rd := range def.Rings {
		app := b.appearance
		if rd.Color != "" {
			if app.Color, err = ParseColor(rd.Color); err != nil {
				return err
			}
		}
		if rd.Texture != "" {
			app.Texture = rd.Texture
		}
		r := ring{radius: rd.RadiusKm / s.cfg.SizeScale, tiltDeg: rd.TiltDeg}
		if r.shape, err = s.renderer.CreateRing(b.state.Position, r.radius, r.tiltDeg, app); err != nil {
			return err
		}
		b.rings = append(b.rings, r)
	}

	if b.parent == NoParent {
		return nil
	}
	geom := b.model.Path(b.state)
	if geom.RadiusA <= 0 || geom.RadiusB <= 0 {
		return nil
	}
	path, err := BuildEllipsePath(geom.RadiusA, geom.RadiusB, s.cfg.OrbitDotDensity, geom.TiltDeg)
	if err != nil {
		return err
	}
	path.Anchor = s.bodies[b.parent].pathAnchor()
	if b.pathShape, err = s.renderer.CreatePointSet(path.World()); err != nil {
		return err
	}
	b.path = &path
	return nil
}

// removeShapesLocked deletes every shape b has sent to the renderer.
func (s *Scene) removeShapesLocked(b *Body) {
	handles := []ShapeHandle{b.pathShape}
	for i := len(b.rings) - 1; i >= 0; i-- {
		handles = append(handles, b.rings[i].shape)
	}
	handles = append(handles, b.shape)
	for _, h := range handles {
		if h == NoShape {
			continue
		}
		if err := s.renderer.Remove(h); err != nil {
			s.log.Warn(context.Background(), "renderer remove failed",
				logging.String("body", b.name), logging.Int("shape", int(h)), logging.Err(err))
		}
	}
	b.shape, b.pathShape, b.rings = NoShape, NoShape, nil
}

// rollbackLocked drops every body with an ID at or past mark, along with
// their shapes.
func (s *Scene) rollbackLocked(mark int) {
	if mark >= len(s.bodies) {
		return
	}
	for i := len(s.bodies) - 1; i >= mark; i-- {
		b := s.bodies[i]
		s.removeShapesLocked(b)
		delete(s.byName, b.name)
		delete(s.pending, b.id)
	}
	s.bodies = s.bodies[:mark]
	s.roots = truncateIDs(s.roots, mark)
	for _, b := range s.bodies {
		b.children = truncateIDs(b.children, mark)
	}
}

func truncateIDs(ids []BodyID, mark int) []BodyID {
	out := ids[:0]
	for _, id := range ids {
		if int(id) < mark {
			out = append(out, id)
		}
	}
	return out
}

func (s *Scene) bodiesChangedLocked() {
	if s.metrics != nil {
		s.metrics.SetBodyCount(len(s.bodies))
	}
}

func (s *Scene) validLocked(id BodyID) bool {
	return id >= 0 && int(id) < len(s.bodies)
}

func (s *Scene) bodyLocked(id BodyID) (*Body, error) {
	if !s.validLocked(id) {
		return nil, fmt.Errorf("%w: id %d", ErrBodyNotFound, id)
	}
	return s.bodies[id], nil
}

func (b *Body) frame() ParentFrame {
	return ParentFrame{Position: b.state.Position, OriginX: b.state.OriginX, OriginY: b.state.OriginY}
}

// pathAnchor is where a child's orbit path is centred.
func (b *Body) pathAnchor() Vec3 {
	return b.state.Position
}

// Lookup returns the ID of the body with the given name.
func (s *Scene) Lookup(name string) (BodyID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBodyNotFound, name)
	}
	return id, nil
}

// Roots returns the root bodies in registration order.
func (s *Scene) Roots() []BodyID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]BodyID(nil), s.roots...)
}

// Children returns a body's children in insertion order.
func (s *Scene) Children(id BodyID) ([]BodyID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.bodyLocked(id)
	if err != nil {
		return nil, err
	}
	return append([]BodyID(nil), b.children...), nil
}

// Parent returns a body's parent, or NoParent for a root.
func (s *Scene) Parent(id BodyID) (BodyID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.bodyLocked(id)
	if err != nil {
		return 0, err
	}
	return b.parent, nil
}

// Len returns the number of bodies.
func (s *Scene) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bodies)
}

// Pose returns the committed state of one body.
func (s *Scene) Pose(id BodyID) (model.BodyPose, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.bodyLocked(id)
	if err != nil {
		return model.BodyPose{}, err
	}
	return b.pose(), nil
}

// Snapshot returns the committed state of every body, ordered by ID.
func (s *Scene) Snapshot() []model.BodyPose {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Scene) snapshotLocked() []model.BodyPose {
	poses := make([]model.BodyPose, len(s.bodies))
	for i, b := range s.bodies {
		poses[i] = b.pose()
	}
	return poses
}

// Rates returns the per-tick rates currently applied to a body.
func (s *Scene) Rates(id BodyID) (BodyRates, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.bodyLocked(id)
	if err != nil {
		return BodyRates{}, err
	}
	r := b.model.Rates()
	r.RotationDegPerTick = b.rotationRate
	return r, nil
}

// Path returns a body's orbit path. Roots and bodies without a drawable
// orbit return a path with no points.
func (s *Scene) Path(id BodyID) (OrbitPath, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.bodyLocked(id)
	if err != nil {
		return OrbitPath{}, err
	}
	if b.path == nil {
		return OrbitPath{}, nil
	}
	p := *b.path
	p.Points = append([]Vec3(nil), b.path.Points...)
	return p, nil
}

// TimeScale returns the active time scale.
func (s *Scene) TimeScale() TimeScale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ts
}

// TickCount returns the number of committed ticks.
func (s *Scene) TickCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// SetTimeScale recalculates every body's rates for ts. The change applies to
// the whole tree before the next tick, or not at all.
func (s *Scene) SetTimeScale(ts TimeScale) error {
	if err := ts.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	models := make([]OrbitModel, len(s.bodies))
	spins := make([]float64, len(s.bodies))
	for i, b := range s.bodies {
		m, err := b.model.Retime(ts)
		if err != nil {
			return fmt.Errorf("%s: %w", b.name, err)
		}
		spin, err := rotationRateFor(b.rotationHours, ts)
		if err != nil {
			return fmt.Errorf("%s: %w", b.name, err)
		}
		models[i], spins[i] = m, spin
	}
	for i, b := range s.bodies {
		b.model, b.rotationRate = models[i], spins[i]
	}
	s.ts = ts
	s.cfg.MsPerTick, s.cfg.TimeAmplifier = ts.MsPerTick, ts.Amplifier

	if s.metrics != nil {
		s.metrics.IncRateRecalculations()
		s.metrics.SetTimeAmplifier(ts.Amplifier)
	}
	s.log.Info(context.Background(), "time scale changed",
		logging.Int("ms_per_tick", ts.MsPerTick),
		logging.Float64("amplifier", ts.Amplifier),
	)
	return nil
}

// TranslateRoot moves a root, and with it its whole subtree, by delta on the
// next tick. Calls before a tick accumulate.
func (s *Scene) TranslateRoot(id BodyID, delta Vec3) error {
	if !delta.IsFinite() {
		return fmt.Errorf("%w: translation %v", ErrDegenerateGeometry, delta)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.bodyLocked(id)
	if err != nil {
		return err
	}
	if b.parent != NoParent {
		return fmt.Errorf("%w: %q", ErrNotRoot, b.name)
	}
	s.pending[id] = s.pending[id].Add(delta)
	return nil
}

// Tick advances every root, in registration order, and its subtree by one
// frame. Parents are always advanced before their children. The new states
// are staged first and only committed if every body succeeded; on error the
// scene is left exactly as it was.
func (s *Scene) Tick(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "orrery.Scene.Tick",
		trace.WithAttributes(
			attribute.Int64("orrery.tick", s.tick+1),
			attribute.Int("orrery.bodies", len(s.bodies)),
		))
	defer span.End()

	start := time.Now()
	err := s.tickLocked(ctx)
	if s.metrics != nil {
		s.metrics.ObserveTick(time.Since(start), err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.log.Error(ctx, "tick aborted",
			logging.Int64("tick", s.tick+1),
			logging.Err(err),
		)
		return err
	}
	return nil
}

func (s *Scene) tickLocked(ctx context.Context) error {
	staged := make([]KinematicState, len(s.bodies))
	for _, root := range s.roots {
		if err := s.stageLocked(root, s.pending[root], staged); err != nil {
			return err
		}
	}

	for i, b := range s.bodies {
		b.state = staged[i]
		s.renderLocked(ctx, b)
	}
	clear(s.pending)
	s.tick++

	if s.publisher != nil {
		s.publisher.PublishPoses(s.tick, s.snapshotLocked())
	}
	return nil
}

// stageLocked computes the next state of id and its subtree into staged.
// parentDelta is how far the parent moved this tick, or the external
// translation for a root.
func (s *Scene) stageLocked(id BodyID, parentDelta Vec3, staged []KinematicState) error {
	b := s.bodies[id]

	frame := ParentFrame{}
	if b.parent != NoParent {
		ps := staged[b.parent]
		frame = ParentFrame{Position: ps.Position, OriginX: ps.OriginX, OriginY: ps.OriginY}
	}

	next, err := b.model.Step(b.state, frame, parentDelta)
	if err != nil {
		return fmt.Errorf("%s: %w", b.name, err)
	}
	if !next.Position.IsFinite() {
		return fmt.Errorf("%s: %w: position %v", b.name, ErrDegenerateGeometry, next.Position)
	}
	next.SpinDeg = normalizeDegrees(b.state.SpinDeg + b.rotationRate)
	staged[id] = next

	delta := next.Position.Sub(b.state.Position)
	for _, child := range b.children {
		if err := s.stageLocked(child, delta, staged); err != nil {
			return err
		}
	}
	return nil
}

// renderLocked mirrors a committed state change onto the renderer. Renderer
// failures are logged; the committed state stays authoritative.
func (s *Scene) renderLocked(ctx context.Context, b *Body) {
	warn := func(op string, err error) {
		if err != nil {
			s.log.Warn(ctx, "renderer command failed",
				logging.String("body", b.name),
				logging.String("op", op),
				logging.Err(err),
			)
		}
	}

	warn("set_position", s.renderer.SetPosition(b.shape, b.state.Position))
	if b.rotationRate != 0 {
		warn("rotate_relative", s.renderer.RotateRelative(b.shape, b.rotationRate))
	}
	for _, r := range b.rings {
		warn("set_position", s.renderer.SetPosition(r.shape, b.state.Position))
	}

	if b.path == nil {
		return
	}
	anchor := s.bodies[b.parent].pathAnchor()
	geom := b.model.Path(b.state)
	if geom.Dynamic && geom.RadiusA > 0 && b.path.NeedsRebuild(geom.RadiusA, s.cfg.PathTolerance) {
		path, err := BuildEllipsePath(geom.RadiusA, geom.RadiusB, s.cfg.OrbitDotDensity, geom.TiltDeg)
		if err != nil {
			warn("build_path", err)
			return
		}
		path.Anchor = anchor
		b.path = &path
		warn("update_point_set", s.renderer.UpdatePointSet(b.pathShape, path.World()))
		return
	}
	if delta := anchor.Sub(b.path.Anchor); delta != (Vec3{}) {
		b.path.Anchor = anchor
		warn("move", s.renderer.Move(b.pathShape, delta))
	}
}
