package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roach88/moreevents/internal/controller"
	"github.com/roach88/moreevents/internal/events"
	"github.com/roach88/moreevents/internal/metrics"
	"github.com/roach88/moreevents/internal/replication"
	"github.com/roach88/moreevents/internal/store"
	"github.com/roach88/moreevents/internal/text"
	"github.com/roach88/moreevents/internal/trigger"
)

// Peer names used in traces.
const (
	PeerServer = "server"
	PeerClient = "client"
)

// Options configures a run.
type Options struct {
	// Store holds persisted controller configuration. nil runs against a
	// fresh in-memory store.
	Store   *store.Store
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// Language overrides the scenario language.
	Language string
}

// peer is one participant of the session. Every peer holds its own copy of
// every controller.
type peer struct {
	name     string
	role     trigger.Role
	env      events.Env
	dispatch *replication.Dispatcher
	link     *replication.Peer
	blocks   map[int64]*controller.Block
}

func (p *peer) block(id int64) (*controller.Block, error) {
	b, ok := p.blocks[id]
	if !ok {
		return nil, fmt.Errorf("%s: no controller %d", p.name, id)
	}
	return b, nil
}

// sources resolves ids to observable blocks. Controllers resolve to the
// peer's own copy.
func (p *peer) sources(w *World, ids []int64) []trigger.Source {
	out := make([]trigger.Source, 0, len(ids))
	for _, id := range ids {
		if b, ok := p.blocks[id]; ok {
			out = append(out, b)
			continue
		}
		if e, ok := w.Entity(id); ok {
			if src, ok := e.(trigger.Source); ok {
				out = append(out, src)
			}
		}
	}
	return out
}

type session struct {
	ctx    context.Context
	sc     *Scenario
	world  *World
	store  *store.Store
	log    *slog.Logger
	clock  *Clock
	result *Result
	hub    *replication.Hub
	peers  []*peer // authoritative first
}

// Run executes sc and returns its trace and the outcome of its
// expectations. Failed expectations are reported in the result; errors are
// reserved for runs that could not complete.
func Run(ctx context.Context, sc *Scenario, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	st := opts.Store
	if st == nil {
		mem, err := store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("open scenario store: %w", err)
		}
		defer mem.Close()
		st = mem
	}
	lang := sc.Language
	if opts.Language != "" {
		lang = opts.Language
	}

	world, err := buildWorld(sc.World)
	if err != nil {
		return nil, fmt.Errorf("build world: %w", err)
	}
	s := &session{
		ctx:    ctx,
		sc:     sc,
		world:  world,
		store:  st,
		log:    log.With("scenario", sc.Name),
		clock:  NewClock(),
		result: NewResult(sc.Name),
		hub:    replication.NewHub(),
	}

	printer := text.NewPrinter(lang)
	s.join(PeerServer, trigger.Authoritative, printer, opts.Metrics)
	s.join(PeerClient, trigger.Replica, printer, opts.Metrics)

	if err := s.build(); err != nil {
		return nil, err
	}
	s.log.Debug("session ready", "controllers", len(sc.Controllers), "peers", s.hub.Len())

	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.apply(step); err != nil {
			return nil, &StepError{Index: i, Kind: step.Kind(), Err: err}
		}
	}

	s.check()
	return s.result, nil
}

func (s *session) join(name string, role trigger.Role, printer *text.Printer, m *metrics.Metrics) {
	log := s.log.With("peer", name)
	p := &peer{
		name:     name,
		role:     role,
		dispatch: replication.NewDispatcher(log, m),
		blocks:   make(map[int64]*controller.Block),
	}
	p.link = s.hub.Join(role == trigger.Authoritative, p.dispatch.Handle)
	p.env = events.Env{Role: role, Logger: log, Metrics: m, Printer: printer}
	if role == trigger.Authoritative {
		p.env.Publisher = &recorder{
			s:    s,
			peer: name,
			next: replication.NewPublisher(p.dispatch, p.link, log, m),
		}
	}
	s.peers = append(s.peers, p)
}

// replicasFirst orders the peers for configuration changes: replicas apply
// them before the authoritative peer publishes the resulting changes.
func (s *session) replicasFirst() []*peer {
	out := make([]*peer, 0, len(s.peers))
	for _, p := range s.peers {
		if p.role != trigger.Authoritative {
			out = append(out, p)
		}
	}
	for _, p := range s.peers {
		if p.role == trigger.Authoritative {
			out = append(out, p)
		}
	}
	return out
}

func (s *session) record(kind, peer string, controller int64, text string) {
	s.result.Trace = append(s.result.Trace, Entry{
		Seq:        s.clock.Next(),
		Kind:       kind,
		Peer:       peer,
		Controller: controller,
		Text:       text,
	})
}

// reject records a configuration the authoritative peer refused.
func (s *session) reject(p *peer, controller int64, err error) {
	if p.role != trigger.Authoritative {
		s.log.Debug("configuration rejected", "peer", p.name, "controller", controller, "error", err)
		return
	}
	s.log.Warn("configuration rejected", "controller", controller, "error", err)
	s.record(KindReject, p.name, controller, err.Error())
}

// recorder traces published messages before replicating them.
type recorder struct {
	s    *session
	peer string
	next events.Publisher
}

func (r *recorder) Publish(m replication.Message) {
	r.s.record(KindMessage, r.peer, m.BlockID,
		fmt.Sprintf("%s entity=%d slot=%d value=%s", m.EventType, m.EntityID, int(m.Slot), m.Value))
	r.next.Publish(m)
}

func vec(v []float64) r3.Vec {
	if len(v) < 3 {
		return r3.Vec{}
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

func nameOr(name, kind string, id int64) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("%s %d", kind, id)
}

func buildWorld(spec WorldSpec) (*World, error) {
	w := NewWorld(spec.Weathers)
	for _, p := range spec.Planets {
		w.AddPlanet(Planet{Center: vec(p.Center), Gravity: p.Gravity, Radius: p.Radius})
	}

	var errs []error
	add := func(err error) { errs = append(errs, err) }
	for _, g := range spec.Grids {
		_, err := w.AddGrid(g.ID, vec(g.Position))
		add(err)
	}
	for _, t := range spec.Thrusters {
		_, err := w.AddThruster(t.ID, nameOr(t.Name, "Thruster", t.ID), t.Thrust, t.Max)
		add(err)
	}
	for _, t := range spec.Targets {
		_, err := w.AddTarget(t.ID, vec(t.Position))
		add(err)
	}
	for _, sp := range spec.Searchers {
		sr, err := w.AddSearcher(sp.ID, nameOr(sp.Name, "Turret", sp.ID), vec(sp.Position))
		add(err)
		if t, ok := w.entities[sp.Target].(*Target); ok && err == nil {
			sr.target = t
		}
	}
	for _, p := range spec.Projectors {
		remaining := p.Total
		if p.Remaining != nil {
			remaining = *p.Remaining
		}
		_, err := w.AddProjector(p.ID, nameOr(p.Name, "Projector", p.ID), p.Total, remaining, p.Table)
		add(err)
	}
	return w, errors.Join(errs...)
}

// build creates every controller on every peer, then restores and
// configures them. Blocks exist everywhere before the first one is
// configured, so controllers can watch each other and replicated changes
// find their receivers.
func (s *session) build() error {
	for _, p := range s.peers {
		for _, c := range s.sc.Controllers {
			if err := s.attach(p, c); err != nil {
				return err
			}
		}
	}
	for _, c := range s.sc.Controllers {
		for _, p := range s.replicasFirst() {
			if err := s.restore(p, c.ID); err != nil {
				return err
			}
			s.configure(p, c.ID, c.Config)
			p.blocks[c.ID].AddBlocks(p.sources(s.world, c.Watch)...)
		}
	}
	return nil
}

func (s *session) attach(p *peer, c ControllerSpec) error {
	b := controller.NewBlock(c.ID, nameOr(c.Name, "Event Controller", c.ID),
		controller.WithGrid(c.Grid), controller.WithLogger(p.env.Logger))
	comps, err := events.AttachAll(b, s.world.Grid(c.Grid), s.world, p.env)
	if err != nil {
		return err
	}
	for _, comp := range comps {
		p.dispatch.Register(c.ID, comp)
	}
	b.OnActionTriggered(func(slot trigger.Slot) {
		s.record(KindAction, p.name, c.ID, fmt.Sprintf("action %d", int(slot)+1))
	})
	p.blocks[c.ID] = b
	return nil
}

// restore applies the stored configuration of a controller. Stored
// settings that no longer validate keep the event default.
func (s *session) restore(p *peer, id int64) error {
	b, err := p.block(id)
	if err != nil {
		return err
	}
	stored, found, err := s.store.LoadController(s.ctx, id)
	if err != nil {
		return fmt.Errorf("restore controller %d: %w", id, err)
	}
	if found {
		b.SetThreshold(stored.Threshold)
		b.SetLowerOrEqual(stored.LowerOrEqual)
		b.SetAndMode(stored.AndMode)
		b.SetWorking(stored.Working)
	}
	for _, ev := range b.Events() {
		c, ok := ev.(events.Configurable)
		if !ok {
			continue
		}
		value, ok, err := s.store.LoadSetting(s.ctx, id, c.Tag())
		if err != nil {
			return fmt.Errorf("restore controller %d: %w", id, err)
		}
		if !ok {
			continue
		}
		if err := c.SetSetting(value); err != nil {
			s.reject(p, id, err)
		}
	}
	if found && stored.SelectedEvent != "" {
		if err := selectEvent(b, stored.SelectedEvent); err != nil {
			s.reject(p, id, err)
		}
	}
	return nil
}

// configure applies cfg in a fixed order: the event setting, the block
// configuration, then the selection.
func (s *session) configure(p *peer, id int64, cfg Config) {
	b, ok := p.blocks[id]
	if !ok {
		return
	}
	if cfg.Setting != nil {
		tag := cfg.Event
		if tag == "" && b.Selected() != nil {
			tag = b.Selected().Tag()
		}
		if err := setSetting(b, tag, *cfg.Setting); err != nil {
			s.reject(p, id, err)
		}
	}
	if cfg.Threshold != nil {
		b.SetThreshold(*cfg.Threshold)
	}
	if cfg.Direction != "" {
		b.SetLowerOrEqual(cfg.Direction == trigger.LowerOrEqual.String())
	}
	if cfg.Mode != "" {
		b.SetAndMode(cfg.Mode == trigger.ModeAnd.String())
	}
	if cfg.Working != nil {
		b.SetWorking(*cfg.Working)
	}
	if cfg.Event != "" {
		if err := selectEvent(b, cfg.Event); err != nil {
			s.reject(p, id, err)
		}
	}
}

func setSetting(b *controller.Block, tag, value string) error {
	if tag == "" {
		return fmt.Errorf("controller %d: no event selected", b.EntityID())
	}
	ev, ok := b.Event(tag)
	if !ok {
		return fmt.Errorf("controller %d: unknown event %q", b.EntityID(), tag)
	}
	c, ok := ev.(events.Configurable)
	if !ok {
		return fmt.Errorf("%s has no setting", tag)
	}
	return c.SetSetting(value)
}

func selectEvent(b *controller.Block, tag string) error {
	info, ok := events.Lookup(tag)
	if !ok {
		return fmt.Errorf("controller %d: unknown event %q", b.EntityID(), tag)
	}
	return b.Select(info.ID)
}

func entityOf[T any](w *World, id int64) (T, error) {
	e, ok := w.Entity(id)
	t, isT := e.(T)
	if !ok || !isT {
		var zero T
		return zero, fmt.Errorf("no %T with id %d", zero, id)
	}
	return t, nil
}

// ticker is implemented by events polled every simulation tick.
type ticker interface {
	Tick()
}

func (s *session) tick() {
	for _, p := range s.peers {
		for _, c := range s.sc.Controllers {
			b := p.blocks[c.ID]
			if b == nil || b.Closed() {
				continue
			}
			for _, ev := range b.Events() {
				if t, ok := ev.(ticker); ok {
					t.Tick()
				}
			}
		}
	}
}

func (s *session) apply(st Step) error {
	switch {
	case st.Thrust != nil:
		t, err := entityOf[*Thruster](s.world, st.Thrust.Entity)
		if err != nil {
			return err
		}
		t.thrust = st.Thrust.Value

	case st.Projection != nil:
		pr, err := entityOf[*Projector](s.world, st.Projection.Entity)
		if err != nil {
			return err
		}
		if st.Projection.Removed {
			pr.removeProjection()
		}
		if r := st.Projection.Remaining; r != nil {
			if *r < 0 || *r > pr.total {
				return fmt.Errorf("projector %d: remaining %d out of range [0, %d]", pr.id, *r, pr.total)
			}
			pr.setRemaining(*r)
		}

	case st.Weather != nil:
		return s.world.SetWeather(st.Weather.Controller, st.Weather.Index)

	case st.Move != nil:
		e, _ := s.world.Entity(st.Move.Entity)
		m, ok := e.(interface{ moveTo(r3.Vec) })
		if !ok {
			return fmt.Errorf("entity %d cannot move", st.Move.Entity)
		}
		m.moveTo(vec(st.Move.To))

	case st.Target != nil:
		sr, err := entityOf[*Searcher](s.world, st.Target.Searcher)
		if err != nil {
			return err
		}
		var t *Target
		if st.Target.Target != 0 {
			if t, err = entityOf[*Target](s.world, st.Target.Target); err != nil {
				return err
			}
		}
		sr.lock(t)

	case st.Tick > 0:
		for range st.Tick {
			s.tick()
		}

	case st.Configure != nil:
		for _, p := range s.replicasFirst() {
			if _, err := p.block(st.Configure.Controller); err != nil {
				return err
			}
			s.configure(p, st.Configure.Controller, st.Configure.Config)
		}

	case st.Add != nil:
		for _, p := range s.replicasFirst() {
			b, err := p.block(st.Add.Controller)
			if err != nil {
				return err
			}
			b.AddBlocks(p.sources(s.world, st.Add.Entities)...)
		}

	case st.Remove != nil:
		for _, p := range s.replicasFirst() {
			b, err := p.block(st.Remove.Controller)
			if err != nil {
				return err
			}
			b.RemoveBlocks(p.sources(s.world, st.Remove.Entities)...)
		}

	case st.Close != 0:
		return s.close(st.Close)

	case st.Info != 0:
		for _, p := range s.peers {
			b, err := p.block(st.Info)
			if err != nil {
				return err
			}
			s.record(KindInfo, p.name, st.Info, b.DetailedInfo())
		}

	case st.Persist != 0:
		return s.persist(st.Persist)

	default:
		return errors.New("empty step")
	}
	return nil
}

// close removes a controller from every peer, or an entity from the world.
func (s *session) close(id int64) error {
	if _, ok := s.peers[0].blocks[id]; ok {
		for _, p := range s.replicasFirst() {
			p.blocks[id].Close()
		}
		return nil
	}
	e, _ := s.world.Entity(id)
	c, ok := e.(interface{ close() })
	if !ok {
		return fmt.Errorf("no entity %d", id)
	}
	c.close()
	return nil
}

// persist stores the authoritative configuration of a controller and the
// settings of all its events.
func (s *session) persist(id int64) error {
	p := s.peers[0]
	b, err := p.block(id)
	if err != nil {
		return err
	}
	rec := store.Controller{
		BlockID:      id,
		Threshold:    b.Threshold(),
		LowerOrEqual: b.LowerOrEqual(),
		AndMode:      b.AndMode(),
		Working:      b.Working(),
	}
	if sel := b.Selected(); sel != nil {
		rec.SelectedEvent = sel.Tag()
	}
	if err := s.store.SaveController(s.ctx, rec); err != nil {
		return err
	}

	saved := 0
	for _, ev := range b.Events() {
		c, ok := ev.(events.Configurable)
		if !ok {
			continue
		}
		if err := s.store.SaveSetting(s.ctx, id, c.Tag(), c.Setting()); err != nil {
			return err
		}
		saved++
	}
	s.record(KindPersist, p.name, id, fmt.Sprintf("configuration and %d settings", saved))
	return nil
}
