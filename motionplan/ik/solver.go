package ik

import (
	"context"
	"math"
	"slices"

	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/kinetree/arena"
	"go.viam.com/kinetree/kinematics"
	"go.viam.com/kinetree/logging"
	"go.viam.com/kinetree/referenceframe"
	spatial "go.viam.com/kinetree/spatialmath"
	"go.viam.com/kinetree/utils"
)

const (
	defaultMaxIterations = 200
	defaultTolerance     = 1e-6
	defaultDamping       = 0.05
)

// ErrNotConverged is returned with the best parameters found when the effectors did not reach their targets.
var ErrNotConverged = errors.New("inverse kinematics did not converge")

// Option configures a Solver.
type Option func(*config)

type config struct {
	maxIterations int
	tolerance     float64
	damping       float64
	active        []arena.NodeID
	metric        func(targets map[arena.NodeID]r3.Vector) StateMetric
}

// WithMaxIterations bounds the number of damped least squares steps.
func WithMaxIterations(n int) Option {
	return func(c *config) {
		c.maxIterations = n
	}
}

// WithTolerance sets the largest remaining distance between an effector and its target that counts as reached.
func WithTolerance(tolerance float64) Option {
	return func(c *config) {
		c.tolerance = tolerance
	}
}

// WithDamping sets λ in dq = Jᵀ(JJᵀ + λ²I)⁻¹e. Zero gives the plain pseudo inverse, which fails near singularities.
func WithDamping(damping float64) Option {
	return func(c *config) {
		c.damping = damping
	}
}

// WithActiveJoints restricts the joints the solver may move. By default every single axis joint above an
// effector is active.
func WithActiveJoints(ids ...arena.NodeID) Option {
	return func(c *config) {
		c.active = slices.Clone(ids)
	}
}

// WithMetric replaces the score used to pick the best configuration seen. It does not change the step direction
// or the convergence test, which always use the effector distances.
func WithMetric(metric func(targets map[arena.NodeID]r3.Vector) StateMetric) Option {
	return func(c *config) {
		c.metric = metric
	}
}

// Info describes a solve.
type Info struct {
	Iterations int
	// SquaredError is the score of the returned parameters, the sum of squared effector distances by default.
	SquaredError float64
	Converged    bool
	// Trace holds the score before every step.
	Trace []float64
	// JointDistance is how far the returned parameters are from the seed, see JointMetric.
	JointDistance float64
}

// ErrorStats summarizes the error trace of a solve.
type ErrorStats struct {
	Min, Max, Mean, Median float64
}

// ErrorStats returns summary statistics of the squared error over the iterations.
func (i Info) ErrorStats() (ErrorStats, error) {
	data := stats.Float64Data(i.Trace)
	var out ErrorStats
	var err error
	if out.Min, err = data.Min(); err != nil {
		return ErrorStats{}, err
	}
	if out.Max, err = data.Max(); err != nil {
		return ErrorStats{}, err
	}
	if out.Mean, err = data.Mean(); err != nil {
		return ErrorStats{}, err
	}
	if out.Median, err = data.Median(); err != nil {
		return ErrorStats{}, err
	}
	return out, nil
}

// Solver is a damped least squares inverse kinematics solver over a skeleton.
type Solver[T spatial.Transformation[T]] struct {
	skel   *kinematics.Skeleton[T]
	logger logging.Logger
	cfg    config
}

// NewSolver returns a solver for skel.
func NewSolver[T spatial.Transformation[T]](skel *kinematics.Skeleton[T], logger logging.Logger, opts ...Option) (*Solver[T], error) {
	cfg := config{
		maxIterations: defaultMaxIterations,
		tolerance:     defaultTolerance,
		damping:       defaultDamping,
		metric:        NewPositionOnlyMetric,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxIterations <= 0 {
		return nil, errors.Errorf("max iterations must be positive, got %d", cfg.maxIterations)
	}
	if cfg.tolerance <= 0 || cfg.damping < 0 {
		return nil, errors.Errorf("invalid tolerance %g or damping %g", cfg.tolerance, cfg.damping)
	}
	for _, id := range cfg.active {
		bone, err := skel.Bone(id)
		if err != nil {
			return nil, err
		}
		if _, ok := bone.Joint().(axisJoint); !ok {
			return nil, errors.Wrapf(utils.NewUnimplementedInterfaceError("single axis joint", bone.Joint()), "bone %q can not be active", bone.Name())
		}
	}
	return &Solver[T]{skel: skel, logger: logger, cfg: cfg}, nil
}

// activeJoints returns the configured active joints, or every single axis joint above an effector.
func (s *Solver[T]) activeJoints(effectors []arena.NodeID) ([]arena.NodeID, error) {
	if len(s.cfg.active) > 0 {
		return s.cfg.active, nil
	}
	var active []arena.NodeID
	for i := 0; i < s.skel.Len(); i++ {
		id := arena.NodeID(i)
		bone, err := s.skel.Bone(id)
		if err != nil {
			return nil, err
		}
		if _, ok := bone.Joint().(axisJoint); !ok {
			continue
		}
		if slices.ContainsFunc(effectors, func(e arena.NodeID) bool { return s.skel.IsAncestor(id, e) }) {
			active = append(active, id)
		}
	}
	if len(active) == 0 {
		return nil, errors.New("no joint can move the effectors")
	}
	return active, nil
}

// Solve moves the active joints, starting from seed, until every effector in targets is within tolerance of
// its target position. Parameters of inactive joints are passed through from seed. When the targets are not
// reached the best parameters found are returned together with ErrNotConverged.
func (s *Solver[T]) Solve(
	ctx context.Context, seed kinematics.Assignment, targets map[arena.NodeID]r3.Vector,
) (kinematics.Assignment, Info, error) {
	if len(targets) == 0 {
		return nil, Info{}, errors.New("no targets")
	}
	effectors := make([]arena.NodeID, 0, len(targets))
	for id := range targets {
		effectors = append(effectors, id)
	}
	slices.Sort(effectors)
	active, err := s.activeJoints(effectors)
	if err != nil {
		return nil, Info{}, err
	}

	current := kinematics.Assignment{}
	for id, p := range seed {
		current[id] = p
	}
	q := make([]float64, len(active))
	limits := make([]referenceframe.Limit, len(active))
	components := make([]referenceframe.Component, len(active))
	for i, id := range active {
		bone, err := s.skel.Bone(id)
		if err != nil {
			return nil, Info{}, err
		}
		joint := bone.Joint().(axisJoint)
		components[i] = joint.Component()
		limits[i] = bone.Joint().Limits()[0]
		switch p := current[id].(type) {
		case nil:
			if def, ok := bone.Joint().Default(); ok {
				q[i] = def.Component(components[i])
			}
		case referenceframe.Scalar:
			q[i] = float64(p)
		case referenceframe.Pair:
			q[i] = p.Component(components[i])
		}
		q[i] = limits[i].Clamp(q[i])
	}
	apply := func() {
		for i, id := range active {
			if pair, ok := current[id].(referenceframe.Pair); ok {
				if components[i] == referenceframe.V {
					pair.V = q[i]
				} else {
					pair.U = q[i]
				}
				current[id] = pair
				continue
			}
			current[id] = referenceframe.Scalar(q[i])
		}
	}
	apply()

	metric := s.cfg.metric(targets)
	info := Info{}
	errVec := make([]float64, 3*len(effectors))
	best := math.Inf(1)
	bestQ := slices.Clone(q)
	for info.Iterations = 0; info.Iterations < s.cfg.maxIterations; info.Iterations++ {
		if err := ctx.Err(); err != nil {
			return nil, info, err
		}
		poses, err := kinematics.Evaluate(ctx, s.skel, current)
		if err != nil {
			return nil, info, err
		}
		worst := 0.
		state := &State{Points: make(map[arena.NodeID]r3.Vector, len(effectors)), Configuration: current}
		for i, id := range effectors {
			p, _ := poses.Point(id)
			state.Points[id] = p
			d := targets[id].Sub(p)
			errVec[3*i], errVec[3*i+1], errVec[3*i+2] = d.X, d.Y, d.Z
			worst = math.Max(worst, d.Norm())
		}
		sq := metric(state)
		info.Trace = append(info.Trace, sq)
		if sq < best {
			best = sq
			copy(bestQ, q)
		}
		if worst < s.cfg.tolerance {
			best = sq
			copy(bestQ, q)
			info.Converged = true
			break
		}

		jac, err := Jacobian(s.skel, poses, active, effectors)
		if err != nil {
			return nil, info, err
		}
		dq, err := s.step(jac, errVec)
		if err != nil {
			return nil, info, err
		}
		for i, id := range active {
			q[i] += dq[i]
			bone, _ := s.skel.Bone(id)
			if bone.Joint().Kind() == referenceframe.RevoluteJoint && limits[i].IsUnbounded() {
				q[i] = utils.WrapAngle(q[i])
			}
			q[i] = limits[i].Clamp(q[i])
		}
		apply()
	}

	copy(q, bestQ)
	apply()
	info.SquaredError = best
	info.JointDistance = JointMetric(&Segment{StartConfiguration: seed, EndConfiguration: current})
	s.logger.Debugw("solved", "skeleton", s.skel.Name(), "iterations", info.Iterations, "error", best, "converged", info.Converged)
	if !info.Converged {
		return current, info, ErrNotConverged
	}
	return current, info, nil
}

// step returns dq = Jᵀ(JJᵀ + λ²I)⁻¹e.
func (s *Solver[T]) step(jac *mat.Dense, e []float64) ([]float64, error) {
	rows, cols := jac.Dims()
	var a mat.Dense
	a.Mul(jac, jac.T())
	lambda2 := s.cfg.damping * s.cfg.damping
	for i := 0; i < rows; i++ {
		a.Set(i, i, a.At(i, i)+lambda2)
	}
	var x mat.VecDense
	if err := x.SolveVec(&a, mat.NewVecDense(rows, e)); err != nil {
		return nil, spatial.NewNumericError("damped least squares", errors.Wrap(spatial.ErrSingular, err.Error()))
	}
	dq := mat.NewVecDense(cols, nil)
	dq.MulVec(jac.T(), &x)
	return dq.RawVector().Data, nil
}
