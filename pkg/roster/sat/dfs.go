package sat

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// DFS is the in-process solver: depth-first branch and bound with unit
// propagation over the boolean groups and bound propagation over the linear
// constraints. Worker parallelism is a portfolio of independent searches
// with different branching orders; the first definitive outcome wins.
type DFS struct {
	names     []string
	groups    []group
	linears   []linear
	objective []Term

	varGroups [][]int32
	varLinear [][]linOcc
	objCoeff  []int
	prepared  bool
}

type group struct {
	vars  []BoolVar
	exact bool
}

type linear struct {
	terms []Term
	bound int
}

type linOcc struct {
	idx   int32
	coeff int
}

// NewDFS creates an empty solver.
func NewDFS() *DFS {
	return &DFS{}
}

// NewBoolVar adds a boolean decision variable.
func (d *DFS) NewBoolVar(name string) BoolVar {
	d.names = append(d.names, name)
	d.prepared = false
	return BoolVar(len(d.names) - 1)
}

// AddExactlyOne requires exactly one of vars to be true.
func (d *DFS) AddExactlyOne(vars ...BoolVar) {
	d.groups = append(d.groups, group{vars: vars, exact: true})
	d.prepared = false
}

// AddAtMostOne requires at most one of vars to be true.
func (d *DFS) AddAtMostOne(vars ...BoolVar) {
	d.groups = append(d.groups, group{vars: vars, exact: false})
	d.prepared = false
}

// AddLinearLE requires sum(coeff*var) <= bound.
func (d *DFS) AddLinearLE(terms []Term, bound int) {
	cp := make([]Term, len(terms))
	copy(cp, terms)
	d.linears = append(d.linears, linear{terms: cp, bound: bound})
	d.prepared = false
}

// Minimize sets the linear objective.
func (d *DFS) Minimize(terms []Term) {
	d.objective = make([]Term, len(terms))
	copy(d.objective, terms)
	d.prepared = false
}

// NumVars returns the number of variables added so far.
func (d *DFS) NumVars() int {
	return len(d.names)
}

// prepare builds the per-variable occurrence lists.
func (d *DFS) prepare() {
	if d.prepared {
		return
	}
	n := len(d.names)
	d.varGroups = make([][]int32, n)
	d.varLinear = make([][]linOcc, n)
	d.objCoeff = make([]int, n)

	for gi := range d.groups {
		for _, v := range d.groups[gi].vars {
			d.varGroups[v] = append(d.varGroups[v], int32(gi))
		}
	}
	for li := range d.linears {
		for _, t := range d.linears[li].terms {
			if t.Coeff == 0 {
				continue
			}
			d.varLinear[t.Var] = append(d.varLinear[t.Var], linOcc{idx: int32(li), coeff: t.Coeff})
		}
	}
	for _, t := range d.objective {
		d.objCoeff[t.Var] += t.Coeff
	}
	d.prepared = true
}

// Solve runs the search under the given options.
func (d *DFS) Solve(ctx context.Context, opts Options) Outcome {
	start := time.Now()
	d.prepare()

	// Trivially broken models never reach the search.
	for gi := range d.groups {
		if d.groups[gi].exact && len(d.groups[gi].vars) == 0 {
			return Outcome{Status: StatusInfeasible, Elapsed: time.Since(start)}
		}
	}

	budget := opts.Budget
	if budget <= 0 {
		budget = time.Minute
	}
	deadline := start.Add(budget)

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make([]Outcome, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			var rng *rand.Rand
			if opts.Seed != 0 || w > 0 {
				rng = rand.New(rand.NewSource(opts.Seed + int64(w)*7919))
			}
			st := newSearchState(d, runCtx, deadline, rng, opts.FirstSolution)
			outcomes[w] = st.run()
			if outcomes[w].Status != StatusUnknown {
				cancel()
			}
		}(w)
	}
	wg.Wait()

	best := merge(outcomes)
	best.Elapsed = time.Since(start)
	return best
}

// merge picks the strongest outcome from a portfolio: a proven-optimal or
// best feasible assignment first, then a proof of infeasibility.
func merge(outcomes []Outcome) Outcome {
	var result Outcome
	result.Status = StatusUnknown
	for _, o := range outcomes {
		result.Nodes += o.Nodes
		switch o.Status {
		case StatusFeasible:
			if result.Status != StatusFeasible || o.Objective < result.Objective {
				values := o.Values
				nodes := result.Nodes
				result = o
				result.Values = values
				result.Nodes = nodes
			}
		case StatusInfeasible:
			if result.Status == StatusUnknown {
				nodes := result.Nodes
				result = o
				result.Nodes = nodes
			}
		}
	}
	return result
}

// searchState is the per-worker mutable search state.
type searchState struct {
	m   *DFS
	ctx context.Context

	val    []int8 // -1 unassigned, 0 false, 1 true
	trail  []BoolVar
	gTrue  []int32
	gFree  []int32
	linMin []int64
	objMin int64

	found   bool
	best    []bool
	bestObj int64

	firstOnly bool
	stop      bool
	timedOut  bool
	nodes     int64
	deadline  time.Time
	rng       *rand.Rand
}

func newSearchState(m *DFS, ctx context.Context, deadline time.Time, rng *rand.Rand, firstOnly bool) *searchState {
	n := len(m.names)
	st := &searchState{
		m:         m,
		ctx:       ctx,
		val:       make([]int8, n),
		gTrue:     make([]int32, len(m.groups)),
		gFree:     make([]int32, len(m.groups)),
		linMin:    make([]int64, len(m.linears)),
		best:      make([]bool, n),
		firstOnly: firstOnly,
		deadline:  deadline,
		rng:       rng,
	}
	for i := range st.val {
		st.val[i] = -1
	}
	for gi := range m.groups {
		st.gFree[gi] = int32(len(m.groups[gi].vars))
	}
	// The minimum value of each linear expression assumes negative-coefficient
	// variables true and the rest false.
	for li := range m.linears {
		var min int64
		for _, t := range m.linears[li].terms {
			if t.Coeff < 0 {
				min += int64(t.Coeff)
			}
		}
		st.linMin[li] = min
	}
	for _, c := range m.objCoeff {
		if c < 0 {
			st.objMin += int64(c)
		}
	}
	return st
}

func (s *searchState) run() Outcome {
	for li := range s.linMin {
		if s.linMin[li] > int64(s.m.linears[li].bound) {
			return Outcome{Status: StatusInfeasible, Nodes: s.nodes}
		}
	}

	exhausted := s.search()

	switch {
	case s.found:
		values := make([]bool, len(s.best))
		copy(values, s.best)
		return Outcome{Status: StatusFeasible, Values: values, Objective: int(s.bestObj), Nodes: s.nodes}
	case exhausted:
		return Outcome{Status: StatusInfeasible, Nodes: s.nodes}
	default:
		return Outcome{Status: StatusUnknown, Nodes: s.nodes}
	}
}

// search explores the subtree under the current partial assignment.
// It returns true when the subtree was fully explored.
func (s *searchState) search() bool {
	if s.stopped() {
		return false
	}

	gi := s.pickGroup()
	if gi < 0 {
		v := s.pickVar()
		if v < 0 {
			s.recordSolution()
			return !s.stop
		}
		return s.branchVar(v)
	}
	return s.branchGroup(gi)
}

func (s *searchState) branchGroup(gi int) bool {
	g := &s.m.groups[gi]
	candidates := make([]BoolVar, 0, s.gFree[gi])
	for _, v := range g.vars {
		if s.val[v] < 0 {
			candidates = append(candidates, v)
		}
	}
	if s.rng != nil {
		s.rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
	}
	for _, v := range candidates {
		mark := len(s.trail)
		if s.assign(v, true) {
			if !s.search() {
				s.undoTo(mark)
				return false
			}
		}
		s.undoTo(mark)
	}
	return true
}

func (s *searchState) branchVar(v BoolVar) bool {
	order := [2]bool{false, true}
	if s.m.objCoeff[v] < 0 {
		order = [2]bool{true, false}
	}
	for _, b := range order {
		mark := len(s.trail)
		if s.assign(v, b) {
			if !s.search() {
				s.undoTo(mark)
				return false
			}
		}
		s.undoTo(mark)
	}
	return true
}

// recordSolution captures a full assignment. Propagation guarantees every
// constraint holds once all variables are assigned.
func (s *searchState) recordSolution() {
	if !s.found || s.objMin < s.bestObj {
		s.found = true
		s.bestObj = s.objMin
		for i, v := range s.val {
			s.best[i] = v == 1
		}
	}
	if s.firstOnly {
		s.stop = true
	}
}

func (s *searchState) stopped() bool {
	if s.stop || s.timedOut {
		return true
	}
	s.nodes++
	if s.nodes&1023 == 0 {
		if time.Now().After(s.deadline) {
			s.timedOut = true
			return true
		}
		select {
		case <-s.ctx.Done():
			s.timedOut = true
			return true
		default:
		}
	}
	return false
}

// pickGroup selects the unsatisfied exactly-one group with the fewest free
// variables (first-fail), or -1 when every such group already has its true var.
func (s *searchState) pickGroup() int {
	best := -1
	var bestFree int32
	for gi := range s.m.groups {
		if !s.m.groups[gi].exact || s.gTrue[gi] > 0 {
			continue
		}
		free := s.gFree[gi]
		if free == 0 {
			continue
		}
		if best < 0 || free < bestFree {
			best = gi
			bestFree = free
			if free == 1 {
				break
			}
		}
	}
	return best
}

func (s *searchState) pickVar() BoolVar {
	for v := range s.val {
		if s.val[v] < 0 {
			return BoolVar(v)
		}
	}
	return -1
}

type literal struct {
	v BoolVar
	b bool
}

// assign sets v to b and runs propagation to a fixed point.
// It returns false on conflict; the caller unwinds via undoTo.
func (s *searchState) assign(v BoolVar, b bool) bool {
	pending := []literal{{v, b}}

	for len(pending) > 0 {
		cur := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		switch s.val[cur.v] {
		case 0:
			if cur.b {
				return false
			}
			continue
		case 1:
			if !cur.b {
				return false
			}
			continue
		}

		if cur.b {
			s.val[cur.v] = 1
		} else {
			s.val[cur.v] = 0
		}
		s.trail = append(s.trail, cur.v)

		// Once cur.v is on the trail every bookkeeping stage below must run,
		// conflict or not: undoTo reverses all of them unconditionally. A
		// conflict only suppresses further propagation, never the updates.
		conflict := false

		for _, gi := range s.m.varGroups[cur.v] {
			g := &s.m.groups[gi]
			s.gFree[gi]--
			if cur.b {
				s.gTrue[gi]++
				if s.gTrue[gi] > 1 {
					conflict = true
				}
				if conflict {
					continue
				}
				for _, u := range g.vars {
					if s.val[u] < 0 {
						pending = append(pending, literal{u, false})
					}
				}
			} else if g.exact && s.gTrue[gi] == 0 {
				if s.gFree[gi] == 0 {
					conflict = true
				}
				if conflict {
					continue
				}
				if s.gFree[gi] == 1 {
					for _, u := range g.vars {
						if s.val[u] < 0 {
							pending = append(pending, literal{u, true})
							break
						}
					}
				}
			}
		}

		for _, oc := range s.m.varLinear[cur.v] {
			if oc.coeff > 0 && cur.b {
				s.linMin[oc.idx] += int64(oc.coeff)
			} else if oc.coeff < 0 && !cur.b {
				s.linMin[oc.idx] += int64(-oc.coeff)
			} else {
				continue
			}
			if conflict {
				continue
			}
			ln := &s.m.linears[oc.idx]
			slack := int64(ln.bound) - s.linMin[oc.idx]
			if slack < 0 {
				conflict = true
				continue
			}
			for _, t := range ln.terms {
				if s.val[t.Var] >= 0 {
					continue
				}
				if t.Coeff > 0 && int64(t.Coeff) > slack {
					pending = append(pending, literal{t.Var, false})
				} else if t.Coeff < 0 && int64(-t.Coeff) > slack {
					pending = append(pending, literal{t.Var, true})
				}
			}
		}

		if c := s.m.objCoeff[cur.v]; c != 0 {
			if c > 0 && cur.b {
				s.objMin += int64(c)
			} else if c < 0 && !cur.b {
				s.objMin += int64(-c)
			}
			// Bound pruning: the subtree cannot beat the incumbent.
			if s.found && s.objMin >= s.bestObj {
				conflict = true
			}
		}

		if conflict {
			return false
		}
	}
	return true
}

// undoTo unwinds the trail to the given mark.
func (s *searchState) undoTo(mark int) {
	for len(s.trail) > mark {
		v := s.trail[len(s.trail)-1]
		s.trail = s.trail[:len(s.trail)-1]
		b := s.val[v] == 1
		s.val[v] = -1

		for _, gi := range s.m.varGroups[v] {
			s.gFree[gi]++
			if b {
				s.gTrue[gi]--
			}
		}
		for _, oc := range s.m.varLinear[v] {
			if oc.coeff > 0 && b {
				s.linMin[oc.idx] -= int64(oc.coeff)
			} else if oc.coeff < 0 && !b {
				s.linMin[oc.idx] -= int64(-oc.coeff)
			}
		}
		if c := s.m.objCoeff[v]; c != 0 {
			if c > 0 && b {
				s.objMin -= int64(c)
			} else if c < 0 && !b {
				s.objMin -= int64(-c)
			}
		}
	}
}
