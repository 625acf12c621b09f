// Package solver implements an exact minimizing solver for the bipartite
// assignment model used by the optimizer: one boolean variable per candidate
// (employee, client) pair, at most one assignment per employee and per
// client, a per-client cost for staying unassigned, and an integer linear
// objective over the selected variables.
//
// Minimization is lexicographic: the number of unassigned clients is
// minimized first, the cost objective second. This gives coverage provable
// priority over the soft criteria instead of relying on the unassignment
// penalty outweighing every standardized term.
//
// The search is a depth-first branch and bound over clients in creation
// order with an admissible per-client lower bound, so the returned optimum
// is exact and tie-breaks are deterministic: among equally optimal
// solutions the first one reached in variable creation order is kept.
package solver

import (
	"context"
	"fmt"
	"math"
)

// Model is a bipartite assignment model under construction. Variables must be
// added in a deterministic order; the solve result depends on it only for
// tie-breaking.
type Model struct {
	numEmployees int
	numClients   int

	vars           []pairVar
	byClient       [][]int
	unassignedCost []int64
	requiredVar    []int // per client, -1 when free
}

type pairVar struct {
	employee int
	client   int
	cost     int64
}

// Result is one exact optimum of the model
type Result struct {
	// Objective is the total cost of the optimum, including the unassigned
	// costs of uncovered clients
	Objective int64
	// Unassigned is the number of uncovered clients, the primary criterion
	Unassigned int
	// Selected holds the chosen variable indices in client order
	Selected []int
}

// NewModel creates an empty model over the given entity counts
func NewModel(numEmployees, numClients int) *Model {
	required := make([]int, numClients)
	for i := range required {
		required[i] = -1
	}
	return &Model{
		numEmployees:   numEmployees,
		numClients:     numClients,
		byClient:       make([][]int, numClients),
		unassignedCost: make([]int64, numClients),
		requiredVar:    required,
	}
}

// AddPair creates the boolean variable for one candidate pair with the cost
// incurred when it is selected, and returns the variable index.
func (m *Model) AddPair(employee, client int, cost int64) int {
	idx := len(m.vars)
	m.vars = append(m.vars, pairVar{employee: employee, client: client, cost: cost})
	m.byClient[client] = append(m.byClient[client], idx)
	return idx
}

// SetUnassignedCost sets the cost incurred when the client receives no
// assignment. Unassignment is always a legal outcome unless the client has a
// required variable.
func (m *Model) SetUnassignedCost(client int, cost int64) {
	m.unassignedCost[client] = cost
}

// Require forces the given variable to be selected in every solution
func (m *Model) Require(varIdx int) error {
	if varIdx < 0 || varIdx >= len(m.vars) {
		return fmt.Errorf("no variable with index %d", varIdx)
	}
	client := m.vars[varIdx].client
	if m.requiredVar[client] != -1 && m.requiredVar[client] != varIdx {
		return fmt.Errorf("client %d already has a required variable", client)
	}
	m.requiredVar[client] = varIdx
	return nil
}

// NumVars returns the number of created pair variables
func (m *Model) NumVars() int {
	return len(m.vars)
}

// Solve searches for the exact lexicographic minimum. It returns
// (nil, false, nil) when the hard constraints admit no solution, which can
// only happen through conflicting Require calls. A context error aborts the
// search.
func (m *Model) Solve(ctx context.Context) (*Result, bool, error) {
	// Two required variables sharing an employee can never hold together.
	reserved := make([]bool, m.numEmployees)
	for client := 0; client < m.numClients; client++ {
		varIdx := m.requiredVar[client]
		if varIdx == -1 {
			continue
		}
		emp := m.vars[varIdx].employee
		if reserved[emp] {
			return nil, false, nil
		}
		reserved[emp] = true
	}

	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s := &search{
		model:          m,
		reserved:       reserved,
		used:           make([]bool, m.numEmployees),
		choice:         make([]int, m.numClients),
		bestUnassigned: math.MaxInt,
		bestCost:       math.MaxInt64,
	}
	s.computeBounds()

	if err := s.run(ctx, 0, 0, 0); err != nil {
		return nil, false, err
	}
	if !s.found {
		return nil, false, nil
	}

	selected := make([]int, 0, m.numClients)
	for _, varIdx := range s.best {
		if varIdx != -1 {
			selected = append(selected, varIdx)
		}
	}
	return &Result{
		Objective:  s.bestCost,
		Unassigned: s.bestUnassigned,
		Selected:   selected,
	}, true, nil
}

type search struct {
	model    *Model
	reserved []bool
	used     []bool

	// choice holds the variable index per client on the current path, -1 for
	// unassigned
	choice []int

	// suffixCost[c] is an admissible lower bound on the cost of covering
	// clients c..numClients-1; suffixUnassigned[c] counts the clients from c
	// on that are unassigned in every solution
	suffixCost       []int64
	suffixUnassigned []int

	bestUnassigned int
	bestCost       int64
	best           []int
	found          bool

	nodes int
}

const cancelCheckInterval = 1024

func (s *search) computeBounds() {
	m := s.model
	s.suffixCost = make([]int64, m.numClients+1)
	s.suffixUnassigned = make([]int, m.numClients+1)
	for client := m.numClients - 1; client >= 0; client-- {
		s.suffixCost[client] = s.suffixCost[client+1] + s.minClientCost(client)
		s.suffixUnassigned[client] = s.suffixUnassigned[client+1]
		if len(m.byClient[client]) == 0 {
			s.suffixUnassigned[client]++
		}
	}
}

// minClientCost is the cheapest conceivable choice for the client ignoring
// employee conflicts, which keeps the bound admissible
func (s *search) minClientCost(client int) int64 {
	m := s.model
	if required := m.requiredVar[client]; required != -1 {
		return m.vars[required].cost
	}
	min := m.unassignedCost[client]
	for _, varIdx := range m.byClient[client] {
		if cost := m.vars[varIdx].cost; cost < min {
			min = cost
		}
	}
	return min
}

// better reports whether (unassigned, cost) improves on the incumbent
// lexicographically, strictly, so the first optimum found wins ties
func (s *search) better(unassigned int, cost int64) bool {
	if unassigned != s.bestUnassigned {
		return unassigned < s.bestUnassigned
	}
	return cost < s.bestCost
}

// prunable reports whether the lower bound (unassigned, cost) cannot beat
// the incumbent
func (s *search) prunable(unassigned int, cost int64) bool {
	if unassigned != s.bestUnassigned {
		return unassigned > s.bestUnassigned
	}
	return cost >= s.bestCost
}

func (s *search) run(ctx context.Context, client, unassigned int, cost int64) error {
	s.nodes++
	if s.nodes%cancelCheckInterval == 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	m := s.model
	if client == m.numClients {
		if s.better(unassigned, cost) {
			s.bestUnassigned = unassigned
			s.bestCost = cost
			s.best = append(s.best[:0], s.choice...)
			s.found = true
		}
		return nil
	}

	if s.found && s.prunable(unassigned+s.suffixUnassigned[client], cost+s.suffixCost[client]) {
		return nil
	}

	if required := m.requiredVar[client]; required != -1 {
		s.choice[client] = required
		return s.run(ctx, client+1, unassigned, cost+m.vars[required].cost)
	}

	for _, varIdx := range m.byClient[client] {
		v := m.vars[varIdx]
		if s.used[v.employee] || s.reserved[v.employee] {
			continue
		}
		s.used[v.employee] = true
		s.choice[client] = varIdx
		if err := s.run(ctx, client+1, unassigned, cost+v.cost); err != nil {
			return err
		}
		s.used[v.employee] = false
	}

	s.choice[client] = -1
	return s.run(ctx, client+1, unassigned+1, cost+m.unassignedCost[client])
}
