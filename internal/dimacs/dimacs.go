// Package dimacs loads CNF DIMACS instances (optionally gzip-compressed)
// directly into a sat.Solver, and parses the plain-text model files used by
// the test suite's seed scenarios.
package dimacs

import (
	"compress/gzip"
	"io"
	"os"

	"github.com/pkg/errors"
	rdimacs "github.com/rhartert/dimacs"

	"github.com/rhartert/microsolve/internal/sat"
)

// builder adapts a sat.Solver to github.com/rhartert/dimacs's Builder
// interface, translating its 1-indexed signed-int literals directly into
// sat.Literal (spec §3: a literal already is a signed nonzero int, so no
// re-encoding step is needed here).
type builder struct {
	solver   *sat.Solver
	opts     sat.Options
	nVars    int
	nClauses int
	litBuf   []sat.Literal
	comments []string
	err      error
}

func (b *builder) Problem(nVars int, nClauses int) {
	b.nVars = nVars
	b.nClauses = nClauses
	b.solver = sat.NewSolver(int32(nVars), b.opts)
}

func (b *builder) Clause(tmpClause []int) {
	if b.err != nil {
		return
	}
	b.litBuf = b.litBuf[:0]
	for _, l := range tmpClause {
		b.litBuf = append(b.litBuf, sat.Literal(l))
	}
	if err := b.solver.AddClauseInput(b.litBuf); err != nil {
		b.err = err
	}
}

func (b *builder) Comment(line string) {
	b.comments = append(b.comments, line)
}

// Instance is a parsed CNF formula, ready to drive a solver.
type Instance struct {
	Solver    *sat.Solver
	Variables int
	Clauses   int
	Comments  []string
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func open(filename string, gzipped bool) (io.ReadCloser, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "dimacs: opening %q", filename)
	}
	if !gzipped {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "dimacs: gzip %q", filename)
	}
	return readCloser{Reader: gz, closers: []io.Closer{gz, f}}, nil
}

// Load reads a DIMACS CNF file (optionally gzip-compressed, per gzipped) and
// returns a freshly built solver loaded with its clauses (spec §10.1: gzip
// transport support carried over from the teacher's own loader, fused with
// the in-pack Builder interface for the actual line parsing).
func Load(filename string, gzipped bool, opts sat.Options) (*Instance, error) {
	r, err := open(filename, gzipped)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	b := &builder{opts: opts}
	if err := rdimacs.ReadBuilder(r, b); err != nil {
		return nil, errors.Wrapf(err, "dimacs: parsing %q", filename)
	}
	if b.err != nil {
		return nil, errors.Wrapf(b.err, "dimacs: loading clauses from %q", filename)
	}

	return &Instance{
		Solver:    b.solver,
		Variables: b.nVars,
		Clauses:   b.nClauses,
		Comments:  b.comments,
	}, nil
}
