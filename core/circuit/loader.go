// core/circuit/loader.go
package circuit

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Load parses the plain-text circuit format:
//
//	qubits 3
//	h 0
//	rx 1 0.7853
//	cx 0 2
//
// Blank lines and '#' comments are skipped. The qubits line must come
// before the first operation. The parsed circuit is validated before it is
// returned.
func Load(r io.Reader, name string) (Circuit, error) {
	sc := bufio.NewScanner(r)
	qubits := 0
	var ops []Op
	ln := 0
	for sc.Scan() {
		ln++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		f := strings.Fields(line)
		if f[0] == "qubits" {
			if len(f) != 2 {
				return Circuit{}, fmt.Errorf("%s:%d qubits takes one argument", name, ln)
			}
			n, err := strconv.Atoi(f[1])
			if err != nil {
				return Circuit{}, fmt.Errorf("%s:%d bad qubit count: %v", name, ln, err)
			}
			qubits = n
			continue
		}
		if qubits == 0 {
			return Circuit{}, fmt.Errorf("%s:%d operation before qubits declaration", name, ln)
		}
		op, err := parseOpLine(f)
		if err != nil {
			return Circuit{}, fmt.Errorf("%s:%d %v", name, ln, err)
		}
		ops = append(ops, op)
	}
	if err := sc.Err(); err != nil {
		return Circuit{}, err
	}
	c := New(qubits, ops)
	if err := c.Validate(); err != nil {
		return Circuit{}, fmt.Errorf("%s: %w", name, err)
	}
	return c, nil
}

// LoadFile opens and parses path with Load.
func LoadFile(path string) (Circuit, error) {
	fh, err := os.Open(path)
	if err != nil {
		return Circuit{}, err
	}
	defer func() { _ = fh.Close() }()
	return Load(fh, path)
}

func parseOpLine(f []string) (Op, error) {
	kind, ok := ParseKind(f[0])
	if !ok {
		return Op{}, fmt.Errorf("unknown operation %q", f[0])
	}
	switch {
	case kind == KindCX:
		if len(f) != 3 {
			return Op{}, fmt.Errorf("cx takes control and target")
		}
		ctl, err := strconv.Atoi(f[1])
		if err != nil {
			return Op{}, fmt.Errorf("bad control: %v", err)
		}
		tgt, err := strconv.Atoi(f[2])
		if err != nil {
			return Op{}, fmt.Errorf("bad target: %v", err)
		}
		return Op{Kind: kind, Control: ctl, Target: tgt}, nil
	case kind.Rotational():
		if len(f) != 3 {
			return Op{}, fmt.Errorf("%s takes target and angle", kind)
		}
		tgt, err := strconv.Atoi(f[1])
		if err != nil {
			return Op{}, fmt.Errorf("bad target: %v", err)
		}
		theta, err := strconv.ParseFloat(f[2], 64)
		if err != nil {
			return Op{}, fmt.Errorf("bad angle: %v", err)
		}
		return Op{Kind: kind, Target: tgt, Theta: theta}, nil
	default:
		if len(f) != 2 {
			return Op{}, fmt.Errorf("%s takes one target", kind)
		}
		tgt, err := strconv.Atoi(f[1])
		if err != nil {
			return Op{}, fmt.Errorf("bad target: %v", err)
		}
		return Op{Kind: kind, Target: tgt}, nil
	}
}
