package extract

// Aho-Corasick automaton over bytes of normalised text. Each node carries a
// fixed 256-way transition table; memory grows with the number of distinct
// form prefixes, which stays small for a hand-curated catalog.

type acNode struct {
	trans  [256]int32 // -1 when absent
	fail   int32
	output []int // form IDs ending here, including those reachable via fail links
}

type automaton struct {
	nodes []acNode
}

func newAutomaton() *automaton {
	a := &automaton{nodes: make([]acNode, 1)}
	clearTrans(&a.nodes[0])
	return a
}

func clearTrans(n *acNode) {
	for i := range n.trans {
		n.trans[i] = -1
	}
}

// add inserts pat under id. Empty patterns are ignored.
func (a *automaton) add(pat string, id int) {
	if pat == "" {
		return
	}
	state := int32(0)
	for i := 0; i < len(pat); i++ {
		b := pat[i]
		nxt := a.nodes[state].trans[b]
		if nxt == -1 {
			nxt = int32(len(a.nodes))
			a.nodes[state].trans[b] = nxt
			var n acNode
			clearTrans(&n)
			a.nodes = append(a.nodes, n)
		}
		state = nxt
	}
	a.nodes[state].output = append(a.nodes[state].output, id)
}

// build computes failure links breadth-first and merges outputs along them.
func (a *automaton) build() {
	q := make([]int32, 0, 64)
	for b := 0; b < 256; b++ {
		if s := a.nodes[0].trans[b]; s != -1 {
			a.nodes[s].fail = 0
			q = append(q, s)
		}
	}
	for qi := 0; qi < len(q); qi++ {
		r := q[qi]
		for b := 0; b < 256; b++ {
			s := a.nodes[r].trans[b]
			if s == -1 {
				continue
			}
			q = append(q, s)

			f := a.nodes[r].fail
			for f != 0 && a.nodes[f].trans[b] == -1 {
				f = a.nodes[f].fail
			}
			if nxt := a.nodes[f].trans[b]; nxt != -1 && nxt != s {
				a.nodes[s].fail = nxt
			} else {
				a.nodes[s].fail = 0
			}
			if out := a.nodes[a.nodes[s].fail].output; len(out) > 0 {
				merged := make([]int, 0, len(a.nodes[s].output)+len(out))
				merged = append(merged, a.nodes[s].output...)
				a.nodes[s].output = append(merged, out...)
			}
		}
	}
}

// findAll calls fn(end, id) for every occurrence of every pattern in text,
// end being the exclusive byte offset of the match.
func (a *automaton) findAll(text string, fn func(end, id int)) {
	state := int32(0)
	for i := 0; i < len(text); i++ {
		b := text[i]
		for state != 0 && a.nodes[state].trans[b] == -1 {
			state = a.nodes[state].fail
		}
		if nxt := a.nodes[state].trans[b]; nxt != -1 {
			state = nxt
		}
		for _, id := range a.nodes[state].output {
			fn(i+1, id)
		}
	}
}
