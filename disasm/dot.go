// Copyright 2023-2026 The whatsabi Authors
// This file is part of the whatsabi library.
//
// The whatsabi library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The whatsabi library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the whatsabi library. If not, see <http://www.gnu.org/licenses/>.

package disasm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/emicklei/dot"
)

// Dot renders the program's jump graph in Graphviz format: one node per
// basic block, labeled with its offset and tags, one edge per distinct
// candidate branch target that is a known block, and one edge per
// dispatch-table entry labeled with the selector. Output is deterministic.
func (p *Program) Dot() string {
	g := dot.NewGraph(dot.Directed)
	g.Attr("rankdir", "LR")

	offsets := make([]int, 0, len(p.Dests))
	for off := range p.Dests {
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)

	nodes := make(map[int]dot.Node, len(offsets))
	for _, off := range offsets {
		fn := p.Dests[off]
		label := fmt.Sprintf("0x%04x", off)
		if tags := tagNames(fn); len(tags) > 0 {
			label += "\n" + strings.Join(tags, " ")
		}
		n := g.Node(fmt.Sprintf("block_%d", off)).Label(label)
		if p.IsNotPayable(off) {
			n.Attr("shape", "box")
		}
		nodes[off] = n
	}

	for _, off := range offsets {
		seen := make(map[int]bool)
		for _, target := range p.Dests[off].Jumps {
			to, ok := nodes[target]
			if !ok || seen[target] {
				continue
			}
			seen[target] = true
			g.Edge(nodes[off], to)
		}
	}

	if len(p.Jumps) > 0 {
		dispatch := g.Node("dispatch").Label("dispatch").Attr("shape", "diamond")
		for _, sel := range p.Selectors() {
			if to, ok := nodes[p.Jumps[sel]]; ok {
				g.Edge(dispatch, to).Label(sel)
			}
		}
	}
	return g.String()
}

func tagNames(fn *Function) []string {
	names := make([]string, 0, fn.OpTags.Cardinality())
	for _, op := range fn.OpTags.ToSlice() {
		names = append(names, op.String())
	}
	sort.Strings(names)
	return names
}
