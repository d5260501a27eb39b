package ghtorrent

import (
	"encoding/binary"
	"log"
	"sort"

	"github.com/zeebo/xxh3"
)

// rank orders project ids pseudo-randomly but reproducibly for a seed.
func rank(id int, seed uint64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(id))
	return xxh3.HashSeed(b[:], seed)
}

// pick returns the num ids of lowest rank.
func pick(ids []int, num int, seed uint64) []int {
	if len(ids) <= num {
		return ids
	}
	ranked := make([]int, len(ids))
	copy(ranked, ids)
	sort.Slice(ranked, func(i, j int) bool {
		ri, rj := rank(ranked[i], seed), rank(ranked[j], seed)
		if ri != rj {
			return ri < rj
		}
		return ranked[i] < ranked[j]
	})
	return ranked[:num]
}

// Sample keeps at most num projects of sel, or at most num per language when
// perLanguage is set. The same seed always keeps the same projects. A
// non-positive num keeps everything.
func Sample(sel *Selection, num int, perLanguage bool, seed uint64) {
	if num <= 0 {
		return
	}
	before := sel.Len()

	keep := make(map[int]struct{})
	if perLanguage {
		groups := sel.ByLanguage()
		langs := make([]string, 0, len(groups))
		for l := range groups {
			langs = append(langs, l)
		}
		sort.Strings(langs)
		for _, l := range langs {
			log.Printf("ghtorrent: sample: lang=%s projects=%d", l, len(groups[l]))
			for _, id := range pick(groups[l], num, seed) {
				keep[id] = struct{}{}
			}
		}
	} else {
		for _, id := range pick(sel.IDs(), num, seed) {
			keep[id] = struct{}{}
		}
	}
	sel.keep(keep)
	log.Printf("ghtorrent: sample: from=%d to=%d per_language=%v seed=%d", before, sel.Len(), perLanguage, seed)
}
