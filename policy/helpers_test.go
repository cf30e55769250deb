package policy_test

import (
	"github.com/justapithecus/hdrframe/types"
)

func msg(seq int64, kinds ...string) *types.Message {
	m := &types.Message{Seq: seq, Body: []byte("body")}
	for _, k := range kinds {
		m.Headers = append(m.Headers, types.Header{Kind: k})
	}
	return m
}

func seqs(msgs []*types.Message) []int64 {
	out := make([]int64, len(msgs))
	for i, m := range msgs {
		out[i] = m.Seq
	}
	return out
}

func equalSeqs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
