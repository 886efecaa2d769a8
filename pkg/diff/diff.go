// Package diff renders the change between two note revisions.
package diff

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	OpEqual  = "equal"
	OpInsert = "insert"
	OpDelete = "delete"
)

// Segment one run of equal, inserted or deleted text
type Segment struct {
	Op   string `json:"op"`
	Text string `json:"text"`
}

// Result 两个版本之间的差异
type Result struct {
	Segments   []Segment `json:"segments"`
	Patch      string    `json:"patch"`
	Insertions int       `json:"insertions"`
	Deletions  int       `json:"deletions"`
}

// Compare diffs from into to. Counts are in runes.
func Compare(from, to string) Result {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(from, to, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	res := Result{Segments: make([]Segment, 0, len(diffs))}
	for _, d := range diffs {
		seg := Segment{Text: d.Text}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			seg.Op = OpInsert
			res.Insertions += len([]rune(d.Text))
		case diffmatchpatch.DiffDelete:
			seg.Op = OpDelete
			res.Deletions += len([]rune(d.Text))
		default:
			seg.Op = OpEqual
		}
		res.Segments = append(res.Segments, seg)
	}
	res.Patch = dmp.PatchToText(dmp.PatchMake(from, diffs))
	return res
}

// Apply replays a patch produced by Compare onto base.
// ok is false if any hunk failed to apply.
func Apply(base, patch string) (out string, ok bool, err error) {
	dmp := diffmatchpatch.New()
	patches, err := dmp.PatchFromText(patch)
	if err != nil {
		return "", false, err
	}
	out, applied := dmp.PatchApply(patches, base)
	ok = true
	for _, a := range applied {
		if !a {
			ok = false
			break
		}
	}
	return out, ok, nil
}
