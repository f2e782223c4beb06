package match

import (
	"strings"

	"verifier/internal/accession"
	"verifier/internal/batch"
)

// Resolution describes how a batch's duplicates were settled.
type Resolution struct {
	// Root is the directory shared by every Found or PerfectMatch copy.
	Root string
	// Resolved counts records whose chosen copy lies under Root.
	Resolved int
	// Fallbacks counts records where no candidate lies under Root.
	Fallbacks int
}

// Resolve promotes one candidate for every WithDuplicates record of b: the
// first candidate under the batch's storage root, or the first candidate when
// none is. It must run after every record has been matched.
func Resolve(b *batch.Batch) (Resolution, error) {
	var anchors []string
	for _, rec := range b.Records {
		switch rec.Status() {
		case accession.StatusFound, accession.StatusPerfectMatch:
			anchors = append(anchors, rec.RestoredPath())
		}
	}
	res := Resolution{Root: commonDir(anchors)}

	for _, rec := range b.Records {
		if rec.Status() != accession.StatusWithDuplicates || rec.Promoted() {
			continue
		}
		chosen := -1
		for i, candidate := range rec.Candidates() {
			if within(res.Root, candidate.Path) {
				chosen = i
				break
			}
		}
		if chosen < 0 {
			chosen = 0
			res.Fallbacks++
		} else {
			res.Resolved++
		}
		if err := rec.Promote(chosen); err != nil {
			return res, err
		}
	}
	return res, nil
}

// commonDir returns the longest directory, compared by "/" components, that
// contains every path. It is "" when paths is empty or they share nothing.
func commonDir(paths []string) string {
	var common []string
	for i, p := range paths {
		parts := strings.Split(strings.TrimRight(p, "/"), "/")
		dir := parts[:len(parts)-1]
		if i == 0 {
			common = dir
			continue
		}
		n := 0
		for n < len(common) && n < len(dir) && common[n] == dir[n] {
			n++
		}
		common = common[:n]
	}
	if len(common) == 1 && common[0] == "" {
		return "/"
	}
	return strings.Join(common, "/")
}

// within reports whether p is root or lies below it.
func within(root, p string) bool {
	switch root {
	case "":
		return true
	case "/":
		return strings.HasPrefix(p, "/")
	}
	return p == root || strings.HasPrefix(p, root+"/")
}
