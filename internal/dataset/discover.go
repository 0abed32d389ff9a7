package dataset

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
)

var idxRegexp = regexp.MustCompile(`^(.+)-(images-idx3|labels-idx1)-ubyte$`)

// Pair is an image file and its matching label file.
type Pair struct {
	Prefix string
	Images string
	Labels string
}

// DiscoverIDX returns the complete image/label pairs beneath root, sorted by
// prefix ("t10k", "train", ...).
func DiscoverIDX(root string) ([]Pair, error) {
	byPrefix := make(map[string]*Pair)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		m := idxRegexp.FindStringSubmatch(d.Name())
		if m == nil {
			return nil
		}
		p := byPrefix[m[1]]
		if p == nil {
			p = &Pair{Prefix: m[1]}
			byPrefix[m[1]] = p
		}
		switch m[2] {
		case "images-idx3":
			p.Images = path
		case "labels-idx1":
			p.Labels = path
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover idx: %w", err)
	}

	pairs := make([]Pair, 0, len(byPrefix))
	for _, p := range byPrefix {
		if p.Images != "" && p.Labels != "" {
			pairs = append(pairs, *p)
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Prefix < pairs[j].Prefix })
	return pairs, nil
}

// FindPair returns the pair with the given prefix beneath root.
func FindPair(root, prefix string) (Pair, error) {
	pairs, err := DiscoverIDX(root)
	if err != nil {
		return Pair{}, err
	}
	for _, p := range pairs {
		if p.Prefix == prefix {
			return p, nil
		}
	}
	return Pair{}, fmt.Errorf("no %s images/labels pair under %s", prefix, root)
}
