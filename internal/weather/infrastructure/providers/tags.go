package providers

// tagSet collects condition tags in first-seen order without duplicates.
type tagSet struct {
	seen map[string]struct{}
	tags []string
}

func newTagSet() *tagSet {
	return &tagSet{seen: make(map[string]struct{})}
}

func (s *tagSet) add(tags ...string) {
	for _, tag := range tags {
		if _, ok := s.seen[tag]; ok {
			continue
		}
		s.seen[tag] = struct{}{}
		s.tags = append(s.tags, tag)
	}
}

func (s *tagSet) list() []string {
	if len(s.tags) == 0 {
		return []string{}
	}
	out := make([]string, len(s.tags))
	copy(out, s.tags)
	return out
}
