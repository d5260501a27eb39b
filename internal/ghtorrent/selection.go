package ghtorrent

import "sort"

// Project is a selected project and, once AssignCommits ran, its commits.
type Project struct {
	ID       int
	Language string // folded; empty when selection was not by language
	commits  map[int]struct{}
}

// Commits returns the number of distinct commits assigned to p.
func (p *Project) Commits() int { return len(p.commits) }

// CommitIDs returns p's commits in ascending order.
func (p *Project) CommitIDs() []int {
	ids := make([]int, 0, len(p.commits))
	for id := range p.commits {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (p *Project) addCommit(id int) {
	if p.commits == nil {
		p.commits = make(map[int]struct{})
	}
	p.commits[id] = struct{}{}
}

// Selection is the set of projects a dataset is cut down to. It is built
// single-threaded and then only read, so concurrent lookups are safe.
type Selection struct {
	projects map[int]*Project
	assigned bool
}

func NewSelection() *Selection {
	return &Selection{projects: make(map[int]*Project)}
}

// Add selects id, returning the existing entry when id is already present.
func (s *Selection) Add(id int, language string) *Project {
	if p, ok := s.projects[id]; ok {
		return p
	}
	p := &Project{ID: id, Language: language}
	s.projects[id] = p
	return p
}

func (s *Selection) Has(id int) bool {
	_, ok := s.projects[id]
	return ok
}

func (s *Selection) Get(id int) *Project { return s.projects[id] }

func (s *Selection) Len() int { return len(s.projects) }

// Assigned reports whether commits were loaded with AssignCommits.
func (s *Selection) Assigned() bool { return s.assigned }

// IDs returns the selected project ids in ascending order.
func (s *Selection) IDs() []int {
	ids := make([]int, 0, len(s.projects))
	for id := range s.projects {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ByLanguage groups project ids by language, each group ascending.
func (s *Selection) ByLanguage() map[string][]int {
	out := make(map[string][]int)
	for _, id := range s.IDs() {
		lang := s.projects[id].Language
		out[lang] = append(out[lang], id)
	}
	return out
}

// keep drops every project not in ids.
func (s *Selection) keep(ids map[int]struct{}) {
	for id := range s.projects {
		if _, ok := ids[id]; !ok {
			delete(s.projects, id)
		}
	}
}
