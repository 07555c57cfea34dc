package stevedore

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Masterminds/vcs"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	shutil "github.com/termie/go-shutil"
)

// GitSourceManager is a SourceManager backed by real git repositories,
// mirrored under a cache directory. Tags are the selectable versions;
// dependency lists come from the Depfile committed at each revision; refs
// resolve through the repository itself.
//
// It learns remotes two ways: the seed map handed to the constructor
// (usually from the root Depfile), and every transitive Depfile it reads,
// so dependencies-of-dependencies become fetchable as the resolver descends.
type GitSourceManager struct {
	cachedir string
	l        *logrus.Logger

	mu      sync.Mutex
	remotes map[DependencyIdentifier]string
	repos   map[DependencyIdentifier]*vcs.GitRepo
	synced  map[DependencyIdentifier]bool
}

var _ SourceManager = (*GitSourceManager)(nil)

// NewGitSourceManager returns a git source caching repository mirrors under
// cachedir. The remotes map seeds where each identity is cloned from; a nil
// logger gets a default one.
func NewGitSourceManager(cachedir string, remotes map[DependencyIdentifier]string, l *logrus.Logger) *GitSourceManager {
	if l == nil {
		l = logrus.New()
	}

	rm := make(map[DependencyIdentifier]string, len(remotes))
	for id, remote := range remotes {
		rm[id] = remote
	}

	return &GitSourceManager{
		cachedir: cachedir,
		l:        l,
		remotes:  rm,
		repos:    make(map[DependencyIdentifier]*vcs.GitRepo),
		synced:   make(map[DependencyIdentifier]bool),
	}
}

// repo returns the local mirror for id, cloning or updating it the first
// time it is touched within this manager's lifetime.
func (s *GitSourceManager) repo(id DependencyIdentifier) (*vcs.GitRepo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.repos[id]; ok && s.synced[id] {
		return r, nil
	}

	remote, ok := s.remotes[id]
	if !ok {
		return nil, errors.Errorf("no known remote for %s", id)
	}

	r := s.repos[id]
	if r == nil {
		local := filepath.Join(s.cachedir, pathify(id))
		var err error
		r, err = vcs.NewGitRepo(remote, local)
		if err != nil {
			return nil, errors.Wrapf(err, "opening repo for %s", id)
		}
		s.repos[id] = r
	}

	if !r.CheckLocal() {
		if s.l.Level >= logrus.InfoLevel {
			s.l.WithFields(logrus.Fields{
				"name":   id.String(),
				"remote": remote,
			}).Info("Cloning repository")
		}
		if err := r.Get(); err != nil {
			return nil, errors.Wrapf(err, "cloning %s from %s", id, remote)
		}
	} else {
		if s.l.Level >= logrus.DebugLevel {
			s.l.WithField("name", id.String()).Debug("Updating cached repository")
		}
		if err := r.Update(); err != nil {
			return nil, errors.Wrapf(err, "updating %s", id)
		}
	}

	s.synced[id] = true
	return r, nil
}

// ListVersions returns every tag in the repository. The resolver decides
// which of them are semantic.
func (s *GitSourceManager) ListVersions(id DependencyIdentifier) ([]Revision, error) {
	r, err := s.repo(id)
	if err != nil {
		return nil, err
	}

	tags, err := r.Tags()
	if err != nil {
		return nil, errors.Wrapf(err, "listing tags for %s", id)
	}

	revs := make([]Revision, 0, len(tags))
	for _, t := range tags {
		revs = append(revs, Revision(t))
	}
	return revs, nil
}

// GetDependencies reads the Depfile committed at rev, without disturbing the
// mirror's working tree. A revision with no Depfile is a leaf.
func (s *GitSourceManager) GetDependencies(id DependencyIdentifier, rev Revision) ([]Requirement, error) {
	r, err := s.repo(id)
	if err != nil {
		return nil, err
	}

	blob := string(rev) + ":" + DepfileName
	if _, err := r.RunFromDir("git", "cat-file", "-e", blob); err != nil {
		return nil, nil
	}

	out, err := r.RunFromDir("git", "show", blob)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s at %s of %s", DepfileName, rev, id)
	}

	df, err := ReadDepfile(bytes.NewReader(out))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s at %s of %s", DepfileName, rev, id)
	}

	// Adopt any remotes this manifest introduces, so transitive dependencies
	// are fetchable. First declaration wins; a root Depfile's choice of
	// remote is never overridden by a deeper one.
	s.mu.Lock()
	for did, remote := range df.Remotes {
		if _, known := s.remotes[did]; !known {
			s.remotes[did] = remote
		}
	}
	s.mu.Unlock()

	ids := make([]DependencyIdentifier, 0, len(df.Requirements))
	for did := range df.Requirements {
		ids = append(ids, did)
	}
	sortIdentifiers(ids)

	reqs := make([]Requirement, 0, len(ids))
	for _, did := range ids {
		reqs = append(reqs, Requirement{Ident: did, Spec: df.Requirements[did]})
	}
	return reqs, nil
}

// ResolveReference resolves a branch, tag, or commit name to the concrete
// revision it points at. Branch names are tried against the remote-tracking
// ref first, since the mirror's own branch heads only move on update.
func (s *GitSourceManager) ResolveReference(id DependencyIdentifier, name string) (Revision, error) {
	r, err := s.repo(id)
	if err != nil {
		return "", err
	}

	for _, candidate := range []string{"origin/" + name, name} {
		out, err := r.RunFromDir("git", "rev-parse", "--verify", "--quiet", candidate+"^{commit}")
		if err == nil {
			if rev := strings.TrimSpace(string(out)); rev != "" {
				return Revision(rev), nil
			}
		}
	}

	return "", errors.Errorf("reference %q not found in %s", name, id)
}

// ExportRevisionTo materializes a pinned revision of id into dir, the way a
// checkout step would: the mirror is moved to rev, then its tree (sans git
// metadata) is copied out.
func (s *GitSourceManager) ExportRevisionTo(id DependencyIdentifier, rev Revision, dir string) error {
	r, err := s.repo(id)
	if err != nil {
		return err
	}

	if err := r.UpdateVersion(string(rev)); err != nil {
		return errors.Wrapf(err, "checking out %s of %s", rev, id)
	}

	cfg := &shutil.CopyTreeOptions{
		Symlinks:     true,
		CopyFunction: shutil.Copy,
		Ignore: func(src string, contents []os.FileInfo) (ignore []string) {
			for _, fi := range contents {
				if fi.IsDir() && fi.Name() == ".git" {
					ignore = append(ignore, fi.Name())
				}
			}
			return
		},
	}

	if err := shutil.CopyTree(r.LocalPath(), dir, cfg); err != nil {
		return errors.Wrapf(err, "exporting %s at %s", id, rev)
	}
	return nil
}

// pathify flattens an identifier into a single cache directory name.
func pathify(id DependencyIdentifier) string {
	return strings.NewReplacer("/", "--", ":", "-").Replace(id.String())
}
