package stevedore

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// A deduction is the resolved interpretation of one manifest origin string:
// the identifier the resolver keys on, and the remote URL a source should
// clone from.
type deduction struct {
	ident  DependencyIdentifier
	remote string
}

// deducer turns origin strings from manifests into deductions, memoizing
// results in a radix tree so that respellings of an already-seen origin
// ("…/name" vs "…/name.git", trailing slashes) land on the same identity.
type deducer struct {
	mu sync.Mutex
	xt *deductionTrie
}

func newDeducer() *deducer {
	return &deducer{
		xt: newDeductionTrie(),
	}
}

func (d *deducer) deduceOrigin(origin string) (deduction, error) {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return deduction{}, fmt.Errorf("empty origin")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if ded, has := d.xt.Get(origin); has {
		return ded, nil
	}
	if pre, ded, has := d.xt.LongestPrefix(origin); has && isPathPrefixOrEqual(pre, origin) {
		d.xt.Insert(origin, ded)
		return ded, nil
	}

	ded, err := deduce(origin)
	if err != nil {
		return deduction{}, err
	}

	d.xt.Insert(origin, ded)
	return ded, nil
}

func deduce(origin string) (deduction, error) {
	switch {
	case strings.Contains(origin, "://"):
		return deduceURL(origin)
	case strings.HasPrefix(origin, "git@"):
		return deduceSCP(origin)
	default:
		return deduceGitHub(origin)
	}
}

// deduceGitHub handles the shorthand form "owner/name", plus the spelled-out
// "github.com/owner/name".
func deduceGitHub(origin string) (deduction, error) {
	path := strings.TrimPrefix(origin, "github.com/")
	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")

	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return deduction{}, fmt.Errorf("%q is not a valid github owner/name origin", origin)
	}

	return deduction{
		ident: DependencyIdentifier{
			Origin: "github.com/" + parts[0],
			Name:   parts[1],
		},
		remote: fmt.Sprintf("https://github.com/%s/%s.git", parts[0], parts[1]),
	}, nil
}

// deduceURL handles full remote URLs: https, git, ssh.
func deduceURL(origin string) (deduction, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return deduction{}, fmt.Errorf("%q is not a valid git origin URL: %s", origin, err)
	}
	if u.Host == "" || u.Path == "" || u.Path == "/" {
		return deduction{}, fmt.Errorf("%q is not a valid git origin URL", origin)
	}

	path := strings.TrimSuffix(strings.Trim(u.Path, "/"), ".git")
	i := strings.LastIndex(path, "/")

	var id DependencyIdentifier
	if i < 0 {
		id = DependencyIdentifier{Origin: u.Host, Name: path}
	} else {
		id = DependencyIdentifier{Origin: u.Host + "/" + path[:i], Name: path[i+1:]}
	}

	return deduction{ident: id, remote: origin}, nil
}

// deduceSCP handles the scp-like form "git@host:path/name.git".
func deduceSCP(origin string) (deduction, error) {
	rest := strings.TrimPrefix(origin, "git@")
	host, path, found := strings.Cut(rest, ":")
	if !found || host == "" || path == "" {
		return deduction{}, fmt.Errorf("%q is not a valid scp-style git origin", origin)
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	i := strings.LastIndex(path, "/")

	var id DependencyIdentifier
	if i < 0 {
		id = DependencyIdentifier{Origin: host, Name: path}
	} else {
		id = DependencyIdentifier{Origin: host + "/" + path[:i], Name: path[i+1:]}
	}

	return deduction{ident: id, remote: origin}, nil
}
