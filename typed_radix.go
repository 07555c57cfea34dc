package stevedore

import (
	"strings"

	radix "github.com/armon/go-radix"
)

// deductionTrie is a typed wrapper around a radix tree holding completed
// origin deductions. Just casting sugar, so callers never see interface{}.
type deductionTrie struct {
	t *radix.Tree
}

func newDeductionTrie() *deductionTrie {
	return &deductionTrie{
		t: radix.New(),
	}
}

// Get returns the deduction stored under the exact key, if any.
func (dt *deductionTrie) Get(s string) (deduction, bool) {
	if v, has := dt.t.Get(s); has {
		return v.(deduction), true
	}
	return deduction{}, false
}

// LongestPrefix finds the longest prefix of s with a stored deduction.
func (dt *deductionTrie) LongestPrefix(s string) (string, deduction, bool) {
	if p, v, has := dt.t.LongestPrefix(s); has {
		return p, v.(deduction), true
	}
	return "", deduction{}, false
}

// Insert stores a deduction under the given key.
func (dt *deductionTrie) Insert(s string, d deduction) {
	dt.t.Insert(s, d)
}

func (dt *deductionTrie) Len() int {
	return dt.t.Len()
}

// isPathPrefixOrEqual reports whether pre is a path-wise prefix of s: equal,
// or followed in s by a path boundary. A bare string prefix from a radix
// tree is not enough - "github.com/foo/bar" must not claim
// "github.com/foo/barbaz".
func isPathPrefixOrEqual(pre, s string) bool {
	prflen, pathlen := len(pre), len(s)
	if pathlen == prflen {
		return pre == s
	}
	if pathlen == prflen+1 {
		// "github.com/foo/bar/" is the same repo as "github.com/foo/bar".
		return strings.HasPrefix(s, pre) && s[prflen] == '/'
	}
	return strings.HasPrefix(s, pre) && (s[prflen] == '/' || pre+".git" == s)
}
