package repository

import "strings"

// filter collects WHERE predicates alongside their parameters so optional
// filters never need string surgery at the call site.
type filter struct {
	preds []string
	args  []any
}

// where adds pred when cond holds. pred uses ? placeholders matching args.
func (f *filter) where(cond bool, pred string, args ...any) *filter {
	if cond {
		f.preds = append(f.preds, pred)
		f.args = append(f.args, args...)
	}
	return f
}

// clause renders " WHERE a AND b", or nothing when no predicate was added.
func (f *filter) clause() string {
	if len(f.preds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.preds, " AND ")
}

// build appends the clause and tail to base and returns the parameters.
func (f *filter) build(base, tail string) (string, []any) {
	return base + f.clause() + tail, f.args
}
