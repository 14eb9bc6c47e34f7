package tracer

import (
	"github.com/didi/scc/pkg/event"
	"github.com/didi/scc/pkg/syscalls"

	"github.com/pkg/errors"
)

// Filter selects events by pid, uid and syscall. A nil Filter matches
// everything.
type Filter struct {
	pids    map[uint32]struct{}
	uids    map[uint32]struct{}
	exclude map[uint32]struct{}
}

// NewFilter keeps events whose pid is in pids and uid is in uids (empty
// means any) and drops the excluded syscalls, given by name or number.
func NewFilter(pids, uids []uint32, excludeSyscalls []string) (*Filter, error) {
	f := &Filter{
		pids:    toSet(pids),
		uids:    toSet(uids),
		exclude: map[uint32]struct{}{},
	}
	for _, name := range excludeSyscalls {
		nr, ok := syscalls.Number(name)
		if !ok {
			return nil, errors.Errorf("unknown syscall %q", name)
		}
		f.exclude[nr] = struct{}{}
	}
	return f, nil
}

func toSet(values []uint32) map[uint32]struct{} {
	set := make(map[uint32]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Match reports whether the event passes the filter.
func (f *Filter) Match(e *event.SyscallEvent) bool {
	if f == nil {
		return true
	}
	if len(f.pids) > 0 {
		if _, ok := f.pids[e.PID]; !ok {
			return false
		}
	}
	if len(f.uids) > 0 {
		if _, ok := f.uids[e.UID]; !ok {
			return false
		}
	}
	_, excluded := f.exclude[e.SyscallNr]
	return !excluded
}
