// Package connpool implements a host:port:scheme-keyed idle connection
// pool, generalizing the teacher's internal/sched.Manager (a
// map[string]*Pool guarded by sync.RWMutex) and internal/jobs.Manager's
// TTL-based gcLoop janitor into the single-purpose shape spec.md §4.9
// describes: checkout pops the newest idle entry (discarding any that
// have aged past idle_timeout), checkin adds the newest entry and evicts
// the oldest once a bucket exceeds max_per_host.
package connpool
