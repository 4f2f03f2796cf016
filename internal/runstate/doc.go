// Package runstate holds the state shared between conversion workers: the
// outcome counters, the failure list, the persisted error log, and the
// filesystem lock primitive guarding cross-process access.
package runstate
