// Package watcher turns new files in the recording folder into a queue of
// paths and drains that queue one recording at a time.
//
// Two watch mechanisms are supported: fsnotify (inotify on Linux) and a
// jittered directory scan for network shares where change events never
// arrive. Either way each qualifying path is queued once until the worker
// picks it up.
package watcher
