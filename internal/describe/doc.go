// Package describe turns a resolved OpenDota match into the human-facing
// text published with a recording: the description file body, the video
// title, the tag list, and a prompt for generating a thumbnail.
//
// Everything here is a pure function of the match record, the memoized
// catalogs, and the recording instant. No network access happens at this
// layer.
package describe
