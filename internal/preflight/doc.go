// Package preflight provides readiness checks for the folders and external
// services matchreel depends on.
//
// The daemon runs RunAll at startup and logs each result; "matchreel check"
// renders the same results as a table. A failed check never blocks startup
// on its own: the operator decides.
package preflight
