// Package preflight provides readiness checks for the directories and the
// external services tuneshelf depends on.
//
// The daemon runs the directory checks at startup and logs every failure.
// The CLI "tuneshelf preflight" command runs all of them, including a live
// call to the inference service, and renders the results as a table.
package preflight
