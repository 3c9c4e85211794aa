// Package staging fingerprints intake files and copies them into isolated
// per-item working directories so the intake original is never mutated before
// review. It also removes staging directories no live item references.
package staging
