// Package inference resolves the title and artist of an intake file.
//
// Hints come from the file name (ParseHints). A Resolver walks an ordered
// Strategy chain: embedded tags first, then the external text-inference
// service. The chain stops at the first candidate whose confidence reaches
// the threshold. Fields no strategy can supply stay empty and the result is
// flagged for manual review; the resolver never invents values.
package inference
