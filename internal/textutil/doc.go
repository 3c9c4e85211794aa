// Package textutil provides small text helpers shared across packages, chiefly
// sanitizing artist, album and title strings into safe path segments.
package textutil
