// Package tags reads and writes descriptive metadata across the supported audio
// container families (mp3, flac, mp4, ogg) behind one interface.
//
// The family of a file is decided once by sniffing its leading bytes; the
// extension is consulted only when the bytes are inconclusive. Writes merge
// into existing tags, touching only the fields supplied, and WriteVerified
// re-reads the file to confirm every supplied field landed as written.
package tags
