// Package organizer places committed tracks into the library tree.
//
// Destination builds root/artist/album/title.ext from sanitized segments.
// Move creates missing directories, picks a free name with a " (n)" suffix
// instead of overwriting, and renames atomically (falling back to a verified
// copy across filesystems). DryRun reports what Move would do without side
// effects.
package organizer
