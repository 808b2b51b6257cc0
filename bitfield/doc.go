// Package bitfield allocates C bitfields inside their storage units and reads
// and writes them in byte images.
//
// Allocation follows the SysV psABI rules used by GCC: a field's unit is its
// declared type, a field that would cross a unit boundary starts the next
// unit, and a zero-width field moves the cursor to the next unit boundary.
// Allocation positions are in allocation order; Order maps them to value bits
// for the target's byte order.
package bitfield
