// Package memimg builds byte images of C objects for constant folding and
// static data emission.
//
// An Image is zero filled and addressed through member paths:
//
//	im := memimg.New(tg, l)
//	_ = im.Store("hdr.flags", 3)
//	v, _ := im.LoadInt("hdr.flags")
//
// Scalars use the target byte order and bitfields use its bit insertion
// order, so reading a member through a union alias gives the value the target
// would observe. Initialize applies C initializer-list rules, including
// designators, brace elision and positional continuation after a designated
// member.
package memimg
