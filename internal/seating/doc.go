// Package seating models the classroom seating grid and the random reseating
// that happens between exposure iterations.
//
// Students are identified by integers in [1, rows*columns]. Every grid produced
// by a Sampler is a bijection from seats to that identifier set: each student
// sits in exactly one seat and no seat is empty.
//
// Usage:
//
//	src, err := seating.NewCryptoSource()
//	if err != nil {
//	    return err
//	}
//	sampler := seating.NewSampler(6, 4, src)
//	grid, err := sampler.Shuffle()
package seating
