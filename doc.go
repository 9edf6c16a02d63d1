// Package benstream is a binary codec for ensembles of graph-partition
// assignments produced by MCMC sampling over districting plans.
//
// An ensemble is a long ordered sequence of assignment vectors, each mapping
// every unit of a fixed graph to a partition label. The format exploits two
// structural properties of such ensembles: spatially adjacent units usually
// share a label (so each vector run-length encodes well), and rejective
// chains repeat the previous state on every rejected proposal (so consecutive
// identical vectors collapse into one record with a multiplicity).
//
// # Stream layout
//
// A stream is a 16-byte header (magic "BENS", version, mode flags, unit
// count) followed by records back to back, no padding. All dynamic integers
// (labels, run lengths, run counts, multiplicities) are continuation-bit
// uvarints, so labels of arbitrary magnitude survive a round trip exactly.
// The body is self-delimiting: a clean stream ends at a record boundary, and
// EOF inside a record is reported as corruption.
//
// # Usage
//
//	enc, err := benstream.NewEncoder(f, unitCount, benstream.ModeChain)
//	for _, assignment := range samples {
//	    if err := enc.WriteAssignment(assignment); err != nil { ... }
//	}
//	if err := enc.Close(); err != nil { ... }
//
//	dec, err := benstream.NewDecoder(f)
//	for {
//	    assignment, err := dec.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    ...
//	}
//
// For bounded-memory or parallel access, build a ChunkIndex once over the
// closed stream and open cursors over disjoint step ranges:
//
//	ix, err := benstream.BuildChunkIndex(f)
//	err = ix.ParallelScan(ctx, readerAt, 8, func(step uint64, a []uint64) error { ... })
//
// Encoding appends strictly; streams are immutable once closed. Concurrent
// encode-while-decode of the same stream is undefined.
package benstream
