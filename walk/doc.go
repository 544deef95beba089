// Package walk provides lazy, composable filesystem traversal.
//
// The core of the package is Walker, a pull-based recursive directory
// iterator: nothing is read until the consumer asks for the next item,
// and the traversal state lives on an explicit heap-allocated stack of
// per-directory frames, so arbitrarily deep trees never exhaust the
// call stack.
//
//	w, err := walk.NewWalker("/some/root")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer w.Close()
//	for w.Next() {
//		if err := w.Err(); err != nil {
//			log.Println("skipping:", err)
//			continue
//		}
//		fmt.Println(w.Entry().Path())
//	}
//
// Per-entry I/O failures never abort the walk; each one is surfaced as
// an error item in the sequence and traversal continues. The only fatal
// error is failing to list the root at construction time.
//
// # Sequences and adaptors
//
// Walk returns the same traversal as an iter.Seq2, which composes with
// the lazy adaptors in this package. Each adaptor holds only its
// configuration and processes one item at a time:
//
//	seq, err := walk.Walk(root)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for path := range walk.DiscardErrors(walk.Paths(walk.AllowExtensions(seq, "go"))) {
//		fmt.Println(path)
//	}
//
// Filters never inspect error items: errors flow through every adaptor
// untouched until the consumer handles them or strips them off with
// DiscardErrors or CollectErrors.
package walk
