// Package reactor implements the cooperative event loop the catalog session runs on.
//
// # Loop
//
// A [Loop] is a queue of callbacks executed only by the goroutine calling [Loop.Turn].
// Transport goroutines never hand results to callers directly; they [Loop.Post] a completion,
// and the completion runs on the next turn. Nothing progresses unless someone turns the loop.
//
// # Futures
//
// [Future] is a one-shot result resolved through the loop. [Await] turns the loop on the calling
// goroutine until the future resolves:
//
//	track, err := reactor.Await(ctx, session.Track(ctx, id))
//
// [Go] runs a blocking function on its own goroutine and resolves a future with its result.
//
// # Streams
//
// [Stream] is a blocking [io.Reader] whose chunks are pushed by a producer and only become
// readable once a loop turn delivers them. A goroutine reading a Stream therefore starves
// unless another goroutine keeps turning the loop.
package reactor
