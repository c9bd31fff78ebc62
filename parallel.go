package fmm

// parallelFor splits the range [0, n) into contiguous chunks, runs f over
// each chunk on one of the manager's workers, and blocks until every chunk
// has finished. The chunking depends only on n and the worker count, so
// repeated runs partition identically. The final chunk runs on the calling
// goroutine.
func (man *Manager) parallelFor(n int, f func(worker, lo, hi int)) {
	if n == 0 { return }
	workers := man.workers
	if workers > n { workers = n }

	out := make(chan int, workers)
	chunk := n / workers

	for id := 0; id < workers-1; id++ {
		go func(id int) {
			f(id, id*chunk, (id+1)*chunk)
			out <- id
		}(id)
	}
	id := workers - 1
	f(id, id*chunk, n)
	out <- id

	for i := 0; i < workers; i++ { <-out }
}
