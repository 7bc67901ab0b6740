package pow

import (
	"sync"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
)

// Task is a block template to seal. Generation identifies the task so a
// coordinator can discard results for templates it has since replaced.
type Task struct {
	Generation uint64
	Block      database.Block
	Complexity uint
}

// Result is a sealed block for the task with the same generation.
type Result struct {
	Generation uint64
	Block      database.Block
	Complexity uint
}

// Worker runs the nonce search on its own goroutine. It holds at most one
// active task and drops its progress whenever a new task is submitted. The
// worker shares no state with its caller, tasks and results are copied
// across channels.
type Worker struct {
	tasks     chan Task
	results   chan Result
	shut      chan struct{}
	wg        sync.WaitGroup
	once      sync.Once
	evHandler func(v string, args ...any)
}

// NewWorker starts a worker that is idle until the first task arrives.
func NewWorker(evHandler func(v string, args ...any)) *Worker {
	ev := func(v string, args ...any) {}
	if evHandler != nil {
		ev = evHandler
	}

	w := Worker{
		tasks:     make(chan Task, 1),
		results:   make(chan Result, 1),
		shut:      make(chan struct{}),
		evHandler: ev,
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run()
	}()

	return &w
}

// Submit hands the worker a new task, replacing any task that is pending or
// being searched. It never blocks.
func (w *Worker) Submit(task Task) {
	for {
		select {
		case <-w.shut:
			return
		case w.tasks <- task:
			return
		default:
		}

		// Drop the pending task the worker hasn't picked up yet.
		select {
		case <-w.tasks:
		default:
		}
	}
}

// Results returns the channel sealed blocks are delivered on.
func (w *Worker) Results() <-chan Result {
	return w.results
}

// Shutdown stops the search and waits for the worker goroutine to finish.
func (w *Worker) Shutdown() {
	w.evHandler("pow: Worker: Shutdown: started")
	defer w.evHandler("pow: Worker: Shutdown: completed")

	w.once.Do(func() {
		close(w.shut)
	})
	w.wg.Wait()
}

// =============================================================================

// run is the worker loop. It moves between idle, waiting for a task, and
// searching, where it checks for a replacement task after every batch.
func (w *Worker) run() {
	w.evHandler("pow: Worker: G started")
	defer w.evHandler("pow: Worker: G completed")

	for {
		var task Task
		select {
		case <-w.shut:
			return
		case task = <-w.tasks:
		}

		for {
			next, replaced, ok := w.searchTask(task)
			if !ok {
				return
			}
			if !replaced {
				break
			}
			task = next
		}
	}
}

// searchTask works on the task until it is solved, replaced or the worker
// is shut down. It returns the replacement task when there is one and false
// for ok on shutdown.
func (w *Worker) searchTask(task Task) (next Task, replaced bool, ok bool) {
	w.evHandler("pow: Worker: searchTask: gen[%d]: blk[%d]: complexity[%d]", task.Generation, task.Block.Payload.Index, task.Complexity)

	if task.Complexity > MaxComplexity {
		w.evHandler("pow: Worker: searchTask: gen[%d]: ERROR: complexity %d is out of range", task.Generation, task.Complexity)
		return w.waitTask()
	}

	s := newSearch(task.Block, task.Complexity)
	for {
		found, err := s.step(batchSize)
		if err != nil {
			w.evHandler("pow: Worker: searchTask: gen[%d]: ERROR: %s", task.Generation, err)
			return w.waitTask()
		}

		if found {
			w.evHandler("pow: Worker: searchTask: gen[%d]: SOLVED: nonce[%d]: attempts[%d]", task.Generation, s.block.Payload.Nonce, s.attempts)

			result := Result{
				Generation: task.Generation,
				Block:      s.block,
				Complexity: task.Complexity,
			}

			select {
			case <-w.shut:
				return Task{}, false, false
			case next := <-w.tasks:
				w.evHandler("pow: Worker: searchTask: gen[%d]: result superseded by gen[%d]", task.Generation, next.Generation)
				return next, true, true
			case w.results <- result:
				return Task{}, false, true
			}
		}

		select {
		case <-w.shut:
			return Task{}, false, false
		case next := <-w.tasks:
			w.evHandler("pow: Worker: searchTask: gen[%d]: replaced by gen[%d]: attempts[%d]", task.Generation, next.Generation, s.attempts)
			return next, true, true
		default:
		}
	}
}

// waitTask blocks until a replacement task arrives or the worker is shut
// down.
func (w *Worker) waitTask() (Task, bool, bool) {
	select {
	case <-w.shut:
		return Task{}, false, false
	case next := <-w.tasks:
		return next, true, true
	}
}
