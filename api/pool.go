package api

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"recipe-api/domain"
)

type analysisJob struct {
	userID    string
	req       domain.AnalysisRequest
	dedupeKey string // key recorded in the deduper, removed on enqueue failure
}

var (
	once           sync.Once
	jobs           chan analysisJob
	workerCount    int
	jobBuf         int
	enqueueTimeout time.Duration
	handoffTimeout time.Duration
	bg             = context.Background()
	globalStore    Storage
	globalDeduper  Deduper
	globalLog      *log.Logger
	workerWG       sync.WaitGroup
)

// shutdownAnalysisSender stops worker goroutines and clears shared state. It is intended for tests.
func shutdownAnalysisSender() {
	if jobs != nil {
		close(jobs)
		jobs = nil
	}

	workerWG.Wait()

	globalStore = nil
	globalDeduper = nil
	globalLog = nil
	workerCount = 0
	jobBuf = 0
	enqueueTimeout = 0
	handoffTimeout = 0
	once = sync.Once{}
	workerWG = sync.WaitGroup{}
}

func initAnalysisSender(store Storage, deduper Deduper, log *log.Logger) {
	once.Do(func() {
		globalStore = store
		globalDeduper = deduper
		if log == nil {
			panic("Logger is not initialized")
		}
		globalLog = log

		workerCount = envInt("ANALYSIS_WORKERS", 8)
		jobBuf = envInt("ANALYSIS_BUFFER", 1024)
		enqueueTimeout = envDur("ANALYSIS_ENQUEUE_TIMEOUT", 60*time.Second)
		handoffTimeout = envDur("ANALYSIS_HANDOFF_TIMEOUT", 15*time.Millisecond)

		jobs = make(chan analysisJob, jobBuf)
		for i := 0; i < workerCount; i++ {
			workerWG.Add(1)
			go worker(i, jobs)
		}
		globalLog.Infof("analysis sender started, workers: %d, buffer: %d, timeout: %v, handoff: %v", workerCount, jobBuf, enqueueTimeout, handoffTimeout)
	})
}

func worker(id int, jobCh <-chan analysisJob) {
	defer workerWG.Done()
	for j := range jobCh {
		ctx, cancel := context.WithTimeout(bg, enqueueTimeout)
		err := globalStore.EnqueueAnalysis(ctx, j.req)
		cancel()

		if err != nil {
			if j.dedupeKey != "" && globalDeduper != nil {
				if rerr := globalDeduper.Remove(bg, j.userID, j.dedupeKey); rerr != nil {
					globalLog.Errorf("dedupe rollback failed, err: %v, key: %s, user: %s", rerr, j.dedupeKey, j.userID)
				}
			}
			globalLog.Errorf("analysis enqueue failed, err: %v, user: %s, recipe: %d, worker: %d", err, j.userID, j.req.RecipeID, id)
		}
	}
}

func tryEnqueueJob(job analysisJob) bool {
	if jobs == nil {
		return false
	}

	if ok, closed := trySendNonBlocking(jobs, job); closed {
		return false
	} else if ok {
		return true
	}

	if handoffTimeout <= 0 {
		return false
	}

	timer := time.NewTimer(handoffTimeout)
	defer timer.Stop()

	ok, closed := sendWithTimer(jobs, job, timer.C)
	if closed {
		return false
	}
	return ok
}

func trySendNonBlocking(ch chan analysisJob, job analysisJob) (ok bool, closed bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			closed = true
		}
	}()

	select {
	case ch <- job:
		return true, false
	default:
		return false, false
	}
}

func sendWithTimer(ch chan analysisJob, job analysisJob, timer <-chan time.Time) (ok bool, closed bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			closed = true
		}
	}()

	select {
	case ch <- job:
		return true, false
	case <-timer:
		return false, false
	}
}
