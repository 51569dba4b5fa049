package module

import dom "pimms/internal/services/hotscore/domain"

// Ports holds the ports exposed by the hotscore module
type Ports struct {
	Worker    dom.WorkerPort
	Enqueuer  dom.EnqueuePort
	Recompute dom.RecomputePort
}
