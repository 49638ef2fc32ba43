package offloading

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nnstreamer/ml-service-core/pkg/edgetransport"
	"github.com/nnstreamer/ml-service-core/pkg/infomap"
	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
	"github.com/nnstreamer/ml-service-core/pkg/pipelineruntime"
	"github.com/nnstreamer/ml-service-core/pkg/zipper"
)

const (
	appRWPathToken       = "@APP_RW_PATH@"
	remoteAppRWPathToken = "@REMOTE_APP_RW_PATH@"
	trainedModelToken    = "@TRAINED_MODEL_FILE@"

	defaultWatchdogTimeLimit = 10 * time.Second
	trainedModelPollBudget   = 36 * time.Second
	trainedModelPollInterval = 500 * time.Millisecond

	trainedModelFileName = "trained_model.bin"

	// infoPacked marks a raw message's blob as a zipper archive of a
	// transfer-data directory entry rather than a single file.
	infoPacked     = "packed"
	packedZipValue = "zip"
)

// trainingPipelineMessage is the JSON "all files sent" marker that ends
// a training sender's file-staging phase (step 2/receiver step).
type trainingPipelineMessage struct {
	Pipeline struct {
		Description string          `json:"description"`
		OutputNode  json.RawMessage `json:"output_node"`
	} `json:"pipeline"`
}

// PropertySetter is an optional capability a pipelineruntime.Pipeline may
// implement to let the training sub-mode flip its "ready-to-complete"
// element property (receiver step 4). Pipelines that don't
// implement it simply skip the step.
type PropertySetter interface {
	SetProperty(element, name string, value interface{}) error
}

type trainingState struct {
	endpoint *Endpoint
	cfg      *trainingConfig
	runtime  pipelineruntime.Runtime

	mu       sync.Mutex
	pipeline pipelineruntime.Pipeline

	// receiver-only
	watchdogStop chan struct{}
	arrived      chan struct{}
	arrivedOnce  sync.Once
	done         chan struct{}
	abortedOnce  sync.Once
	aborted      bool
	startErr     error
}

func (e *Endpoint) startTraining(ctx context.Context, cfg *trainingConfig) error {
	t := &trainingState{endpoint: e, cfg: cfg, runtime: e.deps.PipelineRuntime}
	e.mu.Lock()
	e.training = t
	e.mu.Unlock()

	if e.role == edgetransport.RoleSender {
		return t.runSender(ctx)
	}
	t.watchdogStop = make(chan struct{})
	t.arrived = make(chan struct{})
	t.done = make(chan struct{})
	go t.runWatchdog(timeLimit(cfg))
	return nil
}

// waitStart blocks until the watchdog settles (the pipeline-description
// marker arrived, or the time limit expired), returning the timeout
// error in the latter case. Start on the sender side, or outside
// training mode, never calls this and returns immediately.
func (t *trainingState) waitStart(ctx context.Context) error {
	select {
	case <-t.done:
		return t.startErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func timeLimit(cfg *trainingConfig) time.Duration {
	if cfg.TimeLimitS <= 0 {
		return defaultWatchdogTimeLimit
	}
	return time.Duration(cfg.TimeLimitS) * time.Second
}

// runSender implements the sender steps 1-3: stage every transfer-data
// file (substituting @APP_RW_PATH@), send the deferred pipeline entry
// last as the JSON marker, then construct and start sender-pipeline.
func (t *trainingState) runSender(ctx context.Context) error {
	e := t.endpoint
	path := e.path

	var deferredKey, deferredValue string
	for name, value := range t.cfg.TransferData {
		if strings.Contains(value, "pipeline") {
			deferredKey, deferredValue = name, value
			continue
		}
		localPath := value
		if strings.Contains(localPath, appRWPathToken) {
			localPath = strings.ReplaceAll(localPath, appRWPathToken, path)
		}

		info, statErr := os.Stat(localPath)
		if statErr != nil {
			return mlerrors.Wrap(mlerrors.IoError, "offloading.runSender", statErr)
		}

		msgInfo := map[string]string{infoName: filepath.Base(localPath)}
		var blob []byte
		var err error
		if info.IsDir() {
			archive := filepath.Join(os.TempDir(), "offloading-"+name+".zip")
			if err := zipper.PackDirectory(localPath, archive); err != nil {
				return err
			}
			defer os.Remove(archive)
			blob, err = os.ReadFile(archive)
			if err != nil {
				return mlerrors.Wrap(mlerrors.IoError, "offloading.runSender", err)
			}
			msgInfo[infoPacked] = packedZipValue
		} else {
			blob, err = os.ReadFile(localPath)
			if err != nil {
				return mlerrors.Wrap(mlerrors.IoError, "offloading.runSender", err)
			}
		}

		msg := buildRawMessage(ServiceModelRaw, name, msgInfo, blob)
		if err := e.transport.Send(ctx, msg); err != nil {
			return mlerrors.Wrap(mlerrors.StreamsPipe, "offloading.runSender", err)
		}
	}

	if deferredKey != "" {
		blob, err := os.ReadFile(strings.ReplaceAll(deferredValue, appRWPathToken, path))
		if err != nil {
			return mlerrors.Wrap(mlerrors.IoError, "offloading.runSender", err)
		}
		msg := buildRawMessage(ServicePipelineRaw, deferredKey, nil, blob)
		if err := e.transport.Send(ctx, msg); err != nil {
			return mlerrors.Wrap(mlerrors.StreamsPipe, "offloading.runSender", err)
		}
	}

	if t.runtime == nil {
		return nil
	}
	description := strings.ReplaceAll(t.cfg.SenderPipeline, appRWPathToken, path)
	p, err := t.runtime.Construct(ctx, description, nil)
	if err != nil {
		return mlerrors.Wrap(mlerrors.StreamsPipe, "offloading.runSender", err)
	}
	if err := p.Start(ctx); err != nil {
		_ = t.runtime.Destroy(p)
		return mlerrors.Wrap(mlerrors.StreamsPipe, "offloading.runSender", err)
	}
	t.mu.Lock()
	t.pipeline = p
	t.mu.Unlock()
	return nil
}

// runWatchdog aborts training if the JSON pipeline marker does not
// arrive within the configured time limit ("Timeout").
func (t *trainingState) runWatchdog(limit time.Duration) {
	defer close(t.done)
	select {
	case <-t.arrived:
	case <-t.watchdogStop:
	case <-time.After(limit):
		t.abortedOnce.Do(func() {
			t.mu.Lock()
			t.aborted = true
			t.mu.Unlock()
		})
		t.startErr = mlerrors.New(mlerrors.InvalidParameter, "offloading.training", "pipeline description did not arrive within the time limit")
	}
}

// handleMessage intercepts messages while training is active. It returns
// true when it has fully handled the message (the generic dispatch
// in receiver.go must not also process it).
func (t *trainingState) handleMessage(m edgetransport.Message) bool {
	e := t.endpoint

	if e.role == edgetransport.RoleSender {
		if ServiceType(m.Info[infoServiceType]) != ServiceReply {
			return false
		}
		name := m.Info[infoName]
		if name == "" || len(m.Blobs) == 0 {
			return false
		}
		dir, err := e.resolveSaveDir(name)
		if err == nil {
			_ = os.WriteFile(filepath.Join(dir, safeFileName(name)), m.Blobs[0], 0o644)
		}
		info := infomap.NewInformation()
		_ = info.Set("name", name, nil)
		_ = info.Set("data", m.Blobs[0], nil)
		e.emit(EventReply, info)
		return true
	}

	t.mu.Lock()
	aborted := t.aborted
	t.mu.Unlock()
	if aborted {
		return true
	}

	if len(m.Blobs) > 0 {
		var marker trainingPipelineMessage
		if json.Unmarshal(m.Blobs[0], &marker) == nil && marker.Pipeline.Description != "" {
			select {
			case <-t.arrived:
				// pipeline description already processed; a duplicate
				// marker (retried send) must not construct a second
				// pipeline.
			default:
				t.onPipelineArrived(marker)
			}
			return true
		}
	}

	serviceKey := m.Info[infoServiceKey]
	if serviceKey == "" {
		serviceKey = "data"
	}
	dir, err := e.resolveSaveDir(serviceKey)
	if err != nil || len(m.Blobs) == 0 {
		return true
	}
	name := m.Info[infoName]
	if name == "" {
		name = serviceKey
	}
	name = safeFileName(name)

	if m.Info[infoPacked] == packedZipValue {
		archive := filepath.Join(os.TempDir(), "offloading-recv-"+safeFileName(serviceKey)+".zip")
		if err := os.WriteFile(archive, m.Blobs[0], 0o644); err == nil {
			_ = zipper.UnpackArchive(archive, filepath.Join(dir, name))
			_ = os.Remove(archive)
		}
		return true
	}

	_ = os.WriteFile(filepath.Join(dir, name), m.Blobs[0], 0o644)
	return true
}

// onPipelineArrived implements the receiver's steps 1-3: parse,
// substitute placeholders, construct and start the pipeline.
func (t *trainingState) onPipelineArrived(marker trainingPipelineMessage) {
	t.arrivedOnce.Do(func() { close(t.arrived) })

	e := t.endpoint
	description := marker.Pipeline.Description
	description = strings.ReplaceAll(description, remoteAppRWPathToken, e.path)
	description = strings.ReplaceAll(description, trainedModelToken, filepath.Join(e.path, trainedModelFileName))

	if t.runtime == nil {
		return
	}
	p, err := t.runtime.Construct(context.Background(), description, nil)
	if err != nil {
		e.logger.Errorf("offloading: training pipeline construct: %v", err)
		return
	}

	var nodes []nodeJSON
	_ = json.Unmarshal(marker.Pipeline.OutputNode, &nodes)
	for _, n := range nodes {
		name := n.Name
		_, _ = p.RegisterSink(name, func(data []byte, info map[string]string) {
			payload := infomap.NewInformation()
			_ = payload.Set("name", name, nil)
			_ = payload.Set("data", data, nil)
			e.emit(EventNewData, payload)
		})
	}

	if err := p.Start(context.Background()); err != nil {
		e.logger.Errorf("offloading: training pipeline start: %v", err)
		_ = t.runtime.Destroy(p)
		return
	}
	t.mu.Lock()
	t.pipeline = p
	t.mu.Unlock()
}

type nodeJSON struct {
	Name string          `json:"name"`
	Info json.RawMessage `json:"info"`
}

// stop implements receiver step 4: if the trained model file has
// not yet appeared, flip ready-to-complete and poll briefly for it.
func (t *trainingState) stop(ctx context.Context) error {
	e := t.endpoint
	if e.role != edgetransport.RoleReceiver {
		return nil
	}
	modelPath := filepath.Join(e.path, trainedModelFileName)
	if _, err := os.Stat(modelPath); err == nil {
		return nil
	}

	t.mu.Lock()
	p := t.pipeline
	t.mu.Unlock()
	if p != nil {
		if setter, ok := p.(PropertySetter); ok {
			_ = setter.SetProperty("training", "ready-to-complete", true)
		}
	}

	deadline := time.Now().Add(trainedModelPollBudget)
	ticker := time.NewTicker(trainedModelPollInterval)
	defer ticker.Stop()
	for time.Now().Before(deadline) {
		if _, err := os.Stat(modelPath); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return mlerrors.Wrap(mlerrors.TimedOut, "offloading.Stop", ctx.Err())
		case <-ticker.C:
		}
	}
	return mlerrors.New(mlerrors.TimedOut, "offloading.Stop", "trained model file did not appear in time")
}

// destroy implements receiver step 5: ship the trained model back
// to every transfer-data destination as a reply.
func (t *trainingState) destroy() {
	e := t.endpoint
	if e.role != edgetransport.RoleReceiver {
		return
	}
	modelPath := filepath.Join(e.path, trainedModelFileName)
	blob, err := os.ReadFile(modelPath)
	if err != nil {
		e.logger.Warnf("offloading: trained model file missing at destroy: %v", err)
		return
	}
	for name := range t.cfg.TransferData {
		msg := buildRawMessage(ServiceReply, name, map[string]string{infoName: name}, blob)
		if err := e.transport.Send(context.Background(), msg); err != nil {
			e.logger.Errorf("offloading: send trained model to %q: %v", name, err)
		}
	}
}

func (e *Endpoint) destroyTraining() {
	e.mu.Lock()
	t := e.training
	e.mu.Unlock()
	if t == nil {
		return
	}
	if t.watchdogStop != nil {
		close(t.watchdogStop)
	}
	t.destroy()
}
