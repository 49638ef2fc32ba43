package catalogipc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/nnstreamer/ml-service-core/pkg/catalog"
	"github.com/nnstreamer/ml-service-core/pkg/logging"
)

// Server fans requests from multiple clients in to a single catalog
// Store, matching the "system bus" semantics over a Unix domain
// socket instead of the reference platform's bus. Grounded on the
// teacher's MetainfoServer: an http.Server with its own mux, wired to a
// single in-process owner of the underlying resource.
type Server struct {
	store      *catalog.Store
	socketPath string
	logger     logging.Interface

	listener net.Listener
	server   *http.Server
}

// NewServer builds a catalogipc Server listening on socketPath.
func NewServer(store *catalog.Store, socketPath string, logger logging.Interface) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Server{store: store, socketPath: socketPath, logger: logger}
}

// Start binds the Unix domain socket and begins serving. It blocks
// until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	_ = os.Remove(s.socketPath)

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on catalog socket %s: %w", s.socketPath, err)
	}
	s.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/call", s.handleCall)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Infof("catalog IPC daemon listening on %s", s.socketPath)
	err = s.server.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server and removes the socket file.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("shutting down catalog IPC daemon")
	err := s.server.Shutdown(ctx)
	_ = os.Remove(s.socketPath)
	return err
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var env Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeReply(w, Reply{Status: statusOf(fmt.Errorf("decode envelope: %w", err))})
		return
	}

	payload, err := s.dispatch(r.Context(), env.Method, env.Args)
	writeReply(w, Reply{Status: statusOf(err), Payload: payload})
}

func writeReply(w http.ResponseWriter, reply Reply) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(reply)
}

func (s *Server) dispatch(ctx context.Context, method string, args []byte) ([]byte, error) {
	switch method {
	case MethodSetPipeline:
		var req struct{ Name, Description string }
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, decodeErr(method, err)
		}
		return nil, s.store.SetPipeline(ctx, req.Name, req.Description)

	case MethodGetPipeline:
		var req struct{ Name string }
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, decodeErr(method, err)
		}
		desc, err := s.store.GetPipeline(ctx, req.Name)
		if err != nil {
			return nil, err
		}
		return json.Marshal(desc)

	case MethodDeletePipeline:
		var req struct{ Name string }
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, decodeErr(method, err)
		}
		return nil, s.store.DeletePipeline(ctx, req.Name)

	case MethodRegisterModel:
		var req struct {
			Name, Path, Description, AppInfo string
			Activate                         bool
		}
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, decodeErr(method, err)
		}
		version, err := s.store.RegisterModel(ctx, req.Name, req.Path, req.Activate, req.Description, req.AppInfo)
		if err != nil {
			return nil, err
		}
		return json.Marshal(version)

	case MethodUpdateModelDescription:
		var req struct {
			Name        string
			Version     uint32
			Description string
		}
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, decodeErr(method, err)
		}
		return nil, s.store.UpdateModelDescription(ctx, req.Name, req.Version, req.Description)

	case MethodActivateModel:
		var req struct {
			Name    string
			Version uint32
		}
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, decodeErr(method, err)
		}
		return nil, s.store.ActivateModel(ctx, req.Name, req.Version)

	case MethodGetModel:
		var req struct {
			Name    string
			Version uint32
		}
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, decodeErr(method, err)
		}
		row, err := s.store.GetModel(ctx, req.Name, req.Version)
		if err != nil {
			return nil, err
		}
		return json.Marshal(row)

	case MethodGetModelActivated:
		var req struct{ Name string }
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, decodeErr(method, err)
		}
		row, err := s.store.GetModelActivated(ctx, req.Name)
		if err != nil {
			return nil, err
		}
		return json.Marshal(row)

	case MethodGetModelAll:
		var req struct{ Name string }
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, decodeErr(method, err)
		}
		rows, err := s.store.GetModelAll(ctx, req.Name)
		if err != nil {
			return nil, err
		}
		return json.Marshal(rows)

	case MethodDeleteModel:
		var req struct {
			Name    string
			Version uint32
		}
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, decodeErr(method, err)
		}
		return nil, s.store.DeleteModel(ctx, req.Name, req.Version)

	case MethodAddResource:
		var req struct{ Name, Path, Description, AppInfo string }
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, decodeErr(method, err)
		}
		return nil, s.store.AddResource(ctx, req.Name, req.Path, req.Description, req.AppInfo)

	case MethodGetResource:
		var req struct{ Name string }
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, decodeErr(method, err)
		}
		rows, err := s.store.GetResource(ctx, req.Name)
		if err != nil {
			return nil, err
		}
		return json.Marshal(rows)

	case MethodDeleteResource:
		var req struct{ Name string }
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, decodeErr(method, err)
		}
		return nil, s.store.DeleteResource(ctx, req.Name)

	default:
		return nil, fmt.Errorf("catalogipc: unknown method %q", method)
	}
}

func decodeErr(method string, err error) error {
	return fmt.Errorf("catalogipc: decode args for %s: %w", method, err)
}
