package webserver

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	log "github.com/sirupsen/logrus"

	"whitelister/distribution"
	"whitelister/storage"
)

// CommitReader is the read side of the commit ledger
type CommitReader interface {
	GetCommitsAll() (map[string]storage.CommitRecord, error)
}

type WebServer struct {
	reportLock sync.RWMutex
	report     *distribution.Report

	ledger  CommitReader
	httpSvr *http.Server
}

type WebServerArgs struct {
	Report          *distribution.Report
	Ledger          CommitReader // Optional
	BindAddr        string
	BindPort        int
	ShutdownChannel <-chan interface{}
	WG              *sync.WaitGroup
}

func New(report *distribution.Report, ledger CommitReader) *WebServer {
	return &WebServer{
		report: report,
		ledger: ledger,
	}
}

// Start serves the read-only API until ShutdownChannel closes. The caller must
// have added one to WG; it is released once the server has shut down.
func Start(args WebServerArgs) (*WebServer, error) {

	ws := New(args.Report, args.Ledger)

	httpAddr := net.JoinHostPort(args.BindAddr, strconv.Itoa(args.BindPort))

	// Bind now so address errors reach the caller
	listener, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to bind %s", httpAddr)
	}

	ws.httpSvr = &http.Server{
		Handler:      ws.Handler(),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	log.WithField("Addr", httpAddr).Info("Whitelister API Listening")

	// Launch webserver in background
	go func() {
		if err := ws.httpSvr.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Errorf("Httpserver: Serve()")
		}
		log.Info("Httpserver: Shutdown")
	}()

	// Wait for shutdown signal on channel
	go func() {
		<-args.ShutdownChannel

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := ws.httpSvr.Shutdown(ctx); err != nil {
			log.WithError(err).Errorf("Httpserver: Shutdown()")
		}
		args.WG.Done()
	}()

	return ws, nil
}

// Handler is the full router wrapped with CORS and request logging
func (ws *WebServer) Handler() http.Handler {

	router := mux.NewRouter()

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/health", ws.getHealth).Methods(http.MethodGet)
	apiRouter.HandleFunc("/report", ws.getReport).Methods(http.MethodGet)
	apiRouter.HandleFunc("/ledger", ws.getLedger).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.Handler())

	corsOpts := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
	)

	return handlers.CombinedLoggingHandler(log.StandardLogger().WriterLevel(log.DebugLevel), corsOpts(router))
}

// SetReport replaces the report served on /api/report
func (ws *WebServer) SetReport(report *distribution.Report) {
	ws.reportLock.Lock()
	defer ws.reportLock.Unlock()
	ws.report = report
}

func (ws *WebServer) currentReport() *distribution.Report {
	ws.reportLock.RLock()
	defer ws.reportLock.RUnlock()
	return ws.report
}
