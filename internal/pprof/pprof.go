package pprof

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"path/filepath"
	"runtime"
	rpprof "runtime/pprof"
	"time"

	"github.com/ogeth777/baseworld/internal/config/encoding"
	"github.com/ogeth777/baseworld/internal/logging"
)

const (
	pprofDir       = "pprof"
	memprofileFile = "mem.pprof"
	cpuprofileFile = "cpu.pprof"

	namedLogger = "pprof"
)

type Config struct {
	Level       encoding.LogLevel `long:"log-level"`
	Enabled     bool              `long:"enabled" description:"serve the profiling endpoints and record a cpu profile"`
	Port        uint16            `long:"port"`
	ProfilesDir string            `long:"profiles-dir" description:"directory the cpu and memory profiles are written to on stop, relative to home"`
}

// NewDefaultConfig create a new default configuration for the pprof handler.
func NewDefaultConfig() Config {
	return Config{
		Level:       encoding.LogLevel{Level: logging.InfoLevel},
		Enabled:     false,
		Port:        6060,
		ProfilesDir: "",
	}
}

type Pprofhandler struct {
	log *logging.Logger
	srv *http.Server

	memprofilePath string
	cpuprofilePath string
	cpuprofile     *os.File
}

// New starts the profiling server on localhost and a cpu profile.
func New(log *logging.Logger, home string, cfg Config) (*Pprofhandler, error) {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	dir := cfg.ProfilesDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(home, dir)
	}
	dir = filepath.Join(dir, pprofDir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create profiles directory: %w", err)
	}

	p := &Pprofhandler{
		log:            log,
		memprofilePath: filepath.Join(dir, memprofileFile),
		cpuprofilePath: filepath.Join(dir, cpuprofileFile),
	}

	f, err := os.Create(p.cpuprofilePath)
	if err != nil {
		p.log.Error("Could not create CPU profile file",
			logging.String("path", p.cpuprofilePath),
			logging.Error(err),
		)
		return nil, err
	}
	if err := rpprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, err
	}
	p.cpuprofile = f

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	p.srv = &http.Server{
		Addr:              fmt.Sprintf("localhost:%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := p.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.log.Error("pprof web server closed", logging.Error(err))
		}
	}()

	return p, nil
}

// Stop writes the memory profile then ends the cpu profile.
func (p *Pprofhandler) Stop() error {
	defer func() {
		rpprof.StopCPUProfile()
		p.cpuprofile.Close()
	}()
	_ = p.srv.Close()

	p.log.Info("saving pprof memory profile", logging.String("path", p.memprofilePath))
	p.log.Info("saving pprof cpu profile", logging.String("path", p.cpuprofilePath))

	f, err := os.Create(p.memprofilePath)
	if err != nil {
		p.log.Error("Could not create memory profile file",
			logging.String("path", p.memprofilePath),
			logging.Error(err),
		)
		return err
	}
	defer f.Close()

	runtime.GC()
	if err := rpprof.WriteHeapProfile(f); err != nil {
		p.log.Error("Could not write memory profile", logging.Error(err))
		return err
	}
	return nil
}
