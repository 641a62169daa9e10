package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/zeptools/orderdocs/svc"
)

// Service - the HTTP server as a managed service
type Service struct {
	server *http.Server
	done   chan error
}

// Ensure web.Service implements svc.Service
var _ svc.Service = (*Service)(nil)

func NewService(addr string, router http.Handler) *Service {
	return &Service{
		server: &http.Server{
			Addr:    addr,
			Handler: router,
		},
		done: make(chan error, 1),
	}
}

func (s *Service) Name() string {
	return "web"
}

func (s *Service) Start() error {
	go func() {
		log.Printf("[INFO] web service listening on %s ...", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.done <- err
		} else {
			s.done <- nil
		}
	}()
	return nil
}

func (s *Service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		log.Printf("[ERROR] web service shutdown failed: %v", err)
	}
}

func (s *Service) Done() <-chan error {
	return s.done
}
