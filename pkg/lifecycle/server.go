/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carverauto/visionconnect/pkg/logger"
)

const defaultShutdownTimeout = 10 * time.Second

// Closer is anything that must be released after the HTTP server drains.
type Closer interface {
	Close() error
}

// ServerOptions configures RunHTTPServer.
type ServerOptions struct {
	Server          *http.Server
	Listener        net.Listener
	ShutdownTimeout time.Duration
	Closers         []Closer
	Logger          logger.Logger
}

// RunHTTPServer serves until ctx is cancelled or the server fails, then shuts the
// server down gracefully and releases every closer in order.
func RunHTTPServer(ctx context.Context, opts ServerOptions) error {
	if opts.Server == nil {
		return errServerRequired
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewTestLogger()
	}

	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", opts.Server.Addr).Msg("HTTP server listening")

		var err error
		if opts.Listener != nil {
			err = opts.Server.Serve(opts.Listener)
		} else {
			err = opts.Server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		log.Info().Msg("shutting down HTTP server")

		if err := opts.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}

		return nil
	})

	err := g.Wait()

	for _, c := range opts.Closers {
		if cerr := c.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("error releasing resource during shutdown")
		}
	}

	return err
}

var errServerRequired = errors.New("lifecycle: http server is required")
