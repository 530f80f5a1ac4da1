// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package subsetter is the top-level entry point wiring every component
// table entry (C1 ResourceDescriptor through C9 BeamRunner) into one call:
// Run parses the granule name, opens the output queue, fans the request out
// across beams, and returns once every beam has finished (or ctx has been
// canceled).
package subsetter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/earthdata-lab/icesat2subsetter/internal/archive"
	"github.com/earthdata-lab/icesat2subsetter/internal/beam"
	"github.com/earthdata-lab/icesat2subsetter/internal/granule"
	"github.com/earthdata-lab/icesat2subsetter/internal/idgen"
	"github.com/earthdata-lab/icesat2subsetter/internal/logctx"
	"github.com/earthdata-lab/icesat2subsetter/internal/outqueue"
	"github.com/earthdata-lab/icesat2subsetter/internal/parms"
)

// Request bundles everything a caller supplies to subset one granule:
// the archive driver, the asset/resource identity, and the parameter set.
// It corresponds to spec.md §9's "the core does not require the scripting
// layer and can be driven by any caller that supplies (asset, resource,
// params, queue)" — except Run owns queue construction so it can size the
// buffer and guarantee the terminator is always posted exactly once.
type Request struct {
	Opener      archive.Opener
	Asset       string
	Resource    string
	Params      parms.Parameters
	QueueDepth  int           // 0 defaults to 64
	PostRetries int           // 0 defaults to 5
	RetryDelay  time.Duration // 0 defaults to 50ms
	MaxBeams    int           // 0 means no cap; see beam.Request.MaxBeams
}

// Result is returned once every beam has finished.
type Result struct {
	RequestID string
	Desc      granule.ResourceDescriptor
	Queue     *outqueue.Queue
	Stats     beam.Totals
	Err       error
}

const (
	defaultQueueDepth  = 64
	defaultPostRetries = 5
	defaultRetryDelay  = 50 * time.Millisecond
)

// Run parses req.Resource into a ResourceDescriptor, then fans the request
// out across beams via internal/beam.Run. A parse failure aborts the whole
// request before any beam starts (spec.md §7: "Constructor failures during
// the initial ResourceDescriptor parse abort all beams for the request").
// The returned Queue is already closed for writes by the time Run returns;
// its buffered records (including the terminator) remain available to
// drain via Result.Queue.Records().
func Run(ctx context.Context, req Request) Result {
	requestID := uuid.New().String()
	logger := logctx.FromContext(ctx).With(
		"request_id", requestID,
		"flake_id", idgen.DefaultFlakeGenerator.NextID(),
		"resource", req.Resource,
	)
	ctx = logctx.WithLogger(ctx, logger)

	desc, err := granule.Parse(req.Resource)
	if err != nil {
		logger.Error("resource name parse failed, aborting request", "error", err)
		q := outqueue.New(1)
		q.Terminator(ctx)
		q.Close()
		return Result{RequestID: requestID, Queue: q, Err: err}
	}

	depth := req.QueueDepth
	if depth <= 0 {
		depth = defaultQueueDepth
	}
	retries := req.PostRetries
	if retries <= 0 {
		retries = defaultPostRetries
	}
	delay := req.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	q := outqueue.New(depth)

	beamReq := beam.Request{
		Opener:      req.Opener,
		Asset:       req.Asset,
		Resource:    req.Resource,
		Desc:        desc,
		Params:      req.Params,
		Queue:       q,
		PostRetries: retries,
		RetryDelay:  delay,
		MaxBeams:    req.MaxBeams,
	}

	totals, runErr := beam.Run(ctx, beamReq)
	q.Close()

	if runErr != nil {
		logger.Warn("request completed with beam errors", "error", runErr)
	} else {
		logger.Info("request completed")
	}

	return Result{
		RequestID: requestID,
		Desc:      desc,
		Queue:     q,
		Stats:     totals,
		Err:       runErr,
	}
}

// FormatRequestID renders a correlation ID suitable for log lines outside
// of Run's own logger, e.g. an HTTP handler logging before Run is called.
func FormatRequestID(desc granule.ResourceDescriptor, requestID string) string {
	return fmt.Sprintf("%s/%d-%d-%d[%s]", desc.Name, desc.RGT, desc.Cycle, desc.Region, requestID)
}
