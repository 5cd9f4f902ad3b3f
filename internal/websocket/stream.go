// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package websocket

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/techstack/internal/ingest"
	"github.com/tomtom215/techstack/internal/logging"
	"github.com/tomtom215/techstack/internal/metrics"
	"github.com/tomtom215/techstack/internal/models"
)

// requestWait bounds how long a stream waits for the client's request.
const requestWait = 30 * time.Second

// StreamRunner runs one ingestion on the caller's goroutine.
// *ingest.Service implements it.
type StreamRunner interface {
	RunNow(ctx context.Context, rawURL string, fn ingest.ProgressFunc) (*models.IngestResult, error)
}

// ProgressFrame is sent for every pipeline stage. The last frame carries
// progress 100, stage "Completed" and the result.
type ProgressFrame struct {
	Progress int                  `json:"progress"`
	Stage    string               `json:"stage"`
	Result   *models.IngestResult `json:"result,omitempty"`
}

// ErrorFrame ends a stream that failed.
type ErrorFrame struct {
	Error string `json:"error"`
}

// ServeIngestStream handles one /ingest/stream connection: it reads a
// single {"url": "..."} request, streams progress frames while the
// ingestion runs and closes the connection. A client that disconnects
// cancels the run.
func ServeIngestStream(ctx context.Context, conn *websocket.Conn, runner StreamRunner) {
	defer func() { _ = conn.Close() }()

	metrics.WSIngestStreams.Inc()
	defer metrics.WSIngestStreams.Dec()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(requestWait)); err != nil {
		return
	}

	var req models.IngestRequest
	if err := conn.ReadJSON(&req); err != nil {
		metrics.WSErrors.WithLabelValues("bad_request").Inc()
		writeFrame(conn, ErrorFrame{Error: "expected {\"url\": \"...\"}"})
		closeNormal(conn)
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The only reads after the request are control frames; a read error
	// means the client went away.
	_ = conn.SetReadDeadline(time.Time{})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	result, err := runner.RunNow(ctx, req.URL, func(p models.Progress) {
		// The completed frame is sent below together with the result.
		if p.Progress >= 100 {
			return
		}
		writeFrame(conn, ProgressFrame{Progress: p.Progress, Stage: p.Stage})
	})
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			logging.Ctx(ctx).Debug().Str("url", req.URL).Msg("ingest stream client disconnected")
			return
		}
		writeFrame(conn, ErrorFrame{Error: err.Error()})
		closeNormal(conn)
		return
	}

	writeFrame(conn, ProgressFrame{Progress: 100, Stage: ingest.MessageCompleted, Result: result})
	closeNormal(conn)
}

func writeFrame(conn *websocket.Conn, v interface{}) {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return
	}
	if err := conn.WriteJSON(v); err != nil {
		metrics.WSErrors.WithLabelValues("write").Inc()
		logging.Debug().Err(err).Msg("failed to write ingest stream frame")
		return
	}
	metrics.WSMessagesSent.Inc()
}

func closeNormal(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
