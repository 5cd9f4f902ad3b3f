// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

/*
Package supervisor builds the process supervision tree for the techstack
server using github.com/thejerf/suture/v4.

The root supervisor owns four layers, started in this order:

	storage-layer    database checkpoints
	ingest-layer     the ingestion worker pool
	messaging-layer  the websocket broadcast hub
	api-layer        the HTTP server

A service that returns an error is restarted with backoff. Once a layer
exceeds its failure threshold it backs off for FailureBackoff before
trying again. Supervisor events are logged through sutureslog.

Shutdown cancels the root context; each layer gets ShutdownTimeout to
stop and UnstoppedServiceReport lists anything that did not.
*/
package supervisor
