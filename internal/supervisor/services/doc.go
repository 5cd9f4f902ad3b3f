// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

/*
Package services adapts long-running techstack components to suture.Service.

Each wrapper turns a component's own lifecycle into Serve(ctx) error and
names itself through fmt.Stringer so supervisor events identify it:

	HTTPServerService     ListenAndServe/Shutdown with a drain timeout
	WebSocketHubService   the broadcast hub's RunWithContext loop
	CheckpointService     periodic database checkpoints plus one on shutdown

The ingest worker pool already implements suture.Service and is added to
the tree directly.
*/
package services
