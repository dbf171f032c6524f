// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

/*
Package services provides suture.Service wrappers for Spectatus components.

This package adapts existing application components to the suture v4 supervision
model, translating various lifecycle patterns (RunWithContext, Connect/Destroy,
ListenAndServe) into suture's context-aware Serve pattern.

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Wrappers declare small local interfaces instead of importing the wrapped
packages directly, which keeps them trivially mockable in tests.
*/
package services
