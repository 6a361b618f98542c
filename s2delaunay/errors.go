// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2delaunay

import "errors"

// Structural-invariant violations. These indicate a defect in the builder, not bad input.
var (
	ErrTwinMismatch     = errors.New("twin edge mismatch")
	ErrBrokenRing       = errors.New("broken triangle ring")
	ErrStaleHandle      = errors.New("access to retired triangle")
	ErrPointNotInserted = errors.New("point left uninserted")
	ErrStageOrder       = errors.New("builder stage out of order")
)

// Input and precondition failures.
var (
	ErrInsufficientPoints   = errors.New("insufficient points for triangulation (minimum 4 required)")
	ErrDuplicatePoint       = errors.New("duplicate point")
	ErrInvalidCoordinate    = errors.New("invalid coordinate")
	ErrInvalidBoundary      = errors.New("invalid region boundary")
	ErrPointOutsideRegion   = errors.New("point outside region boundary")
	ErrDomainNotCovered     = errors.New("points do not surround the sphere")
	ErrBoundaryTooCoarse    = errors.New("region boundary too coarse for the site density")
	ErrPointNotLocated      = errors.New("point could not be located")
	ErrLegalizationExceeded = errors.New("legalize count exceeded")
)
