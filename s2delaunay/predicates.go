// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2delaunay

import "github.com/golang/geo/r3"

// orientErrorBound bounds the rounding error of the floating-point
// determinant in orient, relative to the product of its edge lengths.
const orientErrorBound = 1e-13

// orient returns the sign of det(b-a, c-a, d-a): +1 when d lies on the side
// of the plane through a, b and c that (b-a)x(c-a) points to, -1 on the other
// side and 0 when the four points are coplanar. For a counter-clockwise
// triangle (a, b, c) on the unit sphere, +1 means d lies inside its
// circumcircle.
//
// The floating-point value is trusted only outside its error bound; closer
// to zero the determinant is recomputed exactly.
func orient(a, b, c, d r3.Vector) int {
	ab, ac, ad := b.Sub(a), c.Sub(a), d.Sub(a)
	det := ab.Cross(ac).Dot(ad)
	bound := orientErrorBound * ab.Norm() * ac.Norm() * ad.Norm()
	switch {
	case det > bound:
		return 1
	case det < -bound:
		return -1
	}
	return exactOrient(a, b, c, d)
}

func exactOrient(a, b, c, d r3.Vector) int {
	xa := r3.PreciseVectorFromVector(a)
	ab := r3.PreciseVectorFromVector(b).Sub(xa)
	ac := r3.PreciseVectorFromVector(c).Sub(xa)
	ad := r3.PreciseVectorFromVector(d).Sub(xa)
	return ab.Cross(ac).Dot(ad).Sign()
}
