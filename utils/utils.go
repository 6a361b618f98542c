// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package utils provides utility functions for generating and manipulating S2 points for Voronoi diagrams.

package utils

import (
	"math"
	"math/rand"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// GenerateRandomPoints generates a vector of random points on the S2 sphere.
// The seed parameter ensures reproducibility.
func GenerateRandomPoints(cnt int, seed int64) s2.PointVector {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	sites := make(s2.PointVector, cnt)

	for i := range cnt {
		sites[i] = s2.PointFromLatLng(s2.LatLng{
			Lat: s1.Angle((random.Float64() - 0.5) * math.Pi),
			Lng: s1.Angle((random.Float64()*2 - 1) * math.Pi),
		})
	}

	return sites
}

// GenerateClusterPoints generates cnt random points within spread degrees
// of latitude and longitude around (lat, lon).
func GenerateClusterPoints(cnt int, lat, lon, spread float64, seed int64) s2.PointVector {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	sites := make(s2.PointVector, cnt)

	for i := range cnt {
		sites[i] = s2.PointFromLatLng(s2.LatLngFromDegrees(
			lat+(random.Float64()*2-1)*spread,
			lon+(random.Float64()*2-1)*spread,
		))
	}

	return sites
}

// GenerateFibonacciPoints places cnt points on the golden-angle spiral,
// which spreads them almost evenly over the sphere.
func GenerateFibonacciPoints(cnt int) s2.PointVector {
	sites := make(s2.PointVector, cnt)
	dlng := math.Pi * (3 - math.Sqrt(5))
	dz := 2.0 / float64(cnt)

	for i := range cnt {
		z := 1 - dz/2 - float64(i)*dz
		sites[i] = s2.PointFromLatLng(s2.LatLng{
			Lat: s1.Angle(math.Asin(z)),
			Lng: s1.Angle(math.Remainder(float64(i)*dlng, 2*math.Pi)),
		})
	}

	return sites
}

// RegularGridCenters returns the centers of an nlon x nlat lon/lat grid
// spanning the given rectangle, in degrees, longitude varying fastest.
func RegularGridCenters(minLon, maxLon, minLat, maxLat float64, nlon, nlat int) (lons, lats []float64) {
	if nlon <= 0 || nlat <= 0 {
		return nil, nil
	}
	dlon := (maxLon - minLon) / float64(nlon)
	dlat := (maxLat - minLat) / float64(nlat)
	lons = make([]float64, 0, nlon*nlat)
	lats = make([]float64, 0, nlon*nlat)

	for j := range nlat {
		for i := range nlon {
			lons = append(lons, minLon+(float64(i)+0.5)*dlon)
			lats = append(lats, minLat+(float64(j)+0.5)*dlat)
		}
	}

	return lons, lats
}
