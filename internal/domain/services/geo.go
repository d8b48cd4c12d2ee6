package services

import "math"

// EarthRadiusKM is the spherical Earth radius used by the haversine formula.
const EarthRadiusKM = 6371.0

// DistanceKM returns the great-circle distance in kilometers between two
// points, using the haversine formula on a sphere of radius EarthRadiusKM.
func DistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	return 2 * EarthRadiusKM * math.Asin(math.Min(1, math.Sqrt(a)))
}

// DistancesKM returns the great-circle distance in kilometers from one
// point to each point in lats/lons. The trigonometry of the query point
// is computed once, so comparing one record against thousands of
// candidates stays cheap. Results are identical to calling DistanceKM
// per pair. lats and lons must have equal length.
func DistancesKM(lat, lon float64, lats, lons []float64) []float64 {
	if len(lats) != len(lons) {
		panic("services: DistancesKM called with mismatched coordinate slices")
	}

	phi1 := lat * math.Pi / 180
	cosPhi1 := math.Cos(phi1)

	out := make([]float64, len(lats))
	for i := range lats {
		phi2 := lats[i] * math.Pi / 180
		dPhi := (lats[i] - lat) * math.Pi / 180
		dLambda := (lons[i] - lon) * math.Pi / 180

		sinPhi := math.Sin(dPhi / 2)
		sinLambda := math.Sin(dLambda / 2)
		a := sinPhi*sinPhi + cosPhi1*math.Cos(phi2)*sinLambda*sinLambda

		out[i] = 2 * EarthRadiusKM * math.Asin(math.Min(1, math.Sqrt(a)))
	}
	return out
}
