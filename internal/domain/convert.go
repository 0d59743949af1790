package domain

const kgPerTon = 1000.0

// ConvertCarbon converts a carbon amount between "kg" and "ton".
// Returns v unchanged if from == to or if the units are unrecognised.
func ConvertCarbon(v float64, from, to string) float64 {
	if from == to {
		return v
	}
	if from == "kg" && to == "ton" {
		return v / kgPerTon
	}
	if from == "ton" && to == "kg" {
		return v * kgPerTon
	}
	return v
}
