package prediction

// Request is the payload sent to the prediction service. A nil field is
// absent: it was left blank or could not be parsed.
type Request struct {
	Latitude             *float64 `json:"Latitude,omitempty" yaml:"Latitude" validate:"required,gte=-90,lte=90"`
	Longitude            *float64 `json:"Longitude,omitempty" yaml:"Longitude" validate:"required,gte=-180,lte=180"`
	VegetationType       *string  `json:"Vegetation_Type,omitempty" yaml:"Vegetation_Type" validate:"required"`
	BiodiversityIndex    *float64 `json:"Biodiversity_Index,omitempty" yaml:"Biodiversity_Index" validate:"required,gte=0,lte=1"`
	ProtectedAreaStatus  *bool    `json:"Protected_Area_Status,omitempty" yaml:"Protected_Area_Status" validate:"required"`
	ElevationM           *float64 `json:"Elevation_m,omitempty" yaml:"Elevation_m" validate:"required"`
	SlopeDegree          *float64 `json:"Slope_Degree,omitempty" yaml:"Slope_Degree" validate:"required"`
	SoilType             *string  `json:"Soil_Type,omitempty" yaml:"Soil_Type" validate:"required"`
	AirQualityIndex      *float64 `json:"Air_Quality_Index,omitempty" yaml:"Air_Quality_Index" validate:"required,gte=0,lte=500"`
	AverageTemperatureC  *float64 `json:"Average_Temperature_C,omitempty" yaml:"Average_Temperature_C" validate:"required"`
	TouristAttractions   *float64 `json:"Tourist_Attractions,omitempty" yaml:"Tourist_Attractions" validate:"required"`
	AccessibilityScore   *float64 `json:"Accessibility_Score,omitempty" yaml:"Accessibility_Score" validate:"required"`
	TouristCapacityLimit *float64 `json:"Tourist_Capacity_Limit,omitempty" yaml:"Tourist_Capacity_Limit" validate:"required"`
}

// Bounds enforced before a request may be transmitted.
const (
	MinLatitude     = -90.0
	MaxLatitude     = 90.0
	MinLongitude    = -180.0
	MaxLongitude    = 180.0
	MinBiodiversity = 0.0
	MaxBiodiversity = 1.0
	MinAirQuality   = 0.0
	MaxAirQuality   = 500.0
)

// numbers returns pointers to every numeric field keyed by field name.
func (r *Request) numbers() map[string]**float64 {
	return map[string]**float64{
		FieldLatitude:             &r.Latitude,
		FieldLongitude:            &r.Longitude,
		FieldBiodiversityIndex:    &r.BiodiversityIndex,
		FieldElevation:            &r.ElevationM,
		FieldSlopeDegree:          &r.SlopeDegree,
		FieldAirQualityIndex:      &r.AirQualityIndex,
		FieldAverageTemperature:   &r.AverageTemperatureC,
		FieldTouristAttractions:   &r.TouristAttractions,
		FieldAccessibilityScore:   &r.AccessibilityScore,
		FieldTouristCapacityLimit: &r.TouristCapacityLimit,
	}
}

func (r *Request) categories() map[string]**string {
	return map[string]**string{
		FieldVegetationType: &r.VegetationType,
		FieldSoilType:       &r.SoilType,
	}
}

// Float returns a pointer for a literal, for building requests in code.
func Float(v float64) *float64 { return &v }

// String returns a pointer for a literal, for building requests in code.
func String(v string) *string { return &v }

// Bool returns a pointer for a literal, for building requests in code.
func Bool(v bool) *bool { return &v }

// SampleRequest returns the built-in sample site: a protected wetland near
// Miami.
func SampleRequest() Request {
	return Request{
		Latitude:             Float(25.7617),
		Longitude:            Float(-80.1918),
		VegetationType:       String("Wetland"),
		BiodiversityIndex:    Float(0.75),
		ProtectedAreaStatus:  Bool(true),
		ElevationM:           Float(2),
		SlopeDegree:          Float(5),
		SoilType:             String("Sandy"),
		AirQualityIndex:      Float(85),
		AverageTemperatureC:  Float(24.5),
		TouristAttractions:   Float(6),
		AccessibilityScore:   Float(8),
		TouristCapacityLimit: Float(500),
	}
}
