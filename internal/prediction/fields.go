// Package prediction holds the data model of a climate risk prediction: the
// 13 site attributes a user submits, the response of the prediction service,
// and the rules that take raw form input to a validated request.
package prediction

import "strings"

// Field names as they appear in form submissions and in the JSON payload.
const (
	FieldLatitude             = "Latitude"
	FieldLongitude            = "Longitude"
	FieldVegetationType       = "Vegetation_Type"
	FieldBiodiversityIndex    = "Biodiversity_Index"
	FieldProtectedAreaStatus  = "Protected_Area_Status"
	FieldElevation            = "Elevation_m"
	FieldSlopeDegree          = "Slope_Degree"
	FieldSoilType             = "Soil_Type"
	FieldAirQualityIndex      = "Air_Quality_Index"
	FieldAverageTemperature   = "Average_Temperature_C"
	FieldTouristAttractions   = "Tourist_Attractions"
	FieldAccessibilityScore   = "Accessibility_Score"
	FieldTouristCapacityLimit = "Tourist_Capacity_Limit"
)

// FieldKind describes how a raw form value is normalized.
type FieldKind string

const (
	KindNumber   FieldKind = "number"
	KindCategory FieldKind = "category"
	KindBoolean  FieldKind = "boolean"
)

// Field describes one input of the prediction form.
type Field struct {
	Name string
	Kind FieldKind
	// Control is the HTML input type used to render the field.
	Control string
	Unit    string
	Min     *float64
	Max     *float64
	Step    string
	Options []string
	// Default is the initial position of a slider. Other controls start blank.
	Default string
}

// Label is the human-readable name used in messages: underscores become spaces.
func (f Field) Label() string {
	return Label(f.Name)
}

// IsRange reports whether the field is rendered as a slider with a live readout.
func (f Field) IsRange() bool {
	return f.Control == "range"
}

// Label converts a field name into its human-readable form.
func Label(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}

// VegetationTypes and SoilTypes are the categorical choices offered by the form.
var (
	VegetationTypes = []string{"Forest", "Grassland", "Wetland", "Desert", "Shrubland", "Tundra", "Mangrove"}
	SoilTypes       = []string{"Sandy", "Clay", "Loamy", "Silty", "Peaty", "Rocky", "Chalky"}
)

func bound(v float64) *float64 { return &v }

// Fields is the ordered catalog of required inputs. The order governs both the
// rendered form and the order of "is required" messages.
var Fields = []Field{
	{Name: FieldLatitude, Kind: KindNumber, Control: "number", Unit: "°", Min: bound(MinLatitude), Max: bound(MaxLatitude), Step: "any"},
	{Name: FieldLongitude, Kind: KindNumber, Control: "number", Unit: "°", Min: bound(MinLongitude), Max: bound(MaxLongitude), Step: "any"},
	{Name: FieldVegetationType, Kind: KindCategory, Control: "select", Options: VegetationTypes},
	{Name: FieldBiodiversityIndex, Kind: KindNumber, Control: "range", Min: bound(MinBiodiversity), Max: bound(MaxBiodiversity), Step: "0.01", Default: "0.5"},
	{Name: FieldProtectedAreaStatus, Kind: KindBoolean, Control: "radio"},
	{Name: FieldElevation, Kind: KindNumber, Control: "number", Unit: "m", Step: "any"},
	{Name: FieldSlopeDegree, Kind: KindNumber, Control: "range", Unit: "°", Min: bound(0), Max: bound(90), Step: "1", Default: "15"},
	{Name: FieldSoilType, Kind: KindCategory, Control: "select", Options: SoilTypes},
	{Name: FieldAirQualityIndex, Kind: KindNumber, Control: "number", Min: bound(MinAirQuality), Max: bound(MaxAirQuality), Step: "any"},
	{Name: FieldAverageTemperature, Kind: KindNumber, Control: "number", Unit: "°C", Step: "any"},
	{Name: FieldTouristAttractions, Kind: KindNumber, Control: "number", Min: bound(0), Step: "1"},
	{Name: FieldAccessibilityScore, Kind: KindNumber, Control: "range", Min: bound(1), Max: bound(10), Step: "1", Default: "5"},
	{Name: FieldTouristCapacityLimit, Kind: KindNumber, Control: "number", Min: bound(0), Step: "1"},
}

// FieldByName looks up a field by its JSON name.
func FieldByName(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// RequiredFieldNames returns the field names in catalog order.
func RequiredFieldNames() []string {
	names := make([]string, len(Fields))
	for i, f := range Fields {
		names[i] = f.Name
	}
	return names
}
