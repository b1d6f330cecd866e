package prediction

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResponseDecodingKeepsProbabilityOrder(t *testing.T) {
	body := `{
		"success": true,
		"climate_risk_score": 0.4521,
		"flood_risk_category": "Medium",
		"risk_probabilities": {"High": 0.2, "Low": 0.3, "Medium": 0.5},
		"risk_level": "Medium"
	}`

	var resp Response
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	want := Response{
		Success:           true,
		ClimateRiskScore:  0.4521,
		FloodRiskCategory: "Medium",
		RiskProbabilities: Probabilities{{"High", 0.2}, {"Low", 0.3}, {"Medium", 0.5}},
		RiskLevel:         "Medium",
	}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestResponseDecodingFailureBody(t *testing.T) {
	var resp Response
	if err := json.Unmarshal([]byte(`{"error": "Missing required fields: ['Latitude']"}`), &resp); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if resp.Success {
		t.Error("absent success must decode as false")
	}
	if resp.Error != "Missing required fields: ['Latitude']" {
		t.Errorf("Error = %q", resp.Error)
	}
	if resp.RiskProbabilities != nil {
		t.Errorf("RiskProbabilities = %v, want nil", resp.RiskProbabilities)
	}
}

func TestProbabilitiesDuplicateKeys(t *testing.T) {
	var p Probabilities
	if err := json.Unmarshal([]byte(`{"Low":0.1,"High":0.2,"Low":0.7}`), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := Probabilities{{"Low", 0.7}, {"High", 0.2}}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestProbabilitiesRejectsNonObject(t *testing.T) {
	for _, body := range []string{`[0.1, 0.2]`, `{"Low": "high"}`, `"Low"`} {
		var p Probabilities
		if err := json.Unmarshal([]byte(body), &p); err == nil {
			t.Errorf("Unmarshal(%s) should fail", body)
		}
	}
}

func TestProbabilitiesMarshalKeepsOrder(t *testing.T) {
	p := Probabilities{{"Medium", 0.5}, {"Low", 0.25}, {"High", 0.25}}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"Medium":0.5,"Low":0.25,"High":0.25}` {
		t.Errorf("Marshal = %s", data)
	}

	if v, ok := p.Get("Low"); !ok || v != 0.25 {
		t.Errorf("Get(Low) = %v, %v", v, ok)
	}
	if _, ok := p.Get("Extreme"); ok {
		t.Error("Get(Extreme) should report absence")
	}
}

func TestHealthStatusDecoding(t *testing.T) {
	var h HealthStatus
	body := `{"status":"healthy","models_loaded":true,"available_models":["regression","classification"]}`
	if err := json.Unmarshal([]byte(body), &h); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := HealthStatus{Status: "healthy", ModelsLoaded: true, AvailableModels: []string{"regression", "classification"}}
	if diff := cmp.Diff(want, h); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
