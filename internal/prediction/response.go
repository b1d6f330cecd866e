package prediction

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Response is the decoded body returned by the prediction service. On failure
// only Success and Error are meaningful.
type Response struct {
	Success           bool          `json:"success"`
	ClimateRiskScore  float64       `json:"climate_risk_score"`
	FloodRiskCategory string        `json:"flood_risk_category"`
	RiskProbabilities Probabilities `json:"risk_probabilities"`
	RiskLevel         string        `json:"risk_level,omitempty"`
	Error             string        `json:"error,omitempty"`
}

// Probability is the likelihood of one flood risk category.
type Probability struct {
	Category string
	Value    float64
}

// Probabilities keeps category probabilities in the order the service sent
// them. It encodes to and decodes from a JSON object.
type Probabilities []Probability

// Get returns the probability for category.
func (p Probabilities) Get(category string) (float64, bool) {
	for _, e := range p {
		if e.Category == category {
			return e.Value, true
		}
	}
	return 0, false
}

// UnmarshalJSON decodes a JSON object while preserving key order. A repeated
// key keeps its first position and its last value.
func (p *Probabilities) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("risk_probabilities: expected object, got %v", tok)
	}

	var out Probabilities
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("risk_probabilities: expected key, got %v", tok)
		}
		var v float64
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("risk_probabilities[%s]: %w", key, err)
		}
		if i, seen := index[key]; seen {
			out[i].Value = v
			continue
		}
		index[key] = len(out)
		out = append(out, Probability{Category: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*p = out
	return nil
}

// MarshalJSON encodes the probabilities as a JSON object in slice order.
func (p Probabilities) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Category)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// HealthStatus is the body of the prediction service health endpoint.
type HealthStatus struct {
	Status          string   `json:"status"`
	ModelsLoaded    bool     `json:"models_loaded"`
	AvailableModels []string `json:"available_models"`
}
