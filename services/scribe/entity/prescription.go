package entity

import (
	"encoding/json"
	"fmt"
)

// GeneralPrescriptionKey is the reserved key inside the entities payload
// whose value is a JSON string holding a serialized PrescriptionItem array.
// The double encoding comes from the prediction model's output format and is
// preserved on every round trip.
const GeneralPrescriptionKey = "GeneralPrescription"

// PrescriptionItem is one line of the medication table. It is never persisted
// on its own; it lives serialized under GeneralPrescriptionKey.
type PrescriptionItem struct {
	Medicine  string `json:"medicine"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration,omitempty"`
}

// EntitiesPayload is the structured-extraction payload. Only a handful of
// keys are interpreted; everything else is opaque and must survive
// read-modify-write cycles untouched.
type EntitiesPayload map[string]json.RawMessage

// ParseEntities decodes a stored payload. The payload must be a JSON object.
func ParseEntities(raw []byte) (EntitiesPayload, error) {
	var p EntitiesPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode entities payload: %w", err)
	}
	return p, nil
}

// Encode serializes the payload back to JSON.
func (p EntitiesPayload) Encode() ([]byte, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode entities payload: %w", err)
	}
	return raw, nil
}

// PrescriptionItems decodes the double-encoded medication table. An absent
// key yields an empty slice.
func (p EntitiesPayload) PrescriptionItems() ([]PrescriptionItem, error) {
	raw, ok := p[GeneralPrescriptionKey]
	if !ok {
		return nil, nil
	}
	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		return nil, fmt.Errorf("decode %s value: %w", GeneralPrescriptionKey, err)
	}
	if inner == "" {
		return nil, nil
	}
	var items []PrescriptionItem
	if err := json.Unmarshal([]byte(inner), &items); err != nil {
		return nil, fmt.Errorf("decode %s items: %w", GeneralPrescriptionKey, err)
	}
	return items, nil
}

// ReplacePrescriptionItems swaps only the medication table, leaving every
// other key of the payload untouched.
func (p EntitiesPayload) ReplacePrescriptionItems(items []PrescriptionItem) error {
	inner, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s items: %w", GeneralPrescriptionKey, err)
	}
	wrapped, err := json.Marshal(string(inner))
	if err != nil {
		return fmt.Errorf("wrap %s value: %w", GeneralPrescriptionKey, err)
	}
	p[GeneralPrescriptionKey] = wrapped
	return nil
}

// Prescription is the typed view of the known payload keys, used by the
// document renderer. Field names mirror the prediction model's output.
type Prescription struct {
	Medicines           []string `json:"Medicines,omitempty"`
	Medication          []string `json:"Medication,omitempty"`
	Dosage              []string `json:"Dosage,omitempty"`
	Frequency           []string `json:"Frequency,omitempty"`
	Duration            []string `json:"Duration,omitempty"`
	Advice              []string `json:"Advice,omitempty"`
	Tests               []string `json:"Tests,omitempty"`
	FollowUp            []string `json:"FollowUp,omitempty"`
	Diseases            []string `json:"Diseases,omitempty"`
	Age                 []string `json:"Age,omitempty"`
	Sex                 []string `json:"Sex,omitempty"`
	Severity            []string `json:"Severity,omitempty"`
	SignSymptom         []string `json:"Sign_symptom,omitempty"`
	DiagnosticProcedure []string `json:"Diagnostic_procedure,omitempty"`
	BiologicalStructure []string `json:"Biological_structure,omitempty"`
	GeneralPrescription string   `json:"GeneralPrescription,omitempty"`
}

// Prescription decodes the typed view from the payload.
func (p EntitiesPayload) Prescription() (Prescription, error) {
	raw, err := p.Encode()
	if err != nil {
		return Prescription{}, err
	}
	var out Prescription
	if err := json.Unmarshal(raw, &out); err != nil {
		return Prescription{}, fmt.Errorf("decode prescription view: %w", err)
	}
	return out, nil
}

// Items decodes the medication table from the typed view.
func (p Prescription) Items() ([]PrescriptionItem, error) {
	if p.GeneralPrescription == "" {
		return nil, nil
	}
	var items []PrescriptionItem
	if err := json.Unmarshal([]byte(p.GeneralPrescription), &items); err != nil {
		return nil, fmt.Errorf("decode %s items: %w", GeneralPrescriptionKey, err)
	}
	return items, nil
}
