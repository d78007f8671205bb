package registry

// The fixed Patient Report Form catalogue. The PRF is modelled as a
// built-in template so the legacy flow and the dynamic-form flow share
// one document model.

const (
	PRFTemplateId      = "prf"
	PRFTemplateVersion = 1
)

// PRFSections returns the compile-time section catalogue of the fixed
// Patient Report Form.
func PRFSections() []Descriptor {
	return []Descriptor{
		{
			Key: "patient-details", Label: "Patient Details", Order: 1,
			Schema: Schema{Fields: []FieldRule{
				{Name: "name", Label: "Full name", Kind: KindString, Required: true, Rules: "min=1,max=255"},
				{Name: "date_of_birth", Label: "Date of birth", Kind: KindString, Rules: "datetime=2006-01-02"},
				{Name: "gender", Label: "Gender", Kind: KindString, Rules: "oneof=male female other unknown"},
				{Name: "id_number", Label: "ID number", Kind: KindString, Rules: "max=64"},
			}},
		},
		{
			Key: "incident-information", Label: "Incident Information", Order: 2,
			Schema: Schema{Fields: []FieldRule{
				{Name: "location", Label: "Location", Kind: KindString, Required: true, Rules: "min=1"},
				{Name: "occurred_at", Label: "Time of incident", Kind: KindString, Required: true},
				{Name: "description", Label: "Description", Kind: KindText},
			}},
		},
		{
			Key: "primary-survey", Label: "Primary Survey", Order: 3,
			Schema: Schema{Fields: []FieldRule{
				{Name: "airway_clear", Label: "Airway clear", Kind: KindBool, Required: true},
				{Name: "breathing_normal", Label: "Breathing normal", Kind: KindBool, Required: true},
				{Name: "circulation_normal", Label: "Circulation normal", Kind: KindBool, Required: true},
				{Name: "avpu", Label: "AVPU", Kind: KindString, Rules: "oneof=alert verbal pain unresponsive"},
			}},
		},
		{
			Key: "vital-signs", Label: "Vital Signs", Order: 4,
			Schema: Schema{Fields: []FieldRule{
				{Name: "pulse", Label: "Pulse (bpm)", Kind: KindNumber, Required: true, Rules: "gte=0,lte=400"},
				{Name: "systolic_bp", Label: "Systolic BP", Kind: KindNumber, Rules: "gte=0,lte=400"},
				{Name: "diastolic_bp", Label: "Diastolic BP", Kind: KindNumber, Rules: "gte=0,lte=300"},
				{Name: "respiratory_rate", Label: "Respiratory rate", Kind: KindNumber, Required: true, Rules: "gte=0,lte=120"},
				{Name: "spo2", Label: "SpO2 (%)", Kind: KindNumber, Rules: "gte=0,lte=100"},
				{Name: "temperature", Label: "Temperature (C)", Kind: KindNumber, Rules: "gte=20,lte=45"},
			}},
		},
		{
			Key: "injuries", Label: "Injuries", Order: 5,
			Schema: Schema{Fields: []FieldRule{
				{Name: "entries", Label: "Injury entries", Kind: KindList, Required: true, Rules: "min=1"},
			}},
		},
		{
			Key: "mechanism-of-injury", Label: "Mechanism of Injury", Order: 6,
			Schema: Schema{Fields: []FieldRule{
				{Name: "mechanism", Label: "Mechanism", Kind: KindString, Required: true, Rules: "min=1"},
				{Name: "details", Label: "Details", Kind: KindText},
			}},
		},
		{
			Key: "respiratory-distress", Label: "Respiratory Distress", Order: 7,
			Schema: Schema{Fields: []FieldRule{
				{Name: "present", Label: "Distress present", Kind: KindBool, Required: true},
				{Name: "interventions", Label: "Interventions", Kind: KindList},
			}},
		},
		{
			Key: "medication-administration", Label: "Medication Administration", Order: 8,
			Schema: Schema{Fields: []FieldRule{
				{Name: "administered", Label: "Medication given", Kind: KindBool, Required: true},
				{Name: "medications", Label: "Medications", Kind: KindList},
			}},
		},
		{
			Key: "intravenous-therapy", Label: "Intravenous Therapy", Order: 9,
			Schema: Schema{Fields: []FieldRule{
				{Name: "established", Label: "IV established", Kind: KindBool, Required: true},
				{Name: "site", Label: "Site", Kind: KindString},
				{Name: "fluid", Label: "Fluid", Kind: KindString},
				{Name: "volume_ml", Label: "Volume (ml)", Kind: KindNumber, Rules: "gte=0"},
			}},
		},
		{
			Key: "inventory", Label: "Inventory", Order: 10,
			Schema: Schema{Fields: []FieldRule{
				{Name: "items_used", Label: "Items used", Kind: KindList, Required: true},
			}},
		},
		{
			Key: "past-medical-history", Label: "Past Medical History", Order: 11,
			Schema: Schema{Fields: []FieldRule{
				{Name: "conditions", Label: "Known conditions", Kind: KindList, Required: true},
				{Name: "allergies", Label: "Allergies", Kind: KindList},
				{Name: "regular_medication", Label: "Regular medication", Kind: KindText},
			}},
		},
		{
			Key: "notes", Label: "Notes", Order: 12,
			Schema: Schema{Fields: []FieldRule{
				{Name: "text", Label: "Notes", Kind: KindText, Required: true, Rules: "min=1"},
			}},
		},
		{
			Key: "patient-handover", Label: "Patient Handover", Order: 13,
			Schema: Schema{Fields: []FieldRule{
				{Name: "receiving_facility", Label: "Receiving facility", Kind: KindString, Required: true, Rules: "min=1"},
				{Name: "receiving_staff", Label: "Receiving staff", Kind: KindString, Required: true, Rules: "min=1"},
				{Name: "handover_time", Label: "Handover time", Kind: KindString},
			}},
		},
		{
			Key: "transportation", Label: "Transportation", Order: 14,
			Schema: Schema{Fields: []FieldRule{
				{Name: "mode", Label: "Mode", Kind: KindString, Required: true, Rules: "oneof=ambulance helicopter private walk-in other"},
				{Name: "unit", Label: "Unit", Kind: KindString},
				{Name: "departed_at", Label: "Departure time", Kind: KindString},
				{Name: "arrived_at", Label: "Arrival time", Kind: KindString},
			}},
		},
	}
}

// PRF returns the registry for the fixed Patient Report Form.
func PRF() *Registry {
	return New(PRFSections())
}
