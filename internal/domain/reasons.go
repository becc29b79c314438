package domain

import "strings"

// ReasonCode explains why an encounter left the denominator.
// POP_ codes mean the encounter never entered the population at risk;
// EXCL_ codes mean it entered and was then excluded.
type ReasonCode string

// ReasonCategory separates population misses from exclusions
type ReasonCategory string

const (
	CATEGORY_POPULATION ReasonCategory = "POPULATION"
	CATEGORY_EXCLUSION  ReasonCategory = "EXCLUSION"
)

// Population reasons
const (
	POP_AGE                         ReasonCode = "POP_AGE"
	POP_DRG                         ReasonCode = "POP_DRG"
	POP_NO_OR_PROCEDURE             ReasonCode = "POP_NO_OR_PROCEDURE"
	POP_NOT_ELECTIVE                ReasonCode = "POP_NOT_ELECTIVE"
	POP_ADMISSION_TIMING            ReasonCode = "POP_ADMISSION_TIMING"
	POP_NO_TREATABLE_COMPLICATION   ReasonCode = "POP_NO_TREATABLE_COMPLICATION"
	POP_NO_ABDOMINOPELVIC_PROCEDURE ReasonCode = "POP_NO_ABDOMINOPELVIC_PROCEDURE"
	POP_NOT_NEWBORN                 ReasonCode = "POP_NOT_NEWBORN"
	POP_NO_VAGINAL_DELIVERY         ReasonCode = "POP_NO_VAGINAL_DELIVERY"
	POP_NO_INSTRUMENT               ReasonCode = "POP_NO_INSTRUMENT"
)

// Exclusion reasons
const (
	EXCL_UNGROUPABLE_DRG               ReasonCode = "EXCL_UNGROUPABLE_DRG"
	EXCL_NEWBORN_MDC15                 ReasonCode = "EXCL_NEWBORN_MDC15"
	EXCL_OBSTETRIC_MDC14               ReasonCode = "EXCL_OBSTETRIC_MDC14"
	EXCL_LOS                           ReasonCode = "EXCL_LOS"
	EXCL_PRINCIPAL_DX                  ReasonCode = "EXCL_PRINCIPAL_DX"
	EXCL_POA                           ReasonCode = "EXCL_POA"
	EXCL_TRAUMA                        ReasonCode = "EXCL_TRAUMA"
	EXCL_CANCER                        ReasonCode = "EXCL_CANCER"
	EXCL_IMMUNOCOMPROMISED_DX          ReasonCode = "EXCL_IMMUNOCOMPROMISED_DX"
	EXCL_IMMUNOCOMPROMISED_PROC        ReasonCode = "EXCL_IMMUNOCOMPROMISED_PROC"
	EXCL_HOSPICE_ADMISSION             ReasonCode = "EXCL_HOSPICE_ADMISSION"
	EXCL_TRANSFER_TO_ACUTE             ReasonCode = "EXCL_TRANSFER_TO_ACUTE"
	EXCL_BURN                          ReasonCode = "EXCL_BURN"
	EXCL_EXFOLIATIVE_DISORDER          ReasonCode = "EXCL_EXFOLIATIVE_DISORDER"
	EXCL_NONTRAUMATIC_PNEUMOTHORAX     ReasonCode = "EXCL_NONTRAUMATIC_PNEUMOTHORAX"
	EXCL_CHEST_TRAUMA                  ReasonCode = "EXCL_CHEST_TRAUMA"
	EXCL_PLEURAL_EFFUSION              ReasonCode = "EXCL_PLEURAL_EFFUSION"
	EXCL_THORACIC_SURGERY              ReasonCode = "EXCL_THORACIC_SURGERY"
	EXCL_TRANSPLEURAL_CARDIAC          ReasonCode = "EXCL_TRANSPLEURAL_CARDIAC"
	EXCL_PERIPROSTHETIC_FRACTURE       ReasonCode = "EXCL_PERIPROSTHETIC_FRACTURE"
	EXCL_ONLY_OR_HEMORRHAGE_TREATMENT  ReasonCode = "EXCL_ONLY_OR_HEMORRHAGE_TREATMENT"
	EXCL_HEMORRHAGE_TREATMENT_BEFORE   ReasonCode = "EXCL_HEMORRHAGE_TREATMENT_BEFORE_OR"
	EXCL_COAGULATION_DISORDER          ReasonCode = "EXCL_COAGULATION_DISORDER"
	EXCL_MEDICATION_BLEEDING           ReasonCode = "EXCL_MEDICATION_BLEEDING"
	EXCL_THROMBOLYTIC_BEFORE_TREATMENT ReasonCode = "EXCL_THROMBOLYTIC_BEFORE_TREATMENT"
	EXCL_CARDIAC_ARREST                ReasonCode = "EXCL_CARDIAC_ARREST"
	EXCL_SHOCK                         ReasonCode = "EXCL_SHOCK"
	EXCL_CHRONIC_KIDNEY_DISEASE        ReasonCode = "EXCL_CHRONIC_KIDNEY_DISEASE"
	EXCL_URINARY_OBSTRUCTION           ReasonCode = "EXCL_URINARY_OBSTRUCTION"
	EXCL_DIALYSIS_BEFORE_OR            ReasonCode = "EXCL_DIALYSIS_BEFORE_OR"
	EXCL_SOLITARY_KIDNEY_NEPHRECTOMY   ReasonCode = "EXCL_SOLITARY_KIDNEY_NEPHRECTOMY"
	EXCL_TRACHEOSTOMY_POA              ReasonCode = "EXCL_TRACHEOSTOMY_POA"
	EXCL_MALIGNANT_HYPERTHERMIA        ReasonCode = "EXCL_MALIGNANT_HYPERTHERMIA"
	EXCL_NEUROMUSCULAR_DISORDER        ReasonCode = "EXCL_NEUROMUSCULAR_DISORDER"
	EXCL_DEGENERATIVE_NEURO_DISORDER   ReasonCode = "EXCL_DEGENERATIVE_NEURO_DISORDER"
	EXCL_ONLY_OR_TRACHEOSTOMY          ReasonCode = "EXCL_ONLY_OR_TRACHEOSTOMY"
	EXCL_TRACHEOSTOMY_BEFORE_OR        ReasonCode = "EXCL_TRACHEOSTOMY_BEFORE_OR"
	EXCL_HIGH_RISK_PROCEDURE           ReasonCode = "EXCL_HIGH_RISK_PROCEDURE"
	EXCL_RESPIRATORY_MDC4              ReasonCode = "EXCL_RESPIRATORY_MDC4"
	EXCL_VENA_CAVA_BEFORE_OR           ReasonCode = "EXCL_VENA_CAVA_BEFORE_OR"
	EXCL_LATE_FIRST_OR                 ReasonCode = "EXCL_LATE_FIRST_OR"
	EXCL_HEPARIN_THROMBOCYTOPENIA      ReasonCode = "EXCL_HEPARIN_THROMBOCYTOPENIA"
	EXCL_NEUROLOGICAL_TRAUMA           ReasonCode = "EXCL_NEUROLOGICAL_TRAUMA"
	EXCL_ECMO                          ReasonCode = "EXCL_ECMO"
	EXCL_PRINCIPAL_INFECTION           ReasonCode = "EXCL_PRINCIPAL_INFECTION"
	EXCL_INFECTION_POA                 ReasonCode = "EXCL_INFECTION_POA"
	EXCL_CLOSURE_BEFORE_INDEX          ReasonCode = "EXCL_CLOSURE_BEFORE_INDEX"
	EXCL_PRETERM_INFANT                ReasonCode = "EXCL_PRETERM_INFANT"
	EXCL_OSTEOGENESIS_IMPERFECTA       ReasonCode = "EXCL_OSTEOGENESIS_IMPERFECTA"
	EXCL_INSTRUMENT_DELIVERY           ReasonCode = "EXCL_INSTRUMENT_DELIVERY"
)

// Category returns the reason category, derived from the code prefix
func (r ReasonCode) Category() ReasonCategory {
	if strings.HasPrefix(string(r), "POP_") {
		return CATEGORY_POPULATION
	}
	return CATEGORY_EXCLUSION
}

var reasonText = map[ReasonCode]string{
	POP_AGE:                            "Patient age outside the indicator's age range",
	POP_DRG:                            "MS-DRG not in the indicator's population",
	POP_NO_OR_PROCEDURE:                "No operating room procedure",
	POP_NOT_ELECTIVE:                   "Admission type is not elective",
	POP_ADMISSION_TIMING:               "Non-elective admission with first OR procedure more than 2 days after admission",
	POP_NO_TREATABLE_COMPLICATION:      "No serious treatable complication",
	POP_NO_ABDOMINOPELVIC_PROCEDURE:    "No qualifying abdominopelvic procedure",
	POP_NOT_NEWBORN:                    "Not a newborn encounter",
	POP_NO_VAGINAL_DELIVERY:            "No vaginal delivery",
	POP_NO_INSTRUMENT:                  "Vaginal delivery without instrument assistance",
	EXCL_UNGROUPABLE_DRG:               "Ungroupable MS-DRG 999",
	EXCL_NEWBORN_MDC15:                 "Newborn principal diagnosis in MDC 15",
	EXCL_OBSTETRIC_MDC14:               "Obstetric principal diagnosis in MDC 14",
	EXCL_LOS:                           "Length of stay below the indicator minimum",
	EXCL_PRINCIPAL_DX:                  "Principal diagnosis is the outcome of interest",
	EXCL_POA:                           "Outcome of interest present on admission",
	EXCL_TRAUMA:                        "Trauma diagnosis",
	EXCL_CANCER:                        "Cancer diagnosis",
	EXCL_IMMUNOCOMPROMISED_DX:          "Immunocompromised state diagnosis",
	EXCL_IMMUNOCOMPROMISED_PROC:        "Immunocompromised state procedure",
	EXCL_HOSPICE_ADMISSION:             "Admitted from hospice",
	EXCL_TRANSFER_TO_ACUTE:             "Transferred to another acute care hospital",
	EXCL_BURN:                          "Severe burn diagnosis",
	EXCL_EXFOLIATIVE_DISORDER:          "Exfoliative skin disorder",
	EXCL_NONTRAUMATIC_PNEUMOTHORAX:     "Non-traumatic pneumothorax principal or present on admission",
	EXCL_CHEST_TRAUMA:                  "Chest trauma diagnosis",
	EXCL_PLEURAL_EFFUSION:              "Pleural effusion diagnosis",
	EXCL_THORACIC_SURGERY:              "Thoracic surgery procedure",
	EXCL_TRANSPLEURAL_CARDIAC:          "Trans-pleural cardiac procedure",
	EXCL_PERIPROSTHETIC_FRACTURE:       "Periprosthetic fracture diagnosis",
	EXCL_ONLY_OR_HEMORRHAGE_TREATMENT:  "Only OR procedure is treatment of hemorrhage or hematoma",
	EXCL_HEMORRHAGE_TREATMENT_BEFORE:   "Hemorrhage treatment precedes the first OR procedure",
	EXCL_COAGULATION_DISORDER:          "Coagulation disorder diagnosis",
	EXCL_MEDICATION_BLEEDING:           "Medication-related bleeding principal or present on admission",
	EXCL_THROMBOLYTIC_BEFORE_TREATMENT: "Thrombolytic on or before hemorrhage treatment",
	EXCL_CARDIAC_ARREST:                "Cardiac arrest or dysrhythmia principal or present on admission",
	EXCL_SHOCK:                         "Shock principal or present on admission",
	EXCL_CHRONIC_KIDNEY_DISEASE:        "Chronic kidney failure principal or present on admission",
	EXCL_URINARY_OBSTRUCTION:           "Principal diagnosis of urinary tract obstruction",
	EXCL_DIALYSIS_BEFORE_OR:            "Dialysis on or before the first OR procedure",
	EXCL_SOLITARY_KIDNEY_NEPHRECTOMY:   "Solitary kidney present on admission with partial nephrectomy",
	EXCL_TRACHEOSTOMY_POA:              "Tracheostomy status present on admission",
	EXCL_MALIGNANT_HYPERTHERMIA:        "Malignant hyperthermia diagnosis",
	EXCL_NEUROMUSCULAR_DISORDER:        "Neuromuscular disorder present on admission",
	EXCL_DEGENERATIVE_NEURO_DISORDER:   "Degenerative neurological disorder present on admission",
	EXCL_ONLY_OR_TRACHEOSTOMY:          "Only OR procedure is tracheostomy",
	EXCL_TRACHEOSTOMY_BEFORE_OR:        "Tracheostomy before the first OR procedure",
	EXCL_HIGH_RISK_PROCEDURE:           "High-risk procedure (craniofacial, esophageal, lung cancer or lung transplant)",
	EXCL_RESPIRATORY_MDC4:              "MDC 4 respiratory system",
	EXCL_VENA_CAVA_BEFORE_OR:           "Vena cava interruption or thrombectomy on or before the first OR procedure",
	EXCL_LATE_FIRST_OR:                 "First OR procedure 10 or more days after admission",
	EXCL_HEPARIN_THROMBOCYTOPENIA:      "Heparin-induced thrombocytopenia",
	EXCL_NEUROLOGICAL_TRAUMA:           "Acute brain or spinal injury present on admission",
	EXCL_ECMO:                          "Extracorporeal membrane oxygenation",
	EXCL_PRINCIPAL_INFECTION:           "Principal diagnosis of infection",
	EXCL_INFECTION_POA:                 "Infection present on admission",
	EXCL_CLOSURE_BEFORE_INDEX:          "Abdominal wall reclosure on or before the index abdominopelvic procedure",
	EXCL_PRETERM_INFANT:                "Preterm infant with birth weight under 2000g",
	EXCL_OSTEOGENESIS_IMPERFECTA:       "Osteogenesis imperfecta",
	EXCL_INSTRUMENT_DELIVERY:           "Instrument-assisted delivery",
}

// Description returns default display text for the code
func (r ReasonCode) Description() string {
	if text, ok := reasonText[r]; ok {
		return text
	}
	return string(r)
}
