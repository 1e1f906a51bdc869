package forms

import (
	"fmt"

	"github.com/yungbote/notescribe-backend/internal/schema"
)

// Section I: Active Diagnoses.

var i0010 = map[string]string{
	"01": "Cancer",
	"02": "Dementia (including Alzheimer's disease)",
	"03": "Neurological Condition (e.g., Parkinson's disease, multiple sclerosis, ALS)",
	"04": "Stroke",
	"05": "Chronic Obstructive Pulmonary Disease (COPD)",
	"06": "Cardiovascular (excluding heart failure)",
	"07": "Heart Failure",
	"08": "Liver Disease",
	"09": "Renal Disease",
	"99": "None of the above",
}

var sectionITitles = map[string]string{
	"I0010": "Principal Diagnosis",
	"I0100": "Cancer",
	"I0600": "Heart Failure (e.g., congestive heart failure (CHF) and pulmonary edema)",
	"I0900": "Peripheral Vascular Disease (PVD) or Peripheral Arterial Disease (PAD)",
	"I0950": "Cardiovascular (excluding heart failure)",
	"I1101": "Liver disease (e.g., cirrhosis)",
	"I1510": "Renal disease",
	"I2102": "Sepsis",
	"I2900": "Diabetes Mellitus (DM)",
	"I2910": "Neuropathy",
	"I4501": "Stroke",
	"I4801": "Dementia (including Alzheimer's disease)",
	"I5150": "Neurological Conditions (e.g., Parkinson's disease, multiple sclerosis, ALS)",
	"I5401": "Seizure Disorder",
	"I6202": "Chronic Obstructive Pulmonary Disease (COPD)",
	"I8005": "Other Medical Condition",
}

var sectionIChecklist = []string{
	"I0100", "I0600", "I0900", "I0950", "I1101", "I1510", "I2102", "I2900",
	"I2910", "I4501", "I4801", "I5150", "I5401", "I6202", "I8005",
}

func sectionISchema() *schema.Node {
	fields := []schema.Field{
		schema.F("I0010", schema.Nullable(schema.EnumFromCodes(i0010))),
	}
	fields = append(fields, schema.Fields(sectionIChecklist, schema.Nullable(schema.Boolean()))...)
	return schema.Object(fields...)
}

// Section J: Health Conditions (pain block).

var j0050 = map[string]string{
	"0": "No",
	"1": "Yes",
}

var j0900A = map[string]string{
	"0": "No - Skip to J0905, Pain Active Problem",
	"1": "Yes",
}

var j0900C = map[string]string{
	"0": "None",
	"1": "Mild",
	"2": "Moderate",
	"3": "Severe",
	"9": "Pain not rated",
}

var j0900D = map[string]string{
	"1": "Numeric",
	"2": "Verbal descriptor",
	"3": "Patient visual",
	"4": "Staff observation",
	"9": "No standardized tool used",
}

var j0905 = map[string]string{
	"0": "No - Skip to J2030, Screening for Shortness of Breath",
	"1": "Yes",
}

var j0910A = map[string]string{
	"0": "No - Skip to J2030, Screening for Shortness of Breath",
	"1": "Yes",
}

var j2030A = map[string]string{
	"0": "No - Skip to J2050, Symptom Impact Screening",
	"1": "Yes",
}

var sectionJTitles = map[string]string{
	"J0050": "Death is Imminent",
	"J0900": "Pain Screening",
	"J0905": "Pain Active Problem",
	"J0910": "Comprehensive Pain Assessment",
	"J2030": "Screening for Shortness of Breath",
}

var sectionJCodes = map[string]any{
	"J0050":  j0050,
	"J0900A": j0900A,
	"J0900C": j0900C,
	"J0900D": j0900D,
	"J0905":  j0905,
	"J0910A": j0910A,
	"J2030A": j2030A,
}

func sectionJSchema() *schema.Node {
	return schema.Object(
		schema.F("J0050", schema.Nullable(schema.EnumFromCodes(j0050))),
		schema.F("J0900", schema.Object(
			schema.F("A", schema.Nullable(schema.EnumFromCodes(j0900A))),
			schema.F("B", schema.Nullable(schema.Date())),
			schema.F("C", schema.Nullable(schema.EnumFromCodes(j0900C))),
			schema.F("D", schema.Nullable(schema.EnumFromCodes(j0900D))),
		)),
		schema.F("J0905", schema.Nullable(schema.EnumFromCodes(j0905))),
		schema.F("J0910", schema.Object(
			schema.F("A", schema.Nullable(schema.EnumFromCodes(j0910A))),
			schema.F("B", schema.Nullable(schema.Date())),
		)),
		schema.F("J2030", schema.Object(
			schema.F("A", schema.Nullable(schema.EnumFromCodes(j2030A))),
		)),
	)
}

// Section M: Skin Conditions.

var m1190 = map[string]string{
	"0": "No - Skip to N0500, Scheduled Opioid",
	"1": "Yes",
}

var m1195 = map[string]string{
	"A": "Diabetic foot ulcer(s)",
	"B": "Open lesion(s) other than ulcers, rash, or skin tear (cancer lesions)",
	"C": "Pressure ulcer(s)/injuries",
	"D": "Rash(es)",
	"E": "Skin tear(s)",
	"F": "Surgical wound(s)",
	"G": "Ulcers other than diabetic or pressure ulcers (e.g., venous stasis ulcer, Kennedy ulcer)",
	"H": "Moisture Associated Skin Damage (MASD) (e.g., incontinence-associated dermatitis [IAD], perspiration, drainage)",
	"Z": "None of the above were present",
}

var m1200 = map[string]string{
	"A": "Pressure reducing device for chair",
	"B": "Pressure reducing device for bed",
	"C": "Turning/repositioning program",
	"D": "Nutrition or hydration intervention to manage skin problems",
	"E": "Pressure ulcer/injury care",
	"F": "Surgical wound care",
	"G": "Application of nonsurgical dressings (with or without topical medications) other than to feet",
	"H": "Application of ointments/medications other than to feet",
	"I": "Application of dressings to feet (with or without topical medications)",
	"J": "Incontinence Management",
	"Z": "None of the above were provided",
}

var sectionMTitles = map[string]string{
	"M1190": "Skin Conditions",
	"M1195": "Types of Skin Conditions",
	"M1200": "Skin and Ulcer/Injury Treatments",
}

var sectionMDescriptions = map[string]any{
	"M1190": m1190,
	"M1195": m1195,
	"M1200": m1200,
}

func checklistObject(keys []string) *schema.Node {
	return schema.Object(schema.Fields(keys, schema.Nullable(schema.Boolean()))...)
}

func sectionMSchema() *schema.Node {
	return schema.Object(
		schema.F("M1190", schema.Nullable(schema.EnumFromCodes(m1190))),
		schema.F("M1195", checklistObject([]string{"A", "B", "C", "D", "E", "F", "G", "H", "Z"})),
		schema.F("M1200", checklistObject([]string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "Z"})),
	)
}

// Section N: Medications.

var n0500A = map[string]string{
	"0": "No - Skip to N0510, PRN Opioid",
	"1": "Yes",
}

var n0510A = map[string]string{
	"0": "No - Skip to N0520, Bowel Regimen",
	"1": "Yes",
}

var n0520A = map[string]string{
	"0": "No - Skip to Z0400. Signature(s) of Person(s) Completing the Record",
	"1": "No, but there is documentation of why a bowel regimen was not initiated or continued - Skip to Z0400.",
	"2": "Yes",
}

var sectionNTitles = map[string]string{
	"N0500": "Scheduled Opioid",
	"N0510": "PRN Opioid",
	"N0520": "Bowel Regimen",
}

var sectionNCodes = map[string]any{
	"N0500A": n0500A,
	"N0510A": n0510A,
	"N0520A": n0520A,
}

func yesDatePair(codes map[string]string) *schema.Node {
	return schema.Object(
		schema.F("A", schema.Nullable(schema.EnumFromCodes(codes))),
		schema.F("B", schema.Nullable(schema.Date())),
	)
}

func sectionNSchema() *schema.Node {
	return schema.Object(
		schema.F("N0500", yesDatePair(n0500A)),
		schema.F("N0510", yesDatePair(n0510A)),
		schema.F("N0520", yesDatePair(n0520A)),
	)
}

func hopeSchema() *schema.Node {
	return schema.Object(
		schema.F("I", schema.Nullable(sectionISchema())),
		schema.F("J", schema.Nullable(sectionJSchema())),
		schema.F("M", schema.Nullable(sectionMSchema())),
		schema.F("N", schema.Nullable(sectionNSchema())),
	)
}

func hopePrompt() string {
	return fmt.Sprintf(`
- SECTION I (Active Diagnoses)
Titles: %s
Codes/Values: %s
- SECTION J (Health Conditions)
Titles: %s
Codes/Values: %s
- SECTION M (Skin Conditions)
Titles: %s
Descriptions: %s
- SECTION N (Medications)
Titles: %s
Codes/Values: %s
`,
		mustJSON(sectionITitles),
		mustJSON(map[string]any{"I0010": i0010}),
		mustJSON(sectionJTitles),
		mustJSON(sectionJCodes),
		mustJSON(sectionMTitles),
		mustJSON(sectionMDescriptions),
		mustJSON(sectionNTitles),
		mustJSON(sectionNCodes),
	)
}
