package forms

import "github.com/yungbote/notescribe-backend/internal/schema"

func visitSchema() *schema.Node {
	return schema.Object(
		schema.F("visitInformation", schema.Object(
			schema.F("visitDateTime", schema.Nullable(schema.Date())),
			schema.F("visitType", schema.Nullable(schema.Enum("Routine", "Urgent", "Continuous", "Telehealth"))),
			schema.F("reasonForVisit", schema.Nullable(schema.String())),
			schema.F("subjectiveNarrative", schema.Nullable(schema.String())),
		)),
		schema.F("symptomAssessment", schema.Object(
			schema.F("physicalSymptoms", schema.Object(
				schema.F("pain", schema.Boolean()),
				schema.F("dyspnea", schema.Boolean()),
				schema.F("edema", schema.Boolean()),
				schema.F("skinIntegrityIssues", schema.Boolean()),
				schema.F("nutritionConcerns", schema.Boolean()),
				schema.F("sleepDisturbance", schema.Boolean()),
			)),
			schema.F("painAssessmentTool", schema.Nullable(schema.Enum("Numeric", "Verbal", "FACES"))),
			schema.F("additionalSymptomDetails", schema.Nullable(schema.String())),
		)),
		schema.F("psychologicalCognitive", schema.Object(
			schema.F("moodChanges", schema.Nullable(schema.Boolean())),
			schema.F("anxiety", schema.Nullable(schema.Boolean())),
			schema.F("depression", schema.Nullable(schema.Boolean())),
			schema.F("confusion", schema.Nullable(schema.Boolean())),
			schema.F("cognitiveObservations", schema.Nullable(schema.String())),
		)),
		schema.F("interventions", schema.Object(
			schema.F("medicationReviewCompleted", schema.Nullable(schema.Boolean())),
			schema.F("painManagementAdjusted", schema.Nullable(schema.Boolean())),
			schema.F("nonPharmacologicMeasuresApplied", schema.Nullable(schema.Boolean())),
			schema.F("interventionDetails", schema.Nullable(schema.String())),
		)),
		schema.F("assessmentImpression", schema.Object(
			schema.F("clinicalImpression", schema.Nullable(schema.String())),
		)),
		schema.F("planOfCare", schema.Object(
			schema.F("goalsOfCareConfirmedUpdated", schema.Nullable(schema.Boolean())),
			schema.F("advanceDirectivesReviewed", schema.Nullable(schema.Boolean())),
			schema.F("referralsInitiated", schema.Nullable(schema.String())),
			schema.F("planNarrative", schema.Nullable(schema.String())),
		)),
		schema.F("patientFamilyEducationResponse", schema.Object(
			schema.F("diseaseProcessExplained", schema.Nullable(schema.Boolean())),
			schema.F("medicationPurposeDosingSideEffectsReviewed", schema.Nullable(schema.Boolean())),
			schema.F("communityResourcesRightsProvided", schema.Nullable(schema.Boolean())),
			schema.F("educationResponse", schema.Nullable(schema.String())),
		)),
		schema.F("careCoordination", schema.Object(
			schema.F("notificationsSentTo", schema.Nullable(schema.String())),
		)),
	)
}
