package email

import "fmt"

// Email subjects. French, matching the agency's working language.

func subjectLeadAssigned(company string) string {
	return fmt.Sprintf("Nouveau lead attribué : %s", company)
}

func subjectEscalation(company string) string {
	return fmt.Sprintf("Lead sans activité : %s", company)
}

// SubjectColdLeads is the cold-lead digest subject.
func SubjectColdLeads(count int) string {
	return fmt.Sprintf("%d lead(s) sans contact récent", count)
}

// SubjectOverdueActions is the overdue-action digest subject.
func SubjectOverdueActions(count int) string {
	return fmt.Sprintf("%d action(s) en retard", count)
}

// SubjectProposalReminders is the proposal reminder digest subject.
func SubjectProposalReminders(count int) string {
	return fmt.Sprintf("%d proposition(s) en attente de relance", count)
}

func subjectWeeklyReport() string {
	return "Rapport hebdomadaire du pipeline"
}

func subjectLeadConverted(company string) string {
	return fmt.Sprintf("Lead converti en client : %s", company)
}
