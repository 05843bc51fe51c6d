package guidance

// defaultCategories are the built-in navigator answer tables. A guidance
// directory can override or extend them; category order decides match
// precedence, so keep the more specific entries first.
func defaultCategories() []Category {
	return []Category{
		{
			ID:       "housing",
			Keywords: []string{"housing", "rent", "evict", "shelter", "homeless", "landlord"},
			Response: "We can connect you with housing support. Emergency shelter placement is available same-day, and our housing team can help with rental assistance applications, eviction prevention, and landlord mediation. Your caseworker will walk you through the documents you need at your first appointment.",
		},
		{
			ID:       "employment",
			Keywords: []string{"employment", "job", "work", "resume", "hiring", "unemployed"},
			Response: "Our employment services include job search coaching, resume workshops every Tuesday and Thursday, and direct referrals to partner employers. If you have been out of work for more than six months you may also qualify for our paid training program.",
		},
		{
			ID:       "mental-health",
			Keywords: []string{"mental-health", "mental health", "counseling", "therapy", "anxiety", "depression", "crisis"},
			Response: "Counseling and mental-health support are available at no cost. Walk-in crisis support is open 24/7 at the main office, and ongoing therapy appointments can be scheduled through your caseworker. If you are in immediate danger, call or text 988.",
		},
		{
			ID:       "healthcare",
			Keywords: []string{"healthcare", "medical", "doctor", "clinic", "insurance", "medicaid", "prescription"},
			Response: "We can help you enroll in health coverage and find a low-cost or free clinic near you. Bring a photo ID and proof of income to your appointment and an enrollment specialist will complete the application with you.",
		},
		{
			ID:       "food",
			Keywords: []string{"food", "groceries", "hungry", "snap", "food stamps", "pantry"},
			Response: "Food assistance is available today. The community pantry is open weekdays 9am-5pm with no appointment needed, and we can help you apply for SNAP benefits during your intake appointment.",
		},
		{
			ID:       "transportation",
			Keywords: []string{"transportation", "bus", "transit", "ride", "car"},
			Response: "Transit passes are available for clients attending appointments, job interviews, or medical visits. Ask your caseworker for a monthly pass voucher, or request a same-day ride for urgent medical needs.",
		},
	}
}

// defaultTemplates are the built-in care-plan starting points.
func defaultTemplates() map[string]PlanTemplate {
	return map[string]PlanTemplate{
		HousingFocused: {
			ID: HousingFocused,
			Goals: []string{
				"Secure stable housing within 90 days",
				"Establish an emergency savings fund",
				"Build a support network in the new neighborhood",
			},
			Tasks: []string{
				"Complete housing assistance application",
				"Gather income and identity documents",
				"Attend weekly check-ins with caseworker",
				"Tour at least three available units",
			},
			Resources: []string{
				"Emergency shelter directory",
				"Rental assistance fund",
				"Tenant rights legal clinic",
			},
		},
		EmploymentFocused: {
			ID: EmploymentFocused,
			Goals: []string{
				"Obtain full-time employment within 90 days",
				"Complete one vocational certification",
				"Build an up-to-date professional resume",
			},
			Tasks: []string{
				"Attend resume workshop",
				"Apply to five positions per week",
				"Meet with employment counselor biweekly",
				"Register with partner staffing agencies",
			},
			Resources: []string{
				"Job board access",
				"Interview clothing closet",
				"Paid training program",
			},
		},
		HealthFocused: {
			ID: HealthFocused,
			Goals: []string{
				"Establish care with a primary provider within 30 days",
				"Maintain a consistent treatment plan",
				"Enroll in health coverage",
			},
			Tasks: []string{
				"Complete health coverage application",
				"Schedule initial primary care visit",
				"Attend scheduled counseling sessions",
				"Fill and review prescriptions with pharmacist",
			},
			Resources: []string{
				"Community health clinic network",
				"Sliding-scale counseling services",
				"Prescription assistance program",
			},
		},
	}
}

// DefaultGreeting answers greeting-like navigator queries.
const DefaultGreeting = "Hello! I can help you find housing, employment, healthcare, food, and other support services. Tell me a little about what you need and I will point you to the right program and get you scheduled with a caseworker."

// DefaultClarifyingPrompt is attached to navigator answers the rules cannot
// resolve confidently.
const DefaultClarifyingPrompt = "Could you tell me more about what kind of help you are looking for? For example: housing, employment, healthcare, food, or transportation."
