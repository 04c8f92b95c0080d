package interview

import "math/rand"

// roleBank maps every role to its ordered pool of base question prompts.
// Each list is non-empty; the catch-all maps to a single generic prompt.
// The base prompts are rephrased by the LLM per session, so the texts here
// stay terse.
var roleBank = map[Role][]string{
	RoleSoftware: {
		"Explain time complexity of searching in a balanced BST.",
		"Describe how a hash table works and an example use-case.",
		"Explain how to reverse a singly linked list in-place.",
		"How would you detect cycles in a directed graph?",
	},
	RoleAnalytics: {
		"What's the difference between mean and median, and when to use each?",
		"How would you handle missing values in a dataset?",
		"Write a simple SQL query to compute total sales per month.",
	},
	RoleRetail: {
		"How would you handle an upset customer in a store?",
		"Describe how you'd upsell while respecting customer needs.",
		"What metrics would you track in a retail store?",
	},
	RoleSales: {
		"How do you open a conversation with a cold lead?",
		"How would you handle the objection 'too expensive'?",
		"Describe a time you closed a difficult sale (behavioural).",
	},
	RoleProduct: {
		"How do you decide MVP features for a new product?",
		"Name one metric for onboarding success and why.",
		"How would you collect rapid user feedback?",
	},
	RoleHR: {
		"What qualities do you look for in a new graduate hire?",
		"How do you give constructive feedback to an underperforming employee?",
		"How would you design a fair interview process?",
	},
	RoleSupport: {
		"How do you prioritize support tickets?",
		"How would you explain a technical fix to a non-technical customer?",
		"Describe a time you handled a difficult support case.",
	},
	RoleMarketing: {
		"How do you measure the success of a digital campaign?",
		"Describe an audience segmentation approach for a product.",
		"Give one low-cost marketing channel and why it works.",
	},
	RoleCustom: {
		"Tell me briefly what areas you want to practice.",
	},
}

// Questions returns the question pool for a role. Unknown roles fall back to
// the catch-all pool. The returned slice is shared; callers must not mutate
// it (Sample copies before shuffling).
func Questions(role Role) []string {
	if bank, ok := roleBank[role]; ok {
		return bank
	}
	return roleBank[RoleCustom]
}

// Sample returns min(n, len(bank)) prompts from bank in randomised order
// with no duplicates. The source slice is never mutated. rng is injected so
// tests can seed it.
func Sample(rng *rand.Rand, bank []string, n int) []string {
	pool := make([]string, len(bank))
	copy(pool, bank)
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	if n > len(pool) {
		n = len(pool)
	}
	if n < 0 {
		n = 0
	}
	return pool[:n]
}
