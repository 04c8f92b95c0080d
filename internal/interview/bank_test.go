package interview_test

import (
	"math/rand"
	"testing"

	"github.com/mockingbird-ai/mockingbird/internal/interview"
)

var allRoles = []interview.Role{
	interview.RoleSoftware,
	interview.RoleAnalytics,
	interview.RoleRetail,
	interview.RoleSales,
	interview.RoleProduct,
	interview.RoleHR,
	interview.RoleSupport,
	interview.RoleMarketing,
	interview.RoleCustom,
}

func TestQuestions_NonEmptyForEveryRole(t *testing.T) {
	for _, role := range allRoles {
		if qs := interview.Questions(role); len(qs) == 0 {
			t.Errorf("Questions(%q) is empty", role)
		}
	}
}

func TestQuestions_UnknownRole_FallsBackToCustom(t *testing.T) {
	got := interview.Questions(interview.Role("astronaut"))
	want := interview.Questions(interview.RoleCustom)
	if len(got) != len(want) || got[0] != want[0] {
		t.Errorf("Questions(unknown) = %v, want custom bank %v", got, want)
	}
}

func TestSample_NoDuplicates_CorrectLength(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	bank := interview.Questions(interview.RoleSoftware)

	for n := 0; n <= len(bank)+2; n++ {
		got := interview.Sample(rng, bank, n)

		wantLen := n
		if wantLen > len(bank) {
			wantLen = len(bank)
		}
		if len(got) != wantLen {
			t.Errorf("Sample(n=%d) returned %d prompts, want %d", n, len(got), wantLen)
		}

		seen := make(map[string]bool, len(got))
		for _, q := range got {
			if seen[q] {
				t.Errorf("Sample(n=%d) returned duplicate %q", n, q)
			}
			seen[q] = true
		}
	}
}

func TestSample_DoesNotMutateSource(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	bank := interview.Questions(interview.RoleSoftware)
	before := make([]string, len(bank))
	copy(before, bank)

	for i := 0; i < 20; i++ {
		interview.Sample(rng, bank, len(bank))
	}

	for i := range before {
		if bank[i] != before[i] {
			t.Fatalf("source bank mutated at index %d: %q != %q", i, bank[i], before[i])
		}
	}
}

func TestSample_SeededReproducibility(t *testing.T) {
	bank := interview.Questions(interview.RoleSoftware)
	a := interview.Sample(rand.New(rand.NewSource(7)), bank, 3)
	b := interview.Sample(rand.New(rand.NewSource(7)), bank, 3)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different samples: %v vs %v", a, b)
		}
	}
}
