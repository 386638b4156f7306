package headhunter

import "testing"

func TestSalaryBandsGroupByLevel(t *testing.T) {
	vacancies := &Vacancies{
		Items: []*Vacancy{
			{ID: "1", Experience: Named{ID: ExperienceNone}, Salary: &Salary{From: 8000, To: 12000, Currency: "EGP"}},
			{ID: "2", Experience: Named{ID: ExperienceJunior}, Salary: &Salary{From: 10000, To: 15000, Currency: "EGP"}},
			{ID: "3", Experience: Named{ID: ExperienceMid}, Salary: &Salary{From: 18000, Currency: "EGP"}},
			{ID: "4", Experience: Named{ID: ExperienceMid}, Salary: &Salary{To: 35000, Currency: "EGP"}},
			{ID: "5", Experience: Named{ID: ExperienceSenior}, Salary: &Salary{From: 45000, To: 85000, Currency: "EGP"}},
			{ID: "6", Experience: Named{ID: ExperienceSenior}, Salary: &Salary{From: 5000, To: 9000, Currency: "USD"}},
			{ID: "7", Experience: Named{ID: ExperienceJunior}},
		},
	}

	bands := vacancies.SalaryBands()
	want := []SalaryBand{
		{Level: LevelJunior, Min: 8000, Max: 15000, Currency: "EGP", Samples: 2},
		{Level: LevelMid, Min: 18000, Max: 35000, Currency: "EGP", Samples: 2},
		{Level: LevelSenior, Min: 45000, Max: 85000, Currency: "EGP", Samples: 1},
	}
	if len(bands) != len(want) {
		t.Fatalf("expected %d bands, got %+v", len(want), bands)
	}
	for i := range want {
		if bands[i] != want[i] {
			t.Fatalf("band %d: expected %+v, got %+v", i, want[i], bands[i])
		}
	}
}

func TestVacancySkillsAndLevel(t *testing.T) {
	vacancy := &Vacancy{
		KeySkills:  []KeySkill{{Name: "React"}, {Name: "  "}, {Name: " Jest "}},
		Experience: Named{ID: "unknown"},
	}

	skills := vacancy.Skills()
	if len(skills) != 2 || skills[0] != "React" || skills[1] != "Jest" {
		t.Fatalf("unexpected skills: %v", skills)
	}
	if vacancy.Level() != LevelMid {
		t.Fatalf("expected unknown experience to map to mid level, got %q", vacancy.Level())
	}
	if vacancy.HasSalary() {
		t.Fatalf("expected no salary")
	}
}

func TestExcludeArchived(t *testing.T) {
	vacancies := &Vacancies{Items: []*Vacancy{
		{ID: "1", Archived: true},
		{ID: "2"},
		{ID: "3", Archived: true},
		{ID: "4"},
	}}

	excluded := vacancies.ExcludeArchived()
	if len(excluded) != 2 || vacancies.Len() != 2 {
		t.Fatalf("expected two archived vacancies removed, got %v (left %d)", excluded, vacancies.Len())
	}
	if vacancies.FindByID("1") != nil || vacancies.FindByID("3") != nil {
		t.Fatalf("expected archived vacancies to be gone")
	}
	if vacancies.FindByID("2") == nil || vacancies.FindByID("4") == nil {
		t.Fatalf("expected open vacancies to remain")
	}
}

func TestBuildParams(t *testing.T) {
	q := buildParams(&SearchParams{
		Text:           "React Developer",
		Areas:          []int{1, 2},
		Schedules:      []string{"remote"},
		PerPage:        "50",
		OnlyWithSalary: true,
	})

	if q.Get("text") != "React Developer" || q.Get("per_page") != "50" || q.Get("only_with_salary") != "true" {
		t.Fatalf("unexpected query: %s", q.Encode())
	}
	if areas := q["area"]; len(areas) != 2 || areas[0] != "1" || areas[1] != "2" {
		t.Fatalf("unexpected areas: %v", areas)
	}
	if q.Get("schedule") != "remote" {
		t.Fatalf("unexpected schedule: %v", q["schedule"])
	}
	if _, ok := q["clusters"]; ok {
		t.Fatalf("expected false booleans to be omitted")
	}
	if _, ok := q["employer_id"]; ok {
		t.Fatalf("expected zero values to be omitted")
	}
}
