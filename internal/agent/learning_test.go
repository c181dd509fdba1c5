package agent

import (
	"strings"
	"testing"

	"github.com/sahayak-edu/sahayak/internal/model"
)

// seedProfile stores a minimal evaluation profile so path creation
// has something to personalize from.
func seedProfile(st *model.State, name, style, social, stability, favorite, difficult string) {
	if st.StudentProfiles == nil {
		st.StudentProfiles = map[string]model.StudentProfile{}
	}
	st.StudentProfiles[name] = model.StudentProfile{
		ProfileCreated: "2026-08-01T00:00:00Z",
		Analysis: model.ProfileAnalysis{
			StudentName: name,
			AcademicAnalysis: model.AcademicAnalysis{
				FavoriteSubject:    favorite,
				ChallengingSubject: difficult,
			},
			LearningStyleAnalysis: model.LearningStyleAnalysis{
				PrimaryStyle:   style,
				SocialLearning: social,
			},
			EmotionalAnalysis: model.EmotionalAnalysis{
				EmotionalStability: stability,
			},
		},
	}
}

func TestCreateLearningPathRequiresProfile(t *testing.T) {
	m := newTestManager(nil)
	args := map[string]any{
		"student_name":      "Nobody",
		"subject":           "Math",
		"curriculum_topics": []string{"Fractions"},
	}
	if _, err := callErr(t, m, "create_personalized_learning_path", model.NewState(), args); err == nil {
		t.Fatal("expected error without a stored profile")
	}
}

func TestCreateLearningPathKinesthetic(t *testing.T) {
	m := newTestManager(nil)
	st := model.NewState()
	seedProfile(st, "Ravi", "kinesthetic", "collaborative", "needs_support", "science", "math")

	result := call(t, m, "create_personalized_learning_path", st, map[string]any{
		"student_name":      "ravi",
		"subject":           "Science",
		"curriculum_topics": []string{"Plants", "Animals", "Water Cycle"},
		"duration_weeks":    6,
	})
	if result["status"] != "success" {
		t.Fatalf("status = %v", result["status"])
	}

	path := result["learning_path"].(model.LearningPath)
	if path.LearningStyle != "kinesthetic" {
		t.Errorf("learning style = %q", path.LearningStyle)
	}
	if !path.PersonalizationFactors.EmotionalSupportNeeded {
		t.Error("emotional support flag not set for needs_support student")
	}
	if path.PersonalizationFactors.SubjectAffinity != "high" {
		t.Errorf("subject affinity = %q, want high for favorite subject", path.PersonalizationFactors.SubjectAffinity)
	}
	if len(path.WeeklyPlan) == 0 {
		t.Fatal("empty weekly plan")
	}

	week1 := path.WeeklyPlan[0]
	if !strings.Contains(week1.Activities[0], "hands-on experiment") {
		t.Errorf("activities not kinesthetic: %v", week1.Activities)
	}
	hasGroupWork := false
	for _, a := range week1.Activities {
		if strings.Contains(a, "Collaborate with peers") {
			hasGroupWork = true
		}
	}
	if !hasGroupWork {
		t.Errorf("collaborative activities missing: %v", week1.Activities)
	}
	// Kinesthetic pacing: activities x 60 min x 1.2.
	want := int(float64(len(week1.Activities)*60) * 1.2)
	if week1.EstimatedTimeMinutes != want {
		t.Errorf("estimated time = %d, want %d", week1.EstimatedTimeMinutes, want)
	}
	if week1.AssessmentMethod != "Hands-on demonstration or experiment" {
		t.Errorf("assessment method = %q", week1.AssessmentMethod)
	}

	joined := strings.Join(path.Adaptations, "|")
	if !strings.Contains(joined, "Include hands-on experiments and physical activities") {
		t.Errorf("adaptations missing kinesthetic entry: %v", path.Adaptations)
	}
	if !strings.Contains(joined, "Provide frequent positive reinforcement") {
		t.Errorf("adaptations missing emotional support entry: %v", path.Adaptations)
	}
}

func TestCreateLearningPathDifficultSubjectPacing(t *testing.T) {
	m := newTestManager(nil)
	st := model.NewState()
	seedProfile(st, "Ravi", "visual", "independent", "stable", "science", "math")

	result := call(t, m, "create_personalized_learning_path", st, map[string]any{
		"student_name":      "Ravi",
		"subject":           "Math",
		"curriculum_topics": []string{"Fractions", "Decimals", "Geometry", "Algebra"},
		"duration_weeks":    12,
	})
	path := result["learning_path"].(model.LearningPath)

	// 12 weeks / 4 topics = 3, then x1.5 for the difficult subject = 4.
	// Weeks land on 1, 5, 9 before the duration runs out.
	if len(path.WeeklyPlan) != 3 {
		t.Fatalf("weekly plan length = %d, want 3", len(path.WeeklyPlan))
	}
	if path.WeeklyPlan[1].Week != 5 {
		t.Errorf("second planned week = %d, want 5", path.WeeklyPlan[1].Week)
	}
	if path.PersonalizationFactors.ChallengeLevel != "high" {
		t.Errorf("challenge level = %q, want high", path.PersonalizationFactors.ChallengeLevel)
	}

	hasExtra := false
	for _, a := range path.WeeklyPlan[0].Activities {
		if strings.Contains(a, "additional practice exercises") {
			hasExtra = true
		}
	}
	if !hasExtra {
		t.Errorf("high challenge activities missing: %v", path.WeeklyPlan[0].Activities)
	}

	final := path.AssessmentSchedule[0]
	if final.Week != 12 || final.Type != "summative" {
		t.Errorf("final assessment = %+v", final)
	}
}

func TestLearningPathMilestones(t *testing.T) {
	m := newTestManager(nil)
	st := model.NewState()
	seedProfile(st, "Ravi", "visual", "independent", "stable", "", "")

	result := call(t, m, "create_personalized_learning_path", st, map[string]any{
		"student_name":      "Ravi",
		"subject":           "History",
		"curriculum_topics": []string{"A", "B", "C", "D", "E", "F"},
		"duration_weeks":    6,
	})
	path := result["learning_path"].(model.LearningPath)

	// Topics advance weekly, so weeks 3 and 6 carry milestones.
	if len(path.Milestones) != 2 {
		t.Fatalf("milestones = %d, want 2: %+v", len(path.Milestones), path.Milestones)
	}
	if path.Milestones[0].Week != 3 || path.Milestones[1].Week != 6 {
		t.Errorf("milestone weeks = %d, %d", path.Milestones[0].Week, path.Milestones[1].Week)
	}
	if path.Milestones[1].MilestoneName != "Unit 2: F Mastery" {
		t.Errorf("milestone name = %q", path.Milestones[1].MilestoneName)
	}
}

func TestGetLearningPath(t *testing.T) {
	m := newTestManager(nil)
	st := model.NewState()
	seedProfile(st, "Ravi", "visual", "independent", "stable", "", "")

	created := call(t, m, "create_personalized_learning_path", st, map[string]any{
		"student_name":      "Ravi",
		"subject":           "Math",
		"curriculum_topics": []string{"Fractions"},
	})
	pathID := created["path_id"].(string)

	byID := call(t, m, "get_learning_path", st, map[string]any{"path_id": pathID})
	if byID["status"] != "found" {
		t.Errorf("by id status = %v", byID["status"])
	}

	byStudent := call(t, m, "get_learning_path", st, map[string]any{"student_name": "ravi"})
	if byStudent["count"] != 1 {
		t.Errorf("by student count = %v, want 1", byStudent["count"])
	}

	all := call(t, m, "get_learning_path", st, map[string]any{})
	if all["count"] != 1 {
		t.Errorf("all count = %v, want 1", all["count"])
	}

	missing := call(t, m, "get_learning_path", st, map[string]any{"path_id": "path_nope"})
	if missing["status"] != "not_found" {
		t.Errorf("missing status = %v", missing["status"])
	}
}
