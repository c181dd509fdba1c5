package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/sahayak-edu/sahayak/internal/model"
)

func (m *Manager) registerLearningTools() {
	m.register("create_personalized_learning_path",
		"Create a week-by-week learning path for a student, personalized from their stored evaluation profile. Requires a completed evaluation.",
		objSchema(map[string]jsonschema.Definition{
			"student_name":      strProp("Name of the student"),
			"subject":           strProp("Subject for the learning path"),
			"curriculum_topics": strListProp("Ordered list of curriculum topics to cover"),
			"duration_weeks":    intProp("Duration in weeks, default 12"),
		}, "student_name", "subject", "curriculum_topics"),
		m.createLearningPath)

	m.register("get_learning_path",
		"Retrieve learning paths by id, by student name, or all of them.",
		objSchema(map[string]jsonschema.Definition{
			"path_id":      strProp("Specific path id (optional)"),
			"student_name": strProp("Student name to find paths for (optional)"),
		}),
		m.getLearningPath)
}

func (m *Manager) createLearningPath(_ context.Context, st *model.State, args json.RawMessage) (map[string]any, error) {
	var in struct {
		StudentName      string   `json:"student_name"`
		Subject          string   `json:"subject"`
		CurriculumTopics []string `json:"curriculum_topics"`
		DurationWeeks    int      `json:"duration_weeks"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("parse arguments: %w", err)
	}
	name := strings.TrimSpace(in.StudentName)
	subject := strings.TrimSpace(in.Subject)
	if name == "" || subject == "" {
		return nil, fmt.Errorf("student name and subject are required")
	}
	if len(in.CurriculumTopics) == 0 {
		return nil, fmt.Errorf("curriculum topics are required")
	}
	weeks := in.DurationWeeks
	if weeks <= 0 {
		weeks = 12
	}

	var profile *model.StudentProfile
	profileName := name
	for n, p := range st.StudentProfiles {
		if strings.EqualFold(n, name) {
			profile = &p
			profileName = n
			break
		}
	}
	if profile == nil {
		return nil, fmt.Errorf("no student profile found for %s, please conduct an evaluation first", name)
	}

	analysis := profile.Analysis
	style := analysis.LearningStyleAnalysis.PrimaryStyle
	if style == "" {
		style = "visual"
	}
	social := analysis.LearningStyleAnalysis.SocialLearning
	if social == "" {
		social = "independent"
	}
	stability := analysis.EmotionalAnalysis.EmotionalStability
	if stability == "" {
		stability = "stable"
	}

	subjectLower := strings.ToLower(subject)
	isDifficult := analysis.AcademicAnalysis.ChallengingSubject != "" &&
		strings.Contains(strings.ToLower(analysis.AcademicAnalysis.ChallengingSubject), subjectLower)
	isFavorite := analysis.AcademicAnalysis.FavoriteSubject != "" &&
		strings.Contains(strings.ToLower(analysis.AcademicAnalysis.FavoriteSubject), subjectLower)

	weeksPerTopic := max(1, weeks/len(in.CurriculumTopics))
	if isDifficult {
		weeksPerTopic = int(float64(weeksPerTopic) * 1.5)
	} else if isFavorite {
		weeksPerTopic = max(1, int(float64(weeksPerTopic)*0.8))
	}

	affinity, challenge := "medium", "medium"
	if isFavorite {
		affinity = "high"
	}
	if isDifficult {
		challenge = "high"
	}

	now := m.now()
	pathID := fmt.Sprintf("path_%s_%s_%s", now.Format("20060102_150405"),
		strings.ReplaceAll(profileName, " ", "_"), strings.ReplaceAll(subject, " ", "_"))

	path := model.LearningPath{
		PathID:          pathID,
		StudentName:     profileName,
		Subject:         subject,
		CreatedDate:     now.Format(time.RFC3339),
		DurationWeeks:   weeks,
		LearningStyle:   style,
		DifficultyLevel: "adaptive",
		PersonalizationFactors: model.PersonalizationFactors{
			LearningStyle:          style,
			SocialPreference:       social,
			EmotionalSupportNeeded: stability != "stable",
			SubjectAffinity:        affinity,
			ChallengeLevel:         challenge,
		},
	}

	week, topicIndex := 1, 0
	for week <= weeks && topicIndex < len(in.CurriculumTopics) {
		topic := in.CurriculumTopics[topicIndex]
		activities := learningActivities(topic, style, social, challenge)

		path.WeeklyPlan = append(path.WeeklyPlan, model.WeeklyPlan{
			Week:                      week,
			Topic:                     topic,
			LearningObjectives:        learningObjectives(topic, subject),
			Activities:                activities,
			EstimatedTimeMinutes:      timeAllocation(len(activities), style),
			ResourcesNeeded:           resourcesNeeded(style, subject),
			AssessmentMethod:          assessmentMethod(style),
			DifferentiationStrategies: differentiationStrategies(analysis),
			EmotionalSupport:          emotionalSupportStrategies(stability),
		})

		if week%3 == 0 {
			path.Milestones = append(path.Milestones, model.Milestone{
				Week:          week,
				MilestoneName: fmt.Sprintf("Unit %d: %s Mastery", (week+2)/3, topic),
				SuccessCriteria: []string{
					fmt.Sprintf("Can explain %s concepts accurately", topic),
					"Demonstrates understanding through practical application",
					"Completes assignments with 80% accuracy",
					"Shows improvement from baseline assessment",
				},
				AssessmentType: "formative",
			})
		}

		week += weeksPerTopic
		topicIndex++
	}

	path.AssessmentSchedule = []model.FinalAssessment{{
		Week:           weeks,
		AssessmentName: subject + " Comprehensive Assessment",
		Type:           "summative",
		Format:         finalAssessmentFormat(style, social),
		TopicsCovered:  in.CurriculumTopics,
	}}
	path.Adaptations = pathAdaptations(style, social, stability, isDifficult)

	if st.LearningPaths == nil {
		st.LearningPaths = map[string]model.LearningPath{}
	}
	st.LearningPaths[pathID] = path

	return map[string]any{
		"action":           "create_personalized_learning_path",
		"status":           "success",
		"path_id":          pathID,
		"learning_path":    path,
		"teacher_insights": teacherInsights(path),
		"message":          fmt.Sprintf("Created personalized %d-week learning path for %s in %s", weeks, profileName, subject),
		"summary": map[string]any{
			"total_weeks":     len(path.WeeklyPlan),
			"total_topics":    len(in.CurriculumTopics),
			"learning_style":  style,
			"key_adaptations": len(path.Adaptations),
		},
	}, nil
}

func learningActivities(topic, style, social, challenge string) []string {
	byStyle := map[string][]string{
		"visual": {
			"Create visual mind map of " + topic + " concepts",
			"Watch educational video about " + topic,
		},
		"auditory": {
			"Listen to podcast about " + topic,
			"Participate in discussion about " + topic,
		},
		"kinesthetic": {
			"Conduct hands-on experiment related to " + topic,
			"Build physical model of " + topic + " concepts",
		},
		"reading/writing": {
			"Read comprehensive article about " + topic,
			"Write detailed essay on " + topic,
		},
	}
	activities, ok := byStyle[style]
	if !ok {
		activities = byStyle["visual"]
	}
	activities = append([]string{}, activities...)

	if social == "collaborative" {
		activities = append(activities,
			"Collaborate with peers on "+topic+" project",
			"Participate in group discussion about "+topic)
	} else {
		activities = append(activities,
			"Complete independent research on "+topic,
			"Self-assess understanding of "+topic)
	}
	if challenge == "high" {
		activities = append(activities,
			"Complete additional practice exercises for "+topic,
			"Seek help from teacher/tutor for "+topic+" concepts")
	}
	return activities
}

func learningObjectives(topic, subject string) []string {
	objectives := []string{
		"Understand key concepts of " + topic,
		"Apply " + topic + " knowledge to solve problems",
		"Analyze relationships within " + topic,
	}
	subjectLower := strings.ToLower(subject)
	switch {
	case strings.Contains(subjectLower, "math"):
		objectives[2] = "Calculate and solve " + topic + " problems accurately"
	case strings.Contains(subjectLower, "science"):
		objectives[2] = "Explain scientific principles of " + topic
	case strings.Contains(subjectLower, "history"):
		objectives[2] = "Analyze historical significance of " + topic
	}
	return objectives
}

// timeAllocation estimates weekly minutes: an hour per activity, with
// slower styles weighted up.
func timeAllocation(activityCount int, style string) int {
	base := activityCount * 60
	switch style {
	case "kinesthetic":
		return int(float64(base) * 1.2)
	case "reading/writing":
		return int(float64(base) * 1.1)
	}
	return base
}

func resourcesNeeded(style, subject string) []string {
	var resources []string
	switch style {
	case "visual":
		resources = []string{"Visual aids", "Computer/tablet", "Drawing materials"}
	case "auditory":
		resources = []string{"Audio equipment", "Recording device", "Quiet space"}
	case "kinesthetic":
		resources = []string{"Hands-on materials", "Workspace", "Manipulatives"}
	default:
		resources = []string{"Books/articles", "Writing materials", "Research access"}
	}
	subjectLower := strings.ToLower(subject)
	switch {
	case strings.Contains(subjectLower, "science"):
		resources = append(resources, "Lab equipment")
	case strings.Contains(subjectLower, "math"):
		resources = append(resources, "Calculator/tools")
	case strings.Contains(subjectLower, "art"):
		resources = append(resources, "Art supplies")
	}
	return resources
}

func assessmentMethod(style string) string {
	switch style {
	case "visual":
		return "Visual project or presentation"
	case "auditory":
		return "Oral presentation or discussion"
	case "kinesthetic":
		return "Hands-on demonstration or experiment"
	}
	return "Written assignment or test"
}

func differentiationStrategies(analysis model.ProfileAnalysis) []string {
	var strategies []string
	if analysis.EmotionalAnalysis.EmotionalStability == "needs_support" {
		strategies = append(strategies,
			"Provide encouragement and celebrate small wins",
			"Offer multiple attempts and flexible deadlines")
	}
	return append(strategies,
		"Adjust pace based on student understanding",
		"Provide choice in learning activities")
}

func emotionalSupportStrategies(stability string) []string {
	switch stability {
	case "needs_support":
		return []string{
			"Regular check-ins on emotional state",
			"Stress management techniques",
			"Positive reinforcement strategies",
			"Break time when needed",
		}
	case "low_confidence":
		return []string{
			"Build confidence through small successes",
			"Encourage effort over results",
			"Provide specific positive feedback",
		}
	}
	return []string{"Monitor for any signs of stress or difficulty"}
}

func finalAssessmentFormat(style, social string) []string {
	var formats []string
	switch style {
	case "visual":
		formats = append(formats, "Portfolio with visual elements")
	case "auditory":
		formats = append(formats, "Oral examination")
	case "kinesthetic":
		formats = append(formats, "Practical demonstration")
	default:
		formats = append(formats, "Comprehensive written exam")
	}
	if social == "collaborative" {
		formats = append(formats, "Group project component")
	}
	return formats
}

func pathAdaptations(style, social, stability string, isDifficult bool) []string {
	var adaptations []string
	if stability == "needs_support" {
		adaptations = append(adaptations,
			"Provide frequent positive reinforcement and emotional check-ins",
			"Break complex tasks into smaller, manageable chunks")
	}
	switch style {
	case "kinesthetic":
		adaptations = append(adaptations, "Include hands-on experiments and physical activities")
	case "visual":
		adaptations = append(adaptations, "Use visual aids, mind maps, and graphic organizers")
	case "auditory":
		adaptations = append(adaptations, "Include discussions, podcasts, and verbal explanations")
	}
	if social == "collaborative" {
		adaptations = append(adaptations, "Include group projects and peer learning opportunities")
	} else {
		adaptations = append(adaptations, "Provide independent study options and self-paced learning")
	}
	if isDifficult {
		adaptations = append(adaptations,
			"Provide additional practice exercises and remediation",
			"Use multi-sensory teaching approaches",
			"Offer extended time for assignments and assessments")
	}
	return adaptations
}

func teacherInsights(path model.LearningPath) map[string]any {
	style := path.PersonalizationFactors.LearningStyle

	var classroom []string
	switch style {
	case "kinesthetic":
		classroom = append(classroom, "Allow movement and hands-on activities")
	case "visual":
		classroom = append(classroom, "Use visual aids and graphic organizers")
	}

	return map[string]any{
		"key_recommendations": []string{
			fmt.Sprintf("This student learns best through %s methods", style),
			fmt.Sprintf("Requires %s support level", path.PersonalizationFactors.ChallengeLevel),
			"Monitor progress closely and adjust pace as needed",
			"Celebrate achievements to maintain motivation",
		},
		"classroom_strategies": classroom,
		"monitoring_points": []string{
			"Weekly progress check-ins",
			"Monitor emotional response to challenges",
			"Track completion rates and understanding",
			"Adjust pacing based on performance",
		},
	}
}

func (m *Manager) getLearningPath(_ context.Context, st *model.State, args json.RawMessage) (map[string]any, error) {
	var in struct {
		PathID      string `json:"path_id"`
		StudentName string `json:"student_name"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("parse arguments: %w", err)
	}

	if in.PathID != "" {
		path, ok := st.LearningPaths[in.PathID]
		if !ok {
			return map[string]any{
				"action":  "get_learning_path",
				"status":  "not_found",
				"message": fmt.Sprintf("Learning path %s not found", in.PathID),
			}, nil
		}
		return map[string]any{
			"action":  "get_learning_path",
			"status":  "found",
			"path":    path,
			"message": "Retrieved learning path for " + path.StudentName,
		}, nil
	}

	if name := strings.TrimSpace(in.StudentName); name != "" {
		var paths []model.LearningPath
		for _, path := range st.LearningPaths {
			if strings.EqualFold(path.StudentName, name) {
				paths = append(paths, path)
			}
		}
		sort.Slice(paths, func(i, j int) bool { return paths[i].CreatedDate < paths[j].CreatedDate })
		return map[string]any{
			"action":       "get_learning_path",
			"status":       "found",
			"student_name": name,
			"paths":        paths,
			"count":        len(paths),
			"message":      fmt.Sprintf("Found %d learning paths for %s", len(paths), name),
		}, nil
	}

	all := make([]model.LearningPath, 0, len(st.LearningPaths))
	for _, path := range st.LearningPaths {
		all = append(all, path)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedDate < all[j].CreatedDate })
	return map[string]any{
		"action":    "get_learning_path",
		"status":    "found",
		"all_paths": all,
		"count":     len(all),
		"message":   fmt.Sprintf("Retrieved %d total learning paths", len(all)),
	}, nil
}
