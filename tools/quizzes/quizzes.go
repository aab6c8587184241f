package quizzes

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"canvas-mcp-server/client"
	"canvas-mcp-server/format"
	"canvas-mcp-server/record"
	"canvas-mcp-server/resolver"
)

// UnlimitedAttempts is the Canvas sentinel for unlimited quiz attempts
const UnlimitedAttempts = -1

// Handler handles quiz and quiz-taking operations
type Handler struct {
	client   client.CanvasClient
	resolver *resolver.Resolver
	logger   *slog.Logger
}

// NewHandler creates a new quiz handler
func NewHandler(canvasClient client.CanvasClient, res *resolver.Resolver, logger *slog.Logger) *Handler {
	return &Handler{
		client:   canvasClient,
		resolver: res,
		logger:   logger,
	}
}

// QuizArgs represents arguments addressing a single quiz
type QuizArgs struct {
	CourseIdentifier string `json:"course_identifier" description:"Course code or Canvas ID"`
	QuizID           string `json:"quiz_id" description:"The quiz ID"`
}

// CourseArgs represents arguments for quiz listing
type CourseArgs struct {
	CourseIdentifier string `json:"course_identifier" description:"Course code or Canvas ID"`
}

// SubmissionArgs represents arguments addressing a quiz submission
type SubmissionArgs struct {
	QuizSubmissionID string `json:"quiz_submission_id" description:"The quiz submission ID (from start_quiz)"`
}

// AnswerArgs represents arguments for answer_quiz_question
type AnswerArgs struct {
	QuizSubmissionID string      `json:"quiz_submission_id" description:"The quiz submission ID (from start_quiz)"`
	Attempt          int64       `json:"attempt" description:"Current attempt number (from start_quiz)"`
	ValidationToken  string      `json:"validation_token" description:"Validation token (from start_quiz)"`
	QuestionID       int64       `json:"question_id" description:"The question ID to answer"`
	Answer           interface{} `json:"answer" description:"The answer; shape depends on question type"`
}

// CanStartViaAPI reports whether a quiz attempt may be started through the
// API: allowed when there is no time limit or attempts are unlimited.
// Canvas cannot enforce the timer reliably for API-driven attempts, so a
// quiz with BOTH a finite time limit and a finite attempt count must be
// taken in the web UI.
func CanStartViaAPI(hasTimeLimit bool, allowedAttempts int64) bool {
	return !hasTimeLimit || allowedAttempts == UnlimitedAttempts
}

// ListQuizzes lists all quizzes in a course
func (h *Handler) ListQuizzes(ctx context.Context, args CourseArgs) (string, error) {
	courseID, err := h.resolver.Resolve(ctx, args.CourseIdentifier)
	if err != nil {
		return "", err
	}

	quizzes, err := h.client.GetAllPages(ctx, fmt.Sprintf("/courses/%d/quizzes", courseID), nil)
	if err != nil {
		return "", fmt.Errorf("fetching quizzes: %w", err)
	}

	if len(quizzes) == 0 {
		return "No quizzes found in this course.", nil
	}

	var info []string
	for _, q := range quizzes {
		title := record.StringOr(q, "title", "Untitled")
		hasTimeLimit := record.Has(q, "time_limit")
		allowedAttempts := record.IntOr(q, "allowed_attempts", 1)

		timeStr := "No limit"
		if hasTimeLimit {
			timeStr = fmt.Sprintf("%d min", record.Int(q, "time_limit"))
		}

		if CanStartViaAPI(hasTimeLimit, allowedAttempts) {
			title += " [API start OK]"
		}

		info = append(info, fmt.Sprintf(
			"• %s\n  ID: %d | Due: %s\n  Questions: %d | Points: %g\n  Time: %s | Attempts: %s",
			title,
			record.Int(q, "id"),
			format.Date(record.String(q, "due_at")),
			record.Int(q, "question_count"),
			record.Float(q, "points_possible"),
			timeStr,
			attemptsString(allowedAttempts)))
	}

	display := h.resolver.DisplayName(courseID, args.CourseIdentifier)
	return fmt.Sprintf("Quizzes in %s:\n\n", display) + strings.Join(info, "\n\n"), nil
}

// GetQuizDetails shows detailed information about a specific quiz
func (h *Handler) GetQuizDetails(ctx context.Context, args QuizArgs) (string, error) {
	courseID, err := h.resolver.Resolve(ctx, args.CourseIdentifier)
	if err != nil {
		return "", err
	}

	q, err := h.fetchQuiz(ctx, courseID, args.QuizID)
	if err != nil {
		return "", err
	}

	hasTimeLimit := record.Has(q, "time_limit")
	allowedAttempts := record.IntOr(q, "allowed_attempts", 1)

	timeStr := "No time limit"
	if hasTimeLimit {
		timeStr = fmt.Sprintf("%d minutes", record.Int(q, "time_limit"))
	}

	display := h.resolver.DisplayName(courseID, args.CourseIdentifier)

	var b strings.Builder
	fmt.Fprintf(&b, "Quiz: %s\n", record.StringOr(q, "title", "Untitled"))
	fmt.Fprintf(&b, "Course: %s\n", display)
	fmt.Fprintf(&b, "ID: %s\n", args.QuizID)
	b.WriteString("\nTiming:\n")
	fmt.Fprintf(&b, "  Due: %s\n", format.Date(record.String(q, "due_at")))
	fmt.Fprintf(&b, "  Available: %s - %s\n",
		format.Date(record.String(q, "unlock_at")),
		format.Date(record.String(q, "lock_at")))
	fmt.Fprintf(&b, "  Time Limit: %s\n", timeStr)
	b.WriteString("\nAttempts:\n")
	fmt.Fprintf(&b, "  Allowed: %s\n", attemptsString(allowedAttempts))
	fmt.Fprintf(&b, "  Scoring: %s\n", record.StringOr(q, "scoring_policy", "keep_highest"))
	b.WriteString("\nQuestions:\n")
	fmt.Fprintf(&b, "  Count: %d\n", record.Int(q, "question_count"))
	fmt.Fprintf(&b, "  Points: %g\n", record.Float(q, "points_possible"))
	fmt.Fprintf(&b, "  Shuffle Answers: %t\n", record.Bool(q, "shuffle_answers"))
	fmt.Fprintf(&b, "  One at a Time: %t\n", record.Bool(q, "one_question_at_a_time"))
	fmt.Fprintf(&b, "  Can Go Back: %t\n", !record.Bool(q, "cant_go_back"))

	if record.String(q, "access_code") != "" {
		b.WriteString("\nAccess Code Required: Yes\n")
	}
	if ipFilter := record.String(q, "ip_filter"); ipFilter != "" {
		fmt.Fprintf(&b, "IP Restriction: %s\n", ipFilter)
	}

	verdict := "Yes"
	if !CanStartViaAPI(hasTimeLimit, allowedAttempts) {
		verdict = "No (timed + limited attempts)"
	}
	fmt.Fprintf(&b, "\nAPI Start Allowed: %s\n", verdict)

	if description := format.StripHTML(record.String(q, "description")); description != "" {
		fmt.Fprintf(&b, "\nDescription:\n%s", format.Truncate(description, 500))
	}

	return b.String(), nil
}

// GetMySubmissions shows the caller's quiz attempt history
func (h *Handler) GetMySubmissions(ctx context.Context, args QuizArgs) (string, error) {
	courseID, err := h.resolver.Resolve(ctx, args.CourseIdentifier)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Add("include[]", "submission")

	result, err := h.client.Get(ctx,
		fmt.Sprintf("/courses/%d/quizzes/%s/submissions", courseID, url.PathEscape(args.QuizID)), params)
	if err != nil {
		return "", fmt.Errorf("fetching submissions: %w", err)
	}

	wrapper, ok := result.(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("unexpected submissions response shape")
	}

	submissions := record.Maps(wrapper, "quiz_submissions")
	if len(submissions) == 0 {
		return "No quiz attempts found.", nil
	}

	var info []string
	for _, sub := range submissions {
		state := record.StringOr(sub, "workflow_state", "unknown")

		var b strings.Builder
		fmt.Fprintf(&b, "Attempt %d:\n", record.IntOr(sub, "attempt", 1))
		fmt.Fprintf(&b, "  Submission ID: %d\n", record.Int(sub, "id"))
		fmt.Fprintf(&b, "  Status: %s\n", state)
		fmt.Fprintf(&b, "  Started: %s\n", format.Date(record.String(sub, "started_at")))
		fmt.Fprintf(&b, "  Finished: %s\n", format.Date(record.String(sub, "finished_at")))
		fmt.Fprintf(&b, "  Time Spent: %s\n", format.TimeSpent(record.Int(sub, "time_spent")))

		if record.Has(sub, "score") {
			fmt.Fprintf(&b, "  Score: %g\n", record.Float(sub, "score"))
		}
		if record.Has(sub, "kept_score") {
			fmt.Fprintf(&b, "  Kept Score: %g\n", record.Float(sub, "kept_score"))
		}

		// The token is only useful while the attempt is still open.
		if state == "untaken" || state == "pending_review" || state == "settings_only" {
			if token := record.String(sub, "validation_token"); token != "" {
				fmt.Fprintf(&b, "  Validation Token: %s\n", token)
			}
		}

		info = append(info, b.String())
	}

	display := h.resolver.DisplayName(courseID, args.CourseIdentifier)
	return fmt.Sprintf("Your Quiz Submissions (%s):\n\n", display) + strings.Join(info, "\n"), nil
}

// StartQuiz starts a quiz attempt. Refused when the quiz has both a time
// limit and limited attempts; those must be taken in the Canvas web UI.
func (h *Handler) StartQuiz(ctx context.Context, args QuizArgs) (string, error) {
	courseID, err := h.resolver.Resolve(ctx, args.CourseIdentifier)
	if err != nil {
		return "", err
	}

	q, err := h.fetchQuiz(ctx, courseID, args.QuizID)
	if err != nil {
		return "", err
	}

	title := record.StringOr(q, "title", "Untitled")
	hasTimeLimit := record.Has(q, "time_limit")
	allowedAttempts := record.IntOr(q, "allowed_attempts", 1)

	if !CanStartViaAPI(hasTimeLimit, allowedAttempts) {
		return fmt.Sprintf(
			"Cannot start quiz '%s' via API.\n"+
				"Reason: Quiz has BOTH a time limit (%d min) AND limited attempts (%d).\n"+
				"Please take this quiz directly in Canvas to ensure proper timing.",
			title, record.Int(q, "time_limit"), allowedAttempts), nil
	}

	result, err := h.client.Post(ctx,
		fmt.Sprintf("/courses/%d/quizzes/%s/submissions", courseID, url.PathEscape(args.QuizID)), nil, nil)
	if err != nil {
		return "", fmt.Errorf("starting quiz: %w", err)
	}

	wrapper, _ := result.(map[string]interface{})
	submissions := record.Maps(wrapper, "quiz_submissions")
	if len(submissions) == 0 {
		return "Quiz started but no submission data returned.", nil
	}

	sub := submissions[0]
	submissionID := record.Int(sub, "id")

	var b strings.Builder
	fmt.Fprintf(&b, "Quiz Started: %s\n\n", title)
	b.WriteString("IMPORTANT - Save these values for answering questions:\n")
	fmt.Fprintf(&b, "  Submission ID: %d\n", submissionID)
	fmt.Fprintf(&b, "  Attempt: %d\n", record.IntOr(sub, "attempt", 1))
	fmt.Fprintf(&b, "  Validation Token: %s\n", record.String(sub, "validation_token"))
	b.WriteString("\nTiming:\n")
	fmt.Fprintf(&b, "  Started: %s\n", format.Date(record.String(sub, "started_at")))
	if record.Has(sub, "end_at") {
		fmt.Fprintf(&b, "  Must Complete By: %s\n", format.Date(record.String(sub, "end_at")))
	}
	fmt.Fprintf(&b, "\nNext: Use get_quiz_questions(%d) to see the questions.", submissionID)

	return b.String(), nil
}

// GetQuestions lists all questions for an active quiz attempt
func (h *Handler) GetQuestions(ctx context.Context, args SubmissionArgs) (string, error) {
	result, err := h.client.Get(ctx,
		"/quiz_submissions/"+url.PathEscape(args.QuizSubmissionID)+"/questions", nil)
	if err != nil {
		return "", fmt.Errorf("fetching questions: %w", err)
	}

	wrapper, ok := result.(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("unexpected questions response shape")
	}

	questions := record.Maps(wrapper, "quiz_submission_questions")
	if len(questions) == 0 {
		return "No questions found for this submission.", nil
	}

	var info []string
	for _, q := range questions {
		info = append(info, renderQuestion(q))
	}

	header := fmt.Sprintf("Quiz Questions (Submission %s):\nTotal: %d questions\n%s\n\n",
		args.QuizSubmissionID, len(questions), strings.Repeat("=", 50))
	return header + strings.Join(info, "\n"), nil
}

// AnswerQuestion submits an answer to a quiz question
func (h *Handler) AnswerQuestion(ctx context.Context, args AnswerArgs) (string, error) {
	payload := map[string]interface{}{
		"attempt":          args.Attempt,
		"validation_token": args.ValidationToken,
		"quiz_questions": []map[string]interface{}{{
			"id":     args.QuestionID,
			"answer": args.Answer,
		}},
	}

	result, err := h.client.Post(ctx,
		"/quiz_submissions/"+url.PathEscape(args.QuizSubmissionID)+"/questions", nil, payload)
	if err != nil {
		return "", fmt.Errorf("submitting answer: %w", err)
	}

	wrapper, _ := result.(map[string]interface{})
	for _, q := range record.Maps(wrapper, "quiz_submission_questions") {
		if record.Int(q, "id") == args.QuestionID {
			return fmt.Sprintf(
				"Answer submitted for question %d.\n"+
					"Your answer has been recorded.\n"+
					"Note: Quiz will auto-submit when time expires or you submit in Canvas.",
				args.QuestionID), nil
		}
	}

	return fmt.Sprintf("Answer submitted for question %d.", args.QuestionID), nil
}

func (h *Handler) fetchQuiz(ctx context.Context, courseID int64, quizID string) (map[string]interface{}, error) {
	result, err := h.client.Get(ctx,
		fmt.Sprintf("/courses/%d/quizzes/%s", courseID, url.PathEscape(quizID)), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching quiz: %w", err)
	}
	q, ok := result.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected quiz response shape")
	}
	return q, nil
}

func attemptsString(allowed int64) string {
	if allowed == UnlimitedAttempts {
		return "Unlimited"
	}
	return fmt.Sprintf("%d", allowed)
}

// renderQuestion formats one submission question, expanding the answer
// options per question type.
func renderQuestion(q map[string]interface{}) string {
	qType := record.StringOr(q, "question_type", "unknown")
	answers := record.Maps(q, "answers")

	var b strings.Builder
	fmt.Fprintf(&b, "Question %d: %s\n", record.Int(q, "id"), record.String(q, "question_name"))
	fmt.Fprintf(&b, "  Type: %s\n", qType)
	fmt.Fprintf(&b, "  Points: %g\n", record.Float(q, "points_possible"))
	if record.Bool(q, "flagged") {
		b.WriteString("  [FLAGGED]\n")
	}
	fmt.Fprintf(&b, "  Text: %s\n", format.StripHTML(record.String(q, "question_text")))

	switch qType {
	case "multiple_choice_question", "true_false_question", "multiple_answers_question":
		if len(answers) > 0 {
			b.WriteString("  Options:\n")
			for _, a := range answers {
				fmt.Fprintf(&b, "    [%d] %s\n", record.Int(a, "id"),
					format.StripHTML(record.StringOr(a, "text", record.String(a, "html"))))
			}
		}

	case "matching_question":
		b.WriteString("  Matches:\n")
		b.WriteString("  Left side (answer_id):\n")
		for _, a := range answers {
			fmt.Fprintf(&b, "    [%d] %s\n", record.Int(a, "id"),
				format.StripHTML(record.StringOr(a, "text", record.String(a, "left"))))
		}
		if matches := record.Maps(q, "matches"); len(matches) > 0 {
			b.WriteString("  Right side (match_id):\n")
			for _, m := range matches {
				fmt.Fprintf(&b, "    [%d] %s\n", record.Int(m, "match_id"),
					format.StripHTML(record.String(m, "text")))
			}
		}

	case "fill_in_multiple_blanks_question":
		seen := make(map[string]bool)
		var blanks []string
		for _, a := range answers {
			if blankID := record.String(a, "blank_id"); blankID != "" && !seen[blankID] {
				seen[blankID] = true
				blanks = append(blanks, blankID)
			}
		}
		fmt.Fprintf(&b, "  Blanks to fill: %s\n", strings.Join(blanks, ", "))

	case "multiple_dropdowns_question":
		b.WriteString("  Dropdowns:\n")
		grouped := make(map[string][]map[string]interface{})
		var order []string
		for _, a := range answers {
			blankID := record.StringOr(a, "blank_id", "default")
			if _, exists := grouped[blankID]; !exists {
				order = append(order, blankID)
			}
			grouped[blankID] = append(grouped[blankID], a)
		}
		for _, blankID := range order {
			fmt.Fprintf(&b, "    %s:\n", blankID)
			for _, a := range grouped[blankID] {
				fmt.Fprintf(&b, "      [%d] %s\n", record.Int(a, "id"),
					format.StripHTML(record.String(a, "text")))
			}
		}
	}

	return b.String()
}
