package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"canvas-mcp-server/tools"
	"canvas-mcp-server/tools/assignments"
	"canvas-mcp-server/tools/content"
	"canvas-mcp-server/tools/courses"
	"canvas-mcp-server/tools/discussions"
	"canvas-mcp-server/tools/files"
	"canvas-mcp-server/tools/quizzes"

	mcp_golang "github.com/metoro-io/mcp-golang"
)

// Registry handles MCP tool registration. Every tool returns a single
// text block; handler failures become one-line "Error: ..." responses and
// are never surfaced as Go errors to the MCP runtime.
type Registry struct {
	tools  *tools.Handler
	logger *slog.Logger
}

// NewRegistry creates a new MCP tool registry
func NewRegistry(toolsHandler *tools.Handler, logger *slog.Logger) *Registry {
	return &Registry{
		tools:  toolsHandler,
		logger: logger,
	}
}

// RegisterAll registers all Canvas tools with the MCP server
func (r *Registry) RegisterAll(server *mcp_golang.Server) error {
	r.logger.Info("Registering all Canvas tools with MCP...")

	for _, register := range []struct {
		name string
		fn   func(*mcp_golang.Server) error
	}{
		{"course", r.registerCourseTools},
		{"assignment", r.registerAssignmentTools},
		{"discussion", r.registerDiscussionTools},
		{"file", r.registerFileTools},
		{"content", r.registerContentTools},
		{"quiz", r.registerQuizTools},
	} {
		if err := register.fn(server); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", register.name, err)
		}
	}

	r.logger.Info("All Canvas tools registered successfully")
	return nil
}

func (r *Registry) registerCourseTools(server *mcp_golang.Server) error {
	err := server.RegisterTool("list_courses", "List your active Canvas courses",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			return r.respond(r.tools.Courses.ListCourses(context.Background()))
		})
	if err != nil {
		return err
	}

	err = server.RegisterTool("get_course_details", "Get details about a specific course",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			identifier, ok := r.courseIdentifier(args)
			if !ok {
				return r.errorResponse("course_identifier parameter is required")
			}
			return r.respond(r.tools.Courses.GetCourseDetails(context.Background(),
				courses.GetCourseDetailsArgs{CourseIdentifier: identifier}))
		})
	if err != nil {
		return err
	}

	r.logger.Debug("Course tools registered")
	return nil
}

func (r *Registry) registerAssignmentTools(server *mcp_golang.Server) error {
	err := server.RegisterTool("list_assignments", "List assignments in a course with your submission status",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			identifier, ok := r.courseIdentifier(args)
			if !ok {
				return r.errorResponse("course_identifier parameter is required")
			}
			return r.respond(r.tools.Assignments.ListAssignments(context.Background(),
				assignments.ListAssignmentsArgs{CourseIdentifier: identifier}))
		})
	if err != nil {
		return err
	}

	err = server.RegisterTool("get_assignment_details", "Get details about a specific assignment",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			identifier, ok := r.courseIdentifier(args)
			if !ok {
				return r.errorResponse("course_identifier parameter is required")
			}
			assignmentID := r.getIDArg(args, "assignment_id")
			if assignmentID == "" {
				return r.errorResponse("assignment_id parameter is required")
			}
			return r.respond(r.tools.Assignments.GetAssignmentDetails(context.Background(),
				assignments.GetAssignmentDetailsArgs{
					CourseIdentifier: identifier,
					AssignmentID:     assignmentID,
				}))
		})
	if err != nil {
		return err
	}

	r.logger.Debug("Assignment tools registered")
	return nil
}

func (r *Registry) registerDiscussionTools(server *mcp_golang.Server) error {
	err := server.RegisterTool("list_discussion_topics", "List discussion topics for a course",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			identifier, ok := r.courseIdentifier(args)
			if !ok {
				return r.errorResponse("course_identifier parameter is required")
			}
			return r.respond(r.tools.Discussions.ListTopics(context.Background(),
				discussions.ListTopicsArgs{
					CourseIdentifier:     identifier,
					IncludeAnnouncements: r.getBoolArg(args, "include_announcements"),
				}))
		})
	if err != nil {
		return err
	}

	err = server.RegisterTool("get_discussion_topic_details", "Get details about a specific discussion topic",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			identifier, ok := r.courseIdentifier(args)
			if !ok {
				return r.errorResponse("course_identifier parameter is required")
			}
			topicID := r.getIDArg(args, "topic_id")
			if topicID == "" {
				return r.errorResponse("topic_id parameter is required")
			}
			return r.respond(r.tools.Discussions.GetTopicDetails(context.Background(),
				discussions.TopicDetailsArgs{CourseIdentifier: identifier, TopicID: topicID}))
		})
	if err != nil {
		return err
	}

	err = server.RegisterTool("list_discussion_entries", "List posts in a discussion topic",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			identifier, ok := r.courseIdentifier(args)
			if !ok {
				return r.errorResponse("course_identifier parameter is required")
			}
			topicID := r.getIDArg(args, "topic_id")
			if topicID == "" {
				return r.errorResponse("topic_id parameter is required")
			}
			return r.respond(r.tools.Discussions.ListEntries(context.Background(),
				discussions.ListEntriesArgs{
					CourseIdentifier:   identifier,
					TopicID:            topicID,
					IncludeFullContent: r.getBoolArg(args, "include_full_content"),
				}))
		})
	if err != nil {
		return err
	}

	err = server.RegisterTool("get_discussion_entry_details", "Get a specific discussion post with its replies",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			identifier, ok := r.courseIdentifier(args)
			if !ok {
				return r.errorResponse("course_identifier parameter is required")
			}
			topicID := r.getIDArg(args, "topic_id")
			entryID := r.getIDArg(args, "entry_id")
			if topicID == "" || entryID == "" {
				return r.errorResponse("topic_id and entry_id parameters are required")
			}
			includeReplies := true
			if _, exists := args["include_replies"]; exists {
				includeReplies = r.getBoolArg(args, "include_replies")
			}
			return r.respond(r.tools.Discussions.GetEntryDetails(context.Background(),
				discussions.EntryDetailsArgs{
					CourseIdentifier: identifier,
					TopicID:          topicID,
					EntryID:          entryID,
					IncludeReplies:   includeReplies,
				}))
		})
	if err != nil {
		return err
	}

	err = server.RegisterTool("post_discussion_entry", "Post a new entry to a discussion topic",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			identifier, ok := r.courseIdentifier(args)
			if !ok {
				return r.errorResponse("course_identifier parameter is required")
			}
			topicID := r.getIDArg(args, "topic_id")
			message := r.getStringArg(args, "message")
			if topicID == "" || message == "" {
				return r.errorResponse("topic_id and message parameters are required")
			}
			return r.respond(r.tools.Discussions.PostEntry(context.Background(),
				discussions.PostEntryArgs{CourseIdentifier: identifier, TopicID: topicID, Message: message}))
		})
	if err != nil {
		return err
	}

	err = server.RegisterTool("reply_to_discussion_entry", "Reply to a discussion post",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			identifier, ok := r.courseIdentifier(args)
			if !ok {
				return r.errorResponse("course_identifier parameter is required")
			}
			topicID := r.getIDArg(args, "topic_id")
			entryID := r.getIDArg(args, "entry_id")
			message := r.getStringArg(args, "message")
			if topicID == "" || entryID == "" || message == "" {
				return r.errorResponse("topic_id, entry_id and message parameters are required")
			}
			return r.respond(r.tools.Discussions.Reply(context.Background(),
				discussions.ReplyArgs{
					CourseIdentifier: identifier,
					TopicID:          topicID,
					EntryID:          entryID,
					Message:          message,
				}))
		})
	if err != nil {
		return err
	}

	err = server.RegisterTool("list_announcements", "List announcements for a course",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			identifier, ok := r.courseIdentifier(args)
			if !ok {
				return r.errorResponse("course_identifier parameter is required")
			}
			return r.respond(r.tools.Discussions.ListAnnouncements(context.Background(),
				discussions.ListAnnouncementsArgs{CourseIdentifier: identifier}))
		})
	if err != nil {
		return err
	}

	r.logger.Debug("Discussion tools registered")
	return nil
}

func (r *Registry) registerFileTools(server *mcp_golang.Server) error {
	err := server.RegisterTool("list_course_files", "List files in a course",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			identifier, ok := r.courseIdentifier(args)
			if !ok {
				return r.errorResponse("course_identifier parameter is required")
			}
			return r.respond(r.tools.Files.ListCourseFiles(context.Background(),
				files.ListCourseFilesArgs{
					CourseIdentifier: identifier,
					SearchTerm:       r.getStringArg(args, "search_term"),
					ContentTypes:     r.getStringArg(args, "content_types"),
					Sort:             r.getStringArg(args, "sort"),
					Order:            r.getStringArg(args, "order"),
				}))
		})
	if err != nil {
		return err
	}

	err = server.RegisterTool("list_course_folders", "List folders in a course to understand file organization",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			identifier, ok := r.courseIdentifier(args)
			if !ok {
				return r.errorResponse("course_identifier parameter is required")
			}
			return r.respond(r.tools.Files.ListCourseFolders(context.Background(),
				files.ListCourseFoldersArgs{CourseIdentifier: identifier}))
		})
	if err != nil {
		return err
	}

	err = server.RegisterTool("get_file_download_url", "Get the download URL for a specific file",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			fileID := r.getIDArg(args, "file_id")
			if fileID == "" {
				return r.errorResponse("file_id parameter is required")
			}
			return r.respond(r.tools.Files.GetFileDownloadURL(context.Background(),
				files.FileArgs{FileID: fileID}))
		})
	if err != nil {
		return err
	}

	err = server.RegisterTool("download_file", "Download a Canvas file to a local directory",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			fileID := r.getIDArg(args, "file_id")
			if fileID == "" {
				return r.errorResponse("file_id parameter is required")
			}
			return r.respond(r.tools.Files.DownloadFile(context.Background(),
				files.DownloadFileArgs{
					FileID:            fileID,
					DestinationFolder: r.getStringArg(args, "destination_folder"),
				}))
		})
	if err != nil {
		return err
	}

	err = server.RegisterTool("list_folder_files", "List files in a specific folder",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			folderID := r.getIDArg(args, "folder_id")
			if folderID == "" {
				return r.errorResponse("folder_id parameter is required")
			}
			return r.respond(r.tools.Files.ListFolderFiles(context.Background(),
				files.ListFolderFilesArgs{
					FolderID: folderID,
					Sort:     r.getStringArg(args, "sort"),
					Order:    r.getStringArg(args, "order"),
				}))
		})
	if err != nil {
		return err
	}

	r.logger.Debug("File tools registered")
	return nil
}

func (r *Registry) registerContentTools(server *mcp_golang.Server) error {
	err := server.RegisterTool("list_pages", "List pages in a course",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			identifier, ok := r.courseIdentifier(args)
			if !ok {
				return r.errorResponse("course_identifier parameter is required")
			}
			return r.respond(r.tools.Content.ListPages(context.Background(),
				content.ListPagesArgs{
					CourseIdentifier: identifier,
					SearchTerm:       r.getStringArg(args, "search_term"),
				}))
		})
	if err != nil {
		return err
	}

	err = server.RegisterTool("get_page_content", "Get the content of a specific page",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			identifier, ok := r.courseIdentifier(args)
			if !ok {
				return r.errorResponse("course_identifier parameter is required")
			}
			pageURL := r.getStringArg(args, "page_url")
			if pageURL == "" {
				return r.errorResponse("page_url parameter is required")
			}
			return r.respond(r.tools.Content.GetPageContent(context.Background(),
				content.GetPageContentArgs{CourseIdentifier: identifier, PageURL: pageURL}))
		})
	if err != nil {
		return err
	}

	err = server.RegisterTool("get_front_page", "Get the course front/home page content",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			identifier, ok := r.courseIdentifier(args)
			if !ok {
				return r.errorResponse("course_identifier parameter is required")
			}
			return r.respond(r.tools.Content.GetFrontPage(context.Background(),
				content.CourseArgs{CourseIdentifier: identifier}))
		})
	if err != nil {
		return err
	}

	err = server.RegisterTool("list_modules", "List modules in a course",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			identifier, ok := r.courseIdentifier(args)
			if !ok {
				return r.errorResponse("course_identifier parameter is required")
			}
			return r.respond(r.tools.Content.ListModules(context.Background(),
				content.CourseArgs{CourseIdentifier: identifier}))
		})
	if err != nil {
		return err
	}

	err = server.RegisterTool("list_module_items", "List items in a specific module",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			identifier, ok := r.courseIdentifier(args)
			if !ok {
				return r.errorResponse("course_identifier parameter is required")
			}
			moduleID := r.getIDArg(args, "module_id")
			if moduleID == "" {
				return r.errorResponse("module_id parameter is required")
			}
			return r.respond(r.tools.Content.ListModuleItems(context.Background(),
				content.ListModuleItemsArgs{CourseIdentifier: identifier, ModuleID: moduleID}))
		})
	if err != nil {
		return err
	}

	err = server.RegisterTool("list_groups", "List groups in a course",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			identifier, ok := r.courseIdentifier(args)
			if !ok {
				return r.errorResponse("course_identifier parameter is required")
			}
			return r.respond(r.tools.Content.ListGroups(context.Background(),
				content.CourseArgs{CourseIdentifier: identifier}))
		})
	if err != nil {
		return err
	}

	r.logger.Debug("Content tools registered")
	return nil
}

func (r *Registry) registerQuizTools(server *mcp_golang.Server) error {
	err := server.RegisterTool("list_quizzes", "List all quizzes in a course",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			identifier, ok := r.courseIdentifier(args)
			if !ok {
				return r.errorResponse("course_identifier parameter is required")
			}
			return r.respond(r.tools.Quizzes.ListQuizzes(context.Background(),
				quizzes.CourseArgs{CourseIdentifier: identifier}))
		})
	if err != nil {
		return err
	}

	err = server.RegisterTool("get_quiz_details", "Get detailed information about a specific quiz",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			quizArgs, errResp := r.quizArgs(args)
			if errResp != nil {
				return errResp, nil
			}
			return r.respond(r.tools.Quizzes.GetQuizDetails(context.Background(), *quizArgs))
		})
	if err != nil {
		return err
	}

	err = server.RegisterTool("get_my_quiz_submissions", "Get your quiz submission history (attempts and scores)",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			quizArgs, errResp := r.quizArgs(args)
			if errResp != nil {
				return errResp, nil
			}
			return r.respond(r.tools.Quizzes.GetMySubmissions(context.Background(), *quizArgs))
		})
	if err != nil {
		return err
	}

	err = server.RegisterTool("start_quiz",
		"Start a quiz attempt. Only works if the quiz has no time limit OR unlimited attempts",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			quizArgs, errResp := r.quizArgs(args)
			if errResp != nil {
				return errResp, nil
			}
			return r.respond(r.tools.Quizzes.StartQuiz(context.Background(), *quizArgs))
		})
	if err != nil {
		return err
	}

	err = server.RegisterTool("get_quiz_questions", "Get all questions for an active quiz attempt",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			submissionID := r.getIDArg(args, "quiz_submission_id")
			if submissionID == "" {
				return r.errorResponse("quiz_submission_id parameter is required")
			}
			return r.respond(r.tools.Quizzes.GetQuestions(context.Background(),
				quizzes.SubmissionArgs{QuizSubmissionID: submissionID}))
		})
	if err != nil {
		return err
	}

	err = server.RegisterTool("answer_quiz_question", "Submit an answer to a quiz question",
		func(args map[string]interface{}) (*mcp_golang.ToolResponse, error) {
			submissionID := r.getIDArg(args, "quiz_submission_id")
			validationToken := r.getStringArg(args, "validation_token")
			questionID := r.getIntArg(args, "question_id")
			if submissionID == "" || validationToken == "" || questionID == 0 {
				return r.errorResponse("quiz_submission_id, validation_token and question_id parameters are required")
			}
			answer, exists := args["answer"]
			if !exists {
				return r.errorResponse("answer parameter is required")
			}
			return r.respond(r.tools.Quizzes.AnswerQuestion(context.Background(),
				quizzes.AnswerArgs{
					QuizSubmissionID: submissionID,
					Attempt:          r.getIntArg(args, "attempt"),
					ValidationToken:  validationToken,
					QuestionID:       questionID,
					Answer:           answer,
				}))
		})
	if err != nil {
		return err
	}

	r.logger.Debug("Quiz tools registered")
	return nil
}

// Helper methods

// respond converts a handler result into an MCP text response. Handler
// errors become one-line "Error: ..." text, never Go errors.
func (r *Registry) respond(text string, err error) (*mcp_golang.ToolResponse, error) {
	if err != nil {
		return r.errorResponse(err.Error())
	}
	return mcp_golang.NewToolResponse(mcp_golang.NewTextContent(text)), nil
}

func (r *Registry) errorResponse(message string) (*mcp_golang.ToolResponse, error) {
	return mcp_golang.NewToolResponse(
		mcp_golang.NewTextContent("Error: " + message),
	), nil
}

func (r *Registry) quizArgs(args map[string]interface{}) (*quizzes.QuizArgs, *mcp_golang.ToolResponse) {
	identifier, ok := r.courseIdentifier(args)
	if !ok {
		resp, _ := r.errorResponse("course_identifier parameter is required")
		return nil, resp
	}
	quizID := r.getIDArg(args, "quiz_id")
	if quizID == "" {
		resp, _ := r.errorResponse("quiz_id parameter is required")
		return nil, resp
	}
	return &quizzes.QuizArgs{CourseIdentifier: identifier, QuizID: quizID}, nil
}

// courseIdentifier accepts the course reference as either a string code
// or a JSON number.
func (r *Registry) courseIdentifier(args map[string]interface{}) (string, bool) {
	id := r.getIDArg(args, "course_identifier")
	return id, id != ""
}

func (r *Registry) getStringArg(args map[string]interface{}, key string) string {
	if val, exists := args[key]; exists {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// getIDArg reads an identifier that tool callers may pass as a string or
// a number (JSON numbers arrive as float64).
func (r *Registry) getIDArg(args map[string]interface{}, key string) string {
	val, exists := args[key]
	if !exists {
		return ""
	}
	switch v := val.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

func (r *Registry) getIntArg(args map[string]interface{}, key string) int64 {
	if val, exists := args[key]; exists {
		switch v := val.(type) {
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}

func (r *Registry) getBoolArg(args map[string]interface{}, key string) bool {
	if val, exists := args[key]; exists {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return false
}
