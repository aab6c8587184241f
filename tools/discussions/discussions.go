package discussions

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

// Handler handles discussion and announcement operations
type Handler struct {
	client   client.CanvasClient
	resolver *resolver.Resolver
	logger   *slog.Logger
}

// NewHandler creates a new discussion handler
func NewHandler(canvasClient client.CanvasClient, res *resolver.Resolver, logger *slog.Logger) *Handler {
	return &Handler{
		client:   canvasClient,
		resolver: res,
		logger:   logger,
	}
}

// ListTopicsArgs represents arguments for list_discussion_topics
type ListTopicsArgs struct {
	CourseIdentifier     string `json:"course_identifier" description:"Course code or Canvas ID"`
	IncludeAnnouncements bool   `json:"include_announcements,omitempty" description:"Include announcements in list"`
}

// TopicDetailsArgs represents arguments for get_discussion_topic_details
type TopicDetailsArgs struct {
	CourseIdentifier string `json:"course_identifier" description:"Course code or Canvas ID"`
	TopicID          string `json:"topic_id" description:"The discussion topic ID"`
}

// ListEntriesArgs represents arguments for list_discussion_entries
type ListEntriesArgs struct {
	CourseIdentifier   string `json:"course_identifier" description:"Course code or Canvas ID"`
	TopicID            string `json:"topic_id" description:"The discussion topic ID"`
	IncludeFullContent bool   `json:"include_full_content,omitempty" description:"Show full post content instead of previews"`
}

// EntryDetailsArgs represents arguments for get_discussion_entry_details
type EntryDetailsArgs struct {
	CourseIdentifier string `json:"course_identifier" description:"Course code or Canvas ID"`
	TopicID          string `json:"topic_id" description:"The discussion topic ID"`
	EntryID          string `json:"entry_id" description:"The specific post ID"`
	IncludeReplies   bool   `json:"include_replies,omitempty" description:"Include replies (default true)"`
}

// PostEntryArgs represents arguments for post_discussion_entry
type PostEntryArgs struct {
	CourseIdentifier string `json:"course_identifier" description:"Course code or Canvas ID"`
	TopicID          string `json:"topic_id" description:"The discussion topic ID"`
	Message          string `json:"message" description:"Your post content"`
}

// ReplyArgs represents arguments for reply_to_discussion_entry
type ReplyArgs struct {
	CourseIdentifier string `json:"course_identifier" description:"Course code or Canvas ID"`
	TopicID          string `json:"topic_id" description:"The discussion topic ID"`
	EntryID          string `json:"entry_id" description:"The post ID to reply to"`
	Message          string `json:"message" description:"Your reply content"`
}

// ListAnnouncementsArgs represents arguments for list_announcements
type ListAnnouncementsArgs struct {
	CourseIdentifier string `json:"course_identifier" description:"Course code or Canvas ID"`
}

// ListTopics lists discussion topics for a course
func (h *Handler) ListTopics(ctx context.Context, args ListTopicsArgs) (string, error) {
	courseID, err := h.resolver.Resolve(ctx, args.CourseIdentifier)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	if args.IncludeAnnouncements {
		params.Add("include[]", "announcement")
	}

	topics, err := h.client.GetAllPages(ctx, fmt.Sprintf("/courses/%d/discussion_topics", courseID), params)
	if err != nil {
		return "", fmt.Errorf("fetching discussion topics: %w", err)
	}

	if len(topics) == 0 {
		return fmt.Sprintf("No discussion topics found for course %s.", args.CourseIdentifier), nil
	}

	var info []string
	for _, topic := range topics {
		id := record.Int(topic, "id")
		title := record.StringOr(topic, "title", "Untitled topic")
		postedAt := format.Date(record.String(topic, "posted_at"))

		topicType := "Discussion"
		if record.Bool(topic, "is_announcement") {
			topicType = "Announcement"
		}
		info = append(info, fmt.Sprintf("• %s\n  ID: %d | Type: %s | Posted: %s", title, id, topicType, postedAt))
	}

	display := h.resolver.DisplayName(courseID, args.CourseIdentifier)
	return fmt.Sprintf("Discussion Topics for %s:\n\n", display) + strings.Join(info, "\n\n"), nil
}

// GetTopicDetails shows details about a specific discussion topic
func (h *Handler) GetTopicDetails(ctx context.Context, args TopicDetailsArgs) (string, error) {
	courseID, err := h.resolver.Resolve(ctx, args.CourseIdentifier)
	if err != nil {
		return "", err
	}

	result, err := h.client.Get(ctx, h.topicPath(courseID, args.TopicID), nil)
	if err != nil {
		return "", fmt.Errorf("fetching discussion topic: %w", err)
	}

	topic, ok := result.(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("unexpected discussion topic response shape")
	}

	title := record.StringOr(topic, "title", "Untitled")
	message := record.String(topic, "message")
	authorName := "Unknown author"
	if author := record.Map(topic, "author"); author != nil {
		authorName = record.StringOr(author, "display_name", authorName)
	}
	postedAt := format.Date(record.String(topic, "posted_at"))
	entriesCount := record.Int(topic, "discussion_entries_count")
	unreadCount := record.Int(topic, "unread_count")

	topicType := "Discussion"
	if record.Bool(topic, "is_announcement") {
		topicType = "Announcement"
	}

	display := h.resolver.DisplayName(courseID, args.CourseIdentifier)

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", topicType, title)
	fmt.Fprintf(&b, "Course: %s\n", display)
	fmt.Fprintf(&b, "ID: %s\n", args.TopicID)
	fmt.Fprintf(&b, "Author: %s\n", authorName)
	fmt.Fprintf(&b, "Posted: %s\n", postedAt)
	fmt.Fprintf(&b, "Entries: %d", entriesCount)
	if unreadCount > 0 {
		fmt.Fprintf(&b, " (%d unread)", unreadCount)
	}
	b.WriteString("\n")

	if record.Bool(topic, "locked") {
		b.WriteString("Status: Locked\n")
	}
	if record.Bool(topic, "require_initial_post") {
		b.WriteString("Note: You must post before seeing other replies\n")
	}
	if message != "" {
		fmt.Fprintf(&b, "\nContent:\n%s", format.StripHTML(message))
	}

	return b.String(), nil
}

// ListEntries lists posts in a discussion topic
func (h *Handler) ListEntries(ctx context.Context, args ListEntriesArgs) (string, error) {
	courseID, err := h.resolver.Resolve(ctx, args.CourseIdentifier)
	if err != nil {
		return "", err
	}

	entries, err := h.client.GetAllPages(ctx, h.topicPath(courseID, args.TopicID)+"/entries", nil)
	if err != nil {
		return "", fmt.Errorf("fetching discussion entries: %w", err)
	}

	if len(entries) == 0 {
		return "No posts found in this discussion.", nil
	}

	topicTitle := h.topicTitle(ctx, courseID, args.TopicID)
	display := h.resolver.DisplayName(courseID, args.CourseIdentifier)

	var info []string
	for _, entry := range entries {
		id := record.Int(entry, "id")
		userName := record.StringOr(entry, "user_name", "Unknown user")
		createdAt := format.Date(record.String(entry, "created_at"))

		msg := format.StripHTML(record.String(entry, "message"))
		if msg == "" {
			msg = "[No content]"
		} else if !args.IncludeFullContent {
			msg = format.Truncate(msg, 200)
		}

		replyText := "No replies"
		if replies := record.Maps(entry, "recent_replies"); len(replies) > 0 {
			suffix := ""
			if record.Bool(entry, "has_more_replies") {
				suffix = "+ more"
			}
			replyText = fmt.Sprintf("%d%s replies", len(replies), suffix)
		}

		info = append(info, fmt.Sprintf("• %s (%s)\n  ID: %d | %s\n  %s", userName, createdAt, id, replyText, msg))
	}

	result := fmt.Sprintf("Posts in '%s' (%s):\n\n", topicTitle, display) + strings.Join(info, "\n\n")
	if !args.IncludeFullContent {
		result += "\n\nTip: Use include_full_content=True for complete posts"
	}
	return result, nil
}

// GetEntryDetails shows a specific discussion post with its replies.
// The /view endpoint carries the most complete data; the entry_list
// endpoint is the fallback for posts not materialized in the view.
func (h *Handler) GetEntryDetails(ctx context.Context, args EntryDetailsArgs) (string, error) {
	courseID, err := h.resolver.Resolve(ctx, args.CourseIdentifier)
	if err != nil {
		return "", err
	}

	var entry map[string]interface{}
	var replies []map[string]interface{}

	viewResult, err := h.client.Get(ctx, h.topicPath(courseID, args.TopicID)+"/view", nil)
	if err != nil {
		h.logger.Warn("Failed to fetch discussion view", "topic", args.TopicID, "error", err)
	} else if view, ok := viewResult.(map[string]interface{}); ok {
		for _, candidate := range record.Maps(view, "view") {
			if fmt.Sprintf("%d", record.Int(candidate, "id")) == args.EntryID {
				entry = candidate
				if args.IncludeReplies {
					replies = record.Maps(candidate, "replies")
				}
				break
			}
		}
	}

	if entry == nil {
		params := url.Values{}
		params.Add("ids[]", args.EntryID)
		listResult, err := h.client.Get(ctx, h.topicPath(courseID, args.TopicID)+"/entry_list", params)
		if err != nil {
			h.logger.Warn("Failed to fetch entry list", "topic", args.TopicID, "error", err)
		} else if items, ok := listResult.([]interface{}); ok && len(items) > 0 {
			entry, _ = items[0].(map[string]interface{})
		}
	}

	if entry == nil {
		return fmt.Sprintf("Could not find post %s in discussion %s.", args.EntryID, args.TopicID), nil
	}

	if args.IncludeReplies && len(replies) == 0 {
		fetched, err := h.client.GetAllPages(ctx,
			h.topicPath(courseID, args.TopicID)+"/entries/"+url.PathEscape(args.EntryID)+"/replies", nil)
		if err != nil {
			h.logger.Warn("Failed to fetch replies", "entry", args.EntryID, "error", err)
		} else {
			replies = fetched
		}
	}

	topicTitle := h.topicTitle(ctx, courseID, args.TopicID)
	display := h.resolver.DisplayName(courseID, args.CourseIdentifier)

	var b strings.Builder
	fmt.Fprintf(&b, "Discussion Post in '%s' (%s):\n\n", topicTitle, display)
	fmt.Fprintf(&b, "Author: %s\n", record.StringOr(entry, "user_name", "Unknown user"))
	fmt.Fprintf(&b, "Posted: %s\n", format.Date(record.String(entry, "created_at")))
	fmt.Fprintf(&b, "Post ID: %s\n\n", args.EntryID)
	fmt.Fprintf(&b, "Content:\n%s\n", record.String(entry, "message"))

	if args.IncludeReplies && len(replies) > 0 {
		fmt.Fprintf(&b, "\nReplies (%d):\n%s\n", len(replies), strings.Repeat("=", 40))
		for i, reply := range replies {
			fmt.Fprintf(&b, "\n%d. %s (%s):\n%s\n",
				i+1,
				record.StringOr(reply, "user_name", "Unknown"),
				format.Date(record.String(reply, "created_at")),
				record.String(reply, "message"))
		}
	} else if args.IncludeReplies {
		b.WriteString("\nNo replies yet.")
	}

	return b.String(), nil
}

// PostEntry posts a new entry to a discussion topic
func (h *Handler) PostEntry(ctx context.Context, args PostEntryArgs) (string, error) {
	courseID, err := h.resolver.Resolve(ctx, args.CourseIdentifier)
	if err != nil {
		return "", err
	}

	result, err := h.client.Post(ctx, h.topicPath(courseID, args.TopicID)+"/entries", nil,
		map[string]interface{}{"message": args.Message})
	if err != nil {
		return "", fmt.Errorf("posting: %w", err)
	}

	entry, _ := result.(map[string]interface{})
	topicTitle := h.topicTitle(ctx, courseID, args.TopicID)
	display := h.resolver.DisplayName(courseID, args.CourseIdentifier)

	return fmt.Sprintf(
		"Posted successfully!\n\n"+
			"Discussion: %s\n"+
			"Course: %s\n"+
			"Post ID: %d\n"+
			"Posted: %s\n\n"+
			"Your post:\n%s",
		topicTitle, display,
		record.Int(entry, "id"),
		format.Date(record.String(entry, "created_at")),
		format.Truncate(args.Message, 200)), nil
}

// Reply replies to a discussion post
func (h *Handler) Reply(ctx context.Context, args ReplyArgs) (string, error) {
	courseID, err := h.resolver.Resolve(ctx, args.CourseIdentifier)
	if err != nil {
		return "", err
	}

	result, err := h.client.Post(ctx,
		h.topicPath(courseID, args.TopicID)+"/entries/"+url.PathEscape(args.EntryID)+"/replies", nil,
		map[string]interface{}{"message": args.Message})
	if err != nil {
		return "", fmt.Errorf("posting reply: %w", err)
	}

	reply, _ := result.(map[string]interface{})
	display := h.resolver.DisplayName(courseID, args.CourseIdentifier)

	return fmt.Sprintf(
		"Reply posted successfully!\n\n"+
			"Course: %s\n"+
			"Topic ID: %s\n"+
			"Original Post ID: %s\n"+
			"Your Reply ID: %d\n\n"+
			"Your reply:\n%s",
		display, args.TopicID, args.EntryID,
		record.Int(reply, "id"),
		format.Truncate(args.Message, 200)), nil
}

// ListAnnouncements lists announcements for a course
func (h *Handler) ListAnnouncements(ctx context.Context, args ListAnnouncementsArgs) (string, error) {
	courseID, err := h.resolver.Resolve(ctx, args.CourseIdentifier)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("only_announcements", "true")

	announcements, err := h.client.GetAllPages(ctx, fmt.Sprintf("/courses/%d/discussion_topics", courseID), params)
	if err != nil {
		return "", fmt.Errorf("fetching announcements: %w", err)
	}

	if len(announcements) == 0 {
		return "No announcements found.", nil
	}

	var info []string
	for _, ann := range announcements {
		id := record.Int(ann, "id")
		title := record.StringOr(ann, "title", "Untitled")
		postedAt := format.Date(record.String(ann, "posted_at"))

		preview := format.StripHTML(record.String(ann, "message"))
		if preview == "" {
			preview = "[No content]"
		} else {
			preview = format.Truncate(preview, 100)
		}

		info = append(info, fmt.Sprintf("• %s\n  ID: %d | Posted: %s\n  %s", title, id, postedAt, preview))
	}

	display := h.resolver.DisplayName(courseID, args.CourseIdentifier)
	return fmt.Sprintf("Announcements for %s:\n\n", display) + strings.Join(info, "\n\n"), nil
}

func (h *Handler) topicPath(courseID int64, topicID string) string {
	return fmt.Sprintf("/courses/%d/discussion_topics/%s", courseID, url.PathEscape(topicID))
}

// topicTitle fetches the topic title for display headers; failures fall
// back to a placeholder rather than aborting the main operation.
func (h *Handler) topicTitle(ctx context.Context, courseID int64, topicID string) string {
	result, err := h.client.Get(ctx, h.topicPath(courseID, topicID), nil)
	if err != nil {
		return "Unknown Topic"
	}
	topic, ok := result.(map[string]interface{})
	if !ok {
		return "Unknown Topic"
	}
	return record.StringOr(topic, "title", "Unknown Topic")
}
