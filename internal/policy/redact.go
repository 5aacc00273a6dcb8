package policy

import "github.com/spec-kit/helpdesk/internal/domain"

// RedactedBody replaces internal comment content for non-staff viewers.
const RedactedBody = "[internal note]"

// RedactForViewer returns the thread as the viewer may see it. Internal
// comments stay in the list for non-staff viewers, but body and author are
// replaced with a neutral placeholder; id and timestamps remain visible.
// One policy, applied by every serving path.
func RedactForViewer(viewer Actor, comments []domain.Comment) []domain.Comment {
	if viewer.Role.IsStaff() {
		return comments
	}
	out := make([]domain.Comment, len(comments))
	for i, c := range comments {
		if c.IsInternal {
			c.Body = RedactedBody
			c.AuthorID = nil
			c.Attachments = nil
		}
		out[i] = c
	}
	return out
}
