// Package projection maps stored records into externally safe response
// shapes: foreign keys are flattened to display values (emails, names),
// internal identifiers are reduced to a string form of the primary key, and
// dates are rendered in fixed human-readable formats.
package projection

import (
	"strconv"
	"strings"
	"time"

	"github.com/huddle-dev/huddle/internal/models"
)

type ProjectResponse struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Creator          string   `json:"creator"`
	Active           bool     `json:"active"`
	Participants     []string `json:"participants"`
	InvitedUsers     []string `json:"invited_users,omitempty"`
	Tags             []string `json:"tags"`
	ScheduledUpdates []string `json:"scheduled_updates"`
	CreatedAt        string   `json:"created_at,omitempty"`
}

type UpdateResponse struct {
	ID           string `json:"id"`
	Project      string `json:"project"`
	Author       string `json:"author"`
	Status       string `json:"status"`
	Summary      string `json:"summary"`
	Details      string `json:"details"`
	Todos        string `json:"todos,omitempty"`
	Blockers     string `json:"blockers,omitempty"`
	DateCreated  string `json:"date_created"`
	DateModified string `json:"date_modified"`
}

type UserResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// ProjectAdmin is the owner-facing projection: it includes the pending
// invite list and the time-inclusive creation stamp.
func ProjectAdmin(project *models.Project, creator *models.User, participants, invitees []models.User) ProjectResponse {
	response := projectBase(project, creator, participants)
	response.InvitedUsers = emails(invitees)
	response.CreatedAt = FormatDateTime(project.CreatedAt)
	return response
}

// ProjectUser is the participant-facing projection: same flattening, but
// pending invites and creation metadata stay hidden.
func ProjectUser(project *models.Project, creator *models.User, participants []models.User) ProjectResponse {
	return projectBase(project, creator, participants)
}

func projectBase(project *models.Project, creator *models.User, participants []models.User) ProjectResponse {
	scheduled := make([]string, 0, len(project.ScheduledUpdates))
	for _, date := range project.ScheduledUpdates {
		scheduled = append(scheduled, FormatDate(date))
	}

	return ProjectResponse{
		ID:               formatID(project.ID),
		Name:             project.Name,
		Creator:          creator.Email,
		Active:           project.Active,
		Participants:     emails(participants),
		Tags:             CleanTags(project.Tags),
		ScheduledUpdates: scheduled,
	}
}

func Update(update *models.Update, author *models.User, project *models.Project) UpdateResponse {
	return UpdateResponse{
		ID:           formatID(update.ID),
		Project:      project.Name,
		Author:       author.Email,
		Status:       update.Status,
		Summary:      update.Summary,
		Details:      update.Details,
		Todos:        update.Todos,
		Blockers:     update.Blockers,
		DateCreated:  FormatDateTime(update.CreatedAt),
		DateModified: FormatDateTime(update.UpdatedAt),
	}
}

func User(user *models.User) UserResponse {
	return UserResponse{
		ID:        formatID(user.ID),
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	}
}

// CleanTags lowercases and trims every tag and drops duplicates, keeping
// first-occurrence order. Empty tags are dropped entirely.
func CleanTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	cleaned := make([]string, 0, len(tags))

	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		cleaned = append(cleaned, tag)
	}

	return cleaned
}

// FormatDate renders a scheduled-update date, e.g. "December 15th, 2022".
func FormatDate(date time.Time) string {
	date = date.UTC()
	return date.Format("January ") + ordinal(date.Day()) + date.Format(", 2006")
}

// FormatDateTime renders a record timestamp with the time of day included,
// e.g. "December 15th 2022, 9:04 pm".
func FormatDateTime(date time.Time) string {
	date = date.UTC()
	return date.Format("January ") + ordinal(date.Day()) + date.Format(" 2006, 3:04 pm")
}

func ordinal(day int) string {
	suffix := "th"

	switch day % 10 {
	case 1:
		if day%100 != 11 {
			suffix = "st"
		}
	case 2:
		if day%100 != 12 {
			suffix = "nd"
		}
	case 3:
		if day%100 != 13 {
			suffix = "rd"
		}
	}

	return strconv.Itoa(day) + suffix
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func emails(users []models.User) []string {
	list := make([]string, 0, len(users))
	for _, user := range users {
		list = append(list, user.Email)
	}
	return list
}
