package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/kirvitchenko/finalProjectCrm/internal/domain/entity"
)

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail содержит код, сообщение и ошибки по полям
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Пользователи

type RegisterRequest struct {
	Username  string `json:"username" validate:"required,max=150"`
	Email     string `json:"email" validate:"omitempty,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        UserDTO   `json:"user"`
}

type UpdateProfileRequest struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
}

// SetIsStaffRequest запрос на изменение флага администратора системы
type SetIsStaffRequest struct {
	UserID  string `json:"user_id" validate:"required,uuid"`
	IsStaff bool   `json:"is_staff"`
}

type UserDTO struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	IsStaff   bool      `json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
}

func ToUserDTO(u *entity.User) UserDTO {
	return UserDTO{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsStaff:   u.IsStaff,
		CreatedAt: u.CreatedAt,
	}
}

// Команды

type CreateTeamRequest struct {
	Name string `json:"name" validate:"required,max=30"`
}

type UpdateTeamRequest struct {
	Name string `json:"name" validate:"required,max=30"`
}

type AddMemberRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Role   string `json:"role" validate:"omitempty,team_role"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,team_role"`
}

type TeamMemberDTO struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type TeamDTO struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	CreatorID *string         `json:"creator_id"`
	CreatedAt time.Time       `json:"created_at"`
	Members   []TeamMemberDTO `json:"members,omitempty"`
}

type MembershipDTO struct {
	TeamID string `json:"team_id"`
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func ToTeamDTO(t *entity.Team) TeamDTO {
	return TeamDTO{
		ID:        t.ID.String(),
		Name:      t.Name,
		CreatorID: uuidString(t.CreatorID),
		CreatedAt: t.CreatedAt,
	}
}

func ToTeamWithMembersDTO(t *entity.TeamWithMembers) TeamDTO {
	result := ToTeamDTO(&t.Team)
	result.Members = make([]TeamMemberDTO, 0, len(t.Members))
	for _, m := range t.Members {
		result.Members = append(result.Members, TeamMemberDTO{
			UserID:   m.UserID.String(),
			Username: m.Username,
			Role:     string(m.Role),
		})
	}
	return result
}

func ToMembershipDTO(m *entity.Membership) MembershipDTO {
	return MembershipDTO{
		TeamID: m.TeamID.String(),
		UserID: m.UserID.String(),
		Role:   string(m.Role),
	}
}

// Задачи и комментарии

type CreateTaskRequest struct {
	TeamID      string     `json:"team_id" validate:"required,uuid"`
	Description string     `json:"description" validate:"required"`
	PerformerID *string    `json:"performer_id" validate:"omitempty,uuid"`
	Deadline    *time.Time `json:"deadline"`
}

// UpdateTaskRequest частичное обновление; clear_* сбрасывают поле в null
type UpdateTaskRequest struct {
	Status         *string    `json:"status" validate:"omitempty,task_status"`
	PerformerID    *string    `json:"performer_id" validate:"omitempty,uuid"`
	ClearPerformer bool       `json:"clear_performer"`
	Description    *string    `json:"description" validate:"omitempty,min=1"`
	Deadline       *time.Time `json:"deadline"`
	ClearDeadline  bool       `json:"clear_deadline"`
}

type TaskDTO struct {
	ID          string     `json:"id"`
	TeamID      string     `json:"team_id"`
	AuthorID    *string    `json:"author_id"`
	PerformerID *string    `json:"performer_id"`
	Status      string     `json:"status"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func ToTaskDTO(t *entity.Task) TaskDTO {
	return TaskDTO{
		ID:          t.ID.String(),
		TeamID:      t.TeamID.String(),
		AuthorID:    uuidString(t.AuthorID),
		PerformerID: uuidString(t.PerformerID),
		Status:      string(t.Status),
		Description: t.Description,
		Deadline:    t.Deadline,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func ToTaskDTOs(tasks []*entity.Task) []TaskDTO {
	result := make([]TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		result = append(result, ToTaskDTO(t))
	}
	return result
}

type CreateCommentRequest struct {
	Text string `json:"text" validate:"required"`
}

type CommentDTO struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func ToCommentDTO(c *entity.Comment) CommentDTO {
	return CommentDTO{
		ID:        c.ID.String(),
		TaskID:    c.TaskID.String(),
		UserID:    c.UserID.String(),
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
}

// Оценки

// RecordEvaluationRequest null в evaluation означает "не оценено"
type RecordEvaluationRequest struct {
	Evaluation *int `json:"evaluation" validate:"omitempty,score"`
}

type EvaluationDTO struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"task_id"`
	PerformerID *string   `json:"performer_id"`
	Evaluation  *int      `json:"evaluation"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ToEvaluationDTO(e *entity.Evaluation) EvaluationDTO {
	return EvaluationDTO{
		ID:          e.ID.String(),
		TaskID:      e.TaskID.String(),
		PerformerID: uuidString(e.PerformerID),
		Evaluation:  e.Score,
		UpdatedAt:   e.UpdatedAt,
	}
}

// Встречи

type ScheduleMeetingRequest struct {
	StartDatetime time.Time `json:"start_datetime" validate:"required"`
	EndDatetime   time.Time `json:"end_datetime" validate:"required"`
	Participants  []string  `json:"participants" validate:"dive,uuid"`
}

type RescheduleMeetingRequest struct {
	StartDatetime time.Time `json:"start_datetime" validate:"required"`
	EndDatetime   time.Time `json:"end_datetime" validate:"required"`
}

type AddParticipantRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

type MeetingDTO struct {
	ID            string    `json:"id"`
	StartDatetime time.Time `json:"start_datetime"`
	EndDatetime   time.Time `json:"end_datetime"`
	Participants  []string  `json:"participants,omitempty"`
}

func ToMeetingDTO(m *entity.Meeting) MeetingDTO {
	return MeetingDTO{
		ID:            m.ID.String(),
		StartDatetime: m.Start,
		EndDatetime:   m.End,
	}
}

func ToMeetingWithParticipantsDTO(m *entity.MeetingWithParticipants) MeetingDTO {
	result := ToMeetingDTO(&m.Meeting)
	result.Participants = make([]string, 0, len(m.Participants))
	for _, id := range m.Participants {
		result.Participants = append(result.Participants, id.String())
	}
	return result
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
