package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kirvitchenko/finalProjectCrm/internal/transport/http/dto"
	"github.com/kirvitchenko/finalProjectCrm/internal/usecase"
)

// MeetingHandler обрабатывает запросы для встреч. У встречи нет владельца, поэтому переносить,
// удалять и менять состав участников может любой аутентифицированный пользователь.
type MeetingHandler struct {
	*Common
	meetingUseCase *usecase.MeetingUseCase
}

// NewMeetingHandler создает новый handler для встреч
func NewMeetingHandler(common *Common, meetingUseCase *usecase.MeetingUseCase) *MeetingHandler {
	return &MeetingHandler{
		Common:         common,
		meetingUseCase: meetingUseCase,
	}
}

// ScheduleMeeting обрабатывает POST /meetings
func (h *MeetingHandler) ScheduleMeeting(w http.ResponseWriter, r *http.Request) {
	var req dto.ScheduleMeetingRequest
	if err := h.decode(r, &req); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	participants := make([]uuid.UUID, 0, len(req.Participants))
	for _, p := range req.Participants {
		id, err := parseUUID("participants", p)
		if err != nil {
			h.handleUseCaseError(w, r, err)
			return
		}
		participants = append(participants, id)
	}

	meeting, err := h.meetingUseCase.ScheduleMeeting(r.Context(), req.StartDatetime, req.EndDatetime, participants...)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToMeetingWithParticipantsDTO(meeting))
}

// GetMeeting обрабатывает GET /meetings/{meetingID}
func (h *MeetingHandler) GetMeeting(w http.ResponseWriter, r *http.Request) {
	meetingID, err := pathUUID(r, "meetingID")
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	meeting, err := h.meetingUseCase.GetMeeting(r.Context(), meetingID)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToMeetingWithParticipantsDTO(meeting))
}

// RescheduleMeeting обрабатывает PATCH /meetings/{meetingID}
func (h *MeetingHandler) RescheduleMeeting(w http.ResponseWriter, r *http.Request) {
	meetingID, err := pathUUID(r, "meetingID")
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	var req dto.RescheduleMeetingRequest
	if err := h.decode(r, &req); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	meeting, err := h.meetingUseCase.RescheduleMeeting(r.Context(), meetingID, req.StartDatetime, req.EndDatetime)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToMeetingWithParticipantsDTO(meeting))
}

// DeleteMeeting обрабатывает DELETE /meetings/{meetingID}
func (h *MeetingHandler) DeleteMeeting(w http.ResponseWriter, r *http.Request) {
	meetingID, err := pathUUID(r, "meetingID")
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	if err := h.meetingUseCase.DeleteMeeting(r.Context(), meetingID); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddParticipant обрабатывает POST /meetings/{meetingID}/participants
func (h *MeetingHandler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	meetingID, err := pathUUID(r, "meetingID")
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	var req dto.AddParticipantRequest
	if err := h.decode(r, &req); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	userID, err := parseUUID("user_id", req.UserID)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	if err := h.meetingUseCase.AddParticipant(r.Context(), meetingID, userID); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	meeting, err := h.meetingUseCase.GetMeeting(r.Context(), meetingID)
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToMeetingWithParticipantsDTO(meeting))
}

// RemoveParticipant обрабатывает DELETE /meetings/{meetingID}/participants/{userID}
func (h *MeetingHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	meetingID, err := pathUUID(r, "meetingID")
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}
	userID, err := pathUUID(r, "userID")
	if err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	if err := h.meetingUseCase.RemoveParticipant(r.Context(), meetingID, userID); err != nil {
		h.handleUseCaseError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
