// Package validation содержит чистые проверки доменных инвариантов,
// не обращающиеся к хранилищу.
package validation

import (
	"time"

	"github.com/google/uuid"

	"github.com/kirvitchenko/finalProjectCrm/internal/domain/entity"
	domainErrors "github.com/kirvitchenko/finalProjectCrm/internal/domain/errors"
)

// Interval полуоткрытый интервал [Start, End)
type Interval struct {
	Start time.Time
	End   time.Time
}

// MeetingInterval возвращает интервал встречи
func MeetingInterval(m *entity.Meeting) Interval {
	return Interval{Start: m.Start, End: m.End}
}

// Overlaps сообщает, пересекаются ли интервалы [a,b) и [c,d): a < d && c < b.
// Соприкасающиеся интервалы не пересекаются.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// CheckMeetingInterval проверяет, что начало раньше конца и не в прошлом относительно now.
// Если нарушены оба правила, код ошибки INVALID_INTERVAL, а в Fields указаны оба поля.
func CheckMeetingInterval(start, end, now time.Time) error {
	var err *domainErrors.DomainError

	if !start.Before(end) {
		err = domainErrors.NewDomainError(
			domainErrors.CodeInvalidInterval,
			"meeting end must be after its start",
			domainErrors.ErrInvalidInterval,
		).WithField("end_datetime", "end must be after start")
	}

	if start.Before(now) {
		if err == nil {
			err = domainErrors.NewDomainError(
				domainErrors.CodePastStart,
				"meeting cannot start in the past",
				domainErrors.ErrPastStart,
			)
		}
		err.WithField("start_datetime", "start cannot be in the past")
	}

	if err != nil {
		return err
	}
	return nil
}

// FirstOverlap возвращает первую встречу из existing, пересекающуюся с candidate,
// пропуская встречу с идентификатором exclude.
func FirstOverlap(candidate Interval, existing []*entity.Meeting, exclude uuid.UUID) *entity.Meeting {
	for _, m := range existing {
		if m.ID == exclude {
			continue
		}
		if candidate.Overlaps(MeetingInterval(m)) {
			return m
		}
	}
	return nil
}

// OverlapError строит ошибку OVERLAPPING_MEETING для пользователя
func OverlapError(userID uuid.UUID, clash *entity.Meeting) error {
	return domainErrors.NewDomainError(
		domainErrors.CodeOverlappingMeeting,
		"user already attends meeting "+clash.ID.String()+" at this time",
		domainErrors.ErrOverlappingMeeting,
	).WithField("user_id", "user "+userID.String()+" has an overlapping meeting")
}
