package entity

type Statistics struct {
	TotalUsers       int                `json:"total_users"`
	TotalTeams       int                `json:"total_teams"`
	TotalTasks       int                `json:"total_tasks"`
	TasksByStatus    map[string]int     `json:"tasks_by_status"`
	TotalMeetings    int                `json:"total_meetings"`
	TotalEvaluations int                `json:"total_evaluations"`
	AverageByUser    map[string]float64 `json:"average_score_by_user"`
}
