package api

import (
	"net/http"
)

// registerRoutes sets up all API routes.
func (s *Server) registerRoutes() {
	// CORS middleware wrapper
	cors := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			h(w, r)
		}
	}

	// Health check
	s.mux.HandleFunc("GET /api/health", cors(s.handleHealth))

	// Todos
	s.mux.HandleFunc("GET /api/todos", cors(s.handleListTodos))
	s.mux.HandleFunc("POST /api/todos", cors(s.handleCreateTodo))
	s.mux.HandleFunc("GET /api/todos/{id}", cors(s.handleGetTodo))
	s.mux.HandleFunc("PATCH /api/todos/{id}", cors(s.handleUpdateTodo))
	s.mux.HandleFunc("DELETE /api/todos/{id}", cors(s.handleDeleteTodo))
	s.mux.HandleFunc("POST /api/todos/reorder", cors(s.handleReorderTodos))

	// Wish list
	s.mux.HandleFunc("GET /api/wishes", cors(s.handleListWishes))
	s.mux.HandleFunc("POST /api/wishes", cors(s.handleCreateWish))
	s.mux.HandleFunc("GET /api/wishes/{id}", cors(s.handleGetWish))
	s.mux.HandleFunc("PATCH /api/wishes/{id}", cors(s.handleUpdateWish))
	s.mux.HandleFunc("DELETE /api/wishes/{id}", cors(s.handleDeleteWish))
	s.mux.HandleFunc("POST /api/wishes/reorder", cors(s.handleReorderWishes))

	// Routines
	s.mux.HandleFunc("GET /api/routines", cors(s.handleListRoutines))
	s.mux.HandleFunc("POST /api/routines", cors(s.handleCreateRoutine))
	s.mux.HandleFunc("GET /api/routines/{id}", cors(s.handleGetRoutine))
	s.mux.HandleFunc("PATCH /api/routines/{id}", cors(s.handleUpdateRoutine))
	s.mux.HandleFunc("DELETE /api/routines/{id}", cors(s.handleDeleteRoutine))
	s.mux.HandleFunc("POST /api/routines/reorder", cors(s.handleReorderRoutines))

	// Feature requests
	s.mux.HandleFunc("GET /api/features", cors(s.handleListFeatures))
	s.mux.HandleFunc("POST /api/features", cors(s.handleCreateFeature))
	s.mux.HandleFunc("GET /api/features/{id}", cors(s.handleGetFeature))
	s.mux.HandleFunc("PATCH /api/features/{id}", cors(s.handleUpdateFeature))
	s.mux.HandleFunc("DELETE /api/features/{id}", cors(s.handleDeleteFeature))
	s.mux.HandleFunc("POST /api/features/reorder", cors(s.handleReorderFeatures))

	// Goals (hierarchical). /api/goals/layout wins over /api/goals/{id}
	// because ServeMux prefers the literal segment.
	s.mux.HandleFunc("GET /api/goals", cors(s.handleListGoals))
	s.mux.HandleFunc("POST /api/goals", cors(s.handleCreateGoal))
	s.mux.HandleFunc("GET /api/goals/layout", cors(s.handleGoalLayout))
	s.mux.HandleFunc("GET /api/goals/{id}", cors(s.handleGetGoal))
	s.mux.HandleFunc("GET /api/goals/{id}/children", cors(s.handleListGoalChildren))
	s.mux.HandleFunc("PATCH /api/goals/{id}", cors(s.handleUpdateGoal))
	s.mux.HandleFunc("DELETE /api/goals/{id}", cors(s.handleDeleteGoal))
	s.mux.HandleFunc("POST /api/goals/reorder", cors(s.handleReorderGoals))

	// Schedules
	s.mux.HandleFunc("GET /api/schedules", cors(s.handleListSchedules))
	s.mux.HandleFunc("POST /api/schedules", cors(s.handleCreateSchedule))
	s.mux.HandleFunc("GET /api/schedules/{id}", cors(s.handleGetSchedule))
	s.mux.HandleFunc("PATCH /api/schedules/{id}", cors(s.handleUpdateSchedule))
	s.mux.HandleFunc("DELETE /api/schedules/{id}", cors(s.handleDeleteSchedule))

	// Habits and toggle logs
	s.mux.HandleFunc("GET /api/habits", cors(s.handleListHabits))
	s.mux.HandleFunc("POST /api/habits", cors(s.handleCreateHabit))
	s.mux.HandleFunc("GET /api/habits/{id}", cors(s.handleGetHabit))
	s.mux.HandleFunc("PATCH /api/habits/{id}", cors(s.handleUpdateHabit))
	s.mux.HandleFunc("DELETE /api/habits/{id}", cors(s.handleDeleteHabit))
	s.mux.HandleFunc("POST /api/habits/{id}/toggle", cors(s.handleToggleHabit))
	s.mux.HandleFunc("GET /api/habits/{id}/logs", cors(s.handleListHabitLogs))
	s.mux.HandleFunc("GET /api/habit-logs", cors(s.handleListAllHabitLogs))

	// Diary (keyed by date)
	s.mux.HandleFunc("GET /api/diary", cors(s.handleListDiaryEntries))
	s.mux.HandleFunc("GET /api/diary/{date}", cors(s.handleGetDiaryEntry))
	s.mux.HandleFunc("PUT /api/diary/{date}", cors(s.handlePutDiaryEntry))
	s.mux.HandleFunc("DELETE /api/diary/{date}", cors(s.handleDeleteDiaryEntry))

	// Period notes (monthly "2024-05", weekly "2024-W21")
	s.mux.HandleFunc("GET /api/notes/{period}", cors(s.handleGetPeriodNote))
	s.mux.HandleFunc("PUT /api/notes/{period}", cors(s.handlePutPeriodNote))
	s.mux.HandleFunc("DELETE /api/notes/{period}", cors(s.handleDeletePeriodNote))

	// Budget
	s.mux.HandleFunc("GET /api/budget", cors(s.handleListBudgetEntries))
	s.mux.HandleFunc("POST /api/budget", cors(s.handleCreateBudgetEntry))
	s.mux.HandleFunc("GET /api/budget/summary", cors(s.handleBudgetSummary))
	s.mux.HandleFunc("GET /api/budget/{id}", cors(s.handleGetBudgetEntry))
	s.mux.HandleFunc("PATCH /api/budget/{id}", cors(s.handleUpdateBudgetEntry))
	s.mux.HandleFunc("DELETE /api/budget/{id}", cors(s.handleDeleteBudgetEntry))

	// WebSocket for real-time updates
	s.mux.Handle("GET /ws", s.wsHandler)
	s.mux.Handle("GET /api/ws", s.wsHandler)
}
