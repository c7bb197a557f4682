package handler

import (
	"net/http"

	"inkwell/internal/account"
	"inkwell/internal/achievement"
	"inkwell/internal/auth"
	"inkwell/internal/model"
	"inkwell/internal/writing"

	"github.com/go-chi/chi/v5"
)

type MeHandler struct {
	Accounts *account.Service
	Writing  *writing.Coordinator
}

func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	u, err := h.Accounts.Me(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type profileReq struct {
	FullName    *string         `json:"fullName"`
	Bio         *string         `json:"bio"`
	Avatar      *string         `json:"avatar"`
	Preferences *preferencesReq `json:"preferences"`
}

type preferencesReq struct {
	Theme              *model.Theme `json:"theme"`
	EditorFont         *string      `json:"editorFont"`
	KeyboardShortcuts  *bool        `json:"keyboardShortcuts"`
	NotificationEmails *bool        `json:"notificationEmails"`
	WeeklyReports      *bool        `json:"weeklyReports"`
}

func (h *MeHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req profileReq
	if !decode(w, r, &req) {
		return
	}
	patch := account.ProfilePatch{FullName: req.FullName, Bio: req.Bio, Avatar: req.Avatar}
	if p := req.Preferences; p != nil {
		patch.Preferences = &account.PreferencesPatch{
			Theme:              p.Theme,
			EditorFont:         p.EditorFont,
			KeyboardShortcuts:  p.KeyboardShortcuts,
			NotificationEmails: p.NotificationEmails,
			WeeklyReports:      p.WeeklyReports,
		}
	}
	u, err := h.Accounts.UpdateProfile(r.Context(), uid, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type dailyGoalReq struct {
	DailyWordGoal *int `json:"dailyWordGoal"`
	WordsToday    *int `json:"wordsToday"`
}

func (h *MeHandler) SetDailyGoal(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req dailyGoalReq
	if !decode(w, r, &req) {
		return
	}
	u, err := h.Writing.SetDailyGoalAndWords(r.Context(), uid, writing.GoalUpdate{
		DailyWordGoal: req.DailyWordGoal,
		WordsToday:    req.WordsToday,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *MeHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	u, err := h.Accounts.MarkNotificationRead(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u.Notifications)
}

func (h *MeHandler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	u, err := h.Accounts.MarkAllNotificationsRead(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u.Notifications)
}

func (h *MeHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	u, err := h.Accounts.Me(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, achievement.Catalog(u))
}

func (h *MeHandler) Achievement(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	u, err := h.Accounts.Me(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	st, ok := achievement.StatusOf(u, chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
