package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jaam8/poll_profiles/internal/auth"
	"github.com/jaam8/poll_profiles/internal/models"
	"go.uber.org/zap"
)

type signUpRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type pollRequest struct {
	PollID string `json:"pollId"`
}

type voteRequest struct {
	PollID string `json:"pollId"`
	Choice string `json:"choice"`
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request")
		return
	}
	res, err := h.auth.SignUp(r.Context(), strings.TrimSpace(req.Email), req.Password, req.ConfirmPassword)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request")
		return
	}
	res, err := h.auth.SignIn(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) FederatedSignIn(w http.ResponseWriter, r *http.Request) {
	var req auth.FederatedAssertion
	if err := decode(r, &req); err != nil || req.PostBody == "" {
		badRequest(w, "invalid request")
		return
	}
	res, err := h.auth.FederatedSignIn(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SignOut always succeeds from the client's point of view.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SignOut(r.Context(), sessionFrom(r.Context())); err != nil {
		h.l.Warn("sign out failed", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.LookupProfile(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) ListFollowers(w http.ResponseWriter, r *http.Request) {
	h.listRelations(w, r, false)
}

func (h *Handler) ListFollowing(w http.ResponseWriter, r *http.Request) {
	h.listRelations(w, r, true)
}

func (h *Handler) listRelations(w http.ResponseWriter, r *http.Request, following bool) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	profile, err := h.profiles.LookupProfile(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var uids []string
	if following {
		uids = h.profiles.Following(profile, offset, limit)
	} else {
		uids = h.profiles.Followers(profile, offset, limit)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"uids": uids, "offset": offset})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	profile, err := h.me(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var edits models.ProfileEdits
	if err := decode(r, &edits); err != nil {
		badRequest(w, "invalid request")
		return
	}
	current, err := h.me(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	profile, err := h.profiles.UpdateProfile(r.Context(), current, edits)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	uid, err := h.profiles.Follow(r.Context(), sessionFrom(r.Context()).UID, chi.URLParam(r, "uid"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"uid": uid})
}

func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	uid, err := h.profiles.Unfollow(r.Context(), sessionFrom(r.Context()).UID, chi.URLParam(r, "uid"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"uid": uid})
}

func (h *Handler) AddPoll(w http.ResponseWriter, r *http.Request) {
	var req pollRequest
	if err := decode(r, &req); err != nil || req.PollID == "" {
		badRequest(w, "pollId is required")
		return
	}
	profile, err := h.me(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	pollID, err := h.profiles.AddOwnedPoll(r.Context(), profile, req.PollID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"pollId": pollID})
}

func (h *Handler) RemovePoll(w http.ResponseWriter, r *http.Request) {
	profile, err := h.me(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	pollID, err := h.profiles.RemoveOwnedPoll(r.Context(), profile, chi.URLParam(r, "pollID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"pollId": pollID})
}

func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := decode(r, &req); err != nil || req.PollID == "" {
		badRequest(w, "pollId is required")
		return
	}
	choice, err := models.ParseChoice(req.Choice)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	profile, err := h.me(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	next, err := h.profiles.RecordVote(r.Context(), profile, req.PollID, choice)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

func (h *Handler) me(r *http.Request) (*models.Profile, error) {
	return h.profiles.LoadProfile(r.Context(), sessionFrom(r.Context()).UID)
}
