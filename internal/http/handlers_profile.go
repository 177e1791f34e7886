package http

import (
	"errors"
	"net/http"
	"strings"

	"dailymeow/internal/avatar"
	"dailymeow/internal/core"
	"dailymeow/internal/log"
	"dailymeow/internal/services"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}

	login, err := s.svc.Profiles.Register(r.Context(), services.Registration{
		Name:     firstNonEmpty(p.Get("user"), p.Get("name")),
		Phone:    p.Get("phone"),
		Password: p.Get("password"),
		Timezone: p.Get("timezone"),
	})
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Profile registered", "user_id", login.Profile.ID)
	NewJSONResponse().Status(http.StatusCreated).Body(toLoginJSON(login)).Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}

	login, err := s.svc.Profiles.Login(r.Context(), firstNonEmpty(p.Get("user"), p.Get("name")), p.Get("password"))
	if err != nil {
		s.fail(w, r, log.OpLogin, err)
		return
	}
	NewJSONResponse().Body(toLoginJSON(login)).Write(w)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request, sess core.Session) {
	profile, err := s.svc.Profiles.Get(r.Context(), sess)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(toProfileJSON(profile)).Write(w)
}

// handleUpdateProfile accepts JSON, a urlencoded form, or a multipart form
// carrying an "avatar" file.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request, sess core.Session) {
	var in services.ProfileUpdate

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, avatar.MaxUploadBytes+maxBodyBytes)
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			BadRequestError("invalid multipart form").Write(w)
			return
		}
		in.Name = strings.TrimSpace(sanitizeInput(firstNonEmpty(r.FormValue("user"), r.FormValue("name"))))
		in.Phone = strings.TrimSpace(sanitizeInput(r.FormValue("phone")))
		in.Timezone = strings.TrimSpace(sanitizeInput(r.FormValue("timezone")))

		file, _, err := r.FormFile("avatar")
		switch {
		case err == nil:
			defer file.Close()
			in.Avatar = file
		case !errors.Is(err, http.ErrMissingFile):
			BadRequestError("invalid avatar upload").Write(w)
			return
		}
	} else {
		p := NewRequestBodyParser(r)
		if err := p.Parse(); err != nil {
			BadRequestError("invalid request body").Write(w)
			return
		}
		in.Name = firstNonEmpty(p.Get("user"), p.Get("name"))
		in.Phone = p.Get("phone")
		in.Timezone = p.Get("timezone")
	}

	profile, err := s.svc.Profiles.Update(r.Context(), sess, in)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}

	// Marker keys depend on the timezone; drop them all.
	if in.Timezone != "" {
		s.markers.DeletePrefix(sess.UserID + ":")
	}
	NewJSONResponse().Body(toProfileJSON(profile)).Write(w)
}

func (s *Server) handleAvatar(w http.ResponseWriter, r *http.Request, sess core.Session) {
	profile, err := s.svc.Profiles.Get(r.Context(), sess)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	if profile.AvatarFileRef == "" || s.avatars == nil {
		NotFoundError("no avatar").Write(w)
		return
	}
	path, err := s.avatars.Path(profile.AvatarFileRef)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, path)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
